package models

import (
	"bytes"
	"encoding/json"
)

// JSONList records whether a JSON field was present and whether it held an
// array. A non-array value is not a decode error; callers decide how to
// report it. An explicit null counts as absent.
type JSONList[T any] struct {
	Items   []T
	Present bool
	IsList  bool
}

func ListOf[T any](items ...T) JSONList[T] {
	if items == nil {
		items = []T{}
	}
	return JSONList[T]{Items: items, Present: true, IsList: true}
}

func (l *JSONList[T]) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	*l = JSONList[T]{}
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	l.Present = true
	if len(data) == 0 || data[0] != '[' {
		return nil
	}
	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		return err
	}
	if items == nil {
		items = []T{}
	}
	l.Items = items
	l.IsList = true
	return nil
}

func (l JSONList[T]) MarshalJSON() ([]byte, error) {
	if !l.Present || !l.IsList {
		return []byte("null"), nil
	}
	return json.Marshal(l.Items)
}
