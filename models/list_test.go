package models

import (
	"encoding/json"
	"testing"
	"time"
)

func TestJSONListUnmarshal(t *testing.T) {
	type body struct {
		AssignedTo JSONList[string] `json:"assignedTo"`
	}
	tests := []struct {
		name        string
		input       string
		wantPresent bool
		wantList    bool
		wantLen     int
	}{
		{"absent", `{}`, false, false, 0},
		{"null", `{"assignedTo": null}`, false, false, 0},
		{"string", `{"assignedTo": "abc"}`, true, false, 0},
		{"object", `{"assignedTo": {"id": "abc"}}`, true, false, 0},
		{"empty list", `{"assignedTo": []}`, true, true, 0},
		{"list", `{"assignedTo": ["a", "b"]}`, true, true, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var b body
			if err := json.Unmarshal([]byte(tt.input), &b); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if b.AssignedTo.Present != tt.wantPresent {
				t.Errorf("Present = %v, want %v", b.AssignedTo.Present, tt.wantPresent)
			}
			if b.AssignedTo.IsList != tt.wantList {
				t.Errorf("IsList = %v, want %v", b.AssignedTo.IsList, tt.wantList)
			}
			if len(b.AssignedTo.Items) != tt.wantLen {
				t.Errorf("len(Items) = %d, want %d", len(b.AssignedTo.Items), tt.wantLen)
			}
		})
	}
}

func TestJSONListRejectsWrongElementType(t *testing.T) {
	var l JSONList[string]
	if err := json.Unmarshal([]byte(`[1, 2]`), &l); err == nil {
		t.Error("expected error for numeric elements")
	}
}

func TestFlexTime(t *testing.T) {
	tests := []struct {
		input string
		want  time.Time
	}{
		{`"2025-04-01T10:30:00Z"`, time.Date(2025, 4, 1, 10, 30, 0, 0, time.UTC)},
		{`"2025-04-01T10:30:00+02:00"`, time.Date(2025, 4, 1, 8, 30, 0, 0, time.UTC)},
		{`"2025-04-01"`, time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)},
		{`"2025-04-01T10:30"`, time.Date(2025, 4, 1, 10, 30, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		var ft FlexTime
		if err := json.Unmarshal([]byte(tt.input), &ft); err != nil {
			t.Errorf("unmarshal %s: %v", tt.input, err)
			continue
		}
		if !ft.Equal(tt.want) {
			t.Errorf("unmarshal %s = %v, want %v", tt.input, ft.Time, tt.want)
		}
	}

	var ft FlexTime
	if err := json.Unmarshal([]byte(`"next tuesday"`), &ft); err == nil {
		t.Error("expected error for unparseable date")
	}
}
