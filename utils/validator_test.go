package utils

import (
	"strings"
	"testing"
)

type signupForm struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

func TestValidateStructMessages(t *testing.T) {
	err := ValidateStruct(signupForm{Email: "nope", Password: "short"})
	if err == nil {
		t.Fatal("expected validation error")
	}
	msg := err.Error()
	for _, want := range []string{"name is required", "email must be a valid email", "password must be at least 8 characters"} {
		if !strings.Contains(msg, want) {
			t.Errorf("message %q missing %q", msg, want)
		}
	}

	if err := ValidateStruct(signupForm{Name: "a", Email: "a@example.com", Password: "longenough"}); err != nil {
		t.Errorf("valid form rejected: %v", err)
	}
}

func TestNormalizeEmail(t *testing.T) {
	got, err := NormalizeEmail("  Ada@Example.COM ")
	if err != nil || got != "ada@example.com" {
		t.Errorf("NormalizeEmail = %q, %v", got, err)
	}
	if _, err := NormalizeEmail("ada@"); err == nil {
		t.Error("expected format error")
	}
}
