package validation

import (
	"errors"
	"strings"
	"testing"
)

type signupForm struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

func TestStructReportsJSONFieldNames(t *testing.T) {
	v, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	err = v.Struct(signupForm{Email: "not-an-email", Password: "abc"})

	var verrs Errors
	if !errors.As(err, &verrs) {
		t.Fatalf("expected Errors, got %T (%v)", err, err)
	}
	if len(verrs) != 2 {
		t.Fatalf("expected 2 field errors, got %d: %v", len(verrs), verrs)
	}
	if verrs[0].Field != "email" || verrs[1].Field != "password" {
		t.Fatalf("unexpected fields: %+v", verrs)
	}
	if !strings.Contains(verrs[0].Message, "email") {
		t.Fatalf("message not translated: %q", verrs[0].Message)
	}
}

func TestStructAcceptsValidInput(t *testing.T) {
	v, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if err := v.Struct(signupForm{Email: "admin@school.edu", Password: "secret1"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
