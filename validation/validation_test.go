package validation

import (
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/kbukum/flowc/errors"
)

func TestValidatorRequired(t *testing.T) {
	if New().Required("name", "sma").HasErrors() {
		t.Error("expected no errors for valid input")
	}
	if !New().Required("name", "   ").HasErrors() {
		t.Error("expected error for whitespace-only required field")
	}
}

func TestValidatorMin(t *testing.T) {
	v := New().Min("window", 0, 1)
	if !v.HasErrors() {
		t.Fatal("expected error for window below minimum")
	}
	if v.Errors()[0].Message != "must be at least 1" {
		t.Errorf("unexpected message %q", v.Errors()[0].Message)
	}
}

func TestValidatorLess(t *testing.T) {
	if New().Less("fast", 12, 26, "must be below slow").HasErrors() {
		t.Error("expected no error when fast < slow")
	}
	if !New().Less("fast", 26, 12, "must be below slow").HasErrors() {
		t.Error("expected error when fast >= slow")
	}
}

func TestValidatorOneOf(t *testing.T) {
	allowed := []string{"json", "console"}
	if New().OneOf("format", "json", allowed).HasErrors() {
		t.Error("expected no error for allowed value")
	}
	if New().OneOf("format", "", allowed).HasErrors() {
		t.Error("expected empty value to be skipped")
	}
	if !New().OneOf("format", "xml", allowed).HasErrors() {
		t.Error("expected error for disallowed value")
	}
}

func TestValidatorOptionalUUID(t *testing.T) {
	if New().OptionalUUID("id", uuid.NewString()).HasErrors() {
		t.Error("expected no error for valid UUID")
	}
	if !New().OptionalUUID("id", "bad").HasErrors() {
		t.Error("expected error for invalid UUID")
	}
}

func TestValidatorValidate(t *testing.T) {
	v := New()
	if v.Validate() != nil || v.Err() != nil {
		t.Fatal("expected nil for no errors")
	}
	v.Min("window", 0, 1).NonNegative("std", -1)
	appErr := v.Validate()
	if appErr == nil || appErr.Code != errors.ErrCodeInvalidInput {
		t.Fatalf("expected INVALID_INPUT, got %v", appErr)
	}
	if !strings.Contains(appErr.Message, "window") || !strings.Contains(appErr.Message, "std") {
		t.Errorf("expected both fields in message, got %q", appErr.Message)
	}
}

type step struct {
	Op   string `yaml:"op" validate:"required,oneof=map filter"`
	Size int    `yaml:"size" validate:"gte=0"`
}

type doc struct {
	Name  string `yaml:"name" validate:"required"`
	Steps []step `yaml:"steps" validate:"dive"`
}

func TestValidateStruct(t *testing.T) {
	if err := Validate(doc{Name: "ok", Steps: []step{{Op: "map"}}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err := Validate(doc{Steps: []step{{Op: "explode", Size: -1}}})
	if !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Fatalf("expected INVALID_INPUT, got %v", err)
	}
	msg := err.Error()
	for _, want := range []string{"name: is required", "steps[0].op: must be one of: map filter", "steps[0].size: must be at least 0"} {
		if !strings.Contains(msg, want) {
			t.Errorf("expected %q in %q", want, msg)
		}
	}
}
