package validation

import (
	"strings"
	"testing"
)

type sample struct {
	Name  string   `json:"name" validate:"required"`
	Count int      `json:"count" validate:"min=0,max=100"`
	Mode  string   `json:"mode" validate:"oneof=follow warmup"`
	Tags  []string `json:"tags" validate:"max=3"`
	Free  string   `json:"free"`
}

func TestValidateOK(t *testing.T) {
	v := NewValidator()
	s := sample{Name: "a", Count: 50, Mode: "follow", Tags: []string{"x"}}
	if err := v.Validate(&s); err != nil {
		t.Fatalf("expected valid, got %v", err)
	}
}

func TestRequired(t *testing.T) {
	v := NewValidator()
	s := sample{Mode: "follow"}
	err := v.Validate(&s)
	if err == nil || !strings.Contains(err.Error(), "name") {
		t.Fatalf("expected a required error naming the json field, got %v", err)
	}
}

func TestMinMaxNumeric(t *testing.T) {
	v := NewValidator()

	s := sample{Name: "a", Count: -1, Mode: "follow"}
	if err := v.Validate(&s); err == nil {
		t.Fatal("negative count should fail min=0")
	}

	s.Count = 101
	if err := v.Validate(&s); err == nil {
		t.Fatal("count above max should fail")
	}
}

func TestMaxSliceLength(t *testing.T) {
	v := NewValidator()
	s := sample{Name: "a", Mode: "follow", Tags: []string{"a", "b", "c", "d"}}
	if err := v.Validate(&s); err == nil {
		t.Fatal("oversized slice should fail max")
	}
}

func TestOneOf(t *testing.T) {
	v := NewValidator()

	s := sample{Name: "a", Mode: "turbo"}
	err := v.Validate(&s)
	if err == nil || !strings.Contains(err.Error(), "one of") {
		t.Fatalf("expected a oneof error, got %v", err)
	}

	// empty strings skip oneof; required catches them where it matters
	s.Mode = ""
	if err := v.Validate(&s); err != nil {
		t.Fatalf("empty oneof value should pass, got %v", err)
	}
}

func TestValidateRejectsNonStruct(t *testing.T) {
	v := NewValidator()
	if err := v.Validate("not a struct"); err == nil {
		t.Fatal("expected an error for a non-struct value")
	}
}
