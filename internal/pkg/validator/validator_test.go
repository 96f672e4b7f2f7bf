package validator

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestIsEmpty(t *testing.T) {
	cases := []struct {
		input string
		want  bool
	}{
		{"", true},
		{"   ", true},
		{"abc", false},
		{" abc ", false},
	}
	for _, c := range cases {
		got := IsEmpty(c.input)
		if got != c.want {
			t.Errorf("IsEmpty(%q) = %v, want %v", c.input, got, c.want)
		}
	}
}

func TestIsNumeric(t *testing.T) {
	valid := []string{"123", "0", "9876543210"}
	invalid := []string{"abc", "123a", "", "-123"}
	for _, s := range valid {
		if !IsNumeric(s) {
			t.Errorf("IsNumeric(%q) = false, want true", s)
		}
	}
	for _, s := range invalid {
		if IsNumeric(s) {
			t.Errorf("IsNumeric(%q) = true, want false", s)
		}
	}
}

func TestIsValidDate(t *testing.T) {
	valid := []string{"2024-01-01", "2000-12-31"}
	invalid := []string{"2024-13-01", "01-01-2024", "2024/01/01", ""}
	for _, s := range valid {
		if _, ok := IsValidDate(s); !ok {
			t.Errorf("IsValidDate(%q) = false, want true", s)
		}
	}
	for _, s := range invalid {
		if _, ok := IsValidDate(s); ok {
			t.Errorf("IsValidDate(%q) = true, want false", s)
		}
	}
}

func TestIsValidAfpProvider(t *testing.T) {
	for _, p := range []string{"HABITAT", "INTEGRA", "PRIMA", "PROFUTURO"} {
		assert.True(t, IsValidAfpProvider(p), p)
	}
	assert.False(t, IsValidAfpProvider("integra"))
	assert.False(t, IsValidAfpProvider("ONP"))
}

func TestIsFraction(t *testing.T) {
	assert.True(t, IsFraction(decimal.Zero))
	assert.True(t, IsFraction(decimal.RequireFromString("0.1369")))
	assert.True(t, IsFraction(decimal.NewFromInt(1)))
	assert.False(t, IsFraction(decimal.RequireFromString("1.01")))
	assert.False(t, IsFraction(decimal.RequireFromString("-0.01")))
}

func TestValidationErrors_ToMap(t *testing.T) {
	errs := ValidationErrors{
		{Field: "start", Message: "is required"},
		{Field: "end", Message: "must not be before start"},
	}
	assert.Equal(t, map[string]string{
		"start": "is required",
		"end":   "must not be before start",
	}, errs.ToMap())
	assert.Equal(t, "start: is required; end: must not be before start", errs.Error())
}
