package validation

import (
	"testing"

	apperrors "sitex/internal/errors"

	"github.com/stretchr/testify/assert"
)

type basicForm struct {
	Name  string `form:"name" validate:"required,max=5"`
	Email string `json:"email" validate:"omitempty,email"`
}

func TestStruct(t *testing.T) {
	tests := []struct {
		name   string
		input  basicForm
		fields []string
	}{
		{name: "valid", input: basicForm{Name: "shop"}},
		{name: "missing name", input: basicForm{}, fields: []string{"name"}},
		{name: "long name and bad email", input: basicForm{Name: "toolong", Email: "nope"}, fields: []string{"name", "email"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := New()
			v.Struct(&tt.input)
			assert.Len(t, v.Errors, len(tt.fields))
			for _, f := range tt.fields {
				assert.Contains(t, v.Errors, f)
			}
		})
	}
}

func TestDocumentName(t *testing.T) {
	for name, ok := range map[string]bool{
		"id.pdf":   true,
		"scan.JPG": true,
		"a.jpeg":   true,
		"b.png":    true,
		"c.exe":    false,
		"noext":    false,
	} {
		v := New()
		v.DocumentName("id_document", name)
		assert.Equal(t, ok, v.Valid(), name)
	}
}

func TestErrIsValidation(t *testing.T) {
	v := New()
	assert.NoError(t, v.Err())

	v.AddError("amount", "first")
	v.AddError("amount", "second")
	err := v.Err()
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	assert.Equal(t, "first", err.(apperrors.FieldErrors)["amount"])
}

func TestAmount(t *testing.T) {
	tests := []struct {
		raw   string
		valid bool
		want  string
	}{
		{raw: "50.00", valid: true, want: "50"},
		{raw: " 12.5 ", valid: true, want: "12.5"},
		{raw: "1.000", valid: true, want: "1"},
		{raw: "0", valid: false},
		{raw: "-3", valid: false},
		{raw: "abc", valid: false},
		{raw: "", valid: false},
		{raw: "1.005", valid: false},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			v := New()
			got := v.Amount("amount", tt.raw)
			assert.Equal(t, tt.valid, v.Valid())
			if tt.valid {
				assert.Equal(t, tt.want, got.String())
			}
		})
	}
}
