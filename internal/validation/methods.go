package validation

import (
	"fmt"
	"path/filepath"
	"reflect"
	"strings"
	"sync"

	apperrors "sitex/internal/errors"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// Validator collects field-scoped validation errors.
type Validator struct {
	Errors map[string]string
}

var (
	structValidator *validator.Validate
	once            sync.Once
)

func engine() *validator.Validate {
	once.Do(func() {
		structValidator = validator.New(validator.WithRequiredStructEnabled())
		structValidator.RegisterTagNameFunc(func(fld reflect.StructField) string {
			for _, tag := range []string{"form", "json"} {
				name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
				if name != "" && name != "-" {
					return name
				}
			}
			return fld.Name
		})
	})
	return structValidator
}

// New creates a new validator
func New() *Validator {
	return &Validator{Errors: make(map[string]string)}
}

// Valid checks if there are any validation errors
func (v *Validator) Valid() bool {
	return len(v.Errors) == 0
}

// AddError records the first error reported for a field.
func (v *Validator) AddError(field, message string) {
	if _, exists := v.Errors[field]; !exists {
		v.Errors[field] = message
	}
}

// Check adds an error if the condition is false
func (v *Validator) Check(ok bool, field, message string) {
	if !ok {
		v.AddError(field, message)
	}
}

// Err returns the collected errors, or nil when the input is valid.
func (v *Validator) Err() error {
	if v.Valid() {
		return nil
	}
	return apperrors.FieldErrors(v.Errors)
}

// Struct runs the `validate` tags of s and records each failure by its form/json name.
func (v *Validator) Struct(s interface{}) {
	err := engine().Struct(s)
	if err == nil {
		return
	}
	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		v.AddError("_", err.Error())
		return
	}
	for _, fe := range fieldErrs {
		v.AddError(fe.Field(), message(fe))
	}
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "email":
		return "must be a valid email address"
	case "max":
		return fmt.Sprintf("must not be more than %s characters long", fe.Param())
	case "min":
		return fmt.Sprintf("must be at least %s characters long", fe.Param())
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	default:
		return "is invalid"
	}
}

// Required checks if a string is not empty
func (v *Validator) Required(field, value string) {
	v.Check(strings.TrimSpace(value) != "", field, "This field is required.")
}

// MaxLength checks if a string has at most n characters
func (v *Validator) MaxLength(field string, value string, n int) {
	v.Check(len([]rune(value)) <= n, field, fmt.Sprintf("must not be more than %d characters long", n))
}

// Password validates password length bounds.
func (v *Validator) Password(field, password string) {
	v.Check(len(password) >= MinPasswordLength, field,
		fmt.Sprintf("must be at least %d characters long", MinPasswordLength))
	v.Check(len(password) <= MaxPasswordLength, field,
		fmt.Sprintf("must not be more than %d characters long", MaxPasswordLength))
}

// DocumentName rejects uploads whose extension is not in DocumentExtensions.
func (v *Validator) DocumentName(field, filename string) {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
	for _, allowed := range DocumentExtensions {
		if ext == allowed {
			return
		}
	}
	v.AddError(field, apperrors.ErrDocumentType.Message)
}

// Amount parses a positive money amount with at most two decimal places.
func (v *Validator) Amount(field, raw string) decimal.Decimal {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		v.AddError(field, "This field is required.")
		return decimal.Zero
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		v.AddError(field, "Enter a number.")
		return decimal.Zero
	}
	v.Check(d.IsPositive(), field, "must be greater than 0")
	v.Check(d.Exponent() >= -2 || d.Equal(d.Round(2)), field, "Ensure that there are no more than 2 decimal places.")
	return d
}
