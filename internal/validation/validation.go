// Package validation checks form payloads before any backend call is made.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"

	"github.com/Shivanand-hulikatti/eventsync-web/internal/apperr"
)

// EventDateLayouts are the accepted event date inputs, tried in order.
// The second one is what an HTML datetime-local input submits.
var EventDateLayouts = []string{time.RFC3339, "2006-01-02T15:04"}

// FieldErrors maps a form field name to its message.
type FieldErrors map[string]string

// Error is a validation failure carrying per-field messages.
type Error struct {
	Fields FieldErrors
}

func (e *Error) Error() string {
	return fmt.Sprintf("validation failed on %d field(s)", len(e.Fields))
}

// Unwrap lets apperr classify the failure as a validation error.
func (e *Error) Unwrap() error {
	return &apperr.Error{Kind: apperr.KindValidation, Op: "validate", Message: "Please fix the highlighted fields."}
}

// FieldsOf returns the per-field messages carried by err, or nil.
func FieldsOf(err error) FieldErrors {
	var ve *Error
	if errors.As(err, &ve) {
		return ve.Fields
	}
	return nil
}

// Validator wraps a configured validator.Validate.
type Validator struct {
	v *validator.Validate
}

// New builds a Validator that reports fields by their form tag and knows the
// eventdate and notblank rules.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("form"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
	_ = v.RegisterValidation("notblank", validators.NotBlank)
	_ = v.RegisterValidation("eventdate", func(fl validator.FieldLevel) bool {
		_, err := ParseEventDate(fl.Field().String())
		return err == nil
	})
	return &Validator{v: v}
}

// Struct validates s and returns *Error with one message per failing field.
func (v *Validator) Struct(s any) error {
	err := v.v.Struct(s)
	if err == nil {
		return nil
	}
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		return fmt.Errorf("validate: %w", err)
	}
	fields := make(FieldErrors, len(ves))
	for _, fe := range ves {
		if _, seen := fields[fe.Field()]; seen {
			continue
		}
		fields[fe.Field()] = message(fe)
	}
	return &Error{Fields: fields}
}

// ParseEventDate parses s with the first matching EventDateLayouts entry.
func ParseEventDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range EventDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid event date %q", s)
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "notblank":
		if fe.Field() == "date" {
			return "Date and time are required."
		}
		return "This field is required."
	case "email":
		return "Enter a valid email address."
	case "min":
		return fmt.Sprintf("Must be at least %s characters.", fe.Param())
	case "max":
		return fmt.Sprintf("Must be at most %s characters.", fe.Param())
	case "eqfield":
		return "Passwords do not match."
	case "oneof":
		return "Choose one of: " + strings.ReplaceAll(fe.Param(), " ", ", ") + "."
	case "gte", "lte":
		return "Choose a rating from 1 to 5."
	case "eventdate":
		return "Enter a valid date and time."
	default:
		return "Invalid value."
	}
}
