// Package form decodes url.Values into structs tagged with `form:"name"`.
package form

import (
	"fmt"
	"net/url"
	"reflect"
	"strconv"
	"strings"
)

// Unmarshal copies the first value of every tagged field present in input
// into target, which must be a non-nil pointer to a struct.
// Fields of kind string, bool and int are supported.
func Unmarshal(input url.Values, target any) error {
	val := reflect.ValueOf(target)
	if val.Kind() != reflect.Pointer || val.IsNil() || val.Elem().Kind() != reflect.Struct {
		return &InvalidUnmarshalError{Type: reflect.TypeOf(target)}
	}

	v := val.Elem()
	t := v.Type()
	for i := 0; i < v.NumField(); i++ {
		field := t.Field(i)
		name := strings.SplitN(field.Tag.Get("form"), ",", 2)[0]
		if name == "" || name == "-" || !field.IsExported() {
			continue
		}
		values, ok := input[name]
		if !ok || len(values) == 0 {
			continue
		}
		raw := values[0]
		fv := v.Field(i)

		switch fv.Kind() {
		case reflect.String:
			fv.SetString(raw)
		case reflect.Bool:
			switch strings.ToLower(strings.TrimSpace(raw)) {
			case "true", "on", "1", "yes":
				fv.SetBool(true)
			default:
				fv.SetBool(false)
			}
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			raw = strings.TrimSpace(raw)
			if raw == "" {
				continue
			}
			n, err := strconv.ParseInt(raw, 10, fv.Type().Bits())
			if err != nil {
				return &FieldError{Field: name, Err: err}
			}
			fv.SetInt(n)
		default:
			return &FieldError{Field: name, Err: fmt.Errorf("unsupported kind %s", fv.Kind())}
		}
	}
	return nil
}

// FieldError reports a value that could not be converted.
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string { return "form: field " + e.Field + ": " + e.Err.Error() }

func (e *FieldError) Unwrap() error { return e.Err }

// InvalidUnmarshalError describes an invalid target passed to Unmarshal.
type InvalidUnmarshalError struct {
	Type reflect.Type
}

func (e *InvalidUnmarshalError) Error() string {
	if e.Type == nil {
		return "form: Unmarshal(nil)"
	}
	if e.Type.Kind() != reflect.Pointer {
		return "form: Unmarshal(non-pointer " + e.Type.String() + ")"
	}
	return "form: Unmarshal(invalid " + e.Type.String() + ")"
}
