// Package validx wraps go-playground/validator so request structs can be
// checked through their `validate` tags and failures reported per JSON field.
package validx

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/aussiebroadwan/appraisal/pkg/idx"
	"github.com/go-playground/validator/v10"
)

// Error carries field level validation failures keyed by JSON field name.
type Error struct {
	Fields map[string]string
}

func (e *Error) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}

	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Field builds a single field failure.
func Field(name, message string) *Error {
	return &Error{Fields: map[string]string{name: message}}
}

// As reports whether err is (or wraps) a validation error.
func As(err error) (*Error, bool) {
	var ve *Error
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

var (
	once     sync.Once
	validate *validator.Validate
)

func instance() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())

		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			if name == "" {
				return f.Name
			}
			return name
		})

		_ = validate.RegisterValidation("ulid", func(fl validator.FieldLevel) bool {
			return idx.Valid(fl.Field().String())
		})
	})
	return validate
}

// Struct validates v and returns *Error describing every failing field, or nil.
func Struct(v any) error {
	err := instance().Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	out := &Error{Fields: make(map[string]string, len(verrs))}
	for _, fe := range verrs {
		out.Fields[fieldPath(fe)] = message(fe)
	}
	return out
}

// fieldPath drops the top level struct name from the namespace, so a
// failure on CreateOrderRequest.property.city reports as property.city.
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return fe.Field()
}

func message(fe validator.FieldError) string {
	tag, param := fe.Tag(), fe.Param()

	// "eq=|url" reads as empty or a URL; report the last alternative.
	if i := strings.LastIndex(tag, "|"); i >= 0 {
		tag, param, _ = strings.Cut(tag[i+1:], "=")
	}

	switch tag {
	case "required", "required_without":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "url", "http_url":
		return "must be a valid URL"
	case "ulid":
		return "must be a valid identifier"
	case "oneof":
		return "must be one of: " + strings.Join(strings.Fields(param), ", ")
	case "min":
		return fmt.Sprintf("must be at least %s characters", param)
	case "max":
		return fmt.Sprintf("must be at most %s characters", param)
	case "gte":
		return "must be greater than or equal to " + param
	case "lte":
		return "must be less than or equal to " + param
	case "e164":
		return "must be a phone number in E.164 format"
	case "datetime":
		return "must be a date formatted as " + param
	default:
		return "is invalid"
	}
}
