// Package validation holds the request rules shared by the HTTP, Telegram and
// MCP entry points and turns validator failures into readable details.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Error is a client-caused failure. It is never retried.
type Error struct {
	Detail string
}

func (e *Error) Error() string { return e.Detail }

func Errorf(format string, args ...interface{}) *Error {
	return &Error{Detail: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is (or wraps) a validation Error.
func IsValidation(err error) bool {
	var ve *Error
	return errors.As(err, &ve)
}

// Configure registers the custom rules and JSON field naming on v.
func Configure(v *validator.Validate) error {
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
}

func New() *validator.Validate {
	v := validator.New()
	if err := Configure(v); err != nil {
		panic(err)
	}
	return v
}

var std = New()

// Struct validates s with the shared rules and returns an *Error on failure.
func Struct(s interface{}) error {
	if err := std.Struct(s); err != nil {
		return Describe(err)
	}
	return nil
}

// Describe converts validator output into a single human-readable *Error.
// Other errors are wrapped unchanged in the detail.
func Describe(err error) *Error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return &Error{Detail: err.Error()}
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describeField(fe))
	}
	return &Error{Detail: strings.Join(msgs, "; ")}
}

func describeField(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required", "notblank":
		return field + " must not be empty"
	case "email":
		return field + " must be a valid email address"
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	default:
		return fmt.Sprintf("%s is invalid (%s)", field, fe.Tag())
	}
}
