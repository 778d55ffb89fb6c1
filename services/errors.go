package services

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	// ErrNotFound is returned when the targeted id does not exist.
	ErrNotFound = errors.New("not_found")
	// ErrConflict is returned when an id is already taken.
	ErrConflict = errors.New("conflict")
)

// Issue is one failed field check.
type Issue struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError carries every issue found in a request.
type ValidationError struct {
	Issues []Issue
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Issues))
	for _, is := range e.Issues {
		parts = append(parts, is.Field+": "+is.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func invalid(field, message string) *ValidationError {
	return &ValidationError{Issues: []Issue{{Field: field, Message: message}}}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// report fields by their JSON key, which is what clients send
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// validateStruct runs the validate tags of v. prefix is prepended to field
// names, e.g. "[3]." when checking one element of a list.
func validateStruct(v any, prefix string) *ValidationError {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return invalid(strings.TrimSuffix(prefix, "."), err.Error())
	}
	out := &ValidationError{}
	for _, fe := range fieldErrs {
		out.Issues = append(out.Issues, Issue{Field: prefix + fe.Field(), Message: issueMessage(fe)})
	}
	return out
}

func issueMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "datetime":
		return fmt.Sprintf("must be a date in format %s", fe.Param())
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "gte":
		return "must be >= " + fe.Param()
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "hexcolor":
		return "must be a hex color like #1a2b3c"
	default:
		return "failed " + fe.Tag() + " check"
	}
}
