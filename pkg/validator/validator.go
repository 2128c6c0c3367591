package validator

import (
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	once     sync.Once
	validate *validator.Validate
)

// ValidationError describes one failed field. Field holds the JSON name of
// the struct field so it can be echoed back to API clients directly.
type ValidationError struct {
	Field string `json:"field"`
	Tag   string `json:"tag"`
	Param string `json:"param"`
}

// Message renders a client-facing description of the failure.
func (v ValidationError) Message() string {
	switch v.Tag {
	case "required":
		return fmt.Sprintf("%s is required", v.Field)
	case "email":
		return fmt.Sprintf("%s must be a valid email address", v.Field)
	case "resetcode":
		return fmt.Sprintf("%s must be a 6-digit code", v.Field)
	case "eqfield":
		return fmt.Sprintf("%s must match %s", v.Field, strings.ToLower(v.Param))
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", v.Field, v.Param)
	default:
		if v.Param != "" {
			return fmt.Sprintf("%s failed on %s=%s", v.Field, v.Tag, v.Param)
		}
		return fmt.Sprintf("%s failed on %s", v.Field, v.Tag)
	}
}

// ValidationErrors collects the failures of a single struct validation.
type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return "validation failed"
	}

	parts := make([]string, len(v))
	for i, err := range v {
		parts[i] = err.Message()
	}
	return strings.Join(parts, "; ")
}

// Details renders one message per failure, in response envelope shape.
func (v ValidationErrors) Details() []string {
	if len(v) == 0 {
		return nil
	}

	details := make([]string, len(v))
	for i, err := range v {
		details[i] = err.Message()
	}
	return details
}

// ValidateStruct validates a struct using registered rules.
func ValidateStruct(s interface{}) error {
	err := getValidator().Struct(s)
	if err == nil {
		return nil
	}

	if ve, ok := err.(validator.ValidationErrors); ok {
		failures := make(ValidationErrors, 0, len(ve))
		for _, fe := range ve {
			failures = append(failures, ValidationError{
				Field: fe.Field(),
				Tag:   fe.Tag(),
				Param: fe.Param(),
			})
		}
		return failures
	}

	return err
}

// RegisterValidation exposes underlying validator custom rules.
func RegisterValidation(tag string, fn validator.Func) error {
	return getValidator().RegisterValidation(tag, fn)
}

// isResetCode accepts exactly six ASCII digits, the shape of the emailed
// password reset verification code. Stricter than `len=6,numeric`, which
// also admits signed and decimal forms like "-12345".
func isResetCode(fl validator.FieldLevel) bool {
	code := fl.Field().String()
	if len(code) != 6 {
		return false
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func getValidator() *validator.Validate {
	once.Do(func() {
		validate = validator.New()
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := fld.Tag.Get("json")
			if name == "" {
				return fld.Name
			}

			comma := strings.Index(name, ",")
			if comma != -1 {
				name = name[:comma]
			}

			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})

		if err := validate.RegisterValidation("resetcode", isResetCode); err != nil {
			panic(err)
		}
	})
	return validate
}
