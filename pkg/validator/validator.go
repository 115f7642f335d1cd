package validator

import (
	"reflect"
	"strings"
	"sync"
	"unicode"

	"github.com/go-playground/validator/v10"
)

// MaxConfigKeyLength bounds the length of a site configuration key.
const MaxConfigKeyLength = 128

var (
	once     sync.Once
	validate *validator.Validate
)

// ValidationError represents a single field validation failure.
type ValidationError struct {
	Field string `json:"field"`
	Tag   string `json:"tag"`
	Param string `json:"param"`
}

func (v ValidationError) message() string {
	switch v.Tag {
	case "required":
		return v.Field + " is required"
	case "max":
		return v.Field + " must be at most " + v.Param + " characters"
	case "configkey":
		return v.Field + " must be a non-empty key without control characters"
	}
	if v.Param != "" {
		return v.Field + " failed on " + v.Tag + "=" + v.Param
	}
	return v.Field + " failed on " + v.Tag
}

// ValidationErrors collects multiple validation failures.
type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return "validation failed"
	}

	parts := make([]string, len(v))
	for i, err := range v {
		parts[i] = err.message()
	}
	return strings.Join(parts, "; ")
}

// ValidateStruct validates a struct using registered rules.
func ValidateStruct(s any) error {
	return translate(getValidator().Struct(s), "")
}

// ValidateVar validates a single value against tag, reporting failures under name.
func ValidateVar(name string, value any, tag string) error {
	return translate(getValidator().Var(value, tag), name)
}

// RegisterValidation exposes underlying validator custom rules.
func RegisterValidation(tag string, fn validator.Func) error {
	return getValidator().RegisterValidation(tag, fn)
}

func translate(err error, name string) error {
	if err == nil {
		return nil
	}

	ve, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}

	failures := make(ValidationErrors, 0, len(ve))
	for _, fe := range ve {
		field := fe.Field()
		if name != "" {
			field = name
		}
		failures = append(failures, ValidationError{
			Field: field,
			Tag:   fe.Tag(),
			Param: fe.Param(),
		})
	}
	return failures
}

// configKey accepts trimmed, non-empty, printable keys of bounded length.
func configKey(fl validator.FieldLevel) bool {
	key := fl.Field().String()
	if key == "" || key != strings.TrimSpace(key) || len(key) > MaxConfigKeyLength {
		return false
	}
	for _, r := range key {
		if unicode.IsControl(r) {
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
		_ = validate.RegisterValidation("configkey", configKey)
	})
	return validate
}
