package utils

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	emailRegex   = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	controlChars = regexp.MustCompile(`[\x00-\x1f\x7f]`)

	structValidator     *validator.Validate
	structValidatorOnce sync.Once
)

// FieldViolation is one failed validation rule, named by the field's json key
type FieldViolation struct {
	Field   string
	Message string
}

// ValidateStruct runs the `validate` tags of s and returns every violation.
// A nil slice means s is valid.
func ValidateStruct(s interface{}) ([]FieldViolation, error) {
	err := getValidator().Struct(s)
	if err == nil {
		return nil, nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil, fmt.Errorf("validate: %w", err)
	}

	out := make([]FieldViolation, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, FieldViolation{Field: fieldPath(fe), Message: describeRule(fe)})
	}
	return out, nil
}

// ValidateEmail validates an email address
func ValidateEmail(email string) error {
	if !emailRegex.MatchString(email) {
		return fmt.Errorf("invalid email format: %s", email)
	}
	return nil
}

// SanitizeString removes control characters and surrounding whitespace
func SanitizeString(s string) string {
	return strings.TrimSpace(controlChars.ReplaceAllString(s, ""))
}

func getValidator() *validator.Validate {
	structValidatorOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return f.Name
			}
			return name
		})
		structValidator = v
	})
	return structValidator
}

// fieldPath drops the top level struct name: "SubmitInput.lineItems[0].biaya" -> "lineItems[0].biaya"
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func describeRule(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("needs at least %s entries", fe.Param())
		}
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "gte":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max", "lte":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("allows at most %s entries", fe.Param())
		}
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "email":
		return "must be a valid email address"
	case "datetime":
		return fmt.Sprintf("must be a date formatted %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	default:
		return fmt.Sprintf("failed %s rule", fe.Tag())
	}
}
