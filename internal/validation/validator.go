// Package validation builds the shared struct validator used for remote
// request payloads and local API bodies.
package validation

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// TagLooseEmail is the weak email rule: the value must contain "@" and "."
const TagLooseEmail = "looseemail"

// New returns a validator with the custom rules registered and JSON tag
// names used in field errors.
func New() *validator.Validate {
	v := validator.New()

	// registration only fails on an empty tag or nil func
	_ = v.RegisterValidation(TagLooseEmail, isLooseEmail)

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return v
}

// IsLooseEmail reports whether s contains both "@" and "."
func IsLooseEmail(s string) bool {
	return strings.Contains(s, "@") && strings.Contains(s, ".")
}

func isLooseEmail(fl validator.FieldLevel) bool {
	return IsLooseEmail(fl.Field().String())
}

// HasTag reports whether err is a validator.ValidationErrors containing a
// failure for tag
func HasTag(err error, tag string) bool {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return false
	}
	for _, fe := range verrs {
		if fe.Tag() == tag {
			return true
		}
	}
	return false
}
