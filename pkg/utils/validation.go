package utils

import (
	"net/url"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"recipebook/pkg/errors"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report fields by their JSON names so messages line up with request payloads.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// ValidateStruct validates a struct based on its validation tags.
// Failures come back as *errors.FieldErrors keyed by JSON field name.
func ValidateStruct(s interface{}) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}

	fieldErrs := errors.NewFieldErrors()
	for _, e := range validationErrors {
		fieldErrs.Add(e.Field(), formatFieldError(e))
	}
	return fieldErrs.ErrOrNil()
}

// IsHTTPURL reports whether raw is an absolute http or https URL with a host
func IsHTTPURL(raw string) bool {
	if validate.Var(raw, "required,url") != nil {
		return false
	}
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// formatFieldError formats a single field validation error
func formatFieldError(e validator.FieldError) string {
	field := e.Field()

	switch e.Tag() {
	case "required":
		return field + " is required"
	case "min", "gte":
		return field + " must be at least " + e.Param()
	case "max", "lte":
		return field + " must be at most " + e.Param()
	case "oneof":
		return field + " must be one of: " + e.Param()
	case "url", "http_url":
		return field + " must be a valid URL"
	default:
		return field + " is invalid"
	}
}
