package helpers

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/Rakhulsr/go-ecommerce-api/app/apperrors"
	"github.com/go-playground/validator/v10"
	"github.com/gosimple/slug"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return strings.ToLower(fld.Name)
		}
		return name
	})
	return v
}

// Validate checks s against its validate tags and reports failures as a
// validation error keyed by JSON field name.
func Validate(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var errs validator.ValidationErrors
	if errors.As(err, &errs) {
		return apperrors.Validation("invalid input", FormatValidationErrors(errs))
	}
	return err
}

func FormatValidationErrors(errs validator.ValidationErrors) map[string]string {
	errorMessages := make(map[string]string)
	for _, err := range errs {
		field := err.Field()
		switch err.Tag() {
		case "required":
			errorMessages[field] = fmt.Sprintf("%s is required", field)
		case "email":
			errorMessages[field] = fmt.Sprintf("%s must be a valid email address", field)
		case "numeric":
			errorMessages[field] = fmt.Sprintf("%s must be numeric", field)
		case "min", "gte":
			errorMessages[field] = fmt.Sprintf("%s must be at least %s", field, err.Param())
		case "max", "lte":
			errorMessages[field] = fmt.Sprintf("%s must be at most %s", field, err.Param())
		case "gt":
			errorMessages[field] = fmt.Sprintf("%s must be greater than %s", field, err.Param())
		case "oneof":
			errorMessages[field] = fmt.Sprintf("%s must be one of [%s]", field, err.Param())
		default:
			errorMessages[field] = fmt.Sprintf("%s failed on %s", field, err.Tag())
		}
	}
	return errorMessages
}

// GenerateSlug derives a URL slug from name, suffixed with the start of id
// so equal names stay unique.
func GenerateSlug(name, id string) string {
	suffix := id
	if len(suffix) > 8 {
		suffix = suffix[:8]
	}
	base := slug.Make(name)
	if base == "" {
		return suffix
	}
	return base + "-" + suffix
}
