package utils

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// NewValidator returns a validator that reports fields under their json
// names, the way the backend names them in error bodies.
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return field.Name
		}
		return name
	})
	return v
}

// FieldErrors converts validator errors into a field -> messages map, with
// nested fields joined by dots (registration_center.name,
// phone_numbers[0]). It returns nil for any other error.
func FieldErrors(err error) map[string][]string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}

	fields := make(map[string][]string, len(verrs))
	for _, fe := range verrs {
		field := fe.Namespace()
		if _, rest, found := strings.Cut(field, "."); found {
			field = rest
		}
		fields[field] = append(fields[field], FieldMessage(fe))
	}
	return fields
}

func FieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_if":
		return "This field is required."
	case "required_without":
		return fmt.Sprintf("This field is required when %s is not set.", fe.Param())
	case "excluded_with":
		return fmt.Sprintf("This field cannot be combined with %s.", fe.Param())
	case "max":
		return fmt.Sprintf("Ensure this field has no more than %s characters.", fe.Param())
	case "min":
		return fmt.Sprintf("Ensure this field has at least %s items.", fe.Param())
	case "gt":
		return "Must be a positive number."
	case "oneof":
		return fmt.Sprintf("Must be one of: %s.", fe.Param())
	case "datetime":
		return fmt.Sprintf("Date has wrong format. Use %s.", fe.Param())
	}
	return fmt.Sprintf("Failed on the %q rule.", fe.Tag())
}
