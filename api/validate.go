package api

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/pamojavote/pamoja-go/gateway"
	"github.com/pamojavote/pamoja-go/utils"
)

var validate = utils.NewValidator()

// validatePayload checks payload before it is sent and reports failures in
// the same shape as a backend validation error.
func validatePayload(method, path string, payload any) error {
	err := validate.Struct(payload)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return gateway.ValidationError(method, path, err.Error(), nil)
	}

	fields := make(map[string]any)
	for field, msgs := range utils.FieldErrors(verrs) {
		fields[field] = msgs
	}
	first := verrs[0]
	return gateway.ValidationError(method, path, fmt.Sprintf("%s: %s", first.Field(), utils.FieldMessage(first)), fields)
}
