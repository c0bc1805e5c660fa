package engine

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidate()

func newValidate() *validator.Validate {
	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		return strings.SplitN(f.Tag.Get("json"), ",", 2)[0] // e.g. `json:"resolution,omitempty"` -> resolution
	})

	return validate
}

// Validate validates a command and returns an error of type [ErrorValidation]
// when one or more constraints are violated.
func Validate(cmd any) error {
	err := validate.Struct(cmd)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return Error{
			Type:   ErrorBug,
			Title:  "failed to validate command",
			Detail: err.Error(),
		}
	}

	causes := make([]ErrorCause, len(validationErrors))
	for i, fieldError := range validationErrors {
		causes[i] = ErrorCause{
			Type:   "field",
			Detail: fmt.Sprintf("%s: violates constraint %s", fieldError.Field(), fieldError.Tag()),
		}
	}

	return Error{
		Type:   ErrorValidation,
		Title:  fmt.Sprintf("invalid command %T", cmd),
		Detail: "one or more fields violate constraints",
		Causes: causes,
	}
}
