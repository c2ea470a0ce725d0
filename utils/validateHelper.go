package utils

import (
	"github.com/go-playground/validator/v10"
)

// ProcessValidationErrors flattens validator errors into field -> failed tag,
// which is what the operator UI renders next to each input.
func ProcessValidationErrors(err error) map[string]string {
	errorResponse := make(map[string]string)

	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		errorResponse["request"] = err.Error()
		return errorResponse
	}

	for _, ve := range validationErrors {
		errorResponse[ve.Field()] = ve.Tag()
	}

	return errorResponse
}
