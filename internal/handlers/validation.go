package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"

	apperrors "github.com/resumine/resumine/pkg/errors"
	"github.com/resumine/resumine/pkg/response"
	"github.com/resumine/resumine/pkg/validator"
)

// bindAndValidate decodes the JSON body into T and runs struct validation.
// On failure it writes the error response, with per-field messages in the
// details list, and returns false.
func bindAndValidate[T any](c *gin.Context) (*T, bool) {
	var payload T
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, apperrors.NewBadRequest("Invalid request body").WithInternal(err))
		return nil, false
	}

	if err := validator.ValidateStruct(&payload); err != nil {
		var vErrs validator.ValidationErrors
		if errors.As(err, &vErrs) {
			response.ErrorWithDetails(c, apperrors.NewBadRequest("Validation failed"), vErrs.Details())
		} else {
			response.Error(c, apperrors.NewBadRequest("Invalid request body").WithInternal(err))
		}
		return nil, false
	}

	return &payload, true
}
