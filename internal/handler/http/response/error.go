package response

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/obraplan/payroll-backend-go/internal/domain/payroll"
	"github.com/obraplan/payroll-backend-go/internal/domain/person"
	"github.com/obraplan/payroll-backend-go/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	switch {
	// Person domain errors
	case errors.Is(err, person.ErrPersonNotFound):
		NotFound(w, "Person not found")

	// Payroll domain errors
	case errors.Is(err, payroll.ErrAdjustmentNotFound):
		NotFound(w, "Payroll adjustment not found")
	case errors.Is(err, payroll.ErrCascadeNotSupported):
		BadRequest(w, err.Error(), nil)
	case errors.Is(err, payroll.ErrMalformedPerson):
		UnprocessableEntity(w, err.Error())

	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		ServiceUnavailable(w, "Request was cancelled before completion")

	default:
		slog.Error("Unhandled error", "error", err)
		InternalServerError(w, "An unexpected error occurred")
	}
}
