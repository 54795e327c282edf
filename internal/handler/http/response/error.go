package response

import (
	"errors"
	"net/http"

	"github.com/fieldforce-hq/fieldforce-backend-go/internal/domain/attendance"
	"github.com/fieldforce-hq/fieldforce-backend-go/internal/domain/auth"
	"github.com/fieldforce-hq/fieldforce-backend-go/internal/pkg/uploader"
	"github.com/fieldforce-hq/fieldforce-backend-go/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	switch {
	// Auth errors
	case errors.Is(err, auth.ErrInvalidToken):
		Unauthorized(w, "Invalid or missing access token")
	case errors.Is(err, auth.ErrAdminOnly):
		Forbidden(w, "Admin privilege required")

	// Attendance domain errors
	case errors.Is(err, attendance.ErrRecordNotFound):
		NotFound(w, "Attendance record not found")
	case errors.Is(err, attendance.ErrUnauthorized):
		Forbidden(w, "You may only access your own attendance records")
	case errors.Is(err, uploader.ErrUploadFailed):
		BadGateway(w, "Check-in photo upload failed, please retry")
	case errors.Is(err, attendance.ErrPersistence):
		InternalServerError(w, "Failed to save attendance record, please retry")

	// Default
	default:
		InternalServerError(w, "An unexpected error occurred")
	}
}
