package attendance

import "errors"

// Attendance domain errors
var (
	ErrRecordNotFound = errors.New("attendance record not found")
	ErrUnauthorized   = errors.New("unauthorized to access this attendance record")

	// ErrPersistence marks a failed canonical write after a successful
	// image upload. The uploaded image is not cleaned up; the client keeps
	// the record unsynced and retries.
	ErrPersistence = errors.New("failed to persist canonical attendance record")
)
