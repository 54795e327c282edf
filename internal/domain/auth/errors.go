package auth

import "errors"

var (
	ErrInvalidToken = errors.New("invalid or missing access token")
	ErrAdminOnly    = errors.New("admin privilege required")
)
