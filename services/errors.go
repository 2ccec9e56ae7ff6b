package services

import "errors"

// Sentinel errors returned by the service layer. Controllers map them to
// HTTP status codes; anything else becomes an internal server error.
var (
	ErrNotFound     = errors.New("requested resource not found")
	ErrUnauthorized = errors.New("invalid credentials")
	ErrForbidden    = errors.New("forbidden")
	ErrConflict     = errors.New("resource conflict")
	ErrValidation   = errors.New("validation failed")
)
