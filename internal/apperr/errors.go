package apperr

import "errors"

var (
	ErrValidation   = errors.New("validation failed")
	ErrUnauthorized = errors.New("unauthorized")
	ErrInactiveUser = errors.New("user inactive")
	ErrNotFound     = errors.New("not found")
	ErrInternal     = errors.New("internal error")
)
