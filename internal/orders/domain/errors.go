package domain

import "errors"

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrNotFound           = errors.New("order not found")
	ErrInvalidTransition  = errors.New("invalid status transition")
	ErrStorageUnavailable = errors.New("storage unavailable")
)
