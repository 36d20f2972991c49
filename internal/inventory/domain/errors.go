package domain

import "errors"

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrNotFound           = errors.New("resource not found")
	ErrConflict           = errors.New("conflict")
	ErrInsufficientStock  = errors.New("insufficient stock")
	ErrDuplicateMovement  = errors.New("duplicate stock movement")
	ErrStorageUnavailable = errors.New("storage unavailable")
)
