package domain

import "errors"

var (
	// ErrNotFound covers hotels and room types that are missing, offline or unpublished.
	ErrNotFound              = errors.New("not found or unlisted")
	ErrInsufficientInventory = errors.New("insufficient inventory")
	ErrInvalidRange          = errors.New("invalid date range")
	ErrValidation            = errors.New("validation failed")
)
