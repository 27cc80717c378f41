package domain

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrDuplicateModel    = errors.New("duplicate model")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInvalidRange      = errors.New("invalid range")
	ErrValidation        = errors.New("validation failed")
	ErrNoChanges         = errors.New("no stock changes detected")
)
