// Package apperr holds sentinel errors shared across layers.
package apperr

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrInvalidClient   = errors.New("invalid client id")
	ErrInvalidTrigger  = errors.New("invalid trigger")
	ErrInvalidTimezone = errors.New("invalid timezone")
	ErrInvalidKeyboard = errors.New("invalid keyboard set")
)
