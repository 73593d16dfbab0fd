package app

import "errors"

// ErrNotFound and related errors describe validation and runtime failures.
var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidBlurPolicy = errors.New("invalid blur policy")
	ErrInvalidSnapshot   = errors.New("invalid snapshot")
)
