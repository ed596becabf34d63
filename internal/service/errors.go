package service

import "errors"

var (
	ErrInvalidSpec  = errors.New("spec is required")
	ErrSpecTooLarge = errors.New("spec exceeds maximum size")
	ErrJobNotFound  = errors.New("job not found")
	ErrForbidden    = errors.New("job belongs to another owner")
)
