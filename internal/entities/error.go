package entities

import "errors"

var (
	ErrNotFound         = errors.New("entity not found")
	ErrInvalidCode      = errors.New("invalid code format")
	ErrNetwork          = errors.New("upstream request failed")
	ErrNonSuccessStatus = errors.New("upstream returned non-200 status")
	ErrMissingField     = errors.New("expected field missing from upstream response")
)
