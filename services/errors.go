package services

import "errors"

var (
	ErrInvalidFormat     = errors.New("invalid username format")
	ErrUserNotFound      = errors.New("roblox user not found")
	ErrLookupUnavailable = errors.New("roblox lookup unavailable")
	ErrDuplicateOrder    = errors.New("order already claimed")
	ErrMissingField      = errors.New("missing required field")
	ErrInvalidEmail      = errors.New("invalid email address")
	ErrClaimNotFound     = errors.New("claim not found")
)

// FormatError carries the user-facing reason a handle was rejected locally.
type FormatError struct {
	Reason string
}

func (e *FormatError) Error() string { return e.Reason }

func (e *FormatError) Unwrap() error { return ErrInvalidFormat }
