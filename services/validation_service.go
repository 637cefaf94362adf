package services

import (
	"context"
	"regexp"
	"unicode/utf8"

	"item-claim-system/models"
)

const (
	minHandleLength = 3
	maxHandleLength = 20
)

var handleCharset = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// ValidationService answers "does this handle name a real Roblox account?".
// It is read-only; format problems are reported before any network call.
type ValidationService struct {
	Lookup IdentityLookup
}

func NewValidationService(lookup IdentityLookup) *ValidationService {
	return &ValidationService{Lookup: lookup}
}

// CheckHandleFormat applies the local rules only.
func CheckHandleFormat(handle string) error {
	if handle == "" {
		return &FormatError{Reason: "Username is required"}
	}
	if n := utf8.RuneCountInString(handle); n < minHandleLength || n > maxHandleLength {
		return &FormatError{Reason: "Username must be between 3-20 characters"}
	}
	if !handleCharset.MatchString(handle) {
		return &FormatError{Reason: "Username can only contain letters, numbers, and underscores"}
	}
	return nil
}

func (s *ValidationService) Validate(ctx context.Context, handle string) (*models.ExternalProfile, error) {
	if err := CheckHandleFormat(handle); err != nil {
		return nil, err
	}
	return s.Lookup.Lookup(ctx, handle)
}
