package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckHandleFormat(t *testing.T) {
	valid := []string{"abc", "Player_1", "A_B_C_123", "abcdefghijklmnopqrst"}
	for _, h := range valid {
		assert.NoError(t, CheckHandleFormat(h), h)
	}

	invalid := map[string]string{
		"":                      "Username is required",
		"ab":                    "Username must be between 3-20 characters",
		"abcdefghijklmnopqrstu": "Username must be between 3-20 characters",
		"bad name":              "Username can only contain letters, numbers, and underscores",
		"dash-name":             "Username can only contain letters, numbers, and underscores",
		"üser":                  "Username can only contain letters, numbers, and underscores",
	}
	for h, reason := range invalid {
		err := CheckHandleFormat(h)
		require.Error(t, err, h)
		assert.ErrorIs(t, err, ErrInvalidFormat, h)

		var formatErr *FormatError
		require.True(t, errors.As(err, &formatErr), h)
		assert.Equal(t, reason, formatErr.Reason, h)
	}
}

func TestValidationService_BadFormatSkipsNetwork(t *testing.T) {
	lookup := newFakeLookup(player1)
	svc := NewValidationService(lookup)

	for _, h := range []string{"", "x", "no spaces", "way_too_long_for_roblox_1"} {
		_, err := svc.Validate(context.Background(), h)
		assert.ErrorIs(t, err, ErrInvalidFormat, h)
	}
	assert.Zero(t, lookup.callCount())
}

func TestValidationService_ResolvesProfile(t *testing.T) {
	lookup := newFakeLookup(player1)
	svc := NewValidationService(lookup)

	profile, err := svc.Validate(context.Background(), "player_1")
	require.NoError(t, err)
	assert.Equal(t, int64(555), profile.ID)
	assert.Equal(t, "Player_1", profile.Name)
	assert.Equal(t, 1, lookup.callCount())
}

func TestValidationService_UnknownUser(t *testing.T) {
	svc := NewValidationService(newFakeLookup())

	_, err := svc.Validate(context.Background(), "Nobody_Here")
	assert.ErrorIs(t, err, ErrUserNotFound)
}
