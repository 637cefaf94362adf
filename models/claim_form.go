// models/claim_form.go
package models

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidEmail applies the loose address check shared by the wizard form and the claim API.
func ValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// MaxUsernameLength mirrors Roblox's own limit.
const MaxUsernameLength = 20

// ClaimFormInput is what the user types into the first wizard step.
type ClaimFormInput struct {
	ContactAddress        string `json:"contactAddress"`
	OrderID               string `json:"orderId"`
	RobloxUsername        string `json:"robloxUsername"`
	ConfirmRobloxUsername string `json:"confirmRobloxUsername"`
}

// FieldErrors maps a form field to its message.
type FieldErrors map[string]string

func (e FieldErrors) Error() string {
	parts := make([]string, 0, len(e))
	for _, field := range []string{"contactAddress", "orderId", "robloxUsername", "confirmRobloxUsername"} {
		if msg, ok := e[field]; ok {
			parts = append(parts, field+": "+msg)
		}
	}
	return strings.Join(parts, "; ")
}

// Validate runs the local, network-free form checks. It returns nil or a FieldErrors.
func (f ClaimFormInput) Validate() error {
	errs := FieldErrors{}

	switch {
	case f.ContactAddress == "":
		errs["contactAddress"] = "Email is required"
	case !ValidEmail(f.ContactAddress):
		errs["contactAddress"] = "Please enter a valid email address"
	}

	if f.OrderID == "" {
		errs["orderId"] = "Order ID is required"
	}

	switch {
	case f.RobloxUsername == "":
		errs["robloxUsername"] = "Roblox username is required"
	case utf8.RuneCountInString(f.RobloxUsername) > MaxUsernameLength:
		errs["robloxUsername"] = "Username must be 20 characters or less"
	}

	// Exact, case-sensitive match.
	switch {
	case f.ConfirmRobloxUsername == "":
		errs["confirmRobloxUsername"] = "Please confirm your Roblox username"
	case f.ConfirmRobloxUsername != f.RobloxUsername:
		errs["confirmRobloxUsername"] = "Roblox usernames must match"
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}

// ToClaimRequest builds the body sent to POST /api/claims.
func (f ClaimFormInput) ToClaimRequest() ClaimRequest {
	return ClaimRequest{
		Email:          f.ContactAddress,
		OrderID:        f.OrderID,
		RobloxUsername: f.RobloxUsername,
	}
}
