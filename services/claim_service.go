// services/claim_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"item-claim-system/metrics"
	"item-claim-system/models"
)

// ClaimService runs one claim submission: field check → email check → duplicate check → lookup → insert.
type ClaimService struct {
	Repo   ClaimRepository
	Lookup IdentityLookup
}

func NewClaimService(repo ClaimRepository, lookup IdentityLookup) *ClaimService {
	return &ClaimService{Repo: repo, Lookup: lookup}
}

// Submit persists a claim for req. The stored username, user id and avatar always come
// from the lookup, never from the request.
func (s *ClaimService) Submit(ctx context.Context, req models.ClaimRequest) (*models.Claim, error) {
	if req.Email == "" || req.OrderID == "" || req.RobloxUsername == "" {
		metrics.ObserveClaim("missing_field")
		return nil, ErrMissingField
	}
	if !models.ValidEmail(req.Email) {
		metrics.ObserveClaim("invalid_email")
		return nil, ErrInvalidEmail
	}

	log.Printf("📝 [CLAIMS] Processing claim order=%s username=%s email=%s", req.OrderID, req.RobloxUsername, maskEmail(req.Email))

	exists, err := s.Repo.Exists(ctx, req.OrderID)
	if err != nil {
		metrics.ObserveClaim("error")
		return nil, err
	}
	if exists {
		metrics.ObserveClaim("duplicate")
		return nil, ErrDuplicateOrder
	}

	profile, err := s.Lookup.Lookup(ctx, req.RobloxUsername)
	if err != nil {
		metrics.ObserveClaim("user_not_found")
		if errors.Is(err, ErrLookupUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrUserNotFound, err)
	}

	claim := &models.Claim{
		Email:          req.Email,
		OrderID:        req.OrderID,
		RobloxUsername: profile.Name,
		RobloxUserID:   profile.ID,
	}
	if profile.Avatar != "" {
		avatar := profile.Avatar
		claim.AvatarURL = &avatar
	}

	saved, err := s.Repo.Create(ctx, claim)
	if err != nil {
		if errors.Is(err, ErrDuplicateOrder) {
			// Lost the race against a concurrent submission for the same order.
			log.Printf("⚠️ [CLAIMS] order=%s claimed concurrently", req.OrderID)
			metrics.ObserveClaim("duplicate")
			return nil, ErrDuplicateOrder
		}
		metrics.ObserveClaim("error")
		return nil, err
	}

	log.Printf("✅ [CLAIMS] Saved claim id=%s order=%s roblox=%s(%d)", saved.ID, saved.OrderID, saved.RobloxUsername, saved.RobloxUserID)
	metrics.ObserveClaim("created")
	return saved, nil
}

func maskEmail(email string) string {
	at := strings.LastIndex(email, "@")
	if at <= 0 {
		return "***"
	}
	return email[:1] + "***" + email[at:]
}
