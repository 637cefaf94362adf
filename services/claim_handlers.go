// services/claim_handlers.go
package services

import (
	"errors"
	"log"

	"item-claim-system/models"

	"github.com/gofiber/fiber/v2"
)

type usernameRequest struct {
	Username string `json:"username"`
}

// GetRobloxUser handles POST /api/getRobloxUser.
func (s *ValidationService) GetRobloxUser(c *fiber.Ctx) error {
	var req usernameRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if req.Username == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Username is required"})
	}

	profile, err := s.Lookup.Lookup(c.UserContext(), req.Username)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": lookupMessage(err)})
	}
	return c.Status(fiber.StatusOK).JSON(profile)
}

// ValidateRobloxUsername handles POST /api/validateRobloxUsername.
func (s *ValidationService) ValidateRobloxUsername(c *fiber.Ctx) error {
	var req usernameRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"valid": false, "error": "Invalid request body"})
	}

	profile, err := s.Validate(c.UserContext(), req.Username)
	if err != nil {
		var formatErr *FormatError
		switch {
		case errors.As(err, &formatErr):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"valid": false, "error": formatErr.Reason})
		case errors.Is(err, ErrUserNotFound):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"valid": false, "error": lookupMessage(err)})
		default:
			log.Printf("❌ [VALIDATE] %q: %v", req.Username, err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"valid": false,
				"error": "Validation service temporarily unavailable",
			})
		}
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"valid": true, "user": profile})
}

func lookupMessage(err error) string {
	if errors.Is(err, ErrUserNotFound) {
		return "Roblox user not found. Please check the username."
	}
	return "Failed to verify Roblox username. Please try again."
}

// CreateClaim handles POST /api/claims.
func (s *ClaimService) CreateClaim(c *fiber.Ctx) error {
	var req models.ClaimRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	claim, err := s.Submit(c.UserContext(), req)
	if err != nil {
		switch {
		case errors.Is(err, ErrMissingField):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Missing required fields: email, orderId, or robloxUsername",
			})
		case errors.Is(err, ErrInvalidEmail):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Please enter a valid email address",
			})
		case errors.Is(err, ErrDuplicateOrder):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Order number already used. Please check your order ID or contact support.",
			})
		case errors.Is(err, ErrUserNotFound):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Roblox user not found. Please check the username.",
			})
		default:
			log.Printf("❌ [CLAIMS] order=%s: %v", req.OrderID, err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to save claim. Please try again.",
			})
		}
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "claim": claim})
}

// GetClaimByOrderID handles GET /admin/claims/:orderId.
func (s *ClaimService) GetClaimByOrderID(c *fiber.Ctx) error {
	claim, err := s.Repo.FindByOrderID(c.UserContext(), c.Params("orderId"))
	if err != nil {
		if errors.Is(err, ErrClaimNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Claim not found"})
		}
		log.Printf("❌ [ADMIN] find claim: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}
	return c.JSON(claim)
}

// ListClaims handles GET /admin/claims?email=.
func (s *ClaimService) ListClaims(c *fiber.Ctx) error {
	email := c.Query("email")
	if email == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "email query parameter is required"})
	}

	claims, err := s.Repo.ListByEmail(c.UserContext(), email)
	if err != nil {
		log.Printf("❌ [ADMIN] list claims: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}
	if claims == nil {
		claims = []models.Claim{}
	}
	return c.JSON(fiber.Map{"claims": claims, "count": len(claims)})
}

// Health handles GET /healthz.
func (s *ClaimService) Health(c *fiber.Ctx) error {
	if err := s.Repo.Ping(c.UserContext()); err != nil {
		log.Printf("❌ [HEALTH] store unreachable: %v", err)
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "unavailable"})
	}
	return c.JSON(fiber.Map{"status": "ok"})
}
