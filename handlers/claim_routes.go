// handlers/claim_routes.go
package handlers

import (
	"item-claim-system/middleware"
	"item-claim-system/services"
	"item-claim-system/wizard"

	"github.com/gofiber/fiber/v2"
)

// SetupClaimRoutes registers the public wizard API behind the per-IP limiter.
// wizardOpts is published to the frontend at /api/wizardConfig.
func SetupClaimRoutes(app *fiber.App, validationService *services.ValidationService, claimService *services.ClaimService, limiter *middleware.RateLimiter, wizardOpts wizard.Options) {
	api := app.Group("/api", limiter.Handler())

	opts := wizardOpts.WithDefaults()
	api.Get("/wizardConfig", func(c *fiber.Ctx) error {
		return c.JSON(opts)
	})

	api.Post("/getRobloxUser", validationService.GetRobloxUser)
	api.Post("/validateRobloxUsername", validationService.ValidateRobloxUsername)
	api.Post("/claims", claimService.CreateClaim)
}

// SetupAdminRoutes registers read-only claim lookups for support staff.
func SetupAdminRoutes(app *fiber.App, claimService *services.ClaimService, adminToken string) {
	admin := app.Group("/admin", middleware.AdminAuthMiddleware(adminToken))

	admin.Get("/claims", claimService.ListClaims)
	admin.Get("/claims/:orderId", claimService.GetClaimByOrderID)
}
