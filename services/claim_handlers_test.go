package services

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApp(lookup IdentityLookup, repo ClaimRepository) *fiber.App {
	app := fiber.New()
	validation := NewValidationService(lookup)
	claims := NewClaimService(repo, lookup)

	app.Post("/api/getRobloxUser", validation.GetRobloxUser)
	app.Post("/api/validateRobloxUsername", validation.ValidateRobloxUsername)
	app.Post("/api/claims", claims.CreateClaim)
	app.Get("/admin/claims", claims.ListClaims)
	app.Get("/admin/claims/:orderId", claims.GetClaimByOrderID)
	app.Get("/healthz", claims.Health)
	return app
}

func doJSON(t *testing.T, app *fiber.App, method, path, body string) (int, map[string]interface{}) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req, int(5*time.Second/time.Millisecond))
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]interface{}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	}
	return resp.StatusCode, out
}

func TestGetRobloxUser(t *testing.T) {
	app := newTestApp(newFakeLookup(player1), NewMemoryClaimRepository())

	status, body := doJSON(t, app, http.MethodPost, "/api/getRobloxUser", `{"username":"player_1"}`)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(555), body["id"])
	assert.Equal(t, "Player_1", body["name"])
	assert.Equal(t, DirectAvatarURL(555), body["avatar"])

	status, body = doJSON(t, app, http.MethodPost, "/api/getRobloxUser", `{"username":"nobody_home"}`)
	assert.Equal(t, http.StatusNotFound, status)
	assert.NotEmpty(t, body["error"])

	status, body = doJSON(t, app, http.MethodPost, "/api/getRobloxUser", `{}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Username is required", body["error"])
}

func TestValidateRobloxUsername(t *testing.T) {
	lookup := newFakeLookup(player1)
	app := newTestApp(lookup, NewMemoryClaimRepository())

	status, body := doJSON(t, app, http.MethodPost, "/api/validateRobloxUsername", `{"username":"Player_1"}`)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["valid"])
	user, ok := body["user"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, float64(555), user["id"])

	status, body = doJSON(t, app, http.MethodPost, "/api/validateRobloxUsername", `{"username":"no"}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, false, body["valid"])
	assert.Equal(t, "Username must be between 3-20 characters", body["error"])

	status, body = doJSON(t, app, http.MethodPost, "/api/validateRobloxUsername", `{"username":"Unknown_99"}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, false, body["valid"])

	assert.Equal(t, 2, lookup.callCount(), "format failure never reaches the lookup")
}

func TestValidateRobloxUsername_ServiceDown(t *testing.T) {
	lookup := newFakeLookup(player1)
	lookup.err = fmt.Errorf("%w: dial tcp: timeout", ErrLookupUnavailable)
	app := newTestApp(lookup, NewMemoryClaimRepository())

	status, body := doJSON(t, app, http.MethodPost, "/api/validateRobloxUsername", `{"username":"Player_1"}`)
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, false, body["valid"])
	assert.Equal(t, "Validation service temporarily unavailable", body["error"])
}

func TestCreateClaim(t *testing.T) {
	repo := NewMemoryClaimRepository()
	app := newTestApp(newFakeLookup(player1), repo)

	// Client-supplied id and avatar are ignored.
	status, body := doJSON(t, app, http.MethodPost, "/api/claims",
		`{"email":"player@example.com","orderId":"ORD-7","robloxUsername":"player_1","robloxUserId":1,"avatarUrl":"https://evil.example/x.png"}`)
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, true, body["success"])

	claim, ok := body["claim"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "ORD-7", claim["orderId"])
	assert.Equal(t, "Player_1", claim["robloxUsername"])
	assert.Equal(t, float64(555), claim["robloxUserId"])
	assert.Equal(t, DirectAvatarURL(555), claim["avatarUrl"])
	assert.NotEmpty(t, claim["id"])
	assert.NotEmpty(t, claim["createdAt"])

	status, body = doJSON(t, app, http.MethodPost, "/api/claims",
		`{"email":"player@example.com","orderId":"ORD-7","robloxUsername":"Player_1"}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Order number already used. Please check your order ID or contact support.", body["error"])
}

func TestCreateClaim_Failures(t *testing.T) {
	app := newTestApp(newFakeLookup(player1), NewMemoryClaimRepository())

	status, body := doJSON(t, app, http.MethodPost, "/api/claims", `{"email":"player@example.com","orderId":"ORD-8"}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Missing required fields: email, orderId, or robloxUsername", body["error"])

	status, body = doJSON(t, app, http.MethodPost, "/api/claims", `{"email":"player@example.com","orderId":"ORD-8","robloxUsername":"Ghost_404"}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Roblox user not found. Please check the username.", body["error"])

	status, body = doJSON(t, app, http.MethodPost, "/api/claims", `{"email":"x","orderId":"ORD-8","robloxUsername":"Player_1"}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Please enter a valid email address", body["error"])

	status, _ = doJSON(t, app, http.MethodPost, "/api/claims", `{not json`)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestCreateClaim_LookupUnavailable(t *testing.T) {
	lookup := newFakeLookup(player1)
	lookup.err = fmt.Errorf("%w: upstream 503", ErrLookupUnavailable)
	app := newTestApp(lookup, NewMemoryClaimRepository())

	status, body := doJSON(t, app, http.MethodPost, "/api/claims", `{"email":"player@example.com","orderId":"ORD-9","robloxUsername":"Player_1"}`)
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "Failed to save claim. Please try again.", body["error"])
}

func TestAdminClaimLookups(t *testing.T) {
	repo := NewMemoryClaimRepository()
	app := newTestApp(newFakeLookup(player1), repo)

	status, _ := doJSON(t, app, http.MethodPost, "/api/claims", `{"email":"player@example.com","orderId":"ORD-10","robloxUsername":"Player_1"}`)
	require.Equal(t, http.StatusCreated, status)

	status, body := doJSON(t, app, http.MethodGet, "/admin/claims/ORD-10", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "player@example.com", body["email"])

	status, _ = doJSON(t, app, http.MethodGet, "/admin/claims/ORD-11", "")
	assert.Equal(t, http.StatusNotFound, status)

	status, body = doJSON(t, app, http.MethodGet, "/admin/claims?email=player@example.com", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(1), body["count"])

	status, _ = doJSON(t, app, http.MethodGet, "/admin/claims", "")
	assert.Equal(t, http.StatusBadRequest, status)

	status, body = doJSON(t, app, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", body["status"])
}
