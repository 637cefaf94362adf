package wizard

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"item-claim-system/models"
	"item-claim-system/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubLookup map[string]models.ExternalProfile

func (s stubLookup) Lookup(_ context.Context, handle string) (*models.ExternalProfile, error) {
	p, ok := s[strings.ToLower(handle)]
	if !ok {
		return nil, services.ErrUserNotFound
	}
	return &p, nil
}

func newClaimAPI(t *testing.T) *httptest.Server {
	t.Helper()
	lookup := stubLookup{
		"player_1": {ID: 555, Name: "Player_1", Avatar: services.DirectAvatarURL(555)},
	}
	validation := services.NewValidationService(lookup)
	claims := services.NewClaimService(services.NewMemoryClaimRepository(), lookup)

	app := fiber.New()
	app.Post("/api/getRobloxUser", validation.GetRobloxUser)
	app.Post("/api/validateRobloxUsername", validation.ValidateRobloxUsername)
	app.Post("/api/claims", claims.CreateClaim)
	app.Get("/api/wizardConfig", func(c *fiber.Ctx) error {
		return c.JSON(Options{BotUsername: "Player_1"})
	})

	srv := httptest.NewServer(adaptor.FiberApp(app))
	t.Cleanup(srv.Close)
	return srv
}

func TestHTTPBackend_AgainstClaimAPI(t *testing.T) {
	srv := newClaimAPI(t)
	backend := NewHTTPBackend(srv.URL, srv.Client())

	profile, err := backend.ValidateUsername(context.Background(), "player_1")
	require.NoError(t, err)
	assert.Equal(t, "Player_1", profile.Name)

	_, err = backend.ValidateUsername(context.Background(), "bad-name")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "Username can only contain letters, numbers, and underscores", apiErr.Message)

	_, err = backend.GetUser(context.Background(), "Nobody_Here")
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)

	claim, err := backend.SubmitClaim(context.Background(), models.ClaimRequest{
		Email: "buyer@example.com", OrderID: "ORD-1", RobloxUsername: "player_1",
	})
	require.NoError(t, err)
	assert.Equal(t, "Player_1", claim.RobloxUsername)
	assert.Equal(t, int64(555), claim.RobloxUserID)

	_, err = backend.SubmitClaim(context.Background(), models.ClaimRequest{
		Email: "other@example.com", OrderID: "ORD-1", RobloxUsername: "player_1",
	})
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "Order number already used. Please check your order ID or contact support.", apiErr.Message)
}

func TestMachine_EndToEnd(t *testing.T) {
	srv := newClaimAPI(t)
	m := New(NewHTTPBackend(srv.URL, srv.Client()), Options{})

	require.NoError(t, m.Submit(models.ClaimFormInput{
		ContactAddress:        "buyer@example.com",
		OrderID:               "ORD-77",
		RobloxUsername:        "player_1",
		ConfirmRobloxUsername: "player_1",
	}))
	require.NoError(t, m.Confirm(context.Background()))
	require.NoError(t, m.ChooseBot())

	// MM2Bot is unknown to the stub, so the placeholder is used.
	link, err := m.SendFriendRequest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "https://www.roblox.com/users/1/profile", link)

	receipt, ok := m.Receipt()
	require.True(t, ok)
	assert.Equal(t, "ORD-77", receipt.OrderID)
	assert.Equal(t, "Player_1", receipt.RobloxUsername)

	// A second wizard with the same order cannot get past verification.
	again := New(NewHTTPBackend(srv.URL, srv.Client()), Options{})
	require.NoError(t, again.Submit(models.ClaimFormInput{
		ContactAddress:        "x@example.com",
		OrderID:               "ORD-77",
		RobloxUsername:        "player_1",
		ConfirmRobloxUsername: "player_1",
	}))
	assert.Error(t, again.Confirm(context.Background()))
	assert.Equal(t, StepVerification, again.Step())
}

func TestHTTPBackend_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewHTTPBackend(url, http.DefaultClient).GetUser(context.Background(), "Player_1")
	assert.ErrorContains(t, err, "POST /api/getRobloxUser")
}

func TestHTTPBackend_OptionsDriveBotProfile(t *testing.T) {
	srv := newClaimAPI(t)
	backend := NewHTTPBackend(srv.URL, srv.Client())

	opts, err := backend.Options(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Options{
		BotUsername:  "Player_1",
		GameURL:      DefaultGameURL,
		SupportEmail: DefaultSupportEmail,
	}, opts)

	m := New(backend, opts)
	assert.Equal(t, int64(555), m.BotProfile(context.Background()).ID)
}
