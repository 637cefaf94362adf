package wizard

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"item-claim-system/models"
)

// APIError is a non-success reply from the claim API, carrying its message.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("claim api %d: %s", e.Status, e.Message)
}

// HTTPBackend talks to the claim API over HTTP.
type HTTPBackend struct {
	BaseURL string
	Client  *http.Client
}

func NewHTTPBackend(baseURL string, client *http.Client) *HTTPBackend {
	return &HTTPBackend{BaseURL: baseURL, Client: client}
}

func (b *HTTPBackend) ValidateUsername(ctx context.Context, username string) (*models.ExternalProfile, error) {
	var out struct {
		Valid bool                    `json:"valid"`
		User  *models.ExternalProfile `json:"user"`
		Error string                  `json:"error"`
	}
	status, err := b.do(ctx, http.MethodPost, "/api/validateRobloxUsername", map[string]string{"username": username}, &out)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK || !out.Valid || out.User == nil {
		return nil, &APIError{Status: status, Message: orDefault(out.Error, "Username validation failed.")}
	}
	return out.User, nil
}

func (b *HTTPBackend) GetUser(ctx context.Context, username string) (*models.ExternalProfile, error) {
	var out struct {
		models.ExternalProfile
		Error string `json:"error"`
	}
	status, err := b.do(ctx, http.MethodPost, "/api/getRobloxUser", map[string]string{"username": username}, &out)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, &APIError{Status: status, Message: orDefault(out.Error, "User not found")}
	}
	profile := out.ExternalProfile
	return &profile, nil
}

func (b *HTTPBackend) SubmitClaim(ctx context.Context, req models.ClaimRequest) (*models.Claim, error) {
	var out struct {
		Success bool          `json:"success"`
		Claim   *models.Claim `json:"claim"`
		Error   string        `json:"error"`
	}
	status, err := b.do(ctx, http.MethodPost, "/api/claims", req, &out)
	if err != nil {
		return nil, err
	}
	if status != http.StatusCreated || out.Claim == nil {
		return nil, &APIError{Status: status, Message: orDefault(out.Error, "Failed to submit claim. Please try again.")}
	}
	return out.Claim, nil
}

// Options fetches the server's wizard settings, with defaults for anything it leaves empty.
func (b *HTTPBackend) Options(ctx context.Context) (Options, error) {
	var out Options
	status, err := b.do(ctx, http.MethodGet, "/api/wizardConfig", nil, &out)
	if err != nil {
		return Options{}, err
	}
	if status != http.StatusOK {
		return Options{}, &APIError{Status: status, Message: "Failed to load wizard settings."}
	}
	return out.WithDefaults(), nil
}

func (b *HTTPBackend) do(ctx context.Context, method, path string, in, out interface{}) (int, error) {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return 0, err
		}
		body = bytes.NewReader(payload)
	}

	target, err := url.JoinPath(b.BaseURL, path)
	if err != nil {
		return 0, fmt.Errorf("invalid claim api base URL %q: %w", b.BaseURL, err)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return 0, err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := b.Client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return resp.StatusCode, err
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return resp.StatusCode, fmt.Errorf("decode %s response: %w", path, err)
		}
	}
	return resp.StatusCode, nil
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
