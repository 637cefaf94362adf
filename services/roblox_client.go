// services/roblox_client.go
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"item-claim-system/metrics"
	"item-claim-system/models"

	"github.com/tidwall/gjson"
)

const (
	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"

	presenceOnline = 1
)

// IdentityLookup resolves a Roblox handle to a profile snapshot.
type IdentityLookup interface {
	Lookup(ctx context.Context, handle string) (*models.ExternalProfile, error)
}

// AvatarStrategy resolves an avatar URL for a user id. An empty result with a nil
// error means "no answer", and the next strategy is tried.
type AvatarStrategy struct {
	Name    string
	Resolve func(ctx context.Context, userID int64) (string, error)
}

type RobloxClient struct {
	UsersURL      string
	ThumbnailsURL string
	PresenceURL   string
	Client        *http.Client

	// Avatar strategies in priority order. The last one must not fail.
	AvatarStrategies []AvatarStrategy

	now func() time.Time
}

func NewRobloxClient(usersURL, thumbnailsURL, presenceURL string, httpClient *http.Client) *RobloxClient {
	c := &RobloxClient{
		UsersURL:      usersURL,
		ThumbnailsURL: thumbnailsURL,
		PresenceURL:   presenceURL,
		Client:        httpClient,
		now:           time.Now,
	}
	c.AvatarStrategies = []AvatarStrategy{
		{Name: "thumbnails", Resolve: c.thumbnailAvatar},
		{Name: "direct", Resolve: func(_ context.Context, id int64) (string, error) {
			return DirectAvatarURL(id), nil
		}},
	}
	return c
}

// DirectAvatarURL builds the headshot URL without calling any API.
func DirectAvatarURL(userID int64) string {
	return fmt.Sprintf("https://www.roblox.com/headshot-thumbnail/image?userId=%d&width=150&height=150&format=png", userID)
}

type usernameLookupResponse struct {
	Data []struct {
		ID          int64  `json:"id"`
		Name        string `json:"name"`
		DisplayName string `json:"displayName"`
	} `json:"data"`
}

type userDetailsResponse struct {
	DisplayName      string `json:"displayName"`
	Created          string `json:"created"`
	IsPremium        *bool  `json:"isPremium"`
	HasVerifiedBadge *bool  `json:"hasVerifiedBadge"`
	LastOnline       string `json:"lastOnline"`
}

// Lookup resolves the handle. Only the username → id step can fail the call;
// details, avatar and presence degrade to defaults.
func (c *RobloxClient) Lookup(ctx context.Context, handle string) (*models.ExternalProfile, error) {
	profile, err := c.resolveUsername(ctx, handle)
	if err != nil {
		log.Printf("❌ [LOOKUP] %q: %v", handle, err)
		if errors.Is(err, ErrUserNotFound) {
			metrics.ObserveLookup("not_found")
		} else {
			metrics.ObserveLookup("unavailable")
		}
		return nil, err
	}

	if details, err := c.fetchDetails(ctx, profile.ID); err != nil {
		log.Printf("⚠️ [LOOKUP] details for %d unavailable: %v", profile.ID, err)
	} else {
		c.applyDetails(profile, details)
	}

	profile.Avatar = c.resolveAvatar(ctx, profile.ID)
	profile.IsOnline = c.fetchPresence(ctx, profile.ID)

	metrics.ObserveLookup("found")
	return profile, nil
}

type notFoundError struct{ handle string }

func (e notFoundError) Error() string { return fmt.Sprintf("username %q not found", e.handle) }

func (e notFoundError) Unwrap() error { return ErrUserNotFound }

func (c *RobloxClient) resolveUsername(ctx context.Context, handle string) (*models.ExternalProfile, error) {
	reqBody, err := json.Marshal(map[string]interface{}{
		"usernames":          []string{handle},
		"excludeBannedUsers": true,
	})
	if err != nil {
		return nil, err
	}

	body, status, err := c.do(ctx, http.MethodPost, c.endpoint(c.UsersURL, "v1/usernames/users"), reqBody)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLookupUnavailable, err)
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("%w: username lookup returned %d", ErrLookupUnavailable, status)
	}

	var out usernameLookupResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("%w: decode username lookup: %v", ErrLookupUnavailable, err)
	}
	if len(out.Data) == 0 {
		return nil, notFoundError{handle: handle}
	}

	user := out.Data[0]
	return &models.ExternalProfile{
		ID:          user.ID,
		Name:        user.Name,
		DisplayName: user.DisplayName,
	}, nil
}

func (c *RobloxClient) fetchDetails(ctx context.Context, userID int64) (*userDetailsResponse, error) {
	body, status, err := c.do(ctx, http.MethodGet, c.endpoint(c.UsersURL, "v1/users", strconv.FormatInt(userID, 10)), nil)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("user details returned %d", status)
	}

	var details userDetailsResponse
	if err := json.Unmarshal(body, &details); err != nil {
		return nil, err
	}
	return &details, nil
}

func (c *RobloxClient) applyDetails(profile *models.ExternalProfile, details *userDetailsResponse) {
	if details.DisplayName != "" {
		profile.DisplayName = details.DisplayName
	}
	profile.LastOnline = details.LastOnline
	profile.Premium = details.IsPremium
	profile.Verified = details.HasVerifiedBadge

	if details.Created != "" {
		if created, err := time.Parse(time.RFC3339, details.Created); err == nil {
			days := int(c.now().Sub(created).Hours() / 24)
			profile.AccountAge = &days
		}
	}
}

func (c *RobloxClient) resolveAvatar(ctx context.Context, userID int64) string {
	for _, strategy := range c.AvatarStrategies {
		avatar, err := strategy.Resolve(ctx, userID)
		if err != nil {
			log.Printf("⚠️ [LOOKUP] avatar strategy %q failed for %d: %v", strategy.Name, userID, err)
			continue
		}
		if avatar != "" {
			metrics.ObserveAvatarSource(strategy.Name)
			return avatar
		}
	}
	// Only reachable when the strategy list was replaced with one lacking a pure fallback.
	metrics.ObserveAvatarSource("direct")
	return DirectAvatarURL(userID)
}

func (c *RobloxClient) thumbnailAvatar(ctx context.Context, userID int64) (string, error) {
	endpoint, err := url.Parse(c.endpoint(c.ThumbnailsURL, "v1/users/avatar-headshot"))
	if err != nil {
		return "", err
	}
	q := endpoint.Query()
	q.Set("userIds", strconv.FormatInt(userID, 10))
	q.Set("size", "150x150")
	q.Set("format", "Png")
	q.Set("isCircular", "false")
	endpoint.RawQuery = q.Encode()

	body, status, err := c.do(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return "", err
	}
	if status != http.StatusOK {
		return "", fmt.Errorf("thumbnails returned %d", status)
	}
	return gjson.GetBytes(body, "data.0.imageUrl").String(), nil
}

func (c *RobloxClient) fetchPresence(ctx context.Context, userID int64) bool {
	reqBody, _ := json.Marshal(map[string]interface{}{"userIds": []int64{userID}})

	body, status, err := c.do(ctx, http.MethodPost, c.endpoint(c.PresenceURL, "v1/presence/users"), reqBody)
	if err != nil {
		log.Printf("⚠️ [LOOKUP] presence for %d unavailable: %v", userID, err)
		return false
	}
	if status != http.StatusOK {
		log.Printf("⚠️ [LOOKUP] presence for %d returned %d", userID, status)
		return false
	}
	return gjson.GetBytes(body, "userPresences.0.userPresenceType").Int() == presenceOnline
}

func (c *RobloxClient) endpoint(base string, elem ...string) string {
	joined, err := url.JoinPath(base, elem...)
	if err != nil {
		return base
	}
	return joined
}

func (c *RobloxClient) do(ctx context.Context, method, target string, payload []byte) ([]byte, int, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("User-Agent", userAgent)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, resp.StatusCode, err
	}
	return body, resp.StatusCode, nil
}
