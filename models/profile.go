package models

// ExternalProfile is a snapshot of a Roblox account taken at lookup time.
// It is rebuilt on every lookup and never cached.
type ExternalProfile struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"` // canonical handle
	DisplayName string `json:"displayName,omitempty"`
	Avatar      string `json:"avatar"` // always populated, see the avatar fallback chain
	IsOnline    bool   `json:"isOnline"`
	LastOnline  string `json:"lastOnline,omitempty"`
	AccountAge  *int   `json:"accountAge,omitempty"` // days
	Premium     *bool  `json:"premium,omitempty"`
	Verified    *bool  `json:"verified,omitempty"`
}
