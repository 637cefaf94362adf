// models/claim.go
package models

import "time"

// Claim links a storefront order to a verified Roblox account.
// Rows are append-only: created once by the claim service, never updated or deleted.
type Claim struct {
	ID             string    `gorm:"primaryKey;type:uuid" json:"id"`
	Email          string    `gorm:"not null" json:"email"`
	OrderID        string    `gorm:"uniqueIndex;not null" json:"orderId"` // one claim per order, enforced by the DB
	RobloxUsername string    `gorm:"not null" json:"robloxUsername"`      // casing as returned by Roblox, not as typed
	RobloxUserID   int64     `gorm:"not null" json:"robloxUserId"`
	AvatarURL      *string   `gorm:"type:text" json:"avatarUrl"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

// ClaimRequest is the body accepted by POST /api/claims.
// Anything else the client sends (user id, avatar) is ignored; those come from the lookup.
type ClaimRequest struct {
	Email          string `json:"email"`
	OrderID        string `json:"orderId"`
	RobloxUsername string `json:"robloxUsername"`
}

// ClaimExport records one batch of claims handed to fulfilment via object storage.
type ClaimExport struct {
	ID            string    `gorm:"primaryKey;type:uuid" json:"id"`
	ObjectKey     string    `gorm:"not null" json:"object_key"`
	ObjectURL     string    `json:"object_url"`
	ClaimCount    int       `gorm:"not null" json:"claim_count"`
	LastCreatedAt time.Time `gorm:"index;not null" json:"last_created_at"` // high-water mark for the next run
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
}
