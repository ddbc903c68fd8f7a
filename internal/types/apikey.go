package types

import (
	"errors"
	"time"
)

// APIKey is stored in Firestore under api_keys/{key}.
type APIKey struct {
	Key           string    `firestore:"key" json:"key"`
	UserID        string    `firestore:"user_id" json:"user_id"`
	Tier          string    `firestore:"tier" json:"tier"`
	UseCase       string    `firestore:"use_case" json:"use_case,omitempty"`
	RateLimit     int       `firestore:"rate_limit" json:"rate_limit"`
	WindowSeconds int       `firestore:"window_seconds" json:"window_seconds"`
	IsAdmin       bool      `firestore:"is_admin" json:"is_admin"`
	CreatedAt     time.Time `firestore:"created_at" json:"created_at"`
	ExpiresAt     time.Time `firestore:"expires_at" json:"expires_at"`
	LastUsedAt    time.Time `firestore:"last_used_at" json:"last_used_at"`
	UsageCount    int64     `firestore:"usage_count" json:"usage_count"`
}

// Expired reports whether the key has passed its expiry. Keys without an
// expiry never expire.
func (k *APIKey) Expired(now time.Time) bool {
	return !k.ExpiresAt.IsZero() && k.ExpiresAt.Before(now)
}

// Tier names.
const (
	TierFree  = "free"
	TierAdmin = "admin"
)

// TierLimit is the request budget granted to keys of a tier.
type TierLimit struct {
	RateLimit     int
	WindowSeconds int
}

// Tiers maps each tier to its budget. The free tier gets 1000 requests a day.
var Tiers = map[string]TierLimit{
	TierFree: {RateLimit: 1000, WindowSeconds: 24 * 60 * 60},
}

// ErrAPIKeyNotFound is returned when a key does not exist.
var ErrAPIKeyNotFound = errors.New("API key not found")
