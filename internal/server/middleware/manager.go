package middleware

import (
	"context"
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/arod1104/uic-gradebook/internal/server/ratelimit"
	"github.com/arod1104/uic-gradebook/internal/types"
	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog/log"
)

const (
	// APIKeyHeader carries the caller's key.
	APIKeyHeader = "X-API-Key"
	// ContextAPIKey is the gin context key holding the caller's *types.APIKey.
	ContextAPIKey = "api_key"
)

// KeyStore resolves and meters API keys.
type KeyStore interface {
	ValidateAPIKey(ctx context.Context, key string) (*types.APIKey, error)
	UpdateKeyUsage(ctx context.Context, key string) error
}

// Manager wires all HTTP middlewares with shared dependencies.
type Manager struct {
	keys        KeyStore
	apiKeyCache *cache.Cache
	rateLimiter *ratelimit.Limiter
	adminKey    string
	now         func() time.Time
}

// NewManager builds a middleware manager for the HTTP server.
func NewManager(keys KeyStore, apiKeyCache *cache.Cache, limiter *ratelimit.Limiter, adminKey string) *Manager {
	return &Manager{
		keys:        keys,
		apiKeyCache: apiKeyCache,
		rateLimiter: limiter,
		adminKey:    adminKey,
		now:         time.Now,
	}
}

// Auth validates API keys and decorates the context with key metadata.
func (m *Manager) Auth() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader(APIKeyHeader)
		if key == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "API key required"})
			return
		}

		apiKey, err := m.lookup(c.Request.Context(), key)
		if err != nil {
			log.Error().Err(err).Msg("API key lookup failed")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "server error"})
			return
		}
		if apiKey == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid API key"})
			return
		}

		if !apiKey.IsAdmin && apiKey.Expired(m.now()) {
			m.apiKeyCache.Delete(key)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "API key expired"})
			return
		}

		m.updateKeyUsageAsync(key)
		c.Set(ContextAPIKey, apiKey)
		c.Next()
	}
}

func (m *Manager) lookup(ctx context.Context, key string) (*types.APIKey, error) {
	if cached, found := m.apiKeyCache.Get(key); found {
		if apiKey, ok := cached.(*types.APIKey); ok {
			return apiKey, nil
		}
		m.apiKeyCache.Delete(key)
	}

	apiKey, err := m.keys.ValidateAPIKey(ctx, key)
	if err != nil || apiKey == nil {
		return nil, err
	}
	m.apiKeyCache.Set(key, apiKey, cache.DefaultExpiration)
	return apiKey, nil
}

// Forget drops a key from the cache and the rate limiter, so a revoked key
// stops working immediately.
func (m *Manager) Forget(key string) {
	m.apiKeyCache.Delete(key)
	m.rateLimiter.Reset(key)
}

// RateLimit enforces per-key request limits.
func (m *Manager) RateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		keyData, exists := c.Get(ContextAPIKey)
		if !exists {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "please provide an API key"})
			return
		}

		apiKey := keyData.(*types.APIKey)
		if !m.rateLimiter.Allow(apiKey.Key, apiKey.RateLimit, apiKey.WindowSeconds) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}

		c.Next()
	}
}

// Admin restricts routes to the admin key.
func (m *Manager) Admin() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader(APIKeyHeader)
		if key == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "API key required"})
			return
		}

		if m.adminKey == "" || subtle.ConstantTimeCompare([]byte(key), []byte(m.adminKey)) != 1 {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin access required"})
			return
		}

		c.Next()
	}
}

func (m *Manager) updateKeyUsageAsync(key string) {
	if key == "" {
		return
	}

	go func(k string) {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := m.keys.UpdateKeyUsage(ctx, k); err != nil {
			log.Warn().Err(err).Msg("failed to update key usage")
		}
	}(key)
}
