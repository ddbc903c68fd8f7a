package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/arod1104/uic-gradebook/internal/grades"
	"github.com/arod1104/uic-gradebook/internal/types"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// GradeSearcher runs a translated grade query.
type GradeSearcher interface {
	SearchGrades(ctx context.Context, q grades.Query) ([]grades.Row, int64, error)
}

// AccountService manages user accounts and their keys.
type AccountService interface {
	Register(ctx context.Context, req types.Registration) (string, error)
	UpdateEmail(ctx context.Context, req types.EmailUpdate) error
	Delete(ctx context.Context, req types.AccountDeletion) ([]string, error)
}

// KeyAdmin is the admin view of the API key store.
type KeyAdmin interface {
	CreateAPIKey(ctx context.Context, key types.APIKey) (string, error)
	GetAPIKey(ctx context.Context, key string) (*types.APIKey, error)
	DeleteAPIKey(ctx context.Context, key string) error
}

type Handler struct {
	grades   GradeSearcher
	accounts AccountService
	keys     KeyAdmin
	revoked  func(key string)
}

func New(grades GradeSearcher, accounts AccountService, keys KeyAdmin) *Handler {
	return &Handler{
		grades:   grades,
		accounts: accounts,
		keys:     keys,
		revoked:  func(string) {},
	}
}

// OnRevoke registers fn to run for every key that stops being valid, whether
// an admin deleted it or its account was removed.
func (h *Handler) OnRevoke(fn func(key string)) {
	h.revoked = fn
}

// Health responds with a simple service heartbeat.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"message": "gradebook API is running",
	})
}

// CreateAPIKey provisions a new API key.
func (h *Handler) CreateAPIKey(c *gin.Context) {
	var req struct {
		UserID        string `json:"user_id"`
		Tier          string `json:"tier"`
		UseCase       string `json:"use_case"`
		RateLimit     int    `json:"rate_limit"`
		WindowSeconds int    `json:"window_seconds"`
		ExpiresAt     string `json:"expires_at"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.Tier == "" && req.RateLimit == 0 && req.WindowSeconds == 0 {
		req.Tier = types.TierFree
	}

	if req.Tier != "" {
		limit, ok := types.Tiers[req.Tier]
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown tier"})
			return
		}
		if req.RateLimit == 0 {
			req.RateLimit = limit.RateLimit
		}
		if req.WindowSeconds == 0 {
			req.WindowSeconds = limit.WindowSeconds
		}
	}

	if req.RateLimit <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "rate limit must be greater than 0"})
		return
	}

	if req.WindowSeconds <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "window seconds must be greater than 0"})
		return
	}

	var expiresAt time.Time
	if req.ExpiresAt != "" {
		var err error
		expiresAt, err = time.Parse(time.RFC3339, req.ExpiresAt)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid expires_at format"})
			return
		}

		if expiresAt.Before(time.Now()) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "expiration date must be in the future"})
			return
		}
	}

	key, err := h.keys.CreateAPIKey(c.Request.Context(), types.APIKey{
		UserID:        req.UserID,
		Tier:          req.Tier,
		UseCase:       req.UseCase,
		RateLimit:     req.RateLimit,
		WindowSeconds: req.WindowSeconds,
		ExpiresAt:     expiresAt,
	})
	if err != nil {
		log.Error().Err(err).Msg("failed to create API key")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create API key"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"key": key})
}

// GetAPIKey retrieves metadata for a stored API key.
func (h *Handler) GetAPIKey(c *gin.Context) {
	apiKey, err := h.keys.GetAPIKey(c.Request.Context(), c.Param("key"))
	if errors.Is(err, types.ErrAPIKeyNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "API key not found"})
		return
	}
	if err != nil {
		log.Error().Err(err).Msg("failed to get API key")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get API key"})
		return
	}

	c.JSON(http.StatusOK, apiKey)
}

// DeleteAPIKey revokes an API key.
func (h *Handler) DeleteAPIKey(c *gin.Context) {
	key := c.Param("key")

	err := h.keys.DeleteAPIKey(c.Request.Context(), key)
	if errors.Is(err, types.ErrAPIKeyNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "API key not found"})
		return
	}
	if err != nil {
		log.Error().Err(err).Msg("failed to delete API key")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete API key"})
		return
	}

	h.revoked(key)
	c.JSON(http.StatusOK, gin.H{"success": true})
}
