package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/arod1104/uic-gradebook/internal/config"
	"github.com/arod1104/uic-gradebook/internal/server/handlers"
	"github.com/arod1104/uic-gradebook/internal/server/middleware"
	"github.com/arod1104/uic-gradebook/internal/server/ratelimit"
	"github.com/arod1104/uic-gradebook/internal/server/router"
	"github.com/patrickmn/go-cache"
)

// KeyStore is everything the server needs from the API key backend.
type KeyStore interface {
	middleware.KeyStore
	handlers.KeyAdmin
}

// Deps are the backends the server is built on. They are created once by
// the caller and shared by every request.
type Deps struct {
	Grades   handlers.GradeSearcher
	Accounts handlers.AccountService
	Keys     KeyStore
	AdminKey string
}

// NewServer builds the HTTP server. ctx bounds the background rate limit
// sweeper.
func NewServer(ctx context.Context, cfg *config.Config, deps Deps) *http.Server {
	limiter := ratelimit.NewLimiter()
	limiter.StartCleanup(ctx, cfg.RateLimitSweepInterval())

	ttl := cfg.APIKeyCacheTTL()
	mw := middleware.NewManager(deps.Keys, cache.New(ttl, 2*ttl), limiter, deps.AdminKey)

	handler := handlers.New(deps.Grades, deps.Accounts, deps.Keys)
	handler.OnRevoke(mw.Forget)

	return &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router.New(handler, mw),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
}
