package app

import (
	"time"

	"github.com/clipstream/backend/internal/auth"
	"github.com/clipstream/backend/internal/catalog"
	"github.com/clipstream/backend/internal/config"
	"github.com/clipstream/backend/internal/db"
	"github.com/clipstream/backend/internal/engagement"
	"github.com/clipstream/backend/internal/handlers"
	"github.com/clipstream/backend/internal/identity"
	"github.com/clipstream/backend/internal/middleware"
	"github.com/clipstream/backend/internal/repositories"
)

// buildDependencies wires together concrete implementations used by the HTTP handlers.
func buildDependencies(pool db.Pool, cfg config.Config) handlers.Dependencies {
	users := repositories.NewPostgresUserRepository(pool)
	videos := repositories.NewPostgresVideoRepository(pool)
	engagements := repositories.NewPostgresEngagementRepository(pool)

	sessions := auth.NewManager([]byte(cfg.SessionSecret), cfg.SessionTTL)
	verifier := identity.NewGoogleVerifier(cfg.GoogleClientID, cfg.IdentityTimeout)
	resolver := identity.NewResolver(verifier, users, videos, sessions, cfg.DefaultCoverURL)

	loginLimiter := middleware.NewIPRateLimiter(cfg.LoginRateLimit, cfg.LoginRateWindow, cfg.LoginRateBurst, 10*time.Minute)

	return handlers.Dependencies{
		Identity:     resolver,
		Sessions:     sessions,
		Catalog:      catalog.NewService(videos),
		Engagement:   engagement.NewService(engagements),
		LoginLimiter: loginLimiter,
		SessionTTL:   cfg.SessionTTL,
	}
}
