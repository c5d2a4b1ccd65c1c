package handlers

import (
	"net/http"
	"time"

	"github.com/clipstream/backend/internal/middleware"
)

// Dependencies aggregates collaborators required by the HTTP handlers.
type Dependencies struct {
	Identity     IdentityResolver
	Sessions     middleware.SessionVerifier
	Catalog      CatalogService
	Engagement   EngagementService
	LoginLimiter RateLimiter
	SessionTTL   time.Duration
}

// RegisterRoutes wires HTTP handlers into the provided ServeMux. Mutating
// and account-scoped routes sit behind the session guard; view recording
// takes an optional session so anonymous playback still counts.
func RegisterRoutes(mux *http.ServeMux, deps Dependencies) {
	health := HealthHandler{}
	authH := AuthHandler{Identity: deps.Identity, Limiter: deps.LoginLimiter, SessionTTL: deps.SessionTTL}
	videos := VideoHandler{Catalog: deps.Catalog}
	engage := EngagementHandler{Engagement: deps.Engagement}

	guard := middleware.RequireSession(deps.Sessions)
	optional := middleware.OptionalSession(deps.Sessions)

	mux.HandleFunc("GET /healthz", health.Handle)

	mux.HandleFunc("POST /api/v1/auth/google-login", authH.GoogleLogin)
	mux.Handle("GET /api/v1/auth/me", guard(http.HandlerFunc(authH.Me)))
	mux.Handle("GET /api/v1/auth/signout", guard(http.HandlerFunc(authH.SignOut)))

	mux.HandleFunc("GET /api/v1/videos", videos.Recommended)
	mux.HandleFunc("GET /api/v1/videos/trending", videos.Trending)
	mux.HandleFunc("GET /api/v1/videos/search", videos.Search)
	mux.Handle("POST /api/v1/videos", guard(http.HandlerFunc(videos.Create)))

	mux.Handle("POST /api/v1/videos/{id}/views", optional(http.HandlerFunc(engage.RecordView)))
	mux.Handle("POST /api/v1/videos/{id}/like", guard(http.HandlerFunc(engage.Like)))
	mux.Handle("POST /api/v1/videos/{id}/dislike", guard(http.HandlerFunc(engage.Dislike)))
	mux.HandleFunc("GET /api/v1/videos/{id}/comments", engage.ListComments)
	mux.Handle("POST /api/v1/videos/{id}/comments", guard(http.HandlerFunc(engage.AddComment)))
	mux.Handle("DELETE /api/v1/videos/{id}/comments/{commentID}", guard(http.HandlerFunc(engage.DeleteComment)))
}
