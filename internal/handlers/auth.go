package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/clipstream/backend/internal/auth"
	"github.com/clipstream/backend/internal/identity"
	"github.com/clipstream/backend/internal/logging"
	"github.com/clipstream/backend/internal/middleware"
	"github.com/clipstream/backend/internal/models"
	"github.com/clipstream/backend/internal/repositories"
)

// AuthHandler implements the login, current-account, and signout endpoints.
type AuthHandler struct {
	Identity   IdentityResolver
	Limiter    RateLimiter
	SessionTTL time.Duration
}

// GoogleLogin handles POST /api/v1/auth/google-login requests.
func (h AuthHandler) GoogleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if h.Identity == nil {
		logger.Error("identity resolver unavailable")
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"message": "authentication services unavailable"})
		return
	}

	if !allowRequest(h.Limiter, r, "login") {
		logger.Warn("login rate limited", "remote_addr", r.RemoteAddr)
		respondJSON(ctx, w, http.StatusTooManyRequests, map[string]string{"message": "too many login attempts"})
		return
	}

	var req googleLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid login payload", "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"message": "invalid request body"})
		return
	}

	req.IDToken = strings.TrimSpace(req.IDToken)
	if req.IDToken == "" {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"message": "idToken is required"})
		return
	}

	user, token, err := h.Identity.Login(ctx, req.IDToken)
	if err != nil {
		switch {
		case errors.Is(err, identity.ErrProviderUnavailable):
			logger.Error("identity provider unavailable", "error", err)
			respondJSON(ctx, w, http.StatusServiceUnavailable, map[string]string{"message": "identity provider unavailable"})
		case errors.Is(err, identity.ErrUnverified):
			logger.Warn("identity token rejected", "error", err)
			respondJSON(ctx, w, http.StatusUnauthorized, map[string]string{"message": "could not verify identity token"})
		case errors.Is(err, repositories.ErrConflict):
			logger.Error("login conflict not resolved", "error", err)
			respondJSON(ctx, w, http.StatusConflict, map[string]string{"message": "account creation conflict"})
		default:
			logger.Error("login failed", "error", err)
			respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"message": "failed to log in"})
		}
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(h.sessionTTL()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	respondJSON(ctx, w, http.StatusOK, loginResponse{Token: token, User: user})
}

// Me handles GET /api/v1/auth/me requests. The session guard has already
// resolved the account id.
func (h AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok || h.Identity == nil {
		logger.Error("me called without session context")
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"message": "authentication services unavailable"})
		return
	}

	user, videos, err := h.Identity.CurrentUser(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			logger.Warn("account missing for valid session", "userId", userID)
			respondJSON(ctx, w, http.StatusNotFound, map[string]string{"message": "account not found"})
			return
		}
		logger.Error("load current account", "error", err, "userId", userID)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"message": "failed to load account"})
		return
	}

	if videos == nil {
		videos = []models.Video{}
	}

	respondJSON(ctx, w, http.StatusOK, meResponse{User: currentUser{User: user, Videos: videos}})
}

// SignOut handles GET /api/v1/auth/signout requests. Tokens are stateless,
// so signing out only discards the cookie.
func (h AuthHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})

	respondJSON(r.Context(), w, http.StatusOK, map[string]string{"status": "signed out"})
}

func (h AuthHandler) sessionTTL() time.Duration {
	if h.SessionTTL > 0 {
		return h.SessionTTL
	}
	return 24 * time.Hour
}

type googleLoginRequest struct {
	IDToken string `json:"idToken"`
}

type loginResponse struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

type currentUser struct {
	models.User
	Videos []models.Video `json:"videos"`
}

type meResponse struct {
	User currentUser `json:"user"`
}
