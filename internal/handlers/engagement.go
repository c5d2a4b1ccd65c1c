package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/clipstream/backend/internal/auth"
	"github.com/clipstream/backend/internal/engagement"
	"github.com/clipstream/backend/internal/logging"
	"github.com/clipstream/backend/internal/models"
	"github.com/clipstream/backend/internal/repositories"
)

// EngagementHandler provides the view, reaction, and comment endpoints.
type EngagementHandler struct {
	Engagement EngagementService
}

// Like handles POST /api/v1/videos/{id}/like.
func (h EngagementHandler) Like(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, h.Engagement.Like)
}

// Dislike handles POST /api/v1/videos/{id}/dislike.
func (h EngagementHandler) Dislike(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, h.Engagement.Dislike)
}

func (h EngagementHandler) toggle(w http.ResponseWriter, r *http.Request, apply func(ctx context.Context, userID, videoID string) (engagement.ToggleResult, error)) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok || h.Engagement == nil {
		logger.Error("toggle called without session context")
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"message": "engagement services unavailable"})
		return
	}

	videoID := r.PathValue("id")
	result, err := apply(ctx, userID, videoID)
	if err != nil {
		switch {
		case errors.Is(err, repositories.ErrNotFound):
			respondJSON(ctx, w, http.StatusNotFound, map[string]string{"message": "video not found"})
		case errors.Is(err, repositories.ErrConflict):
			respondJSON(ctx, w, http.StatusConflict, map[string]string{"message": "reaction conflict"})
		default:
			logger.Error("toggle reaction", "error", err, "videoId", videoID)
			respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"message": "failed to update reaction"})
		}
		return
	}

	respondJSON(ctx, w, http.StatusOK, result)
}

// RecordView handles POST /api/v1/videos/{id}/views. Anonymous viewers are
// allowed; the session guard is optional on this route.
func (h EngagementHandler) RecordView(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if h.Engagement == nil {
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"message": "engagement services unavailable"})
		return
	}

	var userID *string
	if id, ok := auth.UserIDFromContext(ctx); ok {
		userID = &id
	}

	videoID := r.PathValue("id")
	if err := h.Engagement.RecordView(ctx, videoID, userID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondJSON(ctx, w, http.StatusNotFound, map[string]string{"message": "video not found"})
			return
		}
		logger.Error("record view", "error", err, "videoId", videoID)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"message": "failed to record view"})
		return
	}

	respondJSON(ctx, w, http.StatusCreated, map[string]string{"status": "view recorded"})
}

// ListComments handles GET /api/v1/videos/{id}/comments.
func (h EngagementHandler) ListComments(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if h.Engagement == nil {
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"message": "engagement services unavailable"})
		return
	}

	comments, err := h.Engagement.Comments(ctx, r.PathValue("id"))
	if err != nil {
		logging.FromContext(ctx).Error("list comments", "error", err)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"message": "failed to list comments"})
		return
	}

	if comments == nil {
		comments = []models.Comment{}
	}
	respondJSON(ctx, w, http.StatusOK, map[string][]models.Comment{"comments": comments})
}

// AddComment handles POST /api/v1/videos/{id}/comments.
func (h EngagementHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok || h.Engagement == nil {
		logger.Error("add comment called without session context")
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"message": "engagement services unavailable"})
		return
	}

	var req addCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid comment payload", "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"message": "invalid request body"})
		return
	}

	videoID := r.PathValue("id")
	comment, err := h.Engagement.AddComment(ctx, videoID, userID, req.Text)
	if err != nil {
		switch {
		case errors.Is(err, engagement.ErrEmptyComment):
			respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"message": "comment text is required"})
		case errors.Is(err, repositories.ErrNotFound):
			respondJSON(ctx, w, http.StatusNotFound, map[string]string{"message": "video not found"})
		default:
			logger.Error("add comment", "error", err, "videoId", videoID)
			respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"message": "failed to add comment"})
		}
		return
	}

	respondJSON(ctx, w, http.StatusCreated, map[string]models.Comment{"comment": comment})
}

// DeleteComment handles DELETE /api/v1/videos/{id}/comments/{commentID}.
func (h EngagementHandler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok || h.Engagement == nil {
		logger.Error("delete comment called without session context")
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"message": "engagement services unavailable"})
		return
	}

	commentID := r.PathValue("commentID")
	if err := h.Engagement.DeleteComment(ctx, commentID, userID); err != nil {
		switch {
		case errors.Is(err, repositories.ErrNotFound):
			respondJSON(ctx, w, http.StatusNotFound, map[string]string{"message": "comment not found"})
		case errors.Is(err, engagement.ErrForbidden):
			respondJSON(ctx, w, http.StatusForbidden, map[string]string{"message": "you can only delete your own comments"})
		default:
			logger.Error("delete comment", "error", err, "commentId", commentID)
			respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"message": "failed to delete comment"})
		}
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]string{"status": "comment deleted"})
}

type addCommentRequest struct {
	Text string `json:"text"`
}
