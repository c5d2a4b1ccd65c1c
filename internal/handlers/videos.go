package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/clipstream/backend/internal/auth"
	"github.com/clipstream/backend/internal/catalog"
	"github.com/clipstream/backend/internal/logging"
	"github.com/clipstream/backend/internal/models"
)

// VideoHandler provides the feed, search, and video creation endpoints.
type VideoHandler struct {
	Catalog CatalogService
}

// Recommended handles GET /api/v1/videos.
func (h VideoHandler) Recommended(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, func() ([]models.FeedItem, error) {
		return h.Catalog.Recommended(r.Context())
	})
}

// Trending handles GET /api/v1/videos/trending.
func (h VideoHandler) Trending(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, func() ([]models.FeedItem, error) {
		return h.Catalog.Trending(r.Context())
	})
}

// Search handles GET /api/v1/videos/search.
func (h VideoHandler) Search(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if h.Catalog == nil {
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"message": "video services unavailable"})
		return
	}

	items, err := h.Catalog.Search(ctx, r.URL.Query().Get("query"))
	if err != nil {
		if errors.Is(err, catalog.ErrEmptyQuery) {
			respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"message": "Please enter a search query"})
			return
		}
		logging.FromContext(ctx).Error("search videos", "error", err)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"message": "failed to search videos"})
		return
	}

	respondVideos(ctx, w, items)
}

// Create handles POST /api/v1/videos.
func (h VideoHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok || h.Catalog == nil {
		logger.Error("create video called without session context")
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"message": "video services unavailable"})
		return
	}

	var req createVideoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid video payload", "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"message": "invalid request body"})
		return
	}

	video, err := h.Catalog.Create(ctx, userID, catalog.CreateInput{
		Title:       req.Title,
		Description: req.Description,
		URL:         req.URL,
		Thumbnail:   req.Thumbnail,
	})
	if err != nil {
		if errors.Is(err, catalog.ErrInvalidVideo) {
			respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"message": "title and url are required"})
			return
		}
		logger.Error("create video", "error", err, "userId", userID)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"message": "failed to create video"})
		return
	}

	respondJSON(ctx, w, http.StatusCreated, map[string]models.Video{"video": video})
}

func (h VideoHandler) list(w http.ResponseWriter, r *http.Request, fetch func() ([]models.FeedItem, error)) {
	ctx := r.Context()

	if h.Catalog == nil {
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"message": "video services unavailable"})
		return
	}

	items, err := fetch()
	if err != nil {
		logging.FromContext(ctx).Error("list videos", "error", err)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"message": "failed to list videos"})
		return
	}

	respondVideos(ctx, w, items)
}

func respondVideos(ctx context.Context, w http.ResponseWriter, items []models.FeedItem) {
	if items == nil {
		items = []models.FeedItem{}
	}
	respondJSON(ctx, w, http.StatusOK, map[string][]models.FeedItem{"videos": items})
}

type createVideoRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
	Thumbnail   string `json:"thumbnail"`
}
