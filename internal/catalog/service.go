package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/clipstream/backend/internal/logging"
	"github.com/clipstream/backend/internal/models"
	"github.com/clipstream/backend/internal/repositories"
)

var (
	// ErrEmptyQuery indicates a search was requested without a query string.
	ErrEmptyQuery = errors.New("search query must not be empty")
	// ErrInvalidVideo indicates a video submission is missing required fields.
	ErrInvalidVideo = errors.New("video title and url are required")
)

// Service computes feed orderings and search results, and accepts new
// video entries. Videos are immutable once created.
type Service struct {
	videos  repositories.VideoRepository
	NowFunc func() time.Time
}

// NewService constructs the catalog service.
func NewService(videos repositories.VideoRepository) *Service {
	if videos == nil {
		panic("catalog: video repository must not be nil")
	}
	return &Service{videos: videos}
}

// CreateInput carries the caller-supplied fields of a new video.
type CreateInput struct {
	Title       string
	Description string
	URL         string
	Thumbnail   string
}

// Create stores a new video owned by the authenticated account.
func (s *Service) Create(ctx context.Context, ownerID string, input CreateInput) (models.Video, error) {
	if strings.TrimSpace(input.Title) == "" || strings.TrimSpace(input.URL) == "" {
		return models.Video{}, ErrInvalidVideo
	}

	video := models.Video{
		ID:          uuid.NewString(),
		OwnerID:     ownerID,
		Title:       input.Title,
		Description: input.Description,
		URL:         input.URL,
		Thumbnail:   input.Thumbnail,
		CreatedAt:   s.now(),
	}

	if err := s.videos.Create(ctx, video); err != nil {
		return models.Video{}, fmt.Errorf("create video: %w", err)
	}

	logging.FromContext(ctx).Info("video created", "videoId", video.ID, "ownerId", ownerID)
	return video, nil
}

// Recommended returns all videos newest first, annotated with live counts.
func (s *Service) Recommended(ctx context.Context) ([]models.FeedItem, error) {
	return s.videos.ListRecommended(ctx)
}

// Trending returns all videos by live view count descending, ties broken by
// creation time.
func (s *Service) Trending(ctx context.Context) ([]models.FeedItem, error) {
	return s.videos.ListTrending(ctx)
}

// Search returns videos whose title or description contains the query,
// case-insensitively. An empty or whitespace-only query is rejected; an
// empty result set is not an error.
func (s *Service) Search(ctx context.Context, query string) ([]models.FeedItem, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}
	return s.videos.Search(ctx, query)
}

func (s *Service) now() time.Time {
	if s.NowFunc != nil {
		return s.NowFunc().UTC()
	}
	return time.Now().UTC()
}
