package repositories

import (
	"context"

	"github.com/clipstream/backend/internal/models"
)

// VideoRepository exposes data access for videos and the annotated feed
// queries used by ranking and search. Counts are computed live per query.
type VideoRepository interface {
	Create(ctx context.Context, video models.Video) error
	FindByID(ctx context.Context, id string) (models.Video, error)
	ListByOwner(ctx context.Context, ownerID string) ([]models.Video, error)
	ListRecommended(ctx context.Context) ([]models.FeedItem, error)
	ListTrending(ctx context.Context) ([]models.FeedItem, error)
	Search(ctx context.Context, query string) ([]models.FeedItem, error)
}
