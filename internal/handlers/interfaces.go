package handlers

import (
	"context"

	"github.com/clipstream/backend/internal/catalog"
	"github.com/clipstream/backend/internal/engagement"
	"github.com/clipstream/backend/internal/models"
)

// IdentityResolver maps external identity tokens to local accounts and
// loads the current account with its owned videos.
type IdentityResolver interface {
	Login(ctx context.Context, externalToken string) (models.User, string, error)
	CurrentUser(ctx context.Context, userID string) (models.User, []models.Video, error)
}

// CatalogService captures the feed, search, and video creation operations.
type CatalogService interface {
	Create(ctx context.Context, ownerID string, input catalog.CreateInput) (models.Video, error)
	Recommended(ctx context.Context) ([]models.FeedItem, error)
	Trending(ctx context.Context) ([]models.FeedItem, error)
	Search(ctx context.Context, query string) ([]models.FeedItem, error)
}

// EngagementService captures the view, reaction, and comment operations.
type EngagementService interface {
	Like(ctx context.Context, userID, videoID string) (engagement.ToggleResult, error)
	Dislike(ctx context.Context, userID, videoID string) (engagement.ToggleResult, error)
	RecordView(ctx context.Context, videoID string, userID *string) error
	AddComment(ctx context.Context, videoID, userID, text string) (models.Comment, error)
	DeleteComment(ctx context.Context, commentID, userID string) error
	Comments(ctx context.Context, videoID string) ([]models.Comment, error)
}
