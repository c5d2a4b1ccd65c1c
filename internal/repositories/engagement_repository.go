package repositories

import (
	"context"

	"github.com/clipstream/backend/internal/models"
)

// ReactionCounts reports the live like/dislike tallies for a video.
type ReactionCounts struct {
	Likes    int64
	Dislikes int64
}

// EngagementRepository covers the three mutable engagement relations:
// views, reactions, and comments. Every write against a missing video
// fails with ErrNotFound and leaves no row behind.
type EngagementRepository interface {
	InsertView(ctx context.Context, view models.View) error
	ToggleReaction(ctx context.Context, userID, videoID string, trigger models.Reaction) (models.Reaction, error)
	CountReactions(ctx context.Context, videoID string) (ReactionCounts, error)
	InsertComment(ctx context.Context, comment models.Comment) error
	FindComment(ctx context.Context, id string) (models.Comment, error)
	DeleteComment(ctx context.Context, id string) error
	ListComments(ctx context.Context, videoID string) ([]models.Comment, error)
}
