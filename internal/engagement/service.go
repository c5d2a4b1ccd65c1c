package engagement

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
	// ErrForbidden indicates the caller is authenticated but does not own
	// the targeted resource.
	ErrForbidden = errors.New("not allowed to modify this resource")
	// ErrEmptyComment indicates a comment was submitted without text.
	ErrEmptyComment = errors.New("comment text must not be empty")
)

// ToggleResult reports the state of a (user, video) pair after a like or
// dislike trigger, with fresh counts for the video.
type ToggleResult struct {
	State    string `json:"state"`
	Likes    int64  `json:"likes"`
	Dislikes int64  `json:"dislikes"`
}

// Service owns the mutable engagement relations: views, reactions, comments.
type Service struct {
	store   repositories.EngagementRepository
	NowFunc func() time.Time
}

// NewService constructs the engagement service.
func NewService(store repositories.EngagementRepository) *Service {
	if store == nil {
		panic("engagement: repository must not be nil")
	}
	return &Service{store: store}
}

// Like applies a like trigger for the (user, video) pair.
func (s *Service) Like(ctx context.Context, userID, videoID string) (ToggleResult, error) {
	return s.toggle(ctx, userID, videoID, models.ReactionLike)
}

// Dislike applies a dislike trigger for the (user, video) pair.
func (s *Service) Dislike(ctx context.Context, userID, videoID string) (ToggleResult, error) {
	return s.toggle(ctx, userID, videoID, models.ReactionDislike)
}

func (s *Service) toggle(ctx context.Context, userID, videoID string, trigger models.Reaction) (ToggleResult, error) {
	ctx, span := logging.StartSpan(ctx, "engagement.toggle")
	defer span.End()

	state, err := s.store.ToggleReaction(ctx, userID, videoID, trigger)
	if err != nil {
		return ToggleResult{}, err
	}

	counts, err := s.store.CountReactions(ctx, videoID)
	if err != nil {
		return ToggleResult{}, fmt.Errorf("count reactions: %w", err)
	}

	return ToggleResult{
		State:    state.State(),
		Likes:    counts.Likes,
		Dislikes: counts.Dislikes,
	}, nil
}

// RecordView appends one view row for the video. userID is nil for
// anonymous viewers; repeated views by the same account all count.
func (s *Service) RecordView(ctx context.Context, videoID string, userID *string) error {
	view := models.View{
		ID:        uuid.NewString(),
		VideoID:   videoID,
		UserID:    userID,
		CreatedAt: s.now(),
	}
	return s.store.InsertView(ctx, view)
}

// AddComment stores a comment on the video authored by the caller.
func (s *Service) AddComment(ctx context.Context, videoID, userID, text string) (models.Comment, error) {
	if strings.TrimSpace(text) == "" {
		return models.Comment{}, ErrEmptyComment
	}

	comment := models.Comment{
		ID:        uuid.NewString(),
		VideoID:   videoID,
		UserID:    userID,
		Text:      text,
		CreatedAt: s.now(),
	}

	if err := s.store.InsertComment(ctx, comment); err != nil {
		return models.Comment{}, err
	}

	return comment, nil
}

// DeleteComment removes a comment. Only the authoring account may delete it.
func (s *Service) DeleteComment(ctx context.Context, commentID, userID string) error {
	comment, err := s.store.FindComment(ctx, commentID)
	if err != nil {
		return err
	}

	if comment.UserID != userID {
		return ErrForbidden
	}

	return s.store.DeleteComment(ctx, commentID)
}

// Comments lists a video's comments, newest first.
func (s *Service) Comments(ctx context.Context, videoID string) ([]models.Comment, error) {
	return s.store.ListComments(ctx, videoID)
}

func (s *Service) now() time.Time {
	if s.NowFunc != nil {
		return s.NowFunc().UTC()
	}
	return time.Now().UTC()
}
