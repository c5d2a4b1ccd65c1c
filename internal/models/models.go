package models

import "time"

// User represents an account created from a verified external identity.
// Profile fields are captured on first login and never overwritten.
type User struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Avatar    string    `json:"avatar"`
	Cover     string    `json:"cover"`
	About     string    `json:"about"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

// UserSummary is the author projection attached to feed entries.
type UserSummary struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Avatar   string `json:"avatar"`
}

// Video is an immutable entry pointing at an externally hosted source.
type Video struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"ownerId"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	URL         string    `json:"url"`
	Thumbnail   string    `json:"thumbnail"`
	CreatedAt   time.Time `json:"createdAt"`
}

// View is one append-only playback record. UserID is nil for anonymous viewers.
type View struct {
	ID        string
	VideoID   string
	UserID    *string
	CreatedAt time.Time
}

// Comment belongs to a video and may only be deleted by its author.
type Comment struct {
	ID        string    `json:"id"`
	VideoID   string    `json:"videoId"`
	UserID    string    `json:"userId"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}

// Reaction is the signed polarity stored in a reaction row.
type Reaction int

const (
	// ReactionNone means no row exists for the (user, video) pair.
	ReactionNone Reaction = 0
	// ReactionLike is a +1 row.
	ReactionLike Reaction = 1
	// ReactionDislike is a -1 row.
	ReactionDislike Reaction = -1
)

// NextReaction applies one like/dislike trigger to the stored polarity.
// Repeating the stored reaction clears it; anything else replaces it.
func NextReaction(current, trigger Reaction) Reaction {
	if current == trigger {
		return ReactionNone
	}
	return trigger
}

// State renders a reaction as the wire-facing toggle state.
func (r Reaction) State() string {
	switch r {
	case ReactionLike:
		return "liked"
	case ReactionDislike:
		return "disliked"
	default:
		return "none"
	}
}

// FeedItem is a video annotated with its author and live engagement counts.
type FeedItem struct {
	Video
	Author   UserSummary `json:"author"`
	Views    int64       `json:"views"`
	Likes    int64       `json:"likes"`
	Dislikes int64       `json:"dislikes"`
}
