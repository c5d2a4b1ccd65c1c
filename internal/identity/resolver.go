package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/clipstream/backend/internal/logging"
	"github.com/clipstream/backend/internal/models"
	"github.com/clipstream/backend/internal/repositories"
)

// TokenIssuer mints session credentials for resolved accounts.
type TokenIssuer interface {
	Issue(userID string) (string, time.Time, error)
}

// Resolver maps external identity assertions onto durable local accounts,
// creating each account exactly once per distinct email.
type Resolver struct {
	verifier Verifier
	users    repositories.UserRepository
	videos   repositories.VideoRepository
	tokens   TokenIssuer
	cover    string
	NowFunc  func() time.Time
}

// NewResolver wires the resolver's collaborators. cover is the banner
// assigned to newly created accounts.
func NewResolver(verifier Verifier, users repositories.UserRepository, videos repositories.VideoRepository, tokens TokenIssuer, cover string) *Resolver {
	if verifier == nil || users == nil || videos == nil || tokens == nil {
		panic("identity: resolver collaborators must not be nil")
	}
	return &Resolver{
		verifier: verifier,
		users:    users,
		videos:   videos,
		tokens:   tokens,
		cover:    cover,
	}
}

// Login exchanges an external identity token for the local account and a
// session token, creating the account on first sight. Stored profile fields
// are never overwritten: first-login values win permanently.
func (r *Resolver) Login(ctx context.Context, externalToken string) (models.User, string, error) {
	ctx, span := logging.StartSpan(ctx, "identity.login")
	defer span.End()

	profile, err := r.verifier.Verify(ctx, externalToken)
	if err != nil {
		if errors.Is(err, ErrProviderUnavailable) {
			return models.User{}, "", err
		}
		return models.User{}, "", fmt.Errorf("%w: %v", ErrUnverified, err)
	}

	user, err := r.resolveAccount(ctx, profile)
	if err != nil {
		return models.User{}, "", err
	}

	token, _, err := r.tokens.Issue(user.ID)
	if err != nil {
		return models.User{}, "", fmt.Errorf("issue session token: %w", err)
	}

	return user, token, nil
}

// resolveAccount finds the account for the profile's email or creates it.
// A concurrent first login loses the insert race on the email uniqueness
// constraint and retries as a lookup.
func (r *Resolver) resolveAccount(ctx context.Context, profile Profile) (models.User, error) {
	user, err := r.users.FindByEmail(ctx, profile.Email)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, repositories.ErrNotFound) {
		return models.User{}, fmt.Errorf("look up account: %w", err)
	}

	user = models.User{
		ID:        uuid.NewString(),
		Username:  profile.Name,
		Avatar:    profile.AvatarURL,
		Cover:     r.cover,
		About:     "",
		Email:     profile.Email,
		CreatedAt: r.now(),
	}

	err = r.users.Create(ctx, user)
	if err == nil {
		logging.FromContext(ctx).Info("account created", "userId", user.ID)
		return user, nil
	}
	if !errors.Is(err, repositories.ErrConflict) {
		return models.User{}, fmt.Errorf("create account: %w", err)
	}

	user, err = r.users.FindByEmail(ctx, profile.Email)
	if err != nil {
		return models.User{}, fmt.Errorf("%w: lost creation race and lookup failed", repositories.ErrConflict)
	}
	return user, nil
}

// CurrentUser loads the account for a verified session along with its owned
// videos, newest first.
func (r *Resolver) CurrentUser(ctx context.Context, userID string) (models.User, []models.Video, error) {
	user, err := r.users.FindByID(ctx, userID)
	if err != nil {
		return models.User{}, nil, err
	}

	videos, err := r.videos.ListByOwner(ctx, userID)
	if err != nil {
		return models.User{}, nil, fmt.Errorf("list owned videos: %w", err)
	}

	return user, videos, nil
}

func (r *Resolver) now() time.Time {
	if r.NowFunc != nil {
		return r.NowFunc().UTC()
	}
	return time.Now().UTC()
}
