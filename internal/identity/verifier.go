package identity

import (
	"context"
	"errors"
)

var (
	// ErrUnverified indicates the provider rejected the external token.
	ErrUnverified = errors.New("identity token could not be verified")
	// ErrProviderUnavailable indicates the provider could not be reached in time.
	ErrProviderUnavailable = errors.New("identity provider unavailable")
)

// Profile is the verified identity returned by the external provider.
type Profile struct {
	Email     string
	Name      string
	AvatarURL string
}

// Verifier exchanges an opaque external token for a verified profile.
type Verifier interface {
	Verify(ctx context.Context, externalToken string) (Profile, error)
}
