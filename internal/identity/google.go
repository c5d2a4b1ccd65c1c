package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultTokenInfoEndpoint = "https://oauth2.googleapis.com/tokeninfo"

// GoogleVerifier validates Google ID tokens against the tokeninfo endpoint.
type GoogleVerifier struct {
	ClientID string
	Endpoint string
	Client   *http.Client
}

// NewGoogleVerifier constructs a verifier with a bounded request timeout.
// When clientID is non-empty, tokens minted for other audiences are rejected.
func NewGoogleVerifier(clientID string, timeout time.Duration) *GoogleVerifier {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &GoogleVerifier{
		ClientID: clientID,
		Endpoint: defaultTokenInfoEndpoint,
		Client:   &http.Client{Timeout: timeout},
	}
}

// Verify exchanges the ID token for its verified payload.
func (v *GoogleVerifier) Verify(ctx context.Context, externalToken string) (Profile, error) {
	if strings.TrimSpace(externalToken) == "" {
		return Profile{}, ErrUnverified
	}

	endpoint := v.Endpoint
	if endpoint == "" {
		endpoint = defaultTokenInfoEndpoint
	}

	reqURL := fmt.Sprintf("%s?id_token=%s", endpoint, url.QueryEscape(externalToken))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return Profile{}, fmt.Errorf("build tokeninfo request: %w", err)
	}

	client := v.Client
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}

	resp, err := client.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return Profile{}, err
		}
		return Profile{}, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= http.StatusInternalServerError:
		return Profile{}, fmt.Errorf("%w: tokeninfo returned %d", ErrProviderUnavailable, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return Profile{}, ErrUnverified
	}

	var payload struct {
		Email   string `json:"email"`
		Name    string `json:"name"`
		Picture string `json:"picture"`
		Aud     string `json:"aud"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return Profile{}, fmt.Errorf("parse tokeninfo response: %w", err)
	}

	if payload.Email == "" {
		return Profile{}, ErrUnverified
	}
	if v.ClientID != "" && payload.Aud != v.ClientID {
		return Profile{}, ErrUnverified
	}

	return Profile{
		Email:     payload.Email,
		Name:      payload.Name,
		AvatarURL: payload.Picture,
	}, nil
}
