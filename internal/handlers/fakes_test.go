package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/clipstream/backend/internal/catalog"
	"github.com/clipstream/backend/internal/engagement"
	"github.com/clipstream/backend/internal/middleware"
	"github.com/clipstream/backend/internal/models"
)

type fakeIdentity struct {
	user      models.User
	token     string
	loginErr  error
	videos    []models.Video
	userErr   error
	loginSeen string
}

func (f *fakeIdentity) Login(_ context.Context, externalToken string) (models.User, string, error) {
	f.loginSeen = externalToken
	if f.loginErr != nil {
		return models.User{}, "", f.loginErr
	}
	return f.user, f.token, nil
}

func (f *fakeIdentity) CurrentUser(_ context.Context, userID string) (models.User, []models.Video, error) {
	if f.userErr != nil {
		return models.User{}, nil, f.userErr
	}
	if userID != f.user.ID {
		return models.User{}, nil, errors.New("unexpected user id")
	}
	return f.user, f.videos, nil
}

type fakeCatalog struct {
	recommended []models.FeedItem
	trending    []models.FeedItem
	results     []models.FeedItem
	created     models.Video
	createErr   error
	searchSeen  string
	ownerSeen   string
}

func (f *fakeCatalog) Create(_ context.Context, ownerID string, input catalog.CreateInput) (models.Video, error) {
	f.ownerSeen = ownerID
	if f.createErr != nil {
		return models.Video{}, f.createErr
	}
	return f.created, nil
}

func (f *fakeCatalog) Recommended(context.Context) ([]models.FeedItem, error) {
	return f.recommended, nil
}

func (f *fakeCatalog) Trending(context.Context) ([]models.FeedItem, error) {
	return f.trending, nil
}

func (f *fakeCatalog) Search(_ context.Context, query string) ([]models.FeedItem, error) {
	f.searchSeen = query
	if query == "" {
		return nil, catalog.ErrEmptyQuery
	}
	return f.results, nil
}

type viewRecord struct {
	videoID string
	userID  *string
}

type fakeEngagement struct {
	toggleResult engagement.ToggleResult
	toggleErr    error
	viewErr      error
	views        []viewRecord
	comment      models.Comment
	commentErr   error
	deleteErr    error
	comments     []models.Comment
	deletedID    string
}

func (f *fakeEngagement) Like(_ context.Context, userID, videoID string) (engagement.ToggleResult, error) {
	if f.toggleErr != nil {
		return engagement.ToggleResult{}, f.toggleErr
	}
	return f.toggleResult, nil
}

func (f *fakeEngagement) Dislike(_ context.Context, userID, videoID string) (engagement.ToggleResult, error) {
	if f.toggleErr != nil {
		return engagement.ToggleResult{}, f.toggleErr
	}
	return f.toggleResult, nil
}

func (f *fakeEngagement) RecordView(_ context.Context, videoID string, userID *string) error {
	if f.viewErr != nil {
		return f.viewErr
	}
	f.views = append(f.views, viewRecord{videoID: videoID, userID: userID})
	return nil
}

func (f *fakeEngagement) AddComment(_ context.Context, videoID, userID, text string) (models.Comment, error) {
	if f.commentErr != nil {
		return models.Comment{}, f.commentErr
	}
	return f.comment, nil
}

func (f *fakeEngagement) DeleteComment(_ context.Context, commentID, userID string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deletedID = commentID
	return nil
}

func (f *fakeEngagement) Comments(context.Context, string) ([]models.Comment, error) {
	return f.comments, nil
}

// staticSessions accepts a single token and resolves it to a single account.
type staticSessions struct {
	token  string
	userID string
}

func (s staticSessions) Verify(token string) (string, error) {
	if token != s.token || token == "" {
		return "", errors.New("invalid session token")
	}
	return s.userID, nil
}

type deniedLimiter struct{}

func (deniedLimiter) Allow(string) bool { return false }

func newTestMux(t *testing.T, deps Dependencies) *http.ServeMux {
	t.Helper()
	if deps.Sessions == nil {
		deps.Sessions = staticSessions{}
	}
	mux := http.NewServeMux()
	RegisterRoutes(mux, deps)
	return mux
}

func withSession(req *http.Request, token string) *http.Request {
	req.AddCookie(&http.Cookie{Name: middleware.SessionCookie, Value: token})
	return req
}

func do(mux *http.ServeMux, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	return rr
}
