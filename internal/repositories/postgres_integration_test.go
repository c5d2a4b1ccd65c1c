package repositories

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/cockroachdb/cockroach-go/v2/testserver"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clipstream/backend/internal/models"
)

var testPool *pgxpool.Pool

func TestMain(m *testing.M) {
	server, err := testserver.NewTestServer()
	if err != nil {
		fmt.Fprintf(os.Stderr, "start cockroach test server: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, server.PGURL().String())
	if err != nil {
		fmt.Fprintf(os.Stderr, "connect to cockroach test server: %v\n", err)
		server.Stop()
		os.Exit(1)
	}

	if err := applyMigrations(ctx, pool); err != nil {
		fmt.Fprintf(os.Stderr, "apply migrations: %v\n", err)
		pool.Close()
		server.Stop()
		os.Exit(1)
	}

	testPool = pool

	code := m.Run()

	pool.Close()
	server.Stop()

	os.Exit(code)
}

func applyMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	migrationsDir := filepath.Join("..", "..", "migrations")
	entries, err := os.ReadDir(migrationsDir)
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		contents, err := os.ReadFile(filepath.Join(migrationsDir, entry.Name()))
		if err != nil {
			return fmt.Errorf("read migration %s: %w", entry.Name(), err)
		}

		if _, err := pool.Exec(ctx, string(contents)); err != nil {
			return fmt.Errorf("apply migration %s: %w", entry.Name(), err)
		}
	}

	return nil
}

func resetDatabase(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	conn, err := testPool.Acquire(ctx)
	if err != nil {
		t.Fatalf("acquire connection: %v", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "TRUNCATE TABLE comments, video_likes, views, videos, users CASCADE"); err != nil {
		t.Fatalf("truncate tables: %v", err)
	}
}

func createTestUser(t *testing.T, repo *PostgresUserRepository, email string) models.User {
	t.Helper()
	user := models.User{
		ID:        uuid.NewString(),
		Username:  email,
		Avatar:    "http://picture.com/" + email,
		Cover:     "http://cover.com/default.png",
		Email:     email,
		CreatedAt: time.Now().UTC(),
	}
	if err := repo.Create(context.Background(), user); err != nil {
		t.Fatalf("create test user: %v", err)
	}
	return user
}

func createTestVideo(t *testing.T, repo *PostgresVideoRepository, ownerID, title string, createdAt time.Time) models.Video {
	t.Helper()
	video := models.Video{
		ID:          uuid.NewString(),
		OwnerID:     ownerID,
		Title:       title,
		Description: "about " + title,
		URL:         "http://video.com/" + title,
		Thumbnail:   "http://video.com/" + title + ".png",
		CreatedAt:   createdAt,
	}
	if err := repo.Create(context.Background(), video); err != nil {
		t.Fatalf("create test video: %v", err)
	}
	return video
}

func TestPostgresUserRepository_CreateAndFind(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	repo := NewPostgresUserRepository(testPool)
	user := createTestUser(t, repo, "alice@example.com")

	dup := models.User{
		ID:        uuid.NewString(),
		Username:  "alice again",
		Email:     user.Email,
		CreatedAt: time.Now().UTC(),
	}
	if err := repo.Create(ctx, dup); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict for duplicate email, got %v", err)
	}

	fetched, err := repo.FindByEmail(ctx, user.Email)
	if err != nil {
		t.Fatalf("find by email: %v", err)
	}
	if fetched.ID != user.ID || fetched.Username != user.Username {
		t.Fatalf("unexpected user %+v", fetched)
	}

	fetched, err = repo.FindByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("find by id: %v", err)
	}
	if fetched.Email != user.Email {
		t.Fatalf("unexpected user %+v", fetched)
	}

	if _, err := repo.FindByEmail(ctx, "nobody@example.com"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPostgresVideoRepository_CreateRequiresOwner(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	repo := NewPostgresVideoRepository(testPool)
	video := models.Video{
		ID:        uuid.NewString(),
		OwnerID:   uuid.NewString(),
		Title:     "orphan",
		URL:       "http://video.com/orphan",
		CreatedAt: time.Now().UTC(),
	}

	if err := repo.Create(ctx, video); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing owner, got %v", err)
	}
}

func TestPostgresVideoRepository_FeedOrderings(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	users := NewPostgresUserRepository(testPool)
	videos := NewPostgresVideoRepository(testPool)
	engagements := NewPostgresEngagementRepository(testPool)

	owner := createTestUser(t, users, "owner@example.com")
	base := time.Now().UTC().Add(-time.Hour)
	oldest := createTestVideo(t, videos, owner.ID, "oldest", base)
	middle := createTestVideo(t, videos, owner.ID, "middle", base.Add(time.Minute))
	newest := createTestVideo(t, videos, owner.ID, "newest", base.Add(2*time.Minute))

	// Two views for the oldest video make it trend above the rest.
	for i := 0; i < 2; i++ {
		view := models.View{ID: uuid.NewString(), VideoID: oldest.ID, CreatedAt: time.Now().UTC()}
		if err := engagements.InsertView(ctx, view); err != nil {
			t.Fatalf("insert view: %v", err)
		}
	}

	recommended, err := videos.ListRecommended(ctx)
	if err != nil {
		t.Fatalf("list recommended: %v", err)
	}
	if len(recommended) != 3 {
		t.Fatalf("expected 3 feed items, got %d", len(recommended))
	}
	if recommended[0].ID != newest.ID || recommended[1].ID != middle.ID || recommended[2].ID != oldest.ID {
		t.Fatalf("recommended order wrong: %s %s %s", recommended[0].Title, recommended[1].Title, recommended[2].Title)
	}
	if recommended[0].Author.Username != owner.Username {
		t.Fatalf("expected author summary, got %+v", recommended[0].Author)
	}
	if recommended[2].Views != 2 {
		t.Fatalf("expected live view count 2, got %d", recommended[2].Views)
	}

	trending, err := videos.ListTrending(ctx)
	if err != nil {
		t.Fatalf("list trending: %v", err)
	}
	if trending[0].ID != oldest.ID {
		t.Fatalf("expected most viewed first, got %s", trending[0].Title)
	}
	if trending[1].ID != newest.ID {
		t.Fatalf("expected creation time to break ties, got %s", trending[1].Title)
	}
}

func TestPostgresVideoRepository_Search(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	users := NewPostgresUserRepository(testPool)
	videos := NewPostgresVideoRepository(testPool)

	owner := createTestUser(t, users, "owner@example.com")
	match := createTestVideo(t, videos, owner.ID, "Gopher Tricks", time.Now().UTC())
	createTestVideo(t, videos, owner.ID, "Unrelated", time.Now().UTC())

	results, err := videos.Search(ctx, "gopher")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 1 || results[0].ID != match.ID {
		t.Fatalf("case-insensitive title match failed: %+v", results)
	}

	// Description matches count too: every video's description mentions its title.
	results, err = videos.Search(ctx, "about unrelated")
	if err != nil {
		t.Fatalf("search description: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected description match, got %+v", results)
	}

	// LIKE metacharacters in the query are literals, not wildcards.
	results, err = videos.Search(ctx, "%")
	if err != nil {
		t.Fatalf("search metacharacter: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("expected no match for literal %%, got %+v", results)
	}
}

func TestPostgresEngagementRepository_ToggleSequence(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	users := NewPostgresUserRepository(testPool)
	videos := NewPostgresVideoRepository(testPool)
	repo := NewPostgresEngagementRepository(testPool)

	owner := createTestUser(t, users, "owner@example.com")
	viewer := createTestUser(t, users, "viewer@example.com")
	video := createTestVideo(t, videos, owner.ID, "clip", time.Now().UTC())

	state, err := repo.ToggleReaction(ctx, viewer.ID, video.ID, models.ReactionLike)
	if err != nil {
		t.Fatalf("like: %v", err)
	}
	if state != models.ReactionLike {
		t.Fatalf("expected like, got %v", state)
	}

	state, err = repo.ToggleReaction(ctx, viewer.ID, video.ID, models.ReactionDislike)
	if err != nil {
		t.Fatalf("dislike: %v", err)
	}
	if state != models.ReactionDislike {
		t.Fatalf("expected dislike to replace like, got %v", state)
	}

	state, err = repo.ToggleReaction(ctx, viewer.ID, video.ID, models.ReactionDislike)
	if err != nil {
		t.Fatalf("second dislike: %v", err)
	}
	if state != models.ReactionNone {
		t.Fatalf("expected toggle off, got %v", state)
	}

	counts, err := repo.CountReactions(ctx, video.ID)
	if err != nil {
		t.Fatalf("count reactions: %v", err)
	}
	if counts.Likes != 0 || counts.Dislikes != 0 {
		t.Fatalf("expected clean slate, got %+v", counts)
	}

	if _, err := repo.ToggleReaction(ctx, viewer.ID, uuid.NewString(), models.ReactionLike); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing video, got %v", err)
	}
}

func TestPostgresEngagementRepository_ConcurrentFirstLikes(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	users := NewPostgresUserRepository(testPool)
	videos := NewPostgresVideoRepository(testPool)
	repo := NewPostgresEngagementRepository(testPool)

	owner := createTestUser(t, users, "owner@example.com")
	viewer := createTestUser(t, users, "viewer@example.com")
	video := createTestVideo(t, videos, owner.ID, "clip", time.Now().UTC())

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = repo.ToggleReaction(ctx, viewer.ID, video.ID, models.ReactionLike)
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("concurrent like %d: %v", i, err)
		}
	}

	// Both triggers serialize onto the single (user, video) row, so at most
	// one like survives.
	var rows int64
	conn, err := testPool.Acquire(ctx)
	if err != nil {
		t.Fatalf("acquire connection: %v", err)
	}
	defer conn.Release()
	if err := conn.QueryRow(ctx, "SELECT COUNT(*) FROM video_likes WHERE user_id = $1 AND video_id = $2", viewer.ID, video.ID).Scan(&rows); err != nil {
		t.Fatalf("count reaction rows: %v", err)
	}
	if rows > 1 {
		t.Fatalf("expected at most one reaction row, got %d", rows)
	}
}

func TestPostgresEngagementRepository_ViewsAppend(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	users := NewPostgresUserRepository(testPool)
	videos := NewPostgresVideoRepository(testPool)
	repo := NewPostgresEngagementRepository(testPool)

	owner := createTestUser(t, users, "owner@example.com")
	video := createTestVideo(t, videos, owner.ID, "clip", time.Now().UTC())

	for i := 0; i < 3; i++ {
		view := models.View{ID: uuid.NewString(), VideoID: video.ID, UserID: &owner.ID, CreatedAt: time.Now().UTC()}
		if err := repo.InsertView(ctx, view); err != nil {
			t.Fatalf("insert view %d: %v", i, err)
		}
	}

	anonymous := models.View{ID: uuid.NewString(), VideoID: video.ID, CreatedAt: time.Now().UTC()}
	if err := repo.InsertView(ctx, anonymous); err != nil {
		t.Fatalf("insert anonymous view: %v", err)
	}

	feed, err := videos.ListTrending(ctx)
	if err != nil {
		t.Fatalf("list trending: %v", err)
	}
	if len(feed) != 1 || feed[0].Views != 4 {
		t.Fatalf("expected 4 views counted, got %+v", feed)
	}

	missing := models.View{ID: uuid.NewString(), VideoID: uuid.NewString(), CreatedAt: time.Now().UTC()}
	if err := repo.InsertView(ctx, missing); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing video, got %v", err)
	}
}

func TestPostgresEngagementRepository_CommentLifecycle(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	users := NewPostgresUserRepository(testPool)
	videos := NewPostgresVideoRepository(testPool)
	repo := NewPostgresEngagementRepository(testPool)

	owner := createTestUser(t, users, "owner@example.com")
	video := createTestVideo(t, videos, owner.ID, "clip", time.Now().UTC())

	base := time.Now().UTC()
	first := models.Comment{ID: uuid.NewString(), VideoID: video.ID, UserID: owner.ID, Text: "first", CreatedAt: base}
	second := models.Comment{ID: uuid.NewString(), VideoID: video.ID, UserID: owner.ID, Text: "second", CreatedAt: base.Add(time.Second)}

	for _, comment := range []models.Comment{first, second} {
		if err := repo.InsertComment(ctx, comment); err != nil {
			t.Fatalf("insert comment: %v", err)
		}
	}

	listed, err := repo.ListComments(ctx, video.ID)
	if err != nil {
		t.Fatalf("list comments: %v", err)
	}
	if len(listed) != 2 || listed[0].ID != second.ID || listed[1].ID != first.ID {
		t.Fatalf("expected newest first, got %+v", listed)
	}

	found, err := repo.FindComment(ctx, first.ID)
	if err != nil {
		t.Fatalf("find comment: %v", err)
	}
	if found.Text != "first" {
		t.Fatalf("unexpected comment %+v", found)
	}

	if err := repo.DeleteComment(ctx, first.ID); err != nil {
		t.Fatalf("delete comment: %v", err)
	}
	if err := repo.DeleteComment(ctx, first.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}

	orphan := models.Comment{ID: uuid.NewString(), VideoID: uuid.NewString(), UserID: owner.ID, Text: "orphan", CreatedAt: base}
	if err := repo.InsertComment(ctx, orphan); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing video, got %v", err)
	}
}
