package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/clipstream/backend/internal/db"
	"github.com/clipstream/backend/internal/models"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// PostgresUserRepository provides PostgreSQL-backed persistence for accounts.
type PostgresUserRepository struct {
	pool db.Pool
}

// NewPostgresUserRepository constructs a user repository backed by PostgreSQL.
func NewPostgresUserRepository(pool db.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{pool: pool}
}

// Create persists a new account record. Inserting a second account for the
// same email fails with ErrConflict.
func (r *PostgresUserRepository) Create(ctx context.Context, user models.User) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO users (id, username, avatar, cover, about, email, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
    `, user.ID, user.Username, user.Avatar, user.Cover, user.About, user.Email, user.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return ErrConflict
		}
		return fmt.Errorf("insert user: %w", err)
	}

	return nil
}

// FindByEmail fetches an account by its email address (exact match).
func (r *PostgresUserRepository) FindByEmail(ctx context.Context, email string) (models.User, error) {
	return r.findOne(ctx, `
        SELECT id, username, avatar, cover, about, email, created_at
        FROM users
        WHERE email = $1
    `, email)
}

// FindByID fetches an account by its identifier.
func (r *PostgresUserRepository) FindByID(ctx context.Context, id string) (models.User, error) {
	return r.findOne(ctx, `
        SELECT id, username, avatar, cover, about, email, created_at
        FROM users
        WHERE id = $1
    `, id)
}

func (r *PostgresUserRepository) findOne(ctx context.Context, query string, arg any) (models.User, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.User{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, query, arg)

	var user models.User
	if err := row.Scan(&user.ID, &user.Username, &user.Avatar, &user.Cover, &user.About, &user.Email, &user.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, fmt.Errorf("select user: %w", err)
	}

	return user, nil
}

// PostgresVideoRepository provides PostgreSQL-backed persistence for videos
// and the annotated feed queries.
type PostgresVideoRepository struct {
	pool db.Pool
}

// NewPostgresVideoRepository constructs a video repository backed by PostgreSQL.
func NewPostgresVideoRepository(pool db.Pool) *PostgresVideoRepository {
	return &PostgresVideoRepository{pool: pool}
}

// Create stores a new video record.
func (r *PostgresVideoRepository) Create(ctx context.Context, video models.Video) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO videos (id, user_id, title, description, url, thumbnail, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
    `, video.ID, video.OwnerID, video.Title, video.Description, video.URL, video.Thumbnail, video.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case pgUniqueViolation:
				return ErrConflict
			case pgForeignKeyViolation:
				return ErrNotFound
			}
		}
		return fmt.Errorf("insert video: %w", err)
	}

	return nil
}

// FindByID fetches a single video row.
func (r *PostgresVideoRepository) FindByID(ctx context.Context, id string) (models.Video, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Video{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        SELECT id, user_id, title, description, url, thumbnail, created_at
        FROM videos
        WHERE id = $1
    `, id)

	var video models.Video
	if err := row.Scan(&video.ID, &video.OwnerID, &video.Title, &video.Description, &video.URL, &video.Thumbnail, &video.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Video{}, ErrNotFound
		}
		return models.Video{}, fmt.Errorf("select video: %w", err)
	}

	return video, nil
}

// ListByOwner returns an account's videos, newest first.
func (r *PostgresVideoRepository) ListByOwner(ctx context.Context, ownerID string) ([]models.Video, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT id, user_id, title, description, url, thumbnail, created_at
        FROM videos
        WHERE user_id = $1
        ORDER BY created_at DESC
    `, ownerID)
	if err != nil {
		return nil, fmt.Errorf("query owned videos: %w", err)
	}
	defer rows.Close()

	var videos []models.Video
	for rows.Next() {
		var video models.Video
		if err := rows.Scan(&video.ID, &video.OwnerID, &video.Title, &video.Description, &video.URL, &video.Thumbnail, &video.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan owned video: %w", err)
		}
		videos = append(videos, video)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate owned videos: %w", err)
	}

	return videos, nil
}

// feedSelect annotates each video with its author summary and live
// engagement counts. The subqueries run per request: correctness over
// staleness.
const feedSelect = `
        SELECT v.id, v.user_id, v.title, v.description, v.url, v.thumbnail, v.created_at,
               u.id, u.username, u.avatar,
               (SELECT COUNT(*) FROM views vw WHERE vw.video_id = v.id) AS view_count,
               (SELECT COUNT(*) FROM video_likes vl WHERE vl.video_id = v.id AND vl.value = 1) AS like_count,
               (SELECT COUNT(*) FROM video_likes vl WHERE vl.video_id = v.id AND vl.value = -1) AS dislike_count
        FROM videos v
        JOIN users u ON u.id = v.user_id`

// ListRecommended returns all videos newest first.
func (r *PostgresVideoRepository) ListRecommended(ctx context.Context) ([]models.FeedItem, error) {
	return r.queryFeed(ctx, feedSelect+`
        ORDER BY v.created_at DESC
    `)
}

// ListTrending returns all videos by live view count, ties broken by
// creation time.
func (r *PostgresVideoRepository) ListTrending(ctx context.Context) ([]models.FeedItem, error) {
	return r.queryFeed(ctx, feedSelect+`
        ORDER BY view_count DESC, v.created_at DESC
    `)
}

// Search matches videos whose title or description contains the query,
// case-insensitively.
func (r *PostgresVideoRepository) Search(ctx context.Context, query string) ([]models.FeedItem, error) {
	pattern := "%" + escapeLike(query) + "%"
	return r.queryFeed(ctx, feedSelect+`
        WHERE v.title ILIKE $1 ESCAPE '\' OR v.description ILIKE $1 ESCAPE '\'
        ORDER BY v.created_at DESC
    `, pattern)
}

func (r *PostgresVideoRepository) queryFeed(ctx context.Context, query string, args ...any) ([]models.FeedItem, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query video feed: %w", err)
	}
	defer rows.Close()

	var items []models.FeedItem
	for rows.Next() {
		var item models.FeedItem
		if err := rows.Scan(
			&item.ID, &item.OwnerID, &item.Title, &item.Description, &item.URL, &item.Thumbnail, &item.CreatedAt,
			&item.Author.ID, &item.Author.Username, &item.Author.Avatar,
			&item.Views, &item.Likes, &item.Dislikes,
		); err != nil {
			return nil, fmt.Errorf("scan feed item: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate video feed: %w", err)
	}

	return items, nil
}

func escapeLike(s string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return replacer.Replace(s)
}

var _ UserRepository = (*PostgresUserRepository)(nil)
var _ VideoRepository = (*PostgresVideoRepository)(nil)
