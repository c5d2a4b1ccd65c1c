package repositories

import (
	"context"
	"errors"
	"fmt"

	crdbpgxv5 "github.com/cockroachdb/cockroach-go/v2/crdb/crdbpgxv5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/clipstream/backend/internal/db"
	"github.com/clipstream/backend/internal/models"
)

// PostgresEngagementRepository persists views, reactions, and comments.
type PostgresEngagementRepository struct {
	pool db.Pool
}

// NewPostgresEngagementRepository constructs an engagement repository backed
// by PostgreSQL.
func NewPostgresEngagementRepository(pool db.Pool) *PostgresEngagementRepository {
	return &PostgresEngagementRepository{pool: pool}
}

// InsertView appends one view row. Views are never deduplicated; the view
// count is a row count.
func (r *PostgresEngagementRepository) InsertView(ctx context.Context, view models.View) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO views (id, video_id, user_id, created_at)
        VALUES ($1, $2, $3, $4)
    `, view.ID, view.VideoID, view.UserID, view.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation {
			return ErrNotFound
		}
		return fmt.Errorf("insert view: %w", err)
	}

	return nil
}

// ToggleReaction runs one like/dislike trigger as a single transaction:
// read the stored polarity for the (user, video) pair, apply the transition,
// write. Serialization failures are retried by crdbpgxv5; a concurrent
// first-reaction insert that trips the (user_id, video_id) uniqueness
// constraint is retried once against the row it lost to.
func (r *PostgresEngagementRepository) ToggleReaction(ctx context.Context, userID, videoID string, trigger models.Reaction) (models.Reaction, error) {
	if trigger != models.ReactionLike && trigger != models.ReactionDislike {
		return models.ReactionNone, fmt.Errorf("invalid reaction trigger %d", trigger)
	}

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.ReactionNone, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var result models.Reaction
	for attempt := 0; attempt < 2; attempt++ {
		result, err = r.toggleOnce(ctx, conn, userID, videoID, trigger)
		if err == nil || !isUniqueViolation(err) {
			break
		}
	}
	if err != nil {
		if isUniqueViolation(err) {
			return models.ReactionNone, ErrConflict
		}
		return models.ReactionNone, err
	}

	return result, nil
}

func (r *PostgresEngagementRepository) toggleOnce(ctx context.Context, conn crdbpgxv5.Conn, userID, videoID string, trigger models.Reaction) (models.Reaction, error) {
	var next models.Reaction

	err := crdbpgxv5.ExecuteTx(ctx, conn, pgx.TxOptions{}, func(tx pgx.Tx) error {
		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM videos WHERE id = $1)`, videoID).Scan(&exists); err != nil {
			return fmt.Errorf("check video exists: %w", err)
		}
		if !exists {
			return ErrNotFound
		}

		var (
			rowID   string
			current models.Reaction
		)
		err := tx.QueryRow(ctx, `
            SELECT id, value FROM video_likes
            WHERE user_id = $1 AND video_id = $2
            FOR UPDATE
        `, userID, videoID).Scan(&rowID, &current)
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			current = models.ReactionNone
		case err != nil:
			return fmt.Errorf("select reaction: %w", err)
		}

		next = models.NextReaction(current, trigger)

		switch {
		case current == models.ReactionNone:
			_, err = tx.Exec(ctx, `
                INSERT INTO video_likes (id, video_id, user_id, value, created_at)
                VALUES ($1, $2, $3, $4, now())
            `, uuid.NewString(), videoID, userID, int(next))
		case next == models.ReactionNone:
			_, err = tx.Exec(ctx, `DELETE FROM video_likes WHERE id = $1`, rowID)
		default:
			_, err = tx.Exec(ctx, `UPDATE video_likes SET value = $2 WHERE id = $1`, rowID, int(next))
		}
		if err != nil {
			return fmt.Errorf("write reaction: %w", err)
		}

		return nil
	})
	if err != nil {
		return models.ReactionNone, err
	}

	return next, nil
}

// CountReactions reports the live like/dislike tallies for a video.
func (r *PostgresEngagementRepository) CountReactions(ctx context.Context, videoID string) (ReactionCounts, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return ReactionCounts{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var counts ReactionCounts
	err = conn.QueryRow(ctx, `
        SELECT COUNT(*) FILTER (WHERE value = 1),
               COUNT(*) FILTER (WHERE value = -1)
        FROM video_likes
        WHERE video_id = $1
    `, videoID).Scan(&counts.Likes, &counts.Dislikes)
	if err != nil {
		return ReactionCounts{}, fmt.Errorf("count reactions: %w", err)
	}

	return counts, nil
}

// InsertComment stores a new comment row.
func (r *PostgresEngagementRepository) InsertComment(ctx context.Context, comment models.Comment) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO comments (id, video_id, user_id, text, created_at)
        VALUES ($1, $2, $3, $4, $5)
    `, comment.ID, comment.VideoID, comment.UserID, comment.Text, comment.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation {
			return ErrNotFound
		}
		return fmt.Errorf("insert comment: %w", err)
	}

	return nil
}

// FindComment loads a comment by its identifier.
func (r *PostgresEngagementRepository) FindComment(ctx context.Context, id string) (models.Comment, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Comment{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        SELECT id, video_id, user_id, text, created_at
        FROM comments
        WHERE id = $1
    `, id)

	var comment models.Comment
	if err := row.Scan(&comment.ID, &comment.VideoID, &comment.UserID, &comment.Text, &comment.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Comment{}, ErrNotFound
		}
		return models.Comment{}, fmt.Errorf("select comment: %w", err)
	}

	return comment, nil
}

// DeleteComment removes exactly the identified comment row.
func (r *PostgresEngagementRepository) DeleteComment(ctx context.Context, id string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `DELETE FROM comments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// ListComments returns a video's comments, newest first.
func (r *PostgresEngagementRepository) ListComments(ctx context.Context, videoID string) ([]models.Comment, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT id, video_id, user_id, text, created_at
        FROM comments
        WHERE video_id = $1
        ORDER BY created_at DESC
    `, videoID)
	if err != nil {
		return nil, fmt.Errorf("query comments: %w", err)
	}
	defer rows.Close()

	var comments []models.Comment
	for rows.Next() {
		var comment models.Comment
		if err := rows.Scan(&comment.ID, &comment.VideoID, &comment.UserID, &comment.Text, &comment.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		comments = append(comments, comment)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate comments: %w", err)
	}

	return comments, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

var _ EngagementRepository = (*PostgresEngagementRepository)(nil)
