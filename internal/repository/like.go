package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"socialnet/internal/model"
)

type likeRepository struct {
	db *sqlx.DB
}

func NewLikeRepository(db *sqlx.DB) LikeRepository {
	return &likeRepository{db: db}
}

// Create inserts a like with an atomic conditional insert. The unique
// constraint on (user_id, post_id) is the authoritative duplicate guard;
// two concurrent likes for the same pair cannot both report inserted.
func (r *likeRepository) Create(ctx context.Context, tx *sqlx.Tx, userID, postID int64) (bool, error) {
	query := `
		INSERT INTO likes (user_id, post_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id, post_id) DO NOTHING
	`
	result, err := tx.ExecContext(ctx, query, userID, postID)
	if err != nil {
		return false, fmt.Errorf("insert like: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("get rows affected: %w", err)
	}
	return rows > 0, nil
}

// Delete removes the like for the pair. Unlike requires the like to exist,
// so zero affected rows is ErrNotLiked.
func (r *likeRepository) Delete(ctx context.Context, tx *sqlx.Tx, userID, postID int64) error {
	query := `DELETE FROM likes WHERE user_id = $1 AND post_id = $2`
	result, err := tx.ExecContext(ctx, query, userID, postID)
	if err != nil {
		return fmt.Errorf("delete like: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return model.ErrNotLiked
	}
	return nil
}

func (r *likeRepository) GetByID(ctx context.Context, id int64) (*model.Like, error) {
	query := `
		SELECT id, user_id, post_id, created_at
		FROM likes
		WHERE id = $1
	`
	var like model.Like
	err := r.db.GetContext(ctx, &like, query, id)
	if err == sql.ErrNoRows {
		return nil, model.ErrLikeNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get like: %w", err)
	}
	return &like, nil
}

func (r *likeRepository) DeleteByID(ctx context.Context, tx *sqlx.Tx, id int64) error {
	result, err := tx.ExecContext(ctx, `DELETE FROM likes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete like: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return model.ErrLikeNotFound
	}
	return nil
}

// List returns like records filtered by the liking user's username with
// keyset pagination on (created_at, id).
func (r *likeRepository) List(ctx context.Context, filter model.LikeFilter, cursor *string, limit int) ([]model.Like, *string, error) {
	query := `
		SELECT l.id, l.user_id, l.post_id, l.created_at
		FROM likes l
		JOIN users u ON u.id = l.user_id
		WHERE 1=1
	`
	var args []interface{}

	if filter.Username != "" {
		args = append(args, "%"+filter.Username+"%")
		query += fmt.Sprintf(" AND u.username ILIKE $%d", len(args))
	}
	if cursor != nil {
		ts, id, err := parseCursor(*cursor)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid cursor: %w", err)
		}
		args = append(args, ts, id)
		query += fmt.Sprintf(" AND (l.created_at, l.id) < ($%d, $%d)", len(args)-1, len(args))
	}

	args = append(args, limit+1)
	query += fmt.Sprintf(" ORDER BY l.created_at DESC, l.id DESC LIMIT $%d", len(args))

	var likes []model.Like
	if err := r.db.SelectContext(ctx, &likes, query, args...); err != nil {
		return nil, nil, fmt.Errorf("list likes: %w", err)
	}

	var nextCursor *string
	if len(likes) > limit {
		likes = likes[:limit]
		last := likes[len(likes)-1]
		c := formatCursor(last.CreatedAt, last.ID)
		nextCursor = &c
	}

	return likes, nextCursor, nil
}

// GetPostLikers returns paginated users who liked a post.
func (r *likeRepository) GetPostLikers(ctx context.Context, postID int64, cursor *string, limit int) ([]model.UserSummary, *string, error) {
	query := `
		SELECT u.id, u.username, u.profile_image_url, u.online, l.id AS like_id, l.created_at
		FROM likes l
		JOIN users u ON u.id = l.user_id
		WHERE l.post_id = $1
	`
	args := []interface{}{postID}

	if cursor != nil {
		ts, id, err := parseCursor(*cursor)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid cursor: %w", err)
		}
		args = append(args, ts, id)
		query += fmt.Sprintf(" AND (l.created_at, l.id) < ($%d, $%d)", len(args)-1, len(args))
	}

	args = append(args, limit+1)
	query += fmt.Sprintf(" ORDER BY l.created_at DESC, l.id DESC LIMIT $%d", len(args))

	type likerRow struct {
		model.UserSummary
		LikeID    int64        `db:"like_id"`
		CreatedAt sql.NullTime `db:"created_at"`
	}
	var rows []likerRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, nil, fmt.Errorf("get post likers: %w", err)
	}

	var nextCursor *string
	if len(rows) > limit {
		rows = rows[:limit]
		last := rows[len(rows)-1]
		c := formatCursor(last.CreatedAt.Time, last.LikeID)
		nextCursor = &c
	}

	users := make([]model.UserSummary, 0, len(rows))
	for _, row := range rows {
		users = append(users, row.UserSummary)
	}

	return users, nextCursor, nil
}

// CheckLikes batch-checks which posts the user has liked. Single query with
// ANY($2), no N+1.
func (r *likeRepository) CheckLikes(ctx context.Context, userID int64, postIDs []int64) (map[int64]bool, error) {
	if len(postIDs) == 0 {
		return make(map[int64]bool), nil
	}

	query := `SELECT post_id FROM likes WHERE user_id = $1 AND post_id = ANY($2)`
	var likedIDs []int64
	err := r.db.SelectContext(ctx, &likedIDs, query, userID, pq.Array(postIDs))
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("check likes: %w", err)
	}

	result := make(map[int64]bool)
	for _, id := range postIDs {
		result[id] = false
	}
	for _, id := range likedIDs {
		result[id] = true
	}

	return result, nil
}
