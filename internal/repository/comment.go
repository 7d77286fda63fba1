package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"socialnet/internal/model"
)

type commentRepository struct {
	db *sqlx.DB
}

func NewCommentRepository(db *sqlx.DB) CommentRepository {
	return &commentRepository{db: db}
}

// Create inserts a new comment. Runs inside the caller's transaction so the
// post's comment counter update is atomic with the insert.
func (r *commentRepository) Create(ctx context.Context, tx *sqlx.Tx, postID, authorID int64, body string) (*model.Comment, error) {
	query := `
		INSERT INTO comments (post_id, author_id, body)
		VALUES ($1, $2, $3)
		RETURNING id, post_id, author_id, body, created_at
	`
	var comment model.Comment
	err := tx.GetContext(ctx, &comment, query, postID, authorID, body)
	if err != nil {
		return nil, fmt.Errorf("insert comment: %w", err)
	}
	return &comment, nil
}

func (r *commentRepository) GetByID(ctx context.Context, commentID int64) (*model.Comment, error) {
	query := `
		SELECT id, post_id, author_id, body, created_at
		FROM comments
		WHERE id = $1
	`
	var comment model.Comment
	err := r.db.GetContext(ctx, &comment, query, commentID)
	if err == sql.ErrNoRows {
		return nil, model.ErrCommentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get comment: %w", err)
	}
	return &comment, nil
}

// Update rewrites the comment body. Authorization happens in the service
// before this is called; created_at is immutable.
func (r *commentRepository) Update(ctx context.Context, commentID int64, body string) (*model.Comment, error) {
	query := `
		UPDATE comments
		SET body = $1
		WHERE id = $2
		RETURNING id, post_id, author_id, body, created_at
	`
	var comment model.Comment
	err := r.db.GetContext(ctx, &comment, query, body, commentID)
	if err == sql.ErrNoRows {
		return nil, model.ErrCommentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update comment: %w", err)
	}
	return &comment, nil
}

// Delete removes a comment. Runs inside the caller's transaction together
// with the post counter decrement.
func (r *commentRepository) Delete(ctx context.Context, tx *sqlx.Tx, commentID int64) error {
	result, err := tx.ExecContext(ctx, `DELETE FROM comments WHERE id = $1`, commentID)
	if err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return model.ErrCommentNotFound
	}
	return nil
}

// GetByPostID returns a post's comments with keyset pagination, oldest page
// boundary encoded in the cursor.
func (r *commentRepository) GetByPostID(ctx context.Context, postID int64, cursor *string, limit int) ([]model.Comment, *string, error) {
	query := `
		SELECT id, post_id, author_id, body, created_at
		FROM comments
		WHERE post_id = $1
	`
	args := []interface{}{postID}

	if cursor != nil {
		ts, id, err := parseCursor(*cursor)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid cursor: %w", err)
		}
		args = append(args, ts, id)
		query += fmt.Sprintf(" AND (created_at, id) < ($%d, $%d)", len(args)-1, len(args))
	}

	args = append(args, limit+1)
	query += fmt.Sprintf(" ORDER BY created_at DESC, id DESC LIMIT $%d", len(args))

	return r.selectComments(ctx, query, args, limit)
}

// List returns comments filtered by author username and creation date parts.
func (r *commentRepository) List(ctx context.Context, filter model.CommentFilter, cursor *string, limit int) ([]model.Comment, *string, error) {
	query := `
		SELECT c.id, c.post_id, c.author_id, c.body, c.created_at
		FROM comments c
		JOIN users u ON u.id = c.author_id
		WHERE 1=1
	`
	var args []interface{}

	if filter.AuthorUsername != "" {
		args = append(args, "%"+filter.AuthorUsername+"%")
		query += fmt.Sprintf(" AND u.username ILIKE $%d", len(args))
	}
	if filter.Year != 0 {
		args = append(args, filter.Year)
		query += fmt.Sprintf(" AND EXTRACT(YEAR FROM c.created_at) = $%d", len(args))
	}
	if filter.Month != 0 {
		args = append(args, filter.Month)
		query += fmt.Sprintf(" AND EXTRACT(MONTH FROM c.created_at) = $%d", len(args))
	}
	if filter.Day != 0 {
		args = append(args, filter.Day)
		query += fmt.Sprintf(" AND EXTRACT(DAY FROM c.created_at) = $%d", len(args))
	}
	if cursor != nil {
		ts, id, err := parseCursor(*cursor)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid cursor: %w", err)
		}
		args = append(args, ts, id)
		query += fmt.Sprintf(" AND (c.created_at, c.id) < ($%d, $%d)", len(args)-1, len(args))
	}

	args = append(args, limit+1)
	query += fmt.Sprintf(" ORDER BY c.created_at DESC, c.id DESC LIMIT $%d", len(args))

	return r.selectComments(ctx, query, args, limit)
}

func (r *commentRepository) selectComments(ctx context.Context, query string, args []interface{}, limit int) ([]model.Comment, *string, error) {
	var comments []model.Comment
	if err := r.db.SelectContext(ctx, &comments, query, args...); err != nil {
		return nil, nil, fmt.Errorf("list comments: %w", err)
	}

	var nextCursor *string
	if len(comments) > limit {
		comments = comments[:limit]
		last := comments[len(comments)-1]
		c := formatCursor(last.CreatedAt, last.ID)
		nextCursor = &c
	}

	return comments, nextCursor, nil
}
