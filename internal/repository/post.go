package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"socialnet/internal/cache"
	"socialnet/internal/model"
)

type postRepository struct {
	db *sqlx.DB
}

func NewPostRepository(db *sqlx.DB) PostRepository {
	return &postRepository{db: db}
}

// Create inserts a new post. published_at is assigned by the store and never
// written again.
func (r *postRepository) Create(ctx context.Context, p *model.Post) error {
	query := `
		INSERT INTO posts (author_id, title, content, media_url)
		VALUES ($1, $2, $3, $4)
		RETURNING id, like_count, comment_count, published_at, updated_at
	`
	err := r.db.QueryRowxContext(ctx, query, p.AuthorID, p.Title, p.Content, p.MediaURL).Scan(
		&p.ID,
		&p.LikeCount,
		&p.CommentCount,
		&p.PublishedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert post: %w", err)
	}
	return nil
}

func (r *postRepository) GetByID(ctx context.Context, postID int64) (*model.Post, error) {
	query := `
		SELECT id, author_id, title, content, media_url, like_count, comment_count, published_at, updated_at
		FROM posts
		WHERE id = $1
	`
	var post model.Post
	err := r.db.GetContext(ctx, &post, query, postID)
	if err == sql.ErrNoRows {
		return nil, model.ErrPostNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get post: %w", err)
	}
	return &post, nil
}

// GetByIDs retrieves multiple posts preserving the input order. Used for
// hydrating timelines from the cache.
func (r *postRepository) GetByIDs(ctx context.Context, postIDs []int64) ([]model.Post, error) {
	if len(postIDs) == 0 {
		return []model.Post{}, nil
	}

	query := `
		SELECT id, author_id, title, content, media_url, like_count, comment_count, published_at, updated_at
		FROM posts
		WHERE id = ANY($1)
	`
	var posts []model.Post
	err := r.db.SelectContext(ctx, &posts, query, pq.Array(postIDs))
	if err != nil {
		return nil, fmt.Errorf("get posts by ids: %w", err)
	}

	postsMap := make(map[int64]model.Post, len(posts))
	for _, p := range posts {
		postsMap[p.ID] = p
	}
	ordered := make([]model.Post, 0, len(postIDs))
	for _, id := range postIDs {
		if p, ok := postsMap[id]; ok {
			ordered = append(ordered, p)
		}
	}

	return ordered, nil
}

// Update writes the mutable fields. published_at stays untouched.
func (r *postRepository) Update(ctx context.Context, p *model.Post) error {
	query := `
		UPDATE posts
		SET title = $1, content = $2, media_url = $3, updated_at = NOW()
		WHERE id = $4
		RETURNING updated_at
	`
	err := r.db.QueryRowxContext(ctx, query, p.Title, p.Content, p.MediaURL, p.ID).Scan(&p.UpdatedAt)
	if err == sql.ErrNoRows {
		return model.ErrPostNotFound
	}
	if err != nil {
		return fmt.Errorf("update post: %w", err)
	}
	return nil
}

// Delete removes the post row; comments and likes go with it via
// ON DELETE CASCADE. The author's counters are not touched here, ownership
// and authorization are the service's concern.
func (r *postRepository) Delete(ctx context.Context, postID int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM posts WHERE id = $1`, postID)
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return model.ErrPostNotFound
	}
	return nil
}

// List returns posts filtered by author username, title substring and
// publication date parts, with keyset pagination on (published_at, id).
func (r *postRepository) List(ctx context.Context, filter model.PostFilter, cursor *string, limit int) ([]model.Post, *string, error) {
	query := `
		SELECT p.id, p.author_id, p.title, p.content, p.media_url, p.like_count, p.comment_count, p.published_at, p.updated_at
		FROM posts p
		JOIN users u ON u.id = p.author_id
		WHERE 1=1
	`
	var args []interface{}

	if filter.AuthorUsername != "" {
		args = append(args, "%"+filter.AuthorUsername+"%")
		query += fmt.Sprintf(" AND u.username ILIKE $%d", len(args))
	}
	if filter.Title != "" {
		args = append(args, "%"+filter.Title+"%")
		query += fmt.Sprintf(" AND p.title ILIKE $%d", len(args))
	}
	if filter.Year != 0 {
		args = append(args, filter.Year)
		query += fmt.Sprintf(" AND EXTRACT(YEAR FROM p.published_at) = $%d", len(args))
	}
	if filter.Month != 0 {
		args = append(args, filter.Month)
		query += fmt.Sprintf(" AND EXTRACT(MONTH FROM p.published_at) = $%d", len(args))
	}
	if filter.Day != 0 {
		args = append(args, filter.Day)
		query += fmt.Sprintf(" AND EXTRACT(DAY FROM p.published_at) = $%d", len(args))
	}
	if cursor != nil {
		ts, id, err := parseCursor(*cursor)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid cursor: %w", err)
		}
		args = append(args, ts, id)
		query += fmt.Sprintf(" AND (p.published_at, p.id) < ($%d, $%d)", len(args)-1, len(args))
	}

	args = append(args, limit+1)
	query += fmt.Sprintf(" ORDER BY p.published_at DESC, p.id DESC LIMIT $%d", len(args))

	var posts []model.Post
	if err := r.db.SelectContext(ctx, &posts, query, args...); err != nil {
		return nil, nil, fmt.Errorf("list posts: %w", err)
	}

	var nextCursor *string
	if len(posts) > limit {
		posts = posts[:limit]
		last := posts[len(posts)-1]
		c := formatCursor(last.PublishedAt, last.ID)
		nextCursor = &c
	}

	return posts, nextCursor, nil
}

// GetRecentByAuthor returns an author's newest posts as (id, timestamp)
// pairs for timeline backfill after a follow.
func (r *postRepository) GetRecentByAuthor(ctx context.Context, authorID int64, limit int) ([]cache.PostScore, error) {
	query := `
		SELECT id, EXTRACT(EPOCH FROM published_at)::bigint as timestamp
		FROM posts
		WHERE author_id = $1
		ORDER BY published_at DESC
		LIMIT $2
	`
	return r.selectPostScores(ctx, query, authorID, limit)
}

// GetTimelinePostIDs returns the newest posts across all followed authors
// for cold timeline warming.
func (r *postRepository) GetTimelinePostIDs(ctx context.Context, authorIDs []int64, limit int) ([]cache.PostScore, error) {
	if len(authorIDs) == 0 {
		return []cache.PostScore{}, nil
	}

	query := `
		SELECT id, EXTRACT(EPOCH FROM published_at)::bigint as timestamp
		FROM posts
		WHERE author_id = ANY($1)
		ORDER BY published_at DESC
		LIMIT $2
	`
	return r.selectPostScores(ctx, query, pq.Array(authorIDs), limit)
}

func (r *postRepository) selectPostScores(ctx context.Context, query string, args ...interface{}) ([]cache.PostScore, error) {
	type row struct {
		ID        int64 `db:"id"`
		Timestamp int64 `db:"timestamp"`
	}
	var rows []row
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("get post scores: %w", err)
	}

	posts := make([]cache.PostScore, len(rows))
	for i, r := range rows {
		posts[i] = cache.PostScore{PostID: r.ID, Timestamp: r.Timestamp}
	}
	return posts, nil
}

// GetAuthorID returns the author of a post (for event publishing).
func (r *postRepository) GetAuthorID(ctx context.Context, postID int64) (int64, error) {
	var authorID int64
	err := r.db.GetContext(ctx, &authorID, `SELECT author_id FROM posts WHERE id = $1`, postID)
	if err == sql.ErrNoRows {
		return 0, model.ErrPostNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("get author id: %w", err)
	}
	return authorID, nil
}

func (r *postRepository) Exists(ctx context.Context, postID int64) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM posts WHERE id = $1)`, postID)
	if err != nil {
		return false, fmt.Errorf("check post exists: %w", err)
	}
	return exists, nil
}

// IncrementLikeCount atomically updates the like_count on a post.
func (r *postRepository) IncrementLikeCount(ctx context.Context, tx *sqlx.Tx, postID int64, delta int) error {
	query := `UPDATE posts SET like_count = like_count + $1 WHERE id = $2`
	result, err := tx.ExecContext(ctx, query, delta, postID)
	if err != nil {
		return fmt.Errorf("update like count: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return model.ErrPostNotFound
	}
	return nil
}

// IncrementCommentCount atomically updates the comment_count on a post.
func (r *postRepository) IncrementCommentCount(ctx context.Context, tx *sqlx.Tx, postID int64, delta int) error {
	query := `UPDATE posts SET comment_count = comment_count + $1 WHERE id = $2`
	result, err := tx.ExecContext(ctx, query, delta, postID)
	if err != nil {
		return fmt.Errorf("update comment count: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return model.ErrPostNotFound
	}
	return nil
}
