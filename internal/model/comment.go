package model

import (
	"errors"
	"time"
)

// Comment represents a comment on a post. CreatedAt is immutable.
type Comment struct {
	ID        int64     `db:"id" json:"id"`
	PostID    int64     `db:"post_id" json:"post_id"`
	AuthorID  int64     `db:"author_id" json:"author_id"`
	Body      string    `db:"body" json:"body"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`

	Author *UserSummary `json:"author,omitempty"` // Joined field
}

// Owner returns the comment author for ownership checks.
func (c *Comment) Owner() int64 { return c.AuthorID }

// CreateCommentRequest is the request body for creating a comment.
type CreateCommentRequest struct {
	Body string `json:"body"`
}

// UpdateCommentRequest is the request body for updating a comment.
type UpdateCommentRequest struct {
	Body string `json:"body"`
}

// CommentFilter narrows comment listings. Zero values are ignored.
type CommentFilter struct {
	AuthorUsername string // substring match on the comment author's username
	Year           int    // creation date parts
	Month          int
	Day            int
}

// CommentListResponse is the paginated comment list response.
type CommentListResponse struct {
	Comments   []Comment `json:"comments"`
	NextCursor *string   `json:"next_cursor,omitempty"`
	HasMore    bool      `json:"has_more"`
}

// Comment constraints
const (
	MaxCommentBodyLength = 5000
)

// Comment errors
var (
	ErrCommentNotFound = errors.New("comment not found")
	ErrBodyRequired    = errors.New("comment body is required")
	ErrBodyTooLong     = errors.New("comment body too long")
)
