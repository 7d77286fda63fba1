package model

import (
	"errors"
	"time"
)

// Like represents a user's like on a post. At most one like may exist per
// (user, post) pair; the store enforces this with a unique constraint.
type Like struct {
	ID        int64     `db:"id" json:"id"`
	UserID    int64     `db:"user_id" json:"user_id"`
	PostID    int64     `db:"post_id" json:"post_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`

	User *UserSummary `json:"user,omitempty"` // Joined field
}

// Owner returns the liking user for ownership checks ("unlike" is owner-only).
func (l *Like) Owner() int64 { return l.UserID }

// LikeFilter narrows like listings. Zero values are ignored.
type LikeFilter struct {
	Username string // substring match on the liking user's username
}

// LikeListResponse is the paginated like list response.
type LikeListResponse struct {
	Likes      []Like  `json:"likes"`
	NextCursor *string `json:"next_cursor,omitempty"`
	HasMore    bool    `json:"has_more"`
}

// Like errors
var (
	ErrAlreadyLiked = errors.New("you have already liked this post")
	ErrNotLiked     = errors.New("you have not liked this post")
	ErrLikeNotFound = errors.New("like not found")
)
