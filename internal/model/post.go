package model

import (
	"errors"
	"time"
)

// Post represents a user's post. PublishedAt is set once at creation and
// never updated afterwards.
type Post struct {
	ID           int64     `db:"id" json:"id"`
	AuthorID     int64     `db:"author_id" json:"author_id"`
	Title        string    `db:"title" json:"title"`
	Content      string    `db:"content" json:"content"`
	MediaURL     *string   `db:"media_url" json:"media_url"`
	LikeCount    int       `db:"like_count" json:"like_count"`
	CommentCount int       `db:"comment_count" json:"comment_count"`
	PublishedAt  time.Time `db:"published_at" json:"published_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`

	// Joined fields (not in posts table)
	Author  *UserSummary `json:"author,omitempty"`
	IsLiked bool         `json:"is_liked"`
}

// Owner returns the user the ownership checks for this post run against.
func (p *Post) Owner() int64 { return p.AuthorID }

// CreatePostRequest is the request body for creating a post.
type CreatePostRequest struct {
	Title    string  `json:"title"`
	Content  string  `json:"content"`
	MediaURL *string `json:"media_url"`
}

// UpdatePostRequest carries the mutable post fields. Nil means "leave as is".
// The published timestamp is immutable and has no counterpart here.
type UpdatePostRequest struct {
	Title    *string `json:"title"`
	Content  *string `json:"content"`
	MediaURL *string `json:"media_url"`
}

// PostFilter narrows post listings. Zero values are ignored.
type PostFilter struct {
	AuthorUsername string // substring match on the author's username
	Title          string // substring match on the title
	Year           int    // publication date parts
	Month          int
	Day            int
}

// PostListResponse is the paginated post list response.
type PostListResponse struct {
	Posts      []Post  `json:"posts"`
	NextCursor *string `json:"next_cursor,omitempty"`
	HasMore    bool    `json:"has_more"`
}

// LikersListResponse is the paginated likers list response.
type LikersListResponse struct {
	Users      []UserSummary `json:"users"`
	NextCursor *string       `json:"next_cursor,omitempty"`
	HasMore    bool          `json:"has_more"`
}

// Post constraints
const (
	MaxPostTitleLength   = 255
	MaxPostContentLength = 10000
)

// Post errors
var (
	ErrPostNotFound       = errors.New("post not found")
	ErrTitleRequired      = errors.New("post title is required")
	ErrPostContentMissing = errors.New("post content is required")
	ErrTitleTooLong       = errors.New("post title too long")
	ErrPostContentTooLong = errors.New("post content too long")
)
