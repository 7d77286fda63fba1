package model

import (
	"time"
)

// Notification types
const (
	NotificationTypeFollow  = "follow"
	NotificationTypeLike    = "like"
	NotificationTypeComment = "comment"
)

// Notification represents a single notification record.
type Notification struct {
	ID        int64     `db:"id" json:"id"`
	UserID    int64     `db:"user_id" json:"-"`         // Recipient
	ActorID   int64     `db:"actor_id" json:"actor_id"` // Who triggered it
	Type      string    `db:"type" json:"type"`
	PostID    *int64    `db:"post_id" json:"post_id,omitempty"`
	CommentID *int64    `db:"comment_id" json:"comment_id,omitempty"`
	IsRead    bool      `db:"is_read" json:"is_read"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`

	Actor *UserSummary `json:"actor,omitempty"` // Joined field
}

// AggregatedNotification groups like/comment notifications on the same post
// ("alice and 5 others liked your post"). Actors holds at most the three most
// recent actors; TotalCount is the full group size.
type AggregatedNotification struct {
	Type       string        `json:"type"`
	PostID     *int64        `json:"post_id"`
	Actors     []UserSummary `json:"actors"`
	TotalCount int           `json:"total_count"`
	LatestAt   time.Time     `json:"latest_at"`
	IsRead     bool          `json:"is_read"`
}

// NotificationListResponse is the notification list response. Follow
// notifications stay individual, likes and comments are aggregated per post.
type NotificationListResponse struct {
	Follows     []Notification           `json:"follows"`
	Aggregated  []AggregatedNotification `json:"aggregated"`
	UnreadCount int                      `json:"unread_count"`
}

// MarkReadRequest is the request body for marking notifications as read.
type MarkReadRequest struct {
	NotificationIDs []int64 `json:"notification_ids"`
}
