package queue

import (
	"fmt"
	"strconv"
	"time"
)

// Event types for the social stream
const (
	EventPostCreated    = "post_created"
	EventPostDeleted    = "post_deleted"
	EventPostLiked      = "post_liked"
	EventPostCommented  = "post_commented"
	EventUserFollowed   = "user_followed"
	EventUserUnfollowed = "user_unfollowed"
)

// Stream names
const (
	StreamSocial = "stream:social"
)

// Consumer group name for background workers
const (
	ConsumerGroupSocial = "social_workers"
)

// SocialEvent represents an event published to the social stream. All event
// kinds share this structure; unused fields stay zero.
type SocialEvent struct {
	Type      string `json:"type"`
	Timestamp int64  `json:"timestamp"` // Unix seconds when the event occurred

	// Post events
	PostID   int64 `json:"post_id,omitempty"`
	AuthorID int64 `json:"author_id,omitempty"`

	// Like / comment events
	ActorID   int64 `json:"actor_id,omitempty"` // who liked/commented
	CommentID int64 `json:"comment_id,omitempty"`

	// Follow events
	FollowerID int64 `json:"follower_id,omitempty"`
	FollowedID int64 `json:"followed_id,omitempty"`
}

// NewPostCreatedEvent announces a new post. Workers fan it out to the
// author's followers' timelines.
func NewPostCreatedEvent(postID, authorID int64) SocialEvent {
	return SocialEvent{
		Type:      EventPostCreated,
		Timestamp: time.Now().Unix(),
		PostID:    postID,
		AuthorID:  authorID,
	}
}

// NewPostDeletedEvent announces a deleted post. Workers remove it from
// follower timelines.
func NewPostDeletedEvent(postID, authorID int64) SocialEvent {
	return SocialEvent{
		Type:      EventPostDeleted,
		Timestamp: time.Now().Unix(),
		PostID:    postID,
		AuthorID:  authorID,
	}
}

// NewPostLikedEvent announces a like for notification delivery to the author.
func NewPostLikedEvent(postID, actorID, authorID int64) SocialEvent {
	return SocialEvent{
		Type:      EventPostLiked,
		Timestamp: time.Now().Unix(),
		PostID:    postID,
		ActorID:   actorID,
		AuthorID:  authorID,
	}
}

// NewPostCommentedEvent announces a comment for notification delivery.
func NewPostCommentedEvent(postID, commentID, actorID, authorID int64) SocialEvent {
	return SocialEvent{
		Type:      EventPostCommented,
		Timestamp: time.Now().Unix(),
		PostID:    postID,
		CommentID: commentID,
		ActorID:   actorID,
		AuthorID:  authorID,
	}
}

// NewUserFollowedEvent announces a follow. Workers backfill the follower's
// timeline with the followee's recent posts and notify the followee.
func NewUserFollowedEvent(followerID, followedID int64) SocialEvent {
	return SocialEvent{
		Type:       EventUserFollowed,
		Timestamp:  time.Now().Unix(),
		FollowerID: followerID,
		FollowedID: followedID,
	}
}

// NewUserUnfollowedEvent announces an unfollow. Workers drop the former
// followee's posts from the follower's timeline.
func NewUserUnfollowedEvent(followerID, followedID int64) SocialEvent {
	return SocialEvent{
		Type:       EventUserUnfollowed,
		Timestamp:  time.Now().Unix(),
		FollowerID: followerID,
		FollowedID: followedID,
	}
}

// ToMap flattens the event for XADD field-value pairs.
func (e SocialEvent) ToMap() (map[string]interface{}, error) {
	if e.Type == "" {
		return nil, fmt.Errorf("event type is required")
	}
	m := map[string]interface{}{
		"type":      e.Type,
		"timestamp": e.Timestamp,
	}
	if e.PostID != 0 {
		m["post_id"] = e.PostID
	}
	if e.AuthorID != 0 {
		m["author_id"] = e.AuthorID
	}
	if e.ActorID != 0 {
		m["actor_id"] = e.ActorID
	}
	if e.CommentID != 0 {
		m["comment_id"] = e.CommentID
	}
	if e.FollowerID != 0 {
		m["follower_id"] = e.FollowerID
	}
	if e.FollowedID != 0 {
		m["followed_id"] = e.FollowedID
	}
	return m, nil
}

// ParseSocialEvent rebuilds an event from XREADGROUP values.
func ParseSocialEvent(values map[string]interface{}) (SocialEvent, error) {
	var e SocialEvent

	typ, ok := values["type"].(string)
	if !ok || typ == "" {
		return e, fmt.Errorf("missing event type")
	}
	e.Type = typ

	var err error
	if e.Timestamp, err = parseInt64Field(values, "timestamp"); err != nil {
		return e, err
	}
	// Remaining fields are optional per event kind
	e.PostID, _ = parseInt64Field(values, "post_id")
	e.AuthorID, _ = parseInt64Field(values, "author_id")
	e.ActorID, _ = parseInt64Field(values, "actor_id")
	e.CommentID, _ = parseInt64Field(values, "comment_id")
	e.FollowerID, _ = parseInt64Field(values, "follower_id")
	e.FollowedID, _ = parseInt64Field(values, "followed_id")

	return e, nil
}

func parseInt64Field(values map[string]interface{}, key string) (int64, error) {
	v, ok := values[key]
	if !ok {
		return 0, fmt.Errorf("missing field %q", key)
	}
	switch t := v.(type) {
	case string:
		return strconv.ParseInt(t, 10, 64)
	case int64:
		return t, nil
	case float64:
		return int64(t), nil
	}
	return 0, fmt.Errorf("unexpected type for field %q", key)
}
