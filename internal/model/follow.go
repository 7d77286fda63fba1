package model

import (
	"errors"
	"time"
)

// Follow represents a live directional follow relationship. At most one row
// may exist per (follower, followed) pair and a user cannot follow themselves.
type Follow struct {
	ID         int64     `db:"id" json:"id"`
	FollowerID int64     `db:"follower_id" json:"follower_id"`
	FollowedID int64     `db:"followed_id" json:"followed_id"`
	FollowedAt time.Time `db:"followed_at" json:"followed_at"`

	// Joined fields
	Follower *UserSummary `json:"follower,omitempty"`
	Followed *UserSummary `json:"followed,omitempty"`
}

// Owner returns the follower. Follow rows are audit entries: ordinary users
// never mutate them directly, see the authz package.
func (f *Follow) Owner() int64 { return f.FollowerID }

// ImmutableRecord marks Follow rows as admin-only for mutation.
func (f *Follow) ImmutableRecord() {}

// Unfollow is an append-only history record of an unfollow action, kept
// separately from the live follows table as an audit trail.
type Unfollow struct {
	ID           int64     `db:"id" json:"id"`
	UnfollowerID int64     `db:"unfollower_id" json:"unfollower_id"`
	UnfollowedID int64     `db:"unfollowed_id" json:"unfollowed_id"`
	UnfollowedAt time.Time `db:"unfollowed_at" json:"unfollowed_at"`

	// Joined fields
	Unfollower *UserSummary `json:"unfollower,omitempty"`
	Unfollowed *UserSummary `json:"unfollowed,omitempty"`
}

// Owner returns the unfollower.
func (u *Unfollow) Owner() int64 { return u.UnfollowerID }

// ImmutableRecord marks Unfollow history rows as admin-only for mutation.
func (u *Unfollow) ImmutableRecord() {}

// FollowFilter narrows follow listings by participant usernames.
type FollowFilter struct {
	Follower string // substring match on the follower's username
	Followed string // substring match on the followed user's username
}

// UnfollowFilter narrows unfollow history listings by participant usernames.
type UnfollowFilter struct {
	Unfollower string
	Unfollowed string
}

// FollowListResponse is the paginated follower/following user list response.
type FollowListResponse struct {
	Users      []UserSummary `json:"users"`
	NextCursor *string       `json:"next_cursor,omitempty"`
	HasMore    bool          `json:"has_more"`
}

// FollowRecordListResponse is the paginated raw follow record list response.
type FollowRecordListResponse struct {
	Follows    []Follow `json:"follows"`
	NextCursor *string  `json:"next_cursor,omitempty"`
	HasMore    bool     `json:"has_more"`
}

// UnfollowRecordListResponse is the paginated unfollow history list response.
type UnfollowRecordListResponse struct {
	Unfollows  []Unfollow `json:"unfollows"`
	NextCursor *string    `json:"next_cursor,omitempty"`
	HasMore    bool       `json:"has_more"`
}

var (
	ErrCannotFollowSelf   = errors.New("you can't follow yourself")
	ErrCannotUnfollowSelf = errors.New("you can't unfollow yourself")
	ErrAlreadyFollowing   = errors.New("you have already followed this user")
	ErrAlreadyUnfollowed  = errors.New("you have already unfollowed this user")
	ErrFollowNotFound     = errors.New("follow not found")
	ErrUnfollowNotFound   = errors.New("unfollow record not found")
)
