package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"socialnet/internal/cache"
	"socialnet/internal/model"
)

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id int64) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Update(ctx context.Context, user *model.User) error
	// SetOnline flips the online flag. The only writers are the login and
	// logout flows.
	SetOnline(ctx context.Context, userID int64, online bool) error
	// Delete removes the user; the store cascades deletion of every owned
	// row (posts, comments, likes, follows, unfollows, tokens, notifications).
	Delete(ctx context.Context, userID int64) error
	Search(ctx context.Context, query string, limit int) ([]model.UserSummary, error)
	IncrementFollowerCount(ctx context.Context, tx *sqlx.Tx, userID int64, delta int) error
	IncrementFollowingCount(ctx context.Context, tx *sqlx.Tx, userID int64, delta int) error
}

type RefreshTokenRepository interface {
	Create(ctx context.Context, token *model.RefreshToken) error
	FindByTokenHash(ctx context.Context, tokenHash string) (*model.RefreshToken, error)
	Revoke(ctx context.Context, id string) error
	RevokeAllForUser(ctx context.Context, userID int64) error
	DeleteExpired(ctx context.Context, olderThan time.Duration) (int64, error)
}

type FollowRepository interface {
	// Create inserts a follow row if absent. Returns whether a row was
	// actually inserted; false means the pair already existed.
	Create(ctx context.Context, tx *sqlx.Tx, followerID, followedID int64) (bool, error)
	// Delete removes the follow row for the pair. Returns whether a row was
	// deleted; absence is not an error here, the policy decision belongs to
	// the service.
	Delete(ctx context.Context, tx *sqlx.Tx, followerID, followedID int64) (bool, error)
	DeleteByID(ctx context.Context, id int64) error
	GetByID(ctx context.Context, id int64) (*model.Follow, error)
	Exists(ctx context.Context, followerID, followedID int64) (bool, error)
	List(ctx context.Context, filter model.FollowFilter, cursor *string, limit int) ([]model.Follow, *string, error)
	GetFollowers(ctx context.Context, userID int64, cursor *time.Time, limit int) ([]model.UserSummary, *time.Time, error)
	GetFollowing(ctx context.Context, userID int64, cursor *time.Time, limit int) ([]model.UserSummary, *time.Time, error)
	CheckFollows(ctx context.Context, followerID int64, followedIDs []int64) (map[int64]bool, error)
	GetFollowerIDs(ctx context.Context, userID int64) ([]int64, error)
	GetFollowedIDs(ctx context.Context, userID int64) ([]int64, error)

	// Unfollow history records (append-only audit trail)
	CreateUnfollow(ctx context.Context, tx *sqlx.Tx, unfollowerID, unfollowedID int64) (bool, error)
	GetUnfollowByID(ctx context.Context, id int64) (*model.Unfollow, error)
	DeleteUnfollowByID(ctx context.Context, id int64) error
	ListUnfollows(ctx context.Context, filter model.UnfollowFilter, cursor *string, limit int) ([]model.Unfollow, *string, error)
}

type PostRepository interface {
	Create(ctx context.Context, post *model.Post) error
	GetByID(ctx context.Context, postID int64) (*model.Post, error)
	GetByIDs(ctx context.Context, postIDs []int64) ([]model.Post, error)
	// Update persists title/content/media changes. The published timestamp
	// is never written after creation.
	Update(ctx context.Context, post *model.Post) error
	// Delete removes the post; comments and likes cascade at the store level.
	Delete(ctx context.Context, postID int64) error
	List(ctx context.Context, filter model.PostFilter, cursor *string, limit int) ([]model.Post, *string, error)
	GetRecentByAuthor(ctx context.Context, authorID int64, limit int) ([]cache.PostScore, error)
	GetTimelinePostIDs(ctx context.Context, authorIDs []int64, limit int) ([]cache.PostScore, error)
	GetAuthorID(ctx context.Context, postID int64) (int64, error)
	Exists(ctx context.Context, postID int64) (bool, error)
	IncrementLikeCount(ctx context.Context, tx *sqlx.Tx, postID int64, delta int) error
	IncrementCommentCount(ctx context.Context, tx *sqlx.Tx, postID int64, delta int) error
}

type LikeRepository interface {
	// Create inserts a like if absent. Returns whether a row was inserted;
	// false means the (user, post) pair was already liked.
	Create(ctx context.Context, tx *sqlx.Tx, userID, postID int64) (bool, error)
	// Delete removes the like for the pair. Returns model.ErrNotLiked when
	// no like exists (unlike requires the like to exist).
	Delete(ctx context.Context, tx *sqlx.Tx, userID, postID int64) error
	GetByID(ctx context.Context, id int64) (*model.Like, error)
	DeleteByID(ctx context.Context, tx *sqlx.Tx, id int64) error
	List(ctx context.Context, filter model.LikeFilter, cursor *string, limit int) ([]model.Like, *string, error)
	GetPostLikers(ctx context.Context, postID int64, cursor *string, limit int) ([]model.UserSummary, *string, error)
	CheckLikes(ctx context.Context, userID int64, postIDs []int64) (map[int64]bool, error)
}

type CommentRepository interface {
	Create(ctx context.Context, tx *sqlx.Tx, postID, authorID int64, body string) (*model.Comment, error)
	GetByID(ctx context.Context, commentID int64) (*model.Comment, error)
	Update(ctx context.Context, commentID int64, body string) (*model.Comment, error)
	Delete(ctx context.Context, tx *sqlx.Tx, commentID int64) error
	GetByPostID(ctx context.Context, postID int64, cursor *string, limit int) ([]model.Comment, *string, error)
	List(ctx context.Context, filter model.CommentFilter, cursor *string, limit int) ([]model.Comment, *string, error)
}

type NotificationRepository interface {
	Create(ctx context.Context, userID, actorID int64, notifType string, postID, commentID *int64) error
	// GetFollowNotifications returns individual follow notifications newest
	// first, with the unread count among them.
	GetFollowNotifications(ctx context.Context, userID int64, limit int) ([]model.Notification, int, error)
	// GetAggregatedNotifications returns like/comment notifications grouped
	// by (type, post), with the unread count among them.
	GetAggregatedNotifications(ctx context.Context, userID int64, limit int) ([]model.AggregatedNotification, int, error)
	GetUnreadCount(ctx context.Context, userID int64) (int, error)
	MarkAsRead(ctx context.Context, userID int64, notificationIDs []int64) error
	MarkAllAsRead(ctx context.Context, userID int64) error
}
