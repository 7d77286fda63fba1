package worker

import (
	"context"
	"fmt"
	"log"
	"time"

	"socialnet/internal/cache"
	"socialnet/internal/model"
	"socialnet/internal/queue"
)

// FollowerProvider abstracts follower lookup so workers don't depend on the
// repository layer directly.
type FollowerProvider interface {
	GetFollowerIDs(ctx context.Context, userID int64) ([]int64, error)
}

// RecentPostsProvider fetches a user's recent posts as (postID, timestamp)
// pairs. Used for timeline backfill on follow and cleanup on unfollow.
type RecentPostsProvider interface {
	GetRecentByAuthor(ctx context.Context, authorID int64, limit int) ([]cache.PostScore, error)
}

// Notifier records notifications for users.
type Notifier interface {
	Notify(ctx context.Context, userID, actorID int64, notifType string, postID, commentID *int64) error
}

// Handler processes social events from the queue: timeline fan-out and
// notification delivery.
type Handler struct {
	timelineCache    cache.TimelineCache
	followerProvider FollowerProvider
	postsProvider    RecentPostsProvider
	notifier         Notifier // nil disables notification events
}

// NewHandler creates a new event handler.
func NewHandler(
	timelineCache cache.TimelineCache,
	followerProvider FollowerProvider,
	postsProvider RecentPostsProvider,
) *Handler {
	return &Handler{
		timelineCache:    timelineCache,
		followerProvider: followerProvider,
		postsProvider:    postsProvider,
	}
}

// SetNotifier sets the notification sink (optional).
func (h *Handler) SetNotifier(n Notifier) {
	h.notifier = n
}

// HandleEvent routes an event to the appropriate handler based on type.
func (h *Handler) HandleEvent(ctx context.Context, event queue.SocialEvent) error {
	startTime := time.Now()
	var err error

	switch event.Type {
	case queue.EventPostCreated:
		err = h.handlePostCreated(ctx, event)
	case queue.EventPostDeleted:
		err = h.handlePostDeleted(ctx, event)
	case queue.EventUserFollowed:
		err = h.handleUserFollowed(ctx, event)
	case queue.EventUserUnfollowed:
		err = h.handleUserUnfollowed(ctx, event)
	case queue.EventPostLiked:
		err = h.handlePostLiked(ctx, event)
	case queue.EventPostCommented:
		err = h.handlePostCommented(ctx, event)
	default:
		log.Printf("[Worker] Unknown event type: %s", event.Type)
		return fmt.Errorf("unknown event type: %s", event.Type)
	}

	if err != nil {
		log.Printf("[Worker] HandleEvent FAILED: type=%s duration=%v err=%v",
			event.Type, time.Since(startTime), err)
		return err
	}

	log.Printf("[Worker] HandleEvent OK: type=%s duration=%v", event.Type, time.Since(startTime))
	return nil
}

// handlePostCreated fans out a new post to all followers' timelines.
func (h *Handler) handlePostCreated(ctx context.Context, event queue.SocialEvent) error {
	followers, err := h.followerProvider.GetFollowerIDs(ctx, event.AuthorID)
	if err != nil {
		return fmt.Errorf("get followers: %w", err)
	}

	var failCount int
	for _, followerID := range followers {
		if err := h.timelineCache.AddPost(ctx, followerID, event.PostID, event.Timestamp); err != nil {
			log.Printf("[Worker] PostCreated: failed to add to user=%d err=%v", followerID, err)
			failCount++
			// Keep going, one bad timeline doesn't fail the fan-out
		}
	}

	// The author sees their own posts too
	if err := h.timelineCache.AddPost(ctx, event.AuthorID, event.PostID, event.Timestamp); err != nil {
		log.Printf("[Worker] PostCreated: failed to add to author's own timeline err=%v", err)
	}

	log.Printf("[Worker] PostCreated DONE: post=%d fanout=%d failed=%d",
		event.PostID, len(followers)+1, failCount)

	return nil
}

// handlePostDeleted removes a post from all followers' timelines.
func (h *Handler) handlePostDeleted(ctx context.Context, event queue.SocialEvent) error {
	followers, err := h.followerProvider.GetFollowerIDs(ctx, event.AuthorID)
	if err != nil {
		return fmt.Errorf("get followers: %w", err)
	}

	var failCount int
	for _, followerID := range followers {
		if err := h.timelineCache.RemovePost(ctx, followerID, event.PostID); err != nil {
			log.Printf("[Worker] PostDeleted: failed to remove from user=%d err=%v", followerID, err)
			failCount++
		}
	}

	if err := h.timelineCache.RemovePost(ctx, event.AuthorID, event.PostID); err != nil {
		log.Printf("[Worker] PostDeleted: failed to remove from author's own timeline err=%v", err)
	}

	log.Printf("[Worker] PostDeleted DONE: post=%d fanout=%d failed=%d",
		event.PostID, len(followers)+1, failCount)

	return nil
}

// handleUserFollowed backfills the follower's timeline with the followed
// user's recent posts and notifies the followed user.
func (h *Handler) handleUserFollowed(ctx context.Context, event queue.SocialEvent) error {
	const backfillLimit = 20
	posts, err := h.postsProvider.GetRecentByAuthor(ctx, event.FollowedID, backfillLimit)
	if err != nil {
		return fmt.Errorf("get recent posts: %w", err)
	}

	var failCount int
	for _, p := range posts {
		if err := h.timelineCache.AddPost(ctx, event.FollowerID, p.PostID, p.Timestamp); err != nil {
			log.Printf("[Worker] UserFollowed: failed to add post=%d err=%v", p.PostID, err)
			failCount++
		}
	}

	log.Printf("[Worker] UserFollowed DONE: follower=%d backfilled=%d failed=%d",
		event.FollowerID, len(posts), failCount)

	if h.notifier != nil {
		if err := h.notifier.Notify(ctx, event.FollowedID, event.FollowerID, model.NotificationTypeFollow, nil, nil); err != nil {
			log.Printf("[Worker] UserFollowed: failed to create notification: %v", err)
		}
	}

	return nil
}

// handleUserUnfollowed drops the former followee's posts from the
// follower's timeline.
func (h *Handler) handleUserUnfollowed(ctx context.Context, event queue.SocialEvent) error {
	// Higher limit than backfill: remove everything that could be cached
	const removeLimit = cache.TimelineCap
	posts, err := h.postsProvider.GetRecentByAuthor(ctx, event.FollowedID, removeLimit)
	if err != nil {
		return fmt.Errorf("get posts to remove: %w", err)
	}

	if len(posts) == 0 {
		return nil
	}

	postIDs := make([]int64, len(posts))
	for i, p := range posts {
		postIDs[i] = p.PostID
	}

	if err := h.timelineCache.RemovePosts(ctx, event.FollowerID, postIDs); err != nil {
		return fmt.Errorf("remove posts from timeline: %w", err)
	}

	log.Printf("[Worker] UserUnfollowed DONE: follower=%d removed=%d", event.FollowerID, len(posts))
	return nil
}

// handlePostLiked notifies the post author about a like.
func (h *Handler) handlePostLiked(ctx context.Context, event queue.SocialEvent) error {
	if h.notifier == nil {
		return nil
	}

	postID := event.PostID
	if err := h.notifier.Notify(ctx, event.AuthorID, event.ActorID, model.NotificationTypeLike, &postID, nil); err != nil {
		return fmt.Errorf("create like notification: %w", err)
	}
	return nil
}

// handlePostCommented notifies the post author about a comment.
func (h *Handler) handlePostCommented(ctx context.Context, event queue.SocialEvent) error {
	if h.notifier == nil {
		return nil
	}

	postID := event.PostID
	commentID := event.CommentID
	if err := h.notifier.Notify(ctx, event.AuthorID, event.ActorID, model.NotificationTypeComment, &postID, &commentID); err != nil {
		return fmt.Errorf("create comment notification: %w", err)
	}
	return nil
}
