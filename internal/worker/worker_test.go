package worker_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"socialnet/internal/cache"
	"socialnet/internal/queue"
	"socialnet/internal/worker"
)

// =============================================================================
// Mock Implementations
// =============================================================================

// MockFollowerProvider simulates the follow repository.
type MockFollowerProvider struct {
	// followers maps userID -> list of follower IDs
	followers map[int64][]int64
}

func NewMockFollowerProvider() *MockFollowerProvider {
	return &MockFollowerProvider{
		followers: make(map[int64][]int64),
	}
}

func (m *MockFollowerProvider) AddFollower(userID, followerID int64) {
	m.followers[userID] = append(m.followers[userID], followerID)
}

func (m *MockFollowerProvider) GetFollowerIDs(ctx context.Context, userID int64) ([]int64, error) {
	return m.followers[userID], nil
}

// MockPostsProvider simulates the post repository.
type MockPostsProvider struct {
	// posts maps authorID -> list of (postID, timestamp)
	posts map[int64][]cache.PostScore
}

func NewMockPostsProvider() *MockPostsProvider {
	return &MockPostsProvider{
		posts: make(map[int64][]cache.PostScore),
	}
}

func (m *MockPostsProvider) AddPost(authorID, postID int64, timestamp int64) {
	m.posts[authorID] = append(m.posts[authorID], cache.PostScore{
		PostID:    postID,
		Timestamp: timestamp,
	})
}

func (m *MockPostsProvider) GetRecentByAuthor(ctx context.Context, authorID int64, limit int) ([]cache.PostScore, error) {
	posts := m.posts[authorID]
	if len(posts) > limit {
		return posts[:limit], nil
	}
	return posts, nil
}

// MockNotifier records notification deliveries.
type MockNotifier struct {
	calls []notifyCall
}

type notifyCall struct {
	UserID    int64
	ActorID   int64
	Type      string
	PostID    *int64
	CommentID *int64
}

func (m *MockNotifier) Notify(ctx context.Context, userID, actorID int64, notifType string, postID, commentID *int64) error {
	m.calls = append(m.calls, notifyCall{userID, actorID, notifType, postID, commentID})
	return nil
}

// =============================================================================
// Test Helpers
// =============================================================================

func setupTestRedis(t *testing.T) *redis.Client {
	redisURL := os.Getenv("TEST_REDIS_URL")
	if redisURL == "" {
		redisURL = "redis://localhost:6379"
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		t.Fatalf("Failed to parse Redis URL: %v", err)
	}

	// Use DB 1 for testing to avoid conflicts with dev data
	opts.DB = 1

	client := redis.NewClient(opts)

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("Redis not available, skipping test: %v", err)
	}

	client.FlushDB(ctx)

	return client
}

func cleanupTestRedis(client *redis.Client) {
	ctx := context.Background()
	client.FlushDB(ctx)
	client.Close()
}

func timelineContains(t *testing.T, tc cache.TimelineCache, userID, postID int64) bool {
	t.Helper()
	postIDs, _, err := tc.GetTimeline(context.Background(), userID, nil, cache.TimelineCap)
	if err != nil {
		t.Fatalf("GetTimeline failed for user %d: %v", userID, err)
	}
	for _, id := range postIDs {
		if id == postID {
			return true
		}
	}
	return false
}

// =============================================================================
// Integration Tests
// =============================================================================

// TestPostCreatedFanout verifies that a new post lands on every follower's
// timeline plus the author's own.
func TestPostCreatedFanout(t *testing.T) {
	client := setupTestRedis(t)
	defer cleanupTestRedis(client)

	ctx := context.Background()
	timelineCache := cache.NewTimelineCache(client)
	mockFollowers := NewMockFollowerProvider()
	mockPosts := NewMockPostsProvider()
	handler := worker.NewHandler(timelineCache, mockFollowers, mockPosts)

	// User 1 (author) has 3 followers: users 2, 3, 4
	authorID := int64(1)
	mockFollowers.AddFollower(authorID, 2)
	mockFollowers.AddFollower(authorID, 3)
	mockFollowers.AddFollower(authorID, 4)

	postID := int64(100)
	event := queue.SocialEvent{
		Type:      queue.EventPostCreated,
		PostID:    postID,
		AuthorID:  authorID,
		Timestamp: time.Now().Unix(),
	}

	if err := handler.HandleEvent(ctx, event); err != nil {
		t.Fatalf("HandleEvent failed: %v", err)
	}

	for _, userID := range []int64{1, 2, 3, 4} {
		if !timelineContains(t, timelineCache, userID, postID) {
			t.Errorf("Post %d not found in user %d's timeline", postID, userID)
		}
	}
}

// TestPostDeletedRemoval verifies that a deleted post disappears from every
// timeline it was fanned out to.
func TestPostDeletedRemoval(t *testing.T) {
	client := setupTestRedis(t)
	defer cleanupTestRedis(client)

	ctx := context.Background()
	timelineCache := cache.NewTimelineCache(client)
	mockFollowers := NewMockFollowerProvider()
	mockPosts := NewMockPostsProvider()
	handler := worker.NewHandler(timelineCache, mockFollowers, mockPosts)

	authorID := int64(1)
	mockFollowers.AddFollower(authorID, 2)
	mockFollowers.AddFollower(authorID, 3)

	// Pre-populate every timeline
	postID := int64(100)
	timestamp := time.Now().Unix()
	for _, userID := range []int64{1, 2, 3} {
		if err := timelineCache.AddPost(ctx, userID, postID, timestamp); err != nil {
			t.Fatalf("Setup failed: %v", err)
		}
	}

	event := queue.SocialEvent{
		Type:      queue.EventPostDeleted,
		PostID:    postID,
		AuthorID:  authorID,
		Timestamp: time.Now().Unix(),
	}

	if err := handler.HandleEvent(ctx, event); err != nil {
		t.Fatalf("HandleEvent failed: %v", err)
	}

	for _, userID := range []int64{1, 2, 3} {
		if timelineContains(t, timelineCache, userID, postID) {
			t.Errorf("Post %d should have been removed from user %d's timeline", postID, userID)
		}
	}
}

// TestUserFollowedBackfill verifies that following a user pulls their recent
// posts into the follower's timeline and notifies the followed user.
func TestUserFollowedBackfill(t *testing.T) {
	client := setupTestRedis(t)
	defer cleanupTestRedis(client)

	ctx := context.Background()
	timelineCache := cache.NewTimelineCache(client)
	mockFollowers := NewMockFollowerProvider()
	mockPosts := NewMockPostsProvider()
	notifier := &MockNotifier{}
	handler := worker.NewHandler(timelineCache, mockFollowers, mockPosts)
	handler.SetNotifier(notifier)

	// User 5 has 3 existing posts
	followedID := int64(5)
	now := time.Now().Unix()
	mockPosts.AddPost(followedID, 200, now-300)
	mockPosts.AddPost(followedID, 201, now-200)
	mockPosts.AddPost(followedID, 202, now-100)

	followerID := int64(7)
	event := queue.SocialEvent{
		Type:       queue.EventUserFollowed,
		FollowerID: followerID,
		FollowedID: followedID,
		Timestamp:  now,
	}

	if err := handler.HandleEvent(ctx, event); err != nil {
		t.Fatalf("HandleEvent failed: %v", err)
	}

	for _, postID := range []int64{200, 201, 202} {
		if !timelineContains(t, timelineCache, followerID, postID) {
			t.Errorf("Post %d not backfilled into follower's timeline", postID)
		}
	}

	if len(notifier.calls) != 1 {
		t.Fatalf("Expected 1 notification, got %d", len(notifier.calls))
	}
	call := notifier.calls[0]
	if call.UserID != followedID || call.ActorID != followerID || call.Type != "follow" {
		t.Errorf("Unexpected notification: %+v", call)
	}
}

// TestUserUnfollowedCleanup verifies that unfollowing drops the former
// followee's posts from the follower's timeline.
func TestUserUnfollowedCleanup(t *testing.T) {
	client := setupTestRedis(t)
	defer cleanupTestRedis(client)

	ctx := context.Background()
	timelineCache := cache.NewTimelineCache(client)
	mockFollowers := NewMockFollowerProvider()
	mockPosts := NewMockPostsProvider()
	handler := worker.NewHandler(timelineCache, mockFollowers, mockPosts)

	followerID := int64(7)
	followedID := int64(5)
	now := time.Now().Unix()

	// The follower's timeline mixes the followee's posts with others
	mockPosts.AddPost(followedID, 200, now-300)
	mockPosts.AddPost(followedID, 201, now-200)
	timelineCache.AddPost(ctx, followerID, 200, now-300)
	timelineCache.AddPost(ctx, followerID, 201, now-200)
	timelineCache.AddPost(ctx, followerID, 900, now-100) // someone else's post

	event := queue.SocialEvent{
		Type:       queue.EventUserUnfollowed,
		FollowerID: followerID,
		FollowedID: followedID,
		Timestamp:  now,
	}

	if err := handler.HandleEvent(ctx, event); err != nil {
		t.Fatalf("HandleEvent failed: %v", err)
	}

	for _, postID := range []int64{200, 201} {
		if timelineContains(t, timelineCache, followerID, postID) {
			t.Errorf("Post %d should have been removed on unfollow", postID)
		}
	}
	if !timelineContains(t, timelineCache, followerID, 900) {
		t.Error("Unrelated post 900 must survive the unfollow cleanup")
	}
}

// =============================================================================
// Notification-only events (no Redis required)
// =============================================================================

func TestPostLikedNotification(t *testing.T) {
	ctx := context.Background()
	notifier := &MockNotifier{}
	handler := worker.NewHandler(nil, NewMockFollowerProvider(), NewMockPostsProvider())
	handler.SetNotifier(notifier)

	event := queue.SocialEvent{
		Type:      queue.EventPostLiked,
		PostID:    100,
		AuthorID:  5,
		ActorID:   7,
		Timestamp: time.Now().Unix(),
	}

	if err := handler.HandleEvent(ctx, event); err != nil {
		t.Fatalf("HandleEvent failed: %v", err)
	}

	if len(notifier.calls) != 1 {
		t.Fatalf("Expected 1 notification, got %d", len(notifier.calls))
	}
	call := notifier.calls[0]
	if call.UserID != 5 || call.ActorID != 7 || call.Type != "like" {
		t.Errorf("Unexpected notification: %+v", call)
	}
	if call.PostID == nil || *call.PostID != 100 {
		t.Errorf("Expected post id 100 on the notification, got %v", call.PostID)
	}
}

func TestPostCommentedNotification(t *testing.T) {
	ctx := context.Background()
	notifier := &MockNotifier{}
	handler := worker.NewHandler(nil, NewMockFollowerProvider(), NewMockPostsProvider())
	handler.SetNotifier(notifier)

	event := queue.SocialEvent{
		Type:      queue.EventPostCommented,
		PostID:    100,
		CommentID: 33,
		AuthorID:  5,
		ActorID:   7,
		Timestamp: time.Now().Unix(),
	}

	if err := handler.HandleEvent(ctx, event); err != nil {
		t.Fatalf("HandleEvent failed: %v", err)
	}

	if len(notifier.calls) != 1 {
		t.Fatalf("Expected 1 notification, got %d", len(notifier.calls))
	}
	call := notifier.calls[0]
	if call.Type != "comment" {
		t.Errorf("Unexpected notification type: %q", call.Type)
	}
	if call.CommentID == nil || *call.CommentID != 33 {
		t.Errorf("Expected comment id 33 on the notification, got %v", call.CommentID)
	}
}

func TestUnknownEventType(t *testing.T) {
	handler := worker.NewHandler(nil, NewMockFollowerProvider(), NewMockPostsProvider())

	event := queue.SocialEvent{Type: "bogus_event"}

	if err := handler.HandleEvent(context.Background(), event); err == nil {
		t.Fatal("Expected an error for an unknown event type")
	}
}
