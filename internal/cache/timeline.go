package cache

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// TimelineKeyPrefix is the key prefix for per-user home timeline caches
	TimelineKeyPrefix = "timeline:user:"

	// TimelineCap is the maximum number of posts cached per user
	TimelineCap = 500

	// TimelineTTL is how long an untouched timeline cache survives
	TimelineTTL = 7 * 24 * time.Hour
)

// PostScore pairs a post id with its publication timestamp, the sorted-set
// score used for timeline ordering.
type PostScore struct {
	PostID    int64
	Timestamp int64 // Unix seconds
}

// TimelineCache is the home-timeline cache: for each user, the ids of posts
// published by the users they follow, newest first. Backed by Redis sorted
// sets; an interface so services and workers can be tested with mocks.
type TimelineCache interface {
	// AddPost adds a post to a user's timeline.
	AddPost(ctx context.Context, userID, postID int64, timestamp int64) error

	// RemovePost removes a post from a user's timeline.
	RemovePost(ctx context.Context, userID, postID int64) error

	// RemovePosts removes several posts from a user's timeline in one call.
	// Used on unfollow to drop the former followee's posts.
	RemovePosts(ctx context.Context, userID int64, postIDs []int64) error

	// GetTimeline returns post ids newest-first. A nil cursorScore starts
	// from the top; otherwise only posts strictly older than the cursor are
	// returned.
	GetTimeline(ctx context.Context, userID int64, cursorScore *float64, limit int) (postIDs []int64, scores []float64, err error)

	// Warm bulk-loads posts into a user's timeline.
	Warm(ctx context.Context, userID int64, posts []PostScore) error

	// Exists reports whether the user has a timeline entry at all. False
	// means cold (new user or TTL expiry) and the caller should warm it.
	Exists(ctx context.Context, userID int64) (bool, error)
}

// RedisTimelineCache implements TimelineCache on Redis sorted sets.
type RedisTimelineCache struct {
	client *redis.Client
}

// NewTimelineCache creates a TimelineCache backed by Redis.
func NewTimelineCache(client *redis.Client) TimelineCache {
	return &RedisTimelineCache{client: client}
}

func timelineKey(userID int64) string {
	return fmt.Sprintf("%s%d", TimelineKeyPrefix, userID)
}

// AddPost pipelines ZADD + ZREMRANGEBYRANK (trim to cap) + EXPIRE (refresh TTL).
func (c *RedisTimelineCache) AddPost(ctx context.Context, userID, postID int64, timestamp int64) error {
	key := timelineKey(userID)

	pipe := c.client.Pipeline()
	pipe.ZAdd(ctx, key, redis.Z{
		Score:  float64(timestamp),
		Member: strconv.FormatInt(postID, 10),
	})
	// Keep the newest TimelineCap entries; rank 0 is the oldest score
	pipe.ZRemRangeByRank(ctx, key, 0, int64(-TimelineCap-1))
	pipe.Expire(ctx, key, TimelineTTL)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("add post to timeline: %w", err)
	}
	return nil
}

func (c *RedisTimelineCache) RemovePost(ctx context.Context, userID, postID int64) error {
	_, err := c.client.ZRem(ctx, timelineKey(userID), strconv.FormatInt(postID, 10)).Result()
	if err != nil {
		return fmt.Errorf("remove post from timeline: %w", err)
	}
	return nil
}

func (c *RedisTimelineCache) RemovePosts(ctx context.Context, userID int64, postIDs []int64) error {
	if len(postIDs) == 0 {
		return nil
	}
	members := make([]interface{}, len(postIDs))
	for i, id := range postIDs {
		members[i] = strconv.FormatInt(id, 10)
	}
	if err := c.client.ZRem(ctx, timelineKey(userID), members...).Err(); err != nil {
		return fmt.Errorf("remove posts from timeline: %w", err)
	}
	return nil
}

// GetTimeline reads newest-first. With a cursor it uses an exclusive
// ZREVRANGEBYSCORE upper bound so the post at the cursor is not repeated.
func (c *RedisTimelineCache) GetTimeline(ctx context.Context, userID int64, cursorScore *float64, limit int) ([]int64, []float64, error) {
	key := timelineKey(userID)

	var results []redis.Z
	var err error

	if cursorScore == nil {
		results, err = c.client.ZRevRangeWithScores(ctx, key, 0, int64(limit-1)).Result()
	} else {
		results, err = c.client.ZRevRangeByScoreWithScores(ctx, key, &redis.ZRangeBy{
			Min:    "-inf",
			Max:    fmt.Sprintf("(%f", *cursorScore), // exclusive
			Offset: 0,
			Count:  int64(limit),
		}).Result()
	}
	if err != nil {
		return nil, nil, fmt.Errorf("get timeline: %w", err)
	}

	// Refresh TTL on access
	c.client.Expire(ctx, key, TimelineTTL)

	postIDs := make([]int64, len(results))
	scores := make([]float64, len(results))
	for i, z := range results {
		id, err := strconv.ParseInt(z.Member.(string), 10, 64)
		if err != nil {
			return nil, nil, fmt.Errorf("parse post id: %w", err)
		}
		postIDs[i] = id
		scores[i] = z.Score
	}

	return postIDs, scores, nil
}

// Warm bulk-inserts posts with a single pipelined ZADD, then trims and sets TTL.
func (c *RedisTimelineCache) Warm(ctx context.Context, userID int64, posts []PostScore) error {
	if len(posts) == 0 {
		return nil
	}

	key := timelineKey(userID)
	members := make([]redis.Z, len(posts))
	for i, p := range posts {
		members[i] = redis.Z{
			Score:  float64(p.Timestamp),
			Member: strconv.FormatInt(p.PostID, 10),
		}
	}

	pipe := c.client.Pipeline()
	pipe.ZAdd(ctx, key, members...)
	pipe.ZRemRangeByRank(ctx, key, 0, int64(-TimelineCap-1))
	pipe.Expire(ctx, key, TimelineTTL)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("warm timeline: %w", err)
	}
	return nil
}

func (c *RedisTimelineCache) Exists(ctx context.Context, userID int64) (bool, error) {
	n, err := c.client.Exists(ctx, timelineKey(userID)).Result()
	if err != nil {
		return false, fmt.Errorf("check timeline exists: %w", err)
	}
	return n > 0, nil
}
