package service

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"socialnet/internal/cache"
	"socialnet/internal/model"
	"socialnet/internal/repository"
)

const (
	// TimelineDefaultLimit is the default number of posts per page
	TimelineDefaultLimit = 10

	// TimelineMaxLimit is the maximum number of posts per page
	TimelineMaxLimit = 50

	// CacheWarmLimit is max posts to fetch when warming the cache
	CacheWarmLimit = 500
)

// TimelineService serves the home timeline from the Redis cache, warming it
// from the database on a cold read.
type TimelineService struct {
	timelineCache cache.TimelineCache
	postRepo      repository.PostRepository
	followRepo    repository.FollowRepository
	userRepo      repository.UserRepository
	likeRepo      repository.LikeRepository
}

func NewTimelineService(
	timelineCache cache.TimelineCache,
	postRepo repository.PostRepository,
	followRepo repository.FollowRepository,
	userRepo repository.UserRepository,
	likeRepo repository.LikeRepository,
) *TimelineService {
	return &TimelineService{
		timelineCache: timelineCache,
		postRepo:      postRepo,
		followRepo:    followRepo,
		userRepo:      userRepo,
		likeRepo:      likeRepo,
	}
}

// GetTimeline retrieves the user's home timeline with cursor-based pagination.
//
// Flow:
//  1. Check if a cache entry exists for the user
//  2. Cold cache: warm it from the DB (followed users' posts, up to the cap)
//  3. Read post IDs from the cache (honoring the cursor)
//  4. Hydrate full posts from the DB, enriched with author and like status
//  5. Build the next cursor from the last post
func (s *TimelineService) GetTimeline(ctx context.Context, userID int64, cursor *string, limit int) (*model.TimelineResponse, error) {
	startTime := time.Now()

	if limit <= 0 {
		limit = TimelineDefaultLimit
	}
	if limit > TimelineMaxLimit {
		limit = TimelineMaxLimit
	}

	exists, err := s.timelineCache.Exists(ctx, userID)
	if err != nil {
		log.Printf("[TimelineService] cache check failed for user=%d: %v", userID, err)
	}

	if !exists {
		if err := s.warmCache(ctx, userID); err != nil {
			log.Printf("[TimelineService] cache warm failed for user=%d: %v", userID, err)
		}
	}

	var cursorScore *float64
	if cursor != nil {
		score, _, err := parseTimelineCursor(*cursor)
		if err != nil {
			return nil, fmt.Errorf("invalid cursor: %w", err)
		}
		cursorScore = &score
	}

	postIDs, scores, err := s.timelineCache.GetTimeline(ctx, userID, cursorScore, limit)
	if err != nil {
		return nil, fmt.Errorf("get timeline from cache: %w", err)
	}

	if len(postIDs) == 0 {
		return &model.TimelineResponse{Posts: []model.Post{}}, nil
	}

	posts, err := s.hydratePosts(ctx, userID, postIDs)
	if err != nil {
		return nil, fmt.Errorf("hydrate posts: %w", err)
	}

	var nextCursor *string
	hasMore := len(postIDs) == limit
	if hasMore && len(scores) > 0 {
		c := formatTimelineCursor(scores[len(scores)-1], postIDs[len(postIDs)-1])
		nextCursor = &c
	}

	log.Printf("[TimelineService] GetTimeline OK: user=%d posts=%d hasMore=%v duration=%v",
		userID, len(posts), hasMore, time.Since(startTime))

	return &model.TimelineResponse{
		Posts:      posts,
		NextCursor: nextCursor,
		HasMore:    hasMore,
	}, nil
}

// warmCache populates the user's timeline cache from the database.
func (s *TimelineService) warmCache(ctx context.Context, userID int64) error {
	followedIDs, err := s.followRepo.GetFollowedIDs(ctx, userID)
	if err != nil {
		return fmt.Errorf("get followed ids: %w", err)
	}

	// A user's own posts appear in their timeline too
	followedIDs = append(followedIDs, userID)

	posts, err := s.postRepo.GetTimelinePostIDs(ctx, followedIDs, CacheWarmLimit)
	if err != nil {
		return fmt.Errorf("get timeline post ids: %w", err)
	}

	if len(posts) == 0 {
		return nil
	}

	if err := s.timelineCache.Warm(ctx, userID, posts); err != nil {
		return fmt.Errorf("warm timeline: %w", err)
	}

	log.Printf("[TimelineService] cache warmed: user=%d posts=%d", userID, len(posts))
	return nil
}

// hydratePosts fetches full posts and attaches author summaries, follow
// status, and the viewer's like status.
func (s *TimelineService) hydratePosts(ctx context.Context, viewerID int64, postIDs []int64) ([]model.Post, error) {
	posts, err := s.postRepo.GetByIDs(ctx, postIDs)
	if err != nil {
		return nil, fmt.Errorf("get posts by ids: %w", err)
	}

	authorIDSet := make(map[int64]struct{})
	for _, p := range posts {
		authorIDSet[p.AuthorID] = struct{}{}
	}
	authorIDs := make([]int64, 0, len(authorIDSet))
	for id := range authorIDSet {
		authorIDs = append(authorIDs, id)
	}

	authors := make(map[int64]model.UserSummary)
	for _, authorID := range authorIDs {
		user, err := s.userRepo.GetByID(ctx, authorID)
		if err != nil {
			log.Printf("[TimelineService] failed to get author %d: %v", authorID, err)
			continue
		}
		authors[authorID] = model.UserSummary{
			ID:              user.ID,
			Username:        user.Username,
			ProfileImageURL: user.ProfileImageURL,
			Online:          user.Online,
		}
	}

	followStatus, err := s.followRepo.CheckFollows(ctx, viewerID, authorIDs)
	if err != nil {
		log.Printf("[TimelineService] failed to check follows: %v", err)
	}

	likeStatus, err := s.likeRepo.CheckLikes(ctx, viewerID, postIDs)
	if err != nil {
		log.Printf("[TimelineService] failed to check likes: %v", err)
	}

	for i := range posts {
		author := authors[posts[i].AuthorID]
		if followStatus != nil {
			author.IsFollowing = followStatus[posts[i].AuthorID]
		}
		posts[i].Author = &author
		if likeStatus != nil {
			posts[i].IsLiked = likeStatus[posts[i].ID]
		}
	}

	return posts, nil
}

// parseTimelineCursor parses an "id:timestamp" cursor into the score and post id.
func parseTimelineCursor(cursor string) (float64, int64, error) {
	parts := strings.Split(cursor, ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid cursor format, expected id:timestamp")
	}

	id, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid post id in cursor: %w", err)
	}

	score, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid timestamp in cursor: %w", err)
	}

	return score, id, nil
}

func formatTimelineCursor(score float64, id int64) string {
	return fmt.Sprintf("%d:%.0f", id, score)
}
