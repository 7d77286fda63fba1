package service

import (
	"context"
	"testing"

	"socialnet/internal/cache"
	"socialnet/internal/model"
)

func newTimelineService(tc *mockTimelineCache, postRepo *mockPostRepository, followRepo *mockFollowRepository, userRepo *mockUserRepository, likeRepo *mockLikeRepository) *TimelineService {
	if postRepo == nil {
		postRepo = &mockPostRepository{}
	}
	if followRepo == nil {
		followRepo = &mockFollowRepository{}
	}
	if userRepo == nil {
		userRepo = &mockUserRepository{}
	}
	if likeRepo == nil {
		likeRepo = &mockLikeRepository{}
	}
	return NewTimelineService(tc, postRepo, followRepo, userRepo, likeRepo)
}

func TestTimelineService_GetTimeline_Hydration(t *testing.T) {
	// ARRANGE
	tc := &mockTimelineCache{
		getTimelineFn: func(ctx context.Context, userID int64, cursorScore *float64, limit int) ([]int64, []float64, error) {
			return []int64{101, 100}, []float64{2000, 1000}, nil
		},
	}
	postRepo := &mockPostRepository{
		getByIDsFn: func(ctx context.Context, postIDs []int64) ([]model.Post, error) {
			return []model.Post{
				{ID: 101, AuthorID: 5, Title: "newer"},
				{ID: 100, AuthorID: 5, Title: "older"},
			}, nil
		},
	}
	userRepo := &mockUserRepository{
		getByIDFn: func(ctx context.Context, id int64) (*model.User, error) {
			return &model.User{ID: id, Username: "author5"}, nil
		},
	}
	followRepo := &mockFollowRepository{
		checkFollowsFn: func(ctx context.Context, followerID int64, followedIDs []int64) (map[int64]bool, error) {
			return map[int64]bool{5: true}, nil
		},
	}
	likeRepo := &mockLikeRepository{
		checkLikesFn: func(ctx context.Context, userID int64, postIDs []int64) (map[int64]bool, error) {
			return map[int64]bool{100: true}, nil
		},
	}
	svc := newTimelineService(tc, postRepo, followRepo, userRepo, likeRepo)

	// ACT
	resp, err := svc.GetTimeline(context.Background(), 7, nil, 10)

	// ASSERT
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(resp.Posts) != 2 {
		t.Fatalf("expected 2 posts, got %d", len(resp.Posts))
	}
	first := resp.Posts[0]
	if first.Author == nil || first.Author.Username != "author5" {
		t.Errorf("expected hydrated author, got %+v", first.Author)
	}
	if !first.Author.IsFollowing {
		t.Error("expected is_following=true on the author summary")
	}
	if first.IsLiked {
		t.Error("post 101 is not liked by the viewer")
	}
	if !resp.Posts[1].IsLiked {
		t.Error("post 100 is liked by the viewer")
	}
	if resp.HasMore {
		t.Error("a short page must not report has_more")
	}
}

func TestTimelineService_GetTimeline_ColdCacheWarms(t *testing.T) {
	// ARRANGE
	tc := &mockTimelineCache{
		existsFn: func(ctx context.Context, userID int64) (bool, error) {
			return false, nil
		},
	}
	followRepo := &mockFollowRepository{
		getFollowedIDsFn: func(ctx context.Context, userID int64) ([]int64, error) {
			return []int64{5}, nil
		},
	}
	var askedAuthors []int64
	postRepo := &warmTrackingPostRepo{mockPostRepository: &mockPostRepository{}, asked: &askedAuthors}
	svc := NewTimelineService(tc, postRepo, followRepo, &mockUserRepository{}, &mockLikeRepository{})

	// ACT
	resp, err := svc.GetTimeline(context.Background(), 7, nil, 10)

	// ASSERT
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(resp.Posts) != 0 {
		t.Errorf("expected an empty page, got %d posts", len(resp.Posts))
	}
	// The warm query must cover the followed users plus the user themselves
	if len(askedAuthors) != 2 || askedAuthors[0] != 5 || askedAuthors[1] != 7 {
		t.Errorf("expected warm authors [5 7], got %v", askedAuthors)
	}
}

// warmTrackingPostRepo records the author set passed to the warm query.
type warmTrackingPostRepo struct {
	*mockPostRepository
	asked *[]int64
}

func (r *warmTrackingPostRepo) GetTimelinePostIDs(ctx context.Context, authorIDs []int64, limit int) ([]cache.PostScore, error) {
	*r.asked = append(*r.asked, authorIDs...)
	return nil, nil
}

func TestTimelineService_GetTimeline_NextCursor(t *testing.T) {
	// ARRANGE: a full page signals more results
	tc := &mockTimelineCache{
		getTimelineFn: func(ctx context.Context, userID int64, cursorScore *float64, limit int) ([]int64, []float64, error) {
			return []int64{101, 100}, []float64{2000, 1000}, nil
		},
	}
	postRepo := &mockPostRepository{
		getByIDsFn: func(ctx context.Context, postIDs []int64) ([]model.Post, error) {
			return []model.Post{{ID: 101, AuthorID: 5}, {ID: 100, AuthorID: 5}}, nil
		},
	}
	userRepo := &mockUserRepository{
		getByIDFn: func(ctx context.Context, id int64) (*model.User, error) {
			return &model.User{ID: id}, nil
		},
	}
	svc := newTimelineService(tc, postRepo, nil, userRepo, nil)

	// ACT: limit matches the page size
	resp, err := svc.GetTimeline(context.Background(), 7, nil, 2)

	// ASSERT
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !resp.HasMore {
		t.Fatal("a full page must report has_more")
	}
	if resp.NextCursor == nil || *resp.NextCursor != "100:1000" {
		t.Errorf("expected cursor %q, got %v", "100:1000", resp.NextCursor)
	}
}

func TestTimelineService_GetTimeline_CursorPassedToCache(t *testing.T) {
	// ARRANGE
	var gotScore *float64
	tc := &mockTimelineCache{
		getTimelineFn: func(ctx context.Context, userID int64, cursorScore *float64, limit int) ([]int64, []float64, error) {
			gotScore = cursorScore
			return nil, nil, nil
		},
	}
	svc := newTimelineService(tc, nil, nil, nil, nil)
	cursor := "100:1000"

	// ACT
	_, err := svc.GetTimeline(context.Background(), 7, &cursor, 10)

	// ASSERT
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if gotScore == nil || *gotScore != 1000 {
		t.Errorf("expected cursor score 1000, got %v", gotScore)
	}
}

func TestTimelineService_GetTimeline_InvalidCursor(t *testing.T) {
	// ARRANGE
	svc := newTimelineService(&mockTimelineCache{}, nil, nil, nil, nil)
	cursor := "not-a-cursor"

	// ACT
	_, err := svc.GetTimeline(context.Background(), 7, &cursor, 10)

	// ASSERT
	if err == nil {
		t.Fatal("expected an error for a malformed cursor")
	}
}

func TestTimelineService_GetTimeline_LimitClamped(t *testing.T) {
	// ARRANGE
	var gotLimit int
	tc := &mockTimelineCache{
		getTimelineFn: func(ctx context.Context, userID int64, cursorScore *float64, limit int) ([]int64, []float64, error) {
			gotLimit = limit
			return nil, nil, nil
		},
	}
	svc := newTimelineService(tc, nil, nil, nil, nil)

	// ACT
	if _, err := svc.GetTimeline(context.Background(), 7, nil, 9999); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	// ASSERT
	if gotLimit != TimelineMaxLimit {
		t.Errorf("expected the limit to clamp to %d, got %d", TimelineMaxLimit, gotLimit)
	}
}
