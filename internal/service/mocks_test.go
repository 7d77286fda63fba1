package service

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"

	"socialnet/internal/cache"
	"socialnet/internal/model"
	"socialnet/internal/queue"
)

// =============================================================================
// TEST DATABASE
// =============================================================================
//
// Services open transactions on *sqlx.DB, but the repositories inside those
// transactions are mocked and never touch the tx. A no-op driver that only
// supports Begin/Commit/Rollback is enough to exercise the full flow.

type noopTxDriver struct{}

func (noopTxDriver) Open(name string) (driver.Conn, error) { return noopConn{}, nil }

type noopConn struct{}

func (noopConn) Prepare(query string) (driver.Stmt, error) {
	return nil, errors.New("not supported")
}
func (noopConn) Close() error              { return nil }
func (noopConn) Begin() (driver.Tx, error) { return noopTx{}, nil }

type noopTx struct{}

func (noopTx) Commit() error   { return nil }
func (noopTx) Rollback() error { return nil }

var registerDriverOnce sync.Once

func newTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	registerDriverOnce.Do(func() {
		sql.Register("nooptx", noopTxDriver{})
	})
	db, err := sql.Open("nooptx", "")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	return sqlx.NewDb(db, "postgres")
}

// =============================================================================
// MOCK REPOSITORIES
// =============================================================================
//
// Function-field mocks: each test sets only the behaviors it needs; the
// zero value returns not-found / empty results.

type mockUserRepository struct {
	createFn           func(ctx context.Context, user *model.User) error
	getByIDFn          func(ctx context.Context, id int64) (*model.User, error)
	getByUsernameFn    func(ctx context.Context, username string) (*model.User, error)
	existsByUsernameFn func(ctx context.Context, username string) (bool, error)
	existsByEmailFn    func(ctx context.Context, email string) (bool, error)
	updateFn           func(ctx context.Context, user *model.User) error
	setOnlineFn        func(ctx context.Context, userID int64, online bool) error
	deleteFn           func(ctx context.Context, userID int64) error
	searchFn           func(ctx context.Context, query string, limit int) ([]model.UserSummary, error)

	createCalls    []*model.User
	setOnlineCalls []struct {
		UserID int64
		Online bool
	}
	followerCountDeltas  map[int64]int
	followingCountDeltas map[int64]int
}

func (m *mockUserRepository) Create(ctx context.Context, user *model.User) error {
	m.createCalls = append(m.createCalls, user)
	if m.createFn != nil {
		return m.createFn(ctx, user)
	}
	return nil
}

func (m *mockUserRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, model.ErrUserNotFound
}

func (m *mockUserRepository) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	if m.getByUsernameFn != nil {
		return m.getByUsernameFn(ctx, username)
	}
	return nil, model.ErrUserNotFound
}

func (m *mockUserRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	if m.existsByUsernameFn != nil {
		return m.existsByUsernameFn(ctx, username)
	}
	return false, nil
}

func (m *mockUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	if m.existsByEmailFn != nil {
		return m.existsByEmailFn(ctx, email)
	}
	return false, nil
}

func (m *mockUserRepository) Update(ctx context.Context, user *model.User) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, user)
	}
	return nil
}

func (m *mockUserRepository) SetOnline(ctx context.Context, userID int64, online bool) error {
	m.setOnlineCalls = append(m.setOnlineCalls, struct {
		UserID int64
		Online bool
	}{userID, online})
	if m.setOnlineFn != nil {
		return m.setOnlineFn(ctx, userID, online)
	}
	return nil
}

func (m *mockUserRepository) Delete(ctx context.Context, userID int64) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, userID)
	}
	return nil
}

func (m *mockUserRepository) Search(ctx context.Context, query string, limit int) ([]model.UserSummary, error) {
	if m.searchFn != nil {
		return m.searchFn(ctx, query, limit)
	}
	return nil, nil
}

func (m *mockUserRepository) IncrementFollowerCount(ctx context.Context, tx *sqlx.Tx, userID int64, delta int) error {
	if m.followerCountDeltas == nil {
		m.followerCountDeltas = make(map[int64]int)
	}
	m.followerCountDeltas[userID] += delta
	return nil
}

func (m *mockUserRepository) IncrementFollowingCount(ctx context.Context, tx *sqlx.Tx, userID int64, delta int) error {
	if m.followingCountDeltas == nil {
		m.followingCountDeltas = make(map[int64]int)
	}
	m.followingCountDeltas[userID] += delta
	return nil
}

type mockFollowRepository struct {
	createFn         func(ctx context.Context, followerID, followedID int64) (bool, error)
	deleteFn         func(ctx context.Context, followerID, followedID int64) (bool, error)
	createUnfollowFn func(ctx context.Context, unfollowerID, unfollowedID int64) (bool, error)
	existsFn         func(ctx context.Context, followerID, followedID int64) (bool, error)
	getByIDFn        func(ctx context.Context, id int64) (*model.Follow, error)
	getUnfollowFn    func(ctx context.Context, id int64) (*model.Unfollow, error)
	checkFollowsFn   func(ctx context.Context, followerID int64, followedIDs []int64) (map[int64]bool, error)
	getFollowerIDsFn func(ctx context.Context, userID int64) ([]int64, error)
	getFollowedIDsFn func(ctx context.Context, userID int64) ([]int64, error)
	getFollowersFn   func(ctx context.Context, userID int64, cursor *time.Time, limit int) ([]model.UserSummary, *time.Time, error)
	getFollowingFn   func(ctx context.Context, userID int64, cursor *time.Time, limit int) ([]model.UserSummary, *time.Time, error)

	deleteByIDCalls         []int64
	deleteUnfollowByIDCalls []int64
}

func (m *mockFollowRepository) Create(ctx context.Context, tx *sqlx.Tx, followerID, followedID int64) (bool, error) {
	if m.createFn != nil {
		return m.createFn(ctx, followerID, followedID)
	}
	return true, nil
}

func (m *mockFollowRepository) Delete(ctx context.Context, tx *sqlx.Tx, followerID, followedID int64) (bool, error) {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, followerID, followedID)
	}
	return true, nil
}

func (m *mockFollowRepository) DeleteByID(ctx context.Context, id int64) error {
	m.deleteByIDCalls = append(m.deleteByIDCalls, id)
	return nil
}

func (m *mockFollowRepository) GetByID(ctx context.Context, id int64) (*model.Follow, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, model.ErrFollowNotFound
}

func (m *mockFollowRepository) Exists(ctx context.Context, followerID, followedID int64) (bool, error) {
	if m.existsFn != nil {
		return m.existsFn(ctx, followerID, followedID)
	}
	return false, nil
}

func (m *mockFollowRepository) List(ctx context.Context, filter model.FollowFilter, cursor *string, limit int) ([]model.Follow, *string, error) {
	return nil, nil, nil
}

func (m *mockFollowRepository) GetFollowers(ctx context.Context, userID int64, cursor *time.Time, limit int) ([]model.UserSummary, *time.Time, error) {
	if m.getFollowersFn != nil {
		return m.getFollowersFn(ctx, userID, cursor, limit)
	}
	return nil, nil, nil
}

func (m *mockFollowRepository) GetFollowing(ctx context.Context, userID int64, cursor *time.Time, limit int) ([]model.UserSummary, *time.Time, error) {
	if m.getFollowingFn != nil {
		return m.getFollowingFn(ctx, userID, cursor, limit)
	}
	return nil, nil, nil
}

func (m *mockFollowRepository) CheckFollows(ctx context.Context, followerID int64, followedIDs []int64) (map[int64]bool, error) {
	if m.checkFollowsFn != nil {
		return m.checkFollowsFn(ctx, followerID, followedIDs)
	}
	return map[int64]bool{}, nil
}

func (m *mockFollowRepository) GetFollowerIDs(ctx context.Context, userID int64) ([]int64, error) {
	if m.getFollowerIDsFn != nil {
		return m.getFollowerIDsFn(ctx, userID)
	}
	return nil, nil
}

func (m *mockFollowRepository) GetFollowedIDs(ctx context.Context, userID int64) ([]int64, error) {
	if m.getFollowedIDsFn != nil {
		return m.getFollowedIDsFn(ctx, userID)
	}
	return nil, nil
}

func (m *mockFollowRepository) CreateUnfollow(ctx context.Context, tx *sqlx.Tx, unfollowerID, unfollowedID int64) (bool, error) {
	if m.createUnfollowFn != nil {
		return m.createUnfollowFn(ctx, unfollowerID, unfollowedID)
	}
	return true, nil
}

func (m *mockFollowRepository) GetUnfollowByID(ctx context.Context, id int64) (*model.Unfollow, error) {
	if m.getUnfollowFn != nil {
		return m.getUnfollowFn(ctx, id)
	}
	return nil, model.ErrUnfollowNotFound
}

func (m *mockFollowRepository) DeleteUnfollowByID(ctx context.Context, id int64) error {
	m.deleteUnfollowByIDCalls = append(m.deleteUnfollowByIDCalls, id)
	return nil
}

func (m *mockFollowRepository) ListUnfollows(ctx context.Context, filter model.UnfollowFilter, cursor *string, limit int) ([]model.Unfollow, *string, error) {
	return nil, nil, nil
}

type mockPostRepository struct {
	createFn      func(ctx context.Context, post *model.Post) error
	getByIDFn     func(ctx context.Context, postID int64) (*model.Post, error)
	getByIDsFn    func(ctx context.Context, postIDs []int64) ([]model.Post, error)
	updateFn      func(ctx context.Context, post *model.Post) error
	deleteFn      func(ctx context.Context, postID int64) error
	getAuthorIDFn func(ctx context.Context, postID int64) (int64, error)
	existsFn      func(ctx context.Context, postID int64) (bool, error)

	likeCountDeltas    map[int64]int
	commentCountDeltas map[int64]int
}

func (m *mockPostRepository) Create(ctx context.Context, post *model.Post) error {
	if m.createFn != nil {
		return m.createFn(ctx, post)
	}
	post.ID = 1
	post.PublishedAt = time.Now()
	return nil
}

func (m *mockPostRepository) GetByID(ctx context.Context, postID int64) (*model.Post, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, postID)
	}
	return nil, model.ErrPostNotFound
}

func (m *mockPostRepository) GetByIDs(ctx context.Context, postIDs []int64) ([]model.Post, error) {
	if m.getByIDsFn != nil {
		return m.getByIDsFn(ctx, postIDs)
	}
	return nil, nil
}

func (m *mockPostRepository) Update(ctx context.Context, post *model.Post) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, post)
	}
	return nil
}

func (m *mockPostRepository) Delete(ctx context.Context, postID int64) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, postID)
	}
	return nil
}

func (m *mockPostRepository) List(ctx context.Context, filter model.PostFilter, cursor *string, limit int) ([]model.Post, *string, error) {
	return nil, nil, nil
}

func (m *mockPostRepository) GetRecentByAuthor(ctx context.Context, authorID int64, limit int) ([]cache.PostScore, error) {
	return nil, nil
}

func (m *mockPostRepository) GetTimelinePostIDs(ctx context.Context, authorIDs []int64, limit int) ([]cache.PostScore, error) {
	return nil, nil
}

func (m *mockPostRepository) GetAuthorID(ctx context.Context, postID int64) (int64, error) {
	if m.getAuthorIDFn != nil {
		return m.getAuthorIDFn(ctx, postID)
	}
	return 0, model.ErrPostNotFound
}

func (m *mockPostRepository) Exists(ctx context.Context, postID int64) (bool, error) {
	if m.existsFn != nil {
		return m.existsFn(ctx, postID)
	}
	return false, nil
}

func (m *mockPostRepository) IncrementLikeCount(ctx context.Context, tx *sqlx.Tx, postID int64, delta int) error {
	if m.likeCountDeltas == nil {
		m.likeCountDeltas = make(map[int64]int)
	}
	m.likeCountDeltas[postID] += delta
	return nil
}

func (m *mockPostRepository) IncrementCommentCount(ctx context.Context, tx *sqlx.Tx, postID int64, delta int) error {
	if m.commentCountDeltas == nil {
		m.commentCountDeltas = make(map[int64]int)
	}
	m.commentCountDeltas[postID] += delta
	return nil
}

type mockLikeRepository struct {
	createFn     func(ctx context.Context, userID, postID int64) (bool, error)
	deleteFn     func(ctx context.Context, userID, postID int64) error
	getByIDFn    func(ctx context.Context, id int64) (*model.Like, error)
	checkLikesFn func(ctx context.Context, userID int64, postIDs []int64) (map[int64]bool, error)

	deleteByIDCalls []int64
}

func (m *mockLikeRepository) Create(ctx context.Context, tx *sqlx.Tx, userID, postID int64) (bool, error) {
	if m.createFn != nil {
		return m.createFn(ctx, userID, postID)
	}
	return true, nil
}

func (m *mockLikeRepository) Delete(ctx context.Context, tx *sqlx.Tx, userID, postID int64) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, userID, postID)
	}
	return nil
}

func (m *mockLikeRepository) GetByID(ctx context.Context, id int64) (*model.Like, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, model.ErrLikeNotFound
}

func (m *mockLikeRepository) DeleteByID(ctx context.Context, tx *sqlx.Tx, id int64) error {
	m.deleteByIDCalls = append(m.deleteByIDCalls, id)
	return nil
}

func (m *mockLikeRepository) List(ctx context.Context, filter model.LikeFilter, cursor *string, limit int) ([]model.Like, *string, error) {
	return nil, nil, nil
}

func (m *mockLikeRepository) GetPostLikers(ctx context.Context, postID int64, cursor *string, limit int) ([]model.UserSummary, *string, error) {
	return nil, nil, nil
}

func (m *mockLikeRepository) CheckLikes(ctx context.Context, userID int64, postIDs []int64) (map[int64]bool, error) {
	if m.checkLikesFn != nil {
		return m.checkLikesFn(ctx, userID, postIDs)
	}
	return map[int64]bool{}, nil
}

type mockCommentRepository struct {
	createFn  func(ctx context.Context, postID, authorID int64, body string) (*model.Comment, error)
	getByIDFn func(ctx context.Context, commentID int64) (*model.Comment, error)
	updateFn  func(ctx context.Context, commentID int64, body string) (*model.Comment, error)

	deleteCalls []int64
}

func (m *mockCommentRepository) Create(ctx context.Context, tx *sqlx.Tx, postID, authorID int64, body string) (*model.Comment, error) {
	if m.createFn != nil {
		return m.createFn(ctx, postID, authorID, body)
	}
	return &model.Comment{ID: 1, PostID: postID, AuthorID: authorID, Body: body, CreatedAt: time.Now()}, nil
}

func (m *mockCommentRepository) GetByID(ctx context.Context, commentID int64) (*model.Comment, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, commentID)
	}
	return nil, model.ErrCommentNotFound
}

func (m *mockCommentRepository) Update(ctx context.Context, commentID int64, body string) (*model.Comment, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, commentID, body)
	}
	return &model.Comment{ID: commentID, Body: body}, nil
}

func (m *mockCommentRepository) Delete(ctx context.Context, tx *sqlx.Tx, commentID int64) error {
	m.deleteCalls = append(m.deleteCalls, commentID)
	return nil
}

func (m *mockCommentRepository) GetByPostID(ctx context.Context, postID int64, cursor *string, limit int) ([]model.Comment, *string, error) {
	return nil, nil, nil
}

func (m *mockCommentRepository) List(ctx context.Context, filter model.CommentFilter, cursor *string, limit int) ([]model.Comment, *string, error) {
	return nil, nil, nil
}

type mockRefreshTokenRepository struct {
	createFn          func(ctx context.Context, token *model.RefreshToken) error
	findByTokenHashFn func(ctx context.Context, tokenHash string) (*model.RefreshToken, error)

	revokeCalls           []string
	revokeAllForUserCalls []int64
}

func (m *mockRefreshTokenRepository) Create(ctx context.Context, token *model.RefreshToken) error {
	if m.createFn != nil {
		return m.createFn(ctx, token)
	}
	token.ID = "token-1"
	return nil
}

func (m *mockRefreshTokenRepository) FindByTokenHash(ctx context.Context, tokenHash string) (*model.RefreshToken, error) {
	if m.findByTokenHashFn != nil {
		return m.findByTokenHashFn(ctx, tokenHash)
	}
	return nil, model.ErrRefreshTokenNotFound
}

func (m *mockRefreshTokenRepository) Revoke(ctx context.Context, id string) error {
	m.revokeCalls = append(m.revokeCalls, id)
	return nil
}

func (m *mockRefreshTokenRepository) RevokeAllForUser(ctx context.Context, userID int64) error {
	m.revokeAllForUserCalls = append(m.revokeAllForUserCalls, userID)
	return nil
}

func (m *mockRefreshTokenRepository) DeleteExpired(ctx context.Context, olderThan time.Duration) (int64, error) {
	return 0, nil
}

type mockTimelineCache struct {
	existsFn      func(ctx context.Context, userID int64) (bool, error)
	getTimelineFn func(ctx context.Context, userID int64, cursorScore *float64, limit int) ([]int64, []float64, error)

	warmCalls [][]cache.PostScore
}

func (m *mockTimelineCache) AddPost(ctx context.Context, userID, postID int64, timestamp int64) error {
	return nil
}

func (m *mockTimelineCache) RemovePost(ctx context.Context, userID, postID int64) error {
	return nil
}

func (m *mockTimelineCache) RemovePosts(ctx context.Context, userID int64, postIDs []int64) error {
	return nil
}

func (m *mockTimelineCache) GetTimeline(ctx context.Context, userID int64, cursorScore *float64, limit int) ([]int64, []float64, error) {
	if m.getTimelineFn != nil {
		return m.getTimelineFn(ctx, userID, cursorScore, limit)
	}
	return nil, nil, nil
}

func (m *mockTimelineCache) Warm(ctx context.Context, userID int64, posts []cache.PostScore) error {
	m.warmCalls = append(m.warmCalls, posts)
	return nil
}

func (m *mockTimelineCache) Exists(ctx context.Context, userID int64) (bool, error) {
	if m.existsFn != nil {
		return m.existsFn(ctx, userID)
	}
	return true, nil
}

// mockPublisher records published events.
type mockPublisher struct {
	events []queue.SocialEvent
}

func (m *mockPublisher) Publish(ctx context.Context, stream string, event queue.SocialEvent) (string, error) {
	m.events = append(m.events, event)
	return "1-0", nil
}
