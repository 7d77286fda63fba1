package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jmoiron/sqlx"

	"socialnet/internal/authz"
	"socialnet/internal/model"
	"socialnet/internal/queue"
	"socialnet/internal/repository"
)

// FollowService handles the social graph: live follow edges plus the
// append-only unfollow history.
type FollowService struct {
	followRepo repository.FollowRepository
	userRepo   repository.UserRepository
	db         *sqlx.DB
	publisher  queue.Publisher
}

func NewFollowService(
	followRepo repository.FollowRepository,
	userRepo repository.UserRepository,
	db *sqlx.DB,
	publisher queue.Publisher,
) *FollowService {
	return &FollowService{
		followRepo: followRepo,
		userRepo:   userRepo,
		db:         db,
		publisher:  publisher,
	}
}

// Follow creates a follow edge from the actor to the target user. Rejects
// self-follows and duplicate pairs; counters move in the same transaction as
// the edge insert.
func (s *FollowService) Follow(ctx context.Context, followerID, followedID int64) error {
	if followerID == followedID {
		return model.ErrCannotFollowSelf
	}

	if _, err := s.userRepo.GetByID(ctx, followedID); err != nil {
		return err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	inserted, err := s.followRepo.Create(ctx, tx, followerID, followedID)
	if err != nil {
		return err
	}

	if !inserted {
		return model.ErrAlreadyFollowing
	}

	if err := s.userRepo.IncrementFollowerCount(ctx, tx, followedID, 1); err != nil {
		return err
	}

	if err := s.userRepo.IncrementFollowingCount(ctx, tx, followerID, 1); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	// Publish after commit; timeline backfill and notification are async
	if s.publisher != nil {
		event := queue.NewUserFollowedEvent(followerID, followedID)
		if _, err := s.publisher.Publish(ctx, queue.StreamSocial, event); err != nil {
			log.Printf("[FollowService] publish UserFollowed FAILED: follower=%d followed=%d err=%v",
				followerID, followedID, err)
		}
	}

	return nil
}

// Unfollow removes the follow edge if present and appends an unfollow history
// record. Removing an absent edge is a no-op, but the history pair is unique:
// a second unfollow of the same user fails with ErrAlreadyUnfollowed.
func (s *FollowService) Unfollow(ctx context.Context, unfollowerID, unfollowedID int64) error {
	if unfollowerID == unfollowedID {
		return model.ErrCannotUnfollowSelf
	}

	if _, err := s.userRepo.GetByID(ctx, unfollowedID); err != nil {
		return err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	recorded, err := s.followRepo.CreateUnfollow(ctx, tx, unfollowerID, unfollowedID)
	if err != nil {
		return err
	}
	if !recorded {
		return model.ErrAlreadyUnfollowed
	}

	deleted, err := s.followRepo.Delete(ctx, tx, unfollowerID, unfollowedID)
	if err != nil {
		return err
	}

	// Counters only move when an edge actually existed
	if deleted {
		if err := s.userRepo.IncrementFollowerCount(ctx, tx, unfollowedID, -1); err != nil {
			return err
		}
		if err := s.userRepo.IncrementFollowingCount(ctx, tx, unfollowerID, -1); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	if deleted && s.publisher != nil {
		event := queue.NewUserUnfollowedEvent(unfollowerID, unfollowedID)
		if _, err := s.publisher.Publish(ctx, queue.StreamSocial, event); err != nil {
			log.Printf("[FollowService] publish UserUnfollowed FAILED: follower=%d followed=%d err=%v",
				unfollowerID, unfollowedID, err)
		}
	}

	return nil
}

// GetFollowers retrieves users who follow the specified user with cursor-based
// pagination. Cursor is the followed_at timestamp of the last item; the
// viewer's follow status is filled in with a single batch query.
func (s *FollowService) GetFollowers(ctx context.Context, userID int64, cursor *time.Time, limit int, viewer *authz.Actor) (*model.FollowListResponse, error) {
	users, nextCursor, err := s.followRepo.GetFollowers(ctx, userID, cursor, limit)
	if err != nil {
		return nil, err
	}

	if viewer != nil {
		users = s.enrichWithFollowStatus(ctx, viewer.ID, users)
	}

	var nextCursorStr *string
	if nextCursor != nil {
		str := nextCursor.Format(time.RFC3339Nano)
		nextCursorStr = &str
	}

	return &model.FollowListResponse{
		Users:      users,
		NextCursor: nextCursorStr,
		HasMore:    nextCursor != nil,
	}, nil
}

// GetFollowing retrieves users the specified user follows. See GetFollowers
// for pagination semantics.
func (s *FollowService) GetFollowing(ctx context.Context, userID int64, cursor *time.Time, limit int, viewer *authz.Actor) (*model.FollowListResponse, error) {
	users, nextCursor, err := s.followRepo.GetFollowing(ctx, userID, cursor, limit)
	if err != nil {
		return nil, err
	}

	if viewer != nil {
		users = s.enrichWithFollowStatus(ctx, viewer.ID, users)
	}

	var nextCursorStr *string
	if nextCursor != nil {
		str := nextCursor.Format(time.RFC3339Nano)
		nextCursorStr = &str
	}

	return &model.FollowListResponse{
		Users:      users,
		NextCursor: nextCursorStr,
		HasMore:    nextCursor != nil,
	}, nil
}

// ListFollows returns raw follow records with participant filters. Any
// authenticated user may list them.
func (s *FollowService) ListFollows(ctx context.Context, actor *authz.Actor, filter model.FollowFilter, cursor *string, limit int) (*model.FollowRecordListResponse, error) {
	if err := authz.Authorize(actor, authz.OpList, nil); err != nil {
		return nil, err
	}

	follows, nextCursor, err := s.followRepo.List(ctx, filter, cursor, limit)
	if err != nil {
		return nil, err
	}

	return &model.FollowRecordListResponse{
		Follows:    follows,
		NextCursor: nextCursor,
		HasMore:    nextCursor != nil,
	}, nil
}

// GetFollowRecord returns a single follow record.
func (s *FollowService) GetFollowRecord(ctx context.Context, actor *authz.Actor, id int64) (*model.Follow, error) {
	follow, err := s.followRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authz.Authorize(actor, authz.OpRetrieve, follow); err != nil {
		return nil, err
	}
	return follow, nil
}

// DeleteFollowRecord removes a follow record directly. Follow records are
// immutable audit entries, so this passes authorization only for admins.
func (s *FollowService) DeleteFollowRecord(ctx context.Context, actor *authz.Actor, id int64) error {
	follow, err := s.followRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := authz.Authorize(actor, authz.OpDelete, follow); err != nil {
		return err
	}

	return s.followRepo.DeleteByID(ctx, id)
}

// ListUnfollows returns unfollow history records with participant filters.
func (s *FollowService) ListUnfollows(ctx context.Context, actor *authz.Actor, filter model.UnfollowFilter, cursor *string, limit int) (*model.UnfollowRecordListResponse, error) {
	if err := authz.Authorize(actor, authz.OpList, nil); err != nil {
		return nil, err
	}

	unfollows, nextCursor, err := s.followRepo.ListUnfollows(ctx, filter, cursor, limit)
	if err != nil {
		return nil, err
	}

	return &model.UnfollowRecordListResponse{
		Unfollows:  unfollows,
		NextCursor: nextCursor,
		HasMore:    nextCursor != nil,
	}, nil
}

// GetUnfollowRecord returns a single unfollow history record.
func (s *FollowService) GetUnfollowRecord(ctx context.Context, actor *authz.Actor, id int64) (*model.Unfollow, error) {
	unfollow, err := s.followRepo.GetUnfollowByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authz.Authorize(actor, authz.OpRetrieve, unfollow); err != nil {
		return nil, err
	}
	return unfollow, nil
}

// DeleteUnfollowRecord removes an unfollow history record. Admin only, same
// as follow records.
func (s *FollowService) DeleteUnfollowRecord(ctx context.Context, actor *authz.Actor, id int64) error {
	unfollow, err := s.followRepo.GetUnfollowByID(ctx, id)
	if err != nil {
		return err
	}

	if err := authz.Authorize(actor, authz.OpDelete, unfollow); err != nil {
		return err
	}

	return s.followRepo.DeleteUnfollowByID(ctx, id)
}

// enrichWithFollowStatus batch-checks whether the viewer follows each user in
// the list with one ANY($1) query. A failed check degrades to
// is_following=false rather than failing the request.
func (s *FollowService) enrichWithFollowStatus(ctx context.Context, viewerID int64, users []model.UserSummary) []model.UserSummary {
	if len(users) == 0 {
		return users
	}

	userIDs := make([]int64, len(users))
	for i, user := range users {
		userIDs[i] = user.ID
	}

	followMap, err := s.followRepo.CheckFollows(ctx, viewerID, userIDs)
	if err != nil {
		return users
	}

	for i := range users {
		users[i].IsFollowing = followMap[users[i].ID]
	}

	return users
}
