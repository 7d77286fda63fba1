package service

import (
	"context"
	"errors"
	"testing"

	"socialnet/internal/authz"
	"socialnet/internal/model"
	"socialnet/internal/queue"
)

func TestFollowService_Follow_Success(t *testing.T) {
	// ARRANGE
	userRepo := &mockUserRepository{
		getByIDFn: func(ctx context.Context, id int64) (*model.User, error) {
			return &model.User{ID: id}, nil
		},
	}
	followRepo := &mockFollowRepository{}
	publisher := &mockPublisher{}
	svc := NewFollowService(followRepo, userRepo, newTestDB(t), publisher)

	// ACT
	err := svc.Follow(context.Background(), 1, 2)

	// ASSERT
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if userRepo.followerCountDeltas[2] != 1 {
		t.Errorf("expected follower count of 2 to move by +1, got %d", userRepo.followerCountDeltas[2])
	}
	if userRepo.followingCountDeltas[1] != 1 {
		t.Errorf("expected following count of 1 to move by +1, got %d", userRepo.followingCountDeltas[1])
	}
	if len(publisher.events) != 1 || publisher.events[0].Type != queue.EventUserFollowed {
		t.Errorf("expected one user_followed event, got %+v", publisher.events)
	}
}

func TestFollowService_Follow_Self(t *testing.T) {
	// ARRANGE
	svc := NewFollowService(&mockFollowRepository{}, &mockUserRepository{}, newTestDB(t), nil)

	// ACT
	err := svc.Follow(context.Background(), 1, 1)

	// ASSERT
	if !errors.Is(err, model.ErrCannotFollowSelf) {
		t.Errorf("expected ErrCannotFollowSelf, got %v", err)
	}
}

func TestFollowService_Follow_TargetNotFound(t *testing.T) {
	// ARRANGE: default user mock returns ErrUserNotFound
	svc := NewFollowService(&mockFollowRepository{}, &mockUserRepository{}, newTestDB(t), nil)

	// ACT
	err := svc.Follow(context.Background(), 1, 2)

	// ASSERT
	if !errors.Is(err, model.ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound, got %v", err)
	}
}

func TestFollowService_Follow_Duplicate(t *testing.T) {
	// ARRANGE
	userRepo := &mockUserRepository{
		getByIDFn: func(ctx context.Context, id int64) (*model.User, error) {
			return &model.User{ID: id}, nil
		},
	}
	followRepo := &mockFollowRepository{
		createFn: func(ctx context.Context, followerID, followedID int64) (bool, error) {
			return false, nil
		},
	}
	publisher := &mockPublisher{}
	svc := NewFollowService(followRepo, userRepo, newTestDB(t), publisher)

	// ACT
	err := svc.Follow(context.Background(), 1, 2)

	// ASSERT
	if !errors.Is(err, model.ErrAlreadyFollowing) {
		t.Errorf("expected ErrAlreadyFollowing, got %v", err)
	}
	if len(userRepo.followerCountDeltas) != 0 {
		t.Error("counters must not move on a duplicate follow")
	}
	if len(publisher.events) != 0 {
		t.Error("no event should be published on a duplicate follow")
	}
}

func TestFollowService_Follow_Directional(t *testing.T) {
	// A follows B must not block B follows A.

	// ARRANGE
	type pair struct{ follower, followed int64 }
	var created []pair
	userRepo := &mockUserRepository{
		getByIDFn: func(ctx context.Context, id int64) (*model.User, error) {
			return &model.User{ID: id}, nil
		},
	}
	followRepo := &mockFollowRepository{
		createFn: func(ctx context.Context, followerID, followedID int64) (bool, error) {
			for _, p := range created {
				if p.follower == followerID && p.followed == followedID {
					return false, nil
				}
			}
			created = append(created, pair{followerID, followedID})
			return true, nil
		},
	}
	svc := NewFollowService(followRepo, userRepo, newTestDB(t), nil)

	// ACT
	errAB := svc.Follow(context.Background(), 1, 2)
	errBA := svc.Follow(context.Background(), 2, 1)

	// ASSERT
	if errAB != nil || errBA != nil {
		t.Fatalf("both directions should succeed, got %v and %v", errAB, errBA)
	}
	if len(created) != 2 {
		t.Errorf("expected 2 edges, got %d", len(created))
	}
}

func TestFollowService_Unfollow_Success(t *testing.T) {
	// ARRANGE
	userRepo := &mockUserRepository{
		getByIDFn: func(ctx context.Context, id int64) (*model.User, error) {
			return &model.User{ID: id}, nil
		},
	}
	followRepo := &mockFollowRepository{}
	publisher := &mockPublisher{}
	svc := NewFollowService(followRepo, userRepo, newTestDB(t), publisher)

	// ACT
	err := svc.Unfollow(context.Background(), 1, 2)

	// ASSERT
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if userRepo.followerCountDeltas[2] != -1 {
		t.Errorf("expected follower count of 2 to move by -1, got %d", userRepo.followerCountDeltas[2])
	}
	if userRepo.followingCountDeltas[1] != -1 {
		t.Errorf("expected following count of 1 to move by -1, got %d", userRepo.followingCountDeltas[1])
	}
	if len(publisher.events) != 1 || publisher.events[0].Type != queue.EventUserUnfollowed {
		t.Errorf("expected one user_unfollowed event, got %+v", publisher.events)
	}
}

func TestFollowService_Unfollow_EdgeAbsent(t *testing.T) {
	// Unfollowing a user that was never followed still records history but
	// moves no counters and publishes nothing.

	// ARRANGE
	userRepo := &mockUserRepository{
		getByIDFn: func(ctx context.Context, id int64) (*model.User, error) {
			return &model.User{ID: id}, nil
		},
	}
	recorded := false
	followRepo := &mockFollowRepository{
		createUnfollowFn: func(ctx context.Context, unfollowerID, unfollowedID int64) (bool, error) {
			recorded = true
			return true, nil
		},
		deleteFn: func(ctx context.Context, followerID, followedID int64) (bool, error) {
			return false, nil
		},
	}
	publisher := &mockPublisher{}
	svc := NewFollowService(followRepo, userRepo, newTestDB(t), publisher)

	// ACT
	err := svc.Unfollow(context.Background(), 1, 2)

	// ASSERT
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !recorded {
		t.Error("history record should still be written")
	}
	if len(userRepo.followerCountDeltas) != 0 || len(userRepo.followingCountDeltas) != 0 {
		t.Error("counters must not move when no edge was deleted")
	}
	if len(publisher.events) != 0 {
		t.Error("no event should be published when no edge was deleted")
	}
}

func TestFollowService_Unfollow_Duplicate(t *testing.T) {
	// ARRANGE
	userRepo := &mockUserRepository{
		getByIDFn: func(ctx context.Context, id int64) (*model.User, error) {
			return &model.User{ID: id}, nil
		},
	}
	followRepo := &mockFollowRepository{
		createUnfollowFn: func(ctx context.Context, unfollowerID, unfollowedID int64) (bool, error) {
			return false, nil
		},
	}
	svc := NewFollowService(followRepo, userRepo, newTestDB(t), nil)

	// ACT
	err := svc.Unfollow(context.Background(), 1, 2)

	// ASSERT
	if !errors.Is(err, model.ErrAlreadyUnfollowed) {
		t.Errorf("expected ErrAlreadyUnfollowed, got %v", err)
	}
}

func TestFollowService_Unfollow_Self(t *testing.T) {
	// ARRANGE
	svc := NewFollowService(&mockFollowRepository{}, &mockUserRepository{}, newTestDB(t), nil)

	// ACT
	err := svc.Unfollow(context.Background(), 1, 1)

	// ASSERT
	if !errors.Is(err, model.ErrCannotUnfollowSelf) {
		t.Errorf("expected ErrCannotUnfollowSelf, got %v", err)
	}
}

func TestFollowService_DeleteFollowRecord_OwnerForbidden(t *testing.T) {
	// ARRANGE
	followRepo := &mockFollowRepository{
		getByIDFn: func(ctx context.Context, id int64) (*model.Follow, error) {
			return &model.Follow{ID: id, FollowerID: 7, FollowedID: 42}, nil
		},
	}
	svc := NewFollowService(followRepo, &mockUserRepository{}, newTestDB(t), nil)

	// ACT: the follower themselves may not delete the raw record
	err := svc.DeleteFollowRecord(context.Background(), &authz.Actor{ID: 7}, 1)

	// ASSERT
	if !errors.Is(err, authz.ErrForbidden) {
		t.Errorf("expected ErrForbidden, got %v", err)
	}
	if len(followRepo.deleteByIDCalls) != 0 {
		t.Error("record must not be deleted")
	}
}

func TestFollowService_DeleteFollowRecord_Admin(t *testing.T) {
	// ARRANGE
	followRepo := &mockFollowRepository{
		getByIDFn: func(ctx context.Context, id int64) (*model.Follow, error) {
			return &model.Follow{ID: id, FollowerID: 7, FollowedID: 42}, nil
		},
	}
	svc := NewFollowService(followRepo, &mockUserRepository{}, newTestDB(t), nil)

	// ACT
	err := svc.DeleteFollowRecord(context.Background(), &authz.Actor{ID: 99, IsAdmin: true}, 1)

	// ASSERT
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(followRepo.deleteByIDCalls) != 1 {
		t.Errorf("expected 1 delete call, got %d", len(followRepo.deleteByIDCalls))
	}
}

func TestFollowService_DeleteUnfollowRecord_OwnerForbidden(t *testing.T) {
	// ARRANGE
	followRepo := &mockFollowRepository{
		getUnfollowFn: func(ctx context.Context, id int64) (*model.Unfollow, error) {
			return &model.Unfollow{ID: id, UnfollowerID: 7, UnfollowedID: 42}, nil
		},
	}
	svc := NewFollowService(followRepo, &mockUserRepository{}, newTestDB(t), nil)

	// ACT
	err := svc.DeleteUnfollowRecord(context.Background(), &authz.Actor{ID: 7}, 1)

	// ASSERT
	if !errors.Is(err, authz.ErrForbidden) {
		t.Errorf("expected ErrForbidden, got %v", err)
	}
	if len(followRepo.deleteUnfollowByIDCalls) != 0 {
		t.Error("history record must not be deleted")
	}
}

func TestFollowService_ListFollows_RequiresActor(t *testing.T) {
	// ARRANGE
	svc := NewFollowService(&mockFollowRepository{}, &mockUserRepository{}, newTestDB(t), nil)

	// ACT
	_, err := svc.ListFollows(context.Background(), nil, model.FollowFilter{}, nil, 20)

	// ASSERT
	if !errors.Is(err, authz.ErrUnauthenticated) {
		t.Errorf("expected ErrUnauthenticated, got %v", err)
	}
}
