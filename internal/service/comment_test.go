package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"socialnet/internal/authz"
	"socialnet/internal/model"
	"socialnet/internal/queue"
)

func TestCommentService_Create_Success(t *testing.T) {
	// ARRANGE
	postRepo := &mockPostRepository{
		getAuthorIDFn: func(ctx context.Context, postID int64) (int64, error) {
			return 42, nil
		},
	}
	publisher := &mockPublisher{}
	svc := NewCommentService(&mockCommentRepository{}, postRepo, newTestDB(t), publisher)

	// ACT
	comment, err := svc.Create(context.Background(), &authz.Actor{ID: 7}, 1, &model.CreateCommentRequest{
		Body: "nice post",
	})

	// ASSERT
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if comment.AuthorID != 7 || comment.PostID != 1 {
		t.Errorf("unexpected comment fields: %+v", comment)
	}
	if postRepo.commentCountDeltas[1] != 1 {
		t.Errorf("expected comment count to move by +1, got %d", postRepo.commentCountDeltas[1])
	}
	if len(publisher.events) != 1 {
		t.Fatalf("expected one event, got %d", len(publisher.events))
	}
	event := publisher.events[0]
	if event.Type != queue.EventPostCommented || event.ActorID != 7 || event.AuthorID != 42 {
		t.Errorf("unexpected event: %+v", event)
	}
}

func TestCommentService_Create_Validation(t *testing.T) {
	// ARRANGE
	svc := NewCommentService(&mockCommentRepository{}, &mockPostRepository{}, newTestDB(t), nil)
	actor := &authz.Actor{ID: 7}

	tests := []struct {
		name    string
		body    string
		wantErr error
	}{
		{"empty body", "   ", model.ErrBodyRequired},
		{"body too long", strings.Repeat("a", model.MaxCommentBodyLength+1), model.ErrBodyTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// ACT
			_, err := svc.Create(context.Background(), actor, 1, &model.CreateCommentRequest{Body: tt.body})

			// ASSERT
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestCommentService_Create_PostNotFound(t *testing.T) {
	// ARRANGE: default post mock returns ErrPostNotFound from GetAuthorID
	postRepo := &mockPostRepository{}
	svc := NewCommentService(&mockCommentRepository{}, postRepo, newTestDB(t), nil)

	// ACT
	_, err := svc.Create(context.Background(), &authz.Actor{ID: 7}, 1, &model.CreateCommentRequest{Body: "hi"})

	// ASSERT
	if !errors.Is(err, model.ErrPostNotFound) {
		t.Errorf("expected ErrPostNotFound, got %v", err)
	}
	if len(postRepo.commentCountDeltas) != 0 {
		t.Error("comment count must not move for a missing post")
	}
}

func TestCommentService_Update_NonOwnerForbidden(t *testing.T) {
	// ARRANGE
	commentRepo := &mockCommentRepository{
		getByIDFn: func(ctx context.Context, commentID int64) (*model.Comment, error) {
			return &model.Comment{ID: commentID, PostID: 1, AuthorID: 42, Body: "original"}, nil
		},
	}
	svc := NewCommentService(commentRepo, &mockPostRepository{}, newTestDB(t), nil)

	// ACT
	_, err := svc.Update(context.Background(), &authz.Actor{ID: 7}, 5, &model.UpdateCommentRequest{Body: "edited"})

	// ASSERT
	if !errors.Is(err, authz.ErrForbidden) {
		t.Errorf("expected ErrForbidden, got %v", err)
	}
}

func TestCommentService_Update_Owner(t *testing.T) {
	// ARRANGE
	commentRepo := &mockCommentRepository{
		getByIDFn: func(ctx context.Context, commentID int64) (*model.Comment, error) {
			return &model.Comment{ID: commentID, PostID: 1, AuthorID: 7, Body: "original"}, nil
		},
	}
	svc := NewCommentService(commentRepo, &mockPostRepository{}, newTestDB(t), nil)

	// ACT
	comment, err := svc.Update(context.Background(), &authz.Actor{ID: 7}, 5, &model.UpdateCommentRequest{Body: "edited"})

	// ASSERT
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if comment.Body != "edited" {
		t.Errorf("expected body %q, got %q", "edited", comment.Body)
	}
}

func TestCommentService_Delete_OwnerMovesCounter(t *testing.T) {
	// ARRANGE
	commentRepo := &mockCommentRepository{
		getByIDFn: func(ctx context.Context, commentID int64) (*model.Comment, error) {
			return &model.Comment{ID: commentID, PostID: 3, AuthorID: 7}, nil
		},
	}
	postRepo := &mockPostRepository{}
	svc := NewCommentService(commentRepo, postRepo, newTestDB(t), nil)

	// ACT
	err := svc.Delete(context.Background(), &authz.Actor{ID: 7}, 5)

	// ASSERT
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(commentRepo.deleteCalls) != 1 {
		t.Errorf("expected 1 delete call, got %d", len(commentRepo.deleteCalls))
	}
	if postRepo.commentCountDeltas[3] != -1 {
		t.Errorf("expected comment count of post 3 to move by -1, got %d", postRepo.commentCountDeltas[3])
	}
}

func TestCommentService_Delete_NonOwnerForbidden(t *testing.T) {
	// ARRANGE
	commentRepo := &mockCommentRepository{
		getByIDFn: func(ctx context.Context, commentID int64) (*model.Comment, error) {
			return &model.Comment{ID: commentID, PostID: 3, AuthorID: 42}, nil
		},
	}
	svc := NewCommentService(commentRepo, &mockPostRepository{}, newTestDB(t), nil)

	// ACT
	err := svc.Delete(context.Background(), &authz.Actor{ID: 7}, 5)

	// ASSERT
	if !errors.Is(err, authz.ErrForbidden) {
		t.Errorf("expected ErrForbidden, got %v", err)
	}
	if len(commentRepo.deleteCalls) != 0 {
		t.Error("comment must not be deleted")
	}
}
