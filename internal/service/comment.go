package service

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/jmoiron/sqlx"

	"socialnet/internal/authz"
	"socialnet/internal/model"
	"socialnet/internal/queue"
	"socialnet/internal/repository"
)

// CommentService handles business logic for comments. Creation and deletion
// move the post's comment counter in the same transaction.
type CommentService struct {
	commentRepo repository.CommentRepository
	postRepo    repository.PostRepository
	db          *sqlx.DB
	publisher   queue.Publisher
}

func NewCommentService(
	commentRepo repository.CommentRepository,
	postRepo repository.PostRepository,
	db *sqlx.DB,
	publisher queue.Publisher,
) *CommentService {
	return &CommentService{
		commentRepo: commentRepo,
		postRepo:    postRepo,
		db:          db,
		publisher:   publisher,
	}
}

func validateCommentBody(body string) error {
	if strings.TrimSpace(body) == "" {
		return model.ErrBodyRequired
	}
	if len(body) > model.MaxCommentBodyLength {
		return model.ErrBodyTooLong
	}
	return nil
}

// Create adds a comment authored by the actor to a post.
func (s *CommentService) Create(ctx context.Context, actor *authz.Actor, postID int64, req *model.CreateCommentRequest) (*model.Comment, error) {
	if err := authz.Authorize(actor, authz.OpCreate, nil); err != nil {
		return nil, err
	}

	if err := validateCommentBody(req.Body); err != nil {
		return nil, err
	}

	authorID, err := s.postRepo.GetAuthorID(ctx, postID)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	comment, err := s.commentRepo.Create(ctx, tx, postID, actor.ID, req.Body)
	if err != nil {
		return nil, err
	}

	if err := s.postRepo.IncrementCommentCount(ctx, tx, postID, 1); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	if s.publisher != nil {
		event := queue.NewPostCommentedEvent(postID, comment.ID, actor.ID, authorID)
		if _, err := s.publisher.Publish(ctx, queue.StreamSocial, event); err != nil {
			log.Printf("[CommentService] publish PostCommented FAILED: post=%d comment=%d err=%v",
				postID, comment.ID, err)
		}
	}

	return comment, nil
}

// GetByID retrieves a comment.
func (s *CommentService) GetByID(ctx context.Context, actor *authz.Actor, commentID int64) (*model.Comment, error) {
	if err := authz.Authorize(actor, authz.OpRetrieve, nil); err != nil {
		return nil, err
	}
	return s.commentRepo.GetByID(ctx, commentID)
}

// Update replaces a comment's body. Owner or admin only.
func (s *CommentService) Update(ctx context.Context, actor *authz.Actor, commentID int64, req *model.UpdateCommentRequest) (*model.Comment, error) {
	comment, err := s.commentRepo.GetByID(ctx, commentID)
	if err != nil {
		return nil, err
	}

	if err := authz.Authorize(actor, authz.OpUpdate, comment); err != nil {
		return nil, err
	}

	if err := validateCommentBody(req.Body); err != nil {
		return nil, err
	}

	return s.commentRepo.Update(ctx, commentID, req.Body)
}

// Delete removes a comment. Owner or admin only; the post's comment counter
// moves in the same transaction.
func (s *CommentService) Delete(ctx context.Context, actor *authz.Actor, commentID int64) error {
	comment, err := s.commentRepo.GetByID(ctx, commentID)
	if err != nil {
		return err
	}

	if err := authz.Authorize(actor, authz.OpDelete, comment); err != nil {
		return err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.commentRepo.Delete(ctx, tx, commentID); err != nil {
		return err
	}

	if err := s.postRepo.IncrementCommentCount(ctx, tx, comment.PostID, -1); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// GetByPostID lists a post's comments, oldest context preserved by cursor.
func (s *CommentService) GetByPostID(ctx context.Context, actor *authz.Actor, postID int64, cursor *string, limit int) (*model.CommentListResponse, error) {
	if err := authz.Authorize(actor, authz.OpList, nil); err != nil {
		return nil, err
	}

	exists, err := s.postRepo.Exists(ctx, postID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, model.ErrPostNotFound
	}

	comments, nextCursor, err := s.commentRepo.GetByPostID(ctx, postID, cursor, limit)
	if err != nil {
		return nil, err
	}

	return &model.CommentListResponse{
		Comments:   comments,
		NextCursor: nextCursor,
		HasMore:    nextCursor != nil,
	}, nil
}

// List returns comments across posts matching the filter.
func (s *CommentService) List(ctx context.Context, actor *authz.Actor, filter model.CommentFilter, cursor *string, limit int) (*model.CommentListResponse, error) {
	if err := authz.Authorize(actor, authz.OpList, nil); err != nil {
		return nil, err
	}

	comments, nextCursor, err := s.commentRepo.List(ctx, filter, cursor, limit)
	if err != nil {
		return nil, err
	}

	return &model.CommentListResponse{
		Comments:   comments,
		NextCursor: nextCursor,
		HasMore:    nextCursor != nil,
	}, nil
}
