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

// PostService handles business logic for posts and likes. Like/unlike share
// the post's transaction boundary with the counter updates.
type PostService struct {
	postRepo   repository.PostRepository
	likeRepo   repository.LikeRepository
	followRepo repository.FollowRepository
	db         *sqlx.DB
	publisher  queue.Publisher
}

func NewPostService(
	postRepo repository.PostRepository,
	likeRepo repository.LikeRepository,
	followRepo repository.FollowRepository,
	db *sqlx.DB,
	publisher queue.Publisher,
) *PostService {
	return &PostService{
		postRepo:   postRepo,
		likeRepo:   likeRepo,
		followRepo: followRepo,
		db:         db,
		publisher:  publisher,
	}
}

func validatePostTitle(title string) error {
	if strings.TrimSpace(title) == "" {
		return model.ErrTitleRequired
	}
	if len(title) > model.MaxPostTitleLength {
		return model.ErrTitleTooLong
	}
	return nil
}

func validatePostContent(content string) error {
	if strings.TrimSpace(content) == "" {
		return model.ErrPostContentMissing
	}
	if len(content) > model.MaxPostContentLength {
		return model.ErrPostContentTooLong
	}
	return nil
}

// Create publishes a new post authored by the actor.
func (s *PostService) Create(ctx context.Context, actor *authz.Actor, req *model.CreatePostRequest) (*model.Post, error) {
	if err := authz.Authorize(actor, authz.OpCreate, nil); err != nil {
		return nil, err
	}

	if err := validatePostTitle(req.Title); err != nil {
		return nil, err
	}
	if err := validatePostContent(req.Content); err != nil {
		return nil, err
	}

	post := &model.Post{
		AuthorID: actor.ID,
		Title:    req.Title,
		Content:  req.Content,
		MediaURL: req.MediaURL,
	}

	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, fmt.Errorf("failed to create post: %w", err)
	}

	// Fan-out to follower timelines is async
	if s.publisher != nil {
		event := queue.NewPostCreatedEvent(post.ID, post.AuthorID)
		if _, err := s.publisher.Publish(ctx, queue.StreamSocial, event); err != nil {
			log.Printf("[PostService] publish PostCreated FAILED: post=%d err=%v", post.ID, err)
		}
	}

	return post, nil
}

// GetByID retrieves a post with the viewer's like status.
func (s *PostService) GetByID(ctx context.Context, actor *authz.Actor, postID int64) (*model.Post, error) {
	if err := authz.Authorize(actor, authz.OpRetrieve, nil); err != nil {
		return nil, err
	}

	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}

	likeMap, err := s.likeRepo.CheckLikes(ctx, actor.ID, []int64{postID})
	if err == nil {
		post.IsLiked = likeMap[postID]
	}

	return post, nil
}

// List returns posts matching the filter, newest first.
func (s *PostService) List(ctx context.Context, actor *authz.Actor, filter model.PostFilter, cursor *string, limit int) (*model.PostListResponse, error) {
	if err := authz.Authorize(actor, authz.OpList, nil); err != nil {
		return nil, err
	}

	posts, nextCursor, err := s.postRepo.List(ctx, filter, cursor, limit)
	if err != nil {
		return nil, err
	}

	s.enrichWithLikeStatus(ctx, actor.ID, posts)

	return &model.PostListResponse{
		Posts:      posts,
		NextCursor: nextCursor,
		HasMore:    nextCursor != nil,
	}, nil
}

// Update applies partial changes to a post. Owner or admin only; the
// published timestamp never changes.
func (s *PostService) Update(ctx context.Context, actor *authz.Actor, postID int64, req *model.UpdatePostRequest) (*model.Post, error) {
	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}

	if err := authz.Authorize(actor, authz.OpUpdate, post); err != nil {
		return nil, err
	}

	if req.Title != nil {
		if err := validatePostTitle(*req.Title); err != nil {
			return nil, err
		}
		post.Title = *req.Title
	}

	if req.Content != nil {
		if err := validatePostContent(*req.Content); err != nil {
			return nil, err
		}
		post.Content = *req.Content
	}

	if req.MediaURL != nil {
		post.MediaURL = req.MediaURL
	}

	if err := s.postRepo.Update(ctx, post); err != nil {
		return nil, fmt.Errorf("failed to update post: %w", err)
	}

	return post, nil
}

// Delete removes a post and, via the store's cascade, its comments and likes.
// Owner or admin only.
func (s *PostService) Delete(ctx context.Context, actor *authz.Actor, postID int64) error {
	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return err
	}

	if err := authz.Authorize(actor, authz.OpDelete, post); err != nil {
		return err
	}

	if err := s.postRepo.Delete(ctx, postID); err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}

	if s.publisher != nil {
		event := queue.NewPostDeletedEvent(postID, post.AuthorID)
		if _, err := s.publisher.Publish(ctx, queue.StreamSocial, event); err != nil {
			log.Printf("[PostService] publish PostDeleted FAILED: post=%d err=%v", postID, err)
		}
	}

	return nil
}

// Like records the actor's like on a post. Duplicate likes fail; the post's
// like counter moves in the same transaction as the insert.
func (s *PostService) Like(ctx context.Context, actor *authz.Actor, postID int64) error {
	if err := authz.Authorize(actor, authz.OpCreate, nil); err != nil {
		return err
	}

	authorID, err := s.postRepo.GetAuthorID(ctx, postID)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	inserted, err := s.likeRepo.Create(ctx, tx, actor.ID, postID)
	if err != nil {
		return err
	}

	if !inserted {
		return model.ErrAlreadyLiked
	}

	if err := s.postRepo.IncrementLikeCount(ctx, tx, postID, 1); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	if s.publisher != nil {
		event := queue.NewPostLikedEvent(postID, actor.ID, authorID)
		if _, err := s.publisher.Publish(ctx, queue.StreamSocial, event); err != nil {
			log.Printf("[PostService] publish PostLiked FAILED: post=%d actor=%d err=%v", postID, actor.ID, err)
		}
	}

	return nil
}

// Unlike removes the actor's like. Unliking a post that is not liked fails
// with ErrNotLiked.
func (s *PostService) Unlike(ctx context.Context, actor *authz.Actor, postID int64) error {
	if actor == nil {
		return authz.ErrUnauthenticated
	}

	if _, err := s.postRepo.GetAuthorID(ctx, postID); err != nil {
		return err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.likeRepo.Delete(ctx, tx, actor.ID, postID); err != nil {
		return err
	}

	if err := s.postRepo.IncrementLikeCount(ctx, tx, postID, -1); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// GetPostLikers lists the users who liked a post.
func (s *PostService) GetPostLikers(ctx context.Context, actor *authz.Actor, postID int64, cursor *string, limit int) (*model.LikersListResponse, error) {
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

	users, nextCursor, err := s.likeRepo.GetPostLikers(ctx, postID, cursor, limit)
	if err != nil {
		return nil, err
	}

	if len(users) > 0 {
		userIDs := make([]int64, len(users))
		for i, user := range users {
			userIDs[i] = user.ID
		}
		followMap, err := s.followRepo.CheckFollows(ctx, actor.ID, userIDs)
		if err == nil {
			for i := range users {
				users[i].IsFollowing = followMap[users[i].ID]
			}
		}
	}

	return &model.LikersListResponse{
		Users:      users,
		NextCursor: nextCursor,
		HasMore:    nextCursor != nil,
	}, nil
}

// ListLikes returns raw like records with filters.
func (s *PostService) ListLikes(ctx context.Context, actor *authz.Actor, filter model.LikeFilter, cursor *string, limit int) (*model.LikeListResponse, error) {
	if err := authz.Authorize(actor, authz.OpList, nil); err != nil {
		return nil, err
	}

	likes, nextCursor, err := s.likeRepo.List(ctx, filter, cursor, limit)
	if err != nil {
		return nil, err
	}

	return &model.LikeListResponse{
		Likes:      likes,
		NextCursor: nextCursor,
		HasMore:    nextCursor != nil,
	}, nil
}

// GetLikeRecord returns a single like record.
func (s *PostService) GetLikeRecord(ctx context.Context, actor *authz.Actor, id int64) (*model.Like, error) {
	like, err := s.likeRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authz.Authorize(actor, authz.OpRetrieve, like); err != nil {
		return nil, err
	}
	return like, nil
}

// DeleteLikeRecord removes a like by record id. Owner or admin only; the
// post's like counter moves in the same transaction.
func (s *PostService) DeleteLikeRecord(ctx context.Context, actor *authz.Actor, id int64) error {
	like, err := s.likeRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := authz.Authorize(actor, authz.OpDelete, like); err != nil {
		return err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.likeRepo.DeleteByID(ctx, tx, id); err != nil {
		return err
	}

	if err := s.postRepo.IncrementLikeCount(ctx, tx, like.PostID, -1); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// enrichWithLikeStatus batch-checks the viewer's likes with one ANY($1)
// query. A failed check leaves is_liked=false.
func (s *PostService) enrichWithLikeStatus(ctx context.Context, viewerID int64, posts []model.Post) {
	if len(posts) == 0 {
		return
	}

	postIDs := make([]int64, len(posts))
	for i, post := range posts {
		postIDs[i] = post.ID
	}

	likeMap, err := s.likeRepo.CheckLikes(ctx, viewerID, postIDs)
	if err != nil {
		return
	}

	for i := range posts {
		posts[i].IsLiked = likeMap[posts[i].ID]
	}
}
