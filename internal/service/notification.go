package service

import (
	"context"
	"fmt"
	"log"

	"socialnet/internal/model"
	"socialnet/internal/repository"
)

const (
	// NotificationDefaultLimit is the default page size per section
	NotificationDefaultLimit = 20

	// NotificationMaxLimit is the maximum page size per section
	NotificationMaxLimit = 50
)

// NotificationService handles notification listing and read state. Creation
// happens in the background workers reacting to social events.
type NotificationService struct {
	repo repository.NotificationRepository
}

func NewNotificationService(repo repository.NotificationRepository) *NotificationService {
	return &NotificationService{repo: repo}
}

// Notify records a notification for a user. Self-notifications are dropped:
// liking or commenting on your own post stays silent.
func (s *NotificationService) Notify(ctx context.Context, userID, actorID int64, notifType string, postID, commentID *int64) error {
	if userID == actorID {
		return nil
	}

	if err := s.repo.Create(ctx, userID, actorID, notifType, postID, commentID); err != nil {
		return fmt.Errorf("create notification: %w", err)
	}

	log.Printf("[NotificationService] notify: user=%d actor=%d type=%s", userID, actorID, notifType)
	return nil
}

// List returns the user's notifications newest first. Follow notifications
// stay individual; likes and comments collapse into per-post groups. The
// unread count is computed from the fetched rows, no extra query.
func (s *NotificationService) List(ctx context.Context, userID int64, limit int) (*model.NotificationListResponse, error) {
	if limit <= 0 {
		limit = NotificationDefaultLimit
	}
	if limit > NotificationMaxLimit {
		limit = NotificationMaxLimit
	}

	follows, followUnread, err := s.repo.GetFollowNotifications(ctx, userID, limit)
	if err != nil {
		return nil, err
	}

	aggregated, aggUnread, err := s.repo.GetAggregatedNotifications(ctx, userID, limit)
	if err != nil {
		return nil, err
	}

	return &model.NotificationListResponse{
		Follows:     follows,
		Aggregated:  aggregated,
		UnreadCount: followUnread + aggUnread,
	}, nil
}

// GetUnreadCount returns the number of unread notifications (badge display).
func (s *NotificationService) GetUnreadCount(ctx context.Context, userID int64) (int, error) {
	return s.repo.GetUnreadCount(ctx, userID)
}

// MarkRead marks the given notifications as read. The update is scoped to the
// user, so ids belonging to someone else are silently ignored.
func (s *NotificationService) MarkRead(ctx context.Context, userID int64, notificationIDs []int64) error {
	if len(notificationIDs) == 0 {
		return nil
	}
	return s.repo.MarkAsRead(ctx, userID, notificationIDs)
}

// MarkAllRead marks every notification for the user as read.
func (s *NotificationService) MarkAllRead(ctx context.Context, userID int64) error {
	return s.repo.MarkAllAsRead(ctx, userID)
}
