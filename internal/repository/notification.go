package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"socialnet/internal/model"
)

// maxDisplayActors caps how many actor summaries ride on an aggregated
// notification group.
const maxDisplayActors = 3

type notificationRepository struct {
	db *sqlx.DB
}

func NewNotificationRepository(db *sqlx.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Create(ctx context.Context, userID, actorID int64, notifType string, postID, commentID *int64) error {
	query := `
		INSERT INTO notifications (user_id, actor_id, type, post_id, comment_id)
		VALUES ($1, $2, $3, $4, $5)
	`
	if _, err := r.db.ExecContext(ctx, query, userID, actorID, notifType, postID, commentID); err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

// GetFollowNotifications returns individual follow notifications with actor
// info, newest first. The unread count among the fetched rows rides along so
// the service needs no extra query.
func (r *notificationRepository) GetFollowNotifications(ctx context.Context, userID int64, limit int) ([]model.Notification, int, error) {
	query := `
		SELECT n.id, n.user_id, n.actor_id, n.type, n.post_id, n.comment_id, n.is_read, n.created_at,
		       u.id AS "actor.id", u.username AS "actor.username",
		       u.profile_image_url AS "actor.profile_image_url", u.online AS "actor.online"
		FROM notifications n
		JOIN users u ON u.id = n.actor_id
		WHERE n.user_id = $1 AND n.type = 'follow'
		ORDER BY n.created_at DESC, n.id DESC
		LIMIT $2
	`

	rows, err := r.db.QueryxContext(ctx, query, userID, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("get follow notifications: %w", err)
	}
	defer rows.Close()

	var notifications []model.Notification
	unread := 0
	for rows.Next() {
		var n model.Notification
		var actor model.UserSummary
		dest := []interface{}{
			&n.ID, &n.UserID, &n.ActorID, &n.Type, &n.PostID, &n.CommentID, &n.IsRead, &n.CreatedAt,
			&actor.ID, &actor.Username, &actor.ProfileImageURL, &actor.Online,
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, 0, fmt.Errorf("scan notification: %w", err)
		}
		n.Actor = &actor
		if !n.IsRead {
			unread++
		}
		notifications = append(notifications, n)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate notifications: %w", err)
	}

	return notifications, unread, nil
}

// GetAggregatedNotifications groups like/comment notifications by (type,
// post). Only the three most recent actors per group carry a user summary.
func (r *notificationRepository) GetAggregatedNotifications(ctx context.Context, userID int64, limit int) ([]model.AggregatedNotification, int, error) {
	query := `
		SELECT
			n.type,
			n.post_id,
			array_agg(n.actor_id ORDER BY n.created_at DESC) AS actor_ids,
			COUNT(*) AS total_count,
			MAX(n.created_at) AS latest_at,
			bool_and(n.is_read) AS is_read
		FROM notifications n
		WHERE n.user_id = $1 AND n.type IN ('like', 'comment')
		GROUP BY n.type, n.post_id
		ORDER BY latest_at DESC
		LIMIT $2
	`

	type aggRow struct {
		Type       string        `db:"type"`
		PostID     *int64        `db:"post_id"`
		ActorIDs   pq.Int64Array `db:"actor_ids"`
		TotalCount int           `db:"total_count"`
		LatestAt   time.Time     `db:"latest_at"`
		IsRead     bool          `db:"is_read"`
	}

	var rows []aggRow
	if err := r.db.SelectContext(ctx, &rows, query, userID, limit); err != nil {
		return nil, 0, fmt.Errorf("get aggregated notifications: %w", err)
	}

	if len(rows) == 0 {
		return []model.AggregatedNotification{}, 0, nil
	}

	// Collect the display actors (first 3 per group) and the unread total
	actorIDSet := make(map[int64]struct{})
	unread := 0
	for _, row := range rows {
		for i, id := range row.ActorIDs {
			if i >= maxDisplayActors {
				break
			}
			actorIDSet[id] = struct{}{}
		}
		if !row.IsRead {
			unread += row.TotalCount
		}
	}

	actorIDs := make([]int64, 0, len(actorIDSet))
	for id := range actorIDSet {
		actorIDs = append(actorIDs, id)
	}

	actorMap := make(map[int64]model.UserSummary)
	if len(actorIDs) > 0 {
		userQuery := `
			SELECT id, username, profile_image_url, online
			FROM users
			WHERE id = ANY($1)
		`
		var users []model.UserSummary
		if err := r.db.SelectContext(ctx, &users, userQuery, pq.Array(actorIDs)); err != nil {
			return nil, 0, fmt.Errorf("get notification actors: %w", err)
		}
		for _, u := range users {
			actorMap[u.ID] = u
		}
	}

	result := make([]model.AggregatedNotification, len(rows))
	for i, row := range rows {
		actors := make([]model.UserSummary, 0, maxDisplayActors)
		for j, id := range row.ActorIDs {
			if j >= maxDisplayActors {
				break
			}
			if actor, ok := actorMap[id]; ok {
				actors = append(actors, actor)
			}
		}

		result[i] = model.AggregatedNotification{
			Type:       row.Type,
			PostID:     row.PostID,
			Actors:     actors,
			TotalCount: row.TotalCount,
			LatestAt:   row.LatestAt,
			IsRead:     row.IsRead,
		}
	}

	return result, unread, nil
}

func (r *notificationRepository) GetUnreadCount(ctx context.Context, userID int64) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND is_read = FALSE`
	if err := r.db.GetContext(ctx, &count, query, userID); err != nil {
		return 0, fmt.Errorf("count unread notifications: %w", err)
	}
	return count, nil
}

// MarkAsRead marks the given notifications as read. Scoped to the recipient
// so one user cannot mark another's notifications.
func (r *notificationRepository) MarkAsRead(ctx context.Context, userID int64, notificationIDs []int64) error {
	if len(notificationIDs) == 0 {
		return nil
	}
	query := `UPDATE notifications SET is_read = TRUE WHERE user_id = $1 AND id = ANY($2)`
	if _, err := r.db.ExecContext(ctx, query, userID, pq.Array(notificationIDs)); err != nil {
		return fmt.Errorf("mark notifications read: %w", err)
	}
	return nil
}

func (r *notificationRepository) MarkAllAsRead(ctx context.Context, userID int64) error {
	query := `UPDATE notifications SET is_read = TRUE WHERE user_id = $1 AND is_read = FALSE`
	if _, err := r.db.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("mark all notifications read: %w", err)
	}
	return nil
}
