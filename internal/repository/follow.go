package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"socialnet/internal/model"
)

type followRepository struct {
	db *sqlx.DB
}

func NewFollowRepository(db *sqlx.DB) FollowRepository {
	return &followRepository{db: db}
}

// Create inserts a follow row with an atomic conditional insert. The unique
// constraint on (follower_id, followed_id) is the authoritative duplicate
// guard; ON CONFLICT DO NOTHING turns the race between two concurrent
// requests into a rowsAffected == 0 outcome for the loser.
func (r *followRepository) Create(ctx context.Context, tx *sqlx.Tx, followerID, followedID int64) (bool, error) {
	query := `
		INSERT INTO follows (follower_id, followed_id)
		VALUES ($1, $2)
		ON CONFLICT (follower_id, followed_id) DO NOTHING
	`
	result, err := tx.ExecContext(ctx, query, followerID, followedID)
	if err != nil {
		return false, fmt.Errorf("failed to create follow: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected > 0, nil
}

// Delete removes the follow row for the pair and reports whether one existed.
func (r *followRepository) Delete(ctx context.Context, tx *sqlx.Tx, followerID, followedID int64) (bool, error) {
	query := `DELETE FROM follows WHERE follower_id = $1 AND followed_id = $2`
	result, err := tx.ExecContext(ctx, query, followerID, followedID)
	if err != nil {
		return false, fmt.Errorf("failed to delete follow: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows > 0, nil
}

// DeleteByID removes a follow row directly. Admin surface only.
func (r *followRepository) DeleteByID(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM follows WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete follow: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return model.ErrFollowNotFound
	}
	return nil
}

func (r *followRepository) GetByID(ctx context.Context, id int64) (*model.Follow, error) {
	query := `
		SELECT id, follower_id, followed_id, followed_at
		FROM follows
		WHERE id = $1
	`
	var f model.Follow
	err := r.db.GetContext(ctx, &f, query, id)
	if err == sql.ErrNoRows {
		return nil, model.ErrFollowNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get follow: %w", err)
	}
	return &f, nil
}

func (r *followRepository) Exists(ctx context.Context, followerID, followedID int64) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM follows WHERE follower_id = $1 AND followed_id = $2)`
	var exists bool
	err := r.db.GetContext(ctx, &exists, query, followerID, followedID)
	if err != nil {
		return false, fmt.Errorf("failed to check follow existence: %w", err)
	}
	return exists, nil
}

// List returns raw follow records filtered by participant usernames with
// keyset pagination on (followed_at, id).
func (r *followRepository) List(ctx context.Context, filter model.FollowFilter, cursor *string, limit int) ([]model.Follow, *string, error) {
	query := `
		SELECT f.id, f.follower_id, f.followed_id, f.followed_at
		FROM follows f
		JOIN users fr ON fr.id = f.follower_id
		JOIN users fd ON fd.id = f.followed_id
		WHERE 1=1
	`
	var args []interface{}

	if filter.Follower != "" {
		args = append(args, "%"+filter.Follower+"%")
		query += fmt.Sprintf(" AND fr.username ILIKE $%d", len(args))
	}
	if filter.Followed != "" {
		args = append(args, "%"+filter.Followed+"%")
		query += fmt.Sprintf(" AND fd.username ILIKE $%d", len(args))
	}
	if cursor != nil {
		ts, id, err := parseCursor(*cursor)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid cursor: %w", err)
		}
		args = append(args, ts, id)
		query += fmt.Sprintf(" AND (f.followed_at, f.id) < ($%d, $%d)", len(args)-1, len(args))
	}

	args = append(args, limit+1)
	query += fmt.Sprintf(" ORDER BY f.followed_at DESC, f.id DESC LIMIT $%d", len(args))

	var follows []model.Follow
	if err := r.db.SelectContext(ctx, &follows, query, args...); err != nil {
		return nil, nil, fmt.Errorf("failed to list follows: %w", err)
	}

	var nextCursor *string
	if len(follows) > limit {
		follows = follows[:limit]
		last := follows[len(follows)-1]
		c := formatCursor(last.FollowedAt, last.ID)
		nextCursor = &c
	}

	return follows, nextCursor, nil
}

// GetFollowers retrieves users who follow the specified user with cursor-based
// pagination on the follow timestamp. Fetches limit+1 rows; a surplus row
// means there is another page and the last returned timestamp becomes the
// next cursor.
func (r *followRepository) GetFollowers(ctx context.Context, userID int64, cursor *time.Time, limit int) ([]model.UserSummary, *time.Time, error) {
	var query string
	var args []interface{}

	if cursor == nil {
		query = `
			SELECT u.id, u.username, u.profile_image_url, u.online, f.followed_at
			FROM follows f
			JOIN users u ON u.id = f.follower_id
			WHERE f.followed_id = $1
			ORDER BY f.followed_at DESC
			LIMIT $2
		`
		args = []interface{}{userID, limit + 1}
	} else {
		query = `
			SELECT u.id, u.username, u.profile_image_url, u.online, f.followed_at
			FROM follows f
			JOIN users u ON u.id = f.follower_id
			WHERE f.followed_id = $1 AND f.followed_at < $2
			ORDER BY f.followed_at DESC
			LIMIT $3
		`
		args = []interface{}{userID, cursor, limit + 1}
	}

	return r.selectUsersWithTime(ctx, query, args, limit)
}

// GetFollowing retrieves users that the specified user follows. Same cursor
// discipline as GetFollowers.
func (r *followRepository) GetFollowing(ctx context.Context, userID int64, cursor *time.Time, limit int) ([]model.UserSummary, *time.Time, error) {
	var query string
	var args []interface{}

	if cursor == nil {
		query = `
			SELECT u.id, u.username, u.profile_image_url, u.online, f.followed_at
			FROM follows f
			JOIN users u ON u.id = f.followed_id
			WHERE f.follower_id = $1
			ORDER BY f.followed_at DESC
			LIMIT $2
		`
		args = []interface{}{userID, limit + 1}
	} else {
		query = `
			SELECT u.id, u.username, u.profile_image_url, u.online, f.followed_at
			FROM follows f
			JOIN users u ON u.id = f.followed_id
			WHERE f.follower_id = $1 AND f.followed_at < $2
			ORDER BY f.followed_at DESC
			LIMIT $3
		`
		args = []interface{}{userID, cursor, limit + 1}
	}

	return r.selectUsersWithTime(ctx, query, args, limit)
}

func (r *followRepository) selectUsersWithTime(ctx context.Context, query string, args []interface{}, limit int) ([]model.UserSummary, *time.Time, error) {
	type userWithTime struct {
		model.UserSummary
		FollowedAt time.Time `db:"followed_at"`
	}

	var results []userWithTime
	err := r.db.SelectContext(ctx, &results, query, args...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get follow users: %w", err)
	}

	var nextCursor *time.Time
	if len(results) > limit {
		results = results[:limit]
		nextCursor = &results[len(results)-1].FollowedAt
	}

	users := make([]model.UserSummary, 0, len(results))
	for _, result := range results {
		users = append(users, result.UserSummary)
	}

	return users, nextCursor, nil
}

// CheckFollows batch-checks which of followedIDs the follower follows.
// Single query with ANY($2), no N+1.
func (r *followRepository) CheckFollows(ctx context.Context, followerID int64, followedIDs []int64) (map[int64]bool, error) {
	if len(followedIDs) == 0 {
		return make(map[int64]bool), nil
	}

	query := `SELECT followed_id FROM follows WHERE follower_id = $1 AND followed_id = ANY($2)`
	var ids []int64
	err := r.db.SelectContext(ctx, &ids, query, followerID, pq.Array(followedIDs))
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to check follows: %w", err)
	}

	result := make(map[int64]bool)
	for _, id := range followedIDs {
		result[id] = false
	}
	for _, id := range ids {
		result[id] = true
	}

	return result, nil
}

func (r *followRepository) GetFollowerIDs(ctx context.Context, userID int64) ([]int64, error) {
	var ids []int64
	err := r.db.SelectContext(ctx, &ids, `SELECT follower_id FROM follows WHERE followed_id = $1`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get follower ids: %w", err)
	}
	return ids, nil
}

func (r *followRepository) GetFollowedIDs(ctx context.Context, userID int64) ([]int64, error) {
	var ids []int64
	err := r.db.SelectContext(ctx, &ids, `SELECT followed_id FROM follows WHERE follower_id = $1`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get followed ids: %w", err)
	}
	return ids, nil
}

// CreateUnfollow appends a row to the unfollow history with the same atomic
// conditional insert discipline as Create.
func (r *followRepository) CreateUnfollow(ctx context.Context, tx *sqlx.Tx, unfollowerID, unfollowedID int64) (bool, error) {
	query := `
		INSERT INTO unfollows (unfollower_id, unfollowed_id)
		VALUES ($1, $2)
		ON CONFLICT (unfollower_id, unfollowed_id) DO NOTHING
	`
	result, err := tx.ExecContext(ctx, query, unfollowerID, unfollowedID)
	if err != nil {
		return false, fmt.Errorf("failed to create unfollow record: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows > 0, nil
}

func (r *followRepository) GetUnfollowByID(ctx context.Context, id int64) (*model.Unfollow, error) {
	query := `
		SELECT id, unfollower_id, unfollowed_id, unfollowed_at
		FROM unfollows
		WHERE id = $1
	`
	var u model.Unfollow
	err := r.db.GetContext(ctx, &u, query, id)
	if err == sql.ErrNoRows {
		return nil, model.ErrUnfollowNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get unfollow record: %w", err)
	}
	return &u, nil
}

// DeleteUnfollowByID removes a history entry. Admin surface only.
func (r *followRepository) DeleteUnfollowByID(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM unfollows WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete unfollow record: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return model.ErrUnfollowNotFound
	}
	return nil
}

// ListUnfollows returns unfollow history entries filtered by participant
// usernames with keyset pagination on (unfollowed_at, id).
func (r *followRepository) ListUnfollows(ctx context.Context, filter model.UnfollowFilter, cursor *string, limit int) ([]model.Unfollow, *string, error) {
	query := `
		SELECT uf.id, uf.unfollower_id, uf.unfollowed_id, uf.unfollowed_at
		FROM unfollows uf
		JOIN users ur ON ur.id = uf.unfollower_id
		JOIN users ud ON ud.id = uf.unfollowed_id
		WHERE 1=1
	`
	var args []interface{}

	if filter.Unfollower != "" {
		args = append(args, "%"+filter.Unfollower+"%")
		query += fmt.Sprintf(" AND ur.username ILIKE $%d", len(args))
	}
	if filter.Unfollowed != "" {
		args = append(args, "%"+filter.Unfollowed+"%")
		query += fmt.Sprintf(" AND ud.username ILIKE $%d", len(args))
	}
	if cursor != nil {
		ts, id, err := parseCursor(*cursor)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid cursor: %w", err)
		}
		args = append(args, ts, id)
		query += fmt.Sprintf(" AND (uf.unfollowed_at, uf.id) < ($%d, $%d)", len(args)-1, len(args))
	}

	args = append(args, limit+1)
	query += fmt.Sprintf(" ORDER BY uf.unfollowed_at DESC, uf.id DESC LIMIT $%d", len(args))

	var unfollows []model.Unfollow
	if err := r.db.SelectContext(ctx, &unfollows, query, args...); err != nil {
		return nil, nil, fmt.Errorf("failed to list unfollow records: %w", err)
	}

	var nextCursor *string
	if len(unfollows) > limit {
		unfollows = unfollows[:limit]
		last := unfollows[len(unfollows)-1]
		c := formatCursor(last.UnfollowedAt, last.ID)
		nextCursor = &c
	}

	return unfollows, nextCursor, nil
}
