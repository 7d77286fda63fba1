package handler

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"socialnet/internal/authz"
	"socialnet/internal/httputil"
	"socialnet/internal/model"
	"socialnet/internal/service"
	"socialnet/internal/transport/http/middleware"
)

type FollowHandler struct {
	followService *service.FollowService
}

func NewFollowHandler(followService *service.FollowService) *FollowHandler {
	return &FollowHandler{
		followService: followService,
	}
}

// Follow creates a follow edge from the actor to the target user
// POST /users/{id}/follow
func (h *FollowHandler) Follow(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetActorFromContext(r.Context())
	if actor == nil {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	followedID, err := urlParamInt64(r, "id")
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid user ID")
		return
	}

	if err := h.followService.Follow(r.Context(), actor.ID, followedID); err != nil {
		switch {
		case errors.Is(err, model.ErrCannotFollowSelf):
			httputil.WriteValidationError(w, err.Error())
		case errors.Is(err, model.ErrAlreadyFollowing):
			httputil.WriteConflict(w, err.Error())
		case errors.Is(err, model.ErrUserNotFound):
			httputil.WriteNotFound(w, err.Error())
		default:
			log.Printf("[ERROR] Follow handler: %v", err)
			httputil.WriteInternalError(w, "Failed to follow user")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "Successfully followed user",
	})
}

// Unfollow removes the follow edge and appends an unfollow history record
// DELETE /users/{id}/follow
func (h *FollowHandler) Unfollow(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetActorFromContext(r.Context())
	if actor == nil {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	unfollowedID, err := urlParamInt64(r, "id")
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid user ID")
		return
	}

	if err := h.followService.Unfollow(r.Context(), actor.ID, unfollowedID); err != nil {
		switch {
		case errors.Is(err, model.ErrCannotUnfollowSelf):
			httputil.WriteValidationError(w, err.Error())
		case errors.Is(err, model.ErrAlreadyUnfollowed):
			httputil.WriteConflict(w, err.Error())
		case errors.Is(err, model.ErrUserNotFound):
			httputil.WriteNotFound(w, err.Error())
		default:
			log.Printf("[ERROR] Unfollow handler: %v", err)
			httputil.WriteInternalError(w, "Failed to unfollow user")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "Successfully unfollowed user",
	})
}

// GetFollowers lists users who follow the given user
// GET /users/{id}/followers?cursor=...&limit=...
func (h *FollowHandler) GetFollowers(w http.ResponseWriter, r *http.Request) {
	h.listFollowUsers(w, r, h.followService.GetFollowers, "GetFollowers")
}

// GetFollowing lists users the given user follows
// GET /users/{id}/following?cursor=...&limit=...
func (h *FollowHandler) GetFollowing(w http.ResponseWriter, r *http.Request) {
	h.listFollowUsers(w, r, h.followService.GetFollowing, "GetFollowing")
}

func (h *FollowHandler) listFollowUsers(
	w http.ResponseWriter,
	r *http.Request,
	fetch func(ctx context.Context, userID int64, cursor *time.Time, limit int, viewer *authz.Actor) (*model.FollowListResponse, error),
	name string,
) {
	userID, err := urlParamInt64(r, "id")
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid user ID")
		return
	}

	var cursor *time.Time
	if cursorStr := r.URL.Query().Get("cursor"); cursorStr != "" {
		parsed, err := time.Parse(time.RFC3339Nano, cursorStr)
		if err != nil {
			httputil.WriteBadRequest(w, "Invalid cursor format")
			return
		}
		cursor = &parsed
	}

	limit, err := queryLimit(r, 20)
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	actor := middleware.GetActorFromContext(r.Context())

	result, err := fetch(r.Context(), userID, cursor, limit, actor)
	if err != nil {
		log.Printf("[ERROR] %s handler: %v", name, err)
		httputil.WriteInternalError(w, "Failed to fetch users")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, result)
}

// ListFollows returns raw follow records with participant filters
// GET /follows?follower=...&followed=...&cursor=...&limit=...
func (h *FollowHandler) ListFollows(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetActorFromContext(r.Context())

	limit, err := queryLimit(r, 20)
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	filter := model.FollowFilter{
		Follower: r.URL.Query().Get("follower"),
		Followed: r.URL.Query().Get("followed"),
	}

	result, err := h.followService.ListFollows(r.Context(), actor, filter, queryCursor(r), limit)
	if err != nil {
		h.writeRecordError(w, err, "ListFollows")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, result)
}

// GetFollowRecord returns a single follow record
// GET /follows/{id}
func (h *FollowHandler) GetFollowRecord(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetActorFromContext(r.Context())

	id, err := urlParamInt64(r, "id")
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid follow ID")
		return
	}

	follow, err := h.followService.GetFollowRecord(r.Context(), actor, id)
	if err != nil {
		h.writeRecordError(w, err, "GetFollowRecord")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, follow)
}

// DeleteFollowRecord removes a follow record directly. Admin only: follow
// records are immutable audit entries.
// DELETE /follows/{id}
func (h *FollowHandler) DeleteFollowRecord(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetActorFromContext(r.Context())

	id, err := urlParamInt64(r, "id")
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid follow ID")
		return
	}

	if err := h.followService.DeleteFollowRecord(r.Context(), actor, id); err != nil {
		h.writeRecordError(w, err, "DeleteFollowRecord")
		return
	}

	httputil.WriteNoContent(w)
}

// ListUnfollows returns unfollow history records
// GET /unfollows?unfollower=...&unfollowed=...&cursor=...&limit=...
func (h *FollowHandler) ListUnfollows(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetActorFromContext(r.Context())

	limit, err := queryLimit(r, 20)
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	filter := model.UnfollowFilter{
		Unfollower: r.URL.Query().Get("unfollower"),
		Unfollowed: r.URL.Query().Get("unfollowed"),
	}

	result, err := h.followService.ListUnfollows(r.Context(), actor, filter, queryCursor(r), limit)
	if err != nil {
		h.writeRecordError(w, err, "ListUnfollows")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, result)
}

// GetUnfollowRecord returns a single unfollow history record
// GET /unfollows/{id}
func (h *FollowHandler) GetUnfollowRecord(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetActorFromContext(r.Context())

	id, err := urlParamInt64(r, "id")
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid unfollow ID")
		return
	}

	unfollow, err := h.followService.GetUnfollowRecord(r.Context(), actor, id)
	if err != nil {
		h.writeRecordError(w, err, "GetUnfollowRecord")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, unfollow)
}

// DeleteUnfollowRecord removes an unfollow history record. Admin only.
// DELETE /unfollows/{id}
func (h *FollowHandler) DeleteUnfollowRecord(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetActorFromContext(r.Context())

	id, err := urlParamInt64(r, "id")
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid unfollow ID")
		return
	}

	if err := h.followService.DeleteUnfollowRecord(r.Context(), actor, id); err != nil {
		h.writeRecordError(w, err, "DeleteUnfollowRecord")
		return
	}

	httputil.WriteNoContent(w)
}

func (h *FollowHandler) writeRecordError(w http.ResponseWriter, err error, context string) {
	switch {
	case errors.Is(err, model.ErrFollowNotFound):
		httputil.WriteNotFound(w, "Follow not found")
	case errors.Is(err, model.ErrUnfollowNotFound):
		httputil.WriteNotFound(w, "Unfollow record not found")
	case errors.Is(err, authz.ErrUnauthenticated):
		httputil.WriteUnauthorized(w, err.Error())
	case errors.Is(err, authz.ErrForbidden):
		httputil.WriteForbidden(w, err.Error())
	default:
		log.Printf("[ERROR] %s handler: %v", context, err)
		httputil.WriteInternalError(w, "Failed to process follow record")
	}
}
