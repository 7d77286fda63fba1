package handler

import (
	"encoding/json"
	"log"
	"net/http"

	"socialnet/internal/httputil"
	"socialnet/internal/model"
	"socialnet/internal/service"
	"socialnet/internal/transport/http/middleware"
)

type NotificationHandler struct {
	notificationService *service.NotificationService
}

func NewNotificationHandler(notificationService *service.NotificationService) *NotificationHandler {
	return &NotificationHandler{
		notificationService: notificationService,
	}
}

// List returns the user's notifications with the unread count. Follow
// notifications are individual, likes/comments are grouped per post.
// GET /notifications?limit=...
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetActorFromContext(r.Context())
	if actor == nil {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	limit, err := queryLimit(r, service.NotificationDefaultLimit)
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	result, err := h.notificationService.List(r.Context(), actor.ID, limit)
	if err != nil {
		log.Printf("[ERROR] ListNotifications handler: %v", err)
		httputil.WriteInternalError(w, "Failed to fetch notifications")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, result)
}

// GetUnreadCount returns the count of unread notifications (badge display)
// GET /notifications/unread-count
func (h *NotificationHandler) GetUnreadCount(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetActorFromContext(r.Context())
	if actor == nil {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	count, err := h.notificationService.GetUnreadCount(r.Context(), actor.ID)
	if err != nil {
		log.Printf("[ERROR] GetUnreadCount handler: %v", err)
		httputil.WriteInternalError(w, "Failed to get unread count")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]int{
		"unread_count": count,
	})
}

// MarkRead marks specific notifications as read
// POST /notifications/read
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetActorFromContext(r.Context())
	if actor == nil {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	var req model.MarkReadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	if len(req.NotificationIDs) == 0 {
		httputil.WriteBadRequest(w, "notification_ids is required")
		return
	}

	if err := h.notificationService.MarkRead(r.Context(), actor.ID, req.NotificationIDs); err != nil {
		log.Printf("[ERROR] MarkRead handler: %v", err)
		httputil.WriteInternalError(w, "Failed to mark notifications as read")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "Notifications marked as read",
	})
}

// MarkAllRead marks every notification for the user as read
// POST /notifications/read-all
func (h *NotificationHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetActorFromContext(r.Context())
	if actor == nil {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	if err := h.notificationService.MarkAllRead(r.Context(), actor.ID); err != nil {
		log.Printf("[ERROR] MarkAllRead handler: %v", err)
		httputil.WriteInternalError(w, "Failed to mark notifications as read")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "All notifications marked as read",
	})
}
