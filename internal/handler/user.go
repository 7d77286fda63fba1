package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"socialnet/internal/authz"
	"socialnet/internal/httputil"
	"socialnet/internal/model"
	"socialnet/internal/service"
	"socialnet/internal/transport/http/middleware"
)

type UserHandler struct {
	userService *service.UserService
}

func NewUserHandler(userService *service.UserService) *UserHandler {
	return &UserHandler{
		userService: userService,
	}
}

// GetProfile returns a user's profile with the viewer's follow status
// GET /users/{id}
func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid user ID")
		return
	}

	actor := middleware.GetActorFromContext(r.Context())

	profile, err := h.userService.GetProfile(r.Context(), userID, actor)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			httputil.WriteNotFound(w, "User not found")
			return
		}
		log.Printf("[ERROR] GetProfile handler: %v", err)
		httputil.WriteInternalError(w, "Failed to get profile")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, profile)
}

// UpdateProfile applies partial changes to the current user's profile
// PATCH /me
func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetActorFromContext(r.Context())
	if actor == nil {
		httputil.WriteUnauthorized(w, "Not authenticated")
		return
	}

	var req model.UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	user, err := h.userService.UpdateProfile(r.Context(), actor, actor.ID, &req)
	if err != nil {
		h.writeUpdateError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, user)
}

// UpdateUser applies partial changes to any user's profile (admin path)
// PATCH /users/{id}
func (h *UserHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetActorFromContext(r.Context())
	if actor == nil {
		httputil.WriteUnauthorized(w, "Not authenticated")
		return
	}

	userID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid user ID")
		return
	}

	var req model.UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	user, err := h.userService.UpdateProfile(r.Context(), actor, userID, &req)
	if err != nil {
		h.writeUpdateError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, user)
}

func (h *UserHandler) writeUpdateError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, model.ErrUserNotFound):
		httputil.WriteNotFound(w, "User not found")
	case errors.Is(err, model.ErrEmailExists):
		httputil.WriteConflict(w, "Email already exists")
	case errors.Is(err, model.ErrPasswordTooShort):
		httputil.WriteValidationError(w, err.Error())
	case errors.Is(err, authz.ErrForbidden):
		httputil.WriteForbidden(w, err.Error())
	case errors.Is(err, authz.ErrUnauthenticated):
		httputil.WriteUnauthorized(w, err.Error())
	default:
		log.Printf("[ERROR] UpdateProfile handler: %v", err)
		httputil.WriteInternalError(w, "Failed to update profile")
	}
}

// DeleteAccount removes the current user's account
// DELETE /me
func (h *UserHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetActorFromContext(r.Context())
	if actor == nil {
		httputil.WriteUnauthorized(w, "Not authenticated")
		return
	}

	h.deleteUser(w, r, actor, actor.ID)
}

// DeleteUser removes any user's account (admin path)
// DELETE /users/{id}
func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetActorFromContext(r.Context())
	if actor == nil {
		httputil.WriteUnauthorized(w, "Not authenticated")
		return
	}

	userID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid user ID")
		return
	}

	h.deleteUser(w, r, actor, userID)
}

func (h *UserHandler) deleteUser(w http.ResponseWriter, r *http.Request, actor *authz.Actor, userID int64) {
	if err := h.userService.DeleteAccount(r.Context(), actor, userID); err != nil {
		switch {
		case errors.Is(err, model.ErrUserNotFound):
			httputil.WriteNotFound(w, "User not found")
		case errors.Is(err, authz.ErrForbidden):
			httputil.WriteForbidden(w, err.Error())
		default:
			log.Printf("[ERROR] DeleteAccount handler: %v", err)
			httputil.WriteInternalError(w, "Failed to delete account")
		}
		return
	}

	httputil.WriteNoContent(w)
}

// Search finds users by username prefix
// GET /users/search?q=...&limit=...
func (h *UserHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		httputil.WriteBadRequest(w, "Query parameter 'q' is required")
		return
	}

	limit := 20
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed < 1 || parsed > 100 {
			httputil.WriteBadRequest(w, "Limit must be between 1 and 100")
			return
		}
		limit = parsed
	}

	actor := middleware.GetActorFromContext(r.Context())

	users, err := h.userService.Search(r.Context(), query, limit, actor)
	if err != nil {
		log.Printf("[ERROR] Search handler: %v", err)
		httputil.WriteInternalError(w, "Failed to search users")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"users": users,
	})
}
