package handler

import (
	"errors"
	"log"
	"net/http"

	"socialnet/internal/authz"
	"socialnet/internal/httputil"
	"socialnet/internal/model"
	"socialnet/internal/service"
	"socialnet/internal/transport/http/middleware"
)

// LikeHandler exposes like records as a first-class collection, separate from
// the per-post like/unlike actions.
type LikeHandler struct {
	postService *service.PostService
}

func NewLikeHandler(postService *service.PostService) *LikeHandler {
	return &LikeHandler{
		postService: postService,
	}
}

// List returns like records filtered by the liking user's username
// GET /likes?username=...&cursor=...&limit=...
func (h *LikeHandler) List(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetActorFromContext(r.Context())

	limit, err := queryLimit(r, 20)
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	filter := model.LikeFilter{
		Username: r.URL.Query().Get("username"),
	}

	result, err := h.postService.ListLikes(r.Context(), actor, filter, queryCursor(r), limit)
	if err != nil {
		h.writeError(w, err, "ListLikes")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, result)
}

// GetByID returns a single like record
// GET /likes/{id}
func (h *LikeHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetActorFromContext(r.Context())

	id, err := urlParamInt64(r, "id")
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid like ID")
		return
	}

	like, err := h.postService.GetLikeRecord(r.Context(), actor, id)
	if err != nil {
		h.writeError(w, err, "GetLike")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, like)
}

// Delete removes a like record by id. The liking user or an admin only.
// DELETE /likes/{id}
func (h *LikeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetActorFromContext(r.Context())

	id, err := urlParamInt64(r, "id")
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid like ID")
		return
	}

	if err := h.postService.DeleteLikeRecord(r.Context(), actor, id); err != nil {
		h.writeError(w, err, "DeleteLike")
		return
	}

	httputil.WriteNoContent(w)
}

func (h *LikeHandler) writeError(w http.ResponseWriter, err error, context string) {
	switch {
	case errors.Is(err, model.ErrLikeNotFound):
		httputil.WriteNotFound(w, "Like not found")
	case errors.Is(err, authz.ErrUnauthenticated):
		httputil.WriteUnauthorized(w, err.Error())
	case errors.Is(err, authz.ErrForbidden):
		httputil.WriteForbidden(w, err.Error())
	default:
		log.Printf("[ERROR] %s handler: %v", context, err)
		httputil.WriteInternalError(w, "Failed to process like record")
	}
}
