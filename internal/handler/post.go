package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"socialnet/internal/authz"
	"socialnet/internal/httputil"
	"socialnet/internal/model"
	"socialnet/internal/service"
	"socialnet/internal/transport/http/middleware"
)

type PostHandler struct {
	postService *service.PostService
}

func NewPostHandler(postService *service.PostService) *PostHandler {
	return &PostHandler{
		postService: postService,
	}
}

// writePostError maps the common post error sentinels to responses.
func writePostError(w http.ResponseWriter, err error, context string) {
	switch {
	case errors.Is(err, model.ErrPostNotFound):
		httputil.WriteNotFound(w, "Post not found")
	case errors.Is(err, model.ErrTitleRequired),
		errors.Is(err, model.ErrPostContentMissing),
		errors.Is(err, model.ErrTitleTooLong),
		errors.Is(err, model.ErrPostContentTooLong):
		httputil.WriteValidationError(w, err.Error())
	case errors.Is(err, authz.ErrUnauthenticated):
		httputil.WriteUnauthorized(w, err.Error())
	case errors.Is(err, authz.ErrForbidden):
		httputil.WriteForbidden(w, err.Error())
	default:
		log.Printf("[ERROR] %s handler: %v", context, err)
		httputil.WriteInternalError(w, "Failed to process post")
	}
}

// Create publishes a new post
// POST /posts
func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetActorFromContext(r.Context())

	var req model.CreatePostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	post, err := h.postService.Create(r.Context(), actor, &req)
	if err != nil {
		writePostError(w, err, "CreatePost")
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, post)
}

// GetByID retrieves a single post
// GET /posts/{id}
func (h *PostHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetActorFromContext(r.Context())

	postID, err := urlParamInt64(r, "id")
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid post ID")
		return
	}

	post, err := h.postService.GetByID(r.Context(), actor, postID)
	if err != nil {
		writePostError(w, err, "GetPost")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, post)
}

// List returns posts filtered by author username, title, and publication date
// GET /posts?author=...&title=...&year=...&month=...&day=...&cursor=...&limit=...
func (h *PostHandler) List(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetActorFromContext(r.Context())

	limit, err := queryLimit(r, 20)
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	filter := model.PostFilter{
		AuthorUsername: r.URL.Query().Get("author"),
		Title:          r.URL.Query().Get("title"),
	}
	if filter.Year, err = queryInt(r, "year"); err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}
	if filter.Month, err = queryInt(r, "month"); err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}
	if filter.Day, err = queryInt(r, "day"); err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	result, err := h.postService.List(r.Context(), actor, filter, queryCursor(r), limit)
	if err != nil {
		writePostError(w, err, "ListPosts")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, result)
}

// Update applies partial changes to a post
// PATCH /posts/{id}
func (h *PostHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetActorFromContext(r.Context())

	postID, err := urlParamInt64(r, "id")
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid post ID")
		return
	}

	var req model.UpdatePostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	post, err := h.postService.Update(r.Context(), actor, postID, &req)
	if err != nil {
		writePostError(w, err, "UpdatePost")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, post)
}

// Delete removes a post
// DELETE /posts/{id}
func (h *PostHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetActorFromContext(r.Context())

	postID, err := urlParamInt64(r, "id")
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid post ID")
		return
	}

	if err := h.postService.Delete(r.Context(), actor, postID); err != nil {
		writePostError(w, err, "DeletePost")
		return
	}

	httputil.WriteNoContent(w)
}

// Like records the actor's like on a post
// POST /posts/{id}/like
func (h *PostHandler) Like(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetActorFromContext(r.Context())

	postID, err := urlParamInt64(r, "id")
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid post ID")
		return
	}

	if err := h.postService.Like(r.Context(), actor, postID); err != nil {
		switch {
		case errors.Is(err, model.ErrAlreadyLiked):
			httputil.WriteConflict(w, err.Error())
		default:
			writePostError(w, err, "LikePost")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "Post liked",
	})
}

// Unlike removes the actor's like from a post
// DELETE /posts/{id}/like
func (h *PostHandler) Unlike(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetActorFromContext(r.Context())

	postID, err := urlParamInt64(r, "id")
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid post ID")
		return
	}

	if err := h.postService.Unlike(r.Context(), actor, postID); err != nil {
		switch {
		case errors.Is(err, model.ErrNotLiked):
			httputil.WriteNotFound(w, err.Error())
		default:
			writePostError(w, err, "UnlikePost")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "Post unliked",
	})
}

// GetLikers lists the users who liked a post
// GET /posts/{id}/likers
func (h *PostHandler) GetLikers(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetActorFromContext(r.Context())

	postID, err := urlParamInt64(r, "id")
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid post ID")
		return
	}

	limit, err := queryLimit(r, 20)
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	result, err := h.postService.GetPostLikers(r.Context(), actor, postID, queryCursor(r), limit)
	if err != nil {
		writePostError(w, err, "GetLikers")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, result)
}
