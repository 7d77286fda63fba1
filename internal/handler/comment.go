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

type CommentHandler struct {
	commentService *service.CommentService
}

func NewCommentHandler(commentService *service.CommentService) *CommentHandler {
	return &CommentHandler{
		commentService: commentService,
	}
}

func writeCommentError(w http.ResponseWriter, err error, name string) {
	switch {
	case errors.Is(err, model.ErrCommentNotFound):
		httputil.WriteNotFound(w, "Comment not found")
	case errors.Is(err, model.ErrPostNotFound):
		httputil.WriteNotFound(w, "Post not found")
	case errors.Is(err, model.ErrBodyRequired), errors.Is(err, model.ErrBodyTooLong):
		httputil.WriteValidationError(w, err.Error())
	case errors.Is(err, authz.ErrUnauthenticated):
		httputil.WriteUnauthorized(w, err.Error())
	case errors.Is(err, authz.ErrForbidden):
		httputil.WriteForbidden(w, err.Error())
	default:
		log.Printf("[ERROR] %s handler: %v", name, err)
		httputil.WriteInternalError(w, "Failed to process comment")
	}
}

// Create adds a comment to a post
// POST /posts/{id}/comments
func (h *CommentHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetActorFromContext(r.Context())

	postID, err := urlParamInt64(r, "id")
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid post ID")
		return
	}

	var req model.CreateCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	comment, err := h.commentService.Create(r.Context(), actor, postID, &req)
	if err != nil {
		writeCommentError(w, err, "CreateComment")
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, comment)
}

// GetByPostID lists a post's comments
// GET /posts/{id}/comments?cursor=...&limit=...
func (h *CommentHandler) GetByPostID(w http.ResponseWriter, r *http.Request) {
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

	result, err := h.commentService.GetByPostID(r.Context(), actor, postID, queryCursor(r), limit)
	if err != nil {
		writeCommentError(w, err, "GetPostComments")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, result)
}

// List returns comments across posts filtered by author and creation date
// GET /comments?author=...&year=...&month=...&day=...&cursor=...&limit=...
func (h *CommentHandler) List(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetActorFromContext(r.Context())

	limit, err := queryLimit(r, 20)
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	filter := model.CommentFilter{
		AuthorUsername: r.URL.Query().Get("author"),
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

	result, err := h.commentService.List(r.Context(), actor, filter, queryCursor(r), limit)
	if err != nil {
		writeCommentError(w, err, "ListComments")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, result)
}

// GetByID retrieves a single comment
// GET /comments/{id}
func (h *CommentHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetActorFromContext(r.Context())

	commentID, err := urlParamInt64(r, "id")
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid comment ID")
		return
	}

	comment, err := h.commentService.GetByID(r.Context(), actor, commentID)
	if err != nil {
		writeCommentError(w, err, "GetComment")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, comment)
}

// Update replaces a comment's body
// PATCH /comments/{id}
func (h *CommentHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetActorFromContext(r.Context())

	commentID, err := urlParamInt64(r, "id")
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid comment ID")
		return
	}

	var req model.UpdateCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	comment, err := h.commentService.Update(r.Context(), actor, commentID, &req)
	if err != nil {
		writeCommentError(w, err, "UpdateComment")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, comment)
}

// Delete removes a comment
// DELETE /comments/{id}
func (h *CommentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetActorFromContext(r.Context())

	commentID, err := urlParamInt64(r, "id")
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid comment ID")
		return
	}

	if err := h.commentService.Delete(r.Context(), actor, commentID); err != nil {
		writeCommentError(w, err, "DeleteComment")
		return
	}

	httputil.WriteNoContent(w)
}
