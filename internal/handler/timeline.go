package handler

import (
	"log"
	"net/http"

	"socialnet/internal/httputil"
	"socialnet/internal/service"
	"socialnet/internal/transport/http/middleware"
)

type TimelineHandler struct {
	timelineService *service.TimelineService
}

func NewTimelineHandler(timelineService *service.TimelineService) *TimelineHandler {
	return &TimelineHandler{
		timelineService: timelineService,
	}
}

// GetTimeline returns the authenticated user's home timeline
// GET /timeline?cursor=...&limit=...
func (h *TimelineHandler) GetTimeline(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetActorFromContext(r.Context())
	if actor == nil {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	limit, err := queryLimit(r, service.TimelineDefaultLimit)
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	result, err := h.timelineService.GetTimeline(r.Context(), actor.ID, queryCursor(r), limit)
	if err != nil {
		log.Printf("[ERROR] GetTimeline handler: %v", err)
		httputil.WriteInternalError(w, "Failed to fetch timeline")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, result)
}
