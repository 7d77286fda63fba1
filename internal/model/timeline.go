package model

// TimelineResponse is the paginated home timeline: posts published by the
// users the viewer follows (plus their own), newest first.
type TimelineResponse struct {
	Posts      []Post  `json:"posts"`
	NextCursor *string `json:"next_cursor,omitempty"`
	HasMore    bool    `json:"has_more"`
}
