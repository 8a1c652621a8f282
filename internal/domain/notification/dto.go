package notification

import "time"

// NotificationResponse for API
type NotificationResponse struct {
	ID         string  `json:"id"`
	Type       string  `json:"type"`
	Title      string  `json:"title"`
	Message    string  `json:"message"`
	EntityType string  `json:"entity_type,omitempty"`
	EntityID   *int64  `json:"entity_id,omitempty"`
	IsRead     bool    `json:"is_read"`
	ReadAt     *string `json:"read_at,omitempty"`
	CreatedAt  string  `json:"created_at"`
}

// UnreadCountResponse for API
type UnreadCountResponse struct {
	UnreadCount int `json:"unread_count"`
}

// NotificationResponseFromEntity converts entity to response
func NotificationResponseFromEntity(n *Notification) *NotificationResponse {
	resp := &NotificationResponse{
		ID:         n.ID.String(),
		Type:       string(n.Type),
		Title:      n.Title,
		Message:    n.Message,
		EntityType: n.EntityType.String,
		IsRead:     n.IsRead,
		CreatedAt:  n.CreatedAt.Format(time.RFC3339),
	}
	if n.EntityID.Valid {
		id := n.EntityID.Int64
		resp.EntityID = &id
	}
	if n.ReadAt.Valid {
		s := n.ReadAt.Time.Format(time.RFC3339)
		resp.ReadAt = &s
	}
	return resp
}
