package notification

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/upsurge/campaign-lab/internal/middleware"
	"github.com/upsurge/campaign-lab/internal/pkg/logger"
	"github.com/upsurge/campaign-lab/internal/pkg/response"
)

// Handler handles notification HTTP requests
type Handler struct {
	service *Service
}

// NewHandler creates notification handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// List handles GET /notifications?type=&unread=&limit=&offset=
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	q := r.URL.Query()

	filter := ListFilter{Type: Type(q.Get("type"))}
	if filter.Type != "" && !filter.Type.Valid() {
		response.BadRequest(w, "Unknown notification type")
		return
	}
	filter.UnreadOnly, _ = strconv.ParseBool(q.Get("unread"))
	filter.Limit, _ = strconv.Atoi(q.Get("limit"))
	filter.Offset, _ = strconv.Atoi(q.Get("offset"))

	notifications, err := h.service.List(r.Context(), userID, filter)
	if err != nil {
		logger.FromContext(r.Context()).Error().Err(err).Int64("user_id", userID).Msg("Failed to list notifications")
		response.InternalError(w)
		return
	}

	items := make([]*NotificationResponse, len(notifications))
	for i, n := range notifications {
		items[i] = NotificationResponseFromEntity(n)
	}

	response.OK(w, map[string]interface{}{
		"items": items,
		"total": len(items),
	})
}

// GetUnreadCount handles GET /notifications/unread-count
func (h *Handler) GetUnreadCount(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	count, err := h.service.GetUnreadCount(r.Context(), userID)
	if err != nil {
		logger.FromContext(r.Context()).Error().Err(err).Int64("user_id", userID).Msg("Failed to count notifications")
		response.InternalError(w)
		return
	}
	response.OK(w, UnreadCountResponse{UnreadCount: count})
}

// MarkAsRead handles POST /notifications/{id}/read
func (h *Handler) MarkAsRead(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid notification ID")
		return
	}

	err = h.service.MarkAsRead(r.Context(), id, middleware.GetUserID(r.Context()))
	switch {
	case errors.Is(err, ErrNotificationNotFound):
		response.NotFound(w, "Notification not found")
		return
	case err != nil:
		logger.FromContext(r.Context()).Error().Err(err).Str("notification_id", id.String()).Msg("Failed to mark notification read")
		response.InternalError(w)
		return
	}

	response.OK(w, map[string]string{"status": "ok"})
}

// MarkAllAsRead handles POST /notifications/read-all
func (h *Handler) MarkAllAsRead(w http.ResponseWriter, r *http.Request) {
	if err := h.service.MarkAllAsRead(r.Context(), middleware.GetUserID(r.Context())); err != nil {
		logger.FromContext(r.Context()).Error().Err(err).Msg("Failed to mark notifications read")
		response.InternalError(w)
		return
	}

	response.OK(w, map[string]string{"status": "ok"})
}

// Routes returns notification router
func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)

	r.Get("/", h.List)
	r.Get("/unread-count", h.GetUnreadCount)
	r.Post("/{id}/read", h.MarkAsRead)
	r.Post("/read-all", h.MarkAllAsRead)

	return r
}
