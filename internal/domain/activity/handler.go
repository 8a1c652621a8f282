package activity

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/upsurge/campaign-lab/internal/pkg/response"
)

// EntryResponse for API
type EntryResponse struct {
	ID          string          `json:"id"`
	UserID      int64           `json:"user_id"`
	Action      string          `json:"action"`
	EntityType  string          `json:"entity_type"`
	EntityID    int64           `json:"entity_id"`
	Description string          `json:"description"`
	Metadata    json.RawMessage `json:"metadata,omitempty"`
	CreatedAt   string          `json:"created_at"`
}

// Handler serves the audit trail
type Handler struct {
	service *Service
}

// NewHandler creates activity handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// List handles GET /activity?entity_type=campaign_variant&entity_id=12
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	entityType := q.Get("entity_type")
	entityID, err := strconv.ParseInt(q.Get("entity_id"), 10, 64)
	if entityType == "" || err != nil {
		response.BadRequest(w, "entity_type and entity_id are required")
		return
	}
	limit, _ := strconv.Atoi(q.Get("limit"))

	entries, err := h.service.ListByEntity(r.Context(), entityType, entityID, limit)
	if err != nil {
		response.InternalError(w)
		return
	}

	items := make([]EntryResponse, len(entries))
	for i, e := range entries {
		items[i] = EntryResponse{
			ID:          e.ID.String(),
			UserID:      e.UserID,
			Action:      e.Action,
			EntityType:  e.EntityType,
			EntityID:    e.EntityID,
			Description: e.Description,
			Metadata:    e.Metadata,
			CreatedAt:   e.CreatedAt.Format(time.RFC3339),
		}
	}
	response.OK(w, items)
}

// Routes returns activity router
func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)
	r.Get("/", h.List)
	return r
}
