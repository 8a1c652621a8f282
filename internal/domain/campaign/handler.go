package campaign

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/upsurge/campaign-lab/internal/middleware"
	"github.com/upsurge/campaign-lab/internal/pkg/logger"
	"github.com/upsurge/campaign-lab/internal/pkg/response"
	"github.com/upsurge/campaign-lab/internal/pkg/validator"
)

// Handler handles campaign HTTP requests
type Handler struct {
	service *Service
}

// NewHandler creates campaign handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Create handles POST /campaigns
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == 0 {
		response.Unauthorized(w, "unauthorized")
		return
	}

	var req CreateRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}
	if errs := validator.Validate(&req); errs != nil {
		response.ValidationError(w, errs)
		return
	}

	c, err := h.service.Create(r.Context(), userID, &req)
	if err != nil {
		logger.FromContext(r.Context()).Error().Err(err).Msg("Failed to create campaign")
		response.InternalError(w)
		return
	}
	response.Created(w, c.ToResponse())
}

// List handles GET /campaigns
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == 0 {
		response.Unauthorized(w, "unauthorized")
		return
	}

	campaigns, err := h.service.ListByUser(r.Context(), userID)
	if err != nil {
		logger.FromContext(r.Context()).Error().Err(err).Msg("Failed to list campaigns")
		response.InternalError(w)
		return
	}

	items := make([]*Response, 0, len(campaigns))
	for _, c := range campaigns {
		items = append(items, c.ToResponse())
	}
	response.OK(w, map[string]interface{}{
		"items": items,
		"total": len(items),
	})
}

// Get handles GET /campaigns/{campaignID}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := CampaignIDParam(w, r)
	if !ok {
		return
	}

	c, err := h.service.GetByID(r.Context(), id)
	if errors.Is(err, ErrCampaignNotFound) {
		response.NotFound(w, "Campaign not found")
		return
	}
	if err != nil {
		logger.FromContext(r.Context()).Error().Err(err).Int64("campaign_id", id).Msg("Failed to get campaign")
		response.InternalError(w)
		return
	}
	response.OK(w, c.ToResponse())
}

// RateLimitStatus handles GET /campaigns/{campaignID}/rate-limit
func (h *Handler) RateLimitStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := CampaignIDParam(w, r)
	if !ok {
		return
	}

	status, err := h.service.CanGenerateVariants(r.Context(), id)
	if errors.Is(err, ErrCampaignNotFound) {
		response.NotFound(w, "Campaign not found")
		return
	}
	if err != nil {
		logger.FromContext(r.Context()).Error().Err(err).Int64("campaign_id", id).Msg("Failed to check rate limit")
		response.InternalError(w)
		return
	}
	response.OK(w, status)
}

// CampaignRoutes registers routes on a router already scoped to /campaigns/{campaignID}
func (h *Handler) CampaignRoutes(r chi.Router) {
	r.Get("/", h.Get)
	r.Get("/rate-limit", h.RateLimitStatus)
}

// CampaignIDParam parses {campaignID}, writing 400 on failure
func CampaignIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "campaignID"), 10, 64)
	if err != nil || id <= 0 {
		response.BadRequest(w, "Invalid campaign ID")
		return 0, false
	}
	return id, true
}
