package optimizer

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/upsurge/campaign-lab/internal/domain/campaign"
	"github.com/upsurge/campaign-lab/internal/domain/variant"
	"github.com/upsurge/campaign-lab/internal/middleware"
	"github.com/upsurge/campaign-lab/internal/pkg/logger"
	"github.com/upsurge/campaign-lab/internal/pkg/response"
)

// Handler handles optimizer HTTP requests
type Handler struct {
	optimizer *Optimizer
}

// NewHandler creates optimizer handler
func NewHandler(optimizer *Optimizer) *Handler {
	return &Handler{optimizer: optimizer}
}

// CampaignRoutes registers routes on a router already scoped to /campaigns/{campaignID}
func (h *Handler) CampaignRoutes(r chi.Router) {
	r.Post("/optimize", h.Optimize)
	r.Get("/underperformers", h.Underperformers)
	r.Post("/underperformers/check", h.CheckUnderperformers)
}

// Optimize handles POST /campaigns/{campaignID}/optimize
func (h *Handler) Optimize(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == 0 {
		response.Unauthorized(w, "unauthorized")
		return
	}
	campaignID, ok := campaign.CampaignIDParam(w, r)
	if !ok {
		return
	}

	result, err := h.optimizer.Optimize(r.Context(), campaignID, userID)
	if err != nil {
		writeError(w, r, err, "Failed to optimize campaign")
		return
	}
	response.OK(w, result)
}

// UnderperformerResponse is one flagged variant
type UnderperformerResponse struct {
	VariantID          int64   `json:"variant_id"`
	Name               string  `json:"name"`
	PsychologicalAngle string  `json:"psychological_angle"`
	Score              float64 `json:"score"`
	CTR                float64 `json:"ctr"`
	ConversionRate     float64 `json:"conversion_rate"`
	DeployedAt         string  `json:"deployed_at"`
}

// Underperformers handles GET /campaigns/{campaignID}/underperformers
func (h *Handler) Underperformers(w http.ResponseWriter, r *http.Request) {
	campaignID, ok := campaign.CampaignIDParam(w, r)
	if !ok {
		return
	}

	flagged, err := h.optimizer.DetectUnderperformers(r.Context(), campaignID)
	if err != nil {
		writeError(w, r, err, "Failed to detect underperformers")
		return
	}

	items := make([]UnderperformerResponse, 0, len(flagged))
	for _, u := range flagged {
		m := variant.MetricsResponseFrom(u.Metrics)
		items = append(items, UnderperformerResponse{
			VariantID:          u.Variant.ID,
			Name:               u.Variant.Name,
			PsychologicalAngle: u.Variant.PsychologicalAngle,
			Score:              m.Score,
			CTR:                m.CTR,
			ConversionRate:     m.ConversionRate,
			DeployedAt:         u.Variant.DeployedAt.Time.UTC().Format(time.RFC3339),
		})
	}
	response.OK(w, map[string]interface{}{
		"items": items,
		"total": len(items),
	})
}

// CheckUnderperformers handles POST /campaigns/{campaignID}/underperformers/check
func (h *Handler) CheckUnderperformers(w http.ResponseWriter, r *http.Request) {
	campaignID, ok := campaign.CampaignIDParam(w, r)
	if !ok {
		return
	}

	result, err := h.optimizer.CheckUnderperformers(r.Context(), campaignID)
	if err != nil {
		writeError(w, r, err, "Failed to check underperformers")
		return
	}
	response.OK(w, result)
}

func writeError(w http.ResponseWriter, r *http.Request, err error, msg string) {
	if errors.Is(err, campaign.ErrCampaignNotFound) {
		response.NotFound(w, "Campaign not found")
		return
	}
	logger.FromContext(r.Context()).Error().Err(err).Msg(msg)
	response.InternalError(w)
}
