package variant

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/upsurge/campaign-lab/internal/domain/campaign"
	"github.com/upsurge/campaign-lab/internal/middleware"
	"github.com/upsurge/campaign-lab/internal/pkg/imaging"
	"github.com/upsurge/campaign-lab/internal/pkg/logger"
	"github.com/upsurge/campaign-lab/internal/pkg/response"
	"github.com/upsurge/campaign-lab/internal/pkg/validator"
)

// Handler handles variant HTTP requests
type Handler struct {
	service *Service
}

// NewHandler creates variant handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// CampaignRoutes registers routes on a router already scoped to /campaigns/{campaignID}
func (h *Handler) CampaignRoutes(r chi.Router) {
	r.Get("/variants", h.List)
	r.Post("/variants", h.Save)
	r.Post("/variants/generate", h.Generate)
	r.Get("/winner", h.Winner)
	r.Post("/update-statuses", h.UpdateStatuses)
	r.Post("/auto-optimize", h.AutoOptimize)
	r.Get("/summary", h.Summary)
}

// Routes returns the /variants router
func (h *Handler) Routes(auth func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(auth)

	r.Get("/{id}", h.Get)
	r.Post("/{id}/approve", h.Approve)
	r.Post("/{id}/reject", h.Reject)
	r.Post("/{id}/deploy", h.Deploy)
	r.Post("/{id}/pause", h.Pause)
	r.Post("/{id}/resume", h.Resume)
	r.Post("/{id}/counters", h.RecordCounters)
	r.Post("/{id}/image", h.UploadImage)

	return r
}

// Generate handles POST /campaigns/{campaignID}/variants/generate
func (h *Handler) Generate(w http.ResponseWriter, r *http.Request) {
	campaignID, ok := campaign.CampaignIDParam(w, r)
	if !ok {
		return
	}

	var req GenerateRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil && !errors.Is(err, io.EOF) {
		response.BadRequest(w, "Invalid JSON body")
		return
	}
	if errs := validator.Validate(&req); errs != nil {
		response.ValidationError(w, errs)
		return
	}

	outcome, err := h.service.GenerateVariants(r.Context(), campaignID, req.ToContext())
	if err != nil {
		h.writeError(w, r, err, "Failed to generate variants")
		return
	}
	if !outcome.RateLimit.Allowed {
		details := map[string]string{"code": outcome.RateLimit.Code}
		if outcome.RateLimit.NextAllowedAt != nil {
			details["next_allowed_at"] = outcome.RateLimit.NextAllowedAt.Format(time.RFC3339)
		}
		response.TooManyRequests(w, outcome.RateLimit.Reason, details)
		return
	}

	drafts := make([]DraftResponse, len(outcome.Drafts))
	for i, d := range outcome.Drafts {
		drafts[i] = DraftResponseFrom(d)
	}
	response.OK(w, GenerateResponse{Drafts: drafts})
}

// Save handles POST /campaigns/{campaignID}/variants
func (h *Handler) Save(w http.ResponseWriter, r *http.Request) {
	campaignID, ok := campaign.CampaignIDParam(w, r)
	if !ok {
		return
	}

	var req SaveRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}
	if errs := validator.Validate(&req); errs != nil {
		response.ValidationError(w, errs)
		return
	}

	ids, err := h.service.SaveVariants(r.Context(), campaignID, req.ToDrafts())
	if err != nil {
		h.writeError(w, r, err, "Failed to save variants")
		return
	}
	response.Created(w, SaveResponse{IDs: ids})
}

// List handles GET /campaigns/{campaignID}/variants
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	campaignID, ok := campaign.CampaignIDParam(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	filter := Filter{
		Approval:   ApprovalStatus(q.Get("approval")),
		Deployment: DeploymentStatus(q.Get("deployment")),
	}
	if s := q.Get("status"); s != "" {
		filter.Statuses = []Status{Status(s)}
	}

	variants, err := h.service.ListVariants(r.Context(), campaignID, filter)
	if err != nil {
		h.writeError(w, r, err, "Failed to list variants")
		return
	}

	items := make([]*Response, 0, len(variants))
	for _, v := range variants {
		items = append(items, v.ToResponse())
	}
	response.OK(w, map[string]interface{}{
		"items": items,
		"total": len(items),
	})
}

// Winner handles GET /campaigns/{campaignID}/winner
func (h *Handler) Winner(w http.ResponseWriter, r *http.Request) {
	campaignID, ok := campaign.CampaignIDParam(w, r)
	if !ok {
		return
	}

	result, err := h.service.IdentifyWinner(r.Context(), campaignID, ParseScope(r.URL.Query().Get("scope")))
	if err != nil {
		h.writeError(w, r, err, "Failed to identify winner")
		return
	}
	response.OK(w, WinnerResponseFrom(result))
}

// UpdateStatuses handles POST /campaigns/{campaignID}/update-statuses
func (h *Handler) UpdateStatuses(w http.ResponseWriter, r *http.Request) {
	campaignID, ok := campaign.CampaignIDParam(w, r)
	if !ok {
		return
	}

	result, err := h.service.UpdateVariantStatuses(r.Context(), campaignID)
	if err != nil {
		h.writeError(w, r, err, "Failed to update variant statuses")
		return
	}
	response.OK(w, WinnerResponseFrom(result))
}

// AutoOptimize handles POST /campaigns/{campaignID}/auto-optimize
func (h *Handler) AutoOptimize(w http.ResponseWriter, r *http.Request) {
	campaignID, ok := campaign.CampaignIDParam(w, r)
	if !ok {
		return
	}

	result, err := h.service.AutoOptimize(r.Context(), campaignID)
	if err != nil {
		h.writeError(w, r, err, "Failed to auto-optimize campaign")
		return
	}
	response.OK(w, AutoOptimizeResponse{
		Optimized: result.Optimized,
		WinnerID:  result.WinnerID,
		Message:   result.Message,
	})
}

// Summary handles GET /campaigns/{campaignID}/summary
func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	campaignID, ok := campaign.CampaignIDParam(w, r)
	if !ok {
		return
	}

	summary, err := h.service.GetCampaignSummary(r.Context(), campaignID)
	if err != nil {
		h.writeError(w, r, err, "Failed to build campaign summary")
		return
	}
	response.OK(w, SummaryResponseFrom(summary))
}

// Get handles GET /variants/{id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := variantIDParam(w, r)
	if !ok {
		return
	}

	v, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err, "Failed to get variant")
		return
	}
	response.OK(w, v.ToResponse())
}

// Approve handles POST /variants/{id}/approve
func (h *Handler) Approve(w http.ResponseWriter, r *http.Request) {
	h.runTransition(w, r, false, func(id, userID int64, _ string) (*Variant, error) {
		return h.service.Approve(r.Context(), id, userID)
	})
}

// Reject handles POST /variants/{id}/reject
func (h *Handler) Reject(w http.ResponseWriter, r *http.Request) {
	h.runTransition(w, r, true, func(id, userID int64, reason string) (*Variant, error) {
		return h.service.Reject(r.Context(), id, userID, reason)
	})
}

// Deploy handles POST /variants/{id}/deploy
func (h *Handler) Deploy(w http.ResponseWriter, r *http.Request) {
	h.runTransition(w, r, false, func(id, userID int64, _ string) (*Variant, error) {
		return h.service.Deploy(r.Context(), id, userID)
	})
}

// Pause handles POST /variants/{id}/pause
func (h *Handler) Pause(w http.ResponseWriter, r *http.Request) {
	h.runTransition(w, r, true, func(id, userID int64, reason string) (*Variant, error) {
		return h.service.Pause(r.Context(), id, userID, reason)
	})
}

// Resume handles POST /variants/{id}/resume
func (h *Handler) Resume(w http.ResponseWriter, r *http.Request) {
	h.runTransition(w, r, false, func(id, userID int64, _ string) (*Variant, error) {
		return h.service.Resume(r.Context(), id, userID)
	})
}

func (h *Handler) runTransition(
	w http.ResponseWriter,
	r *http.Request,
	withReason bool,
	do func(id, userID int64, reason string) (*Variant, error),
) {
	userID := middleware.GetUserID(r.Context())
	if userID == 0 {
		response.Unauthorized(w, "unauthorized")
		return
	}
	id, ok := variantIDParam(w, r)
	if !ok {
		return
	}

	var req ReasonRequest
	if withReason {
		if err := response.DecodeJSON(r.Body, &req); err != nil && !errors.Is(err, io.EOF) {
			response.BadRequest(w, "Invalid JSON body")
			return
		}
		if errs := validator.Validate(&req); errs != nil {
			response.ValidationError(w, errs)
			return
		}
	}

	v, err := do(id, userID, req.Reason)
	if err != nil {
		h.writeError(w, r, err, "Failed to transition variant")
		return
	}
	response.OK(w, v.ToResponse())
}

// RecordCounters handles POST /variants/{id}/counters
func (h *Handler) RecordCounters(w http.ResponseWriter, r *http.Request) {
	id, ok := variantIDParam(w, r)
	if !ok {
		return
	}

	var req CountersRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}
	if errs := validator.Validate(&req); errs != nil {
		response.ValidationError(w, errs)
		return
	}

	v, err := h.service.RecordCounters(r.Context(), id, Counters{
		Impressions: req.Impressions,
		Clicks:      req.Clicks,
		Conversions: req.Conversions,
		Cost:        req.Cost,
	})
	if err != nil {
		h.writeError(w, r, err, "Failed to record counters")
		return
	}
	response.OK(w, v.ToResponse())
}

// UploadImage handles POST /variants/{id}/image
// Multipart form: file
func (h *Handler) UploadImage(w http.ResponseWriter, r *http.Request) {
	id, ok := variantIDParam(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, imaging.MaxFileSize+1024*1024)
	if err := r.ParseMultipartForm(imaging.MaxFileSize); err != nil {
		response.BadRequest(w, "File too large or invalid form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		response.BadRequest(w, "No file provided")
		return
	}
	defer file.Close()

	if !imaging.ValidateType(header.Filename) {
		response.BadRequest(w, "File type not allowed")
		return
	}

	v, err := h.service.UploadCreative(r.Context(), id, file)
	if err != nil {
		h.writeError(w, r, err, "Failed to upload creative")
		return
	}
	response.OK(w, v.ToResponse())
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error, msg string) {
	switch {
	case errors.Is(err, ErrVariantNotFound):
		response.NotFound(w, "Variant not found")
	case errors.Is(err, campaign.ErrCampaignNotFound):
		response.NotFound(w, "Campaign not found")
	case errors.Is(err, ErrPrecondition):
		response.Precondition(w, err.Error())
	case errors.Is(err, ErrGenerationFailed):
		logger.FromContext(r.Context()).Error().Err(err).Msg(msg)
		response.BadGateway(w, "Failed to generate ad variations")
	case errors.Is(err, ErrInvalidCounters), errors.Is(err, ErrNoDrafts):
		response.BadRequest(w, err.Error())
	case errors.Is(err, imaging.ErrTooLarge):
		response.BadRequest(w, "File exceeds maximum size")
	case errors.Is(err, imaging.ErrUnsupported):
		response.BadRequest(w, "File type not allowed")
	case errors.Is(err, ErrCreativesOff):
		response.Error(w, http.StatusServiceUnavailable, "UNAVAILABLE", "Creative uploads are not configured")
	default:
		logger.FromContext(r.Context()).Error().Err(err).Msg(msg)
		response.InternalError(w)
	}
}

func variantIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		response.BadRequest(w, "Invalid variant ID")
		return 0, false
	}
	return id, true
}
