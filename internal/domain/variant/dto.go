package variant

import (
	"math"
	"time"
)

// GenerateRequest carries optional context on top of the stored campaign
type GenerateRequest struct {
	TargetAudience string `json:"target_audience" validate:"max=1000"`
	Budget         string `json:"budget" validate:"max=50"`
	Platforms      string `json:"platforms" validate:"max=255"`
	BusinessName   string `json:"business_name" validate:"max=255"`
	BrandVoice     string `json:"brand_voice" validate:"max=500"`
	ProductService string `json:"product_service" validate:"max=1000"`
}

// ToContext converts the request to a generation context
func (r *GenerateRequest) ToContext() GenerationContext {
	return GenerationContext{
		TargetAudience: r.TargetAudience,
		Budget:         r.Budget,
		Platforms:      r.Platforms,
		BusinessName:   r.BusinessName,
		BrandVoice:     r.BrandVoice,
		ProductService: r.ProductService,
	}
}

// DraftResponse is a generated draft
type DraftResponse struct {
	Name               string `json:"name"`
	PsychologicalAngle string `json:"psychological_angle"`
	Headline           string `json:"headline"`
	BodyCopy           string `json:"body_copy"`
	CallToAction       string `json:"call_to_action"`
	AdCopy             string `json:"ad_copy"`
	ImagePrompt        string `json:"image_prompt"`
}

// DraftResponseFrom converts a draft
func DraftResponseFrom(d Draft) DraftResponse {
	return DraftResponse{
		Name:               d.Name,
		PsychologicalAngle: d.PsychologicalAngle,
		Headline:           d.Headline,
		BodyCopy:           d.BodyCopy,
		CallToAction:       d.CallToAction,
		AdCopy:             d.AdCopy(),
		ImagePrompt:        d.ImagePrompt,
	}
}

// GenerateResponse is returned when generation was allowed
type GenerateResponse struct {
	Drafts []DraftResponse `json:"drafts"`
}

// SaveDraftRequest is one draft to persist
type SaveDraftRequest struct {
	Name               string `json:"name" validate:"required,max=255"`
	PsychologicalAngle string `json:"psychological_angle" validate:"required,psych_angle"`
	AdCopy             string `json:"ad_copy" validate:"required,max=2000"`
	ImagePrompt        string `json:"image_prompt" validate:"max=2000"`
}

// SaveRequest for POST /campaigns/{id}/variants
type SaveRequest struct {
	Drafts []SaveDraftRequest `json:"drafts" validate:"required,min=1,max=10,dive"`
}

// ToDrafts converts the request
func (r *SaveRequest) ToDrafts() []SaveDraft {
	out := make([]SaveDraft, len(r.Drafts))
	for i, d := range r.Drafts {
		out[i] = SaveDraft{
			Name:               d.Name,
			PsychologicalAngle: d.PsychologicalAngle,
			AdCopy:             d.AdCopy,
			ImagePrompt:        d.ImagePrompt,
		}
	}
	return out
}

// SaveResponse lists persisted ids
type SaveResponse struct {
	IDs []int64 `json:"ids"`
}

// ReasonRequest for reject and pause
type ReasonRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}

// CountersRequest for POST /variants/{id}/counters
type CountersRequest struct {
	Impressions int64 `json:"impressions" validate:"gte=0"`
	Clicks      int64 `json:"clicks" validate:"gte=0"`
	Conversions int64 `json:"conversions" validate:"gte=0"`
	Cost        int64 `json:"cost" validate:"gte=0"`
}

// Response for API response
type Response struct {
	ID                 int64   `json:"id"`
	CampaignID         int64   `json:"campaign_id"`
	Name               string  `json:"name"`
	PsychologicalAngle string  `json:"psychological_angle"`
	AdCopy             string  `json:"ad_copy"`
	ImageURL           string  `json:"image_url,omitempty"`
	ImagePrompt        string  `json:"image_prompt,omitempty"`
	Impressions        int64   `json:"impressions"`
	Clicks             int64   `json:"clicks"`
	Conversions        int64   `json:"conversions"`
	Cost               int64   `json:"cost"`
	CTR                string  `json:"ctr"`
	ConversionRate     string  `json:"conversion_rate"`
	Status             string  `json:"status"`
	ApprovalStatus     string  `json:"approval_status"`
	DeploymentStatus   string  `json:"deployment_status"`
	DeployedAt         *string `json:"deployed_at,omitempty"`
	PausedAt           *string `json:"paused_at,omitempty"`
	CreatedAt          string  `json:"created_at"`
	UpdatedAt          string  `json:"updated_at"`
}

// ToResponse converts entity to response
func (v *Variant) ToResponse() *Response {
	resp := &Response{
		ID:                 v.ID,
		CampaignID:         v.CampaignID,
		Name:               v.Name,
		PsychologicalAngle: v.PsychologicalAngle,
		AdCopy:             v.AdCopy,
		ImageURL:           v.ImageURL.String,
		ImagePrompt:        v.ImagePrompt.String,
		Impressions:        v.Impressions,
		Clicks:             v.Clicks,
		Conversions:        v.Conversions,
		Cost:               v.Cost,
		CTR:                v.CTR,
		ConversionRate:     v.ConversionRate,
		Status:             string(v.Status),
		ApprovalStatus:     string(v.ApprovalStatus),
		DeploymentStatus:   string(v.DeploymentStatus),
		CreatedAt:          v.CreatedAt.Format(time.RFC3339),
		UpdatedAt:          v.UpdatedAt.Format(time.RFC3339),
	}
	if v.DeployedAt.Valid {
		s := v.DeployedAt.Time.Format(time.RFC3339)
		resp.DeployedAt = &s
	}
	if v.PausedAt.Valid {
		s := v.PausedAt.Time.Format(time.RFC3339)
		resp.PausedAt = &s
	}
	return resp
}

// MetricsResponse is JSON-safe scorer output; cost_per_conversion is null without conversions
type MetricsResponse struct {
	CTR               float64  `json:"ctr"`
	ConversionRate    float64  `json:"conversion_rate"`
	CostPerConversion *float64 `json:"cost_per_conversion"`
	Score             float64  `json:"score"`
}

// MetricsResponseFrom converts scorer output
func MetricsResponseFrom(m Metrics) MetricsResponse {
	resp := MetricsResponse{
		CTR:            round2(m.CTR),
		ConversionRate: round2(m.ConversionRate),
		Score:          round2(m.Score),
	}
	if !math.IsInf(m.CostPerConversion, 0) {
		cpc := round2(m.CostPerConversion)
		resp.CostPerConversion = &cpc
	}
	return resp
}

// ScoredVariantResponse is a variant with its metrics
type ScoredVariantResponse struct {
	ID                 int64  `json:"id"`
	Name               string `json:"name"`
	PsychologicalAngle string `json:"psychological_angle"`
	Status             string `json:"status"`
	Counters
	MetricsResponse
}

func scoredResponses(in []ScoredVariant) []ScoredVariantResponse {
	out := make([]ScoredVariantResponse, len(in))
	for i, sv := range in {
		out[i] = ScoredVariantResponse{
			ID:                 sv.Variant.ID,
			Name:               sv.Variant.Name,
			PsychologicalAngle: sv.Variant.PsychologicalAngle,
			Status:             string(sv.Variant.Status),
			Counters:           sv.Variant.Counters(),
			MetricsResponse:    MetricsResponseFrom(sv.Metrics),
		}
	}
	return out
}

// WinnerResponse for GET /campaigns/{id}/winner
type WinnerResponse struct {
	WinnerID       *int64                  `json:"winner_id"`
	Variants       []ScoredVariantResponse `json:"variants"`
	HasMinimumData bool                    `json:"has_minimum_data"`
}

// WinnerResponseFrom converts a winner result
func WinnerResponseFrom(r *WinnerResult) WinnerResponse {
	return WinnerResponse{
		WinnerID:       r.WinnerID,
		Variants:       scoredResponses(r.Variants),
		HasMinimumData: r.HasMinimumData,
	}
}

// AutoOptimizeResponse for POST /campaigns/{id}/auto-optimize
type AutoOptimizeResponse struct {
	Optimized bool   `json:"optimized"`
	WinnerID  *int64 `json:"winner_id"`
	Message   string `json:"message"`
}

// SummaryResponse for GET /campaigns/{id}/summary
type SummaryResponse struct {
	Variants []ScoredVariantResponse `json:"variants"`
	Overall  struct {
		TotalImpressions int64 `json:"total_impressions"`
		TotalClicks      int64 `json:"total_clicks"`
		TotalConversions int64 `json:"total_conversions"`
		TotalCost        int64 `json:"total_cost"`
		MetricsResponse
	} `json:"overall"`
}

// SummaryResponseFrom converts a summary
func SummaryResponseFrom(s *Summary) SummaryResponse {
	var resp SummaryResponse
	resp.Variants = scoredResponses(s.Variants)
	resp.Overall.TotalImpressions = s.Totals.Impressions
	resp.Overall.TotalClicks = s.Totals.Clicks
	resp.Overall.TotalConversions = s.Totals.Conversions
	resp.Overall.TotalCost = s.Totals.Cost
	resp.Overall.MetricsResponse = MetricsResponseFrom(s.Overall)
	return resp
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
