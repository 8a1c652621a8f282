package campaign

import "time"

// CreateRequest for creating a campaign
type CreateRequest struct {
	Name           string `json:"name" validate:"required,min=2,max=255"`
	Goal           string `json:"goal" validate:"required,min=2,max=1000"`
	TargetAudience string `json:"target_audience" validate:"max=1000"`
	Budget         string `json:"budget" validate:"max=50"`
	Platforms      string `json:"platforms" validate:"max=255"`
	Status         string `json:"status" validate:"omitempty,oneof=draft active paused completed"`
}

// Response for API response
type Response struct {
	ID                     int64   `json:"id"`
	UserID                 int64   `json:"user_id"`
	Name                   string  `json:"name"`
	Goal                   string  `json:"goal"`
	TargetAudience         string  `json:"target_audience,omitempty"`
	Budget                 string  `json:"budget,omitempty"`
	Platforms              string  `json:"platforms,omitempty"`
	Status                 string  `json:"status"`
	LastVariantGeneratedAt *string `json:"last_variant_generated_at,omitempty"`
	VariantGenerationCount int     `json:"variant_generation_count"`
	CreatedAt              string  `json:"created_at"`
	UpdatedAt              string  `json:"updated_at"`
}

// ToResponse converts entity to response
func (c *Campaign) ToResponse() *Response {
	resp := &Response{
		ID:                     c.ID,
		UserID:                 c.UserID,
		Name:                   c.Name,
		Goal:                   c.Goal,
		TargetAudience:         c.TargetAudience.String,
		Budget:                 c.Budget.String,
		Platforms:              c.Platforms.String,
		Status:                 string(c.Status),
		VariantGenerationCount: c.VariantGenerationCount,
		CreatedAt:              c.CreatedAt.Format(time.RFC3339),
		UpdatedAt:              c.UpdatedAt.Format(time.RFC3339),
	}
	if c.LastVariantGeneratedAt.Valid {
		s := c.LastVariantGeneratedAt.Time.Format(time.RFC3339)
		resp.LastVariantGeneratedAt = &s
	}
	return resp
}
