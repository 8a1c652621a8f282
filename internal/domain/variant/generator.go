package variant

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/sashabaranov/go-openai/jsonschema"

	"github.com/upsurge/campaign-lab/internal/pkg/llm"
	"github.com/upsurge/campaign-lab/internal/pkg/logger"
)

const (
	DraftsPerBatch   = 5
	MaxHeadlineChars = 60
	MaxBodyCopyChars = 150
)

// TextGenerator is the structured chat-completion capability
type TextGenerator interface {
	Complete(ctx context.Context, req llm.Request) (string, error)
}

// GenerationContext describes the campaign the copy is written for
type GenerationContext struct {
	CampaignName   string
	Goal           string
	TargetAudience string
	Budget         string
	Platforms      string
	BusinessName   string
	BrandVoice     string
	ProductService string
}

// Draft is a generated, not yet persisted, variant
type Draft struct {
	Name               string `json:"name"`
	PsychologicalAngle string `json:"psychologicalAngle"`
	Headline           string `json:"headline"`
	BodyCopy           string `json:"bodyCopy"`
	CallToAction       string `json:"callToAction"`
	ImagePrompt        string `json:"imagePrompt"`
}

// AdCopy joins headline, body and call to action with blank lines
func (d Draft) AdCopy() string {
	return d.Headline + "\n\n" + d.BodyCopy + "\n\n" + d.CallToAction
}

// Generator turns a campaign context into one draft per required angle
type Generator struct {
	text TextGenerator
}

// NewGenerator creates a variant generator
func NewGenerator(text TextGenerator) *Generator {
	return &Generator{text: text}
}

// Generate makes a single structured call. Any failure, including a batch
// that does not cover every required angle, is a *GenerationError.
func (g *Generator) Generate(ctx context.Context, gc GenerationContext) ([]Draft, error) {
	log := logger.FromContext(ctx)

	raw, err := g.text.Complete(ctx, llm.Request{
		System:      systemPrompt(),
		User:        userPrompt(gc),
		SchemaName:  "campaign_variants",
		Schema:      draftSchema(),
		Temperature: 0.8,
	})
	if err != nil {
		log.Error().Err(err).Str("campaign", gc.CampaignName).Msg("Variant generation call failed")
		return nil, &GenerationError{Cause: err}
	}

	var payload struct {
		Variants []Draft `json:"variants"`
	}
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, &GenerationError{Cause: fmt.Errorf("parse variants: %w", err)}
	}

	drafts := normalizeDrafts(payload.Variants)
	if err := validateDrafts(drafts); err != nil {
		log.Warn().Err(err).Int("drafts", len(drafts)).Msg("Generated variants rejected")
		return nil, &GenerationError{Cause: err}
	}

	log.Info().Str("campaign", gc.CampaignName).Int("drafts", len(drafts)).Msg("Variants generated")
	return drafts, nil
}

func normalizeDrafts(in []Draft) []Draft {
	out := make([]Draft, len(in))
	for i, d := range in {
		out[i] = Draft{
			Name:               strings.TrimSpace(d.Name),
			PsychologicalAngle: strings.TrimSpace(d.PsychologicalAngle),
			Headline:           strings.TrimSpace(d.Headline),
			BodyCopy:           strings.TrimSpace(d.BodyCopy),
			CallToAction:       strings.TrimSpace(d.CallToAction),
			ImagePrompt:        strings.TrimSpace(d.ImagePrompt),
		}
	}
	return out
}

func validateDrafts(drafts []Draft) error {
	if len(drafts) != DraftsPerBatch {
		return fmt.Errorf("expected %d variations, got %d", DraftsPerBatch, len(drafts))
	}

	seen := make(map[string]bool, len(drafts))
	for i, d := range drafts {
		switch {
		case d.Name == "", d.Headline == "", d.BodyCopy == "", d.CallToAction == "", d.ImagePrompt == "":
			return fmt.Errorf("variation %d has empty fields", i+1)
		case utf8.RuneCountInString(d.Headline) > MaxHeadlineChars:
			return fmt.Errorf("variation %d headline exceeds %d characters", i+1, MaxHeadlineChars)
		case utf8.RuneCountInString(d.BodyCopy) > MaxBodyCopyChars:
			return fmt.Errorf("variation %d body copy exceeds %d characters", i+1, MaxBodyCopyChars)
		case seen[d.PsychologicalAngle]:
			return fmt.Errorf("angle %q used more than once", d.PsychologicalAngle)
		}
		seen[d.PsychologicalAngle] = true
	}

	for _, angle := range RequiredAngles() {
		if !seen[angle] {
			return fmt.Errorf("missing required angle %q", angle)
		}
	}
	return nil
}

func systemPrompt() string {
	var b strings.Builder
	b.WriteString("You are an expert advertising copywriter specializing in psychological marketing.\n")
	fmt.Fprintf(&b, "Generate %d distinct ad variations for this campaign, each using a different psychological angle.\n\n", DraftsPerBatch)
	fmt.Fprintf(&b, "The %d psychological angles to use:\n", DraftsPerBatch)

	n := 0
	for _, a := range Angles {
		if !a.Required {
			continue
		}
		n++
		fmt.Fprintf(&b, "%d. %s - %s (e.g. %s)\n", n, a.Name, a.Description, strings.Join(a.Examples, "; "))
	}

	fmt.Fprintf(&b, `
For each variation, create:
- A compelling headline (max %d characters)
- Body copy (max %d characters for social ads)
- A clear call-to-action
- An image generation prompt describing the visual

Match the brand voice and appeal to the target audience.`, MaxHeadlineChars, MaxBodyCopyChars)
	return b.String()
}

func userPrompt(gc GenerationContext) string {
	lines := []string{
		"Campaign: " + gc.CampaignName,
		"Goal: " + gc.Goal,
	}
	optional := []struct{ label, value string }{
		{"Target Audience", gc.TargetAudience},
		{"Budget", gc.Budget},
		{"Platforms", gc.Platforms},
		{"Business", gc.BusinessName},
		{"Brand Voice", gc.BrandVoice},
		{"Product/Service", gc.ProductService},
	}
	for _, o := range optional {
		if o.value != "" {
			lines = append(lines, o.label+": "+o.value)
		}
	}

	return fmt.Sprintf(`Generate %d ad variations for this campaign:

%s

Return exactly %d variations, one per angle (%s).`,
		DraftsPerBatch, strings.Join(lines, "\n"), DraftsPerBatch, strings.Join(RequiredAngles(), ", "))
}

func draftSchema() jsonschema.Definition {
	str := func(desc string) jsonschema.Definition {
		return jsonschema.Definition{Type: jsonschema.String, Description: desc}
	}

	return jsonschema.Definition{
		Type: jsonschema.Object,
		Properties: map[string]jsonschema.Definition{
			"variants": {
				Type: jsonschema.Array,
				Items: &jsonschema.Definition{
					Type: jsonschema.Object,
					Properties: map[string]jsonschema.Definition{
						"name":               str("Variation name, e.g. 'Scarcity Angle'"),
						"psychologicalAngle": {Type: jsonschema.String, Description: "The angle used", Enum: RequiredAngles()},
						"headline":           str(fmt.Sprintf("Ad headline, max %d characters", MaxHeadlineChars)),
						"bodyCopy":           str(fmt.Sprintf("Ad body copy, max %d characters", MaxBodyCopyChars)),
						"callToAction":       str("Call to action, e.g. 'Shop Now'"),
						"imagePrompt":        str("Image generation prompt"),
					},
					Required:             []string{"name", "psychologicalAngle", "headline", "bodyCopy", "callToAction", "imagePrompt"},
					AdditionalProperties: false,
				},
			},
		},
		Required:             []string{"variants"},
		AdditionalProperties: false,
	}
}
