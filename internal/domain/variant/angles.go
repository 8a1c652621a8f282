package variant

// Angle is a persuasion technique attached to a generated variant
type Angle struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Examples    []string `json:"examples"`
	// Required angles are requested on every generation
	Required bool `json:"required"`
}

const (
	AngleScarcity    = "Scarcity"
	AngleSocialProof = "Social Proof"
	AngleAuthority   = "Authority"
	AngleReciprocity = "Reciprocity"
	AngleCuriosity   = "Curiosity"
	AngleFOMO        = "FOMO"
)

// Angles is the closed catalogue, in prompt order
var Angles = []Angle{
	{
		Name:        AngleScarcity,
		Description: "Limited availability or time pressure",
		Examples:    []string{"Limited time offer", "Only 5 spots left", "Ends tonight"},
		Required:    true,
	},
	{
		Name:        AngleSocialProof,
		Description: "Testimonials, reviews, or popularity indicators",
		Examples:    []string{"Join 10,000+ customers", "Rated 4.9/5 stars", "Trusted by industry leaders"},
		Required:    true,
	},
	{
		Name:        AngleAuthority,
		Description: "Expert endorsement or credentials",
		Examples:    []string{"Recommended by experts", "Award-winning", "Industry-certified"},
		Required:    true,
	},
	{
		Name:        AngleReciprocity,
		Description: "Free value or gifts to create obligation",
		Examples:    []string{"Free guide included", "Get a free consultation", "No credit card required"},
		Required:    true,
	},
	{
		Name:        AngleCuriosity,
		Description: "Intriguing questions or incomplete information",
		Examples:    []string{"Discover the secret to...", "What if you could...", "The surprising truth about..."},
		Required:    true,
	},
	{
		Name:        AngleFOMO,
		Description: "Highlighting what others are gaining",
		Examples:    []string{"Don't get left behind", "Everyone's switching to...", "Be part of the movement"},
	},
}

// RequiredAngles returns the angle names every generated batch must cover
func RequiredAngles() []string {
	var names []string
	for _, a := range Angles {
		if a.Required {
			names = append(names, a.Name)
		}
	}
	return names
}

// IsKnownAngle reports whether name is in the catalogue
func IsKnownAngle(name string) bool {
	for _, a := range Angles {
		if a.Name == name {
			return true
		}
	}
	return false
}
