package validator

import "testing"

type draftRequest struct {
	Name  string `json:"name" validate:"required,max=255"`
	Angle string `json:"psychological_angle" validate:"required,psych_angle"`
	Count int    `json:"count" validate:"gte=0"`
}

func TestValidateReportsJSONFieldNames(t *testing.T) {
	errs := Validate(draftRequest{Angle: "Guilt", Count: -1})

	if errs["name"] != "This field is required" {
		t.Fatalf("expected required error for name, got %q", errs["name"])
	}
	if errs["psychological_angle"] == "" {
		t.Fatal("expected angle error")
	}
	if errs["count"] == "" {
		t.Fatal("expected gte error for count")
	}
}

func TestValidateAcceptsKnownAngles(t *testing.T) {
	for _, angle := range []string{"Scarcity", "Social Proof", "Authority", "Reciprocity", "Curiosity", "FOMO"} {
		if errs := Validate(draftRequest{Name: "v", Angle: angle}); errs != nil {
			t.Fatalf("expected %q to validate, got %v", angle, errs)
		}
	}
}
