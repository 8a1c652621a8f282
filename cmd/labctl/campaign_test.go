package main

import (
	"bytes"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/upsurge/campaign-lab/internal/domain/campaign"
	"github.com/upsurge/campaign-lab/internal/domain/optimizer"
	"github.com/upsurge/campaign-lab/internal/domain/variant"
)

func TestParseID(t *testing.T) {
	tests := []struct {
		arg     string
		want    int64
		wantErr bool
	}{
		{"42", 42, false},
		{"0", 0, true},
		{"-3", 0, true},
		{"abc", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.arg, func(t *testing.T) {
			got, err := parseID(tt.arg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseID(%q) error = %v, wantErr %v", tt.arg, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("parseID(%q) = %d, want %d", tt.arg, got, tt.want)
			}
		})
	}
}

func TestPrintWinnerResult(t *testing.T) {
	id := int64(2)
	result := &variant.WinnerResult{
		WinnerID:       &id,
		HasMinimumData: true,
		Variants: []variant.ScoredVariant{
			{
				Variant: &variant.Variant{ID: 2, Name: "Scarcity Push", Status: variant.StatusWinning, Impressions: 1000, Clicks: 100, Conversions: 30, Cost: 500},
				Metrics: variant.Metrics{CTR: 10, ConversionRate: 30, CostPerConversion: 16.67, Score: 99.5},
			},
			{
				Variant: &variant.Variant{ID: 3, Name: "Curious", Status: variant.StatusLosing, Impressions: 1000, Clicks: 20},
				Metrics: variant.Metrics{CTR: 2, CostPerConversion: math.Inf(1), Score: 6},
			},
		},
	}

	var buf bytes.Buffer
	printWinnerResult(&buf, result)
	out := buf.String()

	if !strings.HasPrefix(out, "Winner: variant 2\n") {
		t.Fatalf("unexpected header in %q", out)
	}
	if !strings.Contains(out, "99.5") || !strings.Contains(out, "16.67") {
		t.Errorf("expected leader metrics in %q", out)
	}
	if !strings.Contains(out, "Curious") || !strings.Contains(out, " - ") {
		t.Errorf("expected infinite cost rendered as '-' in %q", out)
	}
}

func TestPrintWinnerResultOutcomes(t *testing.T) {
	one := []variant.ScoredVariant{{Variant: &variant.Variant{ID: 1, Name: "A"}}}

	tests := []struct {
		name   string
		result *variant.WinnerResult
		want   string
	}{
		{"empty", &variant.WinnerResult{}, "No variants"},
		{"insufficient", &variant.WinnerResult{Variants: one}, "Insufficient data"},
		{"too close", &variant.WinnerResult{Variants: one, HasMinimumData: true}, "No clear winner yet"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			printWinnerResult(&buf, tt.result)
			if !strings.HasPrefix(buf.String(), tt.want) {
				t.Errorf("expected output starting with %q, got %q", tt.want, buf.String())
			}
		})
	}
}

func TestPrintOptimizeResult(t *testing.T) {
	var buf bytes.Buffer
	printOptimizeResult(&buf, &optimizer.Result{
		CampaignID:     10,
		OptimizedCount: 1,
		Actions: []optimizer.Action{
			{VariantID: 4, VariantName: "Weak", Action: optimizer.ActionPause, Score: 18.5, Reason: "Auto-paused: performance score 18.5 is below 30."},
		},
	})
	out := buf.String()
	if !strings.Contains(out, "Campaign 10: 1 variant(s) changed") || !strings.Contains(out, "Auto-paused") {
		t.Errorf("unexpected output %q", out)
	}

	buf.Reset()
	printOptimizeResult(&buf, &optimizer.Result{CampaignID: 10, Skipped: true})
	if !strings.Contains(buf.String(), "skipped") {
		t.Errorf("expected skipped notice, got %q", buf.String())
	}
}

func TestPrintRateLimit(t *testing.T) {
	next := time.Date(2026, 3, 10, 13, 0, 0, 0, time.UTC)

	var buf bytes.Buffer
	printRateLimit(&buf, campaign.RateLimitStatus{
		Allowed:       false,
		Code:          campaign.ReasonCooldown,
		Reason:        "Please wait before generating more variants.",
		NextAllowedAt: &next,
	})
	out := buf.String()
	if !strings.Contains(out, "denied (cooldown)") || !strings.Contains(out, "2026-03-10T13:00:00Z") {
		t.Errorf("unexpected output %q", out)
	}

	buf.Reset()
	printRateLimit(&buf, campaign.RateLimitStatus{Allowed: true})
	if buf.String() != "Generation allowed\n" {
		t.Errorf("unexpected output %q", buf.String())
	}
}
