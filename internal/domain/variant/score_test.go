package variant

import (
	"math"
	"testing"
)

func approxEqual(a, b float64) bool {
	return math.Abs(a-b) < 0.01
}

func TestScoreKnownValues(t *testing.T) {
	tests := []struct {
		name string
		in   Counters
		want float64
	}{
		{name: "strong", in: Counters{Impressions: 1000, Clicks: 100, Conversions: 30, Cost: 500}, want: 99.5},
		{name: "middling", in: Counters{Impressions: 1000, Clicks: 20, Conversions: 2, Cost: 500}, want: 48.5},
		{name: "weak", in: Counters{Impressions: 1000, Clicks: 15, Conversions: 1, Cost: 500}, want: 32.83},
		{name: "no conversions scores no cost component", in: Counters{Impressions: 1000, Clicks: 100}, want: 30},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Score(tc.in).Score
			if !approxEqual(got, tc.want) {
				t.Fatalf("expected %.2f, got %.2f", tc.want, got)
			}
		})
	}
}

func TestScoreGateStillReportsRates(t *testing.T) {
	tests := []struct {
		name string
		in   Counters
	}{
		{name: "too few impressions", in: Counters{Impressions: 99, Clicks: 50, Conversions: 10, Cost: 10}},
		{name: "too few clicks", in: Counters{Impressions: 5000, Clicks: 9, Conversions: 9, Cost: 10}},
		{name: "empty", in: Counters{}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			m := Score(tc.in)
			if m.Score != 0 {
				t.Fatalf("expected score 0, got %v", m.Score)
			}
			if tc.in.Impressions > 0 && m.CTR == 0 && tc.in.Clicks > 0 {
				t.Fatal("expected CTR to be computed below the gate")
			}
		})
	}
}

func TestScoreCostPerConversionInfinite(t *testing.T) {
	m := Score(Counters{Impressions: 500, Clicks: 50, Cost: 900})
	if !math.IsInf(m.CostPerConversion, 1) {
		t.Fatalf("expected +Inf cost per conversion, got %v", m.CostPerConversion)
	}
	if m.ConversionRate != 0 {
		t.Fatalf("expected 0 conversion rate, got %v", m.ConversionRate)
	}
}

func TestScoreBounded(t *testing.T) {
	m := Score(Counters{Impressions: 100, Clicks: 100, Conversions: 100, Cost: 0})
	if m.Score > 100 || m.Score < 0 {
		t.Fatalf("score out of range: %v", m.Score)
	}
	if !approxEqual(m.Score, 100) {
		t.Fatalf("expected saturated score 100, got %v", m.Score)
	}
}

func TestScoreMonotonic(t *testing.T) {
	base := Counters{Impressions: 1000, Clicks: 20, Conversions: 2, Cost: 500}
	baseScore := Score(base).Score

	moreClicks := base
	moreClicks.Clicks = 30
	moreClicks.Conversions = 3
	if Score(moreClicks).Score < baseScore {
		t.Fatal("more clicks at the same conversion rate lowered the score")
	}

	moreConversions := base
	moreConversions.Conversions = 4
	if Score(moreConversions).Score < baseScore {
		t.Fatal("more conversions lowered the score")
	}

	higherCost := base
	higherCost.Cost = 1500
	if Score(higherCost).Score > baseScore {
		t.Fatal("higher cost raised the score")
	}
}

func TestApplyCountersRefreshesRates(t *testing.T) {
	v := &Variant{}
	ApplyCounters(v, Counters{Impressions: 400, Clicks: 10, Conversions: 1, Cost: 40}, testNow)
	ApplyCounters(v, Counters{Impressions: 600, Clicks: 10, Conversions: 1}, testNow)

	if v.Impressions != 1000 || v.Clicks != 20 || v.Conversions != 2 || v.Cost != 40 {
		t.Fatalf("unexpected counters: %+v", v.Counters())
	}
	if v.CTR != "2.00" {
		t.Fatalf("expected ctr 2.00, got %s", v.CTR)
	}
	if v.ConversionRate != "10.00" {
		t.Fatalf("expected conversion rate 10.00, got %s", v.ConversionRate)
	}
}
