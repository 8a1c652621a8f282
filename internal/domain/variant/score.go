package variant

import (
	"math"
	"time"
)

// Sample minimums below which a variant scores 0
const (
	ScoreMinImpressions = 100
	ScoreMinClicks      = 10
)

const (
	ctrWeight        = 0.30
	conversionWeight = 0.40
	costWeight       = 0.30
)

// Metrics is the scorer output
type Metrics struct {
	CTR               float64
	ConversionRate    float64
	CostPerConversion float64 // +Inf when there are no conversions
	Score             float64
}

// Score maps raw counters to a 0..100 composite. Deterministic and side-effect free.
func Score(c Counters) Metrics {
	var m Metrics
	if c.Impressions > 0 {
		m.CTR = float64(c.Clicks) / float64(c.Impressions) * 100
	}
	if c.Clicks > 0 {
		m.ConversionRate = float64(c.Conversions) / float64(c.Clicks) * 100
	}
	m.CostPerConversion = math.Inf(1)
	if c.Conversions > 0 {
		m.CostPerConversion = float64(c.Cost) / float64(c.Conversions)
	}

	if !c.HasSample(ScoreMinImpressions, ScoreMinClicks) {
		return m
	}

	ctrScore := math.Min(m.CTR*10, 100)
	conversionScore := math.Min(m.ConversionRate*5, 100)
	costScore := 0.0
	if !math.IsInf(m.CostPerConversion, 1) {
		costScore = math.Max(100-m.CostPerConversion/10, 0)
	}

	m.Score = ctrWeight*ctrScore + conversionWeight*conversionScore + costWeight*costScore
	return m
}

// OptimizationConfig holds the thresholds shared by the winner engine and the optimizer
type OptimizationConfig struct {
	// Winner engine gate, applied to every variant in scope
	WinnerMinImpressions int64
	WinnerMinClicks      int64
	// Relative margin the leader needs over the runner-up
	SignificanceMargin float64

	// Optimizer gate, stricter than the winner gate
	MinImpressions           int64
	MinClicks                int64
	PoorPerformanceThreshold float64
	AutoDeployThreshold      float64
	MinRuntime               time.Duration
}

// DefaultOptimizationConfig returns the production thresholds
func DefaultOptimizationConfig() OptimizationConfig {
	return OptimizationConfig{
		WinnerMinImpressions:     ScoreMinImpressions,
		WinnerMinClicks:          ScoreMinClicks,
		SignificanceMargin:       0.10,
		MinImpressions:           500,
		MinClicks:                20,
		PoorPerformanceThreshold: 30,
		AutoDeployThreshold:      70,
		MinRuntime:               24 * time.Hour,
	}
}
