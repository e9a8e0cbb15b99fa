// Package metrics derives ratio metrics (CTR, CVR, CPC, CPM, CPA, ROAS)
// from raw advertising counters. Every derivation is zero-safe: a ratio
// whose denominator is zero comes back as 0, never NaN or Inf.
package metrics

import (
	"fmt"
	"math"

	"github.com/ignite/creative-intel/internal/config"
	"github.com/ignite/creative-intel/internal/domain"
)

// Calculator computes derived metrics under one account's metrics config.
type Calculator struct {
	cfg config.MetricsConfig
}

// NewCalculator creates a calculator for the given metrics config.
func NewCalculator(cfg config.MetricsConfig) *Calculator {
	return &Calculator{cfg: cfg}
}

// conversionValue resolves the revenue-per-conversion assumption and
// reports which source it came from.
func (c *Calculator) conversionValue() (float64, domain.ValueSource) {
	if c.cfg.ConversionValue > 0 {
		return c.cfg.ConversionValue, domain.ValueSourceCustom
	}
	return c.cfg.DefaultConversionValue, domain.ValueSourceDefault
}

// ComputeAll derives the full ratio set from one raw sample.
func (c *Calculator) ComputeAll(raw domain.RawMetricSample) (domain.DerivedMetrics, error) {
	if err := raw.Validate(); err != nil {
		return domain.DerivedMetrics{}, fmt.Errorf("compute metrics: %w", err)
	}

	value, source := c.conversionValue()
	return domain.DerivedMetrics{
		RawMetricSample: raw,
		CTR:             safeRatio(raw.Clicks, raw.Impressions) * 100,
		CVR:             safeRatio(raw.Conversions, raw.Clicks) * 100,
		CPC:             safeRatio(raw.Spend, raw.Clicks),
		CPM:             safeRatio(raw.Spend, raw.Impressions) * 1000,
		CPA:             safeRatio(raw.Spend, raw.Conversions),
		ROAS:            safeRatio(raw.Conversions*value, raw.Spend),
		ValueSource:     source,
	}, nil
}

// AggregateAndCompute sums the raw counters across the samples first, then
// derives ratios from the totals. Aggregation happens on raw counters,
// never by averaging already-derived ratios: averaged ratios are
// statistically invalid when daily volumes differ.
func (c *Calculator) AggregateAndCompute(samples []domain.RawMetricSample) (domain.DerivedMetrics, error) {
	var total domain.RawMetricSample
	for i, s := range samples {
		if err := s.Validate(); err != nil {
			return domain.DerivedMetrics{}, fmt.Errorf("aggregate sample %d: %w", i, err)
		}
		total = total.Add(s)
	}
	return c.ComputeAll(total)
}

// ComputeChange returns the percent change from previous to current. The
// change is undefined (nil, not 0) when both are zero, and 100 when growth
// starts from zero.
func ComputeChange(current, previous float64) *float64 {
	if previous == 0 {
		if current == 0 {
			return nil
		}
		return ptr(100.0)
	}
	return ptr((current - previous) / previous * 100)
}

// Comparison pairs a period's derived metrics with the percent change of
// each metric versus the previous period. A nil change means the metric was
// zero in both periods.
type Comparison struct {
	Current domain.DerivedMetrics `json:"current"`
	Changes map[string]*float64   `json:"changes"`
}

// Compare derives both periods and computes per-metric percent changes for
// the raw counters and every ratio.
func (c *Calculator) Compare(current, previous domain.RawMetricSample) (Comparison, error) {
	cur, err := c.ComputeAll(current)
	if err != nil {
		return Comparison{}, fmt.Errorf("current period: %w", err)
	}
	prev, err := c.ComputeAll(previous)
	if err != nil {
		return Comparison{}, fmt.Errorf("previous period: %w", err)
	}

	return Comparison{
		Current: cur,
		Changes: map[string]*float64{
			"spend":       ComputeChange(cur.Spend, prev.Spend),
			"impressions": ComputeChange(cur.Impressions, prev.Impressions),
			"clicks":      ComputeChange(cur.Clicks, prev.Clicks),
			"conversions": ComputeChange(cur.Conversions, prev.Conversions),
			"ctr":         ComputeChange(cur.CTR, prev.CTR),
			"cvr":         ComputeChange(cur.CVR, prev.CVR),
			"cpc":         ComputeChange(cur.CPC, prev.CPC),
			"cpm":         ComputeChange(cur.CPM, prev.CPM),
			"cpa":         ComputeChange(cur.CPA, prev.CPA),
			"roas":        ComputeChange(cur.ROAS, prev.ROAS),
		},
	}, nil
}

// WithDefaults normalizes a possibly-sparse derived metrics value: a nil
// input becomes an all-zero result, and any NaN/Inf or negative field left
// behind by sparse upstream data is zeroed. The value source is preserved
// when set, defaulting otherwise.
func WithDefaults(partial *domain.DerivedMetrics) domain.DerivedMetrics {
	if partial == nil {
		return domain.DerivedMetrics{ValueSource: domain.ValueSourceDefault}
	}
	out := *partial
	for _, f := range []*float64{
		&out.Spend, &out.Impressions, &out.Clicks, &out.Conversions,
		&out.CTR, &out.CVR, &out.CPC, &out.CPM, &out.CPA, &out.ROAS,
	} {
		if math.IsNaN(*f) || math.IsInf(*f, 0) || *f < 0 {
			*f = 0
		}
	}
	if out.ValueSource == "" {
		out.ValueSource = domain.ValueSourceDefault
	}
	return out
}

func safeRatio(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}

func ptr(f float64) *float64 { return &f }
