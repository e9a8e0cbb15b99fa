package domain

import (
	"errors"
	"fmt"
)

// ErrNegativeCounter is returned when a raw sample carries a negative
// counter. Callers are expected to clip negatives to zero before invoking
// the engine; a negative value here means upstream sanitization failed.
var ErrNegativeCounter = errors.New("negative counter in raw metric sample")

// ValueSource records which revenue-per-conversion assumption a ROAS
// calculation used.
type ValueSource string

const (
	ValueSourceCustom  ValueSource = "custom"
	ValueSourceDefault ValueSource = "default"
)

// RawMetricSample holds the raw daily counters for one entity
// (account/campaign/ad-group/ad/creative) on one day. All fields are
// non-negative; missing counters are zeroed by the caller before they
// reach this engine.
type RawMetricSample struct {
	Spend       float64 `json:"spend"`
	Impressions float64 `json:"impressions"`
	Clicks      float64 `json:"clicks"`
	Conversions float64 `json:"conversions"`
}

// Validate rejects samples that violate the engine's input contract.
func (s RawMetricSample) Validate() error {
	if s.Spend < 0 {
		return fmt.Errorf("spend %.2f: %w", s.Spend, ErrNegativeCounter)
	}
	if s.Impressions < 0 {
		return fmt.Errorf("impressions %.0f: %w", s.Impressions, ErrNegativeCounter)
	}
	if s.Clicks < 0 {
		return fmt.Errorf("clicks %.0f: %w", s.Clicks, ErrNegativeCounter)
	}
	if s.Conversions < 0 {
		return fmt.Errorf("conversions %.0f: %w", s.Conversions, ErrNegativeCounter)
	}
	return nil
}

// Add returns the counter-wise sum of two samples.
func (s RawMetricSample) Add(o RawMetricSample) RawMetricSample {
	return RawMetricSample{
		Spend:       s.Spend + o.Spend,
		Impressions: s.Impressions + o.Impressions,
		Clicks:      s.Clicks + o.Clicks,
		Conversions: s.Conversions + o.Conversions,
	}
}

// DerivedMetrics is a raw sample plus the ratio metrics computed from it.
// Every ratio is 0 (never NaN or Inf) when its denominator is 0. The engine
// returns full-precision values; rounding for display is the caller's job.
type DerivedMetrics struct {
	RawMetricSample

	CTR         float64     `json:"ctr"`  // clicks / impressions * 100
	CVR         float64     `json:"cvr"`  // conversions / clicks * 100
	CPC         float64     `json:"cpc"`  // spend / clicks
	CPM         float64     `json:"cpm"`  // spend / impressions * 1000
	CPA         float64     `json:"cpa"`  // spend / conversions
	ROAS        float64     `json:"roas"` // conversions * value-per-conversion / spend
	ValueSource ValueSource `json:"value_source"`
}

// VideoMetrics holds the optional video sub-metric set reported for video
// creatives. DurationSec is the creative's full length.
type VideoMetrics struct {
	VideoViews       float64 `json:"video_views"`
	VideoWatched2s   float64 `json:"video_watched_2s"`
	VideoWatched6s   float64 `json:"video_watched_6s"`
	AvgVideoPlayTime float64 `json:"avg_video_play_time"`
	DurationSec      float64 `json:"duration_sec"`
}
