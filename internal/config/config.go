// Package config holds every business-tunable constant of the creative
// intelligence engine: the default conversion value, fatigue weights and
// trend thresholds, scorer weights and grade cuts, segmentation thresholds,
// matrix midpoints, and account benchmark defaults.
//
// All engine entry points take their slice of this configuration explicitly,
// so every computation stays pure and reproducible under test. Defaults are
// documented on the fields; accounts override them via YAML.
package config

import (
	"errors"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is returned when a config override violates a structural
// invariant (weights not summing to 1, unordered thresholds, ...).
var ErrInvalidConfig = errors.New("invalid engine config")

// Config aggregates the per-component configuration blocks.
type Config struct {
	Metrics      MetricsConfig      `yaml:"metrics"`
	Fatigue      FatigueConfig      `yaml:"fatigue"`
	Scoring      ScoringConfig      `yaml:"scoring"`
	Segmentation SegmentationConfig `yaml:"segmentation"`
	Matrix       MatrixConfig       `yaml:"matrix"`
	Benchmarks   Benchmarks         `yaml:"benchmarks"`
}

// MetricsConfig controls ratio derivation.
type MetricsConfig struct {
	// ConversionValue is the account-specific revenue attributed per
	// conversion, used only for ROAS. Zero means "not set": the engine
	// falls back to DefaultConversionValue and marks the result as
	// value_source=default.
	ConversionValue float64 `yaml:"conversion_value"`

	// DefaultConversionValue is the system-wide fallback assumption.
	DefaultConversionValue float64 `yaml:"default_conversion_value"`
}

// FatigueConfig controls the fatigue index computation.
type FatigueConfig struct {
	// Factor weights. Must sum to 1.0.
	CTRDecayWeight       float64 `yaml:"ctr_decay_weight"`
	CVRDecayWeight       float64 `yaml:"cvr_decay_weight"`
	FrequencyWeight      float64 `yaml:"frequency_weight"`
	DeclinePersistWeight float64 `yaml:"decline_persist_weight"`
	AgePressureWeight    float64 `yaml:"age_pressure_weight"`

	// CTRDecayScale maps the relative CTR drop from peak onto the 0-100
	// factor value. At 2.0 a creative that halves its peak CTR maxes the
	// factor.
	CTRDecayScale float64 `yaml:"ctr_decay_scale"`

	// PersistCapDays is the number of days below peak at which the decline
	// persistence factor maxes out. PersistMinDrop is the relative CTR drop
	// (percent) under which the decline does not count as persisting: a
	// flat or recovering series carries no persistence.
	PersistCapDays float64 `yaml:"persist_cap_days"`
	PersistMinDrop float64 `yaml:"persist_min_drop"`

	// FrequencySaturation is the average frequency above which audience
	// saturation starts contributing to fatigue; FrequencyCeiling is the
	// frequency at which the saturation factor maxes out at 100.
	FrequencySaturation float64 `yaml:"frequency_saturation"`
	FrequencyCeiling    float64 `yaml:"frequency_ceiling"`

	// AgeCapDays is the creative age at which age pressure reaches 100.
	AgeCapDays float64 `yaml:"age_cap_days"`

	// Trend thresholds over the 0-100 index. Must be strictly increasing.
	// Index < StableMax with no CTR improvement -> stable;
	// >= DecliningMin -> declining; >= ExhaustedMin -> exhausted.
	StableMax    float64 `yaml:"stable_max"`
	DecliningMin float64 `yaml:"declining_min"`
	ExhaustedMin float64 `yaml:"exhausted_min"`

	// MinViableCTR is the CTR floor (percent) used when extrapolating the
	// decay slope to an estimated exhaustion date.
	MinViableCTR float64 `yaml:"min_viable_ctr"`
}

// ScoringConfig controls the composite creative score.
type ScoringConfig struct {
	// Sub-score weights. Must sum to 1.0.
	EfficiencyWeight     float64 `yaml:"efficiency_weight"`
	ScaleWeight          float64 `yaml:"scale_weight"`
	SustainabilityWeight float64 `yaml:"sustainability_weight"`
	EngagementWeight     float64 `yaml:"engagement_weight"`

	// Log-scale references for the scale sub-score: the volume at which
	// a creative earns the full impression/conversion component. The two
	// blend weights must sum to 1.0.
	ScaleRefImpressions   float64 `yaml:"scale_ref_impressions"`
	ScaleRefConversions   float64 `yaml:"scale_ref_conversions"`
	ScaleImpressionsBlend float64 `yaml:"scale_impressions_blend"`
	ScaleConversionsBlend float64 `yaml:"scale_conversions_blend"`

	// Engagement blend weights for video creatives: 2s retention, 6s
	// retention, and play-through. Must sum to 1.0.
	EngagementWatch2sBlend float64 `yaml:"engagement_watch_2s_blend"`
	EngagementWatch6sBlend float64 `yaml:"engagement_watch_6s_blend"`
	EngagementPlayBlend    float64 `yaml:"engagement_play_blend"`

	// Sustainability penalties applied on top of (100 - fatigue index).
	DecliningPenalty float64 `yaml:"declining_penalty"` // multiplier, e.g. 0.85
	ExhaustedPenalty float64 `yaml:"exhausted_penalty"` // multiplier, e.g. 0.70

	// NeutralEngagement is the engagement sub-score for non-video
	// creatives, which carry no watch-through signal.
	NeutralEngagement float64 `yaml:"neutral_engagement"`

	// Grade cuts: overall >= GradeSCut -> S, >= GradeACut -> A, and so on
	// down to F. Must be strictly decreasing.
	GradeSCut float64 `yaml:"grade_s_cut"`
	GradeACut float64 `yaml:"grade_a_cut"`
	GradeBCut float64 `yaml:"grade_b_cut"`
	GradeCCut float64 `yaml:"grade_c_cut"`
	GradeDCut float64 `yaml:"grade_d_cut"`
}

// SegmentationConfig controls the scale/hold/test/kill decision tree.
type SegmentationConfig struct {
	// MinSpend is the statistical-significance floor: ads below it are
	// always labeled test.
	MinSpend float64 `yaml:"min_spend"`

	// ScaleROAS and KillROAS bound the ambiguous middle. Scale requires
	// ROAS >= ScaleROAS (or CPA comfortably under target); kill requires
	// ROAS < KillROAS and CPA over target.
	ScaleROAS float64 `yaml:"scale_roas"`
	KillROAS  float64 `yaml:"kill_roas"`

	// TargetCPA is the account's acceptable cost per acquisition.
	// ScaleCPAFactor and KillCPAFactor define "comfortably below" and
	// "above" target (e.g. 0.7 and 1.2).
	TargetCPA      float64 `yaml:"target_cpa"`
	ScaleCPAFactor float64 `yaml:"scale_cpa_factor"`
	KillCPAFactor  float64 `yaml:"kill_cpa_factor"`

	// FullConfidenceSpend is the spend at which the volume component of
	// confidence maxes out.
	FullConfidenceSpend float64 `yaml:"full_confidence_spend"`
}

// MatrixConfig controls the performance-vs-fatigue matrix.
type MatrixConfig struct {
	// Quadrant midpoints on the two 0-100 axes.
	PerformanceMidpoint float64 `yaml:"performance_midpoint"`
	FatigueMidpoint     float64 `yaml:"fatigue_midpoint"`

	// Reference values at which each ratio earns the full blend component
	// of the matrix performance score.
	CTRRef  float64 `yaml:"ctr_ref"`
	CVRRef  float64 `yaml:"cvr_ref"`
	ROASRef float64 `yaml:"roas_ref"`

	// Blend weights for the performance score. Must sum to 1.0.
	CTRBlend  float64 `yaml:"ctr_blend"`
	CVRBlend  float64 `yaml:"cvr_blend"`
	ROASBlend float64 `yaml:"roas_blend"`

	// Quadrant severity multipliers applied to distance-from-center when
	// computing replacement priority. Each must be in (0, 1].
	KillSeverity    float64 `yaml:"kill_severity"`
	RefreshSeverity float64 `yaml:"refresh_severity"`
	HoldSeverity    float64 `yaml:"hold_severity"`
	ScaleSeverity   float64 `yaml:"scale_severity"`

	// Urgency cuts over the 0-100 priority. Must be strictly decreasing.
	UrgencyCriticalMin float64 `yaml:"urgency_critical_min"`
	UrgencyHighMin     float64 `yaml:"urgency_high_min"`
	UrgencyMediumMin   float64 `yaml:"urgency_medium_min"`
}

// Benchmarks are the account-level reference averages the scorer measures
// efficiency against. Accounts override them; absent overrides fall back to
// these network-wide defaults.
type Benchmarks struct {
	CTR  float64 `yaml:"ctr"`  // percent
	CVR  float64 `yaml:"cvr"`  // percent
	CPA  float64 `yaml:"cpa"`  // currency
	ROAS float64 `yaml:"roas"` // multiple
}

// Default returns the engine defaults. Every literal here is a tunable
// business parameter, not a law: accounts override them via Load/Parse.
func Default() Config {
	return Config{
		Metrics: MetricsConfig{
			ConversionValue:        0, // unset: use default
			DefaultConversionValue: 30.0,
		},
		Fatigue: FatigueConfig{
			CTRDecayWeight:       0.40,
			CVRDecayWeight:       0.20,
			FrequencyWeight:      0.15,
			DeclinePersistWeight: 0.15,
			AgePressureWeight:    0.10,
			CTRDecayScale:        2.0,
			PersistCapDays:       10,
			PersistMinDrop:       10,
			FrequencySaturation:  3.0,
			FrequencyCeiling:     6.0,
			AgeCapDays:           45,
			StableMax:            30,
			DecliningMin:         50,
			ExhaustedMin:         80,
			MinViableCTR:         0.5,
		},
		Scoring: ScoringConfig{
			EfficiencyWeight:       0.35,
			ScaleWeight:            0.25,
			SustainabilityWeight:   0.25,
			EngagementWeight:       0.15,
			ScaleRefImpressions:    1_000_000,
			ScaleRefConversions:    500,
			ScaleImpressionsBlend:  0.7,
			ScaleConversionsBlend:  0.3,
			EngagementWatch2sBlend: 0.3,
			EngagementWatch6sBlend: 0.4,
			EngagementPlayBlend:    0.3,
			DecliningPenalty:       0.85,
			ExhaustedPenalty:       0.70,
			NeutralEngagement:      50,
			GradeSCut:              80,
			GradeACut:              70,
			GradeBCut:              60,
			GradeCCut:              50,
			GradeDCut:              40,
		},
		Segmentation: SegmentationConfig{
			MinSpend:            100,
			ScaleROAS:           2.0,
			KillROAS:            0.8,
			TargetCPA:           50,
			ScaleCPAFactor:      0.7,
			KillCPAFactor:       1.2,
			FullConfidenceSpend: 1_000,
		},
		Matrix: MatrixConfig{
			PerformanceMidpoint: 50,
			FatigueMidpoint:     50,
			CTRRef:              3.0,
			CVRRef:              5.0,
			ROASRef:             4.0,
			CTRBlend:            0.35,
			CVRBlend:            0.25,
			ROASBlend:           0.40,
			KillSeverity:        1.0,
			RefreshSeverity:     0.8,
			HoldSeverity:        0.5,
			ScaleSeverity:       0.3,
			UrgencyCriticalMin:  75,
			UrgencyHighMin:      50,
			UrgencyMediumMin:    25,
		},
		Benchmarks: Benchmarks{
			CTR:  1.5,
			CVR:  2.0,
			CPA:  50,
			ROAS: 2.0,
		},
	}
}

// Load reads a YAML override file and merges it over the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	return Parse(data)
}

// Parse unmarshals YAML overrides over the defaults and validates the
// result.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

const weightTolerance = 1e-6

// Validate checks the structural invariants the engine depends on.
func (c *Config) Validate() error {
	if c.Metrics.DefaultConversionValue <= 0 {
		return fmt.Errorf("%w: default_conversion_value must be positive", ErrInvalidConfig)
	}
	if c.Metrics.ConversionValue < 0 {
		return fmt.Errorf("%w: conversion_value must not be negative", ErrInvalidConfig)
	}

	fw := c.Fatigue.CTRDecayWeight + c.Fatigue.CVRDecayWeight + c.Fatigue.FrequencyWeight +
		c.Fatigue.DeclinePersistWeight + c.Fatigue.AgePressureWeight
	if math.Abs(fw-1.0) > weightTolerance {
		return fmt.Errorf("%w: fatigue factor weights sum to %.4f, want 1.0", ErrInvalidConfig, fw)
	}
	if c.Fatigue.CTRDecayScale < 1 {
		return fmt.Errorf("%w: ctr_decay_scale must be at least 1", ErrInvalidConfig)
	}
	if c.Fatigue.PersistCapDays <= 0 {
		return fmt.Errorf("%w: persist_cap_days must be positive", ErrInvalidConfig)
	}
	if c.Fatigue.PersistMinDrop < 0 || c.Fatigue.PersistMinDrop > 100 {
		return fmt.Errorf("%w: persist_min_drop must be within 0..100", ErrInvalidConfig)
	}
	if !(c.Fatigue.StableMax < c.Fatigue.DecliningMin && c.Fatigue.DecliningMin < c.Fatigue.ExhaustedMin) {
		return fmt.Errorf("%w: fatigue trend thresholds must be strictly increasing", ErrInvalidConfig)
	}
	if c.Fatigue.FrequencyCeiling <= c.Fatigue.FrequencySaturation {
		return fmt.Errorf("%w: frequency_ceiling must exceed frequency_saturation", ErrInvalidConfig)
	}
	if c.Fatigue.AgeCapDays <= 0 {
		return fmt.Errorf("%w: age_cap_days must be positive", ErrInvalidConfig)
	}

	sw := c.Scoring.EfficiencyWeight + c.Scoring.ScaleWeight +
		c.Scoring.SustainabilityWeight + c.Scoring.EngagementWeight
	if math.Abs(sw-1.0) > weightTolerance {
		return fmt.Errorf("%w: scoring weights sum to %.4f, want 1.0", ErrInvalidConfig, sw)
	}
	sb := c.Scoring.ScaleImpressionsBlend + c.Scoring.ScaleConversionsBlend
	if math.Abs(sb-1.0) > weightTolerance {
		return fmt.Errorf("%w: scale blend weights sum to %.4f, want 1.0", ErrInvalidConfig, sb)
	}
	eb := c.Scoring.EngagementWatch2sBlend + c.Scoring.EngagementWatch6sBlend + c.Scoring.EngagementPlayBlend
	if math.Abs(eb-1.0) > weightTolerance {
		return fmt.Errorf("%w: engagement blend weights sum to %.4f, want 1.0", ErrInvalidConfig, eb)
	}
	cuts := []float64{c.Scoring.GradeSCut, c.Scoring.GradeACut, c.Scoring.GradeBCut, c.Scoring.GradeCCut, c.Scoring.GradeDCut}
	for i := 1; i < len(cuts); i++ {
		if cuts[i] >= cuts[i-1] {
			return fmt.Errorf("%w: grade cuts must be strictly decreasing", ErrInvalidConfig)
		}
	}

	if c.Segmentation.MinSpend < 0 {
		return fmt.Errorf("%w: min_spend must not be negative", ErrInvalidConfig)
	}
	if c.Segmentation.KillROAS >= c.Segmentation.ScaleROAS {
		return fmt.Errorf("%w: kill_roas must be below scale_roas", ErrInvalidConfig)
	}
	if c.Segmentation.TargetCPA <= 0 {
		return fmt.Errorf("%w: target_cpa must be positive", ErrInvalidConfig)
	}

	mb := c.Matrix.CTRBlend + c.Matrix.CVRBlend + c.Matrix.ROASBlend
	if math.Abs(mb-1.0) > weightTolerance {
		return fmt.Errorf("%w: matrix blend weights sum to %.4f, want 1.0", ErrInvalidConfig, mb)
	}
	if c.Matrix.CTRRef <= 0 || c.Matrix.CVRRef <= 0 || c.Matrix.ROASRef <= 0 {
		return fmt.Errorf("%w: matrix reference values must be positive", ErrInvalidConfig)
	}
	for _, sev := range []float64{c.Matrix.KillSeverity, c.Matrix.RefreshSeverity, c.Matrix.HoldSeverity, c.Matrix.ScaleSeverity} {
		if sev <= 0 || sev > 1 {
			return fmt.Errorf("%w: quadrant severities must be within (0, 1]", ErrInvalidConfig)
		}
	}
	if !(c.Matrix.UrgencyMediumMin > 0 && c.Matrix.UrgencyMediumMin < c.Matrix.UrgencyHighMin &&
		c.Matrix.UrgencyHighMin < c.Matrix.UrgencyCriticalMin) {
		return fmt.Errorf("%w: urgency cuts must satisfy 0 < medium < high < critical", ErrInvalidConfig)
	}

	if c.Benchmarks.CTR <= 0 || c.Benchmarks.CVR <= 0 || c.Benchmarks.CPA <= 0 || c.Benchmarks.ROAS <= 0 {
		return fmt.Errorf("%w: benchmarks must be positive", ErrInvalidConfig)
	}
	return nil
}
