// Package scoring computes the composite 0-100 quality score for a
// creative relative to account benchmarks: efficiency, scale,
// sustainability, and engagement sub-scores blended with fixed weights and
// mapped onto a letter grade. Batch scoring adds rank and percentile across
// the cohort.
package scoring

import (
	"math"
	"sort"

	"github.com/ignite/creative-intel/internal/config"
	"github.com/ignite/creative-intel/internal/domain"
)

// CreativeInput is everything the scorer needs for one creative: its
// aggregated derived metrics, its fatigue summary, and (for video) the
// watch-through sub-metrics.
type CreativeInput struct {
	CreativeID   string                `json:"creative_id"`
	CreativeName string                `json:"creative_name"`
	Type         domain.CreativeType   `json:"type"`
	Metrics      domain.DerivedMetrics `json:"metrics"`
	FatigueIndex float64               `json:"fatigue_index"`
	FatigueTrend domain.Trend          `json:"fatigue_trend"`
	Video        *domain.VideoMetrics  `json:"video,omitempty"`
}

// Breakdown is the four-part decomposition of a composite score.
type Breakdown struct {
	Efficiency     float64 `json:"efficiency"`
	Scale          float64 `json:"scale"`
	Sustainability float64 `json:"sustainability"`
	Engagement     float64 `json:"engagement"`
}

// CreativeScore is the scored result for one creative. Rank and Percentile
// are populated only by batch scoring.
type CreativeScore struct {
	CreativeID string       `json:"creative_id"`
	Overall    float64      `json:"overall"` // 0..100
	Breakdown  Breakdown    `json:"breakdown"`
	Grade      domain.Grade `json:"grade"`
	Rank       int          `json:"rank,omitempty"`
	Percentile float64      `json:"percentile"`
}

// CohortSummary aggregates a batch of scores for reporting.
type CohortSummary struct {
	TotalCreatives      int                  `json:"total_creatives"`
	AvgScore            float64              `json:"avg_score"`
	GradeDistribution   map[domain.Grade]int `json:"grade_distribution"`
	TopPerformersCount  int                  `json:"top_performers_count"`  // grade S or A
	NeedsAttentionCount int                  `json:"needs_attention_count"` // grade D or F
}

// Scorer scores creatives under one scoring config.
type Scorer struct {
	cfg config.ScoringConfig
}

// NewScorer creates a scorer for the given config.
func NewScorer(cfg config.ScoringConfig) *Scorer {
	return &Scorer{cfg: cfg}
}

// ScoreCreative computes the four sub-scores and the weighted overall for
// one creative against the account benchmarks.
func (s *Scorer) ScoreCreative(in CreativeInput, bench config.Benchmarks) CreativeScore {
	b := Breakdown{
		Efficiency:     s.efficiencyScore(in.Metrics, bench),
		Scale:          s.scaleScore(in.Metrics),
		Sustainability: s.sustainabilityScore(in.FatigueIndex, in.FatigueTrend),
		Engagement:     s.engagementScore(in),
	}
	overall := clamp(
		s.cfg.EfficiencyWeight*b.Efficiency+
			s.cfg.ScaleWeight*b.Scale+
			s.cfg.SustainabilityWeight*b.Sustainability+
			s.cfg.EngagementWeight*b.Engagement,
		0, 100)

	return CreativeScore{
		CreativeID: in.CreativeID,
		Overall:    overall,
		Breakdown:  b,
		Grade:      s.gradeFor(overall),
	}
}

// ScoreCreatives scores a cohort and adds rank (1 = highest overall) and
// percentile (share of the rest of the cohort scored strictly lower). Tied
// creatives receive the same rank and the same percentile.
func (s *Scorer) ScoreCreatives(list []CreativeInput, bench config.Benchmarks) map[string]*CreativeScore {
	scores := make(map[string]*CreativeScore, len(list))
	order := make([]*CreativeScore, 0, len(list))
	for _, in := range list {
		sc := s.ScoreCreative(in, bench)
		scores[in.CreativeID] = &sc
		order = append(order, &sc)
	}

	sort.SliceStable(order, func(i, j int) bool {
		return order[i].Overall > order[j].Overall
	})

	n := len(order)
	for i, sc := range order {
		if i > 0 && sc.Overall == order[i-1].Overall {
			sc.Rank = order[i-1].Rank
			sc.Percentile = order[i-1].Percentile
			continue
		}
		sc.Rank = i + 1
		if n == 1 {
			sc.Percentile = 100
			continue
		}
		// Everyone below position i (minus ties with this score) scored
		// strictly lower.
		lower := n - i
		for j := i; j < n && order[j].Overall == sc.Overall; j++ {
			lower--
		}
		sc.Percentile = float64(lower) / float64(n-1) * 100
	}
	return scores
}

// Summary aggregates cohort-level stats from a batch of scores.
func (s *Scorer) Summary(scores map[string]*CreativeScore) CohortSummary {
	out := CohortSummary{
		TotalCreatives:    len(scores),
		GradeDistribution: make(map[domain.Grade]int),
	}
	if len(scores) == 0 {
		return out
	}
	var total float64
	for _, sc := range scores {
		total += sc.Overall
		out.GradeDistribution[sc.Grade]++
		switch sc.Grade {
		case domain.GradeS, domain.GradeA:
			out.TopPerformersCount++
		case domain.GradeD, domain.GradeF:
			out.NeedsAttentionCount++
		}
	}
	out.AvgScore = total / float64(len(scores))
	return out
}

// efficiencyScore measures CTR, CVR, and CPA against the account benchmark
// averages. Each ratio-to-benchmark is capped at 2x, with benchmark parity
// landing at 50.
func (s *Scorer) efficiencyScore(m domain.DerivedMetrics, bench config.Benchmarks) float64 {
	ctrRatio := capRatio(m.CTR / bench.CTR)
	cvrRatio := capRatio(m.CVR / bench.CVR)
	cpaRatio := s.cpaRatio(m, bench)
	return clamp((ctrRatio+cvrRatio+cpaRatio)/3*50, 0, 100)
}

// cpaRatio inverts CPA (lower is better). A zero CPA means either no spend
// (free conversions, best case) or no conversions against spend (worst
// case); the two are opposites and must not share a score.
func (s *Scorer) cpaRatio(m domain.DerivedMetrics, bench config.Benchmarks) float64 {
	if m.CPA == 0 {
		if m.Conversions > 0 {
			return 2.0
		}
		if m.Spend > 0 {
			return 0
		}
		return 1.0 // no spend, no conversions: neutral
	}
	return capRatio(bench.CPA / m.CPA)
}

// scaleScore rewards delivery volume on a log scale so very large accounts
// don't saturate every creative to 100.
func (s *Scorer) scaleScore(m domain.DerivedMetrics) float64 {
	imp := logNorm(m.Impressions, s.cfg.ScaleRefImpressions)
	conv := logNorm(m.Conversions, s.cfg.ScaleRefConversions)
	return clamp((s.cfg.ScaleImpressionsBlend*imp+s.cfg.ScaleConversionsBlend*conv)*100, 0, 100)
}

// sustainabilityScore inverts the fatigue index and penalizes creatives
// already on a declining or exhausted trajectory.
func (s *Scorer) sustainabilityScore(index float64, trend domain.Trend) float64 {
	base := 100 - clamp(index, 0, 100)
	switch trend {
	case domain.TrendDeclining:
		base *= s.cfg.DecliningPenalty
	case domain.TrendExhausted:
		base *= s.cfg.ExhaustedPenalty
	}
	return clamp(base, 0, 100)
}

// engagementScore blends 2s/6s retention and play-through for video
// creatives. Non-video creatives carry no watch-through signal and score
// the configured neutral midpoint.
func (s *Scorer) engagementScore(in CreativeInput) float64 {
	if in.Type != domain.CreativeVideo || in.Video == nil || in.Video.VideoViews == 0 {
		return s.cfg.NeutralEngagement
	}
	v := in.Video
	w2 := math.Min(1, v.VideoWatched2s/v.VideoViews)
	w6 := math.Min(1, v.VideoWatched6s/v.VideoViews)
	play := 0.5
	if v.DurationSec > 0 {
		play = math.Min(1, v.AvgVideoPlayTime/v.DurationSec)
	}
	return clamp((s.cfg.EngagementWatch2sBlend*w2+s.cfg.EngagementWatch6sBlend*w6+s.cfg.EngagementPlayBlend*play)*100, 0, 100)
}

// gradeFor is the deterministic step function from overall to letter grade.
// The bands are contiguous and exhaustive over [0,100].
func (s *Scorer) gradeFor(overall float64) domain.Grade {
	switch {
	case overall >= s.cfg.GradeSCut:
		return domain.GradeS
	case overall >= s.cfg.GradeACut:
		return domain.GradeA
	case overall >= s.cfg.GradeBCut:
		return domain.GradeB
	case overall >= s.cfg.GradeCCut:
		return domain.GradeC
	case overall >= s.cfg.GradeDCut:
		return domain.GradeD
	default:
		return domain.GradeF
	}
}

func capRatio(r float64) float64 {
	if r < 0 || math.IsNaN(r) || math.IsInf(r, 0) {
		return 0
	}
	return math.Min(2.0, r)
}

func logNorm(v, ref float64) float64 {
	if v <= 0 || ref <= 1 {
		return 0
	}
	return math.Min(1, math.Log10(1+v)/math.Log10(1+ref))
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}
