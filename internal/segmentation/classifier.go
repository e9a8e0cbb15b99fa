// Package segmentation classifies ads into scale/hold/test/kill action
// labels using a deterministic decision tree over their derived metrics.
// Thresholds live in config so tuning stays centralized and auditable; the
// tree is evaluated in a fixed order: significance floor first, then scale
// conditions, then kill conditions, with hold as the ambiguous middle.
package segmentation

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/ignite/creative-intel/internal/config"
	"github.com/ignite/creative-intel/internal/domain"
	"github.com/ignite/creative-intel/internal/metrics"
)

// DailyPoint is one day of an ad's delivery, used only for CTR trend
// detection. Optional: ads without daily history are classified on their
// aggregate metrics alone.
type DailyPoint struct {
	Date        time.Time `json:"date"`
	Impressions float64   `json:"impressions"`
	Clicks      float64   `json:"clicks"`
}

// AdInput is one ad plus its raw counters for the analysis window.
type AdInput struct {
	AdID       string                 `json:"ad_id"`
	AdName     string                 `json:"ad_name"`
	CampaignID string                 `json:"campaign_id"`
	Raw        domain.RawMetricSample `json:"raw"`
	Daily      []DailyPoint           `json:"daily,omitempty"`
}

// Classification is the decision for one ad.
type Classification struct {
	Label      domain.SegmentLabel   `json:"label"`
	Confidence float64               `json:"confidence"` // 0..1
	Reasons    []string              `json:"reasons"`
	NextAction string                `json:"next_action"`
	Metrics    domain.DerivedMetrics `json:"metrics"`
}

// SegmentedAd pairs an ad's identity with its classification.
type SegmentedAd struct {
	AdID       string `json:"ad_id"`
	AdName     string `json:"ad_name"`
	CampaignID string `json:"campaign_id"`
	Classification
}

// SegmentSummary is the cohort rollup for one label. AvgROAS and AvgCPA are
// derived from the label's aggregated raw counters, not averaged ratios.
type SegmentSummary struct {
	Label      domain.SegmentLabel `json:"label"`
	Count      int                 `json:"count"`
	TotalSpend float64             `json:"total_spend"`
	AvgROAS    float64             `json:"avg_roas"`
	AvgCPA     float64             `json:"avg_cpa"`
}

// Classifier segments ads under one segmentation config.
type Classifier struct {
	cfg  config.SegmentationConfig
	calc *metrics.Calculator
}

// NewClassifier creates a classifier. The calculator supplies metric
// derivation so ROAS uses the same conversion-value assumption everywhere.
func NewClassifier(cfg config.SegmentationConfig, calc *metrics.Calculator) *Classifier {
	return &Classifier{cfg: cfg, calc: calc}
}

// BatchSegment derives metrics for each ad and runs the decision tree.
func (c *Classifier) BatchSegment(ads []AdInput) ([]SegmentedAd, error) {
	out := make([]SegmentedAd, 0, len(ads))
	for _, ad := range ads {
		m, err := c.calc.ComputeAll(ad.Raw)
		if err != nil {
			return nil, fmt.Errorf("segment ad %s: %w", ad.AdID, err)
		}
		out = append(out, SegmentedAd{
			AdID:           ad.AdID,
			AdName:         ad.AdName,
			CampaignID:     ad.CampaignID,
			Classification: c.classify(m, ctrTrend(ad.Daily)),
		})
	}
	return out, nil
}

// ctrTrend compares second-half CTR to first-half CTR of the daily
// history. Returns the relative change, or 0 when there is not enough data
// to split.
func ctrTrend(daily []DailyPoint) float64 {
	if len(daily) < 4 {
		return 0
	}
	mid := len(daily) / 2
	first := halfCTR(daily[:mid])
	second := halfCTR(daily[mid:])
	if first == 0 {
		return 0
	}
	return (second - first) / first
}

func halfCTR(points []DailyPoint) float64 {
	var clicks, imps float64
	for _, p := range points {
		clicks += p.Clicks
		imps += p.Impressions
	}
	if imps == 0 {
		return 0
	}
	return clicks / imps * 100
}

// classify runs the fixed-order decision tree.
func (c *Classifier) classify(m domain.DerivedMetrics, trendDelta float64) Classification {
	cl := Classification{Metrics: m}

	// 1. Statistical significance floor: not enough spend to judge.
	if m.Spend < c.cfg.MinSpend {
		cl.Label = domain.SegmentTest
		cl.Confidence = clamp01(0.3 + 0.4*safeDiv(m.Spend, c.cfg.MinSpend))
		cl.Reasons = append(cl.Reasons,
			fmt.Sprintf("insufficient data: spend %.2f is below the %.2f significance floor", m.Spend, c.cfg.MinSpend))
		cl.NextAction = "Keep the ad in testing until it clears the spend floor, then re-evaluate."
		return cl
	}

	scaleCPA := c.cfg.TargetCPA * c.cfg.ScaleCPAFactor
	killCPA := c.cfg.TargetCPA * c.cfg.KillCPAFactor

	roasStrong := m.ROAS >= c.cfg.ScaleROAS
	cpaStrong := m.Conversions > 0 && m.CPA > 0 && m.CPA <= scaleCPA
	roasWeak := m.ROAS < c.cfg.KillROAS
	// Spend with zero conversions is an effectively infinite CPA.
	cpaWeak := m.CPA > killCPA || (m.Conversions == 0 && m.Spend > 0)

	spendConf := clamp01(m.Spend / c.cfg.FullConfidenceSpend)

	// 2. Scale: clearly efficient at meaningful spend.
	if roasStrong || cpaStrong {
		cl.Label = domain.SegmentScale
		if roasStrong {
			cl.Reasons = append(cl.Reasons,
				fmt.Sprintf("ROAS %.2fx is at or above the %.2fx scale threshold", m.ROAS, c.cfg.ScaleROAS))
		}
		if cpaStrong {
			cl.Reasons = append(cl.Reasons,
				fmt.Sprintf("CPA %.2f is comfortably below the %.2f target", m.CPA, c.cfg.TargetCPA))
		}
		dev := math.Max(
			relDeviation(m.ROAS, c.cfg.ScaleROAS),
			relDeviation(scaleCPA, m.CPA),
		)
		cl.Confidence = clamp01(0.5 + 0.35*math.Min(1, dev) + 0.15*spendConf)
		if trendDelta < -0.2 {
			cl.Reasons = append(cl.Reasons, "CTR is trending down over the window; scale with fresh variants ready")
			cl.Confidence = clamp01(cl.Confidence - 0.1)
		}
		cl.NextAction = "Increase budget in 20-30% steps while efficiency holds."
		return cl
	}

	// 3. Kill: clearly failing at meaningful spend.
	if roasWeak && cpaWeak {
		cl.Label = domain.SegmentKill
		cl.Reasons = append(cl.Reasons,
			fmt.Sprintf("ROAS %.2fx is below the %.2fx kill threshold", m.ROAS, c.cfg.KillROAS))
		if m.Conversions == 0 {
			cl.Reasons = append(cl.Reasons,
				fmt.Sprintf("%.2f spent with zero conversions", m.Spend))
		} else {
			cl.Reasons = append(cl.Reasons,
				fmt.Sprintf("CPA %.2f is above the %.2f acceptable ceiling", m.CPA, killCPA))
		}
		if trendDelta < -0.2 {
			cl.Reasons = append(cl.Reasons, "CTR is also trending down over the window")
		}
		// Shortfall below the kill threshold, relative to the threshold:
		// a ROAS of zero is the maximum deviation.
		dev := safeDiv(c.cfg.KillROAS-m.ROAS, c.cfg.KillROAS)
		cl.Confidence = clamp01(0.5 + 0.35*math.Min(1, dev) + 0.15*spendConf)
		cl.NextAction = "Pause the ad and reallocate its budget to scale-labeled ads."
		return cl
	}

	// 4. Hold: enough spend, but metrics sit in the ambiguous middle.
	cl.Label = domain.SegmentHold
	cl.Reasons = append(cl.Reasons,
		fmt.Sprintf("stable/inconclusive: ROAS %.2fx sits between the %.2fx kill and %.2fx scale thresholds",
			m.ROAS, c.cfg.KillROAS, c.cfg.ScaleROAS))
	if trendDelta > 0.2 {
		cl.Reasons = append(cl.Reasons, "CTR is trending up over the window")
	}
	cl.Confidence = clamp01(0.4 + 0.2*spendConf)
	cl.NextAction = "Monitor for another reporting window before changing budget."
	return cl
}

// SummarizeBySegment groups results by label. Rows come back in the fixed
// display order scale > hold > test > kill; labels with no ads are omitted.
func (c *Classifier) SummarizeBySegment(results []SegmentedAd) []SegmentSummary {
	totals := make(map[domain.SegmentLabel]domain.RawMetricSample)
	counts := make(map[domain.SegmentLabel]int)
	for _, r := range results {
		totals[r.Label] = totals[r.Label].Add(r.Metrics.RawMetricSample)
		counts[r.Label]++
	}

	out := make([]SegmentSummary, 0, len(counts))
	for _, label := range domain.AllSegmentLabels() {
		n, ok := counts[label]
		if !ok {
			continue
		}
		agg, err := c.calc.ComputeAll(totals[label])
		if err != nil {
			// Totals of already-validated samples cannot be negative.
			continue
		}
		out = append(out, SegmentSummary{
			Label:      label,
			Count:      n,
			TotalSpend: agg.Spend,
			AvgROAS:    agg.ROAS,
			AvgCPA:     agg.CPA,
		})
	}
	return out
}

// SortForDisplay orders segmented ads by label priority (scale > hold >
// test > kill) with spend descending within a label. This is a display
// convention for the report layer, not part of the classifier's contract.
func SortForDisplay(results []SegmentedAd) {
	priority := map[domain.SegmentLabel]int{
		domain.SegmentScale: 0,
		domain.SegmentHold:  1,
		domain.SegmentTest:  2,
		domain.SegmentKill:  3,
	}
	sort.SliceStable(results, func(i, j int) bool {
		if priority[results[i].Label] != priority[results[j].Label] {
			return priority[results[i].Label] < priority[results[j].Label]
		}
		return results[i].Metrics.Spend > results[j].Metrics.Spend
	})
}

// relDeviation measures how far value exceeds base, relative to base.
func relDeviation(value, base float64) float64 {
	if base <= 0 {
		return 0
	}
	d := (value - base) / base
	if d < 0 {
		return 0
	}
	return d
}

func safeDiv(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}

func clamp01(v float64) float64 {
	return math.Min(0.99, math.Max(0, v))
}
