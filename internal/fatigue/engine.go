// Package fatigue estimates how exhausted a creative's performance is
// relative to its own historical peak. It consumes a date-ordered series of
// daily metric points for one creative and produces a 0-100 fatigue index,
// a trend label, the weighted factors behind the index, and an estimated
// exhaustion date when the creative is measurably decaying.
package fatigue

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/ignite/creative-intel/internal/config"
	"github.com/ignite/creative-intel/internal/domain"
)

// ErrUnorderedSeries is returned when the daily series is not in ascending
// date order. Callers are expected to sort before invoking the engine.
var ErrUnorderedSeries = errors.New("daily series not in ascending date order")

// Factor names reported in assessments.
const (
	FactorCTRDecay       = "ctr_decay"
	FactorCVRDecay       = "cvr_decay"
	FactorFrequency      = "frequency_saturation"
	FactorDeclinePersist = "decline_persistence"
	FactorAgePressure    = "age_pressure"
)

// DailyMetricPoint is one day of a creative's history. Gaps (missing days)
// are tolerated; they simply reduce the sample count used for trend
// detection.
type DailyMetricPoint struct {
	Date        time.Time `json:"date"`
	Impressions float64   `json:"impressions"`
	CTR         float64   `json:"ctr"`
	CVR         float64   `json:"cvr"`
	Frequency   float64   `json:"frequency"`
}

// Input is one creative's fatigue assessment request.
type Input struct {
	CreativeID string             `json:"creative_id"`
	AgeDays    int                `json:"age_days"`
	Series     []DailyMetricPoint `json:"series"`

	// AsOf anchors "today" for daysFromPeak and exhaustion extrapolation.
	// Zero means the date of the most recent point.
	AsOf time.Time `json:"as_of"`
}

// Factor is one weighted contributor to the fatigue index.
type Factor struct {
	Factor       string  `json:"factor"`
	Weight       float64 `json:"weight"`       // 0..1, weights sum to 1.0
	Value        float64 `json:"value"`        // 0..100
	Contribution float64 `json:"contribution"` // weight * value
}

// Recommendation is the human-readable action attached to an assessment.
type Recommendation struct {
	Urgency domain.Urgency `json:"urgency"`
	Text    string         `json:"text"`
}

// Assessment is the full fatigue read for one creative.
type Assessment struct {
	CreativeID          string         `json:"creative_id"`
	Index               float64        `json:"index"` // 0..100
	Trend               domain.Trend   `json:"trend"`
	PeakDate            time.Time      `json:"peak_date"`
	PeakCTR             float64        `json:"peak_ctr"`
	CurrentCTR          float64        `json:"current_ctr"`
	DaysFromPeak        int            `json:"days_from_peak"`
	EstimatedExhaustion *time.Time     `json:"estimated_exhaustion,omitempty"`
	Factors             []Factor       `json:"factors"`
	Recommendation      Recommendation `json:"recommendation"`
}

// Engine computes fatigue assessments under one fatigue config.
type Engine struct {
	cfg config.FatigueConfig
}

// NewEngine creates a fatigue engine for the given config.
func NewEngine(cfg config.FatigueConfig) *Engine {
	return &Engine{cfg: cfg}
}

// Assess computes the fatigue assessment for one creative. Fewer than two
// data points, or a series with no delivery at all, yields a zero index and
// a stable trend: no history is not an error, it is a healthy default.
func (e *Engine) Assess(in Input) (*Assessment, error) {
	if err := validateSeries(in.Series); err != nil {
		return nil, fmt.Errorf("assess %s: %w", in.CreativeID, err)
	}

	if len(in.Series) < 2 || !hasDelivery(in.Series) {
		a := &Assessment{
			CreativeID: in.CreativeID,
			Index:      0,
			Trend:      domain.TrendStable,
		}
		a.Recommendation = e.recommend(a)
		return a, nil
	}

	asOf := in.AsOf
	if asOf.IsZero() {
		asOf = in.Series[len(in.Series)-1].Date
	}

	// Single linear scan for the CTR peak; ties break to the earliest date.
	peakIdx := 0
	peakCVR := in.Series[0].CVR
	for i, p := range in.Series {
		if p.CTR > in.Series[peakIdx].CTR {
			peakIdx = i
		}
		if p.CVR > peakCVR {
			peakCVR = p.CVR
		}
	}
	peak := in.Series[peakIdx]
	current := in.Series[len(in.Series)-1]
	ctrDrop := relativeDrop(peak.CTR, current.CTR)
	daysFromPeak := daysBetween(peak.Date, asOf)

	factors := []Factor{
		e.factor(FactorCTRDecay, e.cfg.CTRDecayWeight, ctrDrop*e.cfg.CTRDecayScale),
		e.factor(FactorCVRDecay, e.cfg.CVRDecayWeight, relativeDrop(peakCVR, current.CVR)),
		e.factor(FactorFrequency, e.cfg.FrequencyWeight, e.frequencySaturation(current.Frequency)),
		e.factor(FactorDeclinePersist, e.cfg.DeclinePersistWeight, e.declinePersistence(ctrDrop, daysFromPeak)),
		e.factor(FactorAgePressure, e.cfg.AgePressureWeight, e.agePressure(in.AgeDays)),
	}

	index := 0.0
	for _, f := range factors {
		index += f.Contribution
	}
	index = clamp(index, 0, 100)

	slope := ctrSlope(in.Series)

	a := &Assessment{
		CreativeID:          in.CreativeID,
		Index:               index,
		Trend:               e.classifyTrend(index, slope),
		PeakDate:            peak.Date,
		PeakCTR:             peak.CTR,
		CurrentCTR:          current.CTR,
		DaysFromPeak:        daysFromPeak,
		EstimatedExhaustion: e.estimateExhaustion(current.CTR, slope, asOf),
		Factors:             factors,
	}
	a.Recommendation = e.recommend(a)
	return a, nil
}

func (e *Engine) factor(name string, weight, value float64) Factor {
	value = clamp(value, 0, 100)
	return Factor{
		Factor:       name,
		Weight:       weight,
		Value:        value,
		Contribution: weight * value,
	}
}

// relativeDrop scales the drop from peak to current onto 0..100. A current
// value at or above peak scores 0; a total collapse scores 100.
func relativeDrop(peak, current float64) float64 {
	if peak <= 0 {
		return 0
	}
	return (peak - current) / peak * 100
}

// declinePersistence scores how long the creative has sat below its peak,
// maxing out at PersistCapDays. A flat or recovering series (drop under
// PersistMinDrop) carries no persistence.
func (e *Engine) declinePersistence(ctrDrop float64, daysFromPeak int) float64 {
	if ctrDrop < e.cfg.PersistMinDrop || daysFromPeak <= 0 {
		return 0
	}
	return float64(daysFromPeak) / e.cfg.PersistCapDays * 100
}

// frequencySaturation scores how far current frequency sits past the
// saturation threshold, maxing out at the configured ceiling.
func (e *Engine) frequencySaturation(freq float64) float64 {
	if freq <= e.cfg.FrequencySaturation {
		return 0
	}
	span := e.cfg.FrequencyCeiling - e.cfg.FrequencySaturation
	return (freq - e.cfg.FrequencySaturation) / span * 100
}

// agePressure grows linearly with creative age and caps at 100.
func (e *Engine) agePressure(ageDays int) float64 {
	if ageDays <= 0 {
		return 0
	}
	return float64(ageDays) / e.cfg.AgeCapDays * 100
}

// classifyTrend maps the index and the recent CTR slope to a trend label.
// An improving CTR reads as rising only while the index is still below the
// declining threshold; past it, the accumulated fatigue wins.
func (e *Engine) classifyTrend(index, slope float64) domain.Trend {
	switch {
	case index >= e.cfg.ExhaustedMin:
		return domain.TrendExhausted
	case index >= e.cfg.DecliningMin:
		return domain.TrendDeclining
	case slope > 0:
		return domain.TrendRising
	default:
		return domain.TrendStable
	}
}

// ctrSlope fits a least-squares line over (day offset, CTR) and returns the
// per-day CTR slope. Date gaps are respected via real day offsets.
func ctrSlope(series []DailyMetricPoint) float64 {
	n := float64(len(series))
	base := series[0].Date
	var sumX, sumY, sumXY, sumXX float64
	for _, p := range series {
		x := float64(daysBetween(base, p.Date))
		sumX += x
		sumY += p.CTR
		sumXY += x * p.CTR
		sumXX += x * x
	}
	den := n*sumXX - sumX*sumX
	if den == 0 {
		return 0
	}
	return (n*sumXY - sumX*sumY) / den
}

// estimateExhaustion extrapolates the CTR decay slope forward to the point
// it crosses the minimum-viable-CTR floor. A non-negative slope means the
// creative is not decaying: no estimate.
func (e *Engine) estimateExhaustion(currentCTR, slope float64, asOf time.Time) *time.Time {
	if slope >= 0 {
		return nil
	}
	if currentCTR <= e.cfg.MinViableCTR {
		t := asOf
		return &t
	}
	days := (currentCTR - e.cfg.MinViableCTR) / -slope
	t := asOf.AddDate(0, 0, int(math.Ceil(days)))
	return &t
}

func (e *Engine) recommend(a *Assessment) Recommendation {
	switch a.Trend {
	case domain.TrendExhausted:
		return Recommendation{
			Urgency: domain.UrgencyCritical,
			Text: fmt.Sprintf("Fatigue index is %.0f/100 (exhausted). CTR has fallen from %.2f%% at peak to %.2f%%. "+
				"Replace this creative now; further spend will keep degrading.", a.Index, a.PeakCTR, a.CurrentCTR),
		}
	case domain.TrendDeclining:
		urgency := domain.UrgencyMedium
		if a.Index >= (e.cfg.DecliningMin+e.cfg.ExhaustedMin)/2 {
			urgency = domain.UrgencyHigh
		}
		return Recommendation{
			Urgency: urgency,
			Text: fmt.Sprintf("Fatigue index is %.0f/100 and climbing, %d days past peak. "+
				"Prepare a replacement and start rotating fresh variants in.", a.Index, a.DaysFromPeak),
		}
	case domain.TrendRising:
		return Recommendation{
			Urgency: domain.UrgencyLow,
			Text:    "Performance is still improving. Keep the creative live and revisit after the next reporting window.",
		}
	default:
		return Recommendation{
			Urgency: domain.UrgencyLow,
			Text:    "Fatigue is low and stable. No action needed.",
		}
	}
}

// StatusBreakdown partitions a cohort of assessments by fatigue band. The
// bands are derived from the trend thresholds so the two views never
// disagree: healthy < StableMax <= warning < DecliningMin <= critical
// < ExhaustedMin <= exhausted.
type StatusBreakdown struct {
	Healthy   int `json:"healthy"`
	Warning   int `json:"warning"`
	Critical  int `json:"critical"`
	Exhausted int `json:"exhausted"`
}

// CategorizeStatus buckets a cohort of assessments by index band.
func (e *Engine) CategorizeStatus(assessments []Assessment) StatusBreakdown {
	var out StatusBreakdown
	for _, a := range assessments {
		switch {
		case a.Index < e.cfg.StableMax:
			out.Healthy++
		case a.Index < e.cfg.DecliningMin:
			out.Warning++
		case a.Index < e.cfg.ExhaustedMin:
			out.Critical++
		default:
			out.Exhausted++
		}
	}
	return out
}

func validateSeries(series []DailyMetricPoint) error {
	for i, p := range series {
		if p.Impressions < 0 || p.CTR < 0 || p.CVR < 0 || p.Frequency < 0 {
			return fmt.Errorf("point %d (%s): %w", i, p.Date.Format("2006-01-02"), domain.ErrNegativeCounter)
		}
		if i > 0 && !p.Date.After(series[i-1].Date) {
			return fmt.Errorf("point %d (%s): %w", i, p.Date.Format("2006-01-02"), ErrUnorderedSeries)
		}
	}
	return nil
}

func hasDelivery(series []DailyMetricPoint) bool {
	for _, p := range series {
		if p.Impressions > 0 {
			return true
		}
	}
	return false
}

func daysBetween(from, to time.Time) int {
	return int(to.Sub(from).Hours() / 24)
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}
