// Package matrix places creatives on a two-axis performance-vs-fatigue
// grid and produces the ranked creative-replacement queue. The x-axis
// performance score is a cheap fixed-reference blend of CTR/CVR/ROAS,
// deliberately simpler than the benchmark-relative creative score: it only
// has to order large batches consistently.
package matrix

import (
	"fmt"
	"math"
	"sort"

	"github.com/ignite/creative-intel/internal/config"
	"github.com/ignite/creative-intel/internal/domain"
)

// Input is one creative's matrix placement request. Ratios come from the
// metrics calculator; the fatigue index comes from the fatigue engine.
type Input struct {
	CreativeID   string  `json:"creative_id"`
	CreativeName string  `json:"creative_name"`
	CTR          float64 `json:"ctr"`
	CVR          float64 `json:"cvr"`
	ROAS         float64 `json:"roas"`
	FatigueIndex float64 `json:"fatigue_index"`
}

// Position is one creative's placement on the matrix.
type Position struct {
	CreativeID     string          `json:"creative_id"`
	CreativeName   string          `json:"creative_name"`
	X              float64         `json:"x"` // performance score 0..100
	Y              float64         `json:"y"` // fatigue index 0..100
	Quadrant       domain.Quadrant `json:"quadrant"`
	Priority       float64         `json:"priority"` // 0..100
	Urgency        domain.Urgency  `json:"urgency"`
	Recommendation string          `json:"recommendation"`
}

// QuadrantSummary aggregates the cohort per quadrant.
type QuadrantSummary struct {
	Quadrant       domain.Quadrant `json:"quadrant"`
	Count          int             `json:"count"`
	AvgPerformance float64         `json:"avg_performance"`
	AvgFatigue     float64         `json:"avg_fatigue"`
}

// Analyzer computes matrix placements under one matrix config.
type Analyzer struct {
	cfg config.MatrixConfig
}

// NewAnalyzer creates an analyzer for the given config.
func NewAnalyzer(cfg config.MatrixConfig) *Analyzer {
	return &Analyzer{cfg: cfg}
}

// PerformanceScore blends CTR, CVR, and ROAS against fixed reference
// ranges onto 0..100. Negative or absurd inputs clamp rather than error:
// the score is a display axis, not a contract check.
func (a *Analyzer) PerformanceScore(ctr, cvr, roas float64) float64 {
	score := a.cfg.CTRBlend*refNorm(ctr, a.cfg.CTRRef) +
		a.cfg.CVRBlend*refNorm(cvr, a.cfg.CVRRef) +
		a.cfg.ROASBlend*refNorm(roas, a.cfg.ROASRef)
	return clamp(score, 0, 100)
}

// Analyze places each creative at (performance, fatigue) and assigns its
// quadrant, priority, and urgency.
func (a *Analyzer) Analyze(inputs []Input) []Position {
	out := make([]Position, 0, len(inputs))
	for _, in := range inputs {
		x := a.PerformanceScore(in.CTR, in.CVR, in.ROAS)
		y := clamp(in.FatigueIndex, 0, 100)
		q := a.quadrantFor(x, y)
		p := a.priorityFor(x, y, q)
		out = append(out, Position{
			CreativeID:     in.CreativeID,
			CreativeName:   in.CreativeName,
			X:              x,
			Y:              y,
			Quadrant:       q,
			Priority:       p,
			Urgency:        a.urgencyFor(p),
			Recommendation: recommendationFor(q),
		})
	}
	return out
}

// quadrantFor maps a point to its quadrant by the configured midpoints.
func (a *Analyzer) quadrantFor(x, y float64) domain.Quadrant {
	highPerf := x >= a.cfg.PerformanceMidpoint
	highFatigue := y >= a.cfg.FatigueMidpoint
	switch {
	case highPerf && !highFatigue:
		return domain.QuadrantScale
	case highPerf && highFatigue:
		return domain.QuadrantRefresh
	case !highPerf && !highFatigue:
		return domain.QuadrantHold
	default:
		return domain.QuadrantKill
	}
}

// severityFor orders quadrants by how urgently they demand action.
func (a *Analyzer) severityFor(q domain.Quadrant) float64 {
	switch q {
	case domain.QuadrantKill:
		return a.cfg.KillSeverity
	case domain.QuadrantRefresh:
		return a.cfg.RefreshSeverity
	case domain.QuadrantHold:
		return a.cfg.HoldSeverity
	default:
		return a.cfg.ScaleSeverity
	}
}

// priorityFor scales distance-from-center by quadrant severity: the deeper
// into a bad quadrant, the higher the priority.
func (a *Analyzer) priorityFor(x, y float64, q domain.Quadrant) float64 {
	dx := x - a.cfg.PerformanceMidpoint
	dy := y - a.cfg.FatigueMidpoint
	maxDist := math.Hypot(
		math.Max(a.cfg.PerformanceMidpoint, 100-a.cfg.PerformanceMidpoint),
		math.Max(a.cfg.FatigueMidpoint, 100-a.cfg.FatigueMidpoint),
	)
	if maxDist == 0 {
		return 0
	}
	dist := math.Hypot(dx, dy) / maxDist * 100
	return clamp(dist*a.severityFor(q), 0, 100)
}

func (a *Analyzer) urgencyFor(priority float64) domain.Urgency {
	switch {
	case priority >= a.cfg.UrgencyCriticalMin:
		return domain.UrgencyCritical
	case priority >= a.cfg.UrgencyHighMin:
		return domain.UrgencyHigh
	case priority >= a.cfg.UrgencyMediumMin:
		return domain.UrgencyMedium
	default:
		return domain.UrgencyLow
	}
}

func recommendationFor(q domain.Quadrant) string {
	switch q {
	case domain.QuadrantScale:
		return "Strong performance with low fatigue: increase budget behind this creative."
	case domain.QuadrantRefresh:
		return "Still performing but decaying: produce a refreshed variant before fatigue erodes returns."
	case domain.QuadrantHold:
		return "Weak performance but not fatigued: keep live at current budget and iterate on targeting."
	default:
		return "Weak and fatigued: pause the creative and replace it."
	}
}

// SummarizeByQuadrant aggregates count and average position per quadrant,
// in urgency order. Quadrants with no creatives are omitted.
func (a *Analyzer) SummarizeByQuadrant(results []Position) []QuadrantSummary {
	type acc struct {
		count int
		sumX  float64
		sumY  float64
	}
	accs := make(map[domain.Quadrant]*acc)
	for _, r := range results {
		v, ok := accs[r.Quadrant]
		if !ok {
			v = &acc{}
			accs[r.Quadrant] = v
		}
		v.count++
		v.sumX += r.X
		v.sumY += r.Y
	}

	out := make([]QuadrantSummary, 0, len(accs))
	for _, q := range domain.AllQuadrants() {
		v, ok := accs[q]
		if !ok {
			continue
		}
		out = append(out, QuadrantSummary{
			Quadrant:       q,
			Count:          v.count,
			AvgPerformance: v.sumX / float64(v.count),
			AvgFatigue:     v.sumY / float64(v.count),
		})
	}
	return out
}

// ReplacementQueue filters to the refresh and kill quadrants and sorts
// descending by priority, ties broken by higher fatigue. This is the ranked
// list of creatives to replace first.
func (a *Analyzer) ReplacementQueue(results []Position) []Position {
	queue := make([]Position, 0, len(results))
	for _, r := range results {
		if r.Quadrant == domain.QuadrantRefresh || r.Quadrant == domain.QuadrantKill {
			queue = append(queue, r)
		}
	}
	sort.SliceStable(queue, func(i, j int) bool {
		if queue[i].Priority != queue[j].Priority {
			return queue[i].Priority > queue[j].Priority
		}
		return queue[i].Y > queue[j].Y
	})
	return queue
}

// refNorm maps a ratio onto 0..100 against its reference value, capping at
// the reference.
func refNorm(v, ref float64) float64 {
	if v <= 0 || ref <= 0 {
		return 0
	}
	return math.Min(1, v/ref) * 100
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}

// String renders a position for logs and debug output.
func (p Position) String() string {
	return fmt.Sprintf("%s [%s] x=%.1f y=%.1f priority=%.1f", p.CreativeID, p.Quadrant, p.X, p.Y, p.Priority)
}
