package matrix

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/creative-intel/internal/config"
	"github.com/ignite/creative-intel/internal/domain"
)

func testAnalyzer() *Analyzer {
	return NewAnalyzer(config.Default().Matrix)
}

func TestPerformanceScore(t *testing.T) {
	a := testAnalyzer()

	tests := []struct {
		name            string
		ctr, cvr, roas  float64
		want            float64
	}{
		{"zero everything", 0, 0, 0, 0},
		{"at reference on every axis", 3.0, 5.0, 4.0, 100},
		{"above reference caps", 30, 50, 40, 100},
		{"uniform 90 percent of reference", 2.7, 4.5, 3.6, 90},
		{"negative inputs clamp to zero", -1, -1, -1, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, a.PerformanceScore(tt.ctr, tt.cvr, tt.roas), 1e-9)
		})
	}
}

func TestAnalyze_QuadrantPlacement(t *testing.T) {
	a := testAnalyzer()

	tests := []struct {
		name string
		x, y float64
		want domain.Quadrant
	}{
		{"high performance low fatigue", 90, 10, domain.QuadrantScale},
		{"high performance high fatigue", 90, 90, domain.QuadrantRefresh},
		{"low performance high fatigue", 10, 90, domain.QuadrantKill},
		{"low performance low fatigue", 10, 10, domain.QuadrantHold},
		{"midpoint counts as high on both axes", 50, 50, domain.QuadrantRefresh},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, a.quadrantFor(tt.x, tt.y))
		})
	}
}

func TestAnalyze_EndToEnd(t *testing.T) {
	a := testAnalyzer()

	// 90% of each reference ratio -> x = 90.
	positions := a.Analyze([]Input{
		{CreativeID: "winner", CTR: 2.7, CVR: 4.5, ROAS: 3.6, FatigueIndex: 10},
		{CreativeID: "decaying", CTR: 2.7, CVR: 4.5, ROAS: 3.6, FatigueIndex: 90},
		{CreativeID: "dead", CTR: 0.3, CVR: 0.5, ROAS: 0.4, FatigueIndex: 90},
	})
	require.Len(t, positions, 3)

	byID := make(map[string]Position, len(positions))
	for _, p := range positions {
		byID[p.CreativeID] = p
	}

	assert.Equal(t, domain.QuadrantScale, byID["winner"].Quadrant)
	assert.Equal(t, domain.QuadrantRefresh, byID["decaying"].Quadrant)
	assert.Equal(t, domain.QuadrantKill, byID["dead"].Quadrant)

	// Kill outranks refresh at the same distance from center.
	assert.Greater(t, byID["dead"].Priority, byID["decaying"].Priority)
	assert.Equal(t, domain.UrgencyCritical, byID["dead"].Urgency)
	assert.NotEmpty(t, byID["winner"].Recommendation)
}

func TestAnalyze_SeverityAndUrgencyComeFromConfig(t *testing.T) {
	cfg := config.Default().Matrix
	cfg.KillSeverity = 0.1
	a := NewAnalyzer(cfg)

	// At 10% of each reference the point lands at (10, 90): distance 80%
	// of max, scaled by the overridden kill severity.
	positions := a.Analyze([]Input{
		{CreativeID: "dead", CTR: 0.3, CVR: 0.5, ROAS: 0.4, FatigueIndex: 90},
	})
	require.Len(t, positions, 1)

	assert.Equal(t, domain.QuadrantKill, positions[0].Quadrant)
	assert.InDelta(t, 8.0, positions[0].Priority, 0.01)
	assert.Equal(t, domain.UrgencyLow, positions[0].Urgency)
}

func TestAnalyze_ClampsOutOfRangeFatigue(t *testing.T) {
	a := testAnalyzer()

	positions := a.Analyze([]Input{
		{CreativeID: "over", CTR: 3, CVR: 5, ROAS: 4, FatigueIndex: 250},
		{CreativeID: "under", CTR: 3, CVR: 5, ROAS: 4, FatigueIndex: -10},
	})

	assert.Equal(t, 100.0, positions[0].Y)
	assert.Equal(t, 0.0, positions[1].Y)
}

func TestSummarizeByQuadrant(t *testing.T) {
	a := testAnalyzer()

	results := []Position{
		{Quadrant: domain.QuadrantScale, X: 80, Y: 10},
		{Quadrant: domain.QuadrantScale, X: 90, Y: 30},
		{Quadrant: domain.QuadrantKill, X: 10, Y: 95},
	}
	summaries := a.SummarizeByQuadrant(results)
	require.Len(t, summaries, 2)

	// Urgency order: kill first.
	assert.Equal(t, domain.QuadrantKill, summaries[0].Quadrant)
	assert.Equal(t, 1, summaries[0].Count)

	scale := summaries[1]
	assert.Equal(t, domain.QuadrantScale, scale.Quadrant)
	assert.Equal(t, 2, scale.Count)
	assert.InDelta(t, 85, scale.AvgPerformance, 1e-9)
	assert.InDelta(t, 20, scale.AvgFatigue, 1e-9)
}

func TestReplacementQueue(t *testing.T) {
	a := testAnalyzer()

	results := []Position{
		{CreativeID: "keep", Quadrant: domain.QuadrantScale, Priority: 99, Y: 10},
		{CreativeID: "hold", Quadrant: domain.QuadrantHold, Priority: 40, Y: 20},
		{CreativeID: "refresh-low", Quadrant: domain.QuadrantRefresh, Priority: 55, Y: 60},
		{CreativeID: "kill-high", Quadrant: domain.QuadrantKill, Priority: 80, Y: 90},
		{CreativeID: "refresh-tied", Quadrant: domain.QuadrantRefresh, Priority: 55, Y: 75},
	}
	queue := a.ReplacementQueue(results)
	require.Len(t, queue, 3)

	assert.Equal(t, "kill-high", queue[0].CreativeID)
	// Tied priority breaks on higher fatigue.
	assert.Equal(t, "refresh-tied", queue[1].CreativeID)
	assert.Equal(t, "refresh-low", queue[2].CreativeID)
}
