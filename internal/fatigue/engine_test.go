package fatigue

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/creative-intel/internal/config"
	"github.com/ignite/creative-intel/internal/domain"
)

var day0 = time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

func seriesPoint(day int, ctr, cvr, freq float64) DailyMetricPoint {
	return DailyMetricPoint{
		Date:        day0.AddDate(0, 0, day),
		Impressions: 10_000,
		CTR:         ctr,
		CVR:         cvr,
		Frequency:   freq,
	}
}

func testEngine() *Engine {
	return NewEngine(config.Default().Fatigue)
}

func TestAssess_ImprovingCreativeIsRising(t *testing.T) {
	e := testEngine()

	series := make([]DailyMetricPoint, 0, 8)
	for i := 0; i < 8; i++ {
		series = append(series, seriesPoint(i, 1.0+0.2*float64(i), 2.0+0.1*float64(i), 1.5))
	}

	a, err := e.Assess(Input{CreativeID: "cr-1", AgeDays: 8, Series: series})
	require.NoError(t, err)

	assert.Equal(t, domain.TrendRising, a.Trend)
	assert.Less(t, a.Index, config.Default().Fatigue.StableMax, "improving creative must sit in the healthy band")
	assert.Equal(t, series[7].CTR, a.PeakCTR, "strictly increasing CTR peaks on the last day")
	assert.Nil(t, a.EstimatedExhaustion, "no exhaustion estimate while CTR improves")
	assert.Equal(t, domain.UrgencyLow, a.Recommendation.Urgency)
}

func TestAssess_HalvedCTRIsDecliningWithHighIndex(t *testing.T) {
	e := testEngine()

	// Only the CTR moves: it halves after day 0 and stays there. CVR is
	// flat, frequency sits under saturation, and the creative is young, so
	// the CTR collapse alone must carry the assessment.
	series := []DailyMetricPoint{seriesPoint(0, 4.0, 2.0, 1.5)}
	for i := 1; i <= 12; i++ {
		series = append(series, seriesPoint(i, 2.0, 2.0, 1.5))
	}

	a, err := e.Assess(Input{CreativeID: "cr-2", AgeDays: 13, Series: series})
	require.NoError(t, err)

	assert.Contains(t, []domain.Trend{domain.TrendDeclining, domain.TrendExhausted}, a.Trend)
	assert.GreaterOrEqual(t, a.Index, 50.0)
	assert.Equal(t, 4.0, a.PeakCTR)
	assert.Equal(t, day0, a.PeakDate)
	assert.Equal(t, 12, a.DaysFromPeak)
	require.NotNil(t, a.EstimatedExhaustion)
	assert.True(t, a.EstimatedExhaustion.After(series[len(series)-1].Date))
	assert.NotEqual(t, domain.UrgencyLow, a.Recommendation.Urgency)
}

func TestAssess_SustainedCTRHalvingCrossesFiftyAtAnyAge(t *testing.T) {
	e := testEngine()

	series := []DailyMetricPoint{seriesPoint(0, 3.0, 1.0, 1.0)}
	for i := 1; i <= 10; i++ {
		series = append(series, seriesPoint(i, 1.5, 1.0, 1.0))
	}

	// Age pressure contributes nothing at zero days; the scaled CTR decay
	// plus decline persistence must still clear the declining line.
	a, err := e.Assess(Input{CreativeID: "cr-young", AgeDays: 0, Series: series})
	require.NoError(t, err)

	assert.Equal(t, domain.TrendDeclining, a.Trend)
	assert.InDelta(t, 55.0, a.Index, 1e-9)
}

func TestAssess_FactorWeightsSumToOne(t *testing.T) {
	e := testEngine()

	series := []DailyMetricPoint{
		seriesPoint(0, 3.0, 4.0, 2.0),
		seriesPoint(1, 2.0, 3.0, 3.5),
	}
	a, err := e.Assess(Input{CreativeID: "cr-3", AgeDays: 20, Series: series})
	require.NoError(t, err)

	require.Len(t, a.Factors, 5)
	var weightSum, contribSum float64
	for _, f := range a.Factors {
		weightSum += f.Weight
		contribSum += f.Contribution
		assert.InDelta(t, f.Weight*f.Value, f.Contribution, 1e-9)
		assert.GreaterOrEqual(t, f.Value, 0.0)
		assert.LessOrEqual(t, f.Value, 100.0)
	}
	assert.InDelta(t, 1.0, weightSum, 1e-9)
	assert.InDelta(t, a.Index, contribSum, 1e-9)
}

func TestAssess_PeakTieBreaksToEarliestDate(t *testing.T) {
	e := testEngine()

	series := []DailyMetricPoint{
		seriesPoint(0, 2.0, 1.0, 1.0),
		seriesPoint(1, 3.0, 1.0, 1.0),
		seriesPoint(2, 3.0, 1.0, 1.0),
		seriesPoint(3, 1.0, 1.0, 1.0),
	}
	a, err := e.Assess(Input{CreativeID: "cr-4", AgeDays: 4, Series: series})
	require.NoError(t, err)

	assert.Equal(t, series[1].Date, a.PeakDate)
}

func TestAssess_ShortOrEmptyHistory(t *testing.T) {
	e := testEngine()

	tests := []struct {
		name   string
		series []DailyMetricPoint
	}{
		{"empty", nil},
		{"single point", []DailyMetricPoint{seriesPoint(0, 2.0, 1.0, 1.0)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := e.Assess(Input{CreativeID: "cr-5", AgeDays: 90, Series: tt.series})
			require.NoError(t, err)
			assert.Zero(t, a.Index)
			assert.Equal(t, domain.TrendStable, a.Trend)
			assert.True(t, a.PeakDate.IsZero())
			assert.Equal(t, domain.UrgencyLow, a.Recommendation.Urgency)
		})
	}
}

func TestAssess_NoDeliveryScoresZero(t *testing.T) {
	e := testEngine()

	series := []DailyMetricPoint{
		{Date: day0},
		{Date: day0.AddDate(0, 0, 1)},
		{Date: day0.AddDate(0, 0, 2)},
	}
	a, err := e.Assess(Input{CreativeID: "cr-6", AgeDays: 60, Series: series})
	require.NoError(t, err)

	assert.Zero(t, a.Index)
	assert.Equal(t, domain.TrendStable, a.Trend)
}

func TestAssess_RejectsBadSeries(t *testing.T) {
	e := testEngine()

	t.Run("unordered dates", func(t *testing.T) {
		series := []DailyMetricPoint{
			seriesPoint(5, 2.0, 1.0, 1.0),
			seriesPoint(2, 2.0, 1.0, 1.0),
		}
		_, err := e.Assess(Input{CreativeID: "cr-7", Series: series})
		assert.ErrorIs(t, err, ErrUnorderedSeries)
	})

	t.Run("negative values", func(t *testing.T) {
		series := []DailyMetricPoint{
			seriesPoint(0, 2.0, 1.0, 1.0),
			{Date: day0.AddDate(0, 0, 1), Impressions: 100, CTR: -1},
		}
		_, err := e.Assess(Input{CreativeID: "cr-8", Series: series})
		assert.ErrorIs(t, err, domain.ErrNegativeCounter)
	})
}

func TestAssess_ExhaustedRecommendsCritical(t *testing.T) {
	cfg := config.Default().Fatigue
	e := NewEngine(cfg)

	// Total CTR and CVR collapse, saturated frequency, old creative: every
	// factor near its maximum.
	series := []DailyMetricPoint{seriesPoint(0, 5.0, 6.0, 2.0)}
	for i := 1; i <= 14; i++ {
		series = append(series, seriesPoint(i, 0.2, 0.1, 7.0))
	}

	a, err := e.Assess(Input{CreativeID: "cr-9", AgeDays: 90, Series: series})
	require.NoError(t, err)

	assert.GreaterOrEqual(t, a.Index, cfg.ExhaustedMin)
	assert.Equal(t, domain.TrendExhausted, a.Trend)
	assert.Equal(t, domain.UrgencyCritical, a.Recommendation.Urgency)
}

func TestCategorizeStatus(t *testing.T) {
	e := testEngine()

	cohort := []Assessment{
		{Index: 5}, {Index: 29.9}, // healthy
		{Index: 30}, {Index: 49},  // warning
		{Index: 50}, {Index: 79},  // critical
		{Index: 80}, {Index: 100}, // exhausted
	}
	got := e.CategorizeStatus(cohort)

	assert.Equal(t, StatusBreakdown{Healthy: 2, Warning: 2, Critical: 2, Exhausted: 2}, got)
}
