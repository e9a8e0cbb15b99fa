package metrics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/creative-intel/internal/config"
	"github.com/ignite/creative-intel/internal/domain"
)

func testCalculator(conversionValue float64) *Calculator {
	cfg := config.Default().Metrics
	cfg.ConversionValue = conversionValue
	return NewCalculator(cfg)
}

func TestComputeAll_FullScenario(t *testing.T) {
	calc := testCalculator(50_000)

	m, err := calc.ComputeAll(domain.RawMetricSample{
		Spend:       1_000_000,
		Impressions: 500_000,
		Clicks:      10_000,
		Conversions: 200,
	})
	require.NoError(t, err)

	assert.Equal(t, 2.0, m.CTR)
	assert.Equal(t, 2.0, m.CVR)
	assert.Equal(t, 100.0, m.CPC)
	assert.Equal(t, 2000.0, m.CPM)
	assert.Equal(t, 5_000.0, m.CPA)
	assert.Equal(t, 10.0, m.ROAS)
	assert.Equal(t, domain.ValueSourceCustom, m.ValueSource)
}

func TestComputeAll_DefaultConversionValue(t *testing.T) {
	calc := testCalculator(0)

	m, err := calc.ComputeAll(domain.RawMetricSample{
		Spend: 300, Impressions: 10_000, Clicks: 100, Conversions: 10,
	})
	require.NoError(t, err)

	assert.Equal(t, domain.ValueSourceDefault, m.ValueSource)
	// 10 conversions * default 30.0 / 300 spend
	assert.InDelta(t, 1.0, m.ROAS, 1e-9)
}

func TestComputeAll_ZeroDenominators(t *testing.T) {
	calc := testCalculator(0)

	tests := []struct {
		name string
		raw  domain.RawMetricSample
	}{
		{"all zero", domain.RawMetricSample{}},
		{"no impressions", domain.RawMetricSample{Spend: 50}},
		{"no clicks", domain.RawMetricSample{Spend: 50, Impressions: 1000}},
		{"no conversions", domain.RawMetricSample{Spend: 50, Impressions: 1000, Clicks: 20}},
		{"no spend", domain.RawMetricSample{Impressions: 1000, Clicks: 20, Conversions: 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := calc.ComputeAll(tt.raw)
			require.NoError(t, err)
			for name, v := range map[string]float64{
				"ctr": m.CTR, "cvr": m.CVR, "cpc": m.CPC,
				"cpm": m.CPM, "cpa": m.CPA, "roas": m.ROAS,
			} {
				assert.False(t, math.IsNaN(v) || math.IsInf(v, 0), "%s must be finite", name)
			}
			if tt.raw.Impressions == 0 {
				assert.Zero(t, m.CTR)
				assert.Zero(t, m.CPM)
			}
			if tt.raw.Clicks == 0 {
				assert.Zero(t, m.CVR)
				assert.Zero(t, m.CPC)
			}
			if tt.raw.Conversions == 0 {
				assert.Zero(t, m.CPA)
			}
			if tt.raw.Spend == 0 {
				assert.Zero(t, m.ROAS)
			}
		})
	}
}

func TestComputeAll_NegativeCounterRejected(t *testing.T) {
	calc := testCalculator(0)

	_, err := calc.ComputeAll(domain.RawMetricSample{Spend: -1})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNegativeCounter)
}

func TestAggregateAndCompute_MatchesSummedSample(t *testing.T) {
	calc := testCalculator(25)

	s1 := domain.RawMetricSample{Spend: 100, Impressions: 20_000, Clicks: 400, Conversions: 8}
	s2 := domain.RawMetricSample{Spend: 900, Impressions: 5_000, Clicks: 40, Conversions: 1}

	agg, err := calc.AggregateAndCompute([]domain.RawMetricSample{s1, s2})
	require.NoError(t, err)

	direct, err := calc.ComputeAll(s1.Add(s2))
	require.NoError(t, err)

	assert.Equal(t, direct, agg)

	// Sanity: averaging the per-sample CTRs would give the wrong answer
	// here, because the volumes differ wildly.
	m1, _ := calc.ComputeAll(s1)
	m2, _ := calc.ComputeAll(s2)
	assert.NotEqual(t, (m1.CTR+m2.CTR)/2, agg.CTR)
}

func TestAggregateAndCompute_Empty(t *testing.T) {
	calc := testCalculator(0)

	m, err := calc.AggregateAndCompute(nil)
	require.NoError(t, err)
	assert.Zero(t, m.CTR)
	assert.Zero(t, m.ROAS)
}

func TestComputeChange(t *testing.T) {
	tests := []struct {
		name     string
		current  float64
		previous float64
		want     *float64
	}{
		{"both zero is undefined", 0, 0, nil},
		{"growth from zero", 5, 0, ptr(100.0)},
		{"doubling", 10, 5, ptr(100.0)},
		{"halving", 5, 10, ptr(-50.0)},
		{"drop to zero", 0, 4, ptr(-100.0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeChange(tt.current, tt.previous)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.InDelta(t, *tt.want, *got, 1e-9)
		})
	}
}

func TestCompare(t *testing.T) {
	calc := testCalculator(0)

	cmp, err := calc.Compare(
		domain.RawMetricSample{Spend: 200, Impressions: 10_000, Clicks: 300, Conversions: 6},
		domain.RawMetricSample{Spend: 100, Impressions: 10_000, Clicks: 100, Conversions: 0},
	)
	require.NoError(t, err)

	require.NotNil(t, cmp.Changes["spend"])
	assert.InDelta(t, 100, *cmp.Changes["spend"], 1e-9)
	require.NotNil(t, cmp.Changes["clicks"])
	assert.InDelta(t, 200, *cmp.Changes["clicks"], 1e-9)

	// Conversions went 0 -> 6: growth from zero reports 100.
	require.NotNil(t, cmp.Changes["conversions"])
	assert.InDelta(t, 100, *cmp.Changes["conversions"], 1e-9)

	// CVR was 0 and CPA was 0 previously; both now positive.
	require.NotNil(t, cmp.Changes["cvr"])
	assert.InDelta(t, 100, *cmp.Changes["cvr"], 1e-9)
}

func TestWithDefaults(t *testing.T) {
	assert.Equal(t,
		domain.DerivedMetrics{ValueSource: domain.ValueSourceDefault},
		WithDefaults(nil))

	sparse := &domain.DerivedMetrics{
		CTR: math.NaN(),
		CPA: math.Inf(1),
		CPC: -3,
	}
	sparse.Spend = 10
	got := WithDefaults(sparse)
	assert.Equal(t, 10.0, got.Spend)
	assert.Zero(t, got.CTR)
	assert.Zero(t, got.CPA)
	assert.Zero(t, got.CPC)
	assert.Equal(t, domain.ValueSourceDefault, got.ValueSource)
}
