// Package intelligence composes the five engine components into a single
// account-level analysis: metrics derivation, fatigue assessment, creative
// scoring, ad segmentation, and matrix placement, rolled up into one
// snapshot the report/API layer can serialize directly.
package intelligence

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/ignite/creative-intel/internal/config"
	"github.com/ignite/creative-intel/internal/domain"
	"github.com/ignite/creative-intel/internal/fatigue"
	"github.com/ignite/creative-intel/internal/matrix"
	"github.com/ignite/creative-intel/internal/metrics"
	"github.com/ignite/creative-intel/internal/pkg/logger"
	"github.com/ignite/creative-intel/internal/scoring"
	"github.com/ignite/creative-intel/internal/segmentation"
)

// CreativeRecord is one creative's already-fetched history for an analysis
// window: raw daily counters, the fatigue series, and optional video
// sub-metrics.
type CreativeRecord struct {
	CreativeID   string                     `json:"creative_id"`
	CreativeName string                     `json:"creative_name"`
	Type         domain.CreativeType        `json:"type"`
	AgeDays      int                        `json:"age_days"`
	Samples      []domain.RawMetricSample   `json:"samples"`
	Series       []fatigue.DailyMetricPoint `json:"series"`
	Video        *domain.VideoMetrics       `json:"video,omitempty"`
}

// Request is one account's analysis input.
type Request struct {
	AccountID string                 `json:"account_id"`
	AsOf      time.Time              `json:"as_of"`
	Creatives []CreativeRecord       `json:"creatives"`
	Ads       []segmentation.AdInput `json:"ads"`
}

// Recommendation is one prioritized action surfaced at snapshot level.
type Recommendation struct {
	CreativeID string         `json:"creative_id"`
	Urgency    domain.Urgency `json:"urgency"`
	Text       string         `json:"text"`
}

// Snapshot is the full analysis result for one account.
type Snapshot struct {
	ID          uuid.UUID `json:"id"`
	AccountID   string    `json:"account_id"`
	GeneratedAt time.Time `json:"generated_at"`

	AccountMetrics domain.DerivedMetrics `json:"account_metrics"`
	OverallHealth  float64               `json:"overall_health"` // spend-weighted avg creative score

	Scores       map[string]*scoring.CreativeScore `json:"scores"`
	ScoreSummary scoring.CohortSummary             `json:"score_summary"`

	Assessments      map[string]*fatigue.Assessment `json:"assessments"`
	FatigueBreakdown fatigue.StatusBreakdown        `json:"fatigue_breakdown"`

	Segments         []segmentation.SegmentedAd    `json:"segments"`
	SegmentSummaries []segmentation.SegmentSummary `json:"segment_summaries"`

	Matrix            []matrix.Position        `json:"matrix"`
	QuadrantSummaries []matrix.QuadrantSummary `json:"quadrant_summaries"`
	ReplacementQueue  []matrix.Position        `json:"replacement_queue"`

	Recommendations []Recommendation `json:"recommendations"`
}

// Service wires the five components together under one config.
type Service struct {
	cfg        config.Config
	calc       *metrics.Calculator
	fatigue    *fatigue.Engine
	scorer     *scoring.Scorer
	classifier *segmentation.Classifier
	analyzer   *matrix.Analyzer
}

// NewService creates the composition service. The config must already be
// validated; Load/Parse do that for overrides, Default() is valid by
// construction.
func NewService(cfg config.Config) *Service {
	calc := metrics.NewCalculator(cfg.Metrics)
	return &Service{
		cfg:        cfg,
		calc:       calc,
		fatigue:    fatigue.NewEngine(cfg.Fatigue),
		scorer:     scoring.NewScorer(cfg.Scoring),
		classifier: segmentation.NewClassifier(cfg.Segmentation, calc),
		analyzer:   matrix.NewAnalyzer(cfg.Matrix),
	}
}

// AnalyzeAccount runs the full pipeline for one account's creatives and
// ads. It performs no I/O: inputs are already fetched, outputs are plain
// values for the caller to serialize or store.
func (s *Service) AnalyzeAccount(req Request) (*Snapshot, error) {
	snap := &Snapshot{
		ID:          uuid.New(),
		AccountID:   req.AccountID,
		GeneratedAt: time.Now().UTC(),
		Assessments: make(map[string]*fatigue.Assessment, len(req.Creatives)),
	}

	scoringInputs := make([]scoring.CreativeInput, 0, len(req.Creatives))
	matrixInputs := make([]matrix.Input, 0, len(req.Creatives))
	assessments := make([]fatigue.Assessment, 0, len(req.Creatives))
	var accountTotal domain.RawMetricSample

	for _, cr := range req.Creatives {
		agg, err := s.calc.AggregateAndCompute(cr.Samples)
		if err != nil {
			return nil, fmt.Errorf("creative %s: %w", cr.CreativeID, err)
		}
		for _, sample := range cr.Samples {
			accountTotal = accountTotal.Add(sample)
		}

		assessment, err := s.fatigue.Assess(fatigue.Input{
			CreativeID: cr.CreativeID,
			AgeDays:    cr.AgeDays,
			Series:     cr.Series,
			AsOf:       req.AsOf,
		})
		if err != nil {
			return nil, fmt.Errorf("creative %s: %w", cr.CreativeID, err)
		}
		snap.Assessments[cr.CreativeID] = assessment
		assessments = append(assessments, *assessment)

		scoringInputs = append(scoringInputs, scoring.CreativeInput{
			CreativeID:   cr.CreativeID,
			CreativeName: cr.CreativeName,
			Type:         cr.Type,
			Metrics:      agg,
			FatigueIndex: assessment.Index,
			FatigueTrend: assessment.Trend,
			Video:        cr.Video,
		})
		matrixInputs = append(matrixInputs, matrix.Input{
			CreativeID:   cr.CreativeID,
			CreativeName: cr.CreativeName,
			CTR:          agg.CTR,
			CVR:          agg.CVR,
			ROAS:         agg.ROAS,
			FatigueIndex: assessment.Index,
		})
	}

	accountMetrics, err := s.calc.ComputeAll(accountTotal)
	if err != nil {
		return nil, fmt.Errorf("account totals: %w", err)
	}
	snap.AccountMetrics = accountMetrics

	snap.Scores = s.scorer.ScoreCreatives(scoringInputs, s.cfg.Benchmarks)
	snap.ScoreSummary = s.scorer.Summary(snap.Scores)
	snap.FatigueBreakdown = s.fatigue.CategorizeStatus(assessments)

	snap.Segments, err = s.classifier.BatchSegment(req.Ads)
	if err != nil {
		return nil, err
	}
	segmentation.SortForDisplay(snap.Segments)
	snap.SegmentSummaries = s.classifier.SummarizeBySegment(snap.Segments)

	snap.Matrix = s.analyzer.Analyze(matrixInputs)
	snap.QuadrantSummaries = s.analyzer.SummarizeByQuadrant(snap.Matrix)
	snap.ReplacementQueue = s.analyzer.ReplacementQueue(snap.Matrix)

	snap.OverallHealth = s.overallHealth(scoringInputs, snap.Scores)
	snap.Recommendations = s.collectRecommendations(snap.Assessments)

	logger.Info("account analysis complete",
		"account_id", req.AccountID,
		"creatives", len(req.Creatives),
		"ads", len(req.Ads),
		"overall_health", fmt.Sprintf("%.1f", snap.OverallHealth),
		"replacement_queue", len(snap.ReplacementQueue),
	)
	return snap, nil
}

// overallHealth is the spend-weighted average creative score: big spenders
// drag the account health more than long-tail creatives.
func (s *Service) overallHealth(inputs []scoring.CreativeInput, scores map[string]*scoring.CreativeScore) float64 {
	var weightedSum, totalWeight float64
	for _, in := range inputs {
		sc, ok := scores[in.CreativeID]
		if !ok {
			continue
		}
		weight := in.Metrics.Spend
		if weight == 0 {
			weight = 1 // unspent creatives still count, minimally
		}
		weightedSum += sc.Overall * weight
		totalWeight += weight
	}
	if totalWeight == 0 {
		return 0
	}
	return weightedSum / totalWeight
}

var urgencyOrder = map[domain.Urgency]int{
	domain.UrgencyCritical: 0,
	domain.UrgencyHigh:     1,
	domain.UrgencyMedium:   2,
	domain.UrgencyLow:      3,
}

// collectRecommendations surfaces every non-low fatigue recommendation,
// most urgent first, ties broken by higher index.
func (s *Service) collectRecommendations(assessments map[string]*fatigue.Assessment) []Recommendation {
	var out []Recommendation
	index := make(map[string]float64, len(assessments))
	for id, a := range assessments {
		if a.Recommendation.Urgency == domain.UrgencyLow {
			continue
		}
		out = append(out, Recommendation{
			CreativeID: id,
			Urgency:    a.Recommendation.Urgency,
			Text:       a.Recommendation.Text,
		})
		index[id] = a.Index
	}
	sort.SliceStable(out, func(i, j int) bool {
		if urgencyOrder[out[i].Urgency] != urgencyOrder[out[j].Urgency] {
			return urgencyOrder[out[i].Urgency] < urgencyOrder[out[j].Urgency]
		}
		if index[out[i].CreativeID] != index[out[j].CreativeID] {
			return index[out[i].CreativeID] > index[out[j].CreativeID]
		}
		return out[i].CreativeID < out[j].CreativeID
	})
	return out
}
