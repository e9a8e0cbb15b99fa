package domain

// CreativeType enumerates the supported creative asset formats.
type CreativeType string

const (
	CreativeImage    CreativeType = "image"
	CreativeVideo    CreativeType = "video"
	CreativeCarousel CreativeType = "carousel"
	CreativeText     CreativeType = "text"
)

// Trend labels the direction of a creative's fatigue trajectory.
type Trend string

const (
	TrendRising    Trend = "rising"
	TrendStable    Trend = "stable"
	TrendDeclining Trend = "declining"
	TrendExhausted Trend = "exhausted"
)

// Urgency is the coarse action-urgency bucket attached to recommendations.
type Urgency string

const (
	UrgencyLow      Urgency = "low"
	UrgencyMedium   Urgency = "medium"
	UrgencyHigh     Urgency = "high"
	UrgencyCritical Urgency = "critical"
)

// Grade is the letter grade assigned to a composite creative score.
type Grade string

const (
	GradeS Grade = "S"
	GradeA Grade = "A"
	GradeB Grade = "B"
	GradeC Grade = "C"
	GradeD Grade = "D"
	GradeF Grade = "F"
)

// SegmentLabel is the action recommendation for an ad.
type SegmentLabel string

const (
	SegmentScale SegmentLabel = "scale"
	SegmentHold  SegmentLabel = "hold"
	SegmentTest  SegmentLabel = "test"
	SegmentKill  SegmentLabel = "kill"
)

// AllSegmentLabels returns the segment labels in display priority order.
func AllSegmentLabels() []SegmentLabel {
	return []SegmentLabel{SegmentScale, SegmentHold, SegmentTest, SegmentKill}
}

// Quadrant is one of the four performance-vs-fatigue buckets of the
// creative matrix.
type Quadrant string

const (
	QuadrantScale   Quadrant = "scale"
	QuadrantRefresh Quadrant = "refresh"
	QuadrantHold    Quadrant = "hold"
	QuadrantKill    Quadrant = "kill"
)

// AllQuadrants returns the matrix quadrants in urgency order
// (most urgent first).
func AllQuadrants() []Quadrant {
	return []Quadrant{QuadrantKill, QuadrantRefresh, QuadrantHold, QuadrantScale}
}
