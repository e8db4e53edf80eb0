package abtest

// Thresholds tune the ordered decision rule. The zero value is not
// usable; start from DefaultThresholds.
type Thresholds struct {
	// MatchRateMargin is the minimum absolute match-rate difference
	// (on the 0-1 scale) that decides a winner. Default 0.05 (5pp).
	MatchRateMargin float64

	// AIScoreMargin is the minimum absolute average-AI-score difference
	// (on the 0-1 scale) used as the tiebreaker. Default 0.01, i.e. one
	// point on a 0-100 display scale.
	AIScoreMargin float64

	// MinSamplePerProfile overrides the test's own SwipesPerProfile as
	// the per-variant sample floor when > 0. Default 0 (use the test's).
	MinSamplePerProfile int
}

// DefaultThresholds returns the documented default decision margins.
func DefaultThresholds() Thresholds {
	return Thresholds{
		MatchRateMargin: 0.05,
		AIScoreMargin:   0.01,
	}
}

// sampleFloor resolves the per-variant sample requirement for a test.
func (t Thresholds) sampleFloor(swipesPerProfile int) int {
	if t.MinSamplePerProfile > 0 {
		return t.MinSamplePerProfile
	}
	return swipesPerProfile
}
