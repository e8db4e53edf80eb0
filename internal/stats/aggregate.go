// Package stats reduces swipe events to summary statistics.
//
// Aggregation is a pure single-pass fold into a Tally; tallies combine
// associatively, so partial reductions over event subsets merge into
// the same result as one pass over the whole set. Derived rates are
// computed only at the end, in Stats().
package stats

import (
	"swipe-analytics-lab/internal/domain"
)

// Tally holds the raw sums and counts of one reduction. The zero value
// is the identity for Combine.
type Tally struct {
	TotalSwipes  int
	RightSwipes  int
	LeftSwipes   int
	SuperSwipes  int
	MatchesCount int

	ScoredCount int     // events carrying an AI score
	ScoreSum    float64 // sum of AI scores over scored events

	AgedCount int // events with a known target age
	AgeSum    int

	DistancedCount int // events with a known target distance
	DistanceSum    int
}

// Aggregate reduces events to a Tally in a single pass. Events with an
// unknown direction are counted in the total only; ingestion validation
// keeps them out of stores, so they only show up in ad-hoc input.
func Aggregate(events []*domain.SwipeEvent) Tally {
	var t Tally
	for _, e := range events {
		t.TotalSwipes++

		switch e.Direction {
		case domain.DirectionRight:
			t.RightSwipes++
		case domain.DirectionLeft:
			t.LeftSwipes++
		case domain.DirectionSuper:
			t.SuperSwipes++
		}

		if e.IsMatch {
			t.MatchesCount++
		}
		if e.AIScore != nil {
			t.ScoredCount++
			t.ScoreSum += *e.AIScore
		}
		if e.TargetAge > 0 {
			t.AgedCount++
			t.AgeSum += e.TargetAge
		}
		if e.TargetDistance > 0 {
			t.DistancedCount++
			t.DistanceSum += e.TargetDistance
		}
	}
	return t
}

// Combine merges two tallies. Combine(Aggregate(a), Aggregate(b)) equals
// Aggregate(a ++ b) for any split of the event set.
func Combine(a, b Tally) Tally {
	return Tally{
		TotalSwipes:    a.TotalSwipes + b.TotalSwipes,
		RightSwipes:    a.RightSwipes + b.RightSwipes,
		LeftSwipes:     a.LeftSwipes + b.LeftSwipes,
		SuperSwipes:    a.SuperSwipes + b.SuperSwipes,
		MatchesCount:   a.MatchesCount + b.MatchesCount,
		ScoredCount:    a.ScoredCount + b.ScoredCount,
		ScoreSum:       a.ScoreSum + b.ScoreSum,
		AgedCount:      a.AgedCount + b.AgedCount,
		AgeSum:         a.AgeSum + b.AgeSum,
		DistancedCount: a.DistancedCount + b.DistancedCount,
		DistanceSum:    a.DistanceSum + b.DistanceSum,
	}
}

// Stats derives the swipe breakdown. All rates are 0 on an empty tally,
// never NaN.
func (t Tally) Stats() domain.SwipeStats {
	s := domain.SwipeStats{
		TotalSwipes:  t.TotalSwipes,
		RightSwipes:  t.RightSwipes,
		LeftSwipes:   t.LeftSwipes,
		SuperSwipes:  t.SuperSwipes,
		MatchesCount: t.MatchesCount,
	}

	if t.TotalSwipes > 0 {
		s.MatchRate = float64(t.MatchesCount) / float64(t.TotalSwipes)
		s.RightSwipeRate = float64(t.RightSwipes+t.SuperSwipes) / float64(t.TotalSwipes)
	}
	if t.ScoredCount > 0 {
		s.AvgAIScore = t.ScoreSum / float64(t.ScoredCount)
	}
	if t.AgedCount > 0 {
		s.AvgTargetAge = float64(t.AgeSum) / float64(t.AgedCount)
	}
	if t.DistancedCount > 0 {
		s.AvgTargetDistance = float64(t.DistanceSum) / float64(t.DistancedCount)
	}
	return s
}

// ProfileStats derives per-profile statistics from a tally of that
// profile's events. messageRate comes from the messaging collaborator
// and passes through unchanged.
func ProfileStats(p *domain.Profile, t Tally, messageRate float64) *domain.ProfileStats {
	s := t.Stats()
	return &domain.ProfileStats{
		ProfileID:           p.ProfileID,
		ProfileName:         p.ProfileName,
		TotalSwipes:         s.TotalSwipes,
		RightSwipes:         s.RightSwipes,
		LeftSwipes:          s.LeftSwipes,
		SuperSwipes:         s.SuperSwipes,
		MatchesCount:        s.MatchesCount,
		MatchRate:           s.MatchRate,
		AvgAIScore:          s.AvgAIScore,
		MessageResponseRate: messageRate,
	}
}
