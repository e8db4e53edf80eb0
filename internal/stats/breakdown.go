package stats

// SwipeBreakdown is the per-direction share of a swipe set, in percent.
type SwipeBreakdown struct {
	RightPct float64
	LeftPct  float64
	SuperPct float64
}

// Breakdown returns per-direction percentages. A zero total yields zero
// percentages, never NaN.
func Breakdown(right, left, super int) SwipeBreakdown {
	total := right + left + super
	if total == 0 {
		return SwipeBreakdown{}
	}
	return SwipeBreakdown{
		RightPct: 100 * float64(right) / float64(total),
		LeftPct:  100 * float64(left) / float64(total),
		SuperPct: 100 * float64(super) / float64(total),
	}
}

// Breakdown returns the tally's per-direction percentages.
func (t Tally) Breakdown() SwipeBreakdown {
	return Breakdown(t.RightSwipes, t.LeftSwipes, t.SuperSwipes)
}
