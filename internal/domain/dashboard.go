package domain

// DashboardStats is the per-account composition served to the dashboard.
// Recomputed per request or served from a short-lived cache; each field
// degrades to its zero value independently when a sub-computation fails.
type DashboardStats struct {
	DatingAccountID int64

	TotalSwipes         int
	TotalMatches        int
	MatchRate           float64
	MessageResponseRate float64

	ActiveProfiles int
	ActiveABTests  int

	RecentSwipes         []*SwipeEvent // newest first
	TopPerformingProfile *ProfileStats // nil when no active profile has events
	WeeklyTrend          []*AnalyticsSnapshot // most recent closed weekly buckets, newest first

	// Partial is set when a bounded scan hit its deadline and the
	// caller received a truncated rather than failed response.
	Partial bool
}
