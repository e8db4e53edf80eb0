package domain

// Granularity of an analytics bucket.
type Granularity string

const (
	GranularityDaily  Granularity = "daily"
	GranularityWeekly Granularity = "weekly"
)

// String returns the string representation of Granularity.
func (g Granularity) String() string {
	return string(g)
}

// IsValid checks if the granularity is a recognized value.
func (g Granularity) IsValid() bool {
	return g == GranularityDaily || g == GranularityWeekly
}

// AnalyticsSnapshot is a materialized rollup of swipe statistics for one
// account/profile/test over one time bucket.
// Corresponds to the analytics_snapshots table in PostgreSQL.
// Once its bucket has fully elapsed and the row is finalized it is
// immutable; re-materializing overwrites with byte-identical values.
type AnalyticsSnapshot struct {
	DatingAccountID int64
	ProfileID       *int64 // nullable; nil for account-level rollups
	ABTestID        *int64 // nullable
	Granularity     Granularity
	BucketStart     int64 // Unix ms, inclusive
	BucketEnd       int64 // Unix ms, exclusive

	TotalSwipes  int
	RightSwipes  int
	LeftSwipes   int
	SuperSwipes  int
	MatchesCount int

	MatchRate           float64
	AvgAIScore          float64
	MessageResponseRate float64

	Final     bool  // false for previews of the open bucket
	CreatedAt int64 // materialization timestamp (ms)
}
