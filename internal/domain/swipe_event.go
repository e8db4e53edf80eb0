package domain

// SwipeEvent is an immutable swipe fact recorded at ingestion.
// Corresponds to the swipe_events table in PostgreSQL.
// Ordering by SwipedAt matters for trend buckets but not for totals.
type SwipeEvent struct {
	EventID         string    // PRIMARY KEY, deterministic hash
	DatingAccountID int64     // owning account
	ProfileID       *int64    // profile variant shown (nullable)
	ABTestID        *int64    // experiment the swipe belongs to (nullable)
	TargetName      string    // opaque target descriptor fields
	TargetAge       int       //
	TargetBio       string    //
	TargetDistance  int       // km
	Direction       Direction // left | right | super
	IsMatch         bool      // mutual right-swipe outcome
	AIScore         *float64  // 0-1 model score (nullable)
	DecisionReason  string    // why the automation swiped this way
	SwipedAt        int64     // Unix timestamp in milliseconds
	CreatedAt       int64     // record creation timestamp (ms)
}
