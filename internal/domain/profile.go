package domain

// Profile is a profile variant of a dating account.
// CRUD is owned by an external collaborator; the engine only needs
// identity and activity to aggregate and rank.
type Profile struct {
	ProfileID       int64  // PRIMARY KEY
	DatingAccountID int64  // owning account
	ProfileName     string
	Bio             string
	Age             int
	IsActive        bool
	CreatedAt       int64 // record creation timestamp (ms)
}

// ProfileStats is a pure function of the swipe events filtered by profile.
// Never stored durably; rates are 0 when the event set is empty.
type ProfileStats struct {
	ProfileID   int64
	ProfileName string

	TotalSwipes  int
	RightSwipes  int
	LeftSwipes   int
	SuperSwipes  int
	MatchesCount int

	MatchRate           float64 // matches / total, in [0,1]
	AvgAIScore          float64 // over scored events only, 0-1
	MessageResponseRate float64 // opaque input from the messaging collaborator
}

// SwipeStats is the per-direction breakdown of a set of swipe events.
type SwipeStats struct {
	TotalSwipes  int
	RightSwipes  int
	LeftSwipes   int
	SuperSwipes  int
	MatchesCount int

	MatchRate      float64 // matches / total, in [0,1]
	RightSwipeRate float64 // (right + super) / total, in [0,1]
	AvgAIScore        float64 // over scored events only, 0-1
	AvgTargetAge      float64 // over events with a known age
	AvgTargetDistance float64 // km, over events with a known distance
}
