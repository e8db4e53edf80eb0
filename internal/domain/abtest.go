package domain

// ABTestStatus represents the lifecycle state of an A/B test.
// Completed and cancelled are terminal.
type ABTestStatus string

const (
	ABTestStatusRunning   ABTestStatus = "running"
	ABTestStatusCompleted ABTestStatus = "completed"
	ABTestStatusCancelled ABTestStatus = "cancelled"
)

// String returns the string representation of ABTestStatus.
func (s ABTestStatus) String() string {
	return string(s)
}

// IsValid checks if the status is a recognized value.
func (s ABTestStatus) IsValid() bool {
	return s == ABTestStatusRunning || s == ABTestStatusCompleted || s == ABTestStatusCancelled
}

// IsTerminal reports whether no further status transition is allowed.
func (s ABTestStatus) IsTerminal() bool {
	return s == ABTestStatusCompleted || s == ABTestStatusCancelled
}

// ABTest is a controlled comparison of two profile variants on one account.
// Invariant: ProfileAID != ProfileBID.
type ABTest struct {
	ABTestID         int64 // PRIMARY KEY
	DatingAccountID  int64
	TestName         string
	ProfileAID       int64
	ProfileBID       int64
	StartDate        int64  // Unix timestamp in milliseconds
	EndDate          *int64 // nullable; open-ended while running
	Status           ABTestStatus
	SwipesPerProfile int   // target sample size per variant
	CreatedAt        int64 // record creation timestamp (ms)
}

// Winner values for an evaluated A/B test.
const (
	WinnerA            = "A"
	WinnerB            = "B"
	WinnerInconclusive = "inconclusive"
)

// ABTestResult wraps a test with both variants' stats and the decision.
// Computed on demand; never the source of truth.
type ABTestResult struct {
	Test           ABTest
	ProfileAStats  ProfileStats
	ProfileBStats  ProfileStats
	Winner         string // "A" | "B" | "inconclusive"
	Recommendation string
	Final          bool // false for interim reads of a running test
}
