// Package reporting renders per-account A/B test reports.
package reporting

import "time"

// Report is a complete A/B test report for one account.
type Report struct {
	GeneratedAt     time.Time
	DatingAccountID int64

	TestCount      int
	CompletedCount int
	RunningCount   int

	Rows []TestResultRow
}

// TestResultRow is one evaluated test in the report.
type TestResultRow struct {
	TestID         int64
	TestName       string
	Status         string
	Winner         string
	Recommendation string
	Final          bool

	VariantA VariantRow
	VariantB VariantRow
}

// VariantRow is one profile variant's statistics within a test.
type VariantRow struct {
	ProfileID   int64
	ProfileName string

	TotalSwipes  int
	RightSwipes  int
	LeftSwipes   int
	SuperSwipes  int
	MatchesCount int

	MatchRate           float64
	AvgAIScore          float64
	MessageResponseRate float64
}
