package reporting

import (
	"context"
	"fmt"
	"time"

	"swipe-analytics-lab/internal/abtest"
	"swipe-analytics-lab/internal/domain"
	"swipe-analytics-lab/internal/observability"
	"swipe-analytics-lab/internal/storage"
)

// Generator produces A/B test reports from stored data.
type Generator struct {
	tests     storage.ABTestStore
	evaluator *abtest.Evaluator
	now       func() time.Time // Injectable clock for deterministic output
}

// NewGenerator creates a new report generator.
func NewGenerator(tests storage.ABTestStore, evaluator *abtest.Evaluator) *Generator {
	return &Generator{
		tests:     tests,
		evaluator: evaluator,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Generate evaluates every test of an account and assembles the report.
// An account with no tests yields an empty report, not an error.
func (g *Generator) Generate(ctx context.Context, accountID int64) (*Report, error) {
	tests, err := g.tests.GetByAccount(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("load tests for account %d: %w", accountID, err)
	}

	report := &Report{
		GeneratedAt:     g.now(),
		DatingAccountID: accountID,
		TestCount:       len(tests),
	}

	for _, test := range tests {
		switch test.Status {
		case domain.ABTestStatusCompleted:
			report.CompletedCount++
		case domain.ABTestStatusRunning:
			report.RunningCount++
		}

		result, err := g.evaluator.Evaluate(ctx, test.ABTestID)
		if err != nil {
			return nil, fmt.Errorf("evaluate test %d: %w", test.ABTestID, err)
		}

		report.Rows = append(report.Rows, TestResultRow{
			TestID:         test.ABTestID,
			TestName:       test.TestName,
			Status:         test.Status.String(),
			Winner:         result.Winner,
			Recommendation: result.Recommendation,
			Final:          result.Final,
			VariantA:       variantRow(test.ProfileAID, &result.ProfileAStats),
			VariantB:       variantRow(test.ProfileBID, &result.ProfileBStats),
		})
	}

	observability.DefaultMetrics.ReportsGenerated.Inc()
	return report, nil
}

func variantRow(profileID int64, s *domain.ProfileStats) VariantRow {
	return VariantRow{
		ProfileID:           profileID,
		ProfileName:         s.ProfileName,
		TotalSwipes:         s.TotalSwipes,
		RightSwipes:         s.RightSwipes,
		LeftSwipes:          s.LeftSwipes,
		SuperSwipes:         s.SuperSwipes,
		MatchesCount:        s.MatchesCount,
		MatchRate:           s.MatchRate,
		AvgAIScore:          s.AvgAIScore,
		MessageResponseRate: s.MessageResponseRate,
	}
}
