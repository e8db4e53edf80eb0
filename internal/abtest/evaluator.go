// Package abtest evaluates profile A/B tests against the swipe ledger.
//
// Evaluation is deterministic: the same event set, test row and
// thresholds always produce the same winner and recommendation. The
// decision rule is ordered - sample size first, then match rate, then
// average AI score - and stops at the first margin that separates the
// variants.
package abtest

import (
	"context"
	"fmt"
	"log"
	"time"

	"swipe-analytics-lab/internal/domain"
	"swipe-analytics-lab/internal/stats"
	"swipe-analytics-lab/internal/storage"
)

// Evaluator computes A/B test results on demand.
type Evaluator struct {
	events     storage.SwipeEventStore
	tests      storage.ABTestStore
	profiles   storage.ProfileStore
	msgRates   stats.MessageRateSource
	thresholds Thresholds
	logger     *log.Logger

	nowFn func() int64
}

// NewEvaluator creates a new Evaluator. msgRates may be nil; message
// response rates then read as 0.
func NewEvaluator(
	events storage.SwipeEventStore,
	tests storage.ABTestStore,
	profiles storage.ProfileStore,
	msgRates stats.MessageRateSource,
	thresholds Thresholds,
	logger *log.Logger,
) *Evaluator {
	if logger == nil {
		logger = log.Default()
	}
	return &Evaluator{
		events:     events,
		tests:      tests,
		profiles:   profiles,
		msgRates:   msgRates,
		thresholds: thresholds,
		logger:     logger,
		nowFn:      func() int64 { return time.Now().UnixMilli() },
	}
}

// Evaluate computes the result for one test. Running tests get an
// interim (non-final) result over [start, now); terminal tests are
// evaluated over [start, end) and marked final.
func (ev *Evaluator) Evaluate(ctx context.Context, abTestID int64) (*domain.ABTestResult, error) {
	test, err := ev.tests.GetByID(ctx, abTestID)
	if err != nil {
		return nil, fmt.Errorf("load ab test %d: %w", abTestID, err)
	}

	until := ev.nowFn()
	if test.EndDate != nil {
		until = *test.EndDate
	}

	aStats, err := ev.variantStats(ctx, test, test.ProfileAID, until)
	if err != nil {
		return nil, err
	}
	bStats, err := ev.variantStats(ctx, test, test.ProfileBID, until)
	if err != nil {
		return nil, err
	}

	winner, recommendation := ev.decide(test, aStats, bStats)

	return &domain.ABTestResult{
		Test:           *test,
		ProfileAStats:  *aStats,
		ProfileBStats:  *bStats,
		Winner:         winner,
		Recommendation: recommendation,
		Final:          test.Status.IsTerminal(),
	}, nil
}

// variantStats aggregates one variant's events within the test window.
// Profile metadata degrades to a bare id when the profile row is gone.
func (ev *Evaluator) variantStats(ctx context.Context, test *domain.ABTest, profileID, until int64) (*domain.ProfileStats, error) {
	profile, err := ev.profiles.GetByID(ctx, profileID)
	if err != nil {
		ev.logger.Printf("profile %d metadata unavailable: %v", profileID, err)
		profile = &domain.Profile{ProfileID: profileID}
	}

	events, err := ev.events.Query(ctx, storage.EventFilter{
		AccountID: test.DatingAccountID,
		ProfileID: &profileID,
		ABTestID:  &test.ABTestID,
		Since:     &test.StartDate,
		Until:     &until,
	})
	if err != nil {
		return nil, fmt.Errorf("query events for profile %d: %w", profileID, err)
	}

	rate := stats.ResolveMessageRate(ctx, ev.msgRates, profileID)
	return stats.ProfileStats(profile, stats.Aggregate(events), rate), nil
}

// decide applies the ordered decision rule.
func (ev *Evaluator) decide(test *domain.ABTest, a, b *domain.ProfileStats) (string, string) {
	floor := ev.thresholds.sampleFloor(test.SwipesPerProfile)

	if a.TotalSwipes < floor || b.TotalSwipes < floor {
		return domain.WinnerInconclusive, fmt.Sprintf(
			"Not enough data yet: %d and %d swipes collected of %d required per profile. Keep the test running.",
			a.TotalSwipes, b.TotalSwipes, floor,
		)
	}

	if diff := a.MatchRate - b.MatchRate; diff >= ev.thresholds.MatchRateMargin {
		return domain.WinnerA, switchRecommendation(a, b, "match rate", a.MatchRate, b.MatchRate)
	} else if -diff >= ev.thresholds.MatchRateMargin {
		return domain.WinnerB, switchRecommendation(b, a, "match rate", b.MatchRate, a.MatchRate)
	}

	if diff := a.AvgAIScore - b.AvgAIScore; diff >= ev.thresholds.AIScoreMargin {
		return domain.WinnerA, switchRecommendation(a, b, "average AI score", a.AvgAIScore, b.AvgAIScore)
	} else if -diff >= ev.thresholds.AIScoreMargin {
		return domain.WinnerB, switchRecommendation(b, a, "average AI score", b.AvgAIScore, a.AvgAIScore)
	}

	return domain.WinnerInconclusive,
		"No statistically meaningful difference between the variants. Keep the current profile or extend the test window."
}

// switchRecommendation names the stronger variant and the metric that
// separated them. Rates are 0-1; render as percent of the 0-100 scale.
func switchRecommendation(winner, loser *domain.ProfileStats, metric string, winnerVal, loserVal float64) string {
	name := winner.ProfileName
	if name == "" {
		name = fmt.Sprintf("profile %d", winner.ProfileID)
	}
	return fmt.Sprintf(
		"%s leads on %s (%.1f%% vs %.1f%%). Switch to profile %d.",
		name, metric, winnerVal*100, loserVal*100, winner.ProfileID,
	)
}
