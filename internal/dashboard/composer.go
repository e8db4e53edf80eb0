// Package dashboard composes per-account analytics summaries.
//
// A composition is read-only and best-effort: every field is computed
// independently and degrades to its zero value when its sub-query
// fails, so one broken collaborator never blanks the whole dashboard.
// When the context deadline cuts a scan short the result is returned
// with Partial set instead of an error.
package dashboard

import (
	"context"
	"errors"
	"log"

	"swipe-analytics-lab/internal/domain"
	"swipe-analytics-lab/internal/stats"
	"swipe-analytics-lab/internal/storage"
)

const (
	recentSwipesLimit = 10
	weeklyTrendLimit  = 8
)

// Composer assembles DashboardStats from the stores.
type Composer struct {
	events   storage.SwipeEventStore
	profiles storage.ProfileStore
	tests    storage.ABTestStore
	snaps    storage.SnapshotStore
	msgRates stats.MessageRateSource
	logger   *log.Logger
}

// NewComposer creates a new Composer. msgRates may be nil.
func NewComposer(
	events storage.SwipeEventStore,
	profiles storage.ProfileStore,
	tests storage.ABTestStore,
	snaps storage.SnapshotStore,
	msgRates stats.MessageRateSource,
	logger *log.Logger,
) *Composer {
	if logger == nil {
		logger = log.Default()
	}
	return &Composer{
		events:   events,
		profiles: profiles,
		tests:    tests,
		snaps:    snaps,
		msgRates: msgRates,
		logger:   logger,
	}
}

// Compose builds the dashboard for one account. An account with no
// events yields all-zero statistics, not an error.
func (c *Composer) Compose(ctx context.Context, accountID int64) (*domain.DashboardStats, error) {
	if accountID == 0 {
		return nil, storage.ErrInvalidInput
	}

	d := &domain.DashboardStats{DatingAccountID: accountID}

	// Lifetime totals.
	lifetime, err := c.events.Query(ctx, storage.EventFilter{AccountID: accountID})
	if c.degrade(d, "lifetime totals", err) {
		return d, nil
	}
	if err == nil {
		s := stats.Aggregate(lifetime).Stats()
		d.TotalSwipes = s.TotalSwipes
		d.TotalMatches = s.MatchesCount
		d.MatchRate = s.MatchRate
	}

	// Active profiles drive the count, the top-profile ranking and the
	// account message response rate.
	active, err := c.profiles.GetActiveByAccount(ctx, accountID)
	if c.degrade(d, "active profiles", err) {
		return d, nil
	}
	if err == nil {
		d.ActiveProfiles = len(active)
		d.MessageResponseRate = c.accountMessageRate(ctx, active)

		top, err := c.topProfile(ctx, accountID, active)
		if c.degrade(d, "top profile", err) {
			return d, nil
		}
		if err == nil {
			d.TopPerformingProfile = top
		}
	}

	running, err := c.tests.GetRunningByAccount(ctx, accountID)
	if c.degrade(d, "running tests", err) {
		return d, nil
	}
	if err == nil {
		d.ActiveABTests = len(running)
	}

	recent, err := c.events.GetRecent(ctx, accountID, recentSwipesLimit)
	if c.degrade(d, "recent swipes", err) {
		return d, nil
	}
	if err == nil {
		d.RecentSwipes = recent
	}

	trend, err := c.snaps.GetRecent(ctx, accountID, domain.GranularityWeekly, weeklyTrendLimit)
	if c.degrade(d, "weekly trend", err) {
		return d, nil
	}
	if err == nil {
		d.WeeklyTrend = trend
	}

	return d, nil
}

// degrade logs a sub-failure and reports whether composition should
// stop with a partial result. Deadline and cancellation errors end the
// scan; anything else only zeroes the one field.
func (c *Composer) degrade(d *domain.DashboardStats, field string, err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		c.logger.Printf("dashboard for account %d truncated at %s: %v", d.DatingAccountID, field, err)
		d.Partial = true
		return true
	}
	c.logger.Printf("dashboard for account %d: %s unavailable: %v", d.DatingAccountID, field, err)
	return false
}

// topProfile ranks active profiles by match rate, then average AI
// score, then lower profile id. Profiles without events are skipped.
func (c *Composer) topProfile(ctx context.Context, accountID int64, active []*domain.Profile) (*domain.ProfileStats, error) {
	var best *domain.ProfileStats
	for _, p := range active {
		profileID := p.ProfileID
		events, err := c.events.Query(ctx, storage.EventFilter{
			AccountID: accountID,
			ProfileID: &profileID,
		})
		if err != nil {
			return nil, err
		}
		if len(events) == 0 {
			continue
		}

		rate := stats.ResolveMessageRate(ctx, c.msgRates, profileID)
		ps := stats.ProfileStats(p, stats.Aggregate(events), rate)
		if best == nil || ranksAbove(ps, best) {
			best = ps
		}
	}
	return best, nil
}

func ranksAbove(a, b *domain.ProfileStats) bool {
	if a.MatchRate != b.MatchRate {
		return a.MatchRate > b.MatchRate
	}
	if a.AvgAIScore != b.AvgAIScore {
		return a.AvgAIScore > b.AvgAIScore
	}
	return a.ProfileID < b.ProfileID
}

// accountMessageRate averages the active profiles' message response
// rates; 0 when there are none.
func (c *Composer) accountMessageRate(ctx context.Context, active []*domain.Profile) float64 {
	if len(active) == 0 {
		return 0
	}
	var sum float64
	for _, p := range active {
		sum += stats.ResolveMessageRate(ctx, c.msgRates, p.ProfileID)
	}
	return sum / float64(len(active))
}
