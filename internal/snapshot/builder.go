// Package snapshot materializes time-bucketed analytics rollups.
//
// Buckets are account-local: a daily bucket runs midnight to midnight
// and a weekly bucket Monday to Monday in the account's timezone, held
// as half-open [start, end) ranges in unix milliseconds. Finalization
// recomputes the bucket from the ledger and upserts, so replaying a
// bucket is idempotent and out-of-order catch-up is safe.
package snapshot

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"swipe-analytics-lab/internal/domain"
	"swipe-analytics-lab/internal/stats"
	"swipe-analytics-lab/internal/storage"
)

// ErrBucketNotClosed is returned when finalization is requested for a
// bucket whose end is still in the future.
var ErrBucketNotClosed = errors.New("snapshot: bucket has not fully elapsed")

// TimezoneSource resolves an account's local timezone for bucket
// boundary computation.
type TimezoneSource interface {
	Location(accountID int64) *time.Location
}

// StaticTimezones is a fixed TimezoneSource. Unknown accounts fall back
// to UTC.
type StaticTimezones map[int64]*time.Location

// Location returns the configured location for an account.
func (s StaticTimezones) Location(accountID int64) *time.Location {
	if loc, ok := s[accountID]; ok {
		return loc
	}
	return time.UTC
}

// Builder materializes snapshots from the swipe ledger.
type Builder struct {
	events   storage.SwipeEventStore
	snaps    storage.SnapshotStore
	profiles storage.ProfileStore
	tz       TimezoneSource
	logger   *log.Logger

	nowFn func() int64
}

// NewBuilder creates a new Builder. tz may be nil; all buckets are then
// UTC-aligned.
func NewBuilder(
	events storage.SwipeEventStore,
	snaps storage.SnapshotStore,
	profiles storage.ProfileStore,
	tz TimezoneSource,
	logger *log.Logger,
) *Builder {
	if tz == nil {
		tz = StaticTimezones{}
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Builder{
		events:   events,
		snaps:    snaps,
		profiles: profiles,
		tz:       tz,
		logger:   logger,
		nowFn:    func() int64 { return time.Now().UnixMilli() },
	}
}

// BucketBounds returns the half-open [start, end) bucket containing ts
// for an account, in that account's timezone.
func (b *Builder) BucketBounds(accountID, ts int64, g domain.Granularity) (int64, int64) {
	return bucketBounds(ts, g, b.tz.Location(accountID))
}

func bucketBounds(ts int64, g domain.Granularity, loc *time.Location) (int64, int64) {
	t := time.UnixMilli(ts).In(loc)
	midnight := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)

	switch g {
	case domain.GranularityWeekly:
		// Weeks start on Monday.
		back := (int(midnight.Weekday()) + 6) % 7
		monday := midnight.AddDate(0, 0, -back)
		return monday.UnixMilli(), monday.AddDate(0, 0, 7).UnixMilli()
	default:
		return midnight.UnixMilli(), midnight.AddDate(0, 0, 1).UnixMilli()
	}
}

// build aggregates one bucket's events into a snapshot row.
func (b *Builder) build(ctx context.Context, accountID int64, profileID, abTestID *int64, g domain.Granularity, bucketStart, bucketEnd int64, final bool) (*domain.AnalyticsSnapshot, error) {
	events, err := b.events.Query(ctx, storage.EventFilter{
		AccountID: accountID,
		ProfileID: profileID,
		ABTestID:  abTestID,
		Since:     &bucketStart,
		Until:     &bucketEnd,
	})
	if err != nil {
		return nil, fmt.Errorf("query bucket events: %w", err)
	}

	s := stats.Aggregate(events).Stats()
	return &domain.AnalyticsSnapshot{
		DatingAccountID: accountID,
		ProfileID:       profileID,
		ABTestID:        abTestID,
		Granularity:     g,
		BucketStart:     bucketStart,
		BucketEnd:       bucketEnd,
		TotalSwipes:     s.TotalSwipes,
		RightSwipes:     s.RightSwipes,
		LeftSwipes:      s.LeftSwipes,
		SuperSwipes:     s.SuperSwipes,
		MatchesCount:    s.MatchesCount,
		MatchRate:       s.MatchRate,
		AvgAIScore:      s.AvgAIScore,
		Final:           final,
		CreatedAt:       b.nowFn(),
	}, nil
}

// Preview computes the snapshot of the bucket containing ts without
// persisting it. The row is marked non-final.
func (b *Builder) Preview(ctx context.Context, accountID int64, profileID, abTestID *int64, g domain.Granularity, ts int64) (*domain.AnalyticsSnapshot, error) {
	if !g.IsValid() {
		return nil, storage.ErrInvalidInput
	}
	start, end := b.BucketBounds(accountID, ts, g)
	return b.build(ctx, accountID, profileID, abTestID, g, start, end, false)
}

// Finalize materializes and persists the bucket containing ts. The
// bucket must have fully elapsed; re-finalizing overwrites with the
// same values.
func (b *Builder) Finalize(ctx context.Context, accountID int64, profileID, abTestID *int64, g domain.Granularity, ts int64) (*domain.AnalyticsSnapshot, error) {
	if !g.IsValid() {
		return nil, storage.ErrInvalidInput
	}

	start, end := b.BucketBounds(accountID, ts, g)
	if end > b.nowFn() {
		return nil, fmt.Errorf("finalize bucket [%d, %d): %w", start, end, ErrBucketNotClosed)
	}

	snap, err := b.build(ctx, accountID, profileID, abTestID, g, start, end, true)
	if err != nil {
		return nil, err
	}
	if err := b.snaps.Upsert(ctx, snap); err != nil {
		return nil, fmt.Errorf("persist snapshot: %w", err)
	}
	return snap, nil
}

// CatchUp finalizes every closed bucket from `since` forward: the
// account-level rollup plus one row per active profile. Buckets can be
// replayed in any order; a re-run overwrites identical rows. Returns
// the number of rows written.
func (b *Builder) CatchUp(ctx context.Context, accountID int64, g domain.Granularity, since int64) (int, error) {
	if !g.IsValid() {
		return 0, storage.ErrInvalidInput
	}

	var profileIDs []*int64
	profileIDs = append(profileIDs, nil)
	if b.profiles != nil {
		active, err := b.profiles.GetActiveByAccount(ctx, accountID)
		if err != nil {
			return 0, fmt.Errorf("list active profiles: %w", err)
		}
		for _, p := range active {
			id := p.ProfileID
			profileIDs = append(profileIDs, &id)
		}
	}

	now := b.nowFn()
	written := 0
	start, end := b.BucketBounds(accountID, since, g)
	for end <= now {
		for _, pid := range profileIDs {
			if _, err := b.Finalize(ctx, accountID, pid, nil, g, start); err != nil {
				return written, fmt.Errorf("catch up bucket at %d: %w", start, err)
			}
			written++
		}
		start, end = b.BucketBounds(accountID, end, g)
	}

	b.logger.Printf("caught up account %d: %d %s snapshot rows", accountID, written, g)
	return written, nil
}
