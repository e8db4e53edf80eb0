package ingestion

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"swipe-analytics-lab/internal/domain"
	"swipe-analytics-lab/internal/idhash"
	"swipe-analytics-lab/internal/observability"
	"swipe-analytics-lab/internal/storage"
)

// BatchResult summarizes one batch ingest.
type BatchResult struct {
	Accepted   int
	Duplicates int
	Rejected   int
	BatchID    string // archive correlation id, set when archiving ran
}

// Ingestor validates events, assigns deterministic ids and writes them
// to the ledger, mirroring accepted events into the archive when one is
// configured. Archive writes are best-effort: an archive failure is
// logged and counted but never fails the ingest.
type Ingestor struct {
	events  storage.SwipeEventStore
	archive storage.SwipeArchiveStore // optional
	logger  *log.Logger

	nowFn func() int64
}

// NewIngestor creates a new Ingestor. archive may be nil.
func NewIngestor(events storage.SwipeEventStore, archive storage.SwipeArchiveStore, logger *log.Logger) *Ingestor {
	if logger == nil {
		logger = log.Default()
	}
	return &Ingestor{
		events:  events,
		archive: archive,
		logger:  logger,
		nowFn:   func() int64 { return time.Now().UnixMilli() },
	}
}

// prepare validates an event and fills the derived fields in place.
func (in *Ingestor) prepare(e *domain.SwipeEvent) error {
	if err := ValidateEvent(e); err != nil {
		observability.RecordRejected("invalid")
		return err
	}
	if e.EventID == "" {
		e.EventID = idhash.ComputeEventID(
			e.DatingAccountID, e.ProfileID, e.ABTestID,
			e.TargetName, e.Direction, e.SwipedAt,
		)
	}
	if e.CreatedAt == 0 {
		e.CreatedAt = in.nowFn()
	}
	return nil
}

// Ingest validates and stores a single event. A replayed fact returns
// storage.ErrDuplicateKey and stores nothing new.
func (in *Ingestor) Ingest(ctx context.Context, e *domain.SwipeEvent) error {
	start := time.Now()
	if err := in.prepare(e); err != nil {
		return err
	}

	if err := in.events.Insert(ctx, e); err != nil {
		if errors.Is(err, storage.ErrDuplicateKey) {
			observability.RecordDuplicate()
			return err
		}
		return fmt.Errorf("store event %s: %w", e.EventID, err)
	}

	observability.RecordIngested(float64(in.nowFn()) / 1000)
	observability.DefaultMetrics.IngestLatency.Observe(time.Since(start).Seconds())

	in.archiveEvents(ctx, uuid.NewString(), []*domain.SwipeEvent{e})
	return nil
}

// IngestBatch validates and stores a batch. Invalid events and replays
// are skipped individually; the rest land. The whole batch shares one
// archive correlation id.
func (in *Ingestor) IngestBatch(ctx context.Context, events []*domain.SwipeEvent) (BatchResult, error) {
	res := BatchResult{BatchID: uuid.NewString()}

	var accepted []*domain.SwipeEvent
	for _, e := range events {
		if err := in.prepare(e); err != nil {
			res.Rejected++
			in.logger.Printf("rejected event: %v", err)
			continue
		}

		if err := in.events.Insert(ctx, e); err != nil {
			if errors.Is(err, storage.ErrDuplicateKey) {
				res.Duplicates++
				observability.RecordDuplicate()
				continue
			}
			return res, fmt.Errorf("store event %s: %w", e.EventID, err)
		}
		res.Accepted++
		accepted = append(accepted, e)
	}

	if res.Accepted > 0 {
		observability.DefaultMetrics.EventsIngested.Add(float64(res.Accepted))
		observability.DefaultMetrics.LastSuccessfulIngest.Set(float64(in.nowFn()) / 1000)
		in.archiveEvents(ctx, res.BatchID, accepted)
	}
	return res, nil
}

// archiveEvents mirrors accepted events into the archive.
func (in *Ingestor) archiveEvents(ctx context.Context, batchID string, events []*domain.SwipeEvent) {
	if in.archive == nil || len(events) == 0 {
		return
	}
	if err := in.archive.ArchiveBulk(ctx, batchID, events); err != nil {
		in.logger.Printf("archive batch %s (%d events) failed: %v", batchID, len(events), err)
		return
	}
	observability.DefaultMetrics.EventsArchived.Add(float64(len(events)))
}
