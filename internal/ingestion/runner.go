package ingestion

import (
	"context"
	"fmt"
	"log"
	"time"

	"swipe-analytics-lab/internal/domain"
)

const (
	defaultBatchSize     = 100
	defaultFlushInterval = 2 * time.Second
)

// Runner consumes a live event source and feeds the ingestor in
// batches, flushing on size or on an interval so a quiet feed still
// lands its events promptly.
type Runner struct {
	source   EventSource
	ingestor *Ingestor
	logger   *log.Logger

	batchSize     int
	flushInterval time.Duration
}

// NewRunner creates a new Runner with default batching.
func NewRunner(source EventSource, ingestor *Ingestor, logger *log.Logger) *Runner {
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		source:        source,
		ingestor:      ingestor,
		logger:        logger,
		batchSize:     defaultBatchSize,
		flushInterval: defaultFlushInterval,
	}
}

// Run consumes the source until the context ends. Returns nil on
// context cancellation, an error if the subscription cannot start.
func (r *Runner) Run(ctx context.Context) error {
	eventsCh, err := r.source.Subscribe(ctx)
	if err != nil {
		return fmt.Errorf("subscribe to event source: %w", err)
	}

	ticker := time.NewTicker(r.flushInterval)
	defer ticker.Stop()

	batch := make([]*domain.SwipeEvent, 0, r.batchSize)
	flush := func() {
		if len(batch) == 0 {
			return
		}
		res, err := r.ingestor.IngestBatch(ctx, batch)
		if err != nil {
			r.logger.Printf("batch ingest failed after %d accepted: %v", res.Accepted, err)
		} else if res.Rejected > 0 || res.Duplicates > 0 {
			r.logger.Printf("batch %s: %d accepted, %d duplicates, %d rejected",
				res.BatchID, res.Accepted, res.Duplicates, res.Rejected)
		}
		batch = batch[:0]
	}

	for {
		select {
		case <-ctx.Done():
			flush()
			return nil
		case <-ticker.C:
			flush()
		case e, ok := <-eventsCh:
			if !ok {
				flush()
				return nil
			}
			batch = append(batch, e)
			if len(batch) >= r.batchSize {
				flush()
			}
		}
	}
}
