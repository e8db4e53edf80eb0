package ingestion

import (
	"context"

	"swipe-analytics-lab/internal/domain"
)

// EventSource provides a live stream of swipe events. The channel is
// closed when the context is cancelled.
type EventSource interface {
	Subscribe(ctx context.Context) (<-chan *domain.SwipeEvent, error)
}
