// Package ingestion validates and stores swipe events arriving from
// the automation bridge, in single calls or batches, and mirrors
// accepted events into the archive.
package ingestion

import (
	"errors"
	"fmt"

	"swipe-analytics-lab/internal/domain"
)

// ErrInvalidEvent is returned for events that fail validation. Nothing
// from an invalid event is stored.
var ErrInvalidEvent = errors.New("ingestion: invalid swipe event")

// ValidateEvent checks the structural invariants of an incoming event.
func ValidateEvent(e *domain.SwipeEvent) error {
	if e == nil {
		return fmt.Errorf("nil event: %w", ErrInvalidEvent)
	}
	if e.DatingAccountID == 0 {
		return fmt.Errorf("missing dating_account_id: %w", ErrInvalidEvent)
	}
	if !e.Direction.IsValid() {
		return fmt.Errorf("unknown direction %q: %w", e.Direction, ErrInvalidEvent)
	}
	// A left swipe cannot produce a match.
	if e.Direction == domain.DirectionLeft && e.IsMatch {
		return fmt.Errorf("left swipe marked as match: %w", ErrInvalidEvent)
	}
	if e.AIScore != nil && (*e.AIScore < 0 || *e.AIScore > 1) {
		return fmt.Errorf("ai_score %f outside [0,1]: %w", *e.AIScore, ErrInvalidEvent)
	}
	if e.SwipedAt <= 0 {
		return fmt.Errorf("missing swiped_at: %w", ErrInvalidEvent)
	}
	return nil
}
