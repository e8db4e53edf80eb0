package ingestion

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/gorilla/websocket"

	"swipe-analytics-lab/internal/domain"
	"swipe-analytics-lab/internal/observability"
)

const (
	wsBaseRetryDelay = 500 * time.Millisecond
	wsMaxRetryDelay  = 30 * time.Second
)

// WireEvent is the JSON frame pushed per swipe by the automation
// bridge feed and accepted by the HTTP ingest endpoint.
type WireEvent struct {
	EventID         string   `json:"event_id,omitempty"`
	DatingAccountID int64    `json:"dating_account_id"`
	ProfileID       *int64   `json:"profile_id,omitempty"`
	ABTestID        *int64   `json:"ab_test_id,omitempty"`
	TargetName      string   `json:"target_name"`
	TargetAge       int      `json:"target_age"`
	TargetBio       string   `json:"target_bio"`
	TargetDistance  int      `json:"target_distance"`
	Direction       string   `json:"direction"`
	IsMatch         bool     `json:"is_match"`
	AIScore         *float64 `json:"ai_score,omitempty"`
	DecisionReason  string   `json:"decision_reason"`
	SwipedAt        int64    `json:"swiped_at"`
}

// ToDomain converts the wire frame to a domain event.
func (w *WireEvent) ToDomain() *domain.SwipeEvent {
	return &domain.SwipeEvent{
		EventID:         w.EventID,
		DatingAccountID: w.DatingAccountID,
		ProfileID:       w.ProfileID,
		ABTestID:        w.ABTestID,
		TargetName:      w.TargetName,
		TargetAge:       w.TargetAge,
		TargetBio:       w.TargetBio,
		TargetDistance:  w.TargetDistance,
		Direction:       domain.Direction(w.Direction),
		IsMatch:         w.IsMatch,
		AIScore:         w.AIScore,
		DecisionReason:  w.DecisionReason,
		SwipedAt:        w.SwipedAt,
	}
}

// WSEventSource subscribes to the automation bridge's WebSocket feed of
// live swipe events. Dropped connections reconnect with exponential
// backoff until the context ends.
type WSEventSource struct {
	url    string
	dialer *websocket.Dialer
	logger *log.Logger
}

// NewWSEventSource creates a new WebSocket event source.
func NewWSEventSource(url string, logger *log.Logger) *WSEventSource {
	if logger == nil {
		logger = log.Default()
	}
	return &WSEventSource{
		url:    url,
		dialer: websocket.DefaultDialer,
		logger: logger,
	}
}

// Compile-time interface check.
var _ EventSource = (*WSEventSource)(nil)

// Subscribe connects to the feed and returns a channel of events. The
// first connection attempt is synchronous so configuration errors
// surface immediately; later reconnects happen in the background.
func (s *WSEventSource) Subscribe(ctx context.Context) (<-chan *domain.SwipeEvent, error) {
	conn, _, err := s.dialer.DialContext(ctx, s.url, nil)
	if err != nil {
		return nil, err
	}
	s.logger.Printf("connected to feed %s", s.url)

	eventsCh := make(chan *domain.SwipeEvent, 100)

	go func() {
		defer close(eventsCh)
		defer conn.Close()

		delay := wsBaseRetryDelay
		for {
			err := s.readLoop(ctx, conn, eventsCh)
			if ctx.Err() != nil {
				return
			}
			s.logger.Printf("feed connection lost: %v, reconnecting in %v", err, delay)
			observability.DefaultMetrics.FeedReconnects.Inc()

			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return
			}
			if delay *= 2; delay > wsMaxRetryDelay {
				delay = wsMaxRetryDelay
			}

			next, _, err := s.dialer.DialContext(ctx, s.url, nil)
			if err != nil {
				continue
			}
			conn.Close()
			conn = next
			delay = wsBaseRetryDelay
			s.logger.Printf("reconnected to feed %s", s.url)
		}
	}()

	return eventsCh, nil
}

// readLoop decodes frames until the connection or context dies. Frames
// that don't parse are skipped; validation happens downstream.
func (s *WSEventSource) readLoop(ctx context.Context, conn *websocket.Conn, eventsCh chan<- *domain.SwipeEvent) error {
	for {
		var frame WireEvent
		if err := conn.ReadJSON(&frame); err != nil {
			var syntaxErr *json.SyntaxError
			var typeErr *json.UnmarshalTypeError
			if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
				// Malformed frame on a healthy connection.
				s.logger.Printf("skipping malformed frame: %v", err)
				continue
			}
			return err
		}

		select {
		case eventsCh <- frame.ToDomain():
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
