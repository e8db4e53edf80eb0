package stats

import "context"

// MessageRateSource supplies the message response rate for a profile.
// The messaging system is an external collaborator; consumers degrade
// to 0 when the source is nil or returns an error.
type MessageRateSource interface {
	MessageResponseRate(ctx context.Context, profileID int64) (float64, error)
}

// StaticMessageRates is a fixed in-memory MessageRateSource, used in
// memory mode and tests. Missing profiles read as 0.
type StaticMessageRates map[int64]float64

// MessageResponseRate returns the configured rate for a profile.
func (m StaticMessageRates) MessageResponseRate(_ context.Context, profileID int64) (float64, error) {
	return m[profileID], nil
}

// ResolveMessageRate reads from src with nil and error degradation.
func ResolveMessageRate(ctx context.Context, src MessageRateSource, profileID int64) float64 {
	if src == nil {
		return 0
	}
	rate, err := src.MessageResponseRate(ctx, profileID)
	if err != nil {
		return 0
	}
	return rate
}
