package stats

import (
	"context"
	"errors"
	"testing"
)

type failingRates struct{}

func (failingRates) MessageResponseRate(context.Context, int64) (float64, error) {
	return 0.9, errors.New("messaging backend unavailable")
}

func TestResolveMessageRate(t *testing.T) {
	ctx := context.Background()
	src := StaticMessageRates{10: 0.42}

	if got := ResolveMessageRate(ctx, src, 10); got != 0.42 {
		t.Errorf("known profile = %f, want 0.42", got)
	}
	if got := ResolveMessageRate(ctx, src, 99); got != 0 {
		t.Errorf("unknown profile = %f, want 0", got)
	}
	if got := ResolveMessageRate(ctx, nil, 10); got != 0 {
		t.Errorf("nil source = %f, want 0", got)
	}
	if got := ResolveMessageRate(ctx, failingRates{}, 10); got != 0 {
		t.Errorf("failing source = %f, want 0", got)
	}
}
