package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"swipe-analytics-lab/internal/domain"
)

// ComputeEventID computes a deterministic event_id using SHA256.
// Formula: SHA256(account|profile|ab_test|target_name|direction|swiped_at)
// Returns hex-encoded hash (64 characters). Replaying the same swipe
// fact always yields the same id, so the store's primary key absorbs
// duplicates instead of double-counting them.
func ComputeEventID(
	accountID int64,
	profileID *int64,
	abTestID *int64,
	targetName string,
	direction domain.Direction,
	swipedAt int64,
) string {
	profileStr := ""
	if profileID != nil {
		profileStr = fmt.Sprintf("%d", *profileID)
	}
	abTestStr := ""
	if abTestID != nil {
		abTestStr = fmt.Sprintf("%d", *abTestID)
	}

	data := fmt.Sprintf("%d|%s|%s|%s|%s|%d",
		accountID,
		profileStr,
		abTestStr,
		targetName,
		string(direction),
		swipedAt,
	)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
