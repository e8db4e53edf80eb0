// Package verification cross-checks the Postgres swipe ledger against
// the ClickHouse archive. The archive mirrors every accepted event; a
// count divergence over the same half-open window means events were
// lost on one side and the window should be re-archived.
package verification

import (
	"context"
	"fmt"
	"log"

	"swipe-analytics-lab/internal/storage"
)

// AccountResult is the outcome of verifying one account's window.
type AccountResult struct {
	DatingAccountID int64
	LedgerCount     int64 // events in the Postgres ledger
	ArchiveCount    int64 // distinct events in the ClickHouse archive
	Match           bool
}

// Report contains results for batch verification.
type Report struct {
	AccountsChecked   int
	MatchedAccounts   int
	DivergentAccounts int
	Results           []AccountResult
}

// Verifier compares ledger and archive event counts per account.
type Verifier struct {
	events   storage.SwipeEventStore
	archive  storage.SwipeArchiveStore
	profiles storage.ProfileStore
	logger   *log.Logger
}

// NewVerifier creates a new Verifier.
func NewVerifier(
	events storage.SwipeEventStore,
	archive storage.SwipeArchiveStore,
	profiles storage.ProfileStore,
	logger *log.Logger,
) *Verifier {
	if logger == nil {
		logger = log.Default()
	}
	return &Verifier{
		events:   events,
		archive:  archive,
		profiles: profiles,
		logger:   logger,
	}
}

// VerifyAccount compares ledger and archive counts for one account over
// the half-open window [since, until).
func (v *Verifier) VerifyAccount(ctx context.Context, accountID, since, until int64) (*AccountResult, error) {
	ledger, err := v.events.Count(ctx, storage.EventFilter{
		AccountID: accountID,
		Since:     &since,
		Until:     &until,
	})
	if err != nil {
		return nil, fmt.Errorf("count ledger events for account %d: %w", accountID, err)
	}

	archived, err := v.archive.CountByAccount(ctx, accountID, since, until)
	if err != nil {
		return nil, fmt.Errorf("count archived events for account %d: %w", accountID, err)
	}

	return &AccountResult{
		DatingAccountID: accountID,
		LedgerCount:     ledger,
		ArchiveCount:    archived,
		Match:           ledger == archived,
	}, nil
}

// VerifyAll verifies every account that owns a profile.
func (v *Verifier) VerifyAll(ctx context.Context, since, until int64) (*Report, error) {
	accountIDs, err := v.profiles.ListAccountIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}

	report := &Report{}
	for _, accountID := range accountIDs {
		result, err := v.VerifyAccount(ctx, accountID, since, until)
		if err != nil {
			return nil, err
		}

		report.AccountsChecked++
		if result.Match {
			report.MatchedAccounts++
		} else {
			report.DivergentAccounts++
			v.logger.Printf("Account %d diverges: ledger=%d archive=%d",
				accountID, result.LedgerCount, result.ArchiveCount)
		}
		report.Results = append(report.Results, *result)
	}

	return report, nil
}
