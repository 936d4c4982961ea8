package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/SscSPs/ledger_core/internal/apperrors"
	"github.com/SscSPs/ledger_core/internal/core/domain"
	portsrepo "github.com/SscSPs/ledger_core/internal/core/ports/repositories"
	"github.com/SscSPs/ledger_core/internal/middleware"
)

// LedgerPoster posts balanced entries inside a caller-owned transaction and assigns
// their entry numbers. It is shared by every service that writes to the ledger.
type LedgerPoster struct {
	format     domain.EntryNumberFormat
	maxRetries int
}

// NewLedgerPoster creates a poster numbering entries in format. maxRetries bounds how
// often a posting transaction is re-run after an entry number conflict.
func NewLedgerPoster(format domain.EntryNumberFormat, maxRetries int) *LedgerPoster {
	if format.Width < 1 {
		format = domain.DefaultEntryNumberFormat
	}
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &LedgerPoster{format: format, maxRetries: maxRetries}
}

// NextNumber previews the number the next auto-numbered entry would receive. The
// value is not reserved.
func (p *LedgerPoster) NextNumber(ctx context.Context, repo portsrepo.NumberingRepository) (string, error) {
	maxSeq, err := repo.MaxSequence(ctx, p.format.Prefix)
	if err != nil {
		return "", fmt.Errorf("failed to read entry number sequence: %w", err)
	}
	return p.format.Next(maxSeq)
}

// checkManualNumber rejects caller chosen numbers that would disturb auto numbering.
func (p *LedgerPoster) checkManualNumber(number string) error {
	if reason := p.format.CheckManual(number); reason != "" {
		return apperrors.InvalidEntryNumberError{EntryNumber: number, Reason: reason}
	}
	return nil
}

// assignNumber takes the numbering lock for the rest of the transaction and returns
// the number following the current maximum.
func (p *LedgerPoster) assignNumber(ctx context.Context, repo portsrepo.NumberingRepository) (string, error) {
	if err := repo.LockSequence(ctx); err != nil {
		return "", fmt.Errorf("failed to lock entry number sequence: %w", err)
	}
	return p.NextNumber(ctx, repo)
}

// WithNumberingRetry runs fn, re-running it while it fails with a numbering conflict
// on an auto-assigned number. fn must run a whole transaction so every attempt starts
// from committed state. A conflict on a caller-supplied number is returned at once;
// exhausted retries return the conflict with Attempts set.
func (p *LedgerPoster) WithNumberingRetry(ctx context.Context, autoAssigned bool, fn func() error) error {
	attempts := 1
	if autoAssigned {
		attempts += p.maxRetries
	}

	for attempt := 1; ; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}

		var conflict apperrors.NumberingConflictError
		if !errors.As(err, &conflict) || !autoAssigned {
			return err
		}
		if attempt >= attempts {
			conflict.Attempts = attempt
			return conflict
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		middleware.GetLoggerFromCtx(ctx).Warn("Entry number conflict, retrying posting",
			slog.String("entry_number", conflict.EntryNumber),
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", attempts))
	}
}
