package pgsql

import (
	"context"
	"fmt"
	"regexp"

	"github.com/SscSPs/ledger_core/internal/core/domain"
	portsrepo "github.com/SscSPs/ledger_core/internal/core/ports/repositories"
)

// numberingLockKey names the advisory lock serializing entry number assignment.
const numberingLockKey = "journal_entry_number"

// PgxNumberingRepository derives the next sequence value from issued entry numbers.
type PgxNumberingRepository struct {
	BaseRepository
}

func newPgxNumberingRepository(db Querier) *PgxNumberingRepository {
	return &PgxNumberingRepository{BaseRepository: BaseRepository{db: db}}
}

var _ portsrepo.NumberingRepository = (*PgxNumberingRepository)(nil)

// LockSequence takes a transaction scoped advisory lock, released on commit or rollback.
func (r *PgxNumberingRepository) LockSequence(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1));`, numberingLockKey); err != nil {
		return fmt.Errorf("failed to lock entry numbering: %w", err)
	}
	return nil
}

// MaxSequence considers only numbers made of prefix followed by at most
// domain.MaxSequenceDigits digits, so the cast cannot overflow.
func (r *PgxNumberingRepository) MaxSequence(ctx context.Context, prefix string) (int64, error) {
	query := `
		SELECT COALESCE(MAX(CAST(SUBSTRING(entry_number FROM $2) AS BIGINT)), 0)
		FROM journal_entries
		WHERE entry_number ~ $1;
	`
	pattern := fmt.Sprintf("^%s[0-9]{1,%d}$", regexp.QuoteMeta(prefix), domain.MaxSequenceDigits)
	var maxSeq int64
	if err := r.db.QueryRow(ctx, query, pattern, len(prefix)+1).Scan(&maxSeq); err != nil {
		return 0, fmt.Errorf("failed to read highest entry number for prefix %q: %w", prefix, err)
	}
	return maxSeq, nil
}
