package pgsql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/SscSPs/ledger_core/internal/apperrors"
	"github.com/SscSPs/ledger_core/internal/core/domain"
	portsrepo "github.com/SscSPs/ledger_core/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5"
)

// entryNumberConstraint is the unique constraint on journal_entries.entry_number.
const entryNumberConstraint = "journal_entries_entry_number_key"

const entryColumns = `entry_id, entry_number, entry_date, description, total_debit, total_credit,
		is_reversed, reversal_of_entry_id, created_at, created_by, last_updated_at, last_updated_by`

const itemColumns = `item_id, entry_id, account_id, debit, credit, memo, line_no`

type PgxJournalRepository struct {
	BaseRepository
}

func newPgxJournalRepository(db Querier) *PgxJournalRepository {
	return &PgxJournalRepository{BaseRepository: BaseRepository{db: db}}
}

var _ portsrepo.JournalRepositoryFacade = (*PgxJournalRepository)(nil)

func scanEntry(row pgx.Row) (domain.JournalEntry, error) {
	var e domain.JournalEntry
	var reversalOf sql.NullString
	err := row.Scan(
		&e.EntryID,
		&e.EntryNumber,
		&e.EntryDate,
		&e.Description,
		&e.TotalDebit,
		&e.TotalCredit,
		&e.IsReversed,
		&reversalOf,
		&e.CreatedAt,
		&e.CreatedBy,
		&e.LastUpdatedAt,
		&e.LastUpdatedBy,
	)
	if reversalOf.Valid {
		e.ReversalOfEntryID = &reversalOf.String
	}
	return e, err
}

// SaveEntry inserts the entry header and its items. Losing the race for an entry
// number surfaces as apperrors.NumberingConflictError.
func (r *PgxJournalRepository) SaveEntry(ctx context.Context, entry domain.JournalEntry) error {
	query := `
		INSERT INTO journal_entries (` + entryColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12);
	`
	_, err := r.db.Exec(ctx, query,
		entry.EntryID,
		entry.EntryNumber,
		entry.EntryDate,
		entry.Description,
		entry.TotalDebit,
		entry.TotalCredit,
		entry.IsReversed,
		nullableString(entry.ReversalOfEntryID),
		entry.CreatedAt,
		entry.CreatedBy,
		entry.LastUpdatedAt,
		entry.LastUpdatedBy,
	)
	if err != nil {
		switch {
		case uniqueViolationOn(err, entryNumberConstraint):
			return apperrors.NumberingConflictError{EntryNumber: entry.EntryNumber}
		case uniqueViolationOn(err, ""):
			return fmt.Errorf("journal entry %s: %w", entry.EntryID, apperrors.ErrDuplicate)
		}
		return fmt.Errorf("failed to insert journal entry %s: %w", entry.EntryID, err)
	}
	return r.insertItems(ctx, entry.EntryID, entry.Items)
}

func (r *PgxJournalRepository) insertItems(ctx context.Context, entryID string, items []domain.JournalItem) error {
	query := `
		INSERT INTO journal_items (` + itemColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7);
	`
	for _, it := range items {
		if _, err := r.db.Exec(ctx, query, it.ItemID, entryID, it.AccountID, it.Debit, it.Credit, it.Memo, it.LineNo); err != nil {
			return fmt.Errorf("failed to insert line %d of journal entry %s: %w", it.LineNo, entryID, err)
		}
	}
	return nil
}

func (r *PgxJournalRepository) FindEntryByID(ctx context.Context, entryID string) (*domain.JournalEntry, error) {
	return r.findEntry(ctx, `SELECT `+entryColumns+` FROM journal_entries WHERE entry_id = $1;`, entryID)
}

func (r *PgxJournalRepository) FindEntryByIDForUpdate(ctx context.Context, entryID string) (*domain.JournalEntry, error) {
	return r.findEntry(ctx, `SELECT `+entryColumns+` FROM journal_entries WHERE entry_id = $1 FOR UPDATE;`, entryID)
}

func (r *PgxJournalRepository) findEntry(ctx context.Context, query, entryID string) (*domain.JournalEntry, error) {
	entry, err := scanEntry(r.db.QueryRow(ctx, query, entryID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("journal entry " + entryID)
		}
		return nil, fmt.Errorf("failed to find journal entry %s: %w", entryID, err)
	}

	items, err := r.loadItems(ctx, []string{entryID})
	if err != nil {
		return nil, err
	}
	entry.Items = items[entryID]
	return &entry, nil
}

// loadItems returns the items of the given entries keyed by entry id, in line order.
func (r *PgxJournalRepository) loadItems(ctx context.Context, entryIDs []string) (map[string][]domain.JournalItem, error) {
	query := `
		SELECT ` + itemColumns + `
		FROM journal_items
		WHERE entry_id = ANY($1)
		ORDER BY entry_id, line_no;
	`
	rows, err := r.db.Query(ctx, query, entryIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to query journal items: %w", err)
	}
	defer rows.Close()

	items := make(map[string][]domain.JournalItem, len(entryIDs))
	for rows.Next() {
		var it domain.JournalItem
		if err := rows.Scan(&it.ItemID, &it.EntryID, &it.AccountID, &it.Debit, &it.Credit, &it.Memo, &it.LineNo); err != nil {
			return nil, fmt.Errorf("failed to scan journal item row: %w", err)
		}
		items[it.EntryID] = append(items[it.EntryID], it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating journal item rows: %w", err)
	}
	return items, nil
}

// SearchEntries pages through entries ordered by date then number, newest first.
func (r *PgxJournalRepository) SearchEntries(ctx context.Context, filter domain.JournalSearchFilter) ([]domain.JournalEntry, error) {
	query, args := buildSearchQuery(filter)
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to search journal entries: %w", err)
	}
	defer rows.Close()

	entries := []domain.JournalEntry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan journal entry row: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating journal entry rows: %w", err)
	}
	if len(entries) == 0 {
		return entries, nil
	}

	ids := make([]string, len(entries))
	for i, e := range entries {
		ids[i] = e.EntryID
	}
	items, err := r.loadItems(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range entries {
		entries[i].Items = items[entries[i].EntryID]
	}
	return entries, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern matches v literally anywhere in a column.
func containsPattern(v string) string {
	return "%" + likeEscaper.Replace(v) + "%"
}

func buildSearchQuery(filter domain.JournalSearchFilter) (string, []interface{}) {
	var conds []string
	var args []interface{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if filter.NumberContains != "" {
		conds = append(conds, "entry_number ILIKE "+arg(containsPattern(filter.NumberContains))+` ESCAPE '\'`)
	}
	if filter.Description != "" {
		conds = append(conds, "description ILIKE "+arg(containsPattern(filter.Description))+` ESCAPE '\'`)
	}
	if filter.DateFrom != nil {
		conds = append(conds, "entry_date >= "+arg(*filter.DateFrom)+"::date")
	}
	if filter.DateTo != nil {
		conds = append(conds, "entry_date <= "+arg(*filter.DateTo)+"::date")
	}
	if filter.IsReversed != nil {
		conds = append(conds, "is_reversed = "+arg(*filter.IsReversed))
	}
	if filter.After != nil {
		date := arg(filter.After.EntryDate)
		number := arg(filter.After.EntryNumber)
		conds = append(conds, "(entry_date, entry_number) < ("+date+"::date, "+number+")")
	}

	var sb strings.Builder
	sb.WriteString("SELECT " + entryColumns + " FROM journal_entries")
	if len(conds) > 0 {
		sb.WriteString(" WHERE " + strings.Join(conds, " AND "))
	}
	sb.WriteString(" ORDER BY entry_date DESC, entry_number DESC")
	if filter.Limit > 0 {
		sb.WriteString(" LIMIT " + arg(filter.Limit))
	}
	return sb.String(), args
}

func (r *PgxJournalRepository) UpdateEntryHeader(ctx context.Context, entry domain.JournalEntry) error {
	query := `
		UPDATE journal_entries
		SET entry_date = $2, description = $3, total_debit = $4, total_credit = $5,
		    last_updated_at = $6, last_updated_by = $7
		WHERE entry_id = $1;
	`
	tag, err := r.db.Exec(ctx, query,
		entry.EntryID,
		entry.EntryDate,
		entry.Description,
		entry.TotalDebit,
		entry.TotalCredit,
		entry.LastUpdatedAt,
		entry.LastUpdatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to update journal entry %s: %w", entry.EntryID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NewNotFoundError("journal entry " + entry.EntryID)
	}
	return nil
}

func (r *PgxJournalRepository) ReplaceItems(ctx context.Context, entryID string, items []domain.JournalItem) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM journal_items WHERE entry_id = $1;`, entryID); err != nil {
		return fmt.Errorf("failed to delete items of journal entry %s: %w", entryID, err)
	}
	return r.insertItems(ctx, entryID, items)
}

func (r *PgxJournalRepository) DeleteEntry(ctx context.Context, entryID string) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM journal_items WHERE entry_id = $1;`, entryID); err != nil {
		return fmt.Errorf("failed to delete items of journal entry %s: %w", entryID, err)
	}
	tag, err := r.db.Exec(ctx, `DELETE FROM journal_entries WHERE entry_id = $1;`, entryID)
	if err != nil {
		return fmt.Errorf("failed to delete journal entry %s: %w", entryID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NewNotFoundError("journal entry " + entryID)
	}
	return nil
}

func (r *PgxJournalRepository) MarkReversed(ctx context.Context, entryID string, userID string, now time.Time) error {
	query := `
		UPDATE journal_entries
		SET is_reversed = TRUE, last_updated_at = $2, last_updated_by = $3
		WHERE entry_id = $1;
	`
	tag, err := r.db.Exec(ctx, query, entryID, now, userID)
	if err != nil {
		return fmt.Errorf("failed to mark journal entry %s reversed: %w", entryID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NewNotFoundError("journal entry " + entryID)
	}
	return nil
}
