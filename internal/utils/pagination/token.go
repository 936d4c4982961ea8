package pagination

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/SscSPs/ledger_core/internal/core/domain"
)

const timeFormat = time.RFC3339Nano // Use a precise time format

// EncodeJournalCursor creates a base64 encoded token from the last entry of a page.
func EncodeJournalCursor(entry domain.JournalEntry) string {
	tokenStr := fmt.Sprintf("%s|%s", entry.EntryDate.Format(timeFormat), entry.EntryNumber)
	return base64.URLEncoding.EncodeToString([]byte(tokenStr))
}

// DecodeJournalCursor parses a token produced by EncodeJournalCursor.
// An empty token yields a nil cursor (first page).
func DecodeJournalCursor(token string) (*domain.JournalCursor, error) {
	if token == "" {
		return nil, nil
	}
	decodedBytes, err := base64.URLEncoding.DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("invalid pagination token format (base64 decode): %w", err)
	}
	parts := strings.SplitN(string(decodedBytes), "|", 2)
	if len(parts) != 2 || parts[1] == "" {
		return nil, fmt.Errorf("invalid pagination token format (split)")
	}

	entryDate, err := time.Parse(timeFormat, parts[0])
	if err != nil {
		return nil, fmt.Errorf("invalid pagination token format (entry date parse): %w", err)
	}

	return &domain.JournalCursor{EntryDate: entryDate, EntryNumber: parts[1]}, nil
}
