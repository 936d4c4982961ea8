package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// MaxSequenceDigits bounds the digit run of an auto-assigned number so every issued
// sequence value fits a BIGINT.
const MaxSequenceDigits = 18

// MaxSequence is the highest sequence value that can be issued.
const MaxSequence int64 = 999_999_999_999_999_999

// ErrSequenceExhausted is returned by Next once MaxSequence has been issued.
var ErrSequenceExhausted = errors.New("entry number sequence exhausted")

// EntryNumberFormat describes how sequence values are rendered as entry numbers.
type EntryNumberFormat struct {
	Prefix string
	Width  int
}

// DefaultEntryNumberFormat renders JE-000001.
var DefaultEntryNumberFormat = EntryNumberFormat{Prefix: "JE-", Width: 6}

// Format renders seq, zero padded to Width.
func (f EntryNumberFormat) Format(seq int64) string {
	return fmt.Sprintf("%s%0*d", f.Prefix, f.Width, seq)
}

// Parse returns the sequence value of an entry number in this format.
func (f EntryNumberFormat) Parse(number string) (int64, bool) {
	digits, ok := f.digits(number)
	if !ok || len(digits) > MaxSequenceDigits {
		return 0, false
	}
	seq, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return 0, false
	}
	return seq, true
}

// Next returns the number that follows the highest issued sequence value.
func (f EntryNumberFormat) Next(maxSeq int64) (string, error) {
	if maxSeq < 0 || maxSeq >= MaxSequence {
		return "", fmt.Errorf("%w: prefix %q reached %d", ErrSequenceExhausted, f.Prefix, maxSeq)
	}
	return f.Format(maxSeq + 1), nil
}

// CheckManual reports why a caller chosen number cannot be used, or "" when it can.
// Numbers in the auto-assigned namespace are limited to Width digits so they can
// never push the sequence towards its ceiling.
func (f EntryNumberFormat) CheckManual(number string) string {
	digits, ok := f.digits(number)
	if !ok {
		return ""
	}
	if len(digits) > f.Width {
		return fmt.Sprintf("numbers with prefix %q may carry at most %d digits", f.Prefix, f.Width)
	}
	return ""
}

// digits returns the digit run following Prefix when number is prefix plus digits only.
func (f EntryNumberFormat) digits(number string) (string, bool) {
	if !strings.HasPrefix(number, f.Prefix) {
		return "", false
	}
	digits := strings.TrimPrefix(number, f.Prefix)
	if digits == "" {
		return "", false
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return "", false
		}
	}
	return digits, true
}
