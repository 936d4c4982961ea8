package pgsql

import (
	"regexp"
	"time"

	"github.com/shopspring/decimal"
)

var testNow = time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)

// decimalArg matches a query argument numerically equal to want.
type decimalArg struct {
	want decimal.Decimal
}

func (a decimalArg) Match(v interface{}) bool {
	switch d := v.(type) {
	case decimal.Decimal:
		return d.Equal(a.want)
	case string:
		parsed, err := decimal.NewFromString(d)
		return err == nil && parsed.Equal(a.want)
	}
	return false
}

func dec(s string) decimalArg {
	return decimalArg{want: decimal.RequireFromString(s)}
}

func sqlLike(fragment string) string {
	return regexp.QuoteMeta(fragment)
}
