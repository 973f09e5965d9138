/*
money.go - Amount parsing and transaction stamping

PURPOSE:
  The two primitives every money movement runs through: ParseAmount turns
  user input into a positive integer amount or rejects it, and NewStamp
  attaches Turkish-locale display strings plus a sortable epoch to new
  transactions.

CONTRACT:
  ParseAmount never returns 0 or a negative number with a nil error. A
  non-nil error means validation failure, not "amount zero" - callers must
  stop before touching any state.

SEE ALSO:
  - student.go, cashbook.go, safe.go: Callers
*/
package ledger

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// =============================================================================
// AMOUNT PARSING
// =============================================================================

// ParseAmount parses a user-entered value as a base-10 integer amount.
// Like the lenient parsers money inputs go through, it reads the leading
// integer part and ignores a trailing fraction or garbage ("50.9" -> 50).
// Empty input, no leading digits, zero, and negative values are all
// rejected with ErrInvalidAmount.
func ParseAmount(raw string) (int64, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, ErrInvalidAmount
	}

	neg := false
	if s[0] == '+' || s[0] == '-' {
		neg = s[0] == '-'
		s = s[1:]
	}

	digits := 0
	for _, c := range s {
		if c < '0' || c > '9' {
			break
		}
		digits++
	}
	if digits == 0 {
		return 0, ErrInvalidAmount
	}

	n, err := strconv.ParseInt(s[:digits], 10, 64)
	if err != nil || neg || n <= 0 {
		return 0, ErrInvalidAmount
	}
	return n, nil
}

// =============================================================================
// TIMESTAMPS
// =============================================================================

// Stamp carries the display date/time attached to a transaction plus the
// numeric epoch used for ordering. Display strings are write-only: nothing
// ever parses them back.
type Stamp struct {
	Date string // "2 Eylül 2026" (day, long month, year)
	Time string // "15:04"
	Unix int64  // seconds since epoch, the sortable field
}

// Turkish long month names, January first.
var turkishMonths = [...]string{
	"Ocak", "Şubat", "Mart", "Nisan", "Mayıs", "Haziran",
	"Temmuz", "Ağustos", "Eylül", "Ekim", "Kasım", "Aralık",
}

// NewStamp formats t for the Turkish locale.
func NewStamp(t time.Time) Stamp {
	return Stamp{
		Date: formatTurkishDate(t),
		Time: t.Format("15:04"),
		Unix: t.Unix(),
	}
}

func formatTurkishDate(t time.Time) string {
	return fmt.Sprintf("%d %s %d", t.Day(), turkishMonths[int(t.Month())-1], t.Year())
}
