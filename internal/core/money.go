// Package core holds the domain types shared by storage, services and the
// HTTP layer, together with amount and date parsing helpers.
package core

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ParseAmount converts a user-supplied amount string to a float64.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators. An empty
// string is treated as 0, matching the behaviour of optional numeric form
// fields. Negative values are rejected; transaction polarity comes from the
// transaction type, never from the sign of the amount.
func ParseAmount(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	s = strings.ReplaceAll(s, ",", ".")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	if v < 0 {
		return 0, ErrInvalidAmount
	}
	return v, nil
}

// ParsePercentage parses a 0-100 scale percentage, empty meaning 0.
func ParsePercentage(s string) (float64, error) {
	v, err := ParseAmount(s)
	if err != nil {
		return 0, ErrInvalidPercentage
	}
	if v > 100 {
		return 0, ErrInvalidPercentage
	}
	return v, nil
}

// DateLayout is the strict calendar date format accepted by report filters.
const DateLayout = "2006-01-02"

// TimestampLayout is how transaction timestamps are stored in SQLite.
const TimestampLayout = "2006-01-02 15:04:05"

// ParseDate validates a strict YYYY-MM-DD calendar date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, strings.TrimSpace(s), time.Local)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return t, nil
}

// MonthBounds expands a YYYY-MM month name to its first and last calendar
// day. Variable month lengths and leap years are handled by date
// normalization: day 0 of the following month is the last day of this one.
func MonthBounds(month string) (start, end string, err error) {
	t, perr := time.ParseInLocation("2006-01", strings.TrimSpace(month), time.Local)
	if perr != nil {
		return "", "", ErrInvalidDate
	}
	first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.Local)
	last := time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, time.Local)
	return first.Format(DateLayout), last.Format(DateLayout), nil
}

// FormatUSD renders an amount the way reports and the CSV export display
// it: dollar sign, thousands separators, two decimals. Example: $1,234.56.
func FormatUSD(v float64) string {
	neg := v < 0
	if neg {
		v = -v
	}
	s := strconv.FormatFloat(v, 'f', 2, 64)
	intPart := s[:len(s)-3]
	frac := s[len(s)-2:]
	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	out := fmt.Sprintf("$%s.%s", b.String(), frac)
	if neg {
		return "-" + out
	}
	return out
}
