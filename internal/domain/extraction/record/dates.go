package record

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidDate is returned when a token cannot be normalized to a real
// calendar date. Callers drop the candidate instead of keeping a sentinel.
var ErrInvalidDate = errors.New("invalid date")

// pivotYear splits two-digit years: below it maps to 20xx, otherwise 19xx.
const pivotYear = 50

const minYear = 1900

var (
	monthNameDate = regexp.MustCompile(`^(\d{1,2})[-/ ]([A-Za-z]{3,9})\.?[-/ ,]+(\d{4}|\d{2})$`)
	numericDate   = regexp.MustCompile(`^(\d{1,4})[/-](\d{1,2})[/-](\d{1,4})$`)
)

var monthNames = []string{
	"january", "february", "march", "april", "may", "june",
	"july", "august", "september", "october", "november", "december",
}

// ParseDate normalizes a statement date token into a UTC calendar date.
//
// Supported shapes, tried in order:
//   - DD-MMM-YYYY, DD MMM YYYY, DD/MMM/YY (month names, short or full)
//   - YYYY-MM-DD, YYYY/MM/DD
//   - MM/DD/YYYY, MM-DD-YYYY, falling back to DD/MM/YYYY when the first part exceeds 12
//   - MM/DD/YY, then YY/MM/DD, then DD/MM/YY
//
// Two-digit years pivot at 50 (00-49 => 2000s, 50-99 => 1900s).
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: empty", ErrInvalidDate)
	}

	if m := monthNameDate.FindStringSubmatch(s); m != nil {
		month, ok := monthFromName(m[2])
		if !ok {
			return time.Time{}, fmt.Errorf("%w: unknown month %q", ErrInvalidDate, m[2])
		}
		return civilDate(expandYear(m[3]), month, atoi(m[1]), s)
	}

	m := numericDate.FindStringSubmatch(s)
	if m == nil {
		return time.Time{}, fmt.Errorf("%w: unrecognized format %q", ErrInvalidDate, s)
	}
	a, b, c := m[1], m[2], m[3]

	switch {
	case len(a) == 4 && len(c) <= 2:
		return civilDate(atoi(a), atoi(b), atoi(c), s)

	case len(a) <= 2 && len(c) == 4:
		if t, err := civilDate(atoi(c), atoi(a), atoi(b), s); err == nil {
			return t, nil
		}
		return civilDate(atoi(c), atoi(b), atoi(a), s)

	case len(a) <= 2 && len(c) == 2:
		if t, err := civilDate(expandYear(c), atoi(a), atoi(b), s); err == nil {
			return t, nil
		}
		if len(a) == 2 {
			if t, err := civilDate(expandYear(a), atoi(b), atoi(c), s); err == nil {
				return t, nil
			}
		}
		return civilDate(expandYear(c), atoi(b), atoi(a), s)
	}

	return time.Time{}, fmt.Errorf("%w: unrecognized format %q", ErrInvalidDate, s)
}

// FormatDate renders t in the canonical ISO layout.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

func civilDate(year, month, day int, raw string) (time.Time, error) {
	if year < minYear || year > 9999 || month < 1 || month > 12 || day < 1 {
		return time.Time{}, fmt.Errorf("%w: out of range %q", ErrInvalidDate, raw)
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Day() != day || int(t.Month()) != month {
		return time.Time{}, fmt.Errorf("%w: no such day %q", ErrInvalidDate, raw)
	}
	return t, nil
}

func monthFromName(name string) (int, bool) {
	lower := strings.ToLower(name)
	for i, full := range monthNames {
		if lower == full || lower == full[:3] || (i == 8 && lower == "sept") {
			return i + 1, true
		}
	}
	return 0, false
}

func expandYear(s string) int {
	n := atoi(s)
	if len(s) == 2 {
		if n < pivotYear {
			return 2000 + n
		}
		return 1900 + n
	}
	return n
}

func atoi(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return -1
	}
	return n
}
