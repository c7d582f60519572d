package utils

import (
	"fmt"
	"time"
)

const DefaultDateFormat = "2006-01-02"

// ParseDate parses a date string in the default ISO format.
func ParseDate(dateStr string) (time.Time, error) {
	t, err := time.Parse(DefaultDateFormat, dateStr)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (want %s): %w", dateStr, DefaultDateFormat, err)
	}
	return t, nil
}

// FormatDate renders a date in the default ISO format.
func FormatDate(t time.Time) string {
	return t.Format(DefaultDateFormat)
}

// FiscalYear attributes a date to a fiscal year. startMonth is the first
// month of the fiscal year (1 = calendar years). A fiscal year is labeled by
// the calendar year it starts in, so with startMonth=4 a date in March 2024
// belongs to fiscal year 2023.
func FiscalYear(t time.Time, startMonth time.Month) int {
	if startMonth <= time.January {
		return t.Year()
	}
	if t.Month() < startMonth {
		return t.Year() - 1
	}
	return t.Year()
}
