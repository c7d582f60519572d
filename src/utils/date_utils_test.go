package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	parsed, err := ParseDate("2023-06-01")
	require.NoError(t, err)
	assert.Equal(t, 2023, parsed.Year())
	assert.Equal(t, time.June, parsed.Month())
	assert.Equal(t, 1, parsed.Day())

	_, err = ParseDate("01/06/2023")
	assert.Error(t, err)
	_, err = ParseDate("")
	assert.Error(t, err)
}

func TestFormatDateRoundTrip(t *testing.T) {
	parsed, err := ParseDate("2023-06-01")
	require.NoError(t, err)
	assert.Equal(t, "2023-06-01", FormatDate(parsed))
}

func TestFiscalYear(t *testing.T) {
	date := func(s string) time.Time {
		parsed, err := ParseDate(s)
		require.NoError(t, err)
		return parsed
	}

	assert.Equal(t, 2023, FiscalYear(date("2023-01-01"), time.January))
	assert.Equal(t, 2023, FiscalYear(date("2023-12-31"), time.January))

	// April start: March belongs to the prior fiscal year.
	assert.Equal(t, 2023, FiscalYear(date("2024-03-31"), time.April))
	assert.Equal(t, 2024, FiscalYear(date("2024-04-01"), time.April))
	assert.Equal(t, 2024, FiscalYear(date("2024-12-31"), time.April))
}
