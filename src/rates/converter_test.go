package rates

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/username/taxledger/src/models"
)

func newTestConverter(table map[string]decimal.Decimal, fallbackDays int) (*Converter, *fakeSource) {
	source := newFakeSource(table)
	return NewConverter(NewCache(source), "EUR", fallbackDays), source
}

func TestConvertSameCurrencyIsIdentity(t *testing.T) {
	c, source := newTestConverter(nil, 10)

	amount, warning, err := c.Convert(context.Background(), dec("123.45"), "EUR", day("2023-06-01"))
	require.NoError(t, err)
	assert.Nil(t, warning)
	assert.True(t, amount.Equal(dec("123.45")))
	assert.Equal(t, 0, source.totalCalls())
}

func TestConvertExactDate(t *testing.T) {
	c, _ := newTestConverter(map[string]decimal.Decimal{
		"USD/EUR@2023-06-01": dec("0.9"),
	}, 10)

	amount, warning, err := c.Convert(context.Background(), dec("100"), "USD", day("2023-06-01"))
	require.NoError(t, err)
	assert.Nil(t, warning, "exact-date hit must not warn")
	assert.True(t, amount.Equal(dec("90")), "got %s", amount)
}

func TestConvertFallsBackOverNonTradingDays(t *testing.T) {
	// 2023-06-03 is a Saturday; the last observation is Friday the 2nd.
	c, _ := newTestConverter(map[string]decimal.Decimal{
		"USD/EUR@2023-06-02": dec("0.92"),
	}, 10)

	amount, warning, err := c.Convert(context.Background(), dec("100"), "USD", day("2023-06-04"))
	require.NoError(t, err)
	assert.True(t, amount.Equal(dec("92")), "got %s", amount)

	require.NotNil(t, warning)
	assert.Equal(t, models.WarnRateFallback, warning.Kind)
	assert.Equal(t, day("2023-06-04"), warning.Date)
	assert.Contains(t, warning.Message, "2023-06-04")
	assert.Contains(t, warning.Message, "2023-06-02")
}

func TestConvertWindowExhausted(t *testing.T) {
	c, source := newTestConverter(nil, 3)

	_, warning, err := c.Convert(context.Background(), dec("100"), "USD", day("2023-06-10"))
	assert.Nil(t, warning)

	var unavailable *RateUnavailableError
	require.ErrorAs(t, err, &unavailable)
	assert.Equal(t, "USD", unavailable.From)
	assert.Equal(t, "EUR", unavailable.To)
	assert.Equal(t, 3, unavailable.WindowDays)
	assert.Equal(t, 4, source.totalCalls(), "requested date plus three fallback days")
}

func TestConvertTransportErrorStopsWalk(t *testing.T) {
	c, source := newTestConverter(nil, 10)
	source.err = assert.AnError

	_, _, err := c.Convert(context.Background(), dec("100"), "USD", day("2023-06-10"))
	require.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, 1, source.totalCalls(), "a transport error must not be masked by the fallback walk")
}

func TestPrefetchWarmsCache(t *testing.T) {
	c, source := newTestConverter(map[string]decimal.Decimal{
		"USD/EUR@2023-06-01": dec("0.9"),
		"GBP/EUR@2023-06-01": dec("1.15"),
	}, 10)

	keys := []RateKey{
		{Currency: "USD", Date: day("2023-06-01")},
		{Currency: "GBP", Date: day("2023-06-01")},
		{Currency: "EUR", Date: day("2023-06-01")}, // reporting currency, skipped
	}
	c.Prefetch(context.Background(), keys, 4)
	assert.Equal(t, 2, source.totalCalls())

	// The sequential pass must be served from the cache.
	_, _, err := c.Convert(context.Background(), dec("100"), "USD", day("2023-06-01"))
	require.NoError(t, err)
	assert.Equal(t, 2, source.totalCalls())
}
