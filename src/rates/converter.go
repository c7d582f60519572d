package rates

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/username/taxledger/src/logger"
	"github.com/username/taxledger/src/models"
	"github.com/username/taxledger/src/utils"
)

// RateKey identifies one lookup the converter will have to make.
type RateKey struct {
	Currency string
	Date     time.Time
}

// Converter turns an amount tagged with a currency and a transaction date
// into the reporting currency. When the exact date has no rate it walks
// backward day by day up to the fallback window and reports the substitution
// as a warning.
type Converter struct {
	cache        *Cache
	reporting    string
	fallbackDays int
}

func NewConverter(cache *Cache, reportingCurrency string, fallbackDays int) *Converter {
	return &Converter{
		cache:        cache,
		reporting:    reportingCurrency,
		fallbackDays: fallbackDays,
	}
}

func (c *Converter) ReportingCurrency() string {
	return c.reporting
}

// Convert returns the amount in the reporting currency. The warning is
// non-nil when a fallback date supplied the rate. A *RateUnavailableError is
// returned once the whole window is exhausted; any other error is a
// transport problem with the rate source.
func (c *Converter) Convert(ctx context.Context, amount decimal.Decimal, currency string, date time.Time) (decimal.Decimal, *models.Warning, error) {
	if currency == c.reporting {
		return amount, nil, nil
	}

	for offset := 0; offset <= c.fallbackDays; offset++ {
		day := date.AddDate(0, 0, -offset)
		rate, err := c.cache.GetRate(ctx, currency, c.reporting, day)
		if errors.Is(err, ErrRateNotFound) {
			continue
		}
		if err != nil {
			return decimal.Decimal{}, nil, err
		}

		converted := amount.Mul(rate)
		if offset == 0 {
			return converted, nil, nil
		}
		return converted, &models.Warning{
			Kind: models.WarnRateFallback,
			Date: date,
			Message: fmt.Sprintf("no %s/%s rate for %s, used rate of %s",
				currency, c.reporting, utils.FormatDate(date), utils.FormatDate(day)),
		}, nil
	}

	return decimal.Decimal{}, nil, &RateUnavailableError{
		From:       currency,
		To:         c.reporting,
		Date:       date,
		WindowDays: c.fallbackDays,
	}
}

// Prefetch warms the cache for a set of distinct lookups while nothing else
// is touching lot state. Misses are expected (non-trading days) and fatal
// errors are deferred to the sequential pass, so this only ever logs.
func (c *Converter) Prefetch(ctx context.Context, keys []RateKey, concurrency int) {
	if concurrency < 1 {
		concurrency = 1
	}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for _, key := range keys {
		if key.Currency == c.reporting {
			continue
		}
		key := key
		g.Go(func() error {
			_, err := c.cache.GetRate(ctx, key.Currency, c.reporting, key.Date)
			if err != nil && !errors.Is(err, ErrRateNotFound) {
				logger.L.Warn("Rate prefetch failed", "currency", key.Currency, "date", utils.FormatDate(key.Date), "error", err)
			}
			return nil
		})
	}
	g.Wait()
}
