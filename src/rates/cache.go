package rates

import (
	"context"
	"errors"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"

	"github.com/username/taxledger/src/utils"
)

type cacheEntry struct {
	rate  decimal.Decimal
	found bool
}

// Cache memoizes (currency pair, date) lookups for the lifetime of a run.
// A key is written once: after the first fetch every caller observes the same
// value, including a definitive "no rate for this date". Concurrent lookups
// for the same key collapse into a single call to the underlying source.
type Cache struct {
	source Source
	store  *gocache.Cache
	group  singleflight.Group
}

func NewCache(source Source) *Cache {
	return &Cache{
		source: source,
		store:  gocache.New(gocache.NoExpiration, 0),
	}
}

func rateKey(from, to string, date time.Time) string {
	return from + "/" + to + "@" + utils.FormatDate(date)
}

func (c *Cache) GetRate(ctx context.Context, from, to string, date time.Time) (decimal.Decimal, error) {
	if from == to {
		return decimal.NewFromInt(1), nil
	}
	key := rateKey(from, to, date)

	if v, ok := c.store.Get(key); ok {
		return entryResult(v.(cacheEntry))
	}

	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		if v, ok := c.store.Get(key); ok {
			return v.(cacheEntry), nil
		}
		rate, err := c.source.GetRate(ctx, from, to, date)
		if errors.Is(err, ErrRateNotFound) {
			e := cacheEntry{found: false}
			c.store.Set(key, e, gocache.NoExpiration)
			return e, nil
		}
		if err != nil {
			// Transport errors are not cached; a later lookup may succeed.
			return cacheEntry{}, err
		}
		e := cacheEntry{rate: rate, found: true}
		c.store.Set(key, e, gocache.NoExpiration)
		return e, nil
	})
	if err != nil {
		return decimal.Decimal{}, err
	}
	return entryResult(v.(cacheEntry))
}

func entryResult(e cacheEntry) (decimal.Decimal, error) {
	if !e.found {
		return decimal.Decimal{}, ErrRateNotFound
	}
	return e.rate, nil
}
