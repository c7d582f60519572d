package rates

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/username/taxledger/src/logger"
	"github.com/username/taxledger/src/utils"
)

func TestMain(m *testing.M) {
	logger.InitLogger("error")
	os.Exit(m.Run())
}

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// fakeSource serves rates from a fixed table and counts how often each key
// actually reaches it.
type fakeSource struct {
	mu    sync.Mutex
	table map[string]decimal.Decimal
	calls map[string]int
	err   error
}

func newFakeSource(table map[string]decimal.Decimal) *fakeSource {
	return &fakeSource{table: table, calls: make(map[string]int)}
}

func (f *fakeSource) GetRate(_ context.Context, from, to string, date time.Time) (decimal.Decimal, error) {
	key := from + "/" + to + "@" + utils.FormatDate(date)
	f.mu.Lock()
	f.calls[key]++
	f.mu.Unlock()
	if f.err != nil {
		return decimal.Decimal{}, f.err
	}
	rate, ok := f.table[key]
	if !ok {
		return decimal.Decimal{}, ErrRateNotFound
	}
	return rate, nil
}

func (f *fakeSource) callCount(key string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[key]
}

func (f *fakeSource) totalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	total := 0
	for _, n := range f.calls {
		total += n
	}
	return total
}
