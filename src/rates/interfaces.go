package rates

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/username/taxledger/src/utils"
)

// Source supplies the official exchange rate of one currency pair for one
// exact date. Implementations return ErrRateNotFound when the authority has
// no observation for that date (weekends, bank holidays); any other error is
// a transport or data problem.
type Source interface {
	GetRate(ctx context.Context, from, to string, date time.Time) (decimal.Decimal, error)
}

// ErrRateNotFound means the authority has no rate for the exact date asked.
var ErrRateNotFound = errors.New("exchange rate not found")

// RateUnavailableError means no usable rate exists within the whole fallback
// window. It is recoverable at the run level: the affected event is excluded
// from the ledger and reported as a warning.
type RateUnavailableError struct {
	From       string
	To         string
	Date       time.Time
	WindowDays int
}

func (e *RateUnavailableError) Error() string {
	return fmt.Sprintf("no %s/%s exchange rate within %d days before %s",
		e.From, e.To, e.WindowDays, utils.FormatDate(e.Date))
}
