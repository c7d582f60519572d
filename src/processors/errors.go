package processors

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/username/taxledger/src/utils"
)

// InsufficientLotError means a sell asked for more quantity than all open
// lots of the instrument hold. It points at incomplete input (a missing
// earlier report) and is fatal for the run.
type InsufficientLotError struct {
	ISIN      string
	Date      time.Time
	Requested decimal.Decimal
	Available decimal.Decimal
}

func (e *InsufficientLotError) Error() string {
	return fmt.Sprintf("sell of %s %s on %s exceeds open quantity %s",
		e.Requested, e.ISIN, utils.FormatDate(e.Date), e.Available)
}

// UnresolvedActionError is returned for a merger or spin-off without a
// usable allocation ratio when the policy is to fail the run.
type UnresolvedActionError struct {
	ISIN   string
	Kind   string
	Date   time.Time
	Reason string
}

func (e *UnresolvedActionError) Error() string {
	return fmt.Sprintf("unresolved %s for %s on %s: %s",
		e.Kind, e.ISIN, utils.FormatDate(e.Date), e.Reason)
}
