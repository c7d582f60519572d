package processors

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/username/taxledger/src/models"
	"github.com/username/taxledger/src/utils"
)

// LotMatcher owns the open-lot queues, one FIFO queue per instrument.
// Nothing else mutates lot state; callers feed it events in chronological
// order and the queues stay reproducible for identical input.
type LotMatcher struct {
	queues map[string][]*models.Lot
}

func NewLotMatcher() *LotMatcher {
	return &LotMatcher{queues: make(map[string][]*models.Lot)}
}

// AddPurchase appends a new open lot. The buy fee is folded into the unit
// cost pro rata, so later partial matches apportion it automatically.
func (m *LotMatcher) AddPurchase(ev models.Event) {
	unitCost := ev.Price
	if !ev.Fee.IsZero() {
		unitCost = unitCost.Add(ev.Fee.Div(ev.Quantity))
	}
	m.queues[ev.ISIN] = append(m.queues[ev.ISIN], &models.Lot{
		ISIN:            ev.ISIN,
		ProductName:     ev.ProductName,
		Quantity:        ev.Quantity,
		UnitCost:        unitCost,
		Currency:        ev.Currency,
		AcquisitionDate: ev.Date,
	})
}

// MatchSale consumes open lots from the front of the instrument's queue until
// the sold quantity is exhausted, splitting the last lot when it is only
// partially consumed. The sell fee reduces proceeds pro rata of the matched
// quantity. A sell larger than the total open quantity returns an
// *InsufficientLotError and leaves the queue untouched.
func (m *LotMatcher) MatchSale(ev models.Event) ([]models.ClosedMatch, error) {
	queue := m.queues[ev.ISIN]

	available := decimal.Zero
	for _, lot := range queue {
		available = available.Add(lot.Quantity)
	}
	if ev.Quantity.GreaterThan(available) {
		return nil, &InsufficientLotError{
			ISIN:      ev.ISIN,
			Date:      ev.Date,
			Requested: ev.Quantity,
			Available: available,
		}
	}

	var matches []models.ClosedMatch
	remaining := ev.Quantity
	for remaining.IsPositive() {
		lot := queue[0]
		matched := decimal.Min(remaining, lot.Quantity)

		proceeds := ev.Price.Mul(matched)
		if !ev.Fee.IsZero() {
			proceeds = proceeds.Sub(utils.ProRata(ev.Fee, matched, ev.Quantity))
		}
		costBasis := lot.UnitCost.Mul(matched)

		matches = append(matches, models.ClosedMatch{
			ISIN:        ev.ISIN,
			ProductName: ev.ProductName,
			Quantity:    matched,
			OpenDate:    lot.AcquisitionDate,
			CloseDate:   ev.Date,
			Currency:    ev.Currency,
			Proceeds:    proceeds,
			CostBasis:   costBasis,
			Gain:        proceeds.Sub(costBasis),
		})

		remaining = remaining.Sub(matched)
		lot.Quantity = lot.Quantity.Sub(matched)
		if lot.Quantity.IsZero() {
			queue = queue[1:]
		}
	}

	if len(queue) == 0 {
		delete(m.queues, ev.ISIN)
	} else {
		m.queues[ev.ISIN] = queue
	}
	return matches, nil
}

// Queue returns the open lots of one instrument, oldest first. The corporate
// action processor rewrites lot state through Queue and ReplaceQueue; nothing
// else does.
func (m *LotMatcher) Queue(isin string) []*models.Lot {
	return m.queues[isin]
}

// ReplaceQueue swaps the open lots of one instrument. An empty slice removes
// the queue.
func (m *LotMatcher) ReplaceQueue(isin string, lots []*models.Lot) {
	if len(lots) == 0 {
		delete(m.queues, isin)
		return
	}
	m.queues[isin] = lots
}

// AppendLots adds lots to the back of an instrument's queue, preserving their
// order. Used when a corporate action allocates lots to a new instrument.
func (m *LotMatcher) AppendLots(isin string, lots []*models.Lot) {
	m.queues[isin] = append(m.queues[isin], lots...)
}

// OpenLots snapshots every lot still open, as end-of-run holdings sorted by
// instrument and acquisition date.
func (m *LotMatcher) OpenLots() []models.Holding {
	var holdings []models.Holding
	for _, queue := range m.queues {
		for _, lot := range queue {
			holdings = append(holdings, models.Holding{
				ISIN:            lot.ISIN,
				ProductName:     lot.ProductName,
				Quantity:        lot.Quantity,
				UnitCost:        lot.UnitCost,
				CostBasis:       lot.CostBasis(),
				Currency:        lot.Currency,
				AcquisitionDate: lot.AcquisitionDate,
			})
		}
	}
	sort.Slice(holdings, func(i, j int) bool {
		if holdings[i].ISIN != holdings[j].ISIN {
			return holdings[i].ISIN < holdings[j].ISIN
		}
		return holdings[i].AcquisitionDate.Before(holdings[j].AcquisitionDate)
	})
	return holdings
}
