package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Lot is a discrete acquisition still open in the matching queue of one
// instrument. Quantity is positive while the lot is open; a lot whose
// quantity reaches zero is removed from the queue immediately.
type Lot struct {
	ISIN            string
	ProductName     string
	Quantity        decimal.Decimal
	UnitCost        decimal.Decimal // acquisition price per share, buy fee included pro rata
	Currency        string
	AcquisitionDate time.Time
}

// CostBasis is the total acquisition cost of the remaining quantity.
func (l *Lot) CostBasis() decimal.Decimal {
	return l.Quantity.Mul(l.UnitCost)
}

// ClosedMatch records one sale matched against one open lot (or a slice of
// it). Amounts are in the instrument currency; the reporting-currency fields
// are filled by the orchestrator once both legs have been converted at their
// respective transaction dates.
type ClosedMatch struct {
	ISIN        string          `json:"isin"`
	ProductName string          `json:"product_name,omitempty"`
	Quantity    decimal.Decimal `json:"quantity"`
	OpenDate    time.Time       `json:"open_date"`
	CloseDate   time.Time       `json:"close_date"`
	Currency    string          `json:"currency"`

	Proceeds  decimal.Decimal `json:"proceeds"`   // sale leg, sell fee deducted pro rata
	CostBasis decimal.Decimal `json:"cost_basis"` // buy leg, buy fee included pro rata
	Gain      decimal.Decimal `json:"gain"`

	// Reporting-currency view. Converted is false when no usable exchange
	// rate was found within the fallback window; the match is then excluded
	// from the ledger and surfaced as a warning instead.
	ProceedsReporting  decimal.Decimal `json:"proceeds_reporting"`
	CostBasisReporting decimal.Decimal `json:"cost_basis_reporting"`
	GainReporting      decimal.Decimal `json:"gain_reporting"`
	Converted          bool            `json:"converted"`
}

// Holding is the read-only view of a lot still open when the run finished.
type Holding struct {
	ISIN            string          `json:"isin"`
	ProductName     string          `json:"product_name,omitempty"`
	Quantity        decimal.Decimal `json:"quantity"`
	UnitCost        decimal.Decimal `json:"unit_cost"`
	CostBasis       decimal.Decimal `json:"cost_basis"`
	Currency        string          `json:"currency"`
	AcquisitionDate time.Time       `json:"acquisition_date"`
}
