package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// LedgerKey identifies one aggregation bucket: every taxable event is
// attributed to exactly one (fiscal year, instrument) pair.
type LedgerKey struct {
	Year int
	ISIN string
}

// TaxYearLedger aggregates the taxable results of one instrument in one
// fiscal year, in the reporting currency. It is pure addition: entries are
// never revisited or corrected after absorption.
type TaxYearLedger struct {
	Year        int    `json:"year"`
	ISIN        string `json:"isin"`
	ProductName string `json:"product_name,omitempty"`
	Currency    string `json:"currency"` // reporting currency

	RealizedGain   decimal.Decimal `json:"realized_gain"`
	DividendIncome decimal.Decimal `json:"dividend_income"`
	WithheldTax    decimal.Decimal `json:"withheld_tax"`
	InterestIncome decimal.Decimal `json:"interest_income"`
	FeeExpense     decimal.Decimal `json:"fee_expense"`
}

// WarningKind classifies a non-fatal condition collected during a run.
type WarningKind string

const (
	WarnRateFallback      WarningKind = "RATE_FALLBACK"
	WarnRateUnavailable   WarningKind = "RATE_UNAVAILABLE"
	WarnUnresolvedCorpAct WarningKind = "UNRESOLVED_CORPORATE_ACTION"
)

// Warning is one itemized condition the operator has to resolve by hand.
type Warning struct {
	Kind    WarningKind `json:"kind"`
	ISIN    string      `json:"isin,omitempty"`
	Date    time.Time   `json:"date"`
	Message string      `json:"message"`
}

// RunReport is the plain, serializable snapshot handed to report sinks after
// a completed run. Sinks own any persistence or rendering of it.
type RunReport struct {
	RunID             string          `json:"run_id"`
	GeneratedAt       time.Time       `json:"generated_at"`
	ReportingCurrency string          `json:"reporting_currency"`
	Ledgers           []TaxYearLedger `json:"ledgers"`
	Matches           []ClosedMatch   `json:"matches"`
	Holdings          []Holding       `json:"holdings"`
	Warnings          []Warning       `json:"warnings"`
}
