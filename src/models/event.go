package models

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// EventType classifies a normalized brokerage event.
type EventType string

const (
	EventBuy             EventType = "BUY"
	EventSell            EventType = "SELL"
	EventDividend        EventType = "DIVIDEND"
	EventInterest        EventType = "INTEREST"
	EventFee             EventType = "FEE"
	EventCorporateAction EventType = "CORPORATE_ACTION"
)

// ActionKind classifies a corporate action event.
type ActionKind string

const (
	ActionSplit        ActionKind = "SPLIT"
	ActionReverseSplit ActionKind = "REVERSE_SPLIT"
	ActionMerger       ActionKind = "MERGER"
	ActionSpinOff      ActionKind = "SPINOFF"
)

// Event is the unified, normalized representation of a single brokerage
// record. Parsers are responsible for populating every field the event type
// needs; the engine never re-validates or re-normalizes.
//
// Sequence is the position of the record in the original report and is the
// tie-breaker for events sharing a date, so matching stays reproducible
// across runs on identical input.
type Event struct {
	Sequence    int64     `json:"sequence"`
	Type        EventType `json:"type"`
	ISIN        string    `json:"isin"`
	ProductName string    `json:"product_name,omitempty"`
	Date        time.Time `json:"date"`
	Currency    string    `json:"currency,omitempty"`

	// Trade fields (BUY, SELL).
	Quantity decimal.Decimal `json:"quantity,omitempty"`
	Price    decimal.Decimal `json:"price,omitempty"`
	Fee      decimal.Decimal `json:"fee,omitempty"`

	// Income fields (DIVIDEND, INTEREST, FEE).
	GrossAmount decimal.Decimal `json:"gross_amount,omitempty"`
	WithheldTax decimal.Decimal `json:"withheld_tax,omitempty"`

	// Corporate action fields.
	ActionKind ActionKind      `json:"action_kind,omitempty"`
	Ratio      decimal.Decimal `json:"ratio,omitempty"`
	TargetISIN string          `json:"target_isin,omitempty"`
}

// SortEvents orders events chronologically, ties broken by the original
// report sequence number. The sort is stable so equal (date, sequence) pairs
// keep their input order.
func SortEvents(events []Event) {
	sort.SliceStable(events, func(i, j int) bool {
		if !events[i].Date.Equal(events[j].Date) {
			return events[i].Date.Before(events[j].Date)
		}
		return events[i].Sequence < events[j].Sequence
	})
}
