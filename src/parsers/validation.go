package parsers

import (
	"errors"
	"fmt"
	"io"

	"github.com/username/taxledger/src/models"
)

// validatingParser wraps a format decoder and enforces the event contract
// before anything reaches the engine.
type validatingParser struct {
	decoder Parser
}

func newValidatingParser(decoder Parser) *validatingParser {
	return &validatingParser{decoder: decoder}
}

func (p *validatingParser) Parse(file io.Reader) ([]models.Event, error) {
	events, err := p.decoder.Parse(file)
	if err != nil {
		var malformed *MalformedReportError
		if errors.As(err, &malformed) {
			return nil, err
		}
		return nil, &MalformedReportError{Reason: err.Error()}
	}

	for i := range events {
		ev := &events[i]
		if ev.Sequence == 0 {
			ev.Sequence = int64(i + 1)
		}
		if err := validateEvent(ev); err != nil {
			return nil, &MalformedReportError{Record: i + 1, Reason: err.Error()}
		}
	}
	return events, nil
}

func validateEvent(ev *models.Event) error {
	if ev.ISIN == "" {
		return fmt.Errorf("missing isin")
	}
	if ev.Date.IsZero() {
		return fmt.Errorf("missing date")
	}

	switch ev.Type {
	case models.EventBuy, models.EventSell:
		if !ev.Quantity.IsPositive() {
			return fmt.Errorf("%s quantity must be positive, got %s", ev.Type, ev.Quantity)
		}
		if ev.Price.IsNegative() {
			return fmt.Errorf("%s price must not be negative, got %s", ev.Type, ev.Price)
		}
		if ev.Currency == "" {
			return fmt.Errorf("%s missing currency", ev.Type)
		}
	case models.EventDividend, models.EventInterest, models.EventFee:
		if ev.Currency == "" {
			return fmt.Errorf("%s missing currency", ev.Type)
		}
	case models.EventCorporateAction:
		switch ev.ActionKind {
		case models.ActionSplit, models.ActionReverseSplit:
			if !ev.Ratio.IsPositive() {
				return fmt.Errorf("%s ratio must be positive, got %s", ev.ActionKind, ev.Ratio)
			}
		case models.ActionMerger, models.ActionSpinOff:
			// Ratio may come from configuration; the processor decides
			// whether the action is resolvable.
		default:
			return fmt.Errorf("unknown corporate action kind %q", ev.ActionKind)
		}
	default:
		return fmt.Errorf("unknown event type %q", ev.Type)
	}
	return nil
}
