package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/username/taxledger/src/logger"
	"github.com/username/taxledger/src/models"
	"github.com/username/taxledger/src/parsers"
	"github.com/username/taxledger/src/processors"
	"github.com/username/taxledger/src/rates"
)

type runServiceImpl struct {
	parser     parsers.Parser
	converter  *rates.Converter
	matcher    *processors.LotMatcher
	actions    *processors.CorporateActionProcessor
	aggregator *processors.TaxYearAggregator

	prefetchConcurrency int

	state    RunState
	warnings []models.Warning
}

// convertedIncome is a dividend/interest/fee event with its amounts already
// in the reporting currency, parked until the aggregation phase.
type convertedIncome struct {
	event    models.Event
	gross    decimal.Decimal
	withheld decimal.Decimal
}

func NewRunService(
	parser parsers.Parser,
	converter *rates.Converter,
	matcher *processors.LotMatcher,
	actions *processors.CorporateActionProcessor,
	aggregator *processors.TaxYearAggregator,
	prefetchConcurrency int,
) RunService {
	return &runServiceImpl{
		parser:              parser,
		converter:           converter,
		matcher:             matcher,
		actions:             actions,
		aggregator:          aggregator,
		prefetchConcurrency: prefetchConcurrency,
		state:               StateIdle,
	}
}

func (s *runServiceImpl) State() RunState {
	return s.state
}

func (s *runServiceImpl) Run(ctx context.Context, file io.Reader) (*models.RunReport, error) {
	start := time.Now()
	runID := uuid.NewString()
	logger.L.Info("Run START", "runID", runID)

	s.state = StateLoading
	s.warnings = nil

	events, err := s.parser.Parse(file)
	if err != nil {
		return s.fail(runID, err)
	}
	models.SortEvents(events)
	logger.L.Info("Events loaded", "runID", runID, "count", len(events))

	// Warm the rate cache for every (currency, date) the run will need.
	// Lookups are independent reads; single-flight in the cache keeps each
	// key to one external call even while the fan-out is running.
	s.converter.Prefetch(ctx, rateKeys(events, s.converter.ReportingCurrency()), s.prefetchConcurrency)

	s.state = StateProcessing
	var (
		matches []models.ClosedMatch
		incomes []convertedIncome
	)
	for _, ev := range events {
		if err := ctx.Err(); err != nil {
			return s.fail(runID, fmt.Errorf("run aborted: %w", err))
		}

		switch ev.Type {
		case models.EventBuy:
			s.matcher.AddPurchase(ev)

		case models.EventSell:
			sold, err := s.matcher.MatchSale(ev)
			if err != nil {
				return s.fail(runID, err)
			}
			for i := range sold {
				if err := s.convertMatch(ctx, &sold[i]); err != nil {
					return s.fail(runID, err)
				}
			}
			matches = append(matches, sold...)

		case models.EventDividend:
			gross, okGross, err := s.convertAmount(ctx, ev, ev.GrossAmount)
			if err != nil {
				return s.fail(runID, err)
			}
			withheld, okTax, err := s.convertAmount(ctx, ev, ev.WithheldTax)
			if err != nil {
				return s.fail(runID, err)
			}
			if okGross && okTax {
				incomes = append(incomes, convertedIncome{event: ev, gross: gross, withheld: withheld})
			}

		case models.EventInterest, models.EventFee:
			amount, ok, err := s.convertAmount(ctx, ev, ev.GrossAmount)
			if err != nil {
				return s.fail(runID, err)
			}
			if ok {
				incomes = append(incomes, convertedIncome{event: ev, gross: amount})
			}

		case models.EventCorporateAction:
			warning, err := s.actions.Apply(ev, s.matcher)
			if err != nil {
				return s.fail(runID, err)
			}
			if warning != nil {
				s.warnings = append(s.warnings, *warning)
			}
		}
	}

	s.state = StateAggregating
	for _, m := range matches {
		if m.Converted {
			s.aggregator.AbsorbMatch(m)
		}
	}
	for _, in := range incomes {
		switch in.event.Type {
		case models.EventDividend:
			s.aggregator.AbsorbDividend(in.event, in.gross, in.withheld)
		case models.EventInterest:
			s.aggregator.AbsorbInterest(in.event, in.gross)
		case models.EventFee:
			s.aggregator.AbsorbFee(in.event, in.gross)
		}
	}

	report := &models.RunReport{
		RunID:             runID,
		GeneratedAt:       time.Now().UTC(),
		ReportingCurrency: s.converter.ReportingCurrency(),
		Ledgers:           s.aggregator.Snapshot(),
		Matches:           matches,
		Holdings:          s.matcher.OpenLots(),
		Warnings:          s.warnings,
	}

	s.state = StateDone
	logger.L.Info("Run DONE", "runID", runID,
		"ledgers", len(report.Ledgers),
		"matches", len(report.Matches),
		"warnings", len(report.Warnings),
		"duration", time.Since(start))
	return report, nil
}

// convertMatch fills the reporting-currency view of one closed match. Each
// leg converts at its own transaction date: proceeds at the close date, cost
// basis at the open date. A rate gap marks the match unconverted and records
// a warning; only transport failures propagate.
func (s *runServiceImpl) convertMatch(ctx context.Context, m *models.ClosedMatch) error {
	proceeds, ok, err := s.convertAt(ctx, m.ISIN, m.Proceeds, m.Currency, m.CloseDate)
	if err != nil || !ok {
		return err
	}
	basis, ok, err := s.convertAt(ctx, m.ISIN, m.CostBasis, m.Currency, m.OpenDate)
	if err != nil || !ok {
		return err
	}
	m.ProceedsReporting = proceeds
	m.CostBasisReporting = basis
	m.GainReporting = proceeds.Sub(basis)
	m.Converted = true
	return nil
}

func (s *runServiceImpl) convertAmount(ctx context.Context, ev models.Event, amount decimal.Decimal) (decimal.Decimal, bool, error) {
	return s.convertAt(ctx, ev.ISIN, amount, ev.Currency, ev.Date)
}

// convertAt converts one amount, recording fallback and unavailability
// warnings against the instrument. ok is false when the event's monetary
// effect has to be omitted from the ledger.
func (s *runServiceImpl) convertAt(ctx context.Context, isin string, amount decimal.Decimal, currency string, date time.Time) (decimal.Decimal, bool, error) {
	converted, warning, err := s.converter.Convert(ctx, amount, currency, date)
	if err != nil {
		var unavailable *rates.RateUnavailableError
		if errors.As(err, &unavailable) {
			s.warnings = append(s.warnings, models.Warning{
				Kind:    models.WarnRateUnavailable,
				ISIN:    isin,
				Date:    date,
				Message: unavailable.Error(),
			})
			return decimal.Decimal{}, false, nil
		}
		return decimal.Decimal{}, false, err
	}
	if warning != nil {
		w := *warning
		w.ISIN = isin
		s.warnings = append(s.warnings, w)
	}
	return converted, true, nil
}

func (s *runServiceImpl) fail(runID string, err error) (*models.RunReport, error) {
	s.state = StateFailed
	logger.L.Error("Run FAILED", "runID", runID, "error", err)
	return nil, err
}

// rateKeys collects the distinct (currency, date) pairs a run will convert,
// including both legs of every possible match via buy dates.
func rateKeys(events []models.Event, reporting string) []rates.RateKey {
	seen := make(map[string]struct{})
	var keys []rates.RateKey
	add := func(currency string, date time.Time) {
		if currency == "" || currency == reporting {
			return
		}
		k := currency + "@" + date.Format("2006-01-02")
		if _, ok := seen[k]; ok {
			return
		}
		seen[k] = struct{}{}
		keys = append(keys, rates.RateKey{Currency: currency, Date: date})
	}
	for _, ev := range events {
		switch ev.Type {
		case models.EventBuy, models.EventSell, models.EventDividend, models.EventInterest, models.EventFee:
			add(ev.Currency, ev.Date)
		}
	}
	return keys
}
