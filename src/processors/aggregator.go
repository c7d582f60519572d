package processors

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/username/taxledger/src/models"
	"github.com/username/taxledger/src/utils"
)

// TaxYearAggregator groups taxable results by (fiscal year, instrument) in
// the reporting currency. Absorption is pure addition and append-only; a
// bucket is created on the first contributing event and never revisited.
type TaxYearAggregator struct {
	reportingCurrency string
	fiscalYearStart   time.Month
	entries           map[models.LedgerKey]*models.TaxYearLedger
}

func NewTaxYearAggregator(reportingCurrency string, fiscalYearStart time.Month) *TaxYearAggregator {
	return &TaxYearAggregator{
		reportingCurrency: reportingCurrency,
		fiscalYearStart:   fiscalYearStart,
		entries:           make(map[models.LedgerKey]*models.TaxYearLedger),
	}
}

func (a *TaxYearAggregator) entry(date time.Time, isin, productName string) *models.TaxYearLedger {
	key := models.LedgerKey{
		Year: utils.FiscalYear(date, a.fiscalYearStart),
		ISIN: isin,
	}
	e, ok := a.entries[key]
	if !ok {
		e = &models.TaxYearLedger{
			Year:        key.Year,
			ISIN:        key.ISIN,
			ProductName: productName,
			Currency:    a.reportingCurrency,
		}
		a.entries[key] = e
	}
	if e.ProductName == "" {
		e.ProductName = productName
	}
	return e
}

// AbsorbMatch attributes a closed match to the fiscal year of its close
// (sell) date.
func (a *TaxYearAggregator) AbsorbMatch(m models.ClosedMatch) {
	e := a.entry(m.CloseDate, m.ISIN, m.ProductName)
	e.RealizedGain = e.RealizedGain.Add(m.GainReporting)
}

// AbsorbDividend attributes dividend income and its withholding-tax credit
// to the fiscal year of the payment date. Amounts are already converted.
func (a *TaxYearAggregator) AbsorbDividend(ev models.Event, gross, withheld decimal.Decimal) {
	e := a.entry(ev.Date, ev.ISIN, ev.ProductName)
	e.DividendIncome = e.DividendIncome.Add(gross)
	e.WithheldTax = e.WithheldTax.Add(withheld)
}

// AbsorbInterest attributes cash interest to the fiscal year of the payment
// date.
func (a *TaxYearAggregator) AbsorbInterest(ev models.Event, amount decimal.Decimal) {
	e := a.entry(ev.Date, ev.ISIN, ev.ProductName)
	e.InterestIncome = e.InterestIncome.Add(amount)
}

// AbsorbFee attributes a standalone account fee to the fiscal year it was
// charged in.
func (a *TaxYearAggregator) AbsorbFee(ev models.Event, amount decimal.Decimal) {
	e := a.entry(ev.Date, ev.ISIN, ev.ProductName)
	e.FeeExpense = e.FeeExpense.Add(amount)
}

// Snapshot returns the accumulated ledgers sorted by year and instrument.
// It copies, so it is idempotent and safe to call repeatedly against the
// same state.
func (a *TaxYearAggregator) Snapshot() []models.TaxYearLedger {
	ledgers := make([]models.TaxYearLedger, 0, len(a.entries))
	for _, e := range a.entries {
		ledgers = append(ledgers, *e)
	}
	sort.Slice(ledgers, func(i, j int) bool {
		if ledgers[i].Year != ledgers[j].Year {
			return ledgers[i].Year < ledgers[j].Year
		}
		return ledgers[i].ISIN < ledgers[j].ISIN
	})
	return ledgers
}
