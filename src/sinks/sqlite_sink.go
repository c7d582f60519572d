package sinks

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/username/taxledger/src/logger"
	"github.com/username/taxledger/src/models"
	"github.com/username/taxledger/src/utils"
)

// SQLiteSink persists finished run reports so past ledgers stay queryable
// across runs.
type SQLiteSink struct {
	db *sql.DB
}

func NewSQLiteSink(db *sql.DB) *SQLiteSink {
	return &SQLiteSink{db: db}
}

func (s *SQLiteSink) Publish(ctx context.Context, report *models.RunReport) error {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error beginning database transaction: %w", err)
	}
	defer dbTx.Rollback()

	_, err = dbTx.ExecContext(ctx,
		`INSERT INTO runs (id, generated_at, reporting_currency, ledger_count, warning_count) VALUES (?, ?, ?, ?, ?)`,
		report.RunID, report.GeneratedAt, report.ReportingCurrency, len(report.Ledgers), len(report.Warnings))
	if err != nil {
		return fmt.Errorf("error inserting run %s: %w", report.RunID, err)
	}

	ledgerStmt, err := dbTx.PrepareContext(ctx,
		`INSERT INTO tax_year_ledgers (run_id, year, isin, product_name, currency, realized_gain, dividend_income, withheld_tax, interest_income, fee_expense) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("error preparing ledger insert: %w", err)
	}
	defer ledgerStmt.Close()

	for _, l := range report.Ledgers {
		_, err := ledgerStmt.ExecContext(ctx, report.RunID, l.Year, l.ISIN, l.ProductName, l.Currency,
			utils.RoundMoney(l.RealizedGain).String(),
			utils.RoundMoney(l.DividendIncome).String(),
			utils.RoundMoney(l.WithheldTax).String(),
			utils.RoundMoney(l.InterestIncome).String(),
			utils.RoundMoney(l.FeeExpense).String())
		if err != nil {
			return fmt.Errorf("error inserting ledger %d/%s: %w", l.Year, l.ISIN, err)
		}
	}

	warningStmt, err := dbTx.PrepareContext(ctx,
		`INSERT INTO run_warnings (run_id, kind, isin, date, message) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("error preparing warning insert: %w", err)
	}
	defer warningStmt.Close()

	for _, w := range report.Warnings {
		if _, err := warningStmt.ExecContext(ctx, report.RunID, string(w.Kind), w.ISIN, utils.FormatDate(w.Date), w.Message); err != nil {
			return fmt.Errorf("error inserting warning: %w", err)
		}
	}

	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("error committing run report: %w", err)
	}
	logger.L.Info("Run report persisted", "runID", report.RunID, "ledgers", len(report.Ledgers), "warnings", len(report.Warnings))
	return nil
}
