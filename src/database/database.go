package database

import (
	"database/sql"
	stdlog "log"

	"github.com/username/taxledger/src/logger"
	_ "modernc.org/sqlite"
)

var DB *sql.DB

// InitDB opens the sqlite database used by the report sink and ensures its
// schema. Only sinks touch this database; the engine itself keeps all state
// in memory for the run.
func InitDB(databasePath string) {
	db, err := sql.Open("sqlite", databasePath)
	if err != nil {
		stdlog.Fatalf("failed to open database at %s: %v", databasePath, err)
	}

	DB = db

	createTableStatement := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		generated_at TIMESTAMP NOT NULL,
		reporting_currency TEXT NOT NULL,
		ledger_count INTEGER NOT NULL,
		warning_count INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS tax_year_ledgers (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		year INTEGER NOT NULL,
		isin TEXT NOT NULL,
		product_name TEXT,
		currency TEXT NOT NULL,
		realized_gain TEXT NOT NULL,
		dividend_income TEXT NOT NULL,
		withheld_tax TEXT NOT NULL,
		interest_income TEXT NOT NULL,
		fee_expense TEXT NOT NULL,
		FOREIGN KEY(run_id) REFERENCES runs(id),
		UNIQUE(run_id, year, isin)
	);

	CREATE TABLE IF NOT EXISTS run_warnings (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		kind TEXT NOT NULL,
		isin TEXT,
		date TEXT,
		message TEXT NOT NULL,
		FOREIGN KEY(run_id) REFERENCES runs(id)
	);
	`

	if _, err = DB.Exec(createTableStatement); err != nil {
		if logger.L != nil {
			logger.L.Error("failed to create tables", "error", err)
		}
		stdlog.Fatalf("failed to create tables: %v", err)
	}
	if logger.L != nil {
		logger.L.Info("Database tables ensured/created.", "databasePath", databasePath)
	} else {
		stdlog.Println("Database tables ensured/created.")
	}
}
