package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type AppConfig struct {
	LogLevel string

	// Reporting currency everything is converted into (ISO 4217 code).
	ReportingCurrency string

	// Event Source.
	EventsPath   string
	EventsFormat string // "jsonl" or "csv"

	// Rate Source.
	RateProvider         string // "ecbfile" or "frankfurter"
	HistoricalRatesPath  string
	FrankfurterBaseURL   string
	RateFallbackDays     int
	RateFetchConcurrency int

	// Fiscal-year attribution. 1 means calendar years.
	FiscalYearStartMonth time.Month

	// Corporate actions without a usable ratio: "warn" records the action
	// and skips the adjustment, "fail" aborts the run.
	CorporateActionPolicy     string
	CorporateActionRatiosPath string

	// Report sinks.
	ReportSinks      []string // any of "json", "sqlite", "email"
	ReportOutputPath string
	DatabasePath     string

	MailgunDomain        string
	MailgunPrivateAPIKey string
	SenderEmail          string
	ReportRecipientEmail string
}

var Cfg *AppConfig

func LoadConfig() {
	errEnv := godotenv.Load()
	if errEnv != nil {
		log.Println("Info: No .env file found or error loading .env file. Relying on OS environment variables and defaults. Error (if any):", errEnv)
	} else {
		log.Println(".env file loaded successfully.")
	}

	log.Println("Loading application configuration...")

	fallbackDays := getEnvAsInt("RATE_FALLBACK_DAYS", 10)
	if fallbackDays < 0 {
		log.Printf("WARNING: RATE_FALLBACK_DAYS must not be negative, got %d. Using 10.", fallbackDays)
		fallbackDays = 10
	}

	fyStart := getEnvAsInt("FISCAL_YEAR_START_MONTH", 1)
	if fyStart < 1 || fyStart > 12 {
		log.Printf("WARNING: FISCAL_YEAR_START_MONTH must be 1..12, got %d. Using 1 (calendar years).", fyStart)
		fyStart = 1
	}

	policy := strings.ToLower(getEnv("CORPORATE_ACTION_POLICY", "warn"))
	if policy != "warn" && policy != "fail" {
		log.Printf("WARNING: Invalid CORPORATE_ACTION_POLICY %q. Using 'warn'.", policy)
		policy = "warn"
	}

	var sinks []string
	for _, s := range strings.Split(getEnv("REPORT_SINKS", "json"), ",") {
		if s = strings.TrimSpace(strings.ToLower(s)); s != "" {
			sinks = append(sinks, s)
		}
	}

	Cfg = &AppConfig{
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		ReportingCurrency: strings.ToUpper(getEnv("REPORTING_CURRENCY", "EUR")),

		EventsPath:   getEnv("EVENTS_PATH", "data/events.jsonl"),
		EventsFormat: strings.ToLower(getEnv("EVENTS_FORMAT", "jsonl")),

		RateProvider:         strings.ToLower(getEnv("RATE_PROVIDER", "ecbfile")),
		HistoricalRatesPath:  getEnv("HISTORICAL_RATES_PATH", "data/historicalExchangeRate.json"),
		FrankfurterBaseURL:   getEnv("FRANKFURTER_BASE_URL", "https://api.frankfurter.app"),
		RateFallbackDays:     fallbackDays,
		RateFetchConcurrency: getEnvAsInt("RATE_FETCH_CONCURRENCY", 4),

		FiscalYearStartMonth: time.Month(fyStart),

		CorporateActionPolicy:     policy,
		CorporateActionRatiosPath: getEnv("CORPORATE_ACTION_RATIOS_PATH", ""),

		ReportSinks:      sinks,
		ReportOutputPath: getEnv("REPORT_OUTPUT_PATH", "report.json"),
		DatabasePath:     getEnv("DATABASE_PATH", "./taxledger.db"),

		MailgunDomain:        getEnv("MAILGUN_DOMAIN", ""),
		MailgunPrivateAPIKey: getEnv("MAILGUN_PRIVATE_API_KEY", ""),
		SenderEmail:          getEnv("SENDER_EMAIL", ""),
		ReportRecipientEmail: getEnv("REPORT_RECIPIENT_EMAIL", ""),
	}

	for _, s := range Cfg.ReportSinks {
		if s != "email" {
			continue
		}
		if Cfg.MailgunDomain == "" || Cfg.MailgunPrivateAPIKey == "" {
			log.Fatalf("FATAL: MAILGUN_DOMAIN and MAILGUN_PRIVATE_API_KEY are required when the 'email' report sink is enabled.")
		}
		if Cfg.SenderEmail == "" || Cfg.ReportRecipientEmail == "" {
			log.Fatalf("FATAL: SENDER_EMAIL and REPORT_RECIPIENT_EMAIL are required when the 'email' report sink is enabled.")
		}
	}

	log.Printf("Configuration loaded: ReportingCurrency=%s, EventsFormat=%s, RateProvider=%s, Sinks=%v",
		Cfg.ReportingCurrency, Cfg.EventsFormat, Cfg.RateProvider, Cfg.ReportSinks)
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	log.Printf("Environment variable %s not set, using default: %s", key, fallback)
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		log.Printf("Integer value for %s not set or empty, using default: %d", key, fallback)
		return fallback
	}
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid integer value for %s ('%s'), using default: %d", key, valueStr, fallback)
	return fallback
}
