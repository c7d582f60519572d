package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/username/taxledger/src/config"
	"github.com/username/taxledger/src/database"
	"github.com/username/taxledger/src/logger"
	"github.com/username/taxledger/src/parsers"
	"github.com/username/taxledger/src/processors"
	"github.com/username/taxledger/src/rates"
	"github.com/username/taxledger/src/services"
	"github.com/username/taxledger/src/sinks"
)

func main() {
	config.LoadConfig()
	logger.InitLogger(config.Cfg.LogLevel)
	logger.L.Info("Taxledger engine starting...")

	var rateSource rates.Source
	switch config.Cfg.RateProvider {
	case "ecbfile":
		source, err := rates.NewECBFileSource(config.Cfg.HistoricalRatesPath)
		if err != nil {
			logger.L.Error("Failed to load historical rates", "error", err)
			os.Exit(1)
		}
		rateSource = source
	case "frankfurter":
		rateSource = rates.NewFrankfurterSource(config.Cfg.FrankfurterBaseURL)
	default:
		logger.L.Error("Unknown RATE_PROVIDER", "provider", config.Cfg.RateProvider)
		os.Exit(1)
	}

	allocationTable, err := processors.LoadAllocationTable(config.Cfg.CorporateActionRatiosPath)
	if err != nil {
		logger.L.Error("Failed to load allocation ratios", "error", err)
		os.Exit(1)
	}

	parser, err := parsers.GetParser(config.Cfg.EventsFormat)
	if err != nil {
		logger.L.Error("Failed to create event parser", "error", err)
		os.Exit(1)
	}

	logger.L.Info("Initializing run pipeline...")
	converter := rates.NewConverter(
		rates.NewCache(rateSource),
		config.Cfg.ReportingCurrency,
		config.Cfg.RateFallbackDays,
	)
	runService := services.NewRunService(
		parser,
		converter,
		processors.NewLotMatcher(),
		processors.NewCorporateActionProcessor(
			processors.ActionPolicy(config.Cfg.CorporateActionPolicy),
			allocationTable,
		),
		processors.NewTaxYearAggregator(config.Cfg.ReportingCurrency, config.Cfg.FiscalYearStartMonth),
		config.Cfg.RateFetchConcurrency,
	)

	var reportSinks []sinks.ReportSink
	for _, name := range config.Cfg.ReportSinks {
		switch name {
		case "json":
			reportSinks = append(reportSinks, sinks.NewJSONSink(config.Cfg.ReportOutputPath))
		case "sqlite":
			database.InitDB(config.Cfg.DatabasePath)
			reportSinks = append(reportSinks, sinks.NewSQLiteSink(database.DB))
		case "email":
			reportSinks = append(reportSinks, sinks.NewEmailSink(
				config.Cfg.MailgunDomain,
				config.Cfg.MailgunPrivateAPIKey,
				config.Cfg.SenderEmail,
				config.Cfg.ReportRecipientEmail,
			))
		default:
			logger.L.Warn("Unknown report sink, skipping", "sink", name)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	file, err := os.Open(config.Cfg.EventsPath)
	if err != nil {
		logger.L.Error("Failed to open events file", "path", config.Cfg.EventsPath, "error", err)
		os.Exit(1)
	}
	defer file.Close()

	report, err := runService.Run(ctx, file)
	if err != nil {
		logger.L.Error("Run failed, no ledger produced", "state", runService.State(), "error", err)
		os.Exit(1)
	}
	if len(report.Warnings) > 0 {
		logger.L.Warn("Run completed with warnings", "count", len(report.Warnings))
	}

	exitCode := 0
	for _, sink := range reportSinks {
		if err := sink.Publish(ctx, report); err != nil {
			logger.L.Error("Report sink failed", "error", err)
			exitCode = 1
		}
	}
	os.Exit(exitCode)
}
