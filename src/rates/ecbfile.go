package rates

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/username/taxledger/src/logger"
	"github.com/username/taxledger/src/utils"
)

// ecbRateFile is the on-disk layout of the historical ECB reference-rate
// dump: one observation per currency per business day, quoted against EUR.
type ecbRateFile struct {
	Root struct {
		Obs []struct {
			TimePeriod string `json:"_TIME_PERIOD"`
			ObsValue   string `json:"_OBS_VALUE"`
			Ccy        string `json:"_CCY"`
		} `json:"Obs"`
	} `json:"root"`
}

// ECBFileSource answers rate lookups from a historical ECB rate file loaded
// once at startup. Cross rates between two non-EUR currencies are derived
// through EUR.
type ECBFileSource struct {
	// date (ISO) -> currency -> units of currency per 1 EUR
	observations map[string]map[string]decimal.Decimal
}

func NewECBFileSource(filePath string) (*ECBFileSource, error) {
	logger.L.Info("Loading historical exchange rates", "path", filePath)
	file, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("error reading historical exchange rate file '%s': %w", filePath, err)
	}

	var parsed ecbRateFile
	if err := json.Unmarshal(file, &parsed); err != nil {
		return nil, fmt.Errorf("error unmarshalling historical exchange rates from '%s': %w", filePath, err)
	}

	s := &ECBFileSource{observations: make(map[string]map[string]decimal.Decimal)}
	for _, obs := range parsed.Root.Obs {
		value, err := strconv.ParseFloat(obs.ObsValue, 64)
		if err != nil {
			logger.L.Warn("Invalid exchange rate value in data", "currency", obs.Ccy, "date", obs.TimePeriod, "value", obs.ObsValue)
			continue
		}
		byCcy := s.observations[obs.TimePeriod]
		if byCcy == nil {
			byCcy = make(map[string]decimal.Decimal)
			s.observations[obs.TimePeriod] = byCcy
		}
		byCcy[obs.Ccy] = decimal.NewFromFloat(value)
	}
	logger.L.Info("Historical exchange rates loaded successfully.", "path", filePath, "observationDays", len(s.observations))
	return s, nil
}

func (s *ECBFileSource) GetRate(_ context.Context, from, to string, date time.Time) (decimal.Decimal, error) {
	if from == to {
		return decimal.NewFromInt(1), nil
	}
	byCcy := s.observations[utils.FormatDate(date)]
	if byCcy == nil {
		return decimal.Decimal{}, ErrRateNotFound
	}

	// perEUR(X) is X units per 1 EUR; from->to = perEUR(to) / perEUR(from).
	perEUR := func(ccy string) (decimal.Decimal, bool) {
		if ccy == "EUR" {
			return decimal.NewFromInt(1), true
		}
		v, ok := byCcy[ccy]
		return v, ok
	}

	fromRate, okFrom := perEUR(from)
	toRate, okTo := perEUR(to)
	if !okFrom || !okTo || fromRate.IsZero() {
		return decimal.Decimal{}, ErrRateNotFound
	}
	return toRate.Div(fromRate), nil
}
