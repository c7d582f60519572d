package rates

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/net/publicsuffix"
	"golang.org/x/time/rate"

	"github.com/username/taxledger/src/logger"
	"github.com/username/taxledger/src/utils"
)

type frankfurterResponse struct {
	Base  string             `json:"base"`
	Date  string             `json:"date"`
	Rates map[string]float64 `json:"rates"`
}

// FrankfurterSource fetches historical ECB reference rates from the public
// Frankfurter API. Requests are rate limited so a large run does not hammer
// the service; the orchestrator's cache keeps each (pair, date) to a single
// call anyway.
type FrankfurterSource struct {
	baseURL    string
	httpClient http.Client
	limiter    *rate.Limiter
}

func NewFrankfurterSource(baseURL string) *FrankfurterSource {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		logger.L.Error("Failed to create cookie jar", "error", err)
	}

	return &FrankfurterSource{
		baseURL: baseURL,
		httpClient: http.Client{
			Jar:     jar,
			Timeout: 20 * time.Second,
		},
		limiter: rate.NewLimiter(rate.Every(100*time.Millisecond), 5),
	}
}

func (s *FrankfurterSource) GetRate(ctx context.Context, from, to string, date time.Time) (decimal.Decimal, error) {
	if from == to {
		return decimal.NewFromInt(1), nil
	}
	if err := s.limiter.Wait(ctx); err != nil {
		return decimal.Decimal{}, err
	}

	day := utils.FormatDate(date)
	url := fmt.Sprintf("%s/%s?from=%s&to=%s", s.baseURL, day, from, to)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return decimal.Decimal{}, err
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("failed to call rate API for %s/%s on %s: %w", from, to, day, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusUnprocessableEntity {
		return decimal.Decimal{}, ErrRateNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return decimal.Decimal{}, fmt.Errorf("rate API returned status %d for %s/%s on %s", resp.StatusCode, from, to, day)
	}

	var parsed frankfurterResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return decimal.Decimal{}, fmt.Errorf("failed to decode rate API response: %w", err)
	}

	// The API answers non-trading days with the closest earlier observation.
	// Report that as a miss so the fallback walk stays explicit and audited.
	if parsed.Date != day {
		return decimal.Decimal{}, ErrRateNotFound
	}
	value, ok := parsed.Rates[to]
	if !ok {
		return decimal.Decimal{}, ErrRateNotFound
	}
	return decimal.NewFromFloat(value), nil
}
