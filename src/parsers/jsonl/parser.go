package jsonl

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/username/taxledger/src/models"
	"github.com/username/taxledger/src/utils"
)

// rawEvent is the wire form of one normalized event: one JSON object per
// line, dates as ISO strings, amounts as JSON numbers or strings.
type rawEvent struct {
	Sequence    int64           `json:"sequence"`
	Type        string          `json:"type"`
	ISIN        string          `json:"isin"`
	ProductName string          `json:"product_name"`
	Date        string          `json:"date"`
	Currency    string          `json:"currency"`
	Quantity    decimal.Decimal `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
	Fee         decimal.Decimal `json:"fee"`
	GrossAmount decimal.Decimal `json:"gross_amount"`
	WithheldTax decimal.Decimal `json:"withheld_tax"`
	ActionKind  string          `json:"action_kind"`
	Ratio       decimal.Decimal `json:"ratio"`
	TargetISIN  string          `json:"target_isin"`
}

type JSONLParser struct{}

func NewParser() *JSONLParser {
	return &JSONLParser{}
}

func (p *JSONLParser) Parse(file io.Reader) ([]models.Event, error) {
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var events []models.Event
	record := 0
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		record++

		var raw rawEvent
		if err := json.Unmarshal([]byte(line), &raw); err != nil {
			return nil, fmt.Errorf("record %d: %w", record, err)
		}

		date, err := utils.ParseDate(raw.Date)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", record, err)
		}

		events = append(events, models.Event{
			Sequence:    raw.Sequence,
			Type:        models.EventType(strings.ToUpper(raw.Type)),
			ISIN:        raw.ISIN,
			ProductName: raw.ProductName,
			Date:        date,
			Currency:    strings.ToUpper(raw.Currency),
			Quantity:    raw.Quantity,
			Price:       raw.Price,
			Fee:         raw.Fee,
			GrossAmount: raw.GrossAmount,
			WithheldTax: raw.WithheldTax,
			ActionKind:  models.ActionKind(strings.ToUpper(raw.ActionKind)),
			Ratio:       raw.Ratio,
			TargetISIN:  raw.TargetISIN,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read event stream: %w", err)
	}
	return events, nil
}
