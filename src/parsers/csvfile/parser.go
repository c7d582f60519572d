package csvfile

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/username/taxledger/src/models"
	"github.com/username/taxledger/src/utils"
)

type CSVParser struct{}

func NewParser() *CSVParser {
	return &CSVParser{}
}

// Parse reads normalized events from a CSV file with a header row. Column
// order does not matter; unknown columns are ignored.
func (p *CSVParser) Parse(file io.Reader) ([]models.Event, error) {
	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.ToLower(strings.TrimSpace(name))] = i
	}
	if _, ok := index["type"]; !ok {
		return nil, fmt.Errorf("CSV header missing required column 'type'")
	}

	var events []models.Event
	record := 1 // header consumed
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV record: %w", err)
		}
		record++

		field := func(name string) string {
			i, ok := index[name]
			if !ok || i >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[i])
		}

		date, err := utils.ParseDate(field("date"))
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", record, err)
		}

		ev := models.Event{
			Type:        models.EventType(strings.ToUpper(field("type"))),
			ISIN:        field("isin"),
			ProductName: field("product_name"),
			Date:        date,
			Currency:    strings.ToUpper(field("currency")),
			ActionKind:  models.ActionKind(strings.ToUpper(field("action_kind"))),
			TargetISIN:  field("target_isin"),
		}

		if seq := field("sequence"); seq != "" {
			n, err := strconv.ParseInt(seq, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("record %d: invalid sequence %q: %w", record, seq, err)
			}
			ev.Sequence = n
		}

		for name, dst := range map[string]*decimal.Decimal{
			"quantity":     &ev.Quantity,
			"price":        &ev.Price,
			"fee":          &ev.Fee,
			"gross_amount": &ev.GrossAmount,
			"withheld_tax": &ev.WithheldTax,
			"ratio":        &ev.Ratio,
		} {
			raw := field(name)
			if raw == "" {
				continue
			}
			d, err := decimal.NewFromString(raw)
			if err != nil {
				return nil, fmt.Errorf("record %d: invalid %s %q: %w", record, name, raw, err)
			}
			*dst = d
		}

		events = append(events, ev)
	}
	return events, nil
}
