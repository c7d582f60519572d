package parsers

import (
	"fmt"

	"github.com/username/taxledger/src/parsers/csvfile"
	"github.com/username/taxledger/src/parsers/jsonl"
)

// GetParser returns a parser for the given normalized event file format.
// Every parser returned here runs the shared event validation, so the engine
// only ever sees complete, well-formed events.
func GetParser(format string) (Parser, error) {
	switch format {
	case "jsonl":
		return newValidatingParser(jsonl.NewParser()), nil
	case "csv":
		return newValidatingParser(csvfile.NewParser()), nil
	default:
		return nil, fmt.Errorf("no parser available for format: %s", format)
	}
}
