package parsers

import (
	"fmt"
	"io"

	"github.com/username/taxledger/src/models"
)

// Parser turns one normalized event file into the engine's event sequence.
// Parsers own all validation: an event that reaches the engine is complete
// and well-formed. Events missing an explicit sequence number get the record
// position, so report order is always reproducible.
type Parser interface {
	Parse(file io.Reader) ([]models.Event, error)
}

// MalformedReportError reports an input file the parser could not accept.
// The orchestrator treats it as fatal for the run.
type MalformedReportError struct {
	Record int // 1-based record (line) number, 0 when the whole file is unusable
	Reason string
}

func (e *MalformedReportError) Error() string {
	if e.Record > 0 {
		return fmt.Sprintf("malformed report: record %d: %s", e.Record, e.Reason)
	}
	return fmt.Sprintf("malformed report: %s", e.Reason)
}
