package sinks

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/username/taxledger/src/logger"
	"github.com/username/taxledger/src/models"
)

// JSONSink writes the report snapshot as indented JSON. Path "-" writes to
// stdout.
type JSONSink struct {
	path string
}

func NewJSONSink(path string) *JSONSink {
	return &JSONSink{path: path}
}

func (s *JSONSink) Publish(_ context.Context, report *models.RunReport) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("error marshalling run report: %w", err)
	}
	data = append(data, '\n')

	if s.path == "-" {
		_, err = os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("error writing run report to '%s': %w", s.path, err)
	}
	logger.L.Info("Run report written", "path", s.path, "runID", report.RunID)
	return nil
}
