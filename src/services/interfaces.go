package services

import (
	"context"
	"io"

	"github.com/username/taxledger/src/models"
)

// RunState is the orchestrator's lifecycle. A run moves strictly forward:
// Idle -> Loading -> Processing -> Aggregating -> Done | Failed.
type RunState string

const (
	StateIdle        RunState = "Idle"
	StateLoading     RunState = "Loading"
	StateProcessing  RunState = "Processing"
	StateAggregating RunState = "Aggregating"
	StateDone        RunState = "Done"
	StateFailed      RunState = "Failed"
)

// RunService drives one complete reconciliation run: pull events from the
// event source, match and convert them in chronological order, aggregate per
// fiscal year, and expose the finished report.
//
// A RunService instance is single-use; all its state is scoped to one run.
type RunService interface {
	Run(ctx context.Context, file io.Reader) (*models.RunReport, error)
	State() RunState
}
