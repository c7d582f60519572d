package sinks

import (
	"context"

	"github.com/username/taxledger/src/models"
)

// ReportSink receives the finished run report. Sinks own rendering and
// persistence; the report they get is a read-only snapshot.
type ReportSink interface {
	Publish(ctx context.Context, report *models.RunReport) error
}
