package tracker

import (
	"go.uber.org/zap"

	"github.com/BaSui01/webextract/internal/metrics"
)

// Instrumented is the metrics-exporting Recorder variant: every closed
// record is mirrored into the Prometheus collector in addition to the
// in-memory record set. The record set stays the single source of truth for
// Summary; the collector is write-only.
type Instrumented struct {
	*Tracker
	collector *metrics.Collector
}

// NewInstrumented creates a tracker that mirrors closed records into the
// collector.
func NewInstrumented(collector *metrics.Collector, logger *zap.Logger) *Instrumented {
	return &Instrumented{
		Tracker:   New(logger),
		collector: collector,
	}
}

// FinishQuery closes the record and records the outcome in the collector.
func (t *Instrumented) FinishQuery(id string, success bool, itemsExtracted int, taskErr error) error {
	rec, err := t.finish(id, success, itemsExtracted, taskErr)
	if err != nil {
		return err
	}

	status := "success"
	if !rec.Success {
		status = "failure"
	} else if rec.PartialSchema {
		status = "partial"
	}
	t.collector.RecordQuery(rec.Website, string(rec.TaskType), status, rec.Duration(), rec.ItemsExtracted)

	return nil
}

var (
	_ Recorder = (*Tracker)(nil)
	_ Recorder = (*Instrumented)(nil)
)
