// Package tracker accumulates per-query outcome records for extraction runs
// and derives summary statistics from them.
//
// Records are append-only and keyed by a unique query id; concurrent
// StartQuery/FinishQuery calls from independent tasks are safe because each
// call touches only its own record. Summary aggregates closed records only,
// so a summary computed mid-run is a point-in-time snapshot, not a strictly
// consistent view across in-flight tasks.
package tracker

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/BaSui01/webextract/types"
)

// Recorder is the tracking contract consumed by the orchestrator. Both the
// plain Tracker and the instrumented variant satisfy it; the variant is
// chosen at construction time, never by a runtime flag.
type Recorder interface {
	StartQuery(website string, taskType types.TaskType, query string) types.QueryRecord
	FinishQuery(id string, success bool, itemsExtracted int, taskErr error) error
	MarkPartial(id string) error
	Summary() types.RunSummary
	Records() []types.QueryRecord
	Record(id string) (types.QueryRecord, bool)
	Reset()
}

// Tracker is the plain in-memory Recorder implementation.
type Tracker struct {
	mu      sync.RWMutex
	records map[string]*types.QueryRecord
	order   []string
	logger  *zap.Logger
}

// New creates an empty tracker.
func New(logger *zap.Logger) *Tracker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Tracker{
		records: make(map[string]*types.QueryRecord),
		logger:  logger.With(zap.String("component", "tracker")),
	}
}

// StartQuery opens a record for one agent invocation and returns a copy of
// it. The record stays open until FinishQuery closes it.
func (t *Tracker) StartQuery(website string, taskType types.TaskType, query string) types.QueryRecord {
	rec := &types.QueryRecord{
		ID:        uuid.NewString(),
		Website:   website,
		TaskType:  taskType,
		Query:     query,
		StartTime: time.Now(),
	}

	t.mu.Lock()
	t.records[rec.ID] = rec
	t.order = append(t.order, rec.ID)
	t.mu.Unlock()

	t.logger.Debug("query started",
		zap.String("query_id", rec.ID),
		zap.String("website", website),
		zap.String("task_type", string(taskType)),
	)

	return *rec
}

// FinishQuery closes the record. Closing an unknown or already-closed record
// is a programmer error: it returns an INVALID_STATE error and leaves the
// record unchanged.
func (t *Tracker) FinishQuery(id string, success bool, itemsExtracted int, taskErr error) error {
	_, err := t.finish(id, success, itemsExtracted, taskErr)
	return err
}

// finish closes the record and returns a copy of its closed state.
func (t *Tracker) finish(id string, success bool, itemsExtracted int, taskErr error) (types.QueryRecord, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	rec, ok := t.records[id]
	if !ok {
		return types.QueryRecord{}, types.NewInvalidStateError("finish of unknown query record " + id)
	}
	if rec.Closed() {
		return types.QueryRecord{}, types.NewInvalidStateError("query record " + id + " is already closed")
	}

	rec.EndTime = time.Now()
	rec.Success = success
	rec.ItemsExtracted = itemsExtracted
	if taskErr != nil {
		rec.Error = taskErr.Error()
	}

	t.logger.Debug("query finished",
		zap.String("query_id", id),
		zap.Bool("success", success),
		zap.Int("items_extracted", itemsExtracted),
		zap.Duration("duration", rec.Duration()),
	)

	return *rec, nil
}

// MarkPartial flags an open record as schema-mismatched: the payload was
// kept but is missing required fields. Marking a closed or unknown record is
// an INVALID_STATE error.
func (t *Tracker) MarkPartial(id string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	rec, ok := t.records[id]
	if !ok {
		return types.NewInvalidStateError("mark partial of unknown query record " + id)
	}
	if rec.Closed() {
		return types.NewInvalidStateError("query record " + id + " is already closed")
	}

	rec.PartialSchema = true
	return nil
}

// Summary derives run statistics from the closed records. An empty tracker
// yields zeroed fields, not an error; SuccessRate is 0.0 when no queries
// have closed (documented convention, avoids division-by-zero ambiguity).
func (t *Tracker) Summary() types.RunSummary {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var s types.RunSummary
	var totalDuration time.Duration

	for _, id := range t.order {
		rec := t.records[id]
		if !rec.Closed() {
			continue
		}
		s.TotalQueries++
		totalDuration += rec.Duration()
		if rec.Success {
			s.SuccessfulQueries++
			s.TotalItemsExtracted += rec.ItemsExtracted
		}
		if rec.Error != "" {
			s.ErrorCount++
		}
	}

	if s.TotalQueries > 0 {
		s.SuccessRate = float64(s.SuccessfulQueries) / float64(s.TotalQueries)
		s.AverageResponseTime = totalDuration / time.Duration(s.TotalQueries)
	}
	if s.SuccessfulQueries > 0 {
		s.AverageItemsPerQuery = float64(s.TotalItemsExtracted) / float64(s.SuccessfulQueries)
	}

	return s
}

// Records returns copies of all records in insertion order, open and closed.
func (t *Tracker) Records() []types.QueryRecord {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]types.QueryRecord, 0, len(t.order))
	for _, id := range t.order {
		out = append(out, *t.records[id])
	}
	return out
}

// Record returns a copy of a single record by id.
func (t *Tracker) Record(id string) (types.QueryRecord, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	rec, ok := t.records[id]
	if !ok {
		return types.QueryRecord{}, false
	}
	return *rec, true
}

// Reset clears all records; used between independent experiments sharing one
// process.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.records = make(map[string]*types.QueryRecord)
	t.order = nil
	t.logger.Debug("tracker reset")
}
