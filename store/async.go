package store

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/webextract/internal/pool"
	"github.com/BaSui01/webextract/types"
)

// saveTimeout bounds a single background save.
const saveTimeout = 30 * time.Second

// AsyncSaver persists extraction output off the request path through a
// bounded worker pool. Saves that fail or get rejected are logged and
// dropped; persistence never fails an extraction request.
type AsyncSaver struct {
	store   *Store
	workers *pool.GoroutinePool
	logger  *zap.Logger
}

// NewAsyncSaver creates a saver with at most workers concurrent saves.
func NewAsyncSaver(s *Store, workers int, logger *zap.Logger) *AsyncSaver {
	if logger == nil {
		logger = zap.NewNop()
	}
	if workers <= 0 {
		workers = 4
	}
	cfg := pool.DefaultGoroutinePoolConfig()
	cfg.MaxWorkers = workers
	cfg.QueueSize = workers * 16
	cfg.PanicHandler = func(r any) {
		logger.Error("background save panicked", zap.Any("panic", r))
	}
	return &AsyncSaver{
		store:   s,
		workers: pool.NewGoroutinePool(cfg),
		logger:  logger.With(zap.String("component", "async_saver")),
	}
}

// SaveResults schedules a background insert of extracted rows.
func (a *AsyncSaver) SaveResults(websiteURL string, taskType types.TaskType, rows []map[string]any) {
	if len(rows) == 0 {
		return
	}
	a.submit("save_results", func(ctx context.Context) error {
		saved, err := a.store.SaveResults(ctx, websiteURL, taskType, rows)
		if err != nil {
			return err
		}
		a.logger.Debug("extraction rows persisted",
			zap.String("website", websiteURL), zap.Int("saved", saved))
		return nil
	})
}

// SaveRecord schedules a background insert of a closed query record.
func (a *AsyncSaver) SaveRecord(rec types.QueryRecord) {
	a.submit("save_record", func(ctx context.Context) error {
		return a.store.SaveRecord(ctx, rec)
	})
}

func (a *AsyncSaver) submit(op string, task func(ctx context.Context) error) {
	err := a.workers.Submit(context.Background(), func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, saveTimeout)
		defer cancel()
		if err := task(ctx); err != nil {
			a.logger.Warn("background save failed", zap.String("op", op), zap.Error(err))
		}
		return nil
	})
	if err != nil {
		a.logger.Warn("background save rejected", zap.String("op", op), zap.Error(err))
	}
}

// Close drains pending saves and stops the workers.
func (a *AsyncSaver) Close() {
	a.workers.Close()
}
