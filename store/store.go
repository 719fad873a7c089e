package store

import (
	"context"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/BaSui01/webextract/internal/database"
	"github.com/BaSui01/webextract/internal/metrics"
	"github.com/BaSui01/webextract/types"
)

// Config selects the database backend and pool tuning.
type Config struct {
	// Driver is postgres, mysql, or sqlite.
	Driver string `yaml:"driver" json:"driver"`

	// DSN for the selected driver. For sqlite this is a file path or
	// ":memory:".
	DSN string `yaml:"dsn" json:"dsn"`

	Pool database.PoolConfig `yaml:"pool" json:"pool"`
}

// Store persists extraction rows and query records.
type Store struct {
	db        *gorm.DB
	pool      *database.PoolManager
	collector *metrics.Collector
	logger    *zap.Logger
}

// Open connects, tunes the pool, and migrates the schema.
func Open(cfg Config, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var dialector gorm.Dialector
	switch cfg.Driver {
	case "postgres":
		dialector = postgres.Open(cfg.DSN)
	case "mysql":
		dialector = mysql.Open(cfg.DSN)
	case "sqlite":
		dialector = sqlite.Open(cfg.DSN)
		// An in-memory sqlite database lives in its connection; a pool
		// of more than one would see empty schemas.
		if cfg.Pool.MaxOpenConns == 0 {
			cfg.Pool.MaxOpenConns = 1
			cfg.Pool.MaxIdleConns = 1
		}
	default:
		return nil, fmt.Errorf("unsupported database driver: %s (supported: postgres, mysql, sqlite)", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	if err := db.AutoMigrate(&Listing{}, &InterestRate{}, &QueryRecordRow{}); err != nil {
		return nil, fmt.Errorf("migrate schema: %w", err)
	}

	pool, err := database.NewPoolManager(db, cfg.Pool, logger)
	if err != nil {
		return nil, err
	}

	logger.Info("store opened", zap.String("driver", cfg.Driver))

	return &Store{
		db:     db,
		pool:   pool,
		logger: logger.With(zap.String("component", "store")),
	}, nil
}

// WithCollector attaches a metrics collector for DB query timing.
func (s *Store) WithCollector(collector *metrics.Collector) *Store {
	s.collector = collector
	return s
}

// SaveResults persists agent result rows for one website. Rows without
// a usable identity (no rate type or rate for interest rates) are
// skipped with a warning rather than failing the batch. Returns how
// many rows were inserted.
func (s *Store) SaveResults(ctx context.Context, websiteURL string, taskType types.TaskType, rows []map[string]any) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	start := time.Now()
	defer s.observe("save_results", start)

	switch taskType {
	case types.TaskRealEstate:
		return s.saveListings(ctx, rows)
	case types.TaskInterestRate:
		return s.saveInterestRates(ctx, websiteURL, rows)
	default:
		return 0, fmt.Errorf("unsupported task type: %s", taskType)
	}
}

// saveTxRetries bounds retries on transient failures (deadlocks,
// dropped connections) during batch inserts.
const saveTxRetries = 3

func (s *Store) saveListings(ctx context.Context, rows []map[string]any) (int, error) {
	saved := 0
	err := s.pool.WithTransactionRetry(ctx, saveTxRetries, func(tx *gorm.DB) error {
		saved = 0
		for _, row := range rows {
			listing := Listing{
				Title:     orNA(fieldString(row, "name", "title")),
				Date:      ParseDateFromText(fieldString(row, "time", "date")),
				Location:  orNA(fieldString(row, "address", "location")),
				Price:     ParseIntFromText(fieldString(row, "price")),
				Bedrooms:  ParseIntFromText(fieldString(row, "number_of_beds", "bedrooms")),
				Bathrooms: ParseIntFromText(fieldString(row, "bathrooms")),
				Size:      ParseIntFromText(fieldString(row, "size", "area")),
				Other:     fieldString(row, "amenities", "other"),
				CreatedAt: time.Now(),
			}
			if err := tx.Create(&listing).Error; err != nil {
				return err
			}
			saved++
		}
		return nil
	})
	if err != nil {
		return saved, fmt.Errorf("save listings: %w", err)
	}
	return saved, nil
}

func (s *Store) saveInterestRates(ctx context.Context, websiteURL string, rows []map[string]any) (int, error) {
	saved := 0
	err := s.pool.WithTransactionRetry(ctx, saveTxRetries, func(tx *gorm.DB) error {
		saved = 0
		for _, row := range rows {
			rateType := fieldString(row, "rate_type", "category")
			rate := ParseFloatFromText(fieldString(row, "rate"))
			if rateType == "" || rate == nil {
				s.logger.Warn("skipping interest rate row without type or rate",
					zap.Any("row", row))
				continue
			}

			sourceURL := fieldString(row, "source_url")
			if sourceURL == "" {
				sourceURL = websiteURL
			}

			entry := InterestRate{
				RateType:    rateType,
				Rate:        rate,
				APR:         ParseFloatFromText(fieldString(row, "apr")),
				Institution: fieldString(row, "institution"),
				Updated:     fieldString(row, "updated"),
				SourceURL:   sourceURL,
				CreatedAt:   time.Now(),
			}
			if err := tx.Create(&entry).Error; err != nil {
				return err
			}
			saved++
		}
		return nil
	})
	if err != nil {
		return saved, fmt.Errorf("save interest rates: %w", err)
	}
	return saved, nil
}

// SaveRecord persists one closed performance record.
func (s *Store) SaveRecord(ctx context.Context, rec types.QueryRecord) error {
	start := time.Now()
	defer s.observe("save_record", start)

	row := QueryRecordRow{
		RecordID:       rec.ID,
		Website:        rec.Website,
		TaskType:       string(rec.TaskType),
		Query:          rec.Query,
		StartTime:      rec.StartTime,
		EndTime:        rec.EndTime,
		Success:        rec.Success,
		ItemsExtracted: rec.ItemsExtracted,
		PartialSchema:  rec.PartialSchema,
		ErrorMessage:   rec.Error,
		CreatedAt:      time.Now(),
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("save query record: %w", err)
	}
	return nil
}

// RecentListings returns the newest persisted listings.
func (s *Store) RecentListings(ctx context.Context, limit int) ([]Listing, error) {
	start := time.Now()
	defer s.observe("recent_listings", start)

	var out []Listing
	err := s.db.WithContext(ctx).Order("created_at desc").Limit(limit).Find(&out).Error
	return out, err
}

// RecentRates returns the newest persisted interest rates.
func (s *Store) RecentRates(ctx context.Context, limit int) ([]InterestRate, error) {
	start := time.Now()
	defer s.observe("recent_rates", start)

	var out []InterestRate
	err := s.db.WithContext(ctx).Order("created_at desc").Limit(limit).Find(&out).Error
	return out, err
}

// Ping checks database reachability.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close shuts the pool down.
func (s *Store) Close() error {
	return s.pool.Close()
}

func (s *Store) observe(operation string, start time.Time) {
	if s.collector != nil {
		s.collector.RecordDBQuery(operation, time.Since(start))
	}
}

// orNA substitutes the original's "N/A" marker for empty display text.
func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
