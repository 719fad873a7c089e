package database

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// =============================================================================
// 🧪 PoolManager 测试
// =============================================================================

func setupTestDB(t *testing.T) (sqlmock.Sqlmock, *gorm.DB) {
	t.Helper()

	mockDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })

	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: mockDB}), &gorm.Config{DisableAutomaticPing: true})
	require.NoError(t, err)

	return mock, gormDB
}

func newTestPool(t *testing.T, cfg PoolConfig) (sqlmock.Sqlmock, *PoolManager) {
	t.Helper()

	mock, gormDB := setupTestDB(t)
	manager, err := NewPoolManager(gormDB, cfg, zap.NewNop())
	require.NoError(t, err)
	return mock, manager
}

func TestNewPoolManager(t *testing.T) {
	_, manager := newTestPool(t, PoolConfig{
		MaxOpenConns:    10,
		MaxIdleConns:    5,
		ConnMaxLifetime: 1 * time.Hour,
		ConnMaxIdleTime: 30 * time.Minute,
	})

	assert.NotNil(t, manager.db)
	assert.NotNil(t, manager.logger)
	assert.Equal(t, 10, manager.config.MaxOpenConns)
	assert.Equal(t, 5, manager.config.MaxIdleConns)
}

func TestNewPoolManager_DefaultsApplied(t *testing.T) {
	// 零值池参数取默认值而不是报错
	_, manager := newTestPool(t, PoolConfig{})

	defaults := DefaultPoolConfig()
	assert.Equal(t, defaults.MaxOpenConns, manager.config.MaxOpenConns)
	assert.Equal(t, defaults.MaxIdleConns, manager.config.MaxIdleConns)
}

func TestNewPoolManager_NilDB(t *testing.T) {
	_, err := NewPoolManager(nil, DefaultPoolConfig(), zap.NewNop())
	assert.Error(t, err)
}

func TestPoolManager_GetDB(t *testing.T) {
	_, gormDB := setupTestDB(t)

	manager, err := NewPoolManager(gormDB, PoolConfig{MaxOpenConns: 10, MaxIdleConns: 5}, zap.NewNop())
	require.NoError(t, err)

	assert.Equal(t, gormDB, manager.DB())
}

func TestPoolManager_Ping(t *testing.T) {
	mock, manager := newTestPool(t, PoolConfig{MaxOpenConns: 10, MaxIdleConns: 5})

	mock.ExpectPing()
	assert.NoError(t, manager.Ping(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPoolManager_PingFailed(t *testing.T) {
	mock, manager := newTestPool(t, PoolConfig{MaxOpenConns: 10, MaxIdleConns: 5})

	mock.ExpectPing().WillReturnError(sql.ErrConnDone)
	assert.Error(t, manager.Ping(context.Background()))
}

func TestPoolManager_GetStats(t *testing.T) {
	_, manager := newTestPool(t, PoolConfig{MaxOpenConns: 10, MaxIdleConns: 5})

	stats := manager.GetStats()
	assert.Equal(t, 10, stats.MaxOpenConnections)
	assert.GreaterOrEqual(t, stats.OpenConnections, 0)
	assert.GreaterOrEqual(t, stats.InUse, 0)
	assert.GreaterOrEqual(t, stats.Idle, 0)
}

func TestPoolManager_WithTransaction(t *testing.T) {
	mock, manager := newTestPool(t, PoolConfig{MaxOpenConns: 10, MaxIdleConns: 5})

	mock.ExpectBegin()
	mock.ExpectCommit()

	err := manager.WithTransaction(context.Background(), func(tx *gorm.DB) error {
		return nil
	})

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPoolManager_WithTransactionRollback(t *testing.T) {
	mock, manager := newTestPool(t, PoolConfig{MaxOpenConns: 10, MaxIdleConns: 5})

	mock.ExpectBegin()
	mock.ExpectRollback()

	err := manager.WithTransaction(context.Background(), func(tx *gorm.DB) error {
		return assert.AnError
	})

	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPoolManager_WithTransactionRetry(t *testing.T) {
	mock, manager := newTestPool(t, PoolConfig{MaxOpenConns: 10, MaxIdleConns: 5})

	// 不可重试错误：第一次失败直接返回，不重试
	mock.ExpectBegin()
	mock.ExpectRollback()

	attempt := 0
	err := manager.WithTransactionRetry(context.Background(), 3, func(tx *gorm.DB) error {
		attempt++
		return assert.AnError
	})

	assert.Error(t, err)
	assert.Equal(t, 1, attempt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPoolManager_Close(t *testing.T) {
	mock, gormDB := setupTestDB(t)

	manager, err := NewPoolManager(gormDB, PoolConfig{MaxOpenConns: 10, MaxIdleConns: 5}, zap.NewNop())
	require.NoError(t, err)

	mock.ExpectClose()

	require.NoError(t, manager.Close())
	// 重复关闭为 no-op
	require.NoError(t, manager.Close())
	assert.NoError(t, mock.ExpectationsWereMet())

	// 关闭后的操作报错
	assert.Error(t, manager.Ping(context.Background()))
	assert.Error(t, manager.WithTransaction(context.Background(), func(tx *gorm.DB) error { return nil }))
}

func TestPoolConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  PoolConfig
		wantErr bool
	}{
		{
			name: "valid config",
			config: PoolConfig{
				MaxOpenConns:    10,
				MaxIdleConns:    5,
				ConnMaxLifetime: 1 * time.Hour,
				ConnMaxIdleTime: 30 * time.Minute,
			},
			wantErr: false,
		},
		{
			name:    "invalid max open conns",
			config:  PoolConfig{MaxOpenConns: 0, MaxIdleConns: 5},
			wantErr: true,
		},
		{
			name:    "invalid max idle conns",
			config:  PoolConfig{MaxOpenConns: 10, MaxIdleConns: 0},
			wantErr: true,
		},
		{
			name:    "idle exceeds open",
			config:  PoolConfig{MaxOpenConns: 5, MaxIdleConns: 10},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestIsRetryableError(t *testing.T) {
	assert.False(t, isRetryableError(nil))
	assert.False(t, isRetryableError(assert.AnError))
	assert.True(t, isRetryableError(errDeadlock))
	assert.True(t, isRetryableError(errBadConn))
}

var (
	errDeadlock = sqlError("deadlock detected")
	errBadConn  = sqlError("driver: bad connection")
)

type sqlError string

func (e sqlError) Error() string { return string(e) }
