package cache

import (
	"context"
	"errors"
	"time"
)

// =============================================================================
// 💾 缓存接口
// =============================================================================

// Store 缓存存储接口，Redis 与进程内实现共用
type Store interface {
	// Get 获取缓存值，未命中返回 ErrCacheMiss
	Get(ctx context.Context, key string) (string, error)

	// Set 设置缓存值，ttl 为 0 时使用实现的默认过期时间
	Set(ctx context.Context, key string, value string, ttl time.Duration) error

	// GetJSON 获取并反序列化 JSON 缓存值
	GetJSON(ctx context.Context, key string, dest any) error

	// SetJSON 序列化并设置 JSON 缓存值
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error

	// Delete 删除缓存值
	Delete(ctx context.Context, keys ...string) error

	// Ping 检查缓存可用性
	Ping(ctx context.Context) error

	// Close 关闭缓存
	Close() error
}

// ErrCacheMiss 缓存未命中错误
var ErrCacheMiss = errors.New("cache miss")

// ErrClosed 缓存已关闭错误
var ErrClosed = errors.New("cache store is closed")

// IsCacheMiss 判断是否为缓存未命中错误
func IsCacheMiss(err error) bool {
	return errors.Is(err, ErrCacheMiss)
}
