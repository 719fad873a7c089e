package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

// =============================================================================
// 💾 进程内 TTL 缓存
// =============================================================================

// memoryEntry 带过期时间的缓存条目
type memoryEntry struct {
	value     string
	expiresAt time.Time
}

func (e memoryEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// Memory 进程内 TTL 缓存，未配置 Redis 时的后备实现
type Memory struct {
	defaultTTL time.Duration

	mu      sync.RWMutex
	entries map[string]memoryEntry
	closed  bool
}

// NewMemory 创建进程内缓存，defaultTTL 为 0 表示默认不过期
func NewMemory(defaultTTL time.Duration) *Memory {
	return &Memory{
		defaultTTL: defaultTTL,
		entries:    make(map[string]memoryEntry),
	}
}

// Get 获取缓存值，过期条目视为未命中并被惰性删除
func (m *Memory) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return "", ErrClosed
	}

	entry, ok := m.entries[key]
	if !ok {
		return "", ErrCacheMiss
	}
	if entry.expired(time.Now()) {
		delete(m.entries, key)
		return "", ErrCacheMiss
	}

	return entry.value, nil
}

// Set 设置缓存值
func (m *Memory) Set(_ context.Context, key string, value string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}

	if ttl == 0 {
		ttl = m.defaultTTL
	}

	entry := memoryEntry{value: value}
	if ttl > 0 {
		entry.expiresAt = time.Now().Add(ttl)
	}
	m.entries[key] = entry

	return nil
}

// GetJSON 获取 JSON 缓存值
func (m *Memory) GetJSON(ctx context.Context, key string, dest any) error {
	val, err := m.Get(ctx, key)
	if err != nil {
		return err
	}

	if err := json.Unmarshal([]byte(val), dest); err != nil {
		return fmt.Errorf("failed to unmarshal cache value: %w", err)
	}

	return nil
}

// SetJSON 设置 JSON 缓存值
func (m *Memory) SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal cache value: %w", err)
	}

	return m.Set(ctx, key, string(data), ttl)
}

// Delete 删除缓存值
func (m *Memory) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}

	for _, key := range keys {
		delete(m.entries, key)
	}

	return nil
}

// Ping 进程内缓存总是可用
func (m *Memory) Ping(_ context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return ErrClosed
	}
	return nil
}

// Close 关闭缓存并释放条目
func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil
	}
	m.closed = true
	m.entries = nil

	return nil
}

var _ Store = (*Memory)(nil)
