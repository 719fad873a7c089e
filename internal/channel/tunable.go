// Package channel provides a buffered channel whose capacity adapts to
// the observed producer/consumer imbalance. Progress-event fan-out uses
// it so that a burst of site events does not force a fixed worst-case
// buffer on every subscriber.
package channel

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// TunableConfig bounds how a channel may resize itself.
type TunableConfig struct {
	InitialSize  int           `json:"initial_size"`
	MinSize      int           `json:"min_size"`
	MaxSize      int           `json:"max_size"`
	GrowFactor   float64       `json:"grow_factor"`
	ShrinkFactor float64       `json:"shrink_factor"`
	SampleWindow time.Duration `json:"sample_window"`
}

// DefaultTunableConfig returns sensible defaults.
func DefaultTunableConfig() TunableConfig {
	return TunableConfig{
		InitialSize:  64,
		MinSize:      16,
		MaxSize:      4096,
		GrowFactor:   2.0,
		ShrinkFactor: 0.5,
		SampleWindow: 10 * time.Second,
	}
}

// TunableChannel is a buffered channel that grows when senders block
// and shrinks when the buffer sits mostly empty. Resizing happens only
// inside Tune, which callers invoke from their send path.
type TunableChannel[T any] struct {
	config TunableConfig
	ch     chan T
	mu     sync.RWMutex
	size   int

	// counters sampled by Tune
	sends    atomic.Int64
	receives atomic.Int64
	blocks   atomic.Int64
	lastTune atomic.Int64 // unix nanos
}

// NewTunableChannel creates a channel at the configured initial size.
func NewTunableChannel[T any](config TunableConfig) *TunableChannel[T] {
	tc := &TunableChannel[T]{
		config: config,
		ch:     make(chan T, config.InitialSize),
		size:   config.InitialSize,
	}
	tc.lastTune.Store(time.Now().UnixNano())
	return tc
}

// Send delivers v, blocking until there is room or ctx is done. A send
// that could not complete immediately counts toward the block rate.
func (tc *TunableChannel[T]) Send(ctx context.Context, v T) error {
	tc.sends.Add(1)

	tc.mu.RLock()
	ch := tc.ch
	tc.mu.RUnlock()

	select {
	case ch <- v:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	tc.blocks.Add(1)
	select {
	case ch <- v:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Receive takes the next value, blocking until one arrives or ctx is done.
func (tc *TunableChannel[T]) Receive(ctx context.Context) (T, error) {
	tc.receives.Add(1)

	tc.mu.RLock()
	ch := tc.ch
	tc.mu.RUnlock()

	select {
	case v := <-ch:
		return v, nil
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// TrySend delivers v only if there is room. Returns false when the
// buffer is full, which also counts toward the block rate.
func (tc *TunableChannel[T]) TrySend(v T) bool {
	tc.mu.RLock()
	ch := tc.ch
	tc.mu.RUnlock()

	select {
	case ch <- v:
		tc.sends.Add(1)
		return true
	default:
		tc.blocks.Add(1)
		return false
	}
}

// TryReceive takes the next value only if one is already buffered.
func (tc *TunableChannel[T]) TryReceive() (T, bool) {
	tc.mu.RLock()
	ch := tc.ch
	tc.mu.RUnlock()

	select {
	case v := <-ch:
		tc.receives.Add(1)
		return v, true
	default:
		var zero T
		return zero, false
	}
}

// Chan exposes the receive side for use in select statements. Callers
// must re-fetch it after Tune may have run, or accept reading from a
// drained generation of the buffer.
func (tc *TunableChannel[T]) Chan() <-chan T {
	tc.mu.RLock()
	defer tc.mu.RUnlock()
	return tc.ch
}

// Len returns the number of buffered items.
func (tc *TunableChannel[T]) Len() int {
	tc.mu.RLock()
	defer tc.mu.RUnlock()
	return len(tc.ch)
}

// Cap returns the current capacity.
func (tc *TunableChannel[T]) Cap() int {
	tc.mu.RLock()
	defer tc.mu.RUnlock()
	return tc.size
}

// Tune resizes the buffer when a full sample window has elapsed:
// grow when more than 10% of sends blocked, shrink when the buffer
// stayed under 25% utilization with essentially no blocking.
func (tc *TunableChannel[T]) Tune() {
	last := tc.lastTune.Load()
	if time.Since(time.Unix(0, last)) < tc.config.SampleWindow {
		return
	}
	if !tc.lastTune.CompareAndSwap(last, time.Now().UnixNano()) {
		return // another caller is tuning
	}

	blocks := tc.blocks.Swap(0)
	sends := tc.sends.Swap(0)
	if sends == 0 {
		return
	}

	tc.mu.Lock()
	defer tc.mu.Unlock()

	blockRate := float64(blocks) / float64(sends)
	utilization := float64(len(tc.ch)) / float64(tc.size)

	newSize := tc.size
	if blockRate > 0.1 && tc.size < tc.config.MaxSize {
		newSize = min(int(float64(tc.size)*tc.config.GrowFactor), tc.config.MaxSize)
	} else if utilization < 0.25 && blockRate < 0.01 && tc.size > tc.config.MinSize {
		newSize = max(int(float64(tc.size)*tc.config.ShrinkFactor), tc.config.MinSize)
	}

	if newSize != tc.size {
		tc.resize(newSize)
	}
}

// resize swaps in a new buffer, carrying over whatever fits. When
// shrinking below the number of buffered items the old buffer is kept
// so nothing is dropped.
func (tc *TunableChannel[T]) resize(newSize int) {
	if len(tc.ch) > newSize {
		return
	}

	newCh := make(chan T, newSize)
	for {
		select {
		case v := <-tc.ch:
			newCh <- v
		default:
			tc.ch = newCh
			tc.size = newSize
			return
		}
	}
}

// Stats returns a snapshot of the counters since the last Tune.
func (tc *TunableChannel[T]) Stats() TunableChannelStats {
	tc.mu.RLock()
	defer tc.mu.RUnlock()

	return TunableChannelStats{
		Size:        tc.size,
		Length:      len(tc.ch),
		Sends:       tc.sends.Load(),
		Receives:    tc.receives.Load(),
		Blocks:      tc.blocks.Load(),
		Utilization: float64(len(tc.ch)) / float64(tc.size),
	}
}

// TunableChannelStats describes a channel's buffer and traffic.
type TunableChannelStats struct {
	Size        int     `json:"size"`
	Length      int     `json:"length"`
	Sends       int64   `json:"sends"`
	Receives    int64   `json:"receives"`
	Blocks      int64   `json:"blocks"`
	Utilization float64 `json:"utilization"`
}

// Close closes the channel. No sends may follow.
func (tc *TunableChannel[T]) Close() {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	close(tc.ch)
}
