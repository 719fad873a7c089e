package pool

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGoroutinePool_Submit(t *testing.T) {
	p := NewGoroutinePool(DefaultGoroutinePoolConfig())
	defer p.Close()

	var ran atomic.Bool
	done := make(chan struct{})

	err := p.Submit(context.Background(), func(ctx context.Context) error {
		ran.Store(true)
		close(done)
		return nil
	})
	require.NoError(t, err)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("task did not run")
	}
	assert.True(t, ran.Load())
}

func TestGoroutinePool_SubmitWait(t *testing.T) {
	p := NewGoroutinePool(DefaultGoroutinePoolConfig())
	defer p.Close()

	err := p.SubmitWait(context.Background(), func(ctx context.Context) error {
		return nil
	})
	assert.NoError(t, err)

	wantErr := errors.New("save failed")
	err = p.SubmitWait(context.Background(), func(ctx context.Context) error {
		return wantErr
	})
	assert.ErrorIs(t, err, wantErr)
}

func TestGoroutinePool_RejectsWhenSaturated(t *testing.T) {
	cfg := GoroutinePoolConfig{MaxWorkers: 1, QueueSize: 1, IdleTimeout: time.Second}
	p := NewGoroutinePool(cfg)

	block := make(chan struct{})
	started := make(chan struct{})
	first := func(ctx context.Context) error {
		close(started)
		<-block
		return nil
	}
	blocker := func(ctx context.Context) error {
		<-block
		return nil
	}

	// first task occupies the worker, second fills the queue
	require.NoError(t, p.Submit(context.Background(), first))
	<-started
	require.NoError(t, p.Submit(context.Background(), blocker))

	// give the worker time to pick up the first task
	assert.Eventually(t, func() bool {
		return p.Submit(context.Background(), blocker) == ErrPoolFull
	}, time.Second, 5*time.Millisecond)

	close(block)
	p.Close()

	stats := p.Stats()
	assert.GreaterOrEqual(t, stats.Rejected, int64(1))
}

func TestGoroutinePool_ClosedRejects(t *testing.T) {
	p := NewGoroutinePool(DefaultGoroutinePoolConfig())
	p.Close()
	// double close is a no-op
	p.Close()

	err := p.Submit(context.Background(), func(ctx context.Context) error { return nil })
	assert.ErrorIs(t, err, ErrPoolClosed)

	err = p.SubmitWait(context.Background(), func(ctx context.Context) error { return nil })
	assert.ErrorIs(t, err, ErrPoolClosed)
}

func TestGoroutinePool_CloseDrainsQueue(t *testing.T) {
	cfg := DefaultGoroutinePoolConfig()
	cfg.MaxWorkers = 2
	p := NewGoroutinePool(cfg)

	var completed atomic.Int64
	for i := 0; i < 20; i++ {
		require.NoError(t, p.Submit(context.Background(), func(ctx context.Context) error {
			completed.Add(1)
			return nil
		}))
	}

	p.Close()
	assert.Equal(t, int64(20), completed.Load())
}

func TestGoroutinePool_PanicRecovered(t *testing.T) {
	var caught atomic.Value
	cfg := DefaultGoroutinePoolConfig()
	cfg.PanicHandler = func(r any) { caught.Store(r) }
	p := NewGoroutinePool(cfg)
	defer p.Close()

	err := p.SubmitWait(context.Background(), func(ctx context.Context) error {
		panic("row conversion blew up")
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panicked")
	assert.Equal(t, "row conversion blew up", caught.Load())
}

func TestGoroutinePool_Stats(t *testing.T) {
	p := NewGoroutinePool(DefaultGoroutinePoolConfig())

	require.NoError(t, p.SubmitWait(context.Background(), func(ctx context.Context) error { return nil }))
	require.Error(t, p.SubmitWait(context.Background(), func(ctx context.Context) error { return errors.New("x") }))
	p.Close()

	stats := p.Stats()
	assert.Equal(t, int64(2), stats.Submitted)
	assert.Equal(t, int64(1), stats.Completed)
	assert.Equal(t, int64(1), stats.Failed)
}

func TestObjectPool(t *testing.T) {
	type scratch struct{ n int }

	p := NewPool(
		func() *scratch { return &scratch{} },
		func(s **scratch) { (*s).n = 0 },
	)

	s := p.Get()
	s.n = 42
	p.Put(s)

	got := p.Get()
	assert.Equal(t, 0, got.n, "reset should run on Put")

	stats := p.Stats()
	assert.Equal(t, int64(2), stats.Gets)
	assert.Equal(t, int64(1), stats.Puts)
	assert.Equal(t, int64(1), stats.Resets)
}

func TestByteBufferPool(t *testing.T) {
	b := ByteBufferPool.Get()
	b.WriteString("report body")
	assert.Equal(t, "report body", b.String())
	ByteBufferPool.Put(b)

	// returned buffers come back reset
	b2 := ByteBufferPool.Get()
	assert.Zero(t, b2.Len())
	ByteBufferPool.Put(b2)
}
