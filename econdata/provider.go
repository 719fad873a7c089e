package econdata

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/BaSui01/webextract/internal/cache"
	"github.com/BaSui01/webextract/internal/metrics"
	"github.com/BaSui01/webextract/types"
)

// cacheKey is where the current snapshot lives in the cache.
const cacheKey = "econdata:snapshot"

// Provider produces economic snapshots for run annotation. Lookup order
// is cache, then live FRED data, then the built-in fallback values.
type Provider struct {
	client *FredClient
	store  cache.Store
	ttl    time.Duration

	collector *metrics.Collector
	logger    *zap.Logger

	mu   sync.Mutex
	last *types.EconomicSnapshot
}

// NewProvider creates a snapshot provider. store may be nil to disable
// caching; ttl controls how long a live snapshot stays cached.
func NewProvider(client *FredClient, store cache.Store, ttl time.Duration, logger *zap.Logger) *Provider {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Provider{
		client: client,
		store:  store,
		ttl:    ttl,
		logger: logger.With(zap.String("component", "econdata")),
	}
}

// NewInstrumented creates a provider that exports fetch and cache
// metrics.
func NewInstrumented(client *FredClient, store cache.Store, ttl time.Duration, collector *metrics.Collector, logger *zap.Logger) *Provider {
	p := NewProvider(client, store, ttl, logger)
	p.collector = collector
	return p
}

// GetSnapshot returns the current economic snapshot. It never fails:
// when live data cannot be fetched the last known snapshot (or the
// built-in defaults) is returned with Stale set, so a broken indicator
// feed cannot take down an extraction run. forceRefresh bypasses the
// cache.
func (p *Provider) GetSnapshot(ctx context.Context, forceRefresh bool) *types.EconomicSnapshot {
	snap := p.snapshot(ctx, forceRefresh)
	return &snap
}

// Snapshot is GetSnapshot without cache bypass, returned by value.
func (p *Provider) Snapshot(ctx context.Context) types.EconomicSnapshot {
	return p.snapshot(ctx, false)
}

func (p *Provider) snapshot(ctx context.Context, forceRefresh bool) types.EconomicSnapshot {
	if !forceRefresh {
		if snap, ok := p.fromCache(ctx); ok {
			return snap
		}
	}

	if p.client == nil || !p.client.HasKey() {
		p.logger.Warn("no FRED API key configured, using fallback economic data")
		return p.fallback()
	}

	snap, ok := p.fetchLive(ctx)
	if !ok {
		return p.fallback()
	}

	if p.collector != nil {
		p.collector.RecordEconFetch("success", false)
	}
	p.remember(snap)
	p.toCache(ctx, snap)
	return snap
}

func (p *Provider) remember(snap types.EconomicSnapshot) {
	p.mu.Lock()
	p.last = &snap
	p.mu.Unlock()
}

// fetchLive pulls all tracked series concurrently. Individual series
// failures fall back to the default value for that indicator; ok is
// false only when every series failed.
func (p *Provider) fetchLive(ctx context.Context) (types.EconomicSnapshot, bool) {
	defaults := types.DefaultEconomicSnapshot()
	snap := types.EconomicSnapshot{
		Timestamp: time.Now(),
		Source:    "fred_api",
	}

	targets := []struct {
		series   string
		dest     *float64
		fallback float64
	}{
		{SeriesUnemployment, &snap.UnemploymentRate, defaults.UnemploymentRate},
		{SeriesCPI, &snap.PriceIndex, defaults.PriceIndex},
		{SeriesFedFunds, &snap.PolicyRate, defaults.PolicyRate},
		{SeriesConsumerSentiment, &snap.ConsumerSentiment, defaults.ConsumerSentiment},
	}

	var g errgroup.Group
	failures := make([]bool, len(targets))
	for i, tgt := range targets {
		i, tgt := i, tgt
		g.Go(func() error {
			v, err := p.client.LatestValue(ctx, tgt.series)
			if err != nil {
				p.logger.Warn("fred series fetch failed",
					zap.String("series", tgt.series), zap.Error(err))
				*tgt.dest = tgt.fallback
				failures[i] = true
				return nil
			}
			*tgt.dest = v
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for _, f := range failures {
		if f {
			failed++
		}
	}
	if failed == len(targets) {
		return types.EconomicSnapshot{}, false
	}
	return snap, true
}

func (p *Provider) fromCache(ctx context.Context) (types.EconomicSnapshot, bool) {
	if p.store == nil {
		return types.EconomicSnapshot{}, false
	}

	var snap types.EconomicSnapshot
	err := p.store.GetJSON(ctx, cacheKey, &snap)
	if err == nil {
		if p.collector != nil {
			p.collector.RecordCacheHit("economic")
		}
		return snap, true
	}
	if p.collector != nil {
		p.collector.RecordCacheMiss("economic")
	}
	if !cache.IsCacheMiss(err) {
		p.logger.Warn("economic snapshot cache read failed", zap.Error(err))
	}
	return types.EconomicSnapshot{}, false
}

// toCache stores a live snapshot. Fallback snapshots are never cached
// so recovery is attempted on the next request.
func (p *Provider) toCache(ctx context.Context, snap types.EconomicSnapshot) {
	if p.store == nil {
		return
	}
	if err := p.store.SetJSON(ctx, cacheKey, snap, p.ttl); err != nil {
		p.logger.Warn("economic snapshot cache write failed", zap.Error(err))
	}
}

// fallback prefers the last snapshot that was fetched live over the
// hard-coded defaults. Either way the result is marked stale.
func (p *Provider) fallback() types.EconomicSnapshot {
	if p.collector != nil {
		p.collector.RecordEconFetch("failure", true)
	}

	p.mu.Lock()
	last := p.last
	p.mu.Unlock()
	if last != nil {
		snap := *last
		snap.Stale = true
		return snap
	}

	snap := *types.DefaultEconomicSnapshot()
	snap.Timestamp = time.Now()
	return snap
}
