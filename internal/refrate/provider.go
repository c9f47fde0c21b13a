package refrate

import (
	"context"
	"time"

	"github.com/iwvelando/credit-calculator/pkg/constants"
	"go.uber.org/zap"
)

// Origin describes where a resolved rate came from.
type Origin string

// Possible origins of a resolved rate.
const (
	OriginCache      Origin = "cache"
	OriginRemote     Origin = "remote"
	OriginStaleCache Origin = "stale-cache"
	OriginDefault    Origin = "default"
)

// Result is a resolved reference rate. Get never fails; Err carries the fetch
// error that forced a fallback, if any.
type Result struct {
	Rate   ReferenceRate `json:"rate"`
	Origin Origin        `json:"origin"`
	Err    error         `json:"-"`
}

// Provider resolves the reference rate from cache, remote source and bundled
// default, in that order of preference.
type Provider struct {
	fetcher Fetcher
	cache   Cache
	clock   Clock
	maxAge  time.Duration
	key     string
	logger  *zap.Logger
}

// NewProvider creates a Provider. A nil fetcher disables remote lookups, a nil
// cache selects an in-memory cache and a nil clock the system clock. A
// non-positive maxAge keeps cache entries fresh forever.
func NewProvider(fetcher Fetcher, cache Cache, clock Clock, maxAge time.Duration, logger *zap.Logger) *Provider {
	if cache == nil {
		cache = NewMemoryCache()
	}
	if clock == nil {
		clock = SystemClock{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Provider{
		fetcher: fetcher,
		cache:   cache,
		clock:   clock,
		maxAge:  maxAge,
		key:     constants.ReferenceRateCacheKey,
		logger:  logger,
	}
}

// Get returns the current reference rate. With preferCache a fresh cache entry
// short-circuits the remote fetch. Fetch failures fall back to the cached
// entry regardless of age and then to DefaultReferenceRate.
func (p *Provider) Get(ctx context.Context, preferCache bool) Result {
	cached, hasCached := p.lookup(ctx)

	if preferCache && hasCached && p.isFresh(cached) {
		return Result{Rate: cached, Origin: OriginCache}
	}

	rate, err := p.Refresh(ctx)
	if err == nil {
		return Result{Rate: rate, Origin: OriginRemote}
	}

	if hasCached {
		p.logger.Warn("using stale reference rate",
			zap.String("op", "refrate.Get"),
			zap.String("asOf", cached.AsOf),
			zap.Error(err),
		)
		return Result{Rate: cached, Origin: OriginStaleCache, Err: err}
	}

	p.logger.Warn("using bundled reference rate",
		zap.String("op", "refrate.Get"),
		zap.Error(err),
	)
	return Result{Rate: DefaultReferenceRate, Origin: OriginDefault, Err: err}
}

// Refresh fetches the remote rate and stores it in the cache.
func (p *Provider) Refresh(ctx context.Context) (ReferenceRate, error) {
	if p.fetcher == nil {
		return ReferenceRate{}, ErrNoFetcher
	}

	rate, err := p.fetcher.Fetch(ctx)
	if err != nil {
		return ReferenceRate{}, err
	}
	rate.FetchedAt = p.clock.Now().UTC()

	if err := p.cache.Set(ctx, p.key, rate); err != nil {
		p.logger.Warn("failed to cache reference rate",
			zap.String("op", "refrate.Refresh"),
			zap.Error(err),
		)
	}

	p.logger.Info("reference rate refreshed",
		zap.String("op", "refrate.Refresh"),
		zap.Float64("ratePct", rate.RatePct),
		zap.String("asOf", rate.AsOf),
		zap.String("source", rate.Source),
	)
	return rate, nil
}

func (p *Provider) lookup(ctx context.Context) (ReferenceRate, bool) {
	cached, ok, err := p.cache.Get(ctx, p.key)
	if err != nil {
		p.logger.Warn("failed to read reference rate cache",
			zap.String("op", "refrate.lookup"),
			zap.Error(err),
		)
		return ReferenceRate{}, false
	}
	return cached, ok
}

func (p *Provider) isFresh(rate ReferenceRate) bool {
	if p.maxAge <= 0 {
		return true
	}
	return p.clock.Now().Sub(rate.FetchedAt) <= p.maxAge
}
