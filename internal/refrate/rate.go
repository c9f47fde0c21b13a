// Package refrate resolves the central bank reference rate used to derive the
// statutory maximum nominal interest rate. Remote sources, caches and the
// clock are injected so callers control staleness and I/O explicitly.
package refrate

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

// ErrInvalidRate is returned when a fetched or cached payload does not carry a
// usable rate.
var ErrInvalidRate = errors.New("invalid reference rate")

// ErrNoFetcher is returned by Provider.Refresh when no remote source is configured.
var ErrNoFetcher = errors.New("no reference rate source configured")

// ReferenceRate is a reference rate observation.
type ReferenceRate struct {
	RatePct   float64   `json:"ratePct"`
	AsOf      string    `json:"asOf"`
	Source    string    `json:"source"`
	FetchedAt time.Time `json:"fetchedAt"`
}

// DefaultReferenceRate is the bundled fallback used when no remote or cached
// value is available.
var DefaultReferenceRate = ReferenceRate{
	RatePct: 5.75,
	AsOf:    "2026-02-07",
	Source:  "bundled-default",
}

// Validate checks that the rate is finite and dated.
func (r ReferenceRate) Validate() error {
	if math.IsNaN(r.RatePct) || math.IsInf(r.RatePct, 0) {
		return fmt.Errorf("%w: rate %v is not finite", ErrInvalidRate, r.RatePct)
	}
	if strings.TrimSpace(r.AsOf) == "" {
		return fmt.Errorf("%w: missing as-of date", ErrInvalidRate)
	}
	return nil
}

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

// SystemClock is a Clock backed by time.Now.
type SystemClock struct{}

// Now returns the current wall-clock time.
func (SystemClock) Now() time.Time {
	return time.Now()
}

// FixedClock always returns the same instant.
type FixedClock time.Time

// Now returns the fixed instant.
func (c FixedClock) Now() time.Time {
	return time.Time(c)
}
