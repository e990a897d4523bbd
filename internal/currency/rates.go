// Package currency converts bill amounts between currencies using a
// time-bounded cache of exchange rates.
package currency

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// ErrUnknownCurrency is returned when no rate exists for a currency code.
var ErrUnknownCurrency = errors.New("unknown currency")

// RateSource fetches exchange rates. Each rate is the number of units of
// that currency worth one unit of the source's base currency.
type RateSource interface {
	FetchRates(ctx context.Context) (map[string]decimal.Decimal, error)
}

// StaticRates is a fixed RateSource, typically loaded from configuration.
type StaticRates map[string]decimal.Decimal

// FetchRates returns a copy of the static table.
func (r StaticRates) FetchRates(ctx context.Context) (map[string]decimal.Decimal, error) {
	out := make(map[string]decimal.Decimal, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out, nil
}

// ParseRates parses "USD:1,EUR:0.92" into a StaticRates table.
func ParseRates(s string) (StaticRates, error) {
	rates := StaticRates{}
	for _, pair := range strings.Split(s, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		code, value, ok := strings.Cut(pair, ":")
		if !ok {
			return nil, fmt.Errorf("invalid rate %q: want CODE:RATE", pair)
		}
		rate, err := decimal.NewFromString(strings.TrimSpace(value))
		if err != nil {
			return nil, fmt.Errorf("invalid rate %q: %w", pair, err)
		}
		if !rate.IsPositive() {
			return nil, fmt.Errorf("invalid rate %q: must be positive", pair)
		}
		rates[normalize(code)] = rate
	}
	return rates, nil
}

// Cache serves rates from a RateSource, refetching once the TTL has passed.
// Safe for concurrent use.
type Cache struct {
	source RateSource
	ttl    time.Duration
	clock  func() time.Time

	mu        sync.Mutex
	rates     map[string]decimal.Decimal
	fetchedAt time.Time
}

// NewCache creates a cache over source. A zero ttl refetches on every lookup.
func NewCache(source RateSource, ttl time.Duration, clock func() time.Time) *Cache {
	if clock == nil {
		clock = time.Now
	}
	return &Cache{source: source, ttl: ttl, clock: clock}
}

// Rate returns how many units of to one unit of from is worth.
func (c *Cache) Rate(ctx context.Context, from, to string) (decimal.Decimal, error) {
	from, to = normalize(from), normalize(to)
	if from == to {
		return decimal.NewFromInt(1), nil
	}

	rates, err := c.current(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	fromRate, ok := rates[from]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrUnknownCurrency, from)
	}
	toRate, ok := rates[to]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrUnknownCurrency, to)
	}
	return toRate.Div(fromRate), nil
}

// Convert converts amount from one currency to another, rounded to cents.
func (c *Cache) Convert(ctx context.Context, amount decimal.Decimal, from, to string) (decimal.Decimal, error) {
	rate, err := c.Rate(ctx, from, to)
	if err != nil {
		return decimal.Zero, err
	}
	return amount.Mul(rate).Round(2), nil
}

// current returns the cached table, refreshing it when stale. A failed
// refresh falls back to the previous table when there is one.
func (c *Cache) current(ctx context.Context) (map[string]decimal.Decimal, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock()
	if c.rates != nil && now.Sub(c.fetchedAt) < c.ttl {
		return c.rates, nil
	}

	rates, err := c.source.FetchRates(ctx)
	if err != nil {
		if c.rates != nil {
			slog.Warn("Failed to refresh exchange rates, using stale rates",
				"error", err,
				"fetched_at", c.fetchedAt,
			)
			return c.rates, nil
		}
		return nil, fmt.Errorf("failed to fetch exchange rates: %w", err)
	}

	normalized := make(map[string]decimal.Decimal, len(rates))
	for k, v := range rates {
		normalized[normalize(k)] = v
	}
	c.rates = normalized
	c.fetchedAt = now
	return c.rates, nil
}

func normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
