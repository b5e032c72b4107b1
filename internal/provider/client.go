package provider

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/juankaspain/vuelosrobot-sub000/internal/breaker"
	"github.com/juankaspain/vuelosrobot-sub000/internal/flight"
	"github.com/juankaspain/vuelosrobot-sub000/internal/metrics"
	"github.com/juankaspain/vuelosrobot-sub000/internal/ratelimit"
)

// Client wraps one provider with rate limiting, circuit breaking, and
// rolling performance accounting.
type Client struct {
	provider PriceProvider
	limiter  *ratelimit.Limiter
	breaker  *breaker.Breaker
	registry *metrics.Registry
	timeout  time.Duration
	logger   zerolog.Logger
}

// NewClient builds a resilient client around a provider.
func NewClient(p PriceProvider, limiter *ratelimit.Limiter, brk *breaker.Breaker, registry *metrics.Registry, timeout time.Duration, logger zerolog.Logger) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		provider: p,
		limiter:  limiter,
		breaker:  brk,
		registry: registry,
		timeout:  timeout,
		logger:   logger.With().Str("component", "provider_client").Str("provider", p.Name()).Logger(),
	}
}

// Name returns the wrapped provider's name.
func (c *Client) Name() string { return c.provider.Name() }

// BreakerState exposes the breaker state for health reporting.
func (c *Client) BreakerState() breaker.State { return c.breaker.State() }

// RemainingBudget reports calls left in the provider's current rate period,
// or -1 when the provider is unlimited.
func (c *Client) RemainingBudget() int { return c.limiter.Remaining(c.provider.Name()) }

// FetchPrice runs the gated call sequence: rate budget, breaker admission,
// then the network call under a per-call timeout. The timeout context is
// detached from the caller's cancellation: an aborted scan lets in-flight
// calls complete so their results can still feed history.
func (c *Client) FetchPrice(ctx context.Context, route flight.Route, date time.Time) (flight.PriceQuote, error) {
	if !c.limiter.TryAcquire(c.provider.Name()) {
		return flight.PriceQuote{}, newError(c.provider.Name(), ErrRateLimited, nil)
	}
	if !c.breaker.Allow() {
		return flight.PriceQuote{}, newError(c.provider.Name(), ErrCircuitOpen, nil)
	}

	callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
	defer cancel()

	start := time.Now()
	quote, err := c.provider.FetchPrice(callCtx, route, date)
	latency := time.Since(start)

	if err != nil {
		c.breaker.RecordFailure()
		c.registry.Record(c.provider.Name(), latency, false)
		c.logger.Warn().Err(err).
			Str("route", route.Key()).
			Dur("latency", latency).
			Msg("provider call failed")
		return flight.PriceQuote{}, err
	}

	c.breaker.RecordSuccess()
	c.registry.Record(c.provider.Name(), latency, true)
	c.logger.Debug().
		Str("route", route.Key()).
		Str("price", quote.Price.String()).
		Dur("latency", latency).
		Msg("provider call succeeded")

	return quote, nil
}
