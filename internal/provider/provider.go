package provider

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/juankaspain/vuelosrobot-sub000/internal/flight"
)

// Sentinel error kinds for provider call outcomes. Timeout, HTTP, and parse
// errors are recovered by the orchestrator: they trip the breaker and fall
// through to the next provider. Rate-limit and circuit-open are local skip
// signals that never reach the network.
var (
	ErrTimeout     = errors.New("provider timeout")
	ErrHTTP        = errors.New("provider http error")
	ErrParse       = errors.New("provider parse error")
	ErrRateLimited = errors.New("provider rate budget exhausted")
	ErrCircuitOpen = errors.New("provider circuit open")
)

// Error wraps a sentinel kind with the provider name and cause.
type Error struct {
	Provider string
	Kind     error
	Cause    error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v: %v", e.Provider, e.Kind, e.Cause)
	}
	return fmt.Sprintf("%s: %v", e.Provider, e.Kind)
}

func (e *Error) Unwrap() error { return e.Kind }

func newError(provider string, kind, cause error) *Error {
	return &Error{Provider: provider, Kind: kind, Cause: cause}
}

// PriceProvider fetches a live quote for one route and travel date.
type PriceProvider interface {
	Name() string
	FetchPrice(ctx context.Context, route flight.Route, date time.Time) (flight.PriceQuote, error)
}

// classifyTransportError distinguishes deadline expiry from other transport
// failures so timeouts can be reported as their own kind.
func classifyTransportError(name string, err error) *Error {
	if errors.Is(err, context.DeadlineExceeded) {
		return newError(name, ErrTimeout, err)
	}
	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) && netErr.Timeout() {
		return newError(name, ErrTimeout, err)
	}
	return newError(name, ErrHTTP, err)
}
