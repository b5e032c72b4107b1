package flight

import (
	"fmt"
	"strings"
	"time"
)

// Route identifies an origin/destination airport pair. Routes compare equal
// by (Origin, Destination); the label is display-only.
type Route struct {
	Origin      string
	Destination string
	Label       string
}

// ValidationError reports malformed route or date input. It is the only
// error surfaced to callers of the acquisition path.
type ValidationError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
}

// NewRoute validates both airport codes and returns an immutable route value.
func NewRoute(origin, destination string) (Route, error) {
	origin = strings.ToUpper(strings.TrimSpace(origin))
	destination = strings.ToUpper(strings.TrimSpace(destination))

	if err := validateCode("origin", origin); err != nil {
		return Route{}, err
	}
	if err := validateCode("destination", destination); err != nil {
		return Route{}, err
	}
	if origin == destination {
		return Route{}, &ValidationError{Field: "route", Value: origin + "-" + destination, Reason: "origin and destination must differ"}
	}

	return Route{
		Origin:      origin,
		Destination: destination,
		Label:       origin + " → " + destination,
	}, nil
}

// ParseRoute accepts "MAD-BCN" or "MAD/BCN" style input.
func ParseRoute(s string) (Route, error) {
	normalized := strings.NewReplacer("/", "-", "→", "-", " ", "").Replace(s)
	parts := strings.Split(normalized, "-")
	if len(parts) != 2 {
		return Route{}, &ValidationError{Field: "route", Value: s, Reason: "expected ORIGIN-DESTINATION"}
	}
	return NewRoute(parts[0], parts[1])
}

// Key returns the canonical identity used for cache and history keys.
func (r Route) Key() string {
	return r.Origin + "-" + r.Destination
}

func (r Route) String() string {
	return r.Key()
}

// Equal compares routes by (origin, destination) only.
func (r Route) Equal(other Route) bool {
	return r.Origin == other.Origin && r.Destination == other.Destination
}

func validateCode(field, code string) error {
	if len(code) != 3 {
		return &ValidationError{Field: field, Value: code, Reason: "IATA code must be exactly 3 letters"}
	}
	for _, c := range code {
		if c < 'A' || c > 'Z' {
			return &ValidationError{Field: field, Value: code, Reason: "IATA code must be uppercase letters"}
		}
	}
	return nil
}

// ValidateTravelDate rejects zero and past dates. Same-day searches are
// allowed; anything earlier fails fast without retry or fallback.
func ValidateTravelDate(date time.Time, now time.Time) error {
	if date.IsZero() {
		return &ValidationError{Field: "date", Value: "", Reason: "travel date is required"}
	}
	if date.Before(now.Truncate(24 * time.Hour)) {
		return &ValidationError{Field: "date", Value: date.Format("2006-01-02"), Reason: "travel date is in the past"}
	}
	return nil
}
