package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/juankaspain/vuelosrobot-sub000/internal/flight"
)

const fareBeamQuotePath = "/api/v1/quotes"

// FareBeamOptions parameterise the FareBeam fetcher.
type FareBeamOptions struct {
	Name      string
	BaseURL   string
	APIKey    string
	Timeout   time.Duration
	UserAgent string
}

// FareBeam fetches fares from the FareBeam quote API. Unlike AeroData this
// API takes a POST with a JSON body and returns decimal prices as strings.
type FareBeam struct {
	opts    FareBeamOptions
	name    string
	baseURL string
	client  *http.Client
	logger  zerolog.Logger
}

// NewFareBeam constructs a FareBeam fetcher.
func NewFareBeam(opts FareBeamOptions, logger zerolog.Logger) *FareBeam {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	name := opts.Name
	if name == "" {
		name = "farebeam"
	}

	return &FareBeam{
		opts:    opts,
		name:    name,
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		logger:  logger.With().Str("component", "farebeam_provider").Logger(),
	}
}

// Name identifies this provider in quotes and health reports.
func (f *FareBeam) Name() string { return f.name }

type fareBeamRequest struct {
	From       string `json:"from"`
	To         string `json:"to"`
	DepartDate string `json:"depart_date"`
	Currency   string `json:"currency"`
	Passengers int    `json:"passengers"`
}

type fareBeamResponse struct {
	Status string `json:"status"`
	Quote  struct {
		Total    string `json:"total"`
		Currency string `json:"currency"`
		Airline  string `json:"airline"`
	} `json:"quote"`
	Message string `json:"message"`
}

// FetchPrice posts a quote request and parses the single best quote.
func (f *FareBeam) FetchPrice(ctx context.Context, route flight.Route, date time.Time) (flight.PriceQuote, error) {
	if f.baseURL == "" {
		return flight.PriceQuote{}, newError(f.name, ErrHTTP, errors.New("base url not configured"))
	}

	body, err := json.Marshal(fareBeamRequest{
		From:       route.Origin,
		To:         route.Destination,
		DepartDate: date.Format("2006-01-02"),
		Currency:   "EUR",
		Passengers: 1,
	})
	if err != nil {
		return flight.PriceQuote{}, newError(f.name, ErrParse, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.baseURL+fareBeamQuotePath, bytes.NewReader(body))
	if err != nil {
		return flight.PriceQuote{}, newError(f.name, ErrHTTP, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if ua := strings.TrimSpace(f.opts.UserAgent); ua != "" {
		req.Header.Set("User-Agent", ua)
	}
	if f.opts.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+f.opts.APIKey)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return flight.PriceQuote{}, classifyTransportError(f.name, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return flight.PriceQuote{}, newError(f.name, ErrHTTP, err)
	}

	if resp.StatusCode != http.StatusOK {
		return flight.PriceQuote{}, newError(f.name, ErrHTTP, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(payload))))
	}

	var result fareBeamResponse
	if err := json.Unmarshal(payload, &result); err != nil {
		return flight.PriceQuote{}, newError(f.name, ErrParse, err)
	}
	if result.Status != "ok" {
		return flight.PriceQuote{}, newError(f.name, ErrParse, fmt.Errorf("status %q: %s", result.Status, result.Message))
	}

	total, err := decimal.NewFromString(result.Quote.Total)
	if err != nil {
		return flight.PriceQuote{}, newError(f.name, ErrParse, fmt.Errorf("parse total: %w", err))
	}
	if !total.IsPositive() {
		return flight.PriceQuote{}, newError(f.name, ErrParse, errors.New("quote total not positive"))
	}

	currency := result.Quote.Currency
	if currency == "" {
		currency = "EUR"
	}

	return flight.PriceQuote{
		Route:      route,
		TravelDate: date,
		Price:      flight.ConvertToEUR(total, currency),
		Currency:   "EUR",
		Source:     f.name,
		Confidence: 1.0,
		FetchedAt:  time.Now().UTC(),
	}, nil
}

var _ PriceProvider = (*FareBeam)(nil)
