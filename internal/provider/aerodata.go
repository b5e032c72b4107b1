package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/juankaspain/vuelosrobot-sub000/internal/flight"
)

const aeroDataSearchPath = "/v2/fares/search"

// AeroDataOptions parameterise the AeroData fetcher.
type AeroDataOptions struct {
	Name    string
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// AeroData fetches fares from the AeroData JSON API. The cheapest offer in
// the response wins.
type AeroData struct {
	opts    AeroDataOptions
	name    string
	baseURL string
	client  *http.Client
	logger  zerolog.Logger
}

// NewAeroData constructs an AeroData fetcher.
func NewAeroData(opts AeroDataOptions, logger zerolog.Logger) *AeroData {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	name := opts.Name
	if name == "" {
		name = "aerodata"
	}

	return &AeroData{
		opts:    opts,
		name:    name,
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		logger:  logger.With().Str("component", "aerodata_provider").Logger(),
	}
}

// Name identifies this provider in quotes and health reports.
func (a *AeroData) Name() string { return a.name }

// FetchPrice queries the search endpoint and returns the cheapest fare.
func (a *AeroData) FetchPrice(ctx context.Context, route flight.Route, date time.Time) (flight.PriceQuote, error) {
	if a.baseURL == "" {
		return flight.PriceQuote{}, newError(a.name, ErrHTTP, errors.New("base url not configured"))
	}

	params := url.Values{}
	params.Set("origin", route.Origin)
	params.Set("destination", route.Destination)
	params.Set("departure_date", date.Format("2006-01-02"))
	params.Set("currency", "EUR")

	endpoint := a.baseURL + aeroDataSearchPath + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return flight.PriceQuote{}, newError(a.name, ErrHTTP, err)
	}
	req.Header.Set("Accept", "application/json")
	if a.opts.APIKey != "" {
		req.Header.Set("X-Api-Key", a.opts.APIKey)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return flight.PriceQuote{}, classifyTransportError(a.name, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return flight.PriceQuote{}, newError(a.name, ErrHTTP, err)
	}

	if resp.StatusCode != http.StatusOK {
		return flight.PriceQuote{}, newError(a.name, ErrHTTP, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(payload))))
	}

	var result aeroDataResponse
	if err := json.Unmarshal(payload, &result); err != nil {
		return flight.PriceQuote{}, newError(a.name, ErrParse, err)
	}
	if len(result.Offers) == 0 {
		return flight.PriceQuote{}, newError(a.name, ErrParse, errors.New("no offers in response"))
	}

	best := result.Offers[0]
	for _, offer := range result.Offers[1:] {
		if offer.Amount.LessThan(best.Amount) {
			best = offer
		}
	}
	if !best.Amount.IsPositive() {
		return flight.PriceQuote{}, newError(a.name, ErrParse, errors.New("offer amount not positive"))
	}

	currency := best.Currency
	if currency == "" {
		currency = "EUR"
	}

	return flight.PriceQuote{
		Route:      route,
		TravelDate: date,
		Price:      flight.ConvertToEUR(best.Amount, currency),
		Currency:   "EUR",
		Source:     a.name,
		Confidence: 1.0,
		FetchedAt:  time.Now().UTC(),
	}, nil
}

type aeroDataResponse struct {
	Offers []aeroDataOffer `json:"offers"`
}

type aeroDataOffer struct {
	Carrier  string          `json:"carrier"`
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
	Stops    int             `json:"stops"`
}

var _ PriceProvider = (*AeroData)(nil)
