// Package amadeus is a small client for the Amadeus Self-Service flight APIs.
package amadeus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/time/rate"
)

const (
	tokenPath            = "/v1/security/oauth2/token"
	flightOffersPath     = "/v2/shopping/flight-offers"
	maxResponseSizeBytes = 4 << 20
)

type Config struct {
	BaseURL           string        `envconfig:"BASE_URL" split_words:"true" default:"https://test.api.amadeus.com"`
	ClientID          string        `envconfig:"CLIENT_ID" split_words:"true"`
	ClientSecret      string        `envconfig:"CLIENT_SECRET" split_words:"true"`
	UseMock           bool          `split_words:"true" default:"true"`
	Timeout           time.Duration `split_words:"true" default:"15s"`
	RequestsPerSecond float64       `split_words:"true" default:"10"`
}

// Configured reports whether credentials are present.
func (c Config) Configured() bool {
	return strings.TrimSpace(c.ClientID) != "" && strings.TrimSpace(c.ClientSecret) != ""
}

// Enabled reports whether live searches should be used instead of the catalogue.
func (c Config) Enabled() bool {
	return c.Configured() && !c.UseMock
}

// ErrUnauthorized means the client credentials were not accepted.
var ErrUnauthorized = errors.New("amadeus authentication failed")

// APIError is a non-2xx answer from the API.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("amadeus http status=%d body=%s", e.StatusCode, e.Body)
}

func (e *APIError) Is(target error) bool {
	return target == ErrUnauthorized && e.StatusCode == http.StatusUnauthorized
}

type Client struct {
	baseURL    string
	tokens     oauth2.TokenSource
	httpClient *http.Client
	limiter    *rate.Limiter
}

func NewClient(cfg Config) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, errors.New("amadeus base url is required")
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("invalid amadeus base url: %w", err)
	}
	if !cfg.Configured() {
		return nil, errors.New("amadeus client id and secret are required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}

	creds := clientcredentials.Config{
		ClientID:     strings.TrimSpace(cfg.ClientID),
		ClientSecret: strings.TrimSpace(cfg.ClientSecret),
		TokenURL:     baseURL + tokenPath,
		AuthStyle:    oauth2.AuthStyleInParams,
	}
	tokenCtx := context.WithValue(context.Background(), oauth2.HTTPClient, &http.Client{Timeout: timeout})
	tokens := oauth2.ReuseTokenSource(nil, creds.TokenSource(tokenCtx))
	httpClient := oauth2.NewClient(tokenCtx, tokens)
	httpClient.Timeout = timeout

	return &Client{
		baseURL:    baseURL,
		tokens:     tokens,
		httpClient: httpClient,
		limiter:    rate.NewLimiter(limit, 1),
	}, nil
}

type FlightOfferQuery struct {
	Origin        string
	Destination   string
	DepartureDate civil.Date
	ReturnDate    *civil.Date
	Adults        int
	Currency      string
	Max           int
}

func (q FlightOfferQuery) values() url.Values {
	v := url.Values{}
	v.Set("originLocationCode", q.Origin)
	v.Set("destinationLocationCode", q.Destination)
	v.Set("departureDate", q.DepartureDate.String())
	adults := q.Adults
	if adults < 1 {
		adults = 1
	}
	v.Set("adults", strconv.Itoa(adults))
	currency := q.Currency
	if currency == "" {
		currency = "EUR"
	}
	v.Set("currencyCode", currency)
	limit := q.Max
	if limit < 1 {
		limit = 1
	}
	v.Set("max", strconv.Itoa(limit))
	if q.ReturnDate != nil {
		v.Set("returnDate", q.ReturnDate.String())
	}
	return v
}

type FlightOffer struct {
	ID          string      `json:"id"`
	Itineraries []Itinerary `json:"itineraries"`
	Price       Price       `json:"price"`
}

type Itinerary struct {
	Duration string    `json:"duration"`
	Segments []Segment `json:"segments"`
}

type Segment struct {
	Departure   Endpoint `json:"departure"`
	Arrival     Endpoint `json:"arrival"`
	CarrierCode string   `json:"carrierCode"`
	Number      string   `json:"number"`
	Duration    string   `json:"duration"`
}

type Endpoint struct {
	IATACode string `json:"iataCode"`
	At       string `json:"at"`
}

type Price struct {
	Currency string `json:"currency"`
	Total    string `json:"total"`
}

// TotalAmount parses the decimal string the API uses for prices.
func (p Price) TotalAmount() (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(p.Total), 64)
}

type FlightOffersResult struct {
	Offers   []FlightOffer
	Carriers map[string]string // carrier code -> name
}

type flightOffersEnvelope struct {
	Data         []FlightOffer `json:"data"`
	Dictionaries struct {
		Carriers map[string]string `json:"carriers"`
	} `json:"dictionaries"`
}

// SearchFlightOffers calls the flight offers search. Calls are paced by the
// configured rate limit. A token that cannot be obtained or a 401 answer
// matches ErrUnauthorized.
func (c *Client) SearchFlightOffers(ctx context.Context, q FlightOfferQuery) (FlightOffersResult, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return FlightOffersResult{}, err
	}
	if _, err := c.tokens.Token(); err != nil {
		return FlightOffersResult{}, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}

	endpoint := c.baseURL + flightOffersPath + "?" + q.values().Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return FlightOffersResult{}, fmt.Errorf("build flight offers request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.amadeus+json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return FlightOffersResult{}, fmt.Errorf("execute flight offers request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSizeBytes))
	if err != nil {
		return FlightOffersResult{}, fmt.Errorf("read flight offers response: %w", err)
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return FlightOffersResult{}, &APIError{StatusCode: resp.StatusCode, Body: string(raw)}
	}

	var env flightOffersEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return FlightOffersResult{}, fmt.Errorf("decode flight offers response: %w", err)
	}
	return FlightOffersResult{Offers: env.Data, Carriers: env.Dictionaries.Carriers}, nil
}
