package amadeus

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const offersBody = `{
  "data": [{
    "id": "1",
    "itineraries": [{
      "duration": "PT2H5M",
      "segments": [{
        "departure": {"iataCode": "OPO", "at": "2025-03-10T07:15:00"},
        "arrival": {"iataCode": "LHR", "at": "2025-03-10T09:20:00"},
        "carrierCode": "TP",
        "number": "1332",
        "duration": "PT2H5M"
      }]
    }],
    "price": {"currency": "EUR", "total": "120.55"}
  }],
  "dictionaries": {"carriers": {"TP": "TAP PORTUGAL"}}
}`

func newFakeAmadeus(t *testing.T, tokenCalls *atomic.Int32, gotQuery *string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc(tokenPath, func(w http.ResponseWriter, r *http.Request) {
		tokenCalls.Add(1)
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "client_credentials", r.PostForm.Get("grant_type"))
		assert.Equal(t, "id", r.PostForm.Get("client_id"))
		assert.Equal(t, "secret", r.PostForm.Get("client_secret"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"tok","token_type":"Bearer","expires_in":1799}`))
	})
	mux.HandleFunc(flightOffersPath, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		*gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/vnd.amadeus+json")
		_, _ = w.Write([]byte(offersBody))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestSearchFlightOffers(t *testing.T) {
	var tokenCalls atomic.Int32
	var gotQuery string
	srv := newFakeAmadeus(t, &tokenCalls, &gotQuery)

	client, err := NewClient(Config{BaseURL: srv.URL, ClientID: "id", ClientSecret: "secret", RequestsPerSecond: 100})
	require.NoError(t, err)

	ret := civil.Date{Year: 2025, Month: time.March, Day: 13}
	res, err := client.SearchFlightOffers(context.Background(), FlightOfferQuery{
		Origin:        "OPO",
		Destination:   "LON",
		DepartureDate: civil.Date{Year: 2025, Month: time.March, Day: 10},
		ReturnDate:    &ret,
		Adults:        2,
	})
	require.NoError(t, err)
	require.Len(t, res.Offers, 1)

	offer := res.Offers[0]
	total, err := offer.Price.TotalAmount()
	require.NoError(t, err)
	assert.Equal(t, 120.55, total)
	assert.Equal(t, "TP", offer.Itineraries[0].Segments[0].CarrierCode)
	assert.Equal(t, "TAP PORTUGAL", res.Carriers["TP"])

	assert.Contains(t, gotQuery, "originLocationCode=OPO")
	assert.Contains(t, gotQuery, "destinationLocationCode=LON")
	assert.Contains(t, gotQuery, "departureDate=2025-03-10")
	assert.Contains(t, gotQuery, "returnDate=2025-03-13")
	assert.Contains(t, gotQuery, "adults=2")
	assert.Contains(t, gotQuery, "currencyCode=EUR")
	assert.Contains(t, gotQuery, "max=1")

	_, err = client.SearchFlightOffers(context.Background(), FlightOfferQuery{Origin: "OPO", Destination: "LON"})
	require.NoError(t, err)
	assert.Equal(t, int32(1), tokenCalls.Load(), "token should be cached between searches")
}

func TestSearchFlightOffersAPIError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc(tokenPath, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"tok","token_type":"Bearer","expires_in":1799}`))
	})
	mux.HandleFunc(flightOffersPath, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"errors":[{"code":477,"title":"INVALID FORMAT"}]}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	client, err := NewClient(Config{BaseURL: srv.URL, ClientID: "id", ClientSecret: "secret"})
	require.NoError(t, err)

	_, err = client.SearchFlightOffers(context.Background(), FlightOfferQuery{Origin: "OPO", Destination: "LON"})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
}

func TestSearchFlightOffersUnauthorized(t *testing.T) {
	tests := []struct {
		name          string
		tokenStatus   int
		offersStatus  int
		wantAPIStatus int
	}{
		{name: "token rejected", tokenStatus: http.StatusUnauthorized},
		{name: "search rejected", tokenStatus: http.StatusOK, offersStatus: http.StatusUnauthorized, wantAPIStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mux := http.NewServeMux()
			mux.HandleFunc(tokenPath, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				if tt.tokenStatus != http.StatusOK {
					w.WriteHeader(tt.tokenStatus)
					_, _ = w.Write([]byte(`{"error":"invalid_client"}`))
					return
				}
				_, _ = w.Write([]byte(`{"access_token":"tok","token_type":"Bearer","expires_in":1799}`))
			})
			mux.HandleFunc(flightOffersPath, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.offersStatus)
			})
			srv := httptest.NewServer(mux)
			t.Cleanup(srv.Close)

			client, err := NewClient(Config{BaseURL: srv.URL, ClientID: "id", ClientSecret: "wrong"})
			require.NoError(t, err)

			_, err = client.SearchFlightOffers(context.Background(), FlightOfferQuery{Origin: "OPO", Destination: "LON"})
			require.ErrorIs(t, err, ErrUnauthorized)

			var apiErr *APIError
			if tt.wantAPIStatus != 0 {
				require.ErrorAs(t, err, &apiErr)
				assert.Equal(t, tt.wantAPIStatus, apiErr.StatusCode)
			}
		})
	}
}

func TestAPIErrorIsUnauthorizedOnlyFor401(t *testing.T) {
	assert.ErrorIs(t, &APIError{StatusCode: http.StatusUnauthorized}, ErrUnauthorized)
	assert.NotErrorIs(t, &APIError{StatusCode: http.StatusBadRequest}, ErrUnauthorized)
}

func TestNewClientRequiresCredentials(t *testing.T) {
	_, err := NewClient(Config{BaseURL: "https://test.api.amadeus.com"})
	require.Error(t, err)
}

func TestConfigEnabled(t *testing.T) {
	cfg := Config{ClientID: "id", ClientSecret: "secret", UseMock: true}
	assert.True(t, cfg.Configured())
	assert.False(t, cfg.Enabled())

	cfg.UseMock = false
	assert.True(t, cfg.Enabled())
}
