package search

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	contractx "github.com/tanpawarit/Chative-Travel-Intake/agent/contract"
	statex "github.com/tanpawarit/Chative-Travel-Intake/agent/state"
	amadeusx "github.com/tanpawarit/Chative-Travel-Intake/pkg/amadeus"
)

// FlightOfferSearcher is the slice of the Amadeus client the searcher needs.
type FlightOfferSearcher interface {
	SearchFlightOffers(ctx context.Context, q amadeusx.FlightOfferQuery) (amadeusx.FlightOffersResult, error)
}

var _ contractx.Searcher = (*AmadeusSearcher)(nil)

// AmadeusSearcher prices the flight live and takes accommodation from the
// catalogue. Rejected credentials fall back to the whole catalogue package;
// any other failed flight lookup still returns the accommodation. Like the
// catalogue, a package whose total exceeds the budget is not offered.
type AmadeusSearcher struct {
	flights  FlightOfferSearcher
	fallback *CatalogSearcher
}

func NewAmadeusSearcher(flights FlightOfferSearcher) (*AmadeusSearcher, error) {
	if flights == nil {
		return nil, errors.New("flight offer searcher is required")
	}
	return &AmadeusSearcher{flights: flights, fallback: NewCatalogSearcher()}, nil
}

func (s *AmadeusSearcher) SearchBestPackage(ctx context.Context, req statex.TravelRequest) (*contractx.TravelPackage, error) {
	logger := zerolog.Ctx(ctx)
	if belowMinimumBudget(req) {
		logger.Info().Float64("budget", *req.Budget).Msg("budget too low for available options")
		return nil, nil
	}
	if req.DepartureDate == nil {
		return nil, fmt.Errorf("%w: departure date is required", contractx.ErrValidation)
	}

	flight, err := s.searchFlight(ctx, req)
	if errors.Is(err, amadeusx.ErrUnauthorized) {
		logger.Warn().Err(err).Msg("amadeus authentication failed, using catalogue")
		return s.fallback.SearchBestPackage(ctx, req)
	}
	if err != nil {
		logger.Warn().Err(err).Msg("flight search failed")
	}
	hotel := catalogAccommodation(req)

	pkg := &contractx.TravelPackage{
		Flight:        flight,
		Accommodation: hotel,
		Currency:      currencyEUR,
	}
	if flight != nil {
		pkg.TotalPrice += flight.Price
	}
	pkg.TotalPrice += hotel.TotalPrice

	if req.Budget != nil && pkg.TotalPrice > *req.Budget {
		logger.Info().
			Float64("total", pkg.TotalPrice).
			Float64("budget", *req.Budget).
			Msg("package exceeds budget")
		return nil, nil
	}
	return pkg, nil
}

func (s *AmadeusSearcher) searchFlight(ctx context.Context, req statex.TravelRequest) (*contractx.FlightOption, error) {
	res, err := s.flights.SearchFlightOffers(ctx, amadeusx.FlightOfferQuery{
		Origin:        CityCode(req.OriginValue()),
		Destination:   CityCode(req.DestinationValue()),
		DepartureDate: *req.DepartureDate,
		ReturnDate:    req.ReturnDate,
		Adults:        req.Passengers,
		Currency:      currencyEUR,
		Max:           1,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", contractx.ErrSearchUnavailable, err)
	}
	if len(res.Offers) == 0 {
		return nil, nil
	}

	flight, err := toFlightOption(res.Offers[0], res.Carriers)
	if err != nil {
		return nil, err
	}
	if req.Budget != nil && flight.Price > *req.Budget {
		zerolog.Ctx(ctx).Info().
			Float64("price", flight.Price).
			Float64("budget", *req.Budget).
			Msg("flight offer exceeds budget")
		return nil, nil
	}
	return flight, nil
}

func toFlightOption(offer amadeusx.FlightOffer, carriers map[string]string) (*contractx.FlightOption, error) {
	if len(offer.Itineraries) == 0 || len(offer.Itineraries[0].Segments) == 0 {
		return nil, fmt.Errorf("%w: flight offer %s has no segments", contractx.ErrSearchUnavailable, offer.ID)
	}
	outbound := offer.Itineraries[0]
	first := outbound.Segments[0]
	last := outbound.Segments[len(outbound.Segments)-1]

	price, err := offer.Price.TotalAmount()
	if err != nil {
		return nil, fmt.Errorf("%w: flight offer price %q: %v", contractx.ErrSearchUnavailable, offer.Price.Total, err)
	}

	airline := first.CarrierCode
	if name, ok := carriers[first.CarrierCode]; ok && name != "" {
		airline = name
	}

	return &contractx.FlightOption{
		Airline:       airline,
		FlightNumber:  first.CarrierCode + first.Number,
		DepartureTime: clockTime(first.Departure.At),
		ArrivalTime:   clockTime(last.Arrival.At),
		Duration:      humanDuration(outbound.Duration),
		Price:         price,
		Stops:         len(outbound.Segments) - 1,
		BookingURL:    "https://www.amadeus.com/flights?offer=" + url.QueryEscape(offer.ID),
	}, nil
}

// clockTime turns "2025-03-10T07:15:00" into "07:15".
func clockTime(at string) string {
	t, err := time.Parse("2006-01-02T15:04:05", at)
	if err != nil {
		return at
	}
	return t.Format("15:04")
}

// humanDuration turns an ISO-8601 duration like "PT2H5M" into "2h 5m".
func humanDuration(iso string) string {
	d, err := time.ParseDuration(strings.ToLower(strings.TrimPrefix(iso, "PT")))
	if err != nil || d <= 0 {
		return strings.TrimPrefix(iso, "PT")
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	switch {
	case h == 0:
		return fmt.Sprintf("%dm", m)
	case m == 0:
		return fmt.Sprintf("%dh", h)
	default:
		return fmt.Sprintf("%dh %dm", h, m)
	}
}
