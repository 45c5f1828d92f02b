package search

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	contractx "github.com/tanpawarit/Chative-Travel-Intake/agent/contract"
	statex "github.com/tanpawarit/Chative-Travel-Intake/agent/state"
)

const (
	// MinimumBudget is the smallest budget any package can fit.
	MinimumBudget = 100.0

	defaultNights  = 3
	currencyEUR    = "EUR"
	hotelNightRate = 65.0
)

var _ contractx.Searcher = (*CatalogSearcher)(nil)

// CatalogSearcher answers from a fixed offer catalogue. It backs local
// development and the accommodation half of live searches.
type CatalogSearcher struct{}

func NewCatalogSearcher() *CatalogSearcher {
	return &CatalogSearcher{}
}

func (s *CatalogSearcher) SearchBestPackage(ctx context.Context, req statex.TravelRequest) (*contractx.TravelPackage, error) {
	logger := zerolog.Ctx(ctx)
	if belowMinimumBudget(req) {
		logger.Info().Float64("budget", *req.Budget).Msg("budget too low for available options")
		return nil, nil
	}

	flight := catalogFlight()
	hotel := catalogAccommodation(req)
	total := flight.Price + hotel.TotalPrice

	if req.Budget != nil && total > *req.Budget {
		logger.Info().
			Float64("total", total).
			Float64("budget", *req.Budget).
			Msg("catalogue package exceeds budget")
		return nil, nil
	}

	return &contractx.TravelPackage{
		Flight:        flight,
		Accommodation: hotel,
		TotalPrice:    total,
		Currency:      currencyEUR,
	}, nil
}

func belowMinimumBudget(req statex.TravelRequest) bool {
	return req.Budget != nil && *req.Budget < MinimumBudget
}

func catalogFlight() *contractx.FlightOption {
	return &contractx.FlightOption{
		Airline:       "TAP Air Portugal",
		FlightNumber:  "TP1234",
		DepartureTime: "08:30",
		ArrivalTime:   "11:45",
		Duration:      "3h 15m",
		Price:         89.99,
		Stops:         0,
		BookingURL:    "https://www.flytap.com/booking/12345",
	}
}

func catalogAccommodation(req statex.TravelRequest) *contractx.AccommodationOption {
	nights := defaultNights
	if req.DurationDays != nil && *req.DurationDays > 0 {
		nights = *req.DurationDays
	}
	return &contractx.AccommodationOption{
		Name:          fmt.Sprintf("Hotel Central %s", req.DestinationValue()),
		Type:          "hotel",
		Rating:        4.2,
		PricePerNight: hotelNightRate,
		TotalPrice:    hotelNightRate * float64(nights),
		Amenities:     []string{"WiFi", "Breakfast", "City Center"},
		BookingURL:    "https://www.booking.com/hotel/example",
	}
}
