package contract

import (
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	statex "github.com/tanpawarit/Chative-Travel-Intake/agent/state"
)

type AgentType string

const (
	AgentTypeExtractor AgentType = "extractor"
)

type ResponseType string

const (
	ResponseQuestion  ResponseType = "question"
	ResponseSuccess   ResponseType = "success"
	ResponseNoResults ResponseType = "no_results"
	ResponseError     ResponseType = "error"
)

type ExtractionRequest struct {
	UserMessage string               `json:"user_message"`
	Current     statex.TravelRequest `json:"current"`
	Today       civil.Date           `json:"today"`
}

// ExtractionResponse is what the extraction model believes about a message.
// Complete and MissingFields are advisory; the request itself decides.
type ExtractionResponse struct {
	Patch            statex.Patch `json:"patch"`
	Complete         bool         `json:"is_complete"`
	MissingFields    []string     `json:"missing_fields,omitempty"`
	FollowUpQuestion string       `json:"follow_up_question,omitempty"`
	Confidence       float64      `json:"confidence"`
}

type FlightOption struct {
	Airline       string  `json:"airline"`
	FlightNumber  string  `json:"flight_number"`
	DepartureTime string  `json:"departure_time"`
	ArrivalTime   string  `json:"arrival_time"`
	Duration      string  `json:"duration"`
	Price         float64 `json:"price"`
	Stops         int     `json:"stops"`
	BookingURL    string  `json:"booking_url,omitempty"`
}

type AccommodationOption struct {
	Name          string   `json:"name"`
	Type          string   `json:"type"`
	Rating        float64  `json:"rating,omitempty"`
	PricePerNight float64  `json:"price_per_night"`
	TotalPrice    float64  `json:"total_price"`
	Amenities     []string `json:"amenities,omitempty"`
	BookingURL    string   `json:"booking_url,omitempty"`
}

type TravelPackage struct {
	Flight        *FlightOption        `json:"flight,omitempty"`
	Accommodation *AccommodationOption `json:"accommodation,omitempty"`
	TotalPrice    float64              `json:"total_price"`
	Currency      string               `json:"currency"`
}

// Summary renders the package as a few chat-friendly lines.
func (p *TravelPackage) Summary() string {
	if p == nil {
		return ""
	}

	var lines []string
	if f := p.Flight; f != nil {
		lines = append(lines,
			fmt.Sprintf("✈️ Flight: %s %s", f.Airline, f.FlightNumber),
			fmt.Sprintf("   %s → %s", f.DepartureTime, f.ArrivalTime),
			fmt.Sprintf("   €%.2f", f.Price),
		)
	}
	if a := p.Accommodation; a != nil {
		lines = append(lines,
			fmt.Sprintf("🏨 Hotel: %s", a.Name),
			fmt.Sprintf("   €%.2f/night", a.PricePerNight),
			fmt.Sprintf("   Total: €%.2f", a.TotalPrice),
		)
	}
	lines = append(lines, fmt.Sprintf("💰 Total Package: €%.2f", p.TotalPrice))
	return strings.Join(lines, "\n")
}

// Response is the outcome of one conversational turn.
type Response struct {
	Type                 ResponseType          `json:"type"`
	Message              string                `json:"message"`
	SessionID            string                `json:"session_id"`
	TravelRequest        *statex.TravelRequest `json:"travel_request,omitempty"`
	Package              *TravelPackage        `json:"package,omitempty"`
	EmailSent            bool                  `json:"email_sent"`
	ConversationComplete bool                  `json:"conversation_complete"`
}

type FulfillmentRecord struct {
	SessionID   string
	Request     statex.TravelRequest
	Package     *TravelPackage
	EmailSent   bool
	CompletedAt time.Time
}
