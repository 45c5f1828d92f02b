package state

import (
	"cloud.google.com/go/civil"
)

// Required request fields, in the order follow-up questions walk them.
const (
	FieldOrigin        = "origin"
	FieldDestination   = "destination"
	FieldDepartureDate = "departure_date"
	FieldUserEmail     = "user_email"
)

// TravelRequest is the slot set a conversation fills turn by turn.
// Nil pointers mean "not provided yet".
type TravelRequest struct {
	Origin        *string     `json:"origin"`
	Destination   *string     `json:"destination"`
	DepartureDate *civil.Date `json:"departure_date"`
	ReturnDate    *civil.Date `json:"return_date"`
	DurationDays  *int        `json:"duration_days"`
	Passengers    int         `json:"passengers"`
	Budget        *float64    `json:"budget"`
	UserEmail     *string     `json:"user_email"`
}

func NewTravelRequest() TravelRequest {
	return TravelRequest{Passengers: 1}
}

// IsComplete reports whether the request has everything needed to search and deliver.
func (r TravelRequest) IsComplete() bool {
	return len(r.MissingFields()) == 0
}

// MissingFields returns the absent required fields in a fixed order.
func (r TravelRequest) MissingFields() []string {
	missing := make([]string, 0, 4)
	if isBlank(r.Origin) {
		missing = append(missing, FieldOrigin)
	}
	if isBlank(r.Destination) {
		missing = append(missing, FieldDestination)
	}
	if r.DepartureDate == nil {
		missing = append(missing, FieldDepartureDate)
	}
	if isBlank(r.UserEmail) {
		missing = append(missing, FieldUserEmail)
	}
	return missing
}

// OnlyEmailMissing reports whether the email address is the single missing field.
func (r TravelRequest) OnlyEmailMissing() bool {
	missing := r.MissingFields()
	return len(missing) == 1 && missing[0] == FieldUserEmail
}

// Clone returns a deep copy that shares no pointers with r.
func (r TravelRequest) Clone() TravelRequest {
	out := TravelRequest{
		Origin:        clonePtr(r.Origin),
		Destination:   clonePtr(r.Destination),
		DepartureDate: clonePtr(r.DepartureDate),
		ReturnDate:    clonePtr(r.ReturnDate),
		DurationDays:  clonePtr(r.DurationDays),
		Passengers:    r.Passengers,
		Budget:        clonePtr(r.Budget),
		UserEmail:     clonePtr(r.UserEmail),
	}
	if out.Passengers < 1 {
		out.Passengers = 1
	}
	return out
}

// Value helpers for callers that render the request.

func (r TravelRequest) OriginValue() string      { return deref(r.Origin) }
func (r TravelRequest) DestinationValue() string { return deref(r.Destination) }
func (r TravelRequest) UserEmailValue() string   { return deref(r.UserEmail) }

func isBlank(s *string) bool {
	return s == nil || *s == ""
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
