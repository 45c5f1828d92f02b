package state

import (
	"strings"

	"cloud.google.com/go/civil"
	"github.com/rs/zerolog/log"
)

// Patch carries the values extracted from one user message.
// Nil fields leave the base request untouched. Dates arrive as YYYY-MM-DD strings.
type Patch struct {
	Origin        *string  `json:"origin"`
	Destination   *string  `json:"destination"`
	DepartureDate *string  `json:"departure_date"`
	ReturnDate    *string  `json:"return_date"`
	DurationDays  *int     `json:"duration_days"`
	Passengers    *int     `json:"passengers"`
	Budget        *float64 `json:"budget"`
	UserEmail     *string  `json:"user_email"`
}

// IsEmpty reports whether the patch carries no value at all.
func (p Patch) IsEmpty() bool {
	return p.Origin == nil &&
		p.Destination == nil &&
		p.DepartureDate == nil &&
		p.ReturnDate == nil &&
		p.DurationDays == nil &&
		p.Passengers == nil &&
		p.Budget == nil &&
		p.UserEmail == nil
}

// Merge applies patch on top of base and returns the result. base is not modified.
//
// Non-null patch values overwrite, nulls keep what base had. Values that fail
// validation (bad dates, negative numbers, fewer than one passenger) are skipped.
// After the overwrites at most one of return date and duration is derived from
// the other, and only when it is still empty.
func Merge(base TravelRequest, patch Patch) TravelRequest {
	out := base.Clone()

	if v, ok := text(patch.Origin); ok {
		out.Origin = &v
	}
	if v, ok := text(patch.Destination); ok {
		out.Destination = &v
	}
	if d, ok := date(FieldDepartureDate, patch.DepartureDate); ok {
		out.DepartureDate = &d
	}
	if d, ok := date("return_date", patch.ReturnDate); ok {
		out.ReturnDate = &d
	}
	if patch.DurationDays != nil {
		if *patch.DurationDays >= 0 {
			v := *patch.DurationDays
			out.DurationDays = &v
		} else {
			log.Warn().Int("duration_days", *patch.DurationDays).Msg("ignoring negative duration")
		}
	}
	if patch.Passengers != nil {
		if *patch.Passengers >= 1 {
			out.Passengers = *patch.Passengers
		} else {
			log.Warn().Int("passengers", *patch.Passengers).Msg("ignoring passenger count below one")
		}
	}
	if patch.Budget != nil {
		if *patch.Budget >= 0 {
			v := *patch.Budget
			out.Budget = &v
		} else {
			log.Warn().Float64("budget", *patch.Budget).Msg("ignoring negative budget")
		}
	}
	if v, ok := text(patch.UserEmail); ok {
		out.UserEmail = &v
	}

	deriveTripLength(&out)
	return out
}

func deriveTripLength(r *TravelRequest) {
	if r.DepartureDate == nil {
		return
	}
	switch {
	case r.DurationDays != nil && r.ReturnDate == nil:
		ret := r.DepartureDate.AddDays(*r.DurationDays)
		r.ReturnDate = &ret
	case r.ReturnDate != nil && r.DurationDays == nil:
		days := r.ReturnDate.DaysSince(*r.DepartureDate)
		if days < 0 {
			log.Warn().
				Str("departure_date", r.DepartureDate.String()).
				Str("return_date", r.ReturnDate.String()).
				Msg("return date precedes departure, duration not derived")
			return
		}
		r.DurationDays = &days
	}
}

// text trims s and treats blanks and a literal "null" as absent.
func text(s *string) (string, bool) {
	if s == nil {
		return "", false
	}
	v := strings.TrimSpace(*s)
	if v == "" || strings.EqualFold(v, "null") {
		return "", false
	}
	return v, true
}

func date(field string, s *string) (civil.Date, bool) {
	v, ok := text(s)
	if !ok {
		return civil.Date{}, false
	}
	d, err := civil.ParseDate(v)
	if err != nil || !d.IsValid() {
		log.Warn().Err(err).Str("field", field).Str("value", v).Msg("ignoring malformed date")
		return civil.Date{}, false
	}
	return d, true
}
