package state

const (
	QuestionOrigin        = "Where would you like to travel from?"
	QuestionDestination   = "Where would you like to go?"
	QuestionDepartureDate = "When would you like to depart?"
	QuestionUserEmail     = "What's your email address so I can send you the booking details?"
	QuestionTripLength    = "How long would you like to stay? (e.g., '3 days' or 'return on Friday')"
	QuestionPassengers    = "How many travelers will there be?"
	QuestionBudget        = "Do you have a budget in mind for this trip?"
	QuestionAnythingElse  = "Is there anything else you'd like to specify for your trip?"

	// QuestionReprompt is asked when a message could not be understood at all.
	QuestionReprompt = "I'm sorry, I didn't understand that. Could you please tell me where you'd like to travel from and to?"
)

var requiredQuestions = map[string]string{
	FieldOrigin:        QuestionOrigin,
	FieldDestination:   QuestionDestination,
	FieldDepartureDate: QuestionDepartureDate,
	FieldUserEmail:     QuestionUserEmail,
}

// NextQuestion picks the deterministic follow-up for r.
// Required fields come first, then optional refinements.
func NextQuestion(r TravelRequest) string {
	if missing := r.MissingFields(); len(missing) > 0 {
		return requiredQuestions[missing[0]]
	}
	switch {
	case r.ReturnDate == nil && r.DurationDays == nil:
		return QuestionTripLength
	case r.Passengers == 1:
		return QuestionPassengers
	case r.Budget == nil:
		return QuestionBudget
	default:
		return QuestionAnythingElse
	}
}
