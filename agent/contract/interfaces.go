package contract

import (
	"context"

	statex "github.com/tanpawarit/Chative-Travel-Intake/agent/state"
)

// Extractor turns one user message into a patch for the current request.
type Extractor interface {
	Extract(ctx context.Context, req ExtractionRequest) (ExtractionResponse, error)
}

// Searcher finds the single best package for a complete request.
// A nil package with a nil error means nothing matched.
type Searcher interface {
	SearchBestPackage(ctx context.Context, req statex.TravelRequest) (*TravelPackage, error)
}

// Mailer delivers the outcome of a fulfilled request. It reports success and
// never fails the turn.
type Mailer interface {
	SendTravelPackage(ctx context.Context, req statex.TravelRequest, pkg *TravelPackage) bool
}

// FulfillmentLedger records completed conversations.
type FulfillmentLedger interface {
	Record(ctx context.Context, rec FulfillmentRecord) error
}
