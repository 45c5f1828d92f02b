package intakenode

import (
	"strings"
	"time"

	contractx "github.com/tanpawarit/Chative-Travel-Intake/agent/contract"
	statex "github.com/tanpawarit/Chative-Travel-Intake/agent/state"
)

var (
	ErrInvalidMessage = contractx.ErrInvalidMessage
	ErrInvalidSession = statex.ErrInvalidSession
)

type GraphInput struct {
	SessionID string
	Text      string
}

type GraphOutput struct {
	Response contractx.Response
}

// GraphState travels through every node of a single turn.
type GraphState struct {
	SessionID string
	Text      string
	Now       time.Time

	Request  statex.TravelRequest
	Existing bool

	Extraction contractx.ExtractionResponse
	ExtractErr error

	Package   *contractx.TravelPackage
	EmailSent bool

	Response contractx.Response
}

func ValidateRequest(in GraphInput, nowFn func() time.Time) (*GraphState, error) {
	sessionID := strings.TrimSpace(in.SessionID)
	if sessionID == "" {
		return nil, ErrInvalidSession
	}

	text := strings.TrimSpace(in.Text)
	if text == "" {
		return nil, ErrInvalidMessage
	}

	return &GraphState{
		SessionID: sessionID,
		Text:      text,
		Now:       nowFn().UTC(),
	}, nil
}
