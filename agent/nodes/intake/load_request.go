package intakenode

import (
	"context"
	"errors"
	"fmt"

	contractx "github.com/tanpawarit/Chative-Travel-Intake/agent/contract"
	statex "github.com/tanpawarit/Chative-Travel-Intake/agent/state"
)

// LoadRequest fetches the session's request, starting a fresh one on first contact.
func LoadRequest(ctx context.Context, in *GraphState, store statex.Store) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	req, err := store.Load(ctx, in.SessionID)
	switch {
	case err == nil:
		in.Request = req
		in.Existing = true
	case errors.Is(err, statex.ErrStateNotFound):
		in.Request = statex.NewTravelRequest()
		in.Existing = false
	default:
		return nil, fmt.Errorf("load session %s: %w", in.SessionID, err)
	}
	return in, nil
}
