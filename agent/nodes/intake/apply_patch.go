package intakenode

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	contractx "github.com/tanpawarit/Chative-Travel-Intake/agent/contract"
	statex "github.com/tanpawarit/Chative-Travel-Intake/agent/state"
)

func ApplyPatch(ctx context.Context, in *GraphState) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	logger := zerolog.Ctx(ctx)
	if in.Extraction.Patch.IsEmpty() {
		logger.Debug().Msg("extraction returned an empty patch")
	}
	in.Request = statex.Merge(in.Request, in.Extraction.Patch)

	// The model's own completeness verdict never decides the turn.
	if complete := in.Request.IsComplete(); complete != in.Extraction.Complete {
		logger.Debug().
			Bool("model_complete", in.Extraction.Complete).
			Bool("request_complete", complete).
			Strs("missing", in.Request.MissingFields()).
			Msg("extraction completeness disagrees with request")
	}
	return in, nil
}

// SaveRequest stores the merged request, even when the patch changed nothing.
func SaveRequest(ctx context.Context, in *GraphState, store statex.Store) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}
	if err := store.Save(ctx, in.SessionID, in.Request); err != nil {
		return nil, fmt.Errorf("save session %s: %w", in.SessionID, err)
	}
	return in, nil
}
