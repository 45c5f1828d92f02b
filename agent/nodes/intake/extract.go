package intakenode

import (
	"context"
	"fmt"
	"regexp"

	"cloud.google.com/go/civil"
	"github.com/rs/zerolog"

	contractx "github.com/tanpawarit/Chative-Travel-Intake/agent/contract"
	statex "github.com/tanpawarit/Chative-Travel-Intake/agent/state"
	"github.com/tanpawarit/Chative-Travel-Intake/pkg/metrics"
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// IsEmailReply reports whether an email address is the whole message and the
// stored request lacks nothing else.
func IsEmailReply(in *GraphState) bool {
	if in == nil || !in.Existing {
		return false
	}
	return emailPattern.MatchString(in.Text) && in.Request.OnlyEmailMissing()
}

// AcceptEmailReply fills the email slot directly without asking the model.
func AcceptEmailReply(ctx context.Context, in *GraphState) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	email := in.Text
	in.Request = statex.Merge(in.Request, statex.Patch{UserEmail: &email})
	metrics.RecordEmailShortcut()
	zerolog.Ctx(ctx).Info().Msg("bare email reply accepted")
	return in, nil
}

// Extract asks the extraction model for a patch. A failure is kept on the
// state so the turn can re-prompt instead of failing.
func Extract(ctx context.Context, in *GraphState, extractor contractx.Extractor) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	out, err := callExtractor(ctx, extractor, contractx.ExtractionRequest{
		UserMessage: in.Text,
		Current:     in.Request.Clone(),
		Today:       civil.DateOf(in.Now),
	})
	if err != nil {
		metrics.RecordExtractionFailure()
		zerolog.Ctx(ctx).Warn().Err(err).Msg("extraction failed")
		in.ExtractErr = err
		return in, nil
	}

	in.Extraction = out
	return in, nil
}

// callExtractor turns a panicking extractor into an ordinary extraction error.
func callExtractor(ctx context.Context, extractor contractx.Extractor, req contractx.ExtractionRequest) (out contractx.ExtractionResponse, err error) {
	defer func() {
		if r := recover(); r != nil {
			out, err = contractx.ExtractionResponse{}, fmt.Errorf("%w: extractor panic: %v", contractx.ErrModelInvoke, r)
		}
	}()
	return extractor.Extract(ctx, req)
}

// Reprompt answers a turn the model could not understand. The stored request
// is left as it was.
func Reprompt(in *GraphState) (GraphOutput, error) {
	if in == nil {
		return GraphOutput{}, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}
	return GraphOutput{Response: contractx.Response{
		Type:      contractx.ResponseQuestion,
		Message:   statex.QuestionReprompt,
		SessionID: in.SessionID,
	}}, nil
}
