package extractor

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/rs/zerolog"

	contractx "github.com/tanpawarit/Chative-Travel-Intake/agent/contract"
	statex "github.com/tanpawarit/Chative-Travel-Intake/agent/state"
)

const defaultConfidence = 0.8

var _ contractx.Extractor = (*extractorImpl)(nil)

type extractorImpl struct {
	runner compose.Runnable[map[string]any, llmOutput]
}

type llmOutput struct {
	ExtractedInfo    *extractedInfo `json:"extracted_info"`
	IsComplete       bool           `json:"is_complete"`
	MissingFields    []string       `json:"missing_fields,omitempty"`
	FollowUpQuestion *string        `json:"follow_up_question"`
	Confidence       *float64       `json:"confidence"`
}

// Models answer numbers as JSON numbers, sometimes with a fraction.
type extractedInfo struct {
	Origin        *string  `json:"origin"`
	Destination   *string  `json:"destination"`
	DepartureDate *string  `json:"departure_date"`
	ReturnDate    *string  `json:"return_date"`
	DurationDays  *float64 `json:"duration_days"`
	Passengers    *float64 `json:"passengers"`
	Budget        *float64 `json:"budget"`
	UserEmail     *string  `json:"user_email"`
}

func newExtractor(ctx context.Context, chatModel einomodel.BaseChatModel, systemPrompt string) (*extractorImpl, error) {
	if chatModel == nil {
		return nil, fmt.Errorf("%w: chat model is required", contractx.ErrValidation)
	}
	if strings.TrimSpace(systemPrompt) == "" {
		return nil, fmt.Errorf("%w: extraction", contractx.ErrPromptMissing)
	}
	runner, err := compileExtractionGraph(ctx, chatModel, systemPrompt)
	if err != nil {
		return nil, fmt.Errorf("%w: compile extraction graph: %v", contractx.ErrModelInvoke, err)
	}
	return &extractorImpl{runner: runner}, nil
}

func (e *extractorImpl) Extract(ctx context.Context, req contractx.ExtractionRequest) (contractx.ExtractionResponse, error) {
	if strings.TrimSpace(req.UserMessage) == "" {
		return contractx.ExtractionResponse{}, fmt.Errorf("%w: user message is required", contractx.ErrValidation)
	}

	current, err := json.MarshalIndent(req.Current, "", "  ")
	if err != nil {
		return contractx.ExtractionResponse{}, fmt.Errorf("%w: marshal current request: %v", contractx.ErrValidation, err)
	}

	out, err := e.runner.Invoke(ctx, map[string]any{
		"current": string(current),
		"today":   req.Today.String(),
		"input":   req.UserMessage,
	})
	if err != nil {
		return contractx.ExtractionResponse{}, fmt.Errorf("%w: extraction invoke: %v", contractx.ErrModelInvoke, err)
	}

	return toResponse(ctx, out)
}

func toResponse(ctx context.Context, out llmOutput) (contractx.ExtractionResponse, error) {
	if out.ExtractedInfo == nil {
		return contractx.ExtractionResponse{}, fmt.Errorf("%w: extracted_info is missing", contractx.ErrSchemaViolation)
	}
	info := out.ExtractedInfo
	logger := zerolog.Ctx(ctx)

	resp := contractx.ExtractionResponse{
		Patch: statex.Patch{
			Origin:        info.Origin,
			Destination:   info.Destination,
			DepartureDate: info.DepartureDate,
			ReturnDate:    info.ReturnDate,
			DurationDays:  wholeNumber(logger, "duration_days", info.DurationDays),
			Passengers:    wholeNumber(logger, "passengers", info.Passengers),
			Budget:        info.Budget,
			UserEmail:     info.UserEmail,
		},
		Complete:      out.IsComplete,
		MissingFields: out.MissingFields,
		Confidence:    defaultConfidence,
	}

	if out.Confidence != nil {
		resp.Confidence = math.Max(0, math.Min(1, *out.Confidence))
	}
	if q := out.FollowUpQuestion; q != nil {
		if v := strings.TrimSpace(*q); v != "" && !strings.EqualFold(v, "null") {
			resp.FollowUpQuestion = v
		}
	}

	return resp, nil
}

func wholeNumber(logger *zerolog.Logger, field string, v *float64) *int {
	if v == nil {
		return nil
	}
	if *v != math.Trunc(*v) || math.IsInf(*v, 0) {
		logger.Debug().Str("field", field).Float64("value", *v).Msg("dropping non-integer value")
		return nil
	}
	n := int(*v)
	return &n
}
