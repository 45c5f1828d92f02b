package extractor

import (
	"context"
	"fmt"

	einomodel "github.com/cloudwego/eino/components/model"

	contractx "github.com/tanpawarit/Chative-Travel-Intake/agent/contract"
	llmx "github.com/tanpawarit/Chative-Travel-Intake/agent/llm"
	promptx "github.com/tanpawarit/Chative-Travel-Intake/agent/prompt"
)

// New builds the extraction oracle from LLM settings.
func New(ctx context.Context, cfg llmx.Config) (contractx.Extractor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	modelCfg := cfg.OpenRouterFor(contractx.AgentTypeExtractor)
	chatModel, err := modelCfg.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: create extractor model: %v", contractx.ErrModelInvoke, err)
	}

	return NewWithModel(ctx, chatModel)
}

// NewWithModel builds the extraction oracle around an existing chat model.
func NewWithModel(ctx context.Context, chatModel einomodel.BaseChatModel) (contractx.Extractor, error) {
	prompts := promptx.LoadPromptSet()
	if err := prompts.Validate(); err != nil {
		return nil, err
	}
	return newExtractor(ctx, chatModel, prompts.Extraction)
}
