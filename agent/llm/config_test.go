package llm

import (
	"errors"
	"testing"

	contractx "github.com/tanpawarit/Chative-Travel-Intake/agent/contract"
)

func TestConfigValidateRequiresAPIKey(t *testing.T) {
	t.Parallel()

	err := Config{Model: "m"}.Validate()
	if !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("Validate() error = %v, want ErrValidation", err)
	}
}

func TestConfigOpenRouterForExtractorOverrides(t *testing.T) {
	t.Parallel()

	cfg := Config{
		APIKey:               " key ",
		Model:                "base-model",
		Temperature:          0.5,
		MaxCompletionToken:   800,
		ExtractorModel:       "extractor-model",
		ExtractorTemperature: 0.1,
	}

	got := cfg.OpenRouterFor(contractx.AgentTypeExtractor)
	if got.Model != "extractor-model" {
		t.Fatalf("Model = %q, want extractor-model", got.Model)
	}
	if got.Temperature != 0.1 {
		t.Fatalf("Temperature = %v, want 0.1", got.Temperature)
	}
	if got.APIKey != "key" {
		t.Fatalf("APIKey = %q, want trimmed key", got.APIKey)
	}
	if got.MaxCompletionToken == nil || *got.MaxCompletionToken != 800 {
		t.Fatalf("MaxCompletionToken = %v, want 800", got.MaxCompletionToken)
	}
}

func TestConfigOpenRouterForFallsBackToDefaults(t *testing.T) {
	t.Parallel()

	cfg := Config{Model: "base-model", Temperature: 0.3, ExtractorTemperature: -1}
	got := cfg.OpenRouterFor(contractx.AgentTypeExtractor)
	if got.Model != "base-model" || got.Temperature != 0.3 {
		t.Fatalf("OpenRouterFor() = %+v, want defaults", got)
	}
}
