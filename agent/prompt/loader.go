package prompt

import (
	_ "embed"
	"fmt"
	"strings"

	contractx "github.com/tanpawarit/Chative-Travel-Intake/agent/contract"
)

var (
	//go:embed template/extraction.txt
	extractionRaw string
)

// PromptSet holds loaded prompt content.
type PromptSet struct {
	Extraction string
}

// LoadPromptSet returns a PromptSet with trimmed prompt strings.
func LoadPromptSet() PromptSet {
	return PromptSet{
		Extraction: strings.TrimSpace(extractionRaw),
	}
}

func (p PromptSet) Validate() error {
	if p.Extraction == "" {
		return fmt.Errorf("%w: extraction", contractx.ErrPromptMissing)
	}
	return nil
}
