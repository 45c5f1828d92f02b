package intakenode

import (
	"fmt"

	contractx "github.com/tanpawarit/Chative-Travel-Intake/agent/contract"
	statex "github.com/tanpawarit/Chative-Travel-Intake/agent/state"
)

// AskFollowUp prefers the model's question and falls back to the fixed order.
func AskFollowUp(in *GraphState) (GraphOutput, error) {
	if in == nil {
		return GraphOutput{}, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	question := in.Extraction.FollowUpQuestion
	if question == "" {
		question = statex.NextQuestion(in.Request)
	}

	return GraphOutput{Response: contractx.Response{
		Type:      contractx.ResponseQuestion,
		Message:   question,
		SessionID: in.SessionID,
	}}, nil
}
