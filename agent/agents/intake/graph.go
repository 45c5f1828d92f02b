package intake

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/compose"

	contractx "github.com/tanpawarit/Chative-Travel-Intake/agent/contract"
	nodex "github.com/tanpawarit/Chative-Travel-Intake/agent/nodes/intake"
)

func (s *Service) compileTurnGraph(
	ctx context.Context,
) (compose.Runnable[nodex.GraphInput, nodex.GraphOutput], error) {
	graph := compose.NewGraph[nodex.GraphInput, nodex.GraphOutput]()

	if err := graph.AddLambdaNode("validate_request",
		compose.InvokableLambda(func(ctx context.Context, in nodex.GraphInput) (*nodex.GraphState, error) {
			return nodex.ValidateRequest(in, s.now)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node validate_request: %w", err)
	}

	if err := graph.AddLambdaNode("load_request",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.LoadRequest(ctx, in, s.store)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node load_request: %w", err)
	}

	if err := graph.AddLambdaNode("accept_email_reply",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.AcceptEmailReply(ctx, in)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node accept_email_reply: %w", err)
	}

	if err := graph.AddLambdaNode("extract",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.Extract(ctx, in, s.extractor)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node extract: %w", err)
	}

	if err := graph.AddLambdaNode("reprompt",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (nodex.GraphOutput, error) {
			return nodex.Reprompt(in)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node reprompt: %w", err)
	}

	if err := graph.AddLambdaNode("apply_patch",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.ApplyPatch(ctx, in)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node apply_patch: %w", err)
	}

	if err := graph.AddLambdaNode("save_request",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.SaveRequest(ctx, in, s.store)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node save_request: %w", err)
	}

	if err := graph.AddLambdaNode("ask_follow_up",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (nodex.GraphOutput, error) {
			return nodex.AskFollowUp(in)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node ask_follow_up: %w", err)
	}

	if err := graph.AddLambdaNode("fulfill",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (nodex.GraphOutput, error) {
			return nodex.Fulfill(ctx, in, nodex.Fulfillment{
				Store:    s.store,
				Searcher: s.searcher,
				Mailer:   s.mailer,
				Ledger:   s.ledger,
			})
		}),
	); err != nil {
		return nil, fmt.Errorf("add node fulfill: %w", err)
	}

	branches := []struct {
		from    string
		route   func(in *nodex.GraphState) string
		targets map[string]bool
	}{
		{
			from: "load_request",
			route: func(in *nodex.GraphState) string {
				if nodex.IsEmailReply(in) {
					return "accept_email_reply"
				}
				return "extract"
			},
			targets: map[string]bool{"accept_email_reply": true, "extract": true},
		},
		{
			from: "extract",
			route: func(in *nodex.GraphState) string {
				if in.ExtractErr != nil {
					return "reprompt"
				}
				return "apply_patch"
			},
			targets: map[string]bool{"reprompt": true, "apply_patch": true},
		},
		{
			from: "save_request",
			route: func(in *nodex.GraphState) string {
				if in.Request.IsComplete() {
					return "fulfill"
				}
				return "ask_follow_up"
			},
			targets: map[string]bool{"fulfill": true, "ask_follow_up": true},
		},
	}

	for _, b := range branches {
		route := b.route
		branch := compose.NewGraphBranch(
			func(ctx context.Context, in *nodex.GraphState) (string, error) {
				if in == nil {
					return "", fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
				}
				return route(in), nil
			},
			b.targets,
		)
		if err := graph.AddBranch(b.from, branch); err != nil {
			return nil, fmt.Errorf("add branch from %s: %w", b.from, err)
		}
	}

	edges := [][2]string{
		{compose.START, "validate_request"},
		{"validate_request", "load_request"},
		{"accept_email_reply", "fulfill"},
		{"apply_patch", "save_request"},
		{"reprompt", compose.END},
		{"ask_follow_up", compose.END},
		{"fulfill", compose.END},
	}

	for _, edge := range edges {
		if err := graph.AddEdge(edge[0], edge[1]); err != nil {
			return nil, fmt.Errorf("add edge %s->%s: %w", edge[0], edge[1], err)
		}
	}

	runner, err := graph.Compile(ctx, compose.WithGraphName("intake.handle_message"))
	if err != nil {
		return nil, fmt.Errorf("compile intake graph: %w", err)
	}
	return runner, nil
}
