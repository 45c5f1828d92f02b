package extractor

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	contractx "github.com/tanpawarit/Chative-Travel-Intake/agent/contract"
	statex "github.com/tanpawarit/Chative-Travel-Intake/agent/state"
)

type fakeToolCallingModel struct {
	responses []*schema.Message
	err       error
	idx       int
	inputs    [][]*schema.Message
}

func (f *fakeToolCallingModel) Generate(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.Message, error) {
	f.inputs = append(f.inputs, input)
	if f.err != nil {
		return nil, f.err
	}
	if f.idx >= len(f.responses) {
		return nil, errors.New("no fake response left")
	}
	msg := f.responses[f.idx]
	f.idx++
	return msg, nil
}

func (f *fakeToolCallingModel) Stream(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("stream not implemented in fake model")
}

func (f *fakeToolCallingModel) WithTools(tools []*schema.ToolInfo) (einomodel.ToolCallingChatModel, error) {
	return f, nil
}

var today = civil.Date{Year: 2025, Month: time.March, Day: 1}

func TestExtractParsesFencedJSON(t *testing.T) {
	t.Parallel()

	fake := &fakeToolCallingModel{
		responses: []*schema.Message{
			{
				Role: schema.Assistant,
				Content: "```json\n" + `{"extracted_info":{"origin":"Porto","destination":"London","departure_date":"2025-03-10","return_date":null,"duration_days":3,"passengers":null,"budget":500,"user_email":null},"is_complete":false,"missing_fields":["user_email"],"follow_up_question":"What's your email?","confidence":0.9}` + "\n```",
			},
		},
	}

	ex, err := NewWithModel(context.Background(), fake)
	if err != nil {
		t.Fatalf("NewWithModel() error = %v", err)
	}

	out, err := ex.Extract(context.Background(), contractx.ExtractionRequest{
		UserMessage: "Porto to London on March 10th for 3 days under 500 euros",
		Current:     statex.NewTravelRequest(),
		Today:       today,
	})
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}

	p := out.Patch
	if p.Origin == nil || *p.Origin != "Porto" {
		t.Fatalf("unexpected origin: %v", p.Origin)
	}
	if p.DepartureDate == nil || *p.DepartureDate != "2025-03-10" {
		t.Fatalf("unexpected departure: %v", p.DepartureDate)
	}
	if p.DurationDays == nil || *p.DurationDays != 3 {
		t.Fatalf("unexpected duration: %v", p.DurationDays)
	}
	if p.Passengers != nil {
		t.Fatalf("passengers = %d, want nil", *p.Passengers)
	}
	if p.Budget == nil || *p.Budget != 500 {
		t.Fatalf("unexpected budget: %v", p.Budget)
	}
	if out.FollowUpQuestion != "What's your email?" {
		t.Fatalf("unexpected follow-up: %q", out.FollowUpQuestion)
	}
	if out.Confidence != 0.9 {
		t.Fatalf("unexpected confidence: %v", out.Confidence)
	}
	if len(out.MissingFields) != 1 || out.MissingFields[0] != "user_email" {
		t.Fatalf("unexpected missing fields: %#v", out.MissingFields)
	}
}

func TestExtractFormatsPromptWithContext(t *testing.T) {
	t.Parallel()

	fake := &fakeToolCallingModel{
		responses: []*schema.Message{
			{Content: `{"extracted_info":{},"is_complete":false}`},
		},
	}
	ex, err := NewWithModel(context.Background(), fake)
	if err != nil {
		t.Fatalf("NewWithModel() error = %v", err)
	}

	current := statex.NewTravelRequest()
	origin := "Porto"
	current.Origin = &origin

	if _, err := ex.Extract(context.Background(), contractx.ExtractionRequest{
		UserMessage: "to London please",
		Current:     current,
		Today:       today,
	}); err != nil {
		t.Fatalf("Extract() error = %v", err)
	}

	if len(fake.inputs) != 1 || len(fake.inputs[0]) != 2 {
		t.Fatalf("unexpected model input: %#v", fake.inputs)
	}
	system, user := fake.inputs[0][0], fake.inputs[0][1]
	if !strings.Contains(system.Content, "2025-03-01") {
		t.Fatal("system prompt missing today's date")
	}
	if !strings.Contains(system.Content, `"origin": "Porto"`) {
		t.Fatalf("system prompt missing current request:\n%s", system.Content)
	}
	if !strings.Contains(system.Content, `"extracted_info": {`) {
		t.Fatal("system prompt braces were not unescaped")
	}
	if user.Content != "to London please" {
		t.Fatalf("user message = %q", user.Content)
	}
}

func TestExtractNormalizesModelQuirks(t *testing.T) {
	t.Parallel()

	fake := &fakeToolCallingModel{
		responses: []*schema.Message{
			{Content: `{"extracted_info":{"passengers":2.5,"duration_days":4.0},"is_complete":false,"follow_up_question":"null","confidence":7}`},
		},
	}
	ex, err := NewWithModel(context.Background(), fake)
	if err != nil {
		t.Fatalf("NewWithModel() error = %v", err)
	}

	out, err := ex.Extract(context.Background(), contractx.ExtractionRequest{UserMessage: "two and a half of us for 4 days", Today: today})
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if out.Patch.Passengers != nil {
		t.Fatalf("fractional passengers kept: %d", *out.Patch.Passengers)
	}
	if out.Patch.DurationDays == nil || *out.Patch.DurationDays != 4 {
		t.Fatalf("unexpected duration: %v", out.Patch.DurationDays)
	}
	if out.FollowUpQuestion != "" {
		t.Fatalf("follow-up = %q, want empty", out.FollowUpQuestion)
	}
	if out.Confidence != 1 {
		t.Fatalf("confidence = %v, want clamped 1", out.Confidence)
	}
}

func TestExtractDefaultConfidence(t *testing.T) {
	t.Parallel()

	fake := &fakeToolCallingModel{
		responses: []*schema.Message{{Content: `{"extracted_info":{"origin":"Porto"}}`}},
	}
	ex, err := NewWithModel(context.Background(), fake)
	if err != nil {
		t.Fatalf("NewWithModel() error = %v", err)
	}

	out, err := ex.Extract(context.Background(), contractx.ExtractionRequest{UserMessage: "from Porto", Today: today})
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if out.Confidence != defaultConfidence {
		t.Fatalf("confidence = %v, want %v", out.Confidence, defaultConfidence)
	}
}

func TestExtractFailures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		model   *fakeToolCallingModel
		wantErr error
	}{
		{
			name:    "model error",
			model:   &fakeToolCallingModel{err: errors.New("upstream 503")},
			wantErr: contractx.ErrModelInvoke,
		},
		{
			name:    "not json",
			model:   &fakeToolCallingModel{responses: []*schema.Message{{Content: "Sure! Where to?"}}},
			wantErr: contractx.ErrModelInvoke,
		},
		{
			name:    "missing extracted_info",
			model:   &fakeToolCallingModel{responses: []*schema.Message{{Content: `{"is_complete":true}`}}},
			wantErr: contractx.ErrSchemaViolation,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ex, err := NewWithModel(context.Background(), tt.model)
			if err != nil {
				t.Fatalf("NewWithModel() error = %v", err)
			}
			_, err = ex.Extract(context.Background(), contractx.ExtractionRequest{UserMessage: "hello", Today: today})
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Extract() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestExtractRejectsEmptyMessage(t *testing.T) {
	t.Parallel()

	ex, err := NewWithModel(context.Background(), &fakeToolCallingModel{})
	if err != nil {
		t.Fatalf("NewWithModel() error = %v", err)
	}
	_, err = ex.Extract(context.Background(), contractx.ExtractionRequest{UserMessage: "  "})
	if !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("Extract() error = %v, want ErrValidation", err)
	}
}

func TestStripCodeFences(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"```json\n{\"a\":1}\n```": `{"a":1}`,
		"```\n{\"a\":1}\n```":     `{"a":1}`,
		"  {\"a\":1}  ":           `{"a":1}`,
	}
	for in, want := range tests {
		if got := stripCodeFences(in); got != want {
			t.Fatalf("stripCodeFences(%q) = %q, want %q", in, got, want)
		}
	}
}
