package intakenode

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	contractx "github.com/tanpawarit/Chative-Travel-Intake/agent/contract"
	statex "github.com/tanpawarit/Chative-Travel-Intake/agent/state"
	"github.com/tanpawarit/Chative-Travel-Intake/pkg/metrics"
)

// Fulfillment groups the collaborators a completed request is handed to.
type Fulfillment struct {
	Store    statex.Store
	Searcher contractx.Searcher
	Mailer   contractx.Mailer
	Ledger   contractx.FulfillmentLedger
}

// Fulfill searches, emails and closes the session. Search and email failures
// degrade the reply; they never fail the turn.
func Fulfill(ctx context.Context, in *GraphState, f Fulfillment) (GraphOutput, error) {
	if in == nil {
		return GraphOutput{}, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}
	logger := zerolog.Ctx(ctx)
	req := in.Request.Clone()

	pkg, err := searchPackage(ctx, f.Searcher, req)
	if err != nil {
		logger.Warn().Err(err).Msg("package search failed, answering with no results")
		pkg = nil
	}
	metrics.RecordFulfillment(pkg != nil)

	sent := f.Mailer.SendTravelPackage(ctx, req, pkg)
	metrics.RecordEmail(sent)

	if err := f.Store.Delete(ctx, in.SessionID); err != nil {
		logger.Error().Err(err).Msg("delete fulfilled session")
	}

	if err := f.Ledger.Record(ctx, contractx.FulfillmentRecord{
		SessionID:   in.SessionID,
		Request:     req,
		Package:     pkg,
		EmailSent:   sent,
		CompletedAt: in.Now,
	}); err != nil {
		logger.Error().Err(err).Msg("record fulfillment")
	}

	in.Package = pkg
	in.EmailSent = sent
	logger.Info().Bool("package", pkg != nil).Bool("email_sent", sent).Msg("request fulfilled")

	resp := contractx.Response{
		SessionID:            in.SessionID,
		TravelRequest:        &req,
		Package:              pkg,
		EmailSent:            sent,
		ConversationComplete: true,
	}
	if pkg != nil {
		resp.Type = contractx.ResponseSuccess
		resp.Message = successMessage(req, pkg, sent)
	} else {
		resp.Type = contractx.ResponseNoResults
		resp.Message = noResultsMessage(req, sent)
	}
	return GraphOutput{Response: resp}, nil
}

// searchPackage turns a panicking searcher into ErrSearchUnavailable.
func searchPackage(ctx context.Context, searcher contractx.Searcher, req statex.TravelRequest) (pkg *contractx.TravelPackage, err error) {
	defer func() {
		if r := recover(); r != nil {
			pkg, err = nil, fmt.Errorf("%w: searcher panic: %v", contractx.ErrSearchUnavailable, r)
		}
	}()
	return searcher.SearchBestPackage(ctx, req)
}

func successMessage(req statex.TravelRequest, pkg *contractx.TravelPackage, sent bool) string {
	var b strings.Builder
	b.WriteString("🎉 Perfect! I found a great travel package for you:\n\n")
	b.WriteString(pkg.Summary())
	b.WriteString("\n\n")
	b.WriteString(emailLine(req, sent, "the complete details with booking links"))
	b.WriteString("\n\nReady to plan another trip? Just tell me where you'd like to go next!")
	return b.String()
}

func noResultsMessage(req statex.TravelRequest, sent bool) string {
	var b strings.Builder
	b.WriteString("😔 I couldn't find any travel packages matching your criteria:\n\n")
	fmt.Fprintf(&b, "📍 Route: %s → %s\n", req.OriginValue(), req.DestinationValue())
	if req.DepartureDate != nil {
		fmt.Fprintf(&b, "📅 Date: %s\n", req.DepartureDate.In(time.UTC).Format("January 02, 2006"))
	}
	fmt.Fprintf(&b, "👥 Travelers: %d\n", req.Passengers)
	if req.Budget != nil {
		fmt.Fprintf(&b, "💰 Budget: €%.2f\n", *req.Budget)
	}
	b.WriteString("\n")
	b.WriteString(emailLine(req, sent, "this information"))
	b.WriteString("\n\nTry adjusting your criteria or different dates. Want to search again?")
	return b.String()
}

func emailLine(req statex.TravelRequest, sent bool, what string) string {
	if sent {
		return fmt.Sprintf("📧 I've sent %s to %s", what, req.UserEmailValue())
	}
	return fmt.Sprintf("⚠️ I couldn't email %s to %s this time.", what, req.UserEmailValue())
}
