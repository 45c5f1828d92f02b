package intake

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/cloudwego/eino/compose"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	contractx "github.com/tanpawarit/Chative-Travel-Intake/agent/contract"
	nodex "github.com/tanpawarit/Chative-Travel-Intake/agent/nodes/intake"
	statex "github.com/tanpawarit/Chative-Travel-Intake/agent/state"
	logx "github.com/tanpawarit/Chative-Travel-Intake/pkg/logger"
	"github.com/tanpawarit/Chative-Travel-Intake/pkg/metrics"
)

var (
	ErrInvalidMessage = nodex.ErrInvalidMessage
	ErrInvalidSession = nodex.ErrInvalidSession
)

const turnFailedMessage = "Sorry, I encountered an error while processing your request. Please try again."

// Service runs conversational turns until a travel request is complete, then
// hands it off for search and delivery.
type Service struct {
	store     statex.Store
	extractor contractx.Extractor
	searcher  contractx.Searcher
	mailer    contractx.Mailer
	ledger    contractx.FulfillmentLedger
	locker    *statex.SessionLocker

	graphRunner compose.Runnable[nodex.GraphInput, nodex.GraphOutput]

	now   func() time.Time
	newID func() string
}

func New(
	store statex.Store,
	extractor contractx.Extractor,
	searcher contractx.Searcher,
	mailer contractx.Mailer,
	ledger contractx.FulfillmentLedger,
) (*Service, error) {
	if store == nil {
		return nil, errors.New("session store is required")
	}
	if extractor == nil {
		return nil, errors.New("extractor is required")
	}
	if searcher == nil {
		return nil, errors.New("searcher is required")
	}
	if mailer == nil {
		return nil, errors.New("mailer is required")
	}
	if ledger == nil {
		return nil, errors.New("fulfillment ledger is required")
	}

	s := &Service{
		store:     store,
		extractor: extractor,
		searcher:  searcher,
		mailer:    mailer,
		ledger:    ledger,
		locker:    statex.NewSessionLocker(),
		now:       time.Now,
		newID:     uuid.NewString,
	}

	graphRunner, err := s.compileTurnGraph(context.Background())
	if err != nil {
		return nil, err
	}
	s.graphRunner = graphRunner

	return s, nil
}

// HandleMessage runs one turn. An empty session id starts a new conversation
// under a generated id, returned in the response. Only an empty message is
// reported as an error; every other failure becomes an error-typed response.
func (s *Service) HandleMessage(ctx context.Context, sessionID string, text string) (contractx.Response, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return contractx.Response{}, ErrInvalidMessage
	}
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		sessionID = s.newID()
	}

	ctx = logx.WithSession(ctx, sessionID)
	logger := zerolog.Ctx(ctx)

	var resp contractx.Response
	err := s.locker.WithLock(ctx, sessionID, func(ctx context.Context) error {
		out, err := s.graphRunner.Invoke(ctx, nodex.GraphInput{
			SessionID: sessionID,
			Text:      text,
		})
		if err != nil {
			return err
		}
		resp = out.Response
		return nil
	})
	if err != nil {
		logger.Error().Err(err).Msg("turn failed")
		resp = contractx.Response{
			Type:      contractx.ResponseError,
			Message:   turnFailedMessage,
			SessionID: sessionID,
		}
	}

	metrics.RecordTurn(string(resp.Type))
	s.reportActiveSessions()
	logger.Debug().Str("type", string(resp.Type)).Msg("turn handled")
	return resp, nil
}

// ClearSession forgets whatever the session collected so far.
func (s *Service) ClearSession(ctx context.Context, sessionID string) error {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return ErrInvalidSession
	}

	err := s.locker.WithLock(ctx, sessionID, func(ctx context.Context) error {
		return s.store.Delete(ctx, sessionID)
	})
	if err != nil {
		return err
	}
	s.reportActiveSessions()
	return nil
}

func (s *Service) reportActiveSessions() {
	if counter, ok := s.store.(interface{ Len() int }); ok {
		metrics.SetActiveSessions(counter.Len())
	}
}
