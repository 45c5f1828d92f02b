package delivery

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	contractx "github.com/tanpawarit/Chative-Travel-Intake/agent/contract"
	statex "github.com/tanpawarit/Chative-Travel-Intake/agent/state"
	smtpx "github.com/tanpawarit/Chative-Travel-Intake/pkg/smtp"
)

// EmailSender delivers a rendered message.
type EmailSender interface {
	Send(ctx context.Context, m smtpx.Message) error
}

// Publisher hands a payload to a queue for later delivery.
type Publisher interface {
	Publish(ctx context.Context, destination string, body []byte) (string, error)
}

var (
	_ contractx.Mailer = (*DirectMailer)(nil)
	_ contractx.Mailer = (*QueuedMailer)(nil)
	_ contractx.Mailer = (*GmailMailer)(nil)
	_ contractx.Mailer = LogMailer{}
)

// DirectMailer renders and sends within the turn.
type DirectMailer struct {
	sender EmailSender
}

func NewDirectMailer(sender EmailSender) (*DirectMailer, error) {
	if sender == nil {
		return nil, errors.New("email sender is required")
	}
	return &DirectMailer{sender: sender}, nil
}

func (m *DirectMailer) SendTravelPackage(ctx context.Context, req statex.TravelRequest, pkg *contractx.TravelPackage) bool {
	logger := zerolog.Ctx(ctx)
	msg, err := Render(req, pkg)
	if err != nil {
		logger.Error().Err(err).Msg("render travel email")
		return false
	}
	if err := m.sender.Send(ctx, msg); err != nil {
		logger.Error().Err(err).Str("to", msg.To).Msg("send travel email")
		return false
	}
	logger.Info().Str("to", msg.To).Bool("package", pkg != nil).Msg("travel email sent")
	return true
}

// GmailMailer sends through the Gmail API and retries over SMTP when Gmail
// refuses. The fallback is optional.
type GmailMailer struct {
	gmail    EmailSender
	fallback EmailSender
}

func NewGmailMailer(gmail, fallback EmailSender) (*GmailMailer, error) {
	if gmail == nil {
		return nil, errors.New("gmail sender is required")
	}
	return &GmailMailer{gmail: gmail, fallback: fallback}, nil
}

func (m *GmailMailer) SendTravelPackage(ctx context.Context, req statex.TravelRequest, pkg *contractx.TravelPackage) bool {
	logger := zerolog.Ctx(ctx)
	msg, err := Render(req, pkg)
	if err != nil {
		logger.Error().Err(err).Msg("render travel email")
		return false
	}

	err = m.gmail.Send(ctx, msg)
	if err == nil {
		logger.Info().Str("to", msg.To).Str("channel", "gmail").Msg("travel email sent")
		return true
	}
	if m.fallback == nil {
		logger.Error().Err(err).Str("to", msg.To).Msg("send travel email via gmail")
		return false
	}

	logger.Warn().Err(err).Str("to", msg.To).Msg("gmail send failed, trying smtp")
	if err := m.fallback.Send(ctx, msg); err != nil {
		logger.Error().Err(err).Str("to", msg.To).Msg("send travel email via smtp")
		return false
	}
	logger.Info().Str("to", msg.To).Str("channel", "smtp").Msg("travel email sent")
	return true
}

// QueuedMailer renders within the turn and leaves sending to a queue
// callback. Success means the queue accepted the message.
type QueuedMailer struct {
	publisher   Publisher
	callbackURL string
}

func NewQueuedMailer(publisher Publisher, callbackURL string) (*QueuedMailer, error) {
	if publisher == nil {
		return nil, errors.New("publisher is required")
	}
	callbackURL = strings.TrimSpace(callbackURL)
	if callbackURL == "" {
		return nil, errors.New("delivery callback url is required")
	}
	return &QueuedMailer{publisher: publisher, callbackURL: callbackURL}, nil
}

func (m *QueuedMailer) SendTravelPackage(ctx context.Context, req statex.TravelRequest, pkg *contractx.TravelPackage) bool {
	logger := zerolog.Ctx(ctx)
	msg, err := Render(req, pkg)
	if err != nil {
		logger.Error().Err(err).Msg("render travel email")
		return false
	}
	body, err := json.Marshal(msg)
	if err != nil {
		logger.Error().Err(err).Msg("encode queued email")
		return false
	}
	id, err := m.publisher.Publish(ctx, m.callbackURL, body)
	if err != nil {
		logger.Error().Err(err).Str("to", msg.To).Msg("queue travel email")
		return false
	}
	logger.Info().Str("to", msg.To).Str("message_id", id).Msg("travel email queued")
	return true
}

// LogMailer writes the email to the log instead of sending it. Used when no
// delivery channel is configured, so conversations still complete.
type LogMailer struct{}

func (LogMailer) SendTravelPackage(ctx context.Context, req statex.TravelRequest, pkg *contractx.TravelPackage) bool {
	logger := zerolog.Ctx(ctx)
	msg, err := Render(req, pkg)
	if err != nil {
		logger.Error().Err(err).Msg("render travel email")
		return false
	}
	logger.Info().
		Str("to", msg.To).
		Str("subject", msg.Subject).
		Str("body", msg.Text).
		Msg("email delivery not configured, logging email")
	return true
}

// Dispatcher sends emails that come back from the queue.
type Dispatcher struct {
	sender EmailSender
}

func NewDispatcher(sender EmailSender) (*Dispatcher, error) {
	if sender == nil {
		return nil, errors.New("email sender is required")
	}
	return &Dispatcher{sender: sender}, nil
}

// Dispatch decodes a queued payload and sends it.
func (d *Dispatcher) Dispatch(ctx context.Context, payload []byte) error {
	var msg smtpx.Message
	if err := json.Unmarshal(payload, &msg); err != nil {
		return fmt.Errorf("%w: decode queued email: %v", contractx.ErrValidation, err)
	}
	if strings.TrimSpace(msg.To) == "" {
		return fmt.Errorf("%w: queued email has no recipient", contractx.ErrValidation)
	}
	if err := d.sender.Send(ctx, msg); err != nil {
		return fmt.Errorf("%w: %v", contractx.ErrDeliveryFailed, err)
	}
	return nil
}
