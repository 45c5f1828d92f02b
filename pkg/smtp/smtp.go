// Package smtp sends HTML email through an authenticated SMTP relay.
package smtp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/wneessen/go-mail"
)

type Config struct {
	Host      string        `split_words:"true"`
	Port      int           `split_words:"true" default:"587"`
	Username  string        `split_words:"true"`
	Password  string        `split_words:"true"`
	From      string        `split_words:"true"`
	FromName  string        `split_words:"true" default:"Travel Assistant"`
	TLSPolicy string        `envconfig:"TLS_POLICY" default:"mandatory"`
	Timeout   time.Duration `split_words:"true" default:"15s"`
}

// Enabled reports whether a relay and credentials are configured.
func (c Config) Enabled() bool {
	return strings.TrimSpace(c.Host) != "" &&
		strings.TrimSpace(c.Username) != "" &&
		c.Password != ""
}

func (c Config) fromAddress() string {
	if from := strings.TrimSpace(c.From); from != "" {
		return from
	}
	return strings.TrimSpace(c.Username)
}

func (c Config) tlsPolicy() (mail.TLSPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(c.TLSPolicy)) {
	case "", "mandatory":
		return mail.TLSMandatory, nil
	case "opportunistic":
		return mail.TLSOpportunistic, nil
	case "none":
		return mail.NoTLS, nil
	default:
		return mail.TLSMandatory, fmt.Errorf("unknown smtp tls policy %q", c.TLSPolicy)
	}
}

type Message struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
	Text    string `json:"text,omitempty"`
}

type Sender struct {
	client   *mail.Client
	from     string
	fromName string
}

func NewSender(cfg Config) (*Sender, error) {
	host := strings.TrimSpace(cfg.Host)
	if host == "" {
		return nil, errors.New("smtp host is required")
	}
	policy, err := cfg.tlsPolicy()
	if err != nil {
		return nil, err
	}

	opts := []mail.Option{
		mail.WithPort(cfg.Port),
		mail.WithTLSPolicy(policy),
	}
	if cfg.Timeout > 0 {
		opts = append(opts, mail.WithTimeout(cfg.Timeout))
	}
	if cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}

	client, err := mail.NewClient(host, opts...)
	if err != nil {
		return nil, fmt.Errorf("create smtp client: %w", err)
	}

	return &Sender{
		client:   client,
		from:     cfg.fromAddress(),
		fromName: strings.TrimSpace(cfg.FromName),
	}, nil
}

func (s *Sender) Send(ctx context.Context, m Message) error {
	msg, err := s.build(m)
	if err != nil {
		return err
	}
	if err := s.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("send mail to %s: %w", m.To, err)
	}
	return nil
}

func (s *Sender) build(m Message) (*mail.Msg, error) {
	return Compose(m, s.from, s.fromName)
}

// Compose builds the MIME message for m. An empty from leaves the From header
// to the transport.
func Compose(m Message, from, fromName string) (*mail.Msg, error) {
	msg := mail.NewMsg()
	switch {
	case from == "":
	case fromName != "":
		if err := msg.FromFormat(fromName, from); err != nil {
			return nil, fmt.Errorf("set from: %w", err)
		}
	default:
		if err := msg.From(from); err != nil {
			return nil, fmt.Errorf("set from: %w", err)
		}
	}
	if err := msg.To(strings.TrimSpace(m.To)); err != nil {
		return nil, fmt.Errorf("set to: %w", err)
	}
	msg.Subject(m.Subject)
	msg.SetBodyString(mail.TypeTextHTML, m.HTML)
	if m.Text != "" {
		msg.AddAlternativeString(mail.TypeTextPlain, m.Text)
	}
	return msg, nil
}
