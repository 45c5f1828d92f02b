// Package gmail sends mail through the Gmail API using a stored OAuth token.
package gmail

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gmailapi "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	smtpx "github.com/tanpawarit/Chative-Travel-Intake/pkg/smtp"
)

const authState = "travel-intake"

var ErrNotConfigured = errors.New("gmail is not configured")

type Config struct {
	CredentialsFile string `split_words:"true"`
	TokenFile       string `split_words:"true"`
	From            string `split_words:"true"`
	FromName        string `split_words:"true" default:"Travel Assistant"`
}

// Enabled reports whether both the OAuth client and a token file are set.
func (c Config) Enabled() bool {
	return strings.TrimSpace(c.CredentialsFile) != "" && strings.TrimSpace(c.TokenFile) != ""
}

func oauthConfig(cfg Config) (*oauth2.Config, error) {
	path := strings.TrimSpace(cfg.CredentialsFile)
	if path == "" {
		return nil, fmt.Errorf("%w: credentials file is required", ErrNotConfigured)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read gmail credentials: %w", err)
	}
	conf, err := google.ConfigFromJSON(raw, gmailapi.GmailSendScope)
	if err != nil {
		return nil, fmt.Errorf("parse gmail credentials: %w", err)
	}
	return conf, nil
}

func readToken(path string) (*oauth2.Token, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read gmail token: %w", err)
	}
	var tok oauth2.Token
	if err := json.Unmarshal(raw, &tok); err != nil {
		return nil, fmt.Errorf("decode gmail token: %w", err)
	}
	if tok.AccessToken == "" && tok.RefreshToken == "" {
		return nil, fmt.Errorf("%w: token file %s holds no token", ErrNotConfigured, path)
	}
	return &tok, nil
}

// AuthCodeURL is the consent page the operator opens once to authorise sending.
func AuthCodeURL(cfg Config) (string, error) {
	conf, err := oauthConfig(cfg)
	if err != nil {
		return "", err
	}
	return conf.AuthCodeURL(authState, oauth2.AccessTypeOffline, oauth2.ApprovalForce), nil
}

// SaveToken exchanges an authorisation code and writes the token file.
func SaveToken(ctx context.Context, cfg Config, code string) error {
	conf, err := oauthConfig(cfg)
	if err != nil {
		return err
	}
	path := strings.TrimSpace(cfg.TokenFile)
	if path == "" {
		return fmt.Errorf("%w: token file is required", ErrNotConfigured)
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return errors.New("authorisation code is required")
	}

	tok, err := conf.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("exchange gmail code: %w", err)
	}
	raw, err := json.Marshal(tok)
	if err != nil {
		return fmt.Errorf("encode gmail token: %w", err)
	}
	if err := os.WriteFile(path, raw, 0o600); err != nil {
		return fmt.Errorf("write gmail token: %w", err)
	}
	return nil
}

type Sender struct {
	messages *gmailapi.UsersMessagesService
	from     string
	fromName string
}

// NewSender loads the OAuth client and token. The token is refreshed on
// demand for the lifetime of ctx.
func NewSender(ctx context.Context, cfg Config) (*Sender, error) {
	if !cfg.Enabled() {
		return nil, ErrNotConfigured
	}
	conf, err := oauthConfig(cfg)
	if err != nil {
		return nil, err
	}
	tok, err := readToken(strings.TrimSpace(cfg.TokenFile))
	if err != nil {
		return nil, err
	}
	return newSender(ctx, cfg, option.WithTokenSource(conf.TokenSource(ctx, tok)))
}

func newSender(ctx context.Context, cfg Config, opts ...option.ClientOption) (*Sender, error) {
	svc, err := gmailapi.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create gmail service: %w", err)
	}
	return &Sender{
		messages: svc.Users.Messages,
		from:     strings.TrimSpace(cfg.From),
		fromName: strings.TrimSpace(cfg.FromName),
	}, nil
}

// Send delivers m from the authorised account.
func (s *Sender) Send(ctx context.Context, m smtpx.Message) error {
	msg, err := smtpx.Compose(m, s.from, s.fromName)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if _, err := msg.WriteTo(&buf); err != nil {
		return fmt.Errorf("encode gmail message: %w", err)
	}

	raw := base64.URLEncoding.EncodeToString(buf.Bytes())
	if _, err := s.messages.Send("me", &gmailapi.Message{Raw: raw}).Context(ctx).Do(); err != nil {
		return fmt.Errorf("gmail send to %s: %w", m.To, err)
	}
	return nil
}
