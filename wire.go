package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/tanpawarit/Chative-Travel-Intake/agent/agents/extractor"
	"github.com/tanpawarit/Chative-Travel-Intake/agent/agents/intake"
	contractx "github.com/tanpawarit/Chative-Travel-Intake/agent/contract"
	"github.com/tanpawarit/Chative-Travel-Intake/agent/delivery"
	"github.com/tanpawarit/Chative-Travel-Intake/agent/ledger"
	llmx "github.com/tanpawarit/Chative-Travel-Intake/agent/llm"
	"github.com/tanpawarit/Chative-Travel-Intake/agent/search"
	statex "github.com/tanpawarit/Chative-Travel-Intake/agent/state"
	"github.com/tanpawarit/Chative-Travel-Intake/api"
	amadeusx "github.com/tanpawarit/Chative-Travel-Intake/pkg/amadeus"
	configx "github.com/tanpawarit/Chative-Travel-Intake/pkg/config"
	gmailx "github.com/tanpawarit/Chative-Travel-Intake/pkg/gmail"
	openrouterx "github.com/tanpawarit/Chative-Travel-Intake/pkg/openrouter"
	postgresx "github.com/tanpawarit/Chative-Travel-Intake/pkg/postgres"
	qstashx "github.com/tanpawarit/Chative-Travel-Intake/pkg/qstash"
	smtpx "github.com/tanpawarit/Chative-Travel-Intake/pkg/smtp"
)

type AppConfig struct {
	Addr            string        `default:":8000"`
	PublicURL       string        `split_words:"true"`
	CORSOrigins     []string      `envconfig:"CORS_ORIGINS"`
	ChatRateLimit   int           `split_words:"true" default:"30"`
	ShutdownTimeout time.Duration `split_words:"true" default:"10s"`
}

// callbackURL is where QStash delivers queued emails, empty without a public URL.
func (c AppConfig) callbackURL() string {
	base := strings.TrimRight(strings.TrimSpace(c.PublicURL), "/")
	if base == "" {
		return ""
	}
	return base + api.DeliveriesPath
}

type app struct {
	service    *intake.Service
	status     api.ConfigStatus
	probe      func(ctx context.Context) error
	deliveries *api.Deliveries
	closers    []func() error
}

func (a *app) Close() {
	for _, closeFn := range a.closers {
		if err := closeFn(); err != nil {
			log.Warn().Err(err).Msg("close resource")
		}
	}
}

func buildApp(ctx context.Context, appCfg AppConfig) (*app, error) {
	llmCfg, err := configx.New[llmx.Config]("OPENROUTER")
	if err != nil {
		return nil, err
	}
	amadeusCfg, err := configx.New[amadeusx.Config]("AMADEUS")
	if err != nil {
		return nil, err
	}
	smtpCfg, err := configx.New[smtpx.Config]("SMTP")
	if err != nil {
		return nil, err
	}
	gmailCfg, err := configx.New[gmailx.Config]("GMAIL")
	if err != nil {
		return nil, err
	}
	qstashCfg, err := configx.New[qstashx.Config]("QSTASH")
	if err != nil {
		return nil, err
	}
	ledgerCfg, err := configx.New[postgresx.Config]("LEDGER")
	if err != nil {
		return nil, err
	}

	ex, err := extractor.New(ctx, *llmCfg)
	if err != nil {
		return nil, fmt.Errorf("build extractor: %w", err)
	}

	searcher, err := newSearcher(*amadeusCfg)
	if err != nil {
		return nil, err
	}

	mailer, deliveries, err := newMailer(ctx, appCfg, *smtpCfg, *gmailCfg, *qstashCfg)
	if err != nil {
		return nil, err
	}

	a := &app{
		status: api.ConfigStatus{
			OpenAIConfigured:  llmCfg.Configured(),
			AmadeusConfigured: amadeusCfg.Configured(),
			EmailConfigured:   smtpCfg.Enabled() || gmailCfg.Enabled(),
		},
		deliveries: deliveries,
	}

	fulfillments, err := newLedger(ctx, *ledgerCfg, a)
	if err != nil {
		a.Close()
		return nil, err
	}

	service, err := intake.New(statex.NewMemoryStore(), ex, searcher, mailer, fulfillments)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.service = service

	client := openrouterx.NewClient(llmCfg.OpenRouterFor(contractx.AgentTypeExtractor))
	a.probe = func(ctx context.Context) error {
		return openrouterx.Probe(ctx, client)
	}

	return a, nil
}

// newSearcher uses live Amadeus flights when enabled and the built-in
// catalogue otherwise.
func newSearcher(cfg amadeusx.Config) (contractx.Searcher, error) {
	if !cfg.Enabled() {
		log.Info().Msg("package search: catalogue")
		return search.NewCatalogSearcher(), nil
	}

	client, err := amadeusx.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("build amadeus client: %w", err)
	}
	log.Info().Msg("package search: amadeus")
	return search.NewAmadeusSearcher(client)
}

// newMailer prefers Gmail (with SMTP as its fallback) when a Gmail token is
// configured. Without Gmail it picks queued delivery when QStash, SMTP and a
// public callback URL are all configured, direct SMTP when only SMTP is, and
// logging otherwise.
func newMailer(ctx context.Context, appCfg AppConfig, smtpCfg smtpx.Config, gmailCfg gmailx.Config, qstashCfg qstashx.Config) (contractx.Mailer, *api.Deliveries, error) {
	if gmailCfg.Enabled() {
		return newGmailMailer(ctx, smtpCfg, gmailCfg)
	}
	if !smtpCfg.Enabled() {
		log.Warn().Msg("email delivery: not configured, emails are logged")
		return delivery.LogMailer{}, nil, nil
	}

	sender, err := smtpx.NewSender(smtpCfg)
	if err != nil {
		return nil, nil, fmt.Errorf("build smtp sender: %w", err)
	}

	callback := appCfg.callbackURL()
	if !qstashCfg.Enabled() || callback == "" {
		mailer, err := delivery.NewDirectMailer(sender)
		if err != nil {
			return nil, nil, err
		}
		log.Info().Msg("email delivery: direct smtp")
		return mailer, nil, nil
	}

	client, err := qstashx.NewClient(qstashCfg)
	if err != nil {
		return nil, nil, fmt.Errorf("build qstash client: %w", err)
	}
	mailer, err := delivery.NewQueuedMailer(client, callback)
	if err != nil {
		return nil, nil, err
	}
	dispatcher, err := delivery.NewDispatcher(sender)
	if err != nil {
		return nil, nil, err
	}

	log.Info().Str("callback", callback).Msg("email delivery: queued via qstash")
	return mailer, &api.Deliveries{
		Verifier:    client,
		Dispatcher:  dispatcher,
		CallbackURL: callback,
	}, nil
}

func newGmailMailer(ctx context.Context, smtpCfg smtpx.Config, gmailCfg gmailx.Config) (contractx.Mailer, *api.Deliveries, error) {
	gs, err := gmailx.NewSender(ctx, gmailCfg)
	if err != nil {
		return nil, nil, fmt.Errorf("build gmail sender: %w", err)
	}

	var fallback delivery.EmailSender
	if smtpCfg.Enabled() {
		sender, err := smtpx.NewSender(smtpCfg)
		if err != nil {
			return nil, nil, fmt.Errorf("build smtp sender: %w", err)
		}
		fallback = sender
	}

	mailer, err := delivery.NewGmailMailer(gs, fallback)
	if err != nil {
		return nil, nil, err
	}
	log.Info().Bool("smtp_fallback", fallback != nil).Msg("email delivery: gmail")
	return mailer, nil, nil
}

// newLedger records fulfillments in Postgres when a DSN is set.
func newLedger(ctx context.Context, cfg postgresx.Config, a *app) (contractx.FulfillmentLedger, error) {
	if !cfg.Enabled() {
		return ledger.NoopLedger{}, nil
	}

	db, err := postgresx.Open(cfg)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, db.Close)

	if err := postgresx.Ping(ctx, db); err != nil {
		return nil, err
	}
	bl, err := ledger.NewBunLedger(db)
	if err != nil {
		return nil, err
	}
	if err := bl.Init(ctx); err != nil {
		return nil, fmt.Errorf("init fulfillment ledger: %w", err)
	}
	log.Info().Msg("fulfillment ledger: postgres")
	return bl, nil
}
