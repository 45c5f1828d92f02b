package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	contractx "github.com/tanpawarit/Chative-Travel-Intake/agent/contract"
	statex "github.com/tanpawarit/Chative-Travel-Intake/agent/state"
	qstashx "github.com/tanpawarit/Chative-Travel-Intake/pkg/qstash"
)

const (
	version          = "1.0.0"
	maxBodyBytes     = 64 << 10
	deliveryBodySize = 1 << 20

	DeliveriesPath = "/api/internal/deliveries"
)

// ChatService runs conversational turns.
type ChatService interface {
	HandleMessage(ctx context.Context, sessionID string, text string) (contractx.Response, error)
	ClearSession(ctx context.Context, sessionID string) error
}

type SignatureVerifier interface {
	Verify(signature string, body []byte, destination string) error
}

type Dispatcher interface {
	Dispatch(ctx context.Context, payload []byte) error
}

// Deliveries enables the queue callback that sends queued emails.
type Deliveries struct {
	Verifier    SignatureVerifier
	Dispatcher  Dispatcher
	CallbackURL string
}

type ConfigStatus struct {
	OpenAIConfigured  bool `json:"openai_configured"`
	AmadeusConfigured bool `json:"amadeus_configured"`
	EmailConfigured   bool `json:"email_configured"`
}

type Options struct {
	Service       ChatService
	Status        ConfigStatus
	Probe         func(ctx context.Context) error
	Deliveries    *Deliveries
	CORSOrigins   []string
	ChatRateLimit int
}

type server struct {
	service    ChatService
	status     ConfigStatus
	probe      func(ctx context.Context) error
	deliveries *Deliveries
}

type chatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id"`
}

type chatResponse struct {
	Response  contractx.Response `json:"response"`
	SessionID string             `json:"session_id"`
}

type messageBody struct {
	Message string `json:"message"`
}

type errorBody struct {
	Detail string `json:"detail"`
}

type healthBody struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type configStatusBody struct {
	ConfigStatus
	OpenAIReachable *bool  `json:"openai_reachable,omitempty"`
	ProbeError      string `json:"probe_error,omitempty"`
}

// NewHandler builds the HTTP surface of the travel assistant.
func NewHandler(opts Options) (http.Handler, error) {
	if opts.Service == nil {
		return nil, errors.New("chat service is required")
	}
	if d := opts.Deliveries; d != nil && (d.Verifier == nil || d.Dispatcher == nil) {
		return nil, errors.New("deliveries need a verifier and a dispatcher")
	}

	s := &server{
		service:    opts.Service,
		status:     opts.Status,
		probe:      opts.Probe,
		deliveries: opts.Deliveries,
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(corsHandler(opts.CORSOrigins))
	r.Use(observe)

	r.Get("/", s.root)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.health)
		r.Get("/config/status", s.configStatus)
		r.Delete("/session/{sessionID}", s.clearSession)

		r.Group(func(r chi.Router) {
			if opts.ChatRateLimit > 0 {
				r.Use(chatRateLimit(opts.ChatRateLimit))
			}
			r.Post("/chat", s.chat)
		})

		if s.deliveries != nil {
			r.Post("/internal/deliveries", s.deliver)
		}
	})

	return r, nil
}

func (s *server) chat(w http.ResponseWriter, r *http.Request) {
	var body chatRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Detail: "Invalid request body"})
		return
	}

	resp, err := s.service.HandleMessage(r.Context(), body.SessionID, body.Message)
	if errors.Is(err, contractx.ErrInvalidMessage) {
		writeJSON(w, http.StatusBadRequest, errorBody{Detail: "Message is required"})
		return
	}
	if err != nil {
		requestLogger(r).Error().Err(err).Msg("chat turn failed")
		writeJSON(w, http.StatusInternalServerError, errorBody{Detail: "Internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, chatResponse{Response: resp, SessionID: resp.SessionID})
}

func (s *server) clearSession(w http.ResponseWriter, r *http.Request) {
	err := s.service.ClearSession(r.Context(), chi.URLParam(r, "sessionID"))
	if errors.Is(err, statex.ErrInvalidSession) {
		writeJSON(w, http.StatusBadRequest, errorBody{Detail: "Session id is required"})
		return
	}
	if err != nil {
		requestLogger(r).Error().Err(err).Msg("clear session failed")
		writeJSON(w, http.StatusInternalServerError, errorBody{Detail: "Internal server error"})
		return
	}
	writeJSON(w, http.StatusOK, messageBody{Message: "Session cleared"})
}

func (s *server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthBody{Status: "healthy", Message: "Travel Booking API is running"})
}

// configStatus reports which integrations are configured. With ?probe=true
// the LLM key is also checked against the provider.
func (s *server) configStatus(w http.ResponseWriter, r *http.Request) {
	body := configStatusBody{ConfigStatus: s.status}
	if r.URL.Query().Get("probe") == "true" && s.probe != nil {
		ok := true
		if err := s.probe(r.Context()); err != nil {
			ok = false
			body.ProbeError = err.Error()
		}
		body.OpenAIReachable = &ok
	}
	writeJSON(w, http.StatusOK, body)
}

func (s *server) root(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Travel Booking AI API",
		"version": version,
		"endpoints": map[string]string{
			"chat":          "POST /api/chat",
			"health":        "GET /api/health",
			"config_status": "GET /api/config/status",
			"clear_session": "DELETE /api/session/{session_id}",
			"metrics":       "GET /metrics",
		},
	})
}

func (s *server) deliver(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, deliveryBodySize))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Detail: "Invalid request body"})
		return
	}

	signature := r.Header.Get(qstashx.SignatureHeader)
	if err := s.deliveries.Verifier.Verify(signature, payload, s.deliveries.CallbackURL); err != nil {
		requestLogger(r).Warn().Err(err).Msg("rejected delivery callback")
		writeJSON(w, http.StatusUnauthorized, errorBody{Detail: "Invalid signature"})
		return
	}

	if err := s.deliveries.Dispatcher.Dispatch(r.Context(), payload); err != nil {
		logger := requestLogger(r)
		// Malformed payloads are acknowledged so the queue stops redelivering them.
		if errors.Is(err, contractx.ErrValidation) {
			logger.Error().Err(err).Msg("dropping malformed delivery")
			writeJSON(w, http.StatusOK, messageBody{Message: "Delivery dropped"})
			return
		}
		logger.Error().Err(err).Msg("queued delivery failed")
		writeJSON(w, http.StatusBadGateway, errorBody{Detail: "Delivery failed"})
		return
	}
	writeJSON(w, http.StatusOK, messageBody{Message: "Delivered"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
