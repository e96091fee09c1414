// Package server exposes the relay over HTTP: a webhook endpoint for alert
// payloads and a health endpoint that probes venue connectivity.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/tradewire-lab/fxrelay/internal/broker"
	"github.com/tradewire-lab/fxrelay/internal/config"
	"github.com/tradewire-lab/fxrelay/internal/coordinator"
	"github.com/tradewire-lab/fxrelay/internal/logger"
	"github.com/tradewire-lab/fxrelay/internal/signal"
	"github.com/tradewire-lab/fxrelay/internal/types"
	"github.com/tradewire-lab/fxrelay/pkg/errors"
	"go.uber.org/zap"
)

// maxBodySize bounds webhook payloads. Alert payloads are a few hundred
// bytes; anything larger is not a signal.
const maxBodySize = 64 * 1024

const healthProbeTimeout = 3 * time.Second

// webhookResponse is the envelope returned for every webhook call.
type webhookResponse struct {
	OK      bool   `json:"ok"`
	Action  string `json:"action,omitempty"`
	Skipped string `json:"skipped,omitempty"`
	OrderID string `json:"order_id,omitempty"`
	Error   string `json:"error,omitempty"`
}

// healthResponse reports process liveness and venue connectivity.
type healthResponse struct {
	OK    bool   `json:"ok"`
	Venue string `json:"venue"`
}

// Server is the relay's HTTP front end.
type Server struct {
	config      config.ServerConfig
	coordinator *coordinator.Coordinator
	broker      broker.Broker
	log         *logger.Logger

	httpServer *http.Server
	listener   net.Listener
}

// NewServer wires the webhook front end. The broker is only used for the
// health probe; all trading goes through the coordinator.
func NewServer(cfg config.ServerConfig, coord *coordinator.Coordinator, b broker.Broker, log *logger.Logger) *Server {
	return &Server{
		config:      cfg,
		coordinator: coord,
		broker:      b,
		log:         log,
	}
}

// Router builds the HTTP routing table.
func (s *Server) Router() *mux.Router {
	router := mux.NewRouter()
	router.Use(s.loggingMiddleware)

	router.HandleFunc("/webhook", s.handleWebhook).Methods(http.MethodPost)
	router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)

	return router
}

// Start begins serving on the configured address. ":0" picks a free port,
// which tests rely on.
func (s *Server) Start() error {
	addr := s.config.ListenAddr
	if addr == "" {
		addr = ":0"
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return errors.Wrap(errors.ErrCodeUnknown, "failed to create listener", err)
	}

	s.listener = listener

	s.httpServer = &http.Server{
		Handler:           s.Router(),
		ReadTimeout:       s.config.ReadTimeout,
		ReadHeaderTimeout: s.config.ReadTimeout,
		// The write timeout must cover a full signal run, including
		// reversal settle polling.
		WriteTimeout: s.config.WriteTimeout,
	}

	s.log.Info("webhook server listening", zap.String("addr", listener.Addr().String()))

	go func() {
		if err := s.httpServer.Serve(listener); err != http.ErrServerClosed {
			s.log.Error("http server error", zap.Error(err))
		}
	}()

	return nil
}

// Stop drains in-flight requests and shuts the server down.
func (s *Server) Stop(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}

	return s.httpServer.Shutdown(ctx)
}

// Address returns the bound address, empty before Start.
func (s *Server) Address() string {
	if s.listener == nil {
		return ""
	}

	return s.listener.Addr().String()
}

// BaseURL returns the http root for the bound address.
func (s *Server) BaseURL() string {
	return "http://" + s.Address()
}

func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, webhookResponse{OK: false, Error: "failed to read body"})

		return
	}

	sig, err := signal.Parse(body, time.Now())
	if err != nil {
		s.log.Warn("rejected webhook payload", zap.Error(err))
		s.writeJSON(w, http.StatusBadRequest, webhookResponse{OK: false, Error: err.Error()})

		return
	}

	outcome := s.coordinator.Handle(r.Context(), sig)
	s.writeJSON(w, statusFor(outcome), responseFor(outcome))
}

// statusFor maps an outcome to an HTTP status. Skips and business failures
// are 200 so the alerting platform does not retry-storm; only venue
// unavailability is a 5xx.
func statusFor(outcome types.Outcome) int {
	if outcome.Status == types.OutcomeStatusFailed && outcome.Reason == types.FailReasonBrokerUnavailable {
		return http.StatusInternalServerError
	}

	return http.StatusOK
}

func responseFor(outcome types.Outcome) webhookResponse {
	switch outcome.Status {
	case types.OutcomeStatusPlaced:
		return webhookResponse{OK: true, Action: outcome.Action, OrderID: outcome.OrderID}
	case types.OutcomeStatusOK:
		return webhookResponse{OK: true, Action: outcome.Action}
	case types.OutcomeStatusSkipped:
		return webhookResponse{OK: true, Skipped: outcome.Reason}
	default:
		return webhookResponse{OK: false, Error: outcome.Reason}
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthProbeTimeout)
	defer cancel()

	venue := "up"
	if _, err := s.broker.GetMidPrice(ctx, s.config.HealthProbeSymbol); err != nil {
		s.log.Warn("venue connectivity probe failed", zap.Error(err))

		venue = "down"
	}

	s.writeJSON(w, http.StatusOK, healthResponse{OK: true, Venue: venue})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.log.Error("failed to encode response", zap.Error(err))
	}
}

// statusRecorder captures the status code written by a handler for the
// request log.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(recorder, r)

		s.log.Info("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", recorder.status),
			zap.String("duration", fmt.Sprintf("%dms", time.Since(start).Milliseconds())),
		)
	})
}
