// Package webhook hosts the HTTP endpoint Telegram delivers updates to,
// plus the webhook lifecycle helpers and a health probe.
package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-telegram/bot/models"
	"github.com/sirupsen/logrus"

	"tg_earning_bot/internal/logging"
)

const (
	maxUpdateBody = 1 << 20 // Telegram updates are small; cap the body read.

	storePingTimeout  = 2 * time.Second
	readTimeout       = 15 * time.Second
	writeTimeout      = 15 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
)

// Dispatcher handles one decoded update; *handler.Router satisfies it.
type Dispatcher interface {
	HandleUpdate(ctx context.Context, update *models.Update)
}

// Registrar manages the webhook registration with Telegram;
// *telegram.Gateway satisfies it.
type Registrar interface {
	SetWebhook(ctx context.Context, url string) bool
	DeleteWebhook(ctx context.Context) bool
}

// Pinger reports whether the ledger store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server owns the HTTP listener. The root endpoint doubles as the update
// sink and the manual setup surface: an empty body with ?setup or ?delete
// drives webhook registration, an empty body without either reports
// liveness, and a non-empty body is decoded as a Telegram update.
type Server struct {
	server     *http.Server
	logger     *logrus.Entry
	dispatcher Dispatcher
	registrar  Registrar
	pinger     Pinger
	publicURL  string
}

type healthResponse struct {
	Status string `json:"status"`
	Store  string `json:"store,omitempty"`
}

// NewServer constructs the webhook server listening on the provided port.
func NewServer(port int, publicURL string, dispatcher Dispatcher, registrar Registrar, pinger Pinger, logger *logrus.Entry) *Server {
	if logger == nil {
		logger = logging.Logger()
	}

	srv := &Server{
		logger:     logger,
		dispatcher: dispatcher,
		registrar:  registrar,
		pinger:     pinger,
		publicURL:  publicURL,
	}

	r := chi.NewRouter()
	r.Get("/healthz", srv.handleHealth)
	r.HandleFunc("/", srv.handleRoot)

	srv.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           r,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	return srv
}

// ListenAndServe starts the server and blocks until shutdown.
func (s *Server) ListenAndServe() error {
	s.logger.WithFields(logging.Fields{
		"event": "webhook_listen",
		"addr":  s.server.Addr,
	}).Info("starting webhook server")

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("webhook server listen: %w", err)
	}

	s.logger.WithField("event", "webhook_stopped").Info("webhook server stopped")
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s == nil || s.server == nil {
		return nil
	}

	return s.server.Shutdown(ctx)
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	defer func() {
		if rec := recover(); rec != nil {
			s.logger.WithFields(logging.Fields{
				"event": "update_panic",
				"panic": fmt.Sprint(rec),
			}).Error("panic while processing request")

			http.Error(w, "Internal server error", http.StatusInternalServerError)
		}
	}()

	body, err := io.ReadAll(io.LimitReader(r.Body, maxUpdateBody))
	if err != nil {
		s.logger.WithField("event", "body_read_failed").WithError(err).Error("failed to read request body")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	if len(body) == 0 {
		s.handleControl(w, r)
		return
	}

	var update models.Update
	if err := json.Unmarshal(body, &update); err != nil {
		s.logger.WithField("event", "update_decode_failed").WithError(err).Warn("discarding malformed update")
		http.Error(w, "Invalid update", http.StatusBadRequest)
		return
	}

	s.dispatcher.HandleUpdate(r.Context(), &update)

	fmt.Fprint(w, "OK")
}

// handleControl serves browser-driven webhook management on an empty body.
func (s *Server) handleControl(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	switch {
	case query.Has("setup"):
		if s.registrar.SetWebhook(r.Context(), s.publicURL) {
			s.logger.WithFields(logging.Fields{
				"event": "webhook_registered",
				"url":   s.publicURL,
			}).Info("registered webhook")

			fmt.Fprint(w, "Webhook set successfully!")
			return
		}

		fmt.Fprint(w, "Failed to set webhook")

	case query.Has("delete"):
		if s.registrar.DeleteWebhook(r.Context()) {
			s.logger.WithField("event", "webhook_deleted").Info("deleted webhook")
			fmt.Fprint(w, "Webhook deleted successfully!")
			return
		}

		fmt.Fprint(w, "Failed to delete webhook")

	default:
		fmt.Fprint(w, "Bot is running!")
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok"}

	if s.pinger == nil {
		resp.Status = "degraded"
		resp.Store = "error"
		s.logger.WithField("event", "health_store_missing").Warn("store checker is not configured for health endpoint")
	} else {
		pingCtx, cancel := context.WithTimeout(r.Context(), storePingTimeout)
		err := s.pinger.Ping(pingCtx)
		cancel()

		if err != nil {
			resp.Status = "degraded"
			resp.Store = "error"
			s.logger.WithField("event", "health_store_error").WithError(err).Warn("store ping failed during health check")
		}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.logger.WithField("event", "health_write_error").WithError(err).Error("failed to encode health response")
	}
}
