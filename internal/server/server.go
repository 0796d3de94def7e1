// Package server exposes the moviebot actions over the dialogue manager's
// custom-action webhook protocol.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/goblincore/moviebot"
	"github.com/goblincore/moviebot/internal/logging"
)

// CorrelationIDHeader carries the correlation id in and out of the webhook.
const CorrelationIDHeader = "X-Correlation-ID"

const maxBodyBytes = 1 << 20

// Dispatcher runs named actions. *moviebot.Bot satisfies it.
type Dispatcher interface {
	Dispatch(ctx context.Context, action string, st *moviebot.ConversationState) (moviebot.Result, error)
	Actions() []string
}

// Config controls the HTTP surface.
type Config struct {
	RateLimitReqs   int           // requests per window per client IP on /webhook; 0 disables
	RateLimitWindow time.Duration // default: 1m
}

// Server routes webhook, health and metrics requests.
type Server struct {
	bot    Dispatcher
	cfg    Config
	router chi.Router
}

// New builds the router for bot.
func New(bot Dispatcher, cfg Config) *Server {
	if cfg.RateLimitWindow <= 0 {
		cfg.RateLimitWindow = time.Minute
	}
	s := &Server{bot: bot, cfg: cfg}
	s.router = s.routes()
	return s
}

// Handler returns the root http.Handler.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(correlationID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(requestLogger)

	r.Get("/health", s.health)
	r.Get("/actions", s.listActions)
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		if s.cfg.RateLimitReqs > 0 {
			r.Use(httprate.LimitByIP(s.cfg.RateLimitReqs, s.cfg.RateLimitWindow))
		}
		r.Post("/webhook", s.webhook)
	})
	return r
}

// correlationID reuses the caller's X-Correlation-ID or generates one, and
// echoes it on the response.
func correlationID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(CorrelationIDHeader)
		if id == "" {
			id = logging.GenerateCorrelationID()
		}
		w.Header().Set(CorrelationIDHeader, id)
		next.ServeHTTP(w, r.WithContext(logging.ContextWithCorrelationID(r.Context(), id)))
	})
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		logging.Ctx(r.Context()).Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("elapsed", time.Since(start)).
			Msg("http request")
	})
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) listActions(w http.ResponseWriter, _ *http.Request) {
	names := s.bot.Actions()
	out := make([]map[string]string, 0, len(names))
	for _, n := range names {
		out = append(out, map[string]string{"name": n})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) webhook(w http.ResponseWriter, r *http.Request) {
	var req webhookRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body: " + err.Error()})
		return
	}
	if req.NextAction == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "next_action is required"})
		return
	}

	st := req.state()
	res, err := s.bot.Dispatch(r.Context(), req.NextAction, st)
	if errors.Is(err, moviebot.ErrUnknownAction) {
		writeJSON(w, http.StatusNotFound, errorResponse{
			Error:      "No registered action found for name '" + req.NextAction + "'.",
			ActionName: req.NextAction,
		})
		return
	}
	if err != nil {
		logging.Ctx(r.Context()).Debug().Err(err).Str("action", req.NextAction).Msg("action finished with outcome")
	}
	writeJSON(w, http.StatusOK, encodeResult(res))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Warn().Err(err).Msg("write response")
	}
}
