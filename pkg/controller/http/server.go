package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/meetsync/pkg/usecase"
	"github.com/secmon-lab/meetsync/pkg/utils/errutil"
	"github.com/secmon-lab/meetsync/pkg/utils/logging"
)

type Server struct {
	router      *chi.Mux
	uc          *usecase.UseCases
	syncTimeout time.Duration
}

type Options func(*Server)

// WithSyncTimeout bounds the background processing of one push
// notification after the acknowledgment has been written.
func WithSyncTimeout(d time.Duration) Options {
	return func(s *Server) {
		s.syncTimeout = d
	}
}

func New(uc *usecase.UseCases, opts ...Options) *Server {
	r := chi.NewRouter()

	s := &Server{
		router:      r,
		uc:          uc,
		syncTimeout: 8 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(accessLogger)
	r.Use(middleware.Recoverer)

	// Calendar push notification endpoint - no auth, channel token verification
	r.Post("/hooks/calendar", s.handleCalendarNotification)

	// Operational endpoints
	r.Post("/api/sweep", s.handleSweep)
	r.Get("/health", handleHealth)

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// handleSweep triggers one scheduler pass on demand
func (s *Server) handleSweep(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	result, err := s.uc.Poll.Sweep(ctx)
	if err != nil {
		errutil.HandleHTTP(ctx, w, goerr.Wrap(err, "manual sweep failed"), http.StatusInternalServerError)
		return
	}

	data, err := json.Marshal(result)
	if err != nil {
		errutil.HandleHTTP(ctx, w, goerr.Wrap(err, "failed to marshal sweep result"), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(data) //nolint:errcheck // header already committed
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`)) //nolint:errcheck // header already committed
}

// accessLogger is a middleware that logs HTTP requests
func accessLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			logging.Default().Info("access",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"remote", r.RemoteAddr,
				"user_agent", r.UserAgent(),
			)
		}()

		next.ServeHTTP(ww, r)
	})
}
