package metrics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/1broseidon/scrolltile/internal/tiling"
)

// Source provides the debug views. The daemon loop implements it.
type Source interface {
	Tree(ctx context.Context) (tiling.Tree, error)
	Frame(ctx context.Context) (tiling.Frame, error)
}

// Server serves /metrics, /debug/tree, /debug/frame and /healthz.
type Server struct {
	addr    string
	metrics *Metrics
	source  Source
	logger  *slog.Logger
}

// NewServer creates an HTTP server for addr.
func NewServer(addr string, m *Metrics, src Source, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{addr: addr, metrics: m, source: src, logger: logger}
}

// Router builds the HTTP routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestLogger(&logFormatter{logger: s.logger}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.metrics.Registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	}))
	r.Route("/debug", func(r chi.Router) {
		r.Get("/tree", func(w http.ResponseWriter, r *http.Request) {
			tree, err := s.source.Tree(r.Context())
			writeJSON(w, tree, err)
		})
		r.Get("/frame", func(w http.ResponseWriter, r *http.Request) {
			frame, err := s.source.Frame(r.Context())
			writeJSON(w, frame, err)
		})
	})
	return r
}

func writeJSON(w http.ResponseWriter, v any, err error) {
	if err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

// Serve listens until ctx is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("metrics listen %s: %w", s.addr, err)
	}
	srv := &http.Server{
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	s.logger.Info("metrics server listening", "addr", ln.Addr().String())

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Warn("metrics server shutdown", "error", err)
		}
		return ctx.Err()
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

type logFormatter struct {
	logger *slog.Logger
}

func (l *logFormatter) NewLogEntry(r *http.Request) middleware.LogEntry {
	return &logEntry{
		logger: l.logger,
		msg:    fmt.Sprintf("%s %s", r.Method, r.RequestURI),
		from:   r.RemoteAddr,
	}
}

type logEntry struct {
	logger *slog.Logger
	msg    string
	from   string
}

func (l *logEntry) Write(status, bytes int, header http.Header, elapsed time.Duration, extra interface{}) {
	attrs := []any{
		slog.String("from", l.from),
		slog.Int("status", status),
		slog.Int("bytes", bytes),
		slog.String("elapsed", elapsed.String()),
	}
	if status >= 500 {
		l.logger.Error(l.msg, attrs...)
		return
	}
	l.logger.Debug(l.msg, attrs...)
}

func (l *logEntry) Panic(v interface{}, stack []byte) {
	l.logger.Error("panic in metrics handler", "panic", v, "stack", string(stack))
}
