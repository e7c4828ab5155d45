// Package server exposes sessions, metrics, insights and the audit trail
// over a JSON HTTP API.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"github.com/KaramelBytes/prism-cli/internal/analysis"
	"github.com/KaramelBytes/prism-cli/internal/audit"
	"github.com/KaramelBytes/prism-cli/internal/ingest"
	"github.com/KaramelBytes/prism-cli/internal/insights"
	"github.com/KaramelBytes/prism-cli/internal/session"
)

// ActorHeader names the caller for the audit trail.
const ActorHeader = "X-Actor"

// Options configures a Server.
type Options struct {
	Addr           string
	DefaultActor   string
	RevenueTarget  float64
	MaxUploadBytes int64
	RequestTimeout time.Duration
	Ingest         ingest.Options
	Profile        analysis.Options
}

// Deps are the collaborators a Server drives.
type Deps struct {
	Sessions *session.Store
	Insights *insights.Service
	Recorder *audit.Recorder
	Metrics  *Metrics
	Logger   *slog.Logger
}

type Server struct {
	opt      Options
	sessions *session.Store
	insights *insights.Service
	recorder *audit.Recorder
	metrics  *Metrics
	log      *slog.Logger
	validate *validator.Validate
	now      func() time.Time
}

func New(opt Options, deps Deps) *Server {
	if opt.DefaultActor == "" {
		opt.DefaultActor = audit.DefaultActor
	}
	if opt.RevenueTarget <= 0 {
		opt.RevenueTarget = insights.DefaultRevenueTarget
	}
	if opt.MaxUploadBytes <= 0 {
		opt.MaxUploadBytes = 1 << 30
	}
	if opt.RequestTimeout <= 0 {
		opt.RequestTimeout = 2 * time.Minute
	}
	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}
	sessions := deps.Sessions
	if sessions == nil {
		sessions = session.NewStore(session.DefaultTTL)
	}
	m := deps.Metrics
	if m == nil {
		m = NewMetrics(sessions.Len)
	}
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &Server{
		opt:      opt,
		sessions: sessions,
		insights: deps.Insights,
		recorder: deps.Recorder,
		metrics:  m,
		log:      log.With(slog.String("component", "server")),
		validate: v,
		now:      time.Now,
	}
}

// Routes builds the router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(s.metrics.instrument)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, map[string]any{"status": "ok", "sessions": s.sessions.Len()})
	})
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Timeout(s.opt.RequestTimeout))
		r.Use(render.SetContentType(render.ContentTypeJSON))
		r.Get("/logs", s.handleLogs)
		r.Post("/datasets", s.handleUpload)
		r.Route("/datasets/{id}", func(r chi.Router) {
			r.Get("/", s.handleInfo)
			r.Delete("/", s.handleDelete)
			r.Get("/profile", s.handleProfile)
			r.Get("/categories", s.handleCategories)
			r.Post("/filter", s.handleFilter)
			r.Delete("/filter", s.handleResetFilter)
			r.Post("/clean", s.handleClean)
			r.Get("/summary", s.handleSummary)
			r.Get("/anomaly", s.handleAnomaly)
			r.Get("/chart", s.handleChart)
			r.Post("/insights", s.handleInsight)
			r.Get("/export.csv", s.handleExportCSV)
			r.Get("/export.xlsx", s.handleExportXLSX)
			r.Get("/report.txt", s.handleReport)
		})
	})
	return r
}

// ListenAndServe runs until ctx is canceled, then drains in-flight requests.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.opt.Addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("listening", slog.String("addr", s.opt.Addr))
		errCh <- srv.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.log.Info("shutting down")
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) actor(r *http.Request) string {
	if a := strings.TrimSpace(r.Header.Get(ActorHeader)); a != "" {
		return a
	}
	return s.opt.DefaultActor
}

// requestLogger logs one line per request once the response is written.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.InfoContext(r.Context(), "request completed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", ww.Status()),
			slog.Int("bytes", ww.BytesWritten()),
			slog.Duration("duration", time.Since(start)))
	})
}
