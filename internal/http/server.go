package http

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"findash/internal/core"
	"findash/internal/dashboard"
	applog "findash/internal/log"
	"findash/internal/storage"
	appweb "findash/web"
)

// Store is the read side of the local store.
type Store interface {
	dashboard.Reader
	Fetch(ctx context.Context, v storage.View) (storage.Table, error)
	Ping(ctx context.Context) error
}

type Server struct {
	http.Server
	templates      *template.Template
	store          Store
	dashboard      *dashboard.Service
	metrics        *metrics
	logger         *applog.Logger
	requestTimeout time.Duration

	shutdownOnce sync.Once
}

// ServerConfig carries the optional knobs of NewServer.
type ServerConfig struct {
	RequestTimeout time.Duration
	Logger         *applog.Logger
}

// NewServer configures routes and templates, returning a ready-to-run http.Server.
func NewServer(addr string, store Store, cfg ServerConfig) *Server {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 7 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = applog.New(applog.Config{Handler: slog.Default().Handler(), Component: applog.ComponentHTTP})
	}
	mux := http.NewServeMux()
	logger := cfg.Logger.WithComponent(applog.ComponentHTTP)

	s := &Server{
		Server: http.Server{
			Addr:              addr,
			Handler:           applog.Middleware(logger)(mux),
			ReadHeaderTimeout: 5 * time.Second,
		},
		store:          store,
		dashboard:      dashboard.NewService(store, cfg.Logger.Logger),
		metrics:        newMetrics(),
		logger:         logger,
		requestTimeout: cfg.RequestTimeout,
	}

	// Parse embedded templates at startup.
	t, err := template.New("").Funcs(templateFuncs()).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		s.logger.Warn("Failed parsing templates", applog.FieldError, err)
	}
	s.templates = t

	mux.HandleFunc("GET /{$}", s.instrument("/", s.handleIndex))
	mux.HandleFunc("GET /api/report", s.instrument("/api/report", s.handleReport))
	mux.HandleFunc("GET /api/views", s.instrument("/api/views", s.handleListViews))
	mux.HandleFunc("GET /api/views/{name}", s.instrument("/api/views/{name}", s.handleView))
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.Handle("GET /metrics", s.metrics.handler())

	return s
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// instrument adds request ids, security headers, a per-request timeout,
// request logging and metrics. route is the metrics label, never the raw path.
func (s *Server) instrument(route string, next http.HandlerFunc) http.HandlerFunc {
	structured := applog.NewStructuredLogger(s.logger)
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		clientIP := extractClientIP(r)

		requestID := r.Header.Get("X-Request-ID")
		if _, err := uuid.Parse(requestID); err != nil {
			requestID = uuid.NewString()
		}

		ctx, cancel := context.WithTimeout(r.Context(), s.requestTimeout)
		defer cancel()
		ctx = applog.WithRequestID(ctx, requestID)
		r = r.WithContext(ctx)

		if detectSuspiciousRequest(r) {
			s.metrics.suspiciousRequests.Inc()
			s.logger.WarnContext(ctx, "Suspicious request",
				applog.FieldRequestID, requestID,
				applog.FieldClientIP, clientIP,
				applog.FieldPath, r.URL.Path)
		}

		h := w.Header()
		h.Set("X-Request-ID", requestID)
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Content-Security-Policy", "default-src 'self'; style-src 'self' 'unsafe-inline'; img-src 'self' data:")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		elapsed := time.Since(start)
		s.metrics.observe(route, rw.statusCode, elapsed)
		structured.LogHTTPEnd(ctx, r, rw.statusCode, elapsed.Milliseconds(), clientIP)
	}
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := s.store.Ping(ctx); err != nil {
		s.logger.WarnContext(ctx, "Readiness check failed", applog.FieldError, err)
		http.Error(w, "store unavailable", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// buildReport parses the filters and builds the report, writing the error
// response itself when it returns ok=false.
func (s *Server) buildReport(w http.ResponseWriter, r *http.Request, asJSON bool) (dashboard.Report, bool) {
	fail := func(status int, msg string) {
		if asJSON {
			writeError(w, r, status, msg)
		} else {
			http.Error(w, msg, status)
		}
	}

	params, err := ParseParams(r.URL.Query())
	if err != nil {
		fail(http.StatusBadRequest, err.Error())
		return dashboard.Report{}, false
	}

	report, err := s.dashboard.Build(r.Context(), params)
	if err != nil {
		s.metrics.reports.WithLabelValues("error").Inc()
		applog.NewStructuredLogger(applog.FromContext(r.Context())).
			LogError(r.Context(), "Report build failed", err, applog.ComponentHTTP, applog.OpReport, nil)
		if errors.Is(err, context.DeadlineExceeded) {
			fail(http.StatusGatewayTimeout, "report timed out")
		} else {
			fail(http.StatusInternalServerError, "failed to build report")
		}
		return dashboard.Report{}, false
	}

	s.metrics.reports.WithLabelValues("ok").Inc()
	if report.Empty {
		s.metrics.emptyReports.Inc()
	}
	return report, true
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if s.templates == nil {
		s.logger.ErrorContext(r.Context(), "Templates not loaded", applog.FieldPath, r.URL.Path)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}

	report, ok := s.buildReport(w, r, false)
	if !ok {
		return
	}

	var buf bytes.Buffer
	data := struct{ Report dashboard.Report }{Report: report}
	if err := s.templates.ExecuteTemplate(&buf, "dashboard.html", data); err != nil {
		s.logger.ErrorContext(r.Context(), "Dashboard template execution failed",
			applog.FieldOperation, applog.OpRender,
			applog.FieldError, err)
		http.Error(w, "failed to render dashboard", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	report, ok := s.buildReport(w, r, true)
	if !ok {
		return
	}
	writeJSON(w, r, http.StatusOK, report)
}

func (s *Server) handleListViews(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string][]storage.View{"views": storage.Views()})
}

func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	v, err := storage.ParseView(r.PathValue("name"))
	if err != nil {
		writeError(w, r, http.StatusNotFound, err.Error())
		return
	}

	table, err := s.store.Fetch(r.Context(), v)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "View fetch failed",
			applog.FieldOperation, applog.OpFetch,
			applog.FieldView, string(v),
			applog.FieldError, err)
		writeError(w, r, http.StatusInternalServerError, fmt.Sprintf("failed to read %s", v))
		return
	}
	writeJSON(w, r, http.StatusOK, table)
}

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"money":     core.FormatAmount,
		"nullMoney": core.FormatNullAmount,
		"date":      func(d core.Date) string { return d.String() },
		"month": func(d core.Date) string {
			if d.IsZero() {
				return ""
			}
			return d.Format("January 2006")
		},
		"has": func(list []string, s string) bool { return slices.Contains(list, s) },
		"maxAmount": func(rows []core.CategoryAmount) decimal.Decimal {
			top := decimal.Zero
			for _, r := range rows {
				top = decimal.Max(top, r.Amount.Abs())
			}
			return top
		},
		// width scales amount against top into a 0..200px bar.
		"width": func(amount, top decimal.Decimal) int64 {
			if !top.IsPositive() {
				return 0
			}
			return amount.Abs().Mul(decimal.NewFromInt(200)).Div(top).Round(0).IntPart()
		},
	}
}
