package dashboard

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"

	"jira-extract/internal/auth"
	"jira-extract/internal/jira"
	"jira-extract/internal/pipeline"
	"jira-extract/internal/report"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	sessionCookie = "jira_extract_session"
	optionsTTL    = time.Hour
)

// Options configures a dashboard Server.
type Options struct {
	Client   jira.Client
	Sessions *auth.SessionManager
	// SecureCookies marks the session cookie Secure; enable behind TLS.
	SecureCookies bool
}

// Server is the login-gated QA dashboard.
type Server struct {
	router   *mux.Router
	client   jira.Client
	fetcher  *pipeline.Fetcher
	sessions *auth.SessionManager
	tmpl     *template.Template
	secure   bool
	now      func() time.Time

	optMu     sync.Mutex
	opts      *filterOptions
	optLoaded time.Time
}

// filterOptions is the metadata the filter form offers. Loaded lazily and cached for an hour.
type filterOptions struct {
	IssueTypes []string
	Statuses   []string
	Priorities []string
	Reporters  []string
	QATeam     []string
}

var funcs = template.FuncMap{
	"has":       func(list []string, v string) bool { return slices.Contains(list, v) },
	"firstName": report.FirstName,
	"join":      strings.Join,
}

// New wires the routes. Templates are parsed once; a parse failure is a programming error.
func New(o Options) *Server {
	s := &Server{
		router:   mux.NewRouter(),
		client:   o.Client,
		fetcher:  pipeline.New(o.Client),
		sessions: o.Sessions,
		tmpl:     template.Must(template.New("").Funcs(funcs).ParseFS(templateFS, "templates/*.html")),
		secure:   o.SecureCookies,
		now:      time.Now,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(s.loggingMiddleware)

	s.router.HandleFunc("/healthz", s.healthz).Methods(http.MethodGet)
	s.router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	s.router.HandleFunc("/login", s.loginPage).Methods(http.MethodGet)
	s.router.HandleFunc("/login", s.login).Methods(http.MethodPost)

	protected := s.router.NewRoute().Subrouter()
	protected.Use(s.requireSession)
	protected.HandleFunc("/", s.index).Methods(http.MethodGet)
	protected.HandleFunc("/fetch", s.fetch).Methods(http.MethodPost)
	protected.HandleFunc("/logout", s.logout).Methods(http.MethodPost)
	protected.HandleFunc("/export.xlsx", s.exportXLSX).Methods(http.MethodGet)
	protected.HandleFunc("/export.csv", s.exportCSV).Methods(http.MethodGet)
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("Dashboard listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		log.Info().Msg("Shutting down dashboard")
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) filterOptions(ctx context.Context) *filterOptions {
	s.optMu.Lock()
	defer s.optMu.Unlock()

	if s.opts != nil && s.now().Sub(s.optLoaded) < optionsTTL {
		return s.opts
	}
	s.opts = &filterOptions{
		IssueTypes: s.client.GetIssueTypes(ctx),
		Statuses:   s.client.GetStatuses(),
		Priorities: s.client.GetPriorities(),
		Reporters:  s.client.GetProjectUsers(ctx),
		QATeam:     jira.DefaultQATeam(),
	}
	s.optLoaded = s.now()
	return s.opts
}

// Warm loads the filter metadata ahead of the first page view.
func (s *Server) Warm(ctx context.Context) {
	opts := s.filterOptions(ctx)
	log.Info().
		Int("issueTypes", len(opts.IssueTypes)).
		Int("reporters", len(opts.Reporters)).
		Msg("Filter options loaded")
}
