package http

import (
	"bytes"
	"context"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"bankdash/internal/backend"
	"bankdash/internal/dashboard"
	"bankdash/internal/log"
	"bankdash/internal/middleware/ratelimit"
	"bankdash/internal/middleware/security"
	"bankdash/internal/middleware/trace"
	"bankdash/internal/session"
	appweb "bankdash/web"
)

// Options tune the server without touching its collaborators.
type Options struct {
	Addr               string
	CookieSecure       bool
	Location           *time.Location
	RateLimitPerMinute int
	Logger             *log.Logger
}

// Deps are the dashboard collaborators every handler works through.
type Deps struct {
	Tokens   session.TokenStore
	State    *dashboard.StateProvider
	Transfer *dashboard.TransferController
	Lookup   *dashboard.LookupController
	Primary  *dashboard.PrimaryController
	Accounts *dashboard.AccountController
	// Checks are probed by /readyz, keyed by name.
	Checks map[string]backend.Pinger
}

type Server struct {
	http.Server
	templates *template.Template
	deps      Deps
	opts      Options
	logger    *log.Logger

	securityDetector *security.Detector
	rateLimiter      *ratelimit.Limiter
	traceMiddleware  *trace.Middleware

	appMetrics *appMetrics

	now func() time.Time

	shutdownOnce sync.Once
}

type appMetrics struct {
	uptime           time.Time
	transfers        int64
	transferFailures int64
	lookups          int64
	primaryChanges   int64
	accountsAdded    int64
	refreshFailures  int64
	renderFailures   int64
}

func (m *appMetrics) record(res dashboard.Result, attempts, failures *int64) {
	if !res.Called {
		return
	}
	atomic.AddInt64(attempts, 1)
	if res.Err != nil && failures != nil {
		atomic.AddInt64(failures, 1)
	}
	if res.RefreshErr != nil {
		atomic.AddInt64(&m.refreshFailures, 1)
	}
}

// NewServer parses the embedded templates, mounts every route and wraps the
// mux in the security, tracing and rate limiting middleware.
func NewServer(deps Deps, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	logger := opts.Logger.WithComponent(log.ComponentHTTP)

	detector := security.NewDetector(logger)
	s := &Server{
		deps:             deps,
		opts:             opts,
		logger:           logger,
		securityDetector: detector,
		rateLimiter: ratelimit.NewLimiter(ratelimit.Config{
			RequestsPerMinute: opts.RateLimitPerMinute,
			Logger:            logger,
		}),
		traceMiddleware: trace.NewMiddleware(detector.ExtractClientIP, logger),
		appMetrics:      &appMetrics{uptime: time.Now()},
		now:             time.Now,
	}

	t, err := template.New("").Funcs(s.templateFuncs()).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		logger.Warn("Failed parsing templates", log.FieldError, err)
		t = nil
	}
	s.templates = t

	mux := http.NewServeMux()

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("/static/", security.StaticAssetMiddleware(3600)(static))
	} else {
		logger.Warn("Failed to mount embedded static FS", log.FieldError, err)
	}

	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)
	mux.HandleFunc("/metrics", s.handleMetrics)

	page := func(h http.HandlerFunc) http.Handler { return security.NoStoreMiddleware(h) }

	mux.Handle("/", page(s.handleHome))
	mux.Handle("/transactions", page(s.handleTransactionsPage))
	mux.Handle("/login", page(s.handleLoginPage))

	mux.Handle("/ui/overview", page(s.handleOverviewPartial))
	mux.Handle("/ui/transactions", page(s.handleHistoryPartial))

	mux.Handle("/transfer", page(s.handleTransfer))
	mux.Handle("/recipients/search", page(s.handleRecipientSearch))
	mux.Handle("/accounts/primary", page(s.handleSetPrimary))
	mux.Handle("/accounts", page(s.handleAddAccount))

	mux.Handle("/session", page(s.handleSessionCreate))
	mux.Handle("/session/logout", page(s.handleSessionLogout))

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	limited := s.rateLimiter.Middleware(detector.ExtractClientIP, s.handleRateLimited)(mux)

	s.Server = http.Server{
		Addr:              opts.Addr,
		Handler:           detector.Middleware(headers.Middleware(s.traceMiddleware.Middleware(limited))),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// Shutdown gracefully shuts down the server and cleanup routines
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func (s *Server) handleRateLimited(w http.ResponseWriter, r *http.Request) {
	NewHTMXResponse().
		Status(http.StatusTooManyRequests).
		TriggerNotification(NotificationWarning, "Too many requests. Please try again in a minute.", dashboard.ActionNotificationDuration.Milliseconds()).
		BodyString("Rate limit exceeded. Please try again later.").
		Write(w)
}

// render executes a page or partial template. A failing template turns into
// a 500 and never leaves half a page on the wire.
func (s *Server) render(w http.ResponseWriter, r *http.Request, b *HTMXResponseBuilder, name string, data any) {
	if s.templates == nil {
		s.logger.ErrorContext(r.Context(), "Templates not loaded", log.FieldPath, r.URL.Path)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		atomic.AddInt64(&s.appMetrics.renderFailures, 1)
		log.FromContext(r.Context()).WithComponent(log.ComponentTemplate).ErrorContext(r.Context(),
			"Template execution failed", log.FieldError, err, "template", name, log.FieldPath, r.URL.Path)
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}
	b.Header("Content-Type", "text/html; charset=utf-8").Body(buf.Bytes()).Write(w)
}
