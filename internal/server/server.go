package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"github.com/sw33tLie/spoilerguard/internal/utils"
	"github.com/sw33tLie/spoilerguard/pkg/proxy"
	"github.com/sw33tLie/spoilerguard/pkg/registry"
	"github.com/sw33tLie/spoilerguard/pkg/spoiler"
	"github.com/sw33tLie/spoilerguard/pkg/storage"
)

// InterceptionLog records and reports blocked pages.
type InterceptionLog interface {
	LogInterception(ctx context.Context, in storage.Interception) (storage.Interception, error)
	ListRecentInterceptions(ctx context.Context, limit int) ([]storage.Interception, error)
	GetStats(ctx context.Context) ([]storage.ShowStats, error)
}

// Server is the local service the browser extension and the warning page
// talk to.
type Server struct {
	Registry      *registry.Registry
	Detector      *spoiler.Detector
	Interceptions InterceptionLog
	Bypass        *proxy.Bypass

	// BaseURL is the address this service is reachable at, used to build
	// warning page links, e.g. http://127.0.0.1:7878.
	BaseURL string

	Username string
	Password string

	Log *logrus.Logger
}

func New(reg *registry.Registry, interceptions InterceptionLog, bypass *proxy.Bypass, baseURL, user, pass string) *Server {
	return &Server{
		Registry:      reg,
		Detector:      spoiler.NewDetector(reg, utils.Log),
		Interceptions: interceptions,
		Bypass:        bypass,
		BaseURL:       strings.TrimSuffix(baseURL, "/"),
		Username:      user,
		Password:      pass,
		Log:           utils.Log,
	}
}

// BlockedURL is the address of the warning page for an intercepted URL.
func (s *Server) BlockedURL(originalURL, showName string) string {
	return spoiler.BlockedURL(s.BlockedPageURL(), originalURL, showName)
}

// BlockedPageURL is the base address of the warning page.
func (s *Server) BlockedPageURL() string {
	return s.BaseURL + "/blocked"
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{Logger: debugPrinter{s.Log}, NoColor: true}))
	r.Use(middleware.Recoverer)

	r.Group(func(r chi.Router) {
		r.Use(s.basicAuth)

		// Messaging contract
		r.Post("/api/message", s.handleMessage)

		// Registry
		r.Get("/api/state", s.handleState)
		r.Get("/api/shows", s.handleListShows)
		r.Post("/api/shows", s.handleAddShow)
		r.Delete("/api/shows/{index}", s.handleRemoveShow)
		r.Put("/api/shows/{index}/keywords", s.handleSetKeywords)

		// Settings
		r.Put("/api/settings/enabled", s.handleSetEnabled)
		r.Put("/api/settings/blocking-mode", s.handleSetBlockingMode)
		r.Put("/api/settings/sensitivity", s.handleSetSensitivity)
		r.Get("/api/settings/export", s.handleExport)
		r.Post("/api/settings/import", s.handleImport)
		r.Post("/api/settings/reset", s.handleReset)

		// Interception log
		r.Get("/api/interceptions", s.handleInterceptions)
		r.Get("/api/stats", s.handleStats)
	})

	r.Get("/blocked", s.handleBlocked)
	r.Get("/continue", s.handleContinue)

	return r
}

// Serve listens on addr until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return serveUntilDone(ctx, srv, s.Log)
}

// ServeProxy runs a filtering proxy on addr until ctx is cancelled.
func ServeProxy(ctx context.Context, addr string, p *proxy.Proxy, log *logrus.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           p,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return serveUntilDone(ctx, srv, log)
}

func serveUntilDone(ctx context.Context, srv *http.Server, log *logrus.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		log.Infof("Listening on %s", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func (s *Server) basicAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.Username == "" && s.Password == "" {
			next.ServeHTTP(w, r)
			return
		}
		user, pass, ok := r.BasicAuth()
		if !ok || user != s.Username || pass != s.Password {
			w.Header().Set("WWW-Authenticate", `Basic realm="spoilerguard"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// debugPrinter sends chi's request log lines to logrus at debug level.
type debugPrinter struct {
	log *logrus.Logger
}

func (d debugPrinter) Print(v ...interface{}) {
	d.log.Debug(v...)
}
