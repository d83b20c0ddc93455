// Package server is a static development server for a single-page app build.
//
// HTML responses pass through a [build.Runner], so pages are served with
// modulepreload links marked and, when enabled, the prefetch script
// injected. Extensionless paths that match no file fall back to the root
// index.html so client-side routes resolve.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/proxprefetch/pkg/build"
	"github.com/matzehuels/proxprefetch/pkg/buildinfo"
	"github.com/matzehuels/proxprefetch/pkg/errors"
)

// InternalPrefix is the URL prefix reserved for server endpoints.
const InternalPrefix = "/_proxprefetch"

// DefaultAddr is the listen address used when none is given.
const DefaultAddr = "127.0.0.1:4173"

const shutdownTimeout = 5 * time.Second

// Server serves a build output directory.
type Server struct {
	root   string
	runner *build.Runner
	logger *log.Logger
	router chi.Router
}

// New creates a server for root. runner transforms every HTML response.
func New(root string, runner *build.Runner, logger *log.Logger) (*Server, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "serve root %s", root)
	}
	if !info.IsDir() {
		return nil, errors.New(errors.ErrCodeInvalidPath, "%s is not a directory", root)
	}
	if logger == nil {
		logger = log.Default()
	}

	s := &Server{root: root, runner: runner, logger: logger}
	s.router = s.routes()
	return s, nil
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Route(InternalPrefix, func(r chi.Router) {
		r.Get("/healthz", s.handleHealth)
		r.Get("/config", s.handleConfig)
	})
	r.Get("/*", s.handleStatic)
	r.Head("/*", s.handleStatic)
	return r
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe serves on addr until ctx is canceled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	if addr == "" {
		addr = DefaultAddr
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.logger.Info("serving", "root", s.root, "addr", "http://"+addr)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return ctx.Err()
	}
}

// =============================================================================
// Handlers
// =============================================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": buildinfo.Version,
	})
}

func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	cfg := s.runner.Plugin.Config()
	writeJSON(w, http.StatusOK, map[string]any{
		"options":           cfg.Options(),
		"automaticPrefetch": cfg.AutomaticPrefetch,
	})
}

func (s *Server) handleStatic(w http.ResponseWriter, r *http.Request) {
	if err := errors.ValidatePath(r.URL.Path); err != nil {
		http.Error(w, errors.UserMessage(err), http.StatusBadRequest)
		return
	}
	rel, ok := s.resolve(r.URL.Path)
	if !ok {
		http.NotFound(w, r)
		return
	}

	full := filepath.Join(s.root, filepath.FromSlash(rel))
	if !isHTML(rel) {
		http.ServeFile(w, r, full)
		return
	}

	src, err := os.ReadFile(full)
	if err != nil {
		http.Error(w, "read failed", http.StatusInternalServerError)
		return
	}
	out, err := s.runner.Transform(r.Context(), rel, src)
	if err != nil {
		s.logger.Warn("transform failed, serving original", "file", rel, "error", err)
		out = src
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	if r.Method != http.MethodHead {
		_, _ = w.Write(out)
	}
}

// resolve maps a URL path to a file below root. Directories resolve to
// their index.html; missing extensionless paths fall back to the root
// index.html.
func (s *Server) resolve(urlPath string) (string, bool) {
	rel := strings.TrimPrefix(path.Clean("/"+urlPath), "/")
	if rel == "" {
		rel = "index.html"
	}

	if info, err := os.Stat(filepath.Join(s.root, filepath.FromSlash(rel))); err == nil {
		if !info.IsDir() {
			return rel, true
		}
		index := path.Join(rel, "index.html")
		if s.exists(index) {
			return index, true
		}
	}

	if path.Ext(rel) == "" && s.exists("index.html") {
		return "index.html", true
	}
	return "", false
}

func (s *Server) exists(rel string) bool {
	info, err := os.Stat(filepath.Join(s.root, filepath.FromSlash(rel)))
	return err == nil && !info.IsDir()
}

func isHTML(name string) bool {
	ext := strings.ToLower(path.Ext(name))
	return ext == ".html" || ext == ".htm"
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// logRequests logs each request with the charmbracelet logger.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		logf := s.logger.Debug
		if status >= http.StatusInternalServerError {
			logf = s.logger.Warn
		}
		logf("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}
