// Package web provides the HTTP status and manual override server for the
// irrigator daemon.
package web

import (
	"context"
	"io"
	"log"
	"net"
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/sweeney/irrigator/internal/logic"
	"github.com/sweeney/irrigator/internal/override"
	"github.com/sweeney/irrigator/internal/status"
)

// maxBody bounds override request bodies.
const maxBody = 1 << 10

// Overrides is the manual command store the override endpoints write to.
type Overrides interface {
	Set(cmd logic.OverrideCommand, source string)
	Clear(source string)
	Override() logic.OverrideCommand
}

// Server serves the status page, metrics and override endpoints over HTTP.
type Server struct {
	httpServer *http.Server
	tracker    *status.Tracker
	overrides  Overrides
}

// New creates a Server that reads state from the given tracker. The override
// endpoints are only registered when overrides is non-nil, and /metrics only
// when metrics is non-nil.
func New(addr string, tracker *status.Tracker, overrides Overrides, metrics http.Handler) *Server {
	s := &Server{tracker: tracker, overrides: overrides}

	r := mux.NewRouter()
	r.HandleFunc("/", s.handleIndex).Methods(http.MethodGet)
	r.HandleFunc("/index.html", s.handleIndex).Methods(http.MethodGet)
	r.HandleFunc("/index.json", s.handleJSON).Methods(http.MethodGet)
	if metrics != nil {
		r.Handle("/metrics", metrics).Methods(http.MethodGet)
	}
	if overrides != nil {
		r.HandleFunc("/override", s.handleGetOverride).Methods(http.MethodGet)
		r.HandleFunc("/override", s.handlePutOverride).Methods(http.MethodPut)
		r.HandleFunc("/override", s.handleDeleteOverride).Methods(http.MethodDelete)
	}

	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: handlers.LoggingHandler(log.Writer(), r),
	}
	return s
}

// Handler returns the root handler, including access logging.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// ListenAndServe starts listening. It blocks until the server is shut down.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// Serve accepts connections on the given listener. Useful for tests.
func (s *Server) Serve(ln net.Listener) error {
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	snap := s.tracker.Snapshot()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	renderHTML(w, snap)
}

func (s *Server) handleJSON(w http.ResponseWriter, r *http.Request) {
	snap := s.tracker.Snapshot()
	w.Header().Set("Content-Type", "application/json")
	w.Write(status.FormatJSON(snap))
}

func (s *Server) handleGetOverride(w http.ResponseWriter, r *http.Request) {
	writeOverride(w, http.StatusOK, s.overrides.Override())
}

func (s *Server) handlePutOverride(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if len(body) == 0 {
		writeError(w, http.StatusBadRequest, errEmptyBody)
		return
	}
	cmd, err := override.Parse(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	s.overrides.Set(cmd, "http "+r.RemoteAddr)
	writeOverride(w, http.StatusOK, s.overrides.Override())
}

func (s *Server) handleDeleteOverride(w http.ResponseWriter, r *http.Request) {
	s.overrides.Clear("http " + r.RemoteAddr)
	writeOverride(w, http.StatusOK, s.overrides.Override())
}
