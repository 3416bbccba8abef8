// Package web exposes the tracked button state as an HTML page and a JSON
// document.
package web

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/sweeney/button-monitor/internal/status"
)

// Server answers status requests from a tracker's latest snapshot.
type Server struct {
	httpServer *http.Server
	tracker    *status.Tracker
	mux        *http.ServeMux
}

// New builds a Server for addr. Nothing listens until ListenAndServe or
// Serve is called.
func New(addr string, tracker *status.Tracker) *Server {
	s := &Server{tracker: tracker, mux: http.NewServeMux()}
	s.mux.HandleFunc("/", s.handleIndex)
	s.mux.HandleFunc("/index.html", s.handleIndex)
	s.mux.HandleFunc("/index.json", s.handleJSON)

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// ServeHTTP rejects anything but GET and HEAD, then dispatches by path.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	s.mux.ServeHTTP(w, r)
}

// ListenAndServe blocks until Shutdown.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// Serve runs on an existing listener.
func (s *Server) Serve(ln net.Listener) error {
	return s.httpServer.Serve(ln)
}

// Shutdown stops accepting requests and waits for in-flight ones, bounded by ctx.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	// "/" is the mux's catch-all.
	if r.URL.Path != "/" && r.URL.Path != "/index.html" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	renderHTML(w, s.tracker.Snapshot())
}

func (s *Server) handleJSON(w http.ResponseWriter, _ *http.Request) {
	body := status.FormatJSON(s.tracker.Snapshot())
	w.Header().Set("Content-Type", "application/json")
	w.Write(body)
}
