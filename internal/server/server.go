// Package server exposes a drawing session over HTTP: an MJPEG preview, a
// WebSocket cursor feed and the static viewer page.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"
)

type Config struct {
	// StaticDir is served at "/" when set.
	StaticDir string
	// Feed enables /api/stream and /api/cursor.
	Feed *Feed
}

// Server routes preview requests. It is an http.Handler and can also own
// its listener through ListenAndServe.
type Server struct {
	config  Config
	mux     *http.ServeMux
	started time.Time
	cursor  *CursorHandler
	http    *http.Server
}

func New(config Config) *Server {
	s := &Server{
		config:  config,
		mux:     http.NewServeMux(),
		started: time.Now(),
	}
	s.http = &http.Server{Handler: s.mux, ReadHeaderTimeout: 5 * time.Second}

	s.mux.HandleFunc("GET /api/health", s.health)
	if feed := config.Feed; feed != nil {
		s.cursor = NewCursorHandler(feed)
		s.mux.Handle("GET /api/stream", NewStreamHandler(feed))
		s.mux.Handle("GET /api/cursor", s.cursor)
	}
	if config.StaticDir != "" {
		s.mux.Handle("GET /", http.FileServer(http.Dir(config.StaticDir)))
	}
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

type healthResponse struct {
	Status  string `json:"status"`
	Uptime  string `json:"uptime"`
	Session string `json:"session,omitempty"`
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	resp := healthResponse{
		Status: "ok",
		Uptime: time.Since(s.started).Round(time.Second).String(),
	}
	if s.config.Feed != nil {
		resp.Session = s.config.Feed.Session()
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		http.Error(w, "encode health", http.StatusInternalServerError)
	}
}

// ListenAndServe serves on addr until Shutdown, which makes it return nil.
func (s *Server) ListenAndServe(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

func (s *Server) Serve(ln net.Listener) error {
	err := s.http.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown drops cursor clients, then stops accepting connections.
// Open MJPEG streams end when their feed is closed.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.cursor != nil {
		s.cursor.Close()
	}
	return s.http.Shutdown(ctx)
}
