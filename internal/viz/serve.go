package viz

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"graphscore/internal/errors"
)

// Server hosts one rendered page on a loopback port until it has been
// viewed once. Browsers cannot open data URLs from a terminal reliably,
// so the CLI serves the page instead of writing a temp file.
type Server struct {
	ln     net.Listener
	srv    *http.Server
	served chan struct{}
	once   sync.Once
}

// NewServer starts serving html on an ephemeral loopback port.
func NewServer(html string) (*Server, error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, errors.Wrap(errors.InternalError, "starting visualization server", err)
	}

	s := &Server{ln: ln, served: make(chan struct{})}
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, html)
		s.once.Do(func() { close(s.served) })
	})
	s.srv = &http.Server{Handler: mux}
	go s.srv.Serve(ln)
	return s, nil
}

// URL returns the address the page is served on.
func (s *Server) URL() string {
	return "http://" + s.ln.Addr().String()
}

// Wait blocks until the page has been requested once or the context is
// canceled, then shuts the server down.
func (s *Server) Wait(ctx context.Context) error {
	select {
	case <-s.served:
		// Give the response a moment to flush before shutdown.
		time.Sleep(100 * time.Millisecond)
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return s.srv.Shutdown(shutdownCtx)
}
