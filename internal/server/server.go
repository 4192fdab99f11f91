// Package server implements the live-updating web view: it serves the
// assets directory over HTTP and pushes reload signals to connected
// browsers whenever a rendered document changes. It watches only output
// files and never participates in triggering renders.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/coder/websocket"

	"github.com/cardeck/cardeck/assets"
	"github.com/cardeck/cardeck/internal/logging"
	"github.com/cardeck/cardeck/internal/watcher"
)

const outputDebounce = 100 * time.Millisecond

// LiveReloadServer serves the assets directory and a websocket endpoint
// browsers subscribe to for refresh pushes.
type LiveReloadServer struct {
	httpServer *http.Server
	fileWatch  *watcher.FileWatcher
	outputs    *watcher.Registry
	root       string
	log        logging.Logger

	register   chan *client
	unregister chan *client
	broadcast  chan []byte
	clients    map[*client]struct{}
	hubDone    chan struct{}
}

// New creates a live-reload server bound to host:port serving root. The
// outputs registry lists the rendered documents whose changes are pushed
// to clients.
func New(host string, port int, root string, outputs *watcher.Registry, log logging.Logger) (*LiveReloadServer, error) {
	s := &LiveReloadServer{
		outputs:    outputs,
		root:       root,
		log:        log.WithComponent("server"),
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan []byte, 16),
		clients:    make(map[*client]struct{}),
		hubDone:    make(chan struct{}),
	}

	fw, err := watcher.NewFileWatcher(outputDebounce, nil, s.log)
	if err != nil {
		return nil, fmt.Errorf("creating output watcher: %w", err)
	}
	// Watch only the rendered documents, nothing else.
	fw.AddFilter(outputs.Contains)
	fw.AddHandler(func(ctx context.Context, events []watcher.ChangeEvent) error {
		s.log.Debug(ctx, "output changed, pushing reload", "events", len(events))
		s.broadcast <- []byte("reload")

		return nil
	})
	s.fileWatch = fw

	mux := http.NewServeMux()
	mux.Handle("/", http.FileServer(http.Dir(root)))
	mux.HandleFunc("/__cardeck/livereload.js", s.handleScript)
	mux.HandleFunc("/__cardeck/ws", s.handleWebSocket)

	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", host, port),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return s, nil
}

// Start runs the websocket hub, the output watcher, and the HTTP server.
// It blocks until the server stops or ctx is cancelled.
func (s *LiveReloadServer) Start(ctx context.Context) error {
	go s.runHub(ctx)

	if err := s.fileWatch.AddRecursive(s.root); err != nil {
		return fmt.Errorf("watching output files: %w", err)
	}
	s.fileWatch.Start(ctx)

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		return s.Shutdown(context.Background())
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// Shutdown stops the HTTP server and the output watcher.
func (s *LiveReloadServer) Shutdown(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := s.fileWatch.Stop(); err != nil {
		s.log.Warn(ctx, err, "stopping output watcher")
	}

	return s.httpServer.Shutdown(shutdownCtx)
}

func (s *LiveReloadServer) handleScript(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(assets.LiveReloadJS)
}

// runHub owns the client set and is the only goroutine that closes a
// client's send channel, so a broadcast can never race a close.
func (s *LiveReloadServer) runHub(ctx context.Context) {
	defer close(s.hubDone)

	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	for {
		select {
		case <-ctx.Done():
			for c := range s.clients {
				s.remove(c, websocket.StatusGoingAway, "server shutting down")
			}
			return

		case c := <-s.register:
			s.clients[c] = struct{}{}
			s.log.Debug(ctx, "client connected", "total", len(s.clients))

		case c := <-s.unregister:
			s.remove(c, websocket.StatusNormalClosure, "")
			s.log.Debug(ctx, "client disconnected", "total", len(s.clients))

		case message := <-s.broadcast:
			for c := range s.clients {
				select {
				case c.send <- message:
				default:
					// Stalled client; drop it rather than block the hub.
					s.remove(c, websocket.StatusPolicyViolation, "send buffer full")
				}
			}

		case <-ping.C:
			for c := range s.clients {
				c.ping(ctx)
			}
		}
	}
}

// remove drops a client from the hub, closing its send channel exactly
// once. Only call from runHub.
func (s *LiveReloadServer) remove(c *client, code websocket.StatusCode, reason string) {
	if _, ok := s.clients[c]; !ok {
		return
	}
	delete(s.clients, c)
	close(c.send)
	c.closeConn(code, reason)
}
