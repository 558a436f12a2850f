package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/danmuck/guestbook/src/guestbook"
	"github.com/danmuck/guestbook/src/metrics"
	logs "github.com/danmuck/smplog"
)

const (
	DefaultMaxBodyBytes    = 1 << 20
	DefaultShutdownTimeout = 5 * time.Second
)

// EntryStore is the subset of guestbook.Store the handlers depend on.
type EntryStore interface {
	ListAll() ([]guestbook.Entry, error)
	Append(entry guestbook.Entry) (guestbook.Entry, error)
}

type Options struct {
	StaticDir       string // root for static files; empty serves nothing
	MaxBodyBytes    int64
	MetricsPath     string // empty disables the metrics endpoint
	ShutdownTimeout time.Duration
	Now             func() time.Time
}

type Server struct {
	store   EntryStore
	opts    Options
	handler http.Handler
	srv     *http.Server
	lis     net.Listener
}

// New wires the guestbook routes around store. The store must already be
// initialized.
func New(store EntryStore, opts Options) *Server {
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = DefaultShutdownTimeout
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	s := &Server{store: store, opts: opts}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /entries", s.handleListEntries)
	mux.HandleFunc("POST /entries", s.handleCreateEntry)
	mux.HandleFunc("/entries", handleNotFound)
	if opts.MetricsPath != "" {
		mux.Handle("GET "+opts.MetricsPath, metrics.Handler())
	}
	mux.HandleFunc("/", s.handleStatic)

	s.handler = withRequestID(accessLog(metrics.Middleware(mux)))
	s.srv = &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler exposes the full middleware chain, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// ListenAndServe binds addr and serves until ctx is cancelled, then shuts
// down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, l)
}

func (s *Server) Serve(ctx context.Context, l net.Listener) error {
	s.lis = l
	logs.Infof("guestbook listening on %s", l.Addr())

	errCh := make(chan error, 1)
	go func() { errCh <- s.srv.Serve(l) }()

	select {
	case <-ctx.Done():
		cctx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
		defer cancel()
		if err := s.srv.Shutdown(cctx); err != nil {
			logs.Warnf("shutdown did not complete cleanly: %v", err)
			return err
		}
		logs.Infof("guestbook server stopped")
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// Addr reports the bound listener address, or nil before Serve.
func (s *Server) Addr() net.Addr {
	if s.lis == nil {
		return nil
	}
	return s.lis.Addr()
}
