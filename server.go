// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package handoff

import (
	"context"
	"crypto/tls"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/z5labs/handoff/executor"
	"github.com/z5labs/handoff/internal/fixedpool"
	"github.com/z5labs/handoff/pkg/noop"
	"github.com/z5labs/handoff/pkg/otelslog"
	"github.com/z5labs/handoff/pkg/slogfield"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/z5labs/handoff"

type state int

const (
	stateCreated state = iota
	stateListening
	stateStopped
)

type serverOptions struct {
	logHandler slog.Handler
	exec       executor.Executor
	tls        *TLSConfig
	registerer prometheus.Registerer
	listen     func(network, address string) (net.Listener, error)
	settings   settings
}

// Option configures a [Server].
type Option func(*serverOptions)

// LogHandler sets the slog.Handler used by the [Server].
func LogHandler(h slog.Handler) Option {
	return func(so *serverOptions) {
		so.logHandler = h
	}
}

// WithExecutor sets the designated executor which runs designated route
// callbacks and [Server.Listen] completion callbacks.
//
// By default, the server runs its own [executor.Loop] on a background goroutine.
func WithExecutor(e executor.Executor) Option {
	return func(so *serverOptions) {
		so.exec = e
	}
}

// TLS serves HTTPS with the given material. If it can't be loaded the
// server is invalid and [Server.Listen] always fails.
func TLS(cfg TLSConfig) Option {
	return func(so *serverOptions) {
		so.tls = &cfg
	}
}

// DefaultMaxWait sets the max wait used by routes which don't set their own.
//
// Default is 5 seconds.
func DefaultMaxWait(d time.Duration) Option {
	return func(so *serverOptions) {
		so.settings.maxWait = truncateWait(d)
	}
}

// Registerer sets where the server metrics are registered.
//
// By default, a private prometheus.Registry is used.
func Registerer(reg prometheus.Registerer) Option {
	return func(so *serverOptions) {
		so.registerer = reg
	}
}

// ListenFunc replaces the func used to bind the listening socket.
func ListenFunc(f func(network, address string) (net.Listener, error)) Option {
	return func(so *serverOptions) {
		so.listen = f
	}
}

// Workers bounds how many requests are handled at once. Values below
// one are ignored.
func Workers(n int) Option {
	return func(so *serverOptions) {
		if n > 0 {
			so.settings.workers = n
		}
	}
}

// KeepAliveMaxCount sets how many requests a single connection may serve.
// Values below one are ignored.
func KeepAliveMaxCount(n int) Option {
	return func(so *serverOptions) {
		if n > 0 {
			so.settings.keepAliveMaxCount = n
		}
	}
}

// KeepAliveTimeout sets how long idle connections are kept open. Zero
// disables keep-alive and negative values are ignored.
func KeepAliveTimeout(d time.Duration) Option {
	return func(so *serverOptions) {
		if d >= 0 {
			so.settings.keepAliveTimeout = d
		}
	}
}

// PayloadMaxLength sets the largest request body, in bytes, routes accept.
// Values below one are ignored.
func PayloadMaxLength(n int64) Option {
	return func(so *serverOptions) {
		if n > 0 {
			so.settings.payloadMaxLength = n
		}
	}
}

// TCPNoDelay toggles TCP_NODELAY on accepted connections.
func TCPNoDelay(b bool) Option {
	return func(so *serverOptions) {
		so.settings.tcpNoDelay = b
	}
}

// Server is an embedded HTTP server whose route callbacks can be handed
// off to a designated executor.
type Server struct {
	log     *slog.Logger
	tracer  trace.Tracer
	metrics *metrics

	exec      executor.Executor
	ownedLoop *executor.Loop

	listen    func(network, address string) (net.Listener, error)
	tlsConfig *tls.Config
	tlsErr    error

	mu        sync.Mutex
	state     state
	settings  settings
	routes    []Route
	mounts    []Mount
	mimeTypes map[string]string

	stop       chan struct{}
	done       chan struct{}
	ln         net.Listener
	srv        *http.Server
	cancelBase context.CancelFunc
}

// New returns a [Server] in the created state.
func New(opts ...Option) *Server {
	so := &serverOptions{
		logHandler: noop.LogHandler{},
		listen:     net.Listen,
		settings:   defaultSettings(),
	}
	for _, opt := range opts {
		opt(so)
	}
	if so.registerer == nil {
		so.registerer = prometheus.NewRegistry()
	}

	done := make(chan struct{})
	close(done)

	s := &Server{
		log:       otelslog.New(so.logHandler),
		tracer:    otel.Tracer(tracerName),
		metrics:   newMetrics(so.registerer),
		exec:      so.exec,
		listen:    so.listen,
		settings:  so.settings,
		mimeTypes: make(map[string]string),
		done:      done,
	}
	if s.exec == nil {
		s.ownedLoop = executor.Start(executor.LogHandler(so.logHandler))
		s.exec = s.ownedLoop
	}

	if so.tls != nil {
		s.tlsConfig, s.tlsErr = so.tls.load()
		if s.tlsErr != nil {
			s.log.Error("server is invalid", slogfield.Error(s.tlsErr))
		}
	}
	return s
}

// IsValid reports whether the server can listen at all. A server is only
// invalid when its TLS material could not be loaded.
func (s *Server) IsValid() bool {
	return s.tlsErr == nil
}

// IsRunning reports whether the server is listening, or about to.
func (s *Server) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == stateListening
}

// Healthy implements the health.Metric interface. A server is healthy
// while it's bound and serving.
func (s *Server) Healthy(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == stateListening && s.srv != nil
}

// Addr returns the address the server is bound to or nil if it isn't.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// Done returns a channel which is closed once the current listen loop
// has exited. If the server never listened, the channel is already closed.
func (s *Server) Done() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done
}

// Listen binds host and port on a background goroutine and serves until
// the server is stopped. onComplete, if not nil, is posted to the server
// executor exactly once with whether the bind succeeded.
//
// Listen fails without binding if the server is invalid, host is empty,
// or the server has already been asked to listen. A failed bind returns
// the server to the created state so it may be retried on another port.
func (s *Server) Listen(host string, port uint16, onComplete func(bool)) {
	report := func(ok bool) {
		if onComplete == nil {
			return
		}
		s.exec.Execute(func() {
			onComplete(ok)
		})
	}

	if s.tlsErr != nil {
		s.log.Error("can not listen on an invalid server", slogfield.Error(s.tlsErr))
		report(false)
		return
	}
	if host == "" {
		s.log.Error("can not listen without a host", slogfield.Uint16("port", port))
		report(false)
		return
	}

	s.mu.Lock()
	switch s.state {
	case stateListening:
		s.mu.Unlock()
		s.log.Warn("server is already listening")
		report(false)
		return
	case stateStopped:
		s.mu.Unlock()
		s.log.Warn("can not listen on a stopped server")
		report(false)
		return
	}

	snap := s.snapshot()
	baseCtx, cancel := context.WithCancel(context.Background())
	stop := make(chan struct{})
	done := make(chan struct{})
	s.state = stateListening
	s.stop = stop
	s.done = done
	s.cancelBase = cancel
	s.mu.Unlock()

	addr := net.JoinHostPort(host, strconv.Itoa(int(port)))
	go func() {
		defer close(done)
		defer cancel()

		s.run(baseCtx, snap, addr, stop, report)
	}()
}

func (s *Server) run(baseCtx context.Context, snap *snapshot, addr string, stop <-chan struct{}, report func(bool)) {
	ls, err := s.listen("tcp", addr)
	if err != nil {
		s.log.Error("failed to bind", slogfield.Error(BindError{Addr: addr, Cause: err}))

		s.mu.Lock()
		if s.state == stateListening {
			s.state = stateCreated
		}
		s.mu.Unlock()

		report(false)
		return
	}

	ls = noDelayListener{Listener: ls, noDelay: snap.tcpNoDelay}
	if s.tlsConfig != nil {
		tc := s.tlsConfig.Clone()
		tc.NextProtos = append([]string{"h2", "http/1.1"}, tc.NextProtos...)
		ls = tls.NewListener(ls, tc)
	}
	srv := s.newHTTPServer(baseCtx, snap)

	s.mu.Lock()
	if s.state != stateListening {
		s.mu.Unlock()
		ls.Close()
		s.log.Info("server was stopped before it finished binding", slogfield.String("addr", addr))
		report(false)
		return
	}
	s.ln = ls
	s.srv = srv
	s.mu.Unlock()

	s.log.Info("started listening", slogfield.Addr(ls.Addr()))
	report(true)

	err = fixedpool.Wait(
		context.Background(),
		func(ctx context.Context) error {
			select {
			case <-ctx.Done():
				return nil
			case <-stop:
			}

			s.log.Info("shutting down server")
			return srv.Shutdown(context.Background())
		},
		func(ctx context.Context) error {
			err := srv.Serve(ls)
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		},
	)

	s.mu.Lock()
	s.ln = nil
	s.srv = nil
	s.mu.Unlock()

	if err != nil {
		s.log.Error("listen loop exited unexpectedly", slogfield.Error(err))
		return
	}
	s.log.Info("stopped listening")
}

func (s *Server) newHTTPServer(baseCtx context.Context, snap *snapshot) *http.Server {
	srv := &http.Server{
		Handler: otelhttp.NewHandler(
			s.newHandler(snap),
			"handoff",
			otelhttp.WithMessageEvents(otelhttp.ReadEvents, otelhttp.WriteEvents),
		),
		IdleTimeout: snap.keepAliveTimeout,
		ErrorLog:    slog.NewLogLogger(s.log.Handler(), slog.LevelError),
		ConnContext: withConnState,
		BaseContext: func(net.Listener) context.Context {
			return baseCtx
		},
	}
	if snap.keepAliveTimeout == 0 {
		srv.SetKeepAlivesEnabled(false)
	}
	return srv
}

// Stop asks the listen loop to shut down gracefully and returns without
// waiting for it. Stop is a no-op unless the server is listening. A
// stopped server can not listen again.
func (s *Server) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != stateListening {
		return
	}
	s.state = stateStopped
	close(s.stop)
}

// Shutdown stops the server and waits for the listen loop to exit or
// ctx to be done, whichever happens first.
func (s *Server) Shutdown(ctx context.Context) error {
	s.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-s.Done():
	}

	if s.ownedLoop != nil {
		s.ownedLoop.Close()
	}
	return nil
}

// Close immediately closes the listener and every connection, releases
// any waiting network goroutines and waits for the listen loop to exit.
// The server can not be used afterwards.
func (s *Server) Close() error {
	s.mu.Lock()
	wasListening := s.state == stateListening
	if wasListening {
		close(s.stop)
	}
	s.state = stateStopped
	srv := s.srv
	cancel := s.cancelBase
	done := s.done
	s.mu.Unlock()

	if wasListening {
		s.log.Warn("closing a listening server")
	}
	if cancel != nil {
		cancel()
	}

	var err error
	if srv != nil {
		err = srv.Close()
	}
	<-done

	if s.ownedLoop != nil {
		s.ownedLoop.Close()
	}
	return err
}
