// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/z5labs/handoff"
	"github.com/z5labs/handoff/executor"
	"github.com/z5labs/handoff/pkg/health"
	"github.com/z5labs/handoff/pkg/httphealth"
	"github.com/z5labs/handoff/pkg/otelslog"
	"github.com/z5labs/handoff/pkg/slogfield"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

var errBindFailed = errors.New("failed to bind the handoff server")

// daemon owns the main loop every designated route runs on, the handoff
// server and the optional admin server exposing metrics and health.
type daemon struct {
	cfg Config
	log *slog.Logger

	loop *executor.Loop
	srv  *handoff.Server
	reg  *prometheus.Registry

	admin   *http.Server
	adminLn net.Listener
}

func newDaemon(cfg Config, h slog.Handler) (*daemon, error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	loop := executor.NewLoop(executor.LogHandler(h))

	opts := []handoff.Option{
		handoff.LogHandler(h),
		handoff.WithExecutor(loop),
		handoff.Registerer(reg),
	}
	if tlsCfg, ok := cfg.Server.tls(); ok {
		opts = append(opts, handoff.TLS(tlsCfg))
	}
	srv := handoff.New(opts...)

	d := &daemon{
		cfg:  cfg,
		log:  otelslog.New(h),
		loop: loop,
		srv:  srv,
		reg:  reg,
	}

	err := d.configure()
	if err != nil {
		return nil, err
	}

	if cfg.Metrics.Addr != "" {
		ln, err := net.Listen("tcp", cfg.Metrics.Addr)
		if err != nil {
			return nil, err
		}
		d.adminLn = ln
		d.admin = &http.Server{
			Handler:  d.adminHandler(),
			ErrorLog: slog.NewLogLogger(h, slog.LevelError),
		}
	}
	return d, nil
}

func (d *daemon) configure() error {
	sc := d.cfg.Server

	err := d.srv.SetMaxWait(sc.MaxWait)
	if err != nil {
		return err
	}
	err = d.srv.SetTCPNoDelay(sc.TCPNoDelay)
	if err != nil {
		return err
	}
	if sc.Workers > 0 {
		err = d.srv.SetWorkers(sc.Workers)
		if err != nil {
			return err
		}
	}
	if sc.PayloadMaxLength > 0 {
		err = d.srv.SetPayloadMaxLength(sc.PayloadMaxLength)
		if err != nil {
			return err
		}
	}
	if sc.KeepAlive.MaxCount > 0 {
		err = d.srv.SetKeepAliveMaxCount(sc.KeepAlive.MaxCount)
		if err != nil {
			return err
		}
	}
	err = d.srv.SetKeepAliveTimeout(sc.KeepAlive.Timeout)
	if err != nil {
		return err
	}
	for ext, mimeType := range sc.MIMETypes {
		err = d.srv.SetMIMEType(ext, mimeType)
		if err != nil {
			return err
		}
	}

	routes := make([]handoff.Route, 0, len(sc.Routes))
	for _, rc := range sc.Routes {
		routes = append(routes, rc.route(d.loop))
	}
	return d.srv.Setup(sc.mounts(), routes)
}

func (d *daemon) adminHandler() http.Handler {
	r := chi.NewRouter()
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(d.reg, promhttp.HandlerOpts{
		Registry: d.reg,
	}))
	r.Handle("/health/liveness", httphealth.NewHandler(d.loop))
	r.Handle("/health/readiness", httphealth.NewHandler(health.And(d.loop, d.srv)))
	return r
}

// run serves until ctx is done or the handoff server fails to bind.
func (d *daemon) run(ctx context.Context) error {
	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	host := d.cfg.Server.Host
	port := uint16(d.cfg.Server.Port)
	d.srv.Listen(host, port, func(ok bool) {
		if !ok {
			cancel(errBindFailed)
			return
		}
		d.log.Info("handoff server is listening", slogfield.Addr(d.srv.Addr()))
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		// the loop keeps running during shutdown so in flight designated
		// callbacks can still complete
		return d.loop.Run(context.Background())
	})
	if d.admin != nil {
		g.Go(func() error {
			d.log.Info("admin server is listening", slogfield.Addr(d.adminLn.Addr()))
			err := d.admin.Serve(d.adminLn)
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		return d.shutdown()
	})

	err := g.Wait()
	if cause := context.Cause(ctx); errors.Is(cause, errBindFailed) {
		return cause
	}
	return err
}

func (d *daemon) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	d.log.Info("shutting down")
	errs := []error{d.srv.Shutdown(ctx)}
	if d.admin != nil {
		errs = append(errs, d.admin.Shutdown(ctx))
	}
	errs = append(errs, d.loop.Close())
	return errors.Join(errs...)
}

func (rc RouteConfig) route(exec executor.Executor) handoff.Route {
	return handoff.Route{
		Verb:       handoff.Verb(rc.Verb),
		Path:       rc.Path,
		Callback:   rc.callback(exec),
		Designated: rc.Designated,
		MaxWait:    rc.MaxWait,
	}
}

func (rc RouteConfig) callback(exec executor.Executor) handoff.Callback {
	return func(req handoff.Request, res handoff.Response) {
		body := []byte(rc.Body)
		if rc.Echo {
			body = req.BodyBytes()
		}

		respond := func() {
			res.AddHeaders(rc.Headers)
			if rc.Status != 0 {
				res.SetStatus(rc.Status)
			}
			if rc.ContentType == "" {
				res.SetBody(string(body))
			} else {
				res.SetBinaryContent(body, rc.ContentType)
			}
			res.Send()
		}
		if rc.Delay <= 0 {
			respond()
			return
		}
		time.AfterFunc(rc.Delay, func() {
			exec.Execute(respond)
		})
	}
}
