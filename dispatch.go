// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package handoff

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/z5labs/handoff/internal/try"
	"github.com/z5labs/handoff/pkg/otelslog"
	"github.com/z5labs/handoff/pkg/ptr"
	"github.com/z5labs/handoff/pkg/slogfield"
	"github.com/z5labs/handoff/transient"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

func (s *Server) newHandler(snap *snapshot) http.Handler {
	router := chi.NewRouter()
	for _, rt := range snap.routes {
		router.Method(
			rt.Verb.String(),
			rt.Path,
			otelhttp.WithRouteTag(rt.Path, s.routeHandler(snap, rt)),
		)
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if lastOnConn(r, snap.keepAliveMaxCount) {
			w.Header().Set("Connection", "close")
		}

		err := snap.workers.Acquire(r.Context(), 1)
		if err != nil {
			return
		}
		defer snap.workers.Release(1)

		if snap.static.serve(w, r) {
			return
		}
		router.ServeHTTP(w, r)
	})
}

func (s *Server) routeHandler(snap *snapshot, rt Route) http.HandlerFunc {
	maxWait := ptr.Or(rt.MaxWait, snap.maxWait)

	return func(w http.ResponseWriter, r *http.Request) {
		if rt.Callback == nil {
			return
		}

		body, err := readBody(w, r, snap.payloadMaxLength)
		if err != nil {
			var mbe *http.MaxBytesError
			if errors.As(err, &mbe) {
				w.WriteHeader(http.StatusRequestEntityTooLarge)
				return
			}
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		id := uuid.NewString()
		ctx := otelslog.ContextWithAttrs(
			r.Context(),
			slogfield.RequestID(id),
			slogfield.Verb(r.Method),
			slogfield.Route(rt.Path),
		)
		r = r.WithContext(ctx)

		out := newOutbound()
		reqH := transient.New(newInbound(id, r, body))
		resH := transient.New(out)
		req := Request{ctx: ctx, h: reqH}
		res := Response{
			h: resH,
			ex: &exchange{
				ctx:     ctx,
				log:     s.log,
				metrics: s.metrics,
			},
		}

		var waiter *transient.Waiter
		if maxWait > 0 {
			waiter = transient.NewWaiter()
			resH.AttachWaiter(waiter)
		}

		s.dispatch(ctx, rt, req, res)

		if waiter != nil && resH.IsValid() {
			s.wait(ctx, rt, waiter, maxWait)
		}

		resH.Invalidate()
		reqH.Invalidate()

		err = out.flush(w, r)
		if err != nil {
			s.log.WarnContext(ctx, "failed to write response", slogfield.Error(err))
		}
	}
}

func readBody(w http.ResponseWriter, r *http.Request, max int64) ([]byte, error) {
	if r.Body == nil || r.Body == http.NoBody {
		return nil, nil
	}
	if max <= 0 {
		return io.ReadAll(r.Body)
	}
	if r.ContentLength > max {
		return nil, &http.MaxBytesError{Limit: max}
	}
	return io.ReadAll(http.MaxBytesReader(w, r.Body, max))
}

// dispatch runs the route callback inline or posts it to the executor.
func (s *Server) dispatch(ctx context.Context, rt Route, req Request, res Response) {
	if !rt.Designated {
		s.invoke(ctx, rt, req, res)
		return
	}

	s.metrics.designatedDispatches.Inc()
	s.exec.Execute(func() {
		spanCtx, span := s.tracer.Start(
			ctx,
			"handoff.designated",
			trace.WithNewRoot(),
			trace.WithLinks(trace.LinkFromContext(ctx)),
			trace.WithAttributes(attribute.String("http.route", rt.Path)),
		)
		defer span.End()

		req.ctx = spanCtx
		s.invoke(spanCtx, rt, req, res)
	})
}

func (s *Server) invoke(ctx context.Context, rt Route, req Request, res Response) {
	err := try.Call(func() {
		rt.Callback(req, res)
	})
	if err == nil {
		return
	}

	s.metrics.callbackPanics.Inc()
	s.log.ErrorContext(ctx, "route callback panicked", slogfield.Error(err))
	res.h.ExecuteIfValid(func(o *outbound) {
		if o.status == 0 {
			o.status = http.StatusInternalServerError
		}
	})
}

// wait blocks until the response is sent, maxWait elapses or the request
// context is done.
func (s *Server) wait(ctx context.Context, rt Route, w *transient.Waiter, maxWait time.Duration) {
	start := time.Now()
	signalled := w.Wait(ctx, maxWait)
	s.metrics.waitDuration.Observe(time.Since(start).Seconds())
	if signalled {
		return
	}

	if ctx.Err() != nil {
		s.log.DebugContext(ctx, "stopped waiting for response", slogfield.Error(context.Cause(ctx)))
		return
	}

	s.metrics.waitTimeouts.WithLabelValues(rt.Path).Inc()
	s.log.WarnContext(
		ctx,
		"reached max wait before the response was sent",
		slogfield.Duration("max_wait", maxWait),
	)
}
