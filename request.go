// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package handoff

import (
	"context"
	"net"
	"net/http"
	"net/url"
	"strconv"

	"github.com/z5labs/handoff/transient"

	"github.com/go-chi/chi/v5"
)

// inbound is everything a route callback may read about a request. It is
// built on the network goroutine and only reachable through a Request.
type inbound struct {
	id         string
	verb       Verb
	path       string
	header     http.Header
	body       []byte
	query      url.Values
	params     map[string]string
	remoteHost string
	remotePort int
}

func newInbound(id string, r *http.Request, body []byte) *inbound {
	in := &inbound{
		id:         id,
		verb:       Verb(r.Method),
		path:       r.URL.Path,
		header:     r.Header,
		body:       body,
		query:      r.URL.Query(),
		params:     make(map[string]string),
		remoteHost: r.RemoteAddr,
		remotePort: -1,
	}

	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		for i, key := range rctx.URLParams.Keys {
			in.params[key] = rctx.URLParams.Values[i]
		}
	}

	host, port, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return in
	}
	in.remoteHost = host
	if n, err := strconv.Atoi(port); err == nil {
		in.remotePort = n
	}
	return in
}

// Request is a read only view of an incoming HTTP request. It can be
// copied freely and shared across goroutines but it's only valid while
// the request is being served. Once invalid, every accessor returns the
// zero value of its result type.
//
// The zero value is an invalid Request.
type Request struct {
	ctx context.Context
	h   *transient.Handle[inbound]
}

// IsValid reports whether the request is still being served.
func (r Request) IsValid() bool {
	return r.h.IsValid()
}

// Context returns the context of the request. Unlike the other accessors,
// it remains available after the request has been invalidated.
func (r Request) Context() context.Context {
	if r.ctx == nil {
		return context.Background()
	}
	return r.ctx
}

// ID returns the unique id which was assigned to the request.
func (r Request) ID() string {
	var id string
	r.h.ExecuteIfValid(func(in *inbound) {
		id = in.id
	})
	return id
}

// Verb returns the HTTP method of the request.
func (r Request) Verb() Verb {
	var v Verb
	r.h.ExecuteIfValid(func(in *inbound) {
		v = in.verb
	})
	return v
}

// Path returns the URL path of the request.
func (r Request) Path() string {
	var p string
	r.h.ExecuteIfValid(func(in *inbound) {
		p = in.path
	})
	return p
}

// HasHeader reports whether the request carries the header key.
func (r Request) HasHeader(key string) bool {
	var ok bool
	r.h.ExecuteIfValid(func(in *inbound) {
		_, ok = in.header[http.CanonicalHeaderKey(key)]
	})
	return ok
}

// Header returns the first value of the header key.
func (r Request) Header(key string) string {
	var v string
	r.h.ExecuteIfValid(func(in *inbound) {
		v = in.header.Get(key)
	})
	return v
}

// Headers returns a copy of every request header.
func (r Request) Headers() http.Header {
	var hdr http.Header
	r.h.ExecuteIfValid(func(in *inbound) {
		hdr = in.header.Clone()
	})
	return hdr
}

// Body returns the request body as text.
func (r Request) Body() string {
	var b string
	r.h.ExecuteIfValid(func(in *inbound) {
		b = string(in.body)
	})
	return b
}

// BodyBytes returns a copy of the raw request body.
func (r Request) BodyBytes() []byte {
	var b []byte
	r.h.ExecuteIfValid(func(in *inbound) {
		b = append([]byte(nil), in.body...)
	})
	return b
}

// HasParam reports whether the URL query contains the parameter name.
func (r Request) HasParam(name string) bool {
	var ok bool
	r.h.ExecuteIfValid(func(in *inbound) {
		ok = in.query.Has(name)
	})
	return ok
}

// Param returns the first value of the URL query parameter name.
func (r Request) Param(name string) string {
	var v string
	r.h.ExecuteIfValid(func(in *inbound) {
		v = in.query.Get(name)
	})
	return v
}

// PathParam returns the value matched by the route pattern placeholder
// name, e.g. "id" for a route registered as "/users/{id}".
func (r Request) PathParam(name string) string {
	var v string
	r.h.ExecuteIfValid(func(in *inbound) {
		v = in.params[name]
	})
	return v
}

// RemoteAddr returns the host of the client which sent the request.
func (r Request) RemoteAddr() string {
	var addr string
	r.h.ExecuteIfValid(func(in *inbound) {
		addr = in.remoteHost
	})
	return addr
}

// RemotePort returns the port of the client which sent the request
// or -1 if it's unknown or the request is no longer valid.
func (r Request) RemotePort() int {
	port := -1
	r.h.ExecuteIfValid(func(in *inbound) {
		port = in.remotePort
	})
	return port
}
