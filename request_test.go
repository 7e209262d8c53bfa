// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package handoff

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/z5labs/handoff/transient"

	"github.com/stretchr/testify/assert"
)

func newTestRequest(method, target, body string) (Request, *transient.Handle[inbound]) {
	r := httptest.NewRequest(method, target, strings.NewReader(body))
	r.RemoteAddr = "192.0.2.1:4321"
	r.Header.Set("X-Test", "value")

	h := transient.New(newInbound("req-1", r, []byte(body)))
	return Request{ctx: r.Context(), h: h}, h
}

func TestRequest(t *testing.T) {
	t.Run("will return the request data", func(t *testing.T) {
		t.Run("if the request is valid", func(t *testing.T) {
			req, _ := newTestRequest(http.MethodPost, "/items?limit=10", "payload")

			if !assert.True(t, req.IsValid()) {
				return
			}
			if !assert.Equal(t, "req-1", req.ID()) {
				return
			}
			if !assert.Equal(t, VerbPost, req.Verb()) {
				return
			}
			if !assert.Equal(t, "/items", req.Path()) {
				return
			}
			if !assert.True(t, req.HasHeader("x-test")) {
				return
			}
			if !assert.Equal(t, "value", req.Header("X-Test")) {
				return
			}
			if !assert.Equal(t, "value", req.Headers().Get("X-Test")) {
				return
			}
			if !assert.Equal(t, "payload", req.Body()) {
				return
			}
			if !assert.Equal(t, []byte("payload"), req.BodyBytes()) {
				return
			}
			if !assert.True(t, req.HasParam("limit")) {
				return
			}
			if !assert.Equal(t, "10", req.Param("limit")) {
				return
			}
			if !assert.Equal(t, "192.0.2.1", req.RemoteAddr()) {
				return
			}
			if !assert.Equal(t, 4321, req.RemotePort()) {
				return
			}
		})
	})

	t.Run("will return zero values", func(t *testing.T) {
		t.Run("if the request has been invalidated", func(t *testing.T) {
			req, h := newTestRequest(http.MethodGet, "/items?limit=10", "payload")
			h.Invalidate()

			if !assert.False(t, req.IsValid()) {
				return
			}
			if !assert.Empty(t, req.ID()) {
				return
			}
			if !assert.Empty(t, req.Verb()) {
				return
			}
			if !assert.False(t, req.HasHeader("X-Test")) {
				return
			}
			if !assert.Nil(t, req.Headers()) {
				return
			}
			if !assert.Empty(t, req.Body()) {
				return
			}
			if !assert.False(t, req.HasParam("limit")) {
				return
			}
			if !assert.Empty(t, req.RemoteAddr()) {
				return
			}
			if !assert.Equal(t, -1, req.RemotePort()) {
				return
			}
		})

		t.Run("if the request is the zero value", func(t *testing.T) {
			var req Request

			if !assert.False(t, req.IsValid()) {
				return
			}
			if !assert.Empty(t, req.Path()) {
				return
			}
			if !assert.Equal(t, -1, req.RemotePort()) {
				return
			}
			if !assert.Equal(t, context.Background(), req.Context()) {
				return
			}
		})
	})

	t.Run("will return a copy of the headers", func(t *testing.T) {
		t.Run("if the caller modifies them", func(t *testing.T) {
			req, _ := newTestRequest(http.MethodGet, "/", "")

			hdr := req.Headers()
			hdr.Set("X-Test", "changed")

			if !assert.Equal(t, "value", req.Header("X-Test")) {
				return
			}
		})
	})

	t.Run("will report an unknown remote port", func(t *testing.T) {
		t.Run("if the remote address has no port", func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = "pipe"

			req := Request{h: transient.New(newInbound("id", r, nil))}
			if !assert.Equal(t, "pipe", req.RemoteAddr()) {
				return
			}
			if !assert.Equal(t, -1, req.RemotePort()) {
				return
			}
		})
	})
}
