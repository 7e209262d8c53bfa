// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package handoff

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/z5labs/handoff/pkg/slogfield"
	"github.com/z5labs/handoff/transient"
)

// outbound is the buffered response a route callback writes to. It is
// flushed to the connection by the network goroutine once invalidated.
type outbound struct {
	status  int
	header  http.Header
	body    []byte
	version string
	reason  string
}

func newOutbound() *outbound {
	return &outbound{
		header: make(http.Header),
	}
}

// exchange carries the per request state a Response needs to report
// writes which arrive after the response was finalized.
type exchange struct {
	ctx     context.Context
	log     *slog.Logger
	metrics *metrics
}

// Response is a buffered HTTP response. It can be copied freely and
// shared across goroutines but it's only writable while the request is
// being served. Writes made after that, e.g. by a designated callback
// which outlived its wait, are dropped.
//
// The zero value is an invalid Response.
type Response struct {
	h  *transient.Handle[outbound]
	ex *exchange
}

// IsValid reports whether the response can still be written to.
func (r Response) IsValid() bool {
	return r.h.IsValid()
}

// Send finalizes the response. Any further writes are dropped and a
// network goroutine waiting on this response resumes immediately.
// Calling Send more than once is harmless.
func (r Response) Send() {
	r.h.Invalidate()
}

// End is an alias for [Response.Send].
func (r Response) End() {
	r.Send()
}

// SetStatus sets the HTTP status code. If never set, 200 is sent. Codes
// outside [100, 999] are dropped.
func (r Response) SetStatus(code int) {
	if !validStatus(code) {
		r.reject("SetStatus", code)
		return
	}
	r.write("SetStatus", func(o *outbound) {
		o.status = code
	})
}

// SetBody replaces the response body.
func (r Response) SetBody(body string) {
	r.write("SetBody", func(o *outbound) {
		o.body = []byte(body)
	})
}

// AppendBody appends to the response body.
func (r Response) AppendBody(body string) {
	r.write("AppendBody", func(o *outbound) {
		o.body = append(o.body, body...)
	})
}

// EmptyBody clears the response body.
func (r Response) EmptyBody() {
	r.write("EmptyBody", func(o *outbound) {
		o.body = nil
	})
}

// SetContent replaces the response body and sets its Content-Type.
func (r Response) SetContent(content, mimeType string) {
	r.write("SetContent", func(o *outbound) {
		o.body = []byte(content)
		o.header.Set("Content-Type", mimeType)
	})
}

// SetBinaryContent replaces the response body with a copy of content
// and sets its Content-Type.
func (r Response) SetBinaryContent(content []byte, mimeType string) {
	r.write("SetBinaryContent", func(o *outbound) {
		o.body = append([]byte(nil), content...)
		o.header.Set("Content-Type", mimeType)
	})
}

// AddHeader adds a header value, keeping any existing values for key.
func (r Response) AddHeader(key, value string) {
	r.write("AddHeader", func(o *outbound) {
		o.header.Add(key, value)
	})
}

// AddHeaders adds every header in headers.
func (r Response) AddHeaders(headers map[string]string) {
	r.write("AddHeaders", func(o *outbound) {
		for key, value := range headers {
			o.header.Add(key, value)
		}
	})
}

// RemoveHeader removes every value of the header key.
func (r Response) RemoveHeader(key string) {
	r.write("RemoveHeader", func(o *outbound) {
		o.header.Del(key)
	})
}

// SetVersion overrides the protocol version of the status line, e.g. "HTTP/1.0".
// Anything not of the form HTTP/<digit>.<digit> is dropped and an empty
// version restores the request's.
func (r Response) SetVersion(version string) {
	if !validVersion(version) {
		r.reject("SetVersion", version)
		return
	}
	r.write("SetVersion", func(o *outbound) {
		o.version = version
	})
}

// SetReason overrides the reason phrase of the status line. Phrases
// containing control characters, e.g. CR or LF, are dropped.
func (r Response) SetReason(reason string) {
	if !validReason(reason) {
		r.reject("SetReason", reason)
		return
	}
	r.write("SetReason", func(o *outbound) {
		o.reason = reason
	})
}

// SetRedirect redirects the client to location with a 302 status, unless
// a 3xx status was already set.
func (r Response) SetRedirect(location string) {
	r.write("SetRedirect", func(o *outbound) {
		o.header.Set("Location", location)
		if o.status < 300 || o.status > 399 {
			o.status = http.StatusFound
		}
	})
}

func (r Response) reject(op string, value any) {
	if r.ex == nil {
		return
	}
	r.ex.metrics.droppedWrites.Inc()
	r.ex.log.WarnContext(
		r.ex.ctx,
		"dropped invalid write to response",
		slogfield.String("op", op),
		slogfield.Any("value", value),
	)
}

func (r Response) write(op string, f func(*outbound)) {
	if r.h.ExecuteIfValid(f) {
		return
	}
	if r.ex == nil {
		return
	}
	r.ex.metrics.droppedWrites.Inc()
	r.ex.log.DebugContext(
		r.ex.ctx,
		"dropped write to a finalized response",
		slogfield.String("op", op),
	)
}

func validStatus(code int) bool {
	return code >= 100 && code <= 999
}

func validVersion(version string) bool {
	if version == "" {
		return true
	}
	if len(version) != len("HTTP/1.1") || !strings.HasPrefix(version, "HTTP/") {
		return false
	}
	return isDigit(version[5]) && version[6] == '.' && isDigit(version[7])
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

// validReason allows the reason-phrase characters of RFC 9112: HTAB, SP,
// visible ASCII and obs-text.
func validReason(reason string) bool {
	for i := 0; i < len(reason); i++ {
		c := reason[i]
		if c == '\t' {
			continue
		}
		if c < ' ' || c == 0x7f {
			return false
		}
	}
	return true
}
