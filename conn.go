// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package handoff

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"
)

type noDelayListener struct {
	net.Listener
	noDelay bool
}

// Accept implements the [net.Listener] interface.
func (l noDelayListener) Accept() (net.Conn, error) {
	conn, err := l.Listener.Accept()
	if err != nil {
		return nil, err
	}
	if tc, ok := conn.(*net.TCPConn); ok {
		tc.SetNoDelay(l.noDelay)
	}
	return conn, nil
}

type connStateKey struct{}

type connState struct {
	requests atomic.Int64
}

func withConnState(ctx context.Context, _ net.Conn) context.Context {
	return context.WithValue(ctx, connStateKey{}, &connState{})
}

// lastOnConn reports whether the request has used up the keep-alive
// budget of its connection. A max of zero means no limit.
func lastOnConn(r *http.Request, max int) bool {
	if max <= 0 {
		return false
	}
	cs, ok := r.Context().Value(connStateKey{}).(*connState)
	if !ok {
		return false
	}
	return cs.requests.Add(1) >= int64(max)
}

// needsRawStatusLine reports whether o overrides parts of the status line
// which net/http always writes itself.
func (o *outbound) needsRawStatusLine(r *http.Request) bool {
	if o.version == "" && o.reason == "" {
		return false
	}
	return r.ProtoMajor == 1
}

func (o *outbound) statusCode() int {
	switch {
	case o.status == 0:
		return http.StatusOK
	case !validStatus(o.status):
		return http.StatusInternalServerError
	}
	return o.status
}

// flush writes o to w. It must only be called once o is no longer
// reachable through a Response.
func (o *outbound) flush(w http.ResponseWriter, r *http.Request) error {
	if o.needsRawStatusLine(r) {
		hj, ok := w.(http.Hijacker)
		if ok {
			return o.flushRaw(w, hj, r)
		}
	}

	hdr := w.Header()
	for key, values := range o.header {
		hdr[key] = values
	}
	status := o.statusCode()
	if !bodyAllowed(status) {
		w.WriteHeader(status)
		return nil
	}
	hdr.Set("Content-Length", strconv.Itoa(len(o.body)))
	w.WriteHeader(status)

	if r.Method == http.MethodHead || len(o.body) == 0 {
		return nil
	}
	_, err := w.Write(o.body)
	if errors.Is(err, http.ErrBodyNotAllowed) {
		return nil
	}
	return err
}

func (o *outbound) flushRaw(w http.ResponseWriter, hj http.Hijacker, r *http.Request) error {
	hdr := w.Header().Clone()
	for key, values := range o.header {
		hdr[key] = values
	}

	conn, rw, err := hj.Hijack()
	if err != nil {
		return err
	}
	defer conn.Close()

	status := o.statusCode()
	version := o.version
	if version == "" {
		version = r.Proto
	}
	reason := o.reason
	if reason == "" {
		reason = http.StatusText(status)
	}

	if bodyAllowed(status) {
		hdr.Set("Content-Length", strconv.Itoa(len(o.body)))
	}
	hdr.Set("Connection", "close")
	if hdr.Get("Date") == "" {
		hdr.Set("Date", time.Now().UTC().Format(http.TimeFormat))
	}

	withBody := bodyAllowed(status) && r.Method != http.MethodHead
	return writeRaw(rw.Writer, version, status, reason, hdr, o.body, withBody)
}

func bodyAllowed(status int) bool {
	switch {
	case status >= 100 && status <= 199:
		return false
	case status == http.StatusNoContent, status == http.StatusNotModified:
		return false
	default:
		return true
	}
}

func writeRaw(bw *bufio.Writer, version string, status int, reason string, hdr http.Header, body []byte, withBody bool) error {
	_, err := fmt.Fprintf(bw, "%s %03d %s\r\n", version, status, reason)
	if err != nil {
		return err
	}
	err = hdr.Write(bw)
	if err != nil {
		return err
	}
	_, err = bw.WriteString("\r\n")
	if err != nil {
		return err
	}
	if withBody {
		_, err = bw.Write(body)
		if err != nil {
			return err
		}
	}
	return bw.Flush()
}
