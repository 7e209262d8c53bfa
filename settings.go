// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package handoff

import (
	"math"
	"runtime"
	"time"

	"golang.org/x/sync/semaphore"
)

const (
	defaultKeepAliveMaxCount = 100
	defaultKeepAliveTimeout  = 5 * time.Second
	defaultMaxWait           = 5 * time.Second
)

// settings are the tuning values which only take effect when the
// server starts listening.
type settings struct {
	keepAliveMaxCount int
	keepAliveTimeout  time.Duration
	payloadMaxLength  int64
	tcpNoDelay        bool
	workers           int
	maxWait           time.Duration
}

func defaultSettings() settings {
	return settings{
		keepAliveMaxCount: defaultKeepAliveMaxCount,
		keepAliveTimeout:  defaultKeepAliveTimeout,
		tcpNoDelay:        true,
		workers:           defaultWorkers(),
		maxWait:           defaultMaxWait,
	}
}

func defaultWorkers() int {
	n := runtime.NumCPU() - 1
	if n < 8 {
		return 8
	}
	return n
}

// snapshot is the immutable view of the server configuration which a
// single listen loop serves from.
type snapshot struct {
	settings

	routes  []Route
	static  staticFiles
	workers *semaphore.Weighted
}

// snapshot must be called with s.mu held.
func (s *Server) snapshot() *snapshot {
	mimeTypes := make(map[string]string, len(s.mimeTypes))
	for ext, mt := range s.mimeTypes {
		mimeTypes[ext] = mt
	}

	return &snapshot{
		settings: s.settings,
		routes:   append([]Route(nil), s.routes...),
		static: staticFiles{
			mounts:    append([]Mount(nil), s.mounts...),
			mimeTypes: mimeTypes,
		},
		workers: semaphore.NewWeighted(int64(s.settings.workers)),
	}
}

// configure applies f under the server lock unless the server is stopped
// or, when allowWhileListening is false, listening.
func (s *Server) configure(allowWhileListening bool, f func()) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case stateListening:
		if !allowWhileListening {
			return ErrRunning
		}
	case stateStopped:
		return ErrStopped
	}
	f()
	return nil
}

// SetKeepAliveMaxCount sets how many requests a single connection may
// serve before it's closed.
func (s *Server) SetKeepAliveMaxCount(n int) error {
	if n <= 0 {
		return InvalidValueError{Setting: "keep-alive max count", Value: n}
	}
	return s.configure(false, func() {
		s.settings.keepAliveMaxCount = n
	})
}

// SetKeepAliveTimeout sets how long an idle connection is kept open.
// Zero disables keep-alive.
func (s *Server) SetKeepAliveTimeout(d time.Duration) error {
	if d < 0 {
		return InvalidValueError{Setting: "keep-alive timeout", Value: d}
	}
	return s.configure(false, func() {
		s.settings.keepAliveTimeout = d
	})
}

// SetPayloadMaxLength sets the largest request body, in bytes, a route
// accepts. Larger requests are answered with 413.
func (s *Server) SetPayloadMaxLength(n int64) error {
	if n <= 0 {
		return InvalidValueError{Setting: "payload max length", Value: n}
	}
	return s.configure(false, func() {
		s.settings.payloadMaxLength = n
	})
}

// SetTCPNoDelay toggles TCP_NODELAY on accepted connections. It may be
// called while listening but only affects the next call to Listen.
func (s *Server) SetTCPNoDelay(b bool) error {
	return s.configure(true, func() {
		s.settings.tcpNoDelay = b
	})
}

// SetWorkers bounds how many requests are handled at once. It may be
// called while listening but only affects the next call to Listen.
func (s *Server) SetWorkers(n int) error {
	if n <= 0 {
		return InvalidValueError{Setting: "workers", Value: n}
	}
	return s.configure(true, func() {
		s.settings.workers = n
	})
}

// SetMaxWait sets, in fractional seconds, how long the network goroutine
// waits for a route callback which didn't override it. The wait is
// truncated to whole milliseconds so anything below one millisecond
// disables waiting.
func (s *Server) SetMaxWait(seconds float64) error {
	if seconds < 0 || math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		return InvalidValueError{Setting: "max wait", Value: seconds}
	}
	d := time.Duration(math.Floor(seconds*1000)) * time.Millisecond
	return s.configure(false, func() {
		s.settings.maxWait = d
	})
}

// MaxWait returns the server wide max wait.
func (s *Server) MaxWait() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings.maxWait
}
