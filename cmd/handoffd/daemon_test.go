// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/z5labs/handoff/pkg/httpclient"
	"github.com/z5labs/handoff/pkg/noop"
	"github.com/z5labs/handoff/pkg/ptr"

	"github.com/stretchr/testify/assert"
)

func testConfig(t *testing.T) Config {
	t.Helper()

	cfg, err := readConfig("", "")
	if err != nil {
		t.Fatal(err)
	}
	cfg.Server.Port = 0
	cfg.Metrics.Addr = "127.0.0.1:0"
	cfg.Server.Routes = append(
		cfg.Server.Routes,
		RouteConfig{
			Verb:        "POST",
			Path:        "/echo",
			Echo:        true,
			Designated:  true,
			ContentType: "text/plain",
			Headers:     map[string]string{"X-Handled-By": "main-loop"},
		},
		RouteConfig{
			Verb:       "GET",
			Path:       "/slow",
			Body:       "too late",
			Designated: true,
			Delay:      200 * time.Millisecond,
			MaxWait:    ptr.Ref(20 * time.Millisecond),
		},
	)
	return cfg
}

type runningDaemon struct {
	*daemon
	baseURL  string
	adminURL string
	cancel   context.CancelFunc
	errCh    chan error
}

func startDaemon(t *testing.T, cfg Config) (*runningDaemon, bool) {
	d, err := newDaemon(cfg, noop.LogHandler{})
	if !assert.Nil(t, err) {
		return nil, false
	}

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- d.run(ctx)
	}()

	bound := assert.Eventually(t, func() bool {
		return d.srv.Addr() != nil
	}, 2*time.Second, 5*time.Millisecond)
	if !bound {
		cancel()
		return nil, false
	}

	rd := &runningDaemon{
		daemon:   d,
		baseURL:  fmt.Sprintf("http://%s", d.srv.Addr()),
		adminURL: fmt.Sprintf("http://%s", d.adminLn.Addr()),
		cancel:   cancel,
		errCh:    errCh,
	}
	t.Cleanup(func() {
		rd.cancel()
	})
	return rd, true
}

func (rd *runningDaemon) stop(t *testing.T) bool {
	rd.cancel()
	select {
	case err := <-rd.errCh:
		return assert.Nil(t, err)
	case <-time.After(5 * time.Second):
		return assert.Fail(t, "daemon did not stop")
	}
}

func readAll(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return string(b)
}

func TestDaemon_Run(t *testing.T) {
	t.Run("will serve the configured routes", func(t *testing.T) {
		t.Run("if the server binds successfully", func(t *testing.T) {
			rd, ok := startDaemon(t, testConfig(t))
			if !ok {
				return
			}

			client := httpclient.New(httpclient.Timeout(5 * time.Second))

			resp, err := client.Get(rd.baseURL + "/ping")
			if !assert.Nil(t, err) {
				return
			}
			if !assert.Equal(t, http.StatusOK, resp.StatusCode) {
				return
			}
			if !assert.Equal(t, "pong", readAll(t, resp)) {
				return
			}

			resp, err = client.Post(rd.baseURL+"/echo", "text/plain", strings.NewReader("hello"))
			if !assert.Nil(t, err) {
				return
			}
			if !assert.Equal(t, "main-loop", resp.Header.Get("X-Handled-By")) {
				return
			}
			if !assert.Equal(t, "hello", readAll(t, resp)) {
				return
			}

			rd.stop(t)
		})
	})

	t.Run("will respond without the body", func(t *testing.T) {
		t.Run("if a designated route misses its max wait", func(t *testing.T) {
			rd, ok := startDaemon(t, testConfig(t))
			if !ok {
				return
			}

			client := httpclient.New(httpclient.Timeout(5 * time.Second))

			resp, err := client.Get(rd.baseURL + "/slow")
			if !assert.Nil(t, err) {
				return
			}
			if !assert.Equal(t, http.StatusOK, resp.StatusCode) {
				return
			}
			if !assert.Empty(t, readAll(t, resp)) {
				return
			}

			resp, err = client.Get(rd.adminURL + "/metrics")
			if !assert.Nil(t, err) {
				return
			}
			body := readAll(t, resp)
			if !assert.Contains(t, body, `handoff_wait_timeouts_total{route="/slow"} 1`) {
				return
			}
			if !assert.Contains(t, body, "go_goroutines") {
				return
			}

			rd.stop(t)
		})
	})

	t.Run("will report ready", func(t *testing.T) {
		t.Run("if the server and main loop are healthy", func(t *testing.T) {
			rd, ok := startDaemon(t, testConfig(t))
			if !ok {
				return
			}

			client := httpclient.New(httpclient.Timeout(5 * time.Second))
			for _, path := range []string{"/health/liveness", "/health/readiness"} {
				resp, err := client.Get(rd.adminURL + path)
				if !assert.Nil(t, err) {
					return
				}
				resp.Body.Close()
				if !assert.Equal(t, http.StatusOK, resp.StatusCode, path) {
					return
				}
			}

			rd.stop(t)
		})
	})

	t.Run("will return an error", func(t *testing.T) {
		t.Run("if the port is already in use", func(t *testing.T) {
			ln, err := net.Listen("tcp", "127.0.0.1:0")
			if !assert.Nil(t, err) {
				return
			}
			defer ln.Close()

			cfg := testConfig(t)
			cfg.Metrics.Addr = ""
			cfg.Server.Port = ln.Addr().(*net.TCPAddr).Port

			d, err := newDaemon(cfg, slog.NewTextHandler(io.Discard, nil))
			if !assert.Nil(t, err) {
				return
			}

			errCh := make(chan error, 1)
			go func() {
				errCh <- d.run(context.Background())
			}()

			select {
			case err := <-errCh:
				assert.ErrorIs(t, err, errBindFailed)
			case <-time.After(5 * time.Second):
				assert.Fail(t, "daemon did not give up after the bind failed")
			}
		})
	})
}

func TestNewDaemon(t *testing.T) {
	t.Run("will return an error", func(t *testing.T) {
		t.Run("if a route is invalid", func(t *testing.T) {
			cfg := testConfig(t)
			cfg.Metrics.Addr = ""
			cfg.Server.Routes = append(cfg.Server.Routes, RouteConfig{Verb: "TRACE", Path: "/trace"})

			_, err := newDaemon(cfg, noop.LogHandler{})
			if !assert.Error(t, err) {
				return
			}
		})

		t.Run("if a mount directory does not exist", func(t *testing.T) {
			cfg := testConfig(t)
			cfg.Metrics.Addr = ""
			cfg.Server.Mounts = []MountConfig{{Prefix: "/static", Dir: "/does/not/exist"}}

			_, err := newDaemon(cfg, noop.LogHandler{})
			if !assert.Error(t, err) {
				return
			}
		})
	})
}
