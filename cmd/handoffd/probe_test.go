// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProbeCmd(t *testing.T) {
	t.Run("will print the response", func(t *testing.T) {
		t.Run("if the status matches the expected one", func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte("pong"))
			}))
			defer srv.Close()

			var stdout, stderr bytes.Buffer
			err := execute(context.Background(), []string{"probe", srv.URL + "/ping"}, &stdout, &stderr)
			if !assert.Nil(t, err) {
				return
			}
			if !assert.Equal(t, "200 OK\npong", stdout.String()) {
				return
			}
		})
	})

	t.Run("will return an UnexpectedStatusError", func(t *testing.T) {
		t.Run("if the status does not match the expected one", func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNotFound)
			}))
			defer srv.Close()

			var stdout, stderr bytes.Buffer
			err := execute(context.Background(), []string{"probe", srv.URL}, &stdout, &stderr)

			var serr UnexpectedStatusError
			if !assert.ErrorAs(t, err, &serr) {
				return
			}
			if !assert.Equal(t, http.StatusNotFound, serr.Actual) {
				return
			}
		})
	})

	t.Run("will accept any status", func(t *testing.T) {
		t.Run("if expect is zero", func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusAccepted)
			}))
			defer srv.Close()

			var stdout, stderr bytes.Buffer
			err := execute(context.Background(), []string{"probe", "--expect", "0", "-X", "POST", srv.URL}, &stdout, &stderr)
			if !assert.Nil(t, err) {
				return
			}
			if !assert.Equal(t, "202 Accepted\n", stdout.String()) {
				return
			}
		})
	})
}

func TestServeCmd(t *testing.T) {
	t.Run("will return an InvalidConfigError", func(t *testing.T) {
		t.Run("if the config is invalid", func(t *testing.T) {
			path := writeConfig(t, "config.yaml", "server:\n  port: 70000\n")

			var stdout, stderr bytes.Buffer
			err := execute(context.Background(), []string{"serve", "--env-prefix", "", "-c", path}, &stdout, &stderr)

			var cerr InvalidConfigError
			if !assert.ErrorAs(t, err, &cerr) {
				return
			}
		})
	})

	t.Run("will stop serving", func(t *testing.T) {
		t.Run("if the context is cancelled", func(t *testing.T) {
			path := writeConfig(t, "config.yaml", "server:\n  port: 0\n")

			ctx, cancel := context.WithCancel(context.Background())
			errCh := make(chan error, 1)
			var stdout, stderr bytes.Buffer
			go func() {
				errCh <- execute(ctx, []string{"serve", "--env-prefix", "", "-c", path}, &stdout, &stderr)
			}()
			cancel()

			err := <-errCh
			assert.Nil(t, err)
		})
	})
}
