// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package maskslog

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

type record struct {
	Message string `json:"msg"`
	Level   string `json:"level"`
	Secret  string `json:"secret"`
	Group   struct {
		Secret string `json:"secret"`
		Public string `json:"public"`
	} `json:"group"`
}

func decode(t *testing.T, buf *bytes.Buffer) (record, bool) {
	var r record
	err := json.Unmarshal(buf.Bytes(), &r)
	return r, assert.Nil(t, err)
}

func TestHandler_Handle(t *testing.T) {
	t.Run("will not mask attrs", func(t *testing.T) {
		t.Run("if no masking funcs are registered", func(t *testing.T) {
			var buf bytes.Buffer
			h := NewHandler(slog.NewJSONHandler(&buf, &slog.HandlerOptions{}))

			logger := slog.New(h)
			logger.Info("hello world", slog.String("secret", "super duper secret value"))

			r, ok := decode(t, &buf)
			if !ok {
				return
			}
			if !assert.Equal(t, "hello world", r.Message) {
				return
			}
			if !assert.Equal(t, "super duper secret value", r.Secret) {
				return
			}
		})

		t.Run("if slog.Attr key does not match a masking func", func(t *testing.T) {
			var buf bytes.Buffer
			h := NewHandler(
				slog.NewJSONHandler(&buf, &slog.HandlerOptions{}),
				Attr("random", AnonymousStringAttr),
			)

			logger := slog.New(h)
			logger.Info("hello world", slog.String("secret", "super duper secret value"))

			r, ok := decode(t, &buf)
			if !ok {
				return
			}
			if !assert.Equal(t, "super duper secret value", r.Secret) {
				return
			}
		})
	})

	t.Run("will mask attrs", func(t *testing.T) {
		t.Run("if the slog.Attr key matches a masking func", func(t *testing.T) {
			var buf bytes.Buffer
			h := NewHandler(
				slog.NewJSONHandler(&buf, &slog.HandlerOptions{}),
				Attr("secret", AnonymousStringAttr),
			)

			logger := slog.New(h)
			logger.Warn("hello world", slog.String("secret", "super duper secret value"))

			r, ok := decode(t, &buf)
			if !ok {
				return
			}
			if !assert.Equal(t, "****", r.Secret) {
				return
			}
			if !assert.Equal(t, "WARN", r.Level) {
				return
			}
		})

		t.Run("if the slog.Attr is nested in a group", func(t *testing.T) {
			var buf bytes.Buffer
			h := NewHandler(
				slog.NewJSONHandler(&buf, &slog.HandlerOptions{}),
				Attr("secret", AnonymousStringAttr),
			)

			logger := slog.New(h)
			logger.Info(
				"hello world",
				slog.Group("group", slog.String("secret", "value"), slog.String("public", "value")),
			)

			r, ok := decode(t, &buf)
			if !ok {
				return
			}
			if !assert.Equal(t, "****", r.Group.Secret) {
				return
			}
			if !assert.Equal(t, "value", r.Group.Public) {
				return
			}
		})
	})
}

func TestHandler_WithAttrs(t *testing.T) {
	t.Run("will not mask attrs", func(t *testing.T) {
		t.Run("if there are no masking funcs", func(t *testing.T) {
			var buf bytes.Buffer
			var h slog.Handler = NewHandler(
				slog.NewJSONHandler(&buf, &slog.HandlerOptions{}),
			)
			h = h.WithAttrs([]slog.Attr{slog.String("secret", "super duper secret value")})

			slog.New(h).Info("hello world")

			r, ok := decode(t, &buf)
			if !ok {
				return
			}
			if !assert.Equal(t, "super duper secret value", r.Secret) {
				return
			}
		})
	})

	t.Run("will mask attrs", func(t *testing.T) {
		t.Run("if they are attached before the record is logged", func(t *testing.T) {
			var buf bytes.Buffer
			var h slog.Handler = NewHandler(
				slog.NewJSONHandler(&buf, &slog.HandlerOptions{}),
				Attr("secret", AnonymousStringAttr),
			)
			h = h.WithAttrs([]slog.Attr{slog.String("secret", "super duper secret value")})

			slog.New(h).Info("hello world")

			r, ok := decode(t, &buf)
			if !ok {
				return
			}
			if !assert.Equal(t, "****", r.Secret) {
				return
			}
		})

		t.Run("if they are logged after WithAttrs was called", func(t *testing.T) {
			var buf bytes.Buffer
			var h slog.Handler = NewHandler(
				slog.NewJSONHandler(&buf, &slog.HandlerOptions{}),
				Attr("secret", AnonymousStringAttr),
			)
			h = h.WithAttrs([]slog.Attr{slog.String("public", "value")})

			slog.New(h).Info("hello world", slog.String("secret", "super duper secret value"))

			r, ok := decode(t, &buf)
			if !ok {
				return
			}
			if !assert.Equal(t, "****", r.Secret) {
				return
			}
		})
	})
}

func TestHandler_WithGroup(t *testing.T) {
	t.Run("will mask attrs", func(t *testing.T) {
		t.Run("if they are logged inside the group", func(t *testing.T) {
			var buf bytes.Buffer
			var h slog.Handler = NewHandler(
				slog.NewJSONHandler(&buf, &slog.HandlerOptions{}),
				Attr("secret", AnonymousStringAttr),
			)
			h = h.WithGroup("group")

			slog.New(h).Info("hello world", slog.String("secret", "value"))

			r, ok := decode(t, &buf)
			if !ok {
				return
			}
			if !assert.Equal(t, "****", r.Group.Secret) {
				return
			}
		})
	})
}
