// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"io"
	"log/slog"
	"net/url"

	"github.com/z5labs/handoff/pkg/maskslog"
)

// newLogHandler returns the handler every component logs through. Secrets
// which may show up in attrs are masked before they're written.
func newLogHandler(w io.Writer, cfg LogConfig) slog.Handler {
	opts := &slog.HandlerOptions{
		Level: cfg.Level,
	}

	var h slog.Handler
	switch cfg.Format {
	case "json":
		h = slog.NewJSONHandler(w, opts)
	default:
		h = slog.NewTextHandler(w, opts)
	}

	return maskslog.NewHandler(
		h,
		maskslog.Attr("authorization", maskslog.AnonymousStringAttr),
		maskslog.Attr("headers", maskslog.AnonymousStringAttr),
		maskslog.Attr("url", redactURL),
	)
}

func redactURL(a slog.Attr) slog.Attr {
	u, err := url.Parse(a.Value.String())
	if err != nil {
		return maskslog.AnonymousStringAttr(a)
	}
	return slog.String(a.Key, u.Redacted())
}
