// Copyright (c) 2023 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package slogfield standardizes the keys used when logging.
package slogfield

import (
	"log/slog"
	"net"
	"time"
)

// Any returns an slog.Attr for the supplied value.
func Any(key string, value any) slog.Attr {
	return slog.Any(key, value)
}

// Bool returns an slog.Attr for a bool.
func Bool(key string, value bool) slog.Attr {
	return slog.Bool(key, value)
}

// Duration returns an slog.Attr for a time.Duration.
func Duration(key string, d time.Duration) slog.Attr {
	return slog.Duration(key, d)
}

// Error returns an slog.Attr for a error.
func Error(err error) slog.Attr {
	return slog.Any("error", err)
}

// String returns an slog.Attr for a string.
func String(key, value string) slog.Attr {
	return slog.String(key, value)
}

// Strings returns an slog.Attr for a slice of strings.
func Strings(key string, values []string) slog.Attr {
	return slog.Any(key, values)
}

// Int returns an slog.Attr for a int.
func Int(key string, n int) slog.Attr {
	return slog.Int(key, n)
}

// Int64 returns an slog.Attr for a int64.
func Int64(key string, n int64) slog.Attr {
	return slog.Int64(key, n)
}

// Uint16 returns an slog.Attr for a uint16.
func Uint16(key string, n uint16) slog.Attr {
	return slog.Uint64(key, uint64(n))
}

// Uint32 returns an slog.Attr for a uint32.
func Uint32(key string, n uint32) slog.Attr {
	return slog.Uint64(key, uint64(n))
}

// Verb returns an slog.Attr for the HTTP verb of a route or request.
func Verb(verb string) slog.Attr {
	return slog.String("http_verb", verb)
}

// Route returns an slog.Attr for a registered route path pattern.
func Route(pattern string) slog.Attr {
	return slog.String("http_route", pattern)
}

// RequestID returns an slog.Attr for the id assigned to a single request.
func RequestID(id string) slog.Attr {
	return slog.String("request_id", id)
}

// RemoteAddr returns an slog.Attr for the address of a connected client.
func RemoteAddr(addr string) slog.Attr {
	return slog.String("remote_addr", addr)
}

// Addr returns an slog.Attr for a network address.
func Addr(addr net.Addr) slog.Attr {
	if addr == nil {
		return slog.String("addr", "")
	}
	return slog.String("addr", addr.String())
}
