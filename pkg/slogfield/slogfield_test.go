// Copyright (c) 2023 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package slogfield

import (
	"errors"
	"log/slog"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFields(t *testing.T) {
	testCases := []struct {
		Name  string
		Attr  slog.Attr
		Key   string
		Value any
	}{
		{Name: "Any", Attr: Any("k", 1.5), Key: "k", Value: 1.5},
		{Name: "Bool", Attr: Bool("k", true), Key: "k", Value: true},
		{Name: "Duration", Attr: Duration("k", time.Second), Key: "k", Value: time.Second},
		{Name: "String", Attr: String("k", "v"), Key: "k", Value: "v"},
		{Name: "Strings", Attr: Strings("k", []string{"a"}), Key: "k", Value: []string{"a"}},
		{Name: "Int", Attr: Int("k", 3), Key: "k", Value: int64(3)},
		{Name: "Int64", Attr: Int64("k", 3), Key: "k", Value: int64(3)},
		{Name: "Uint16", Attr: Uint16("k", 8080), Key: "k", Value: uint64(8080)},
		{Name: "Uint32", Attr: Uint32("k", 7), Key: "k", Value: uint64(7)},
		{Name: "Verb", Attr: Verb("GET"), Key: "http_verb", Value: "GET"},
		{Name: "Route", Attr: Route("/ping"), Key: "http_route", Value: "/ping"},
		{Name: "RequestID", Attr: RequestID("abc"), Key: "request_id", Value: "abc"},
		{Name: "RemoteAddr", Attr: RemoteAddr("127.0.0.1"), Key: "remote_addr", Value: "127.0.0.1"},
		{
			Name:  "Addr",
			Attr:  Addr(&net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 80}),
			Key:   "addr",
			Value: "127.0.0.1:80",
		},
		{Name: "Addr with nil", Attr: Addr(nil), Key: "addr", Value: ""},
	}

	for _, testCase := range testCases {
		t.Run(testCase.Name, func(t *testing.T) {
			if !assert.Equal(t, testCase.Key, testCase.Attr.Key) {
				return
			}
			if !assert.Equal(t, testCase.Value, testCase.Attr.Value.Any()) {
				return
			}
		})
	}

	t.Run("Error", func(t *testing.T) {
		err := errors.New("boom")
		attr := Error(err)
		if !assert.Equal(t, "error", attr.Key) {
			return
		}
		if !assert.Equal(t, err, attr.Value.Any()) {
			return
		}
	})
}
