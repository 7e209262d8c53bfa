// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package otelslog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
)

func ExampleHandler_WithAttrs() {
	var buf bytes.Buffer
	var h slog.Handler = NewHandler(slog.NewJSONHandler(&buf, &slog.HandlerOptions{}))
	h = h.WithAttrs([]slog.Attr{slog.String("a", "b")})

	logger := slog.New(h)
	logger.Info("hello world")

	var record struct {
		Message string `json:"msg"`
		A       string `json:"a"`
	}
	err := json.Unmarshal(buf.Bytes(), &record)
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println(record.Message)
	fmt.Print(record.A)
	// Output: hello world
	// b
}

func ExampleContextWithAttrs() {
	var buf bytes.Buffer
	logger := New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{}))

	ctx := ContextWithAttrs(context.Background(), slog.String("request_id", "1234"))
	logger.InfoContext(ctx, "response sent")

	var record struct {
		Message   string `json:"msg"`
		RequestID string `json:"request_id"`
	}
	err := json.Unmarshal(buf.Bytes(), &record)
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println(record.Message)
	fmt.Print(record.RequestID)
	// Output: response sent
	// 1234
}
