// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package handoff provides an embedded HTTP server whose route callbacks can
// be handed off to a designated execution context, e.g. the main loop of an
// application, while the network goroutine serving the request waits, up to
// a bounded amount of time, for the callback to produce a response.
//
// # Routes
//
// Routes are registered per verb and path before the server starts listening:
//
//	s := handoff.New()
//	s.Get("/ping", func(req handoff.Request, res handoff.Response) {
//	    res.SetStatus(http.StatusOK)
//	    res.SetBody("pong")
//	})
//
// A route registered with [Designated] runs its callback on the server
// [executor.Executor] instead of the network goroutine. Combined with
// [MaxWait], the network goroutine blocks until the callback calls
// [Response.Send] or the wait elapses, whichever comes first:
//
//	s.Post("/slow", slow, handoff.Designated(), handoff.MaxWait(10*time.Millisecond))
//
// # Lifetimes
//
// A [Request] and [Response] are only valid while the network goroutine is
// serving them. Once the wait resolves both are invalidated and the
// response is written to the connection. From then on, every read returns a
// zero value and every write is silently dropped, so a designated callback
// which loses the race against the wait never corrupts a response that has
// already been sent.
//
// # Lifecycle
//
// A [Server] moves from created, to listening, to stopped. Stopped is
// terminal: a fresh [Server] is required to listen again.
package handoff
