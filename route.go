// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package handoff

import (
	"net/http"
	"strings"
	"time"

	"github.com/z5labs/handoff/internal/try"
	"github.com/z5labs/handoff/pkg/ptr"

	"github.com/go-chi/chi/v5"
)

// Callback handles a request routed to it. Request and Response may be
// handed to other goroutines but are only usable while the request is
// being served.
type Callback func(Request, Response)

// Route describes a single registered route.
type Route struct {
	Verb     Verb
	Path     string
	Callback Callback

	// Designated runs Callback on the server executor instead of
	// the network goroutine.
	Designated bool

	// MaxWait bounds how long the network goroutine waits for Callback
	// to send the response. Zero disables waiting and nil falls back to
	// the server max wait.
	MaxWait *time.Duration
}

// RouteOption configures a single route.
type RouteOption func(*Route)

// Designated runs the route callback on the server executor.
func Designated() RouteOption {
	return func(r *Route) {
		r.Designated = true
	}
}

// MaxWait overrides the server max wait for a single route. Durations
// below one millisecond disable waiting and negative durations are
// rejected when the route is registered.
func MaxWait(d time.Duration) RouteOption {
	return func(r *Route) {
		r.MaxWait = ptr.Ref(d)
	}
}

func truncateWait(d time.Duration) time.Duration {
	if d < time.Millisecond {
		return 0
	}
	return d.Truncate(time.Millisecond)
}

// Handle registers cb for requests matching verb and path. Registering
// the same verb and path again replaces the earlier route. Path patterns
// follow chi, e.g. "/users/{id}".
func (s *Server) Handle(verb Verb, path string, cb Callback, opts ...RouteOption) error {
	rt := Route{
		Verb:     verb,
		Path:     path,
		Callback: cb,
	}
	for _, opt := range opts {
		opt(&rt)
	}

	err := validateRoute(rt)
	if err != nil {
		return err
	}

	if rt.MaxWait != nil {
		rt.MaxWait = ptr.Ref(truncateWait(*rt.MaxWait))
	}
	return s.configure(false, func() {
		s.routes = upsertRoute(s.routes, rt)
	})
}

// Get registers cb for GET requests matching path.
func (s *Server) Get(path string, cb Callback, opts ...RouteOption) error {
	return s.Handle(VerbGet, path, cb, opts...)
}

// Post registers cb for POST requests matching path.
func (s *Server) Post(path string, cb Callback, opts ...RouteOption) error {
	return s.Handle(VerbPost, path, cb, opts...)
}

// Put registers cb for PUT requests matching path.
func (s *Server) Put(path string, cb Callback, opts ...RouteOption) error {
	return s.Handle(VerbPut, path, cb, opts...)
}

// Patch registers cb for PATCH requests matching path.
func (s *Server) Patch(path string, cb Callback, opts ...RouteOption) error {
	return s.Handle(VerbPatch, path, cb, opts...)
}

// Delete registers cb for DELETE requests matching path.
func (s *Server) Delete(path string, cb Callback, opts ...RouteOption) error {
	return s.Handle(VerbDelete, path, cb, opts...)
}

// Options registers cb for OPTIONS requests matching path.
func (s *Server) Options(path string, cb Callback, opts ...RouteOption) error {
	return s.Handle(VerbOptions, path, cb, opts...)
}

// RemoveRoute unregisters the route for verb and path.
func (s *Server) RemoveRoute(verb Verb, path string) error {
	var found bool
	err := s.configure(false, func() {
		for i, rt := range s.routes {
			if rt.Verb != verb || rt.Path != path {
				continue
			}
			s.routes = append(s.routes[:i:i], s.routes[i+1:]...)
			found = true
			return
		}
	})
	if err != nil {
		return err
	}
	if !found {
		return ErrRouteNotFound
	}
	return nil
}

// Routes returns a copy of the registered routes in registration order.
func (s *Server) Routes() []Route {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Route(nil), s.routes...)
}

// Setup adds every mount and registers every route at once. Nothing is
// applied if any of them is invalid.
func (s *Server) Setup(mounts []Mount, routes []Route) error {
	resolved := make([]Mount, 0, len(mounts))
	for _, m := range mounts {
		rm, err := resolveMount(m)
		if err != nil {
			return err
		}
		resolved = append(resolved, rm)
	}
	for _, rt := range routes {
		err := validateRoute(rt)
		if err != nil {
			return err
		}
	}

	return s.configure(false, func() {
		for _, m := range resolved {
			s.mounts = upsertMount(s.mounts, m)
		}
		for _, rt := range routes {
			if rt.MaxWait != nil {
				rt.MaxWait = ptr.Ref(truncateWait(*rt.MaxWait))
			}
			s.routes = upsertRoute(s.routes, rt)
		}
	})
}

func validateRoute(rt Route) error {
	if !rt.Verb.Valid() {
		return InvalidValueError{Setting: "verb", Value: rt.Verb}
	}
	if !strings.HasPrefix(rt.Path, "/") {
		return InvalidValueError{Setting: "path", Value: rt.Path}
	}
	if rt.MaxWait != nil && *rt.MaxWait < 0 {
		return InvalidValueError{Setting: "max wait", Value: *rt.MaxWait}
	}

	// chi panics on malformed patterns so catch them before Listen does
	err := try.Call(func() {
		chi.NewRouter().Method(rt.Verb.String(), rt.Path, http.NotFoundHandler())
	})
	if err != nil {
		return InvalidValueError{Setting: "path", Value: rt.Path}
	}
	return nil
}

func upsertRoute(routes []Route, rt Route) []Route {
	for i, existing := range routes {
		if existing.Verb == rt.Verb && existing.Path == rt.Path {
			routes[i] = rt
			return routes
		}
	}
	return append(routes, rt)
}
