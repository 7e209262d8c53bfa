// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package handoff

import (
	"errors"
	"fmt"
)

var (
	// ErrRunning is returned when the server configuration is changed
	// while the server is listening.
	ErrRunning = errors.New("handoff: server is listening")

	// ErrStopped is returned when a stopped server is reconfigured.
	ErrStopped = errors.New("handoff: server has been stopped")

	// ErrRouteNotFound is returned when removing a route which was never registered.
	ErrRouteNotFound = errors.New("handoff: route not found")

	// ErrMountNotFound is returned when removing a mount which was never added.
	ErrMountNotFound = errors.New("handoff: mount not found")
)

// InvalidValueError is returned when a setting, route or mount is given
// a value it can not accept.
type InvalidValueError struct {
	Setting string
	Value   any
}

// Error implements the [builtin.error] interface.
func (e InvalidValueError) Error() string {
	return fmt.Sprintf("handoff: invalid value for %s: %v", e.Setting, e.Value)
}

// InvalidMountError is returned when a directory can not be mounted.
type InvalidMountError struct {
	Prefix string
	Dir    string
	Cause  error
}

// Error implements the [builtin.error] interface.
func (e InvalidMountError) Error() string {
	return fmt.Sprintf("handoff: can not mount %s at %s: %s", e.Dir, e.Prefix, e.Cause)
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e InvalidMountError) Unwrap() error {
	return e.Cause
}

// TLSConfigError is returned when the TLS certificate, private key or
// client CAs can not be loaded.
type TLSConfigError struct {
	Cause error
}

// Error implements the [builtin.error] interface.
func (e TLSConfigError) Error() string {
	return fmt.Sprintf("handoff: invalid tls material: %s", e.Cause)
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e TLSConfigError) Unwrap() error {
	return e.Cause
}

// BindError is logged when the server fails to bind its listening address.
type BindError struct {
	Addr  string
	Cause error
}

// Error implements the [builtin.error] interface.
func (e BindError) Error() string {
	return fmt.Sprintf("handoff: failed to bind to %s: %s", e.Addr, e.Cause)
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e BindError) Unwrap() error {
	return e.Cause
}
