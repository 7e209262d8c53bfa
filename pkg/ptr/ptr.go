// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package ptr provides helpers for working with optional values.
package ptr

// Ref returns a reference of the given value.
func Ref[T any](t T) *T {
	return &t
}

// Or returns the value t refers to or def if t is nil.
func Or[T any](t *T, def T) T {
	if t == nil {
		return def
	}
	return *t
}
