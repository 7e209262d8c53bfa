// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package handoff

import "net/http"

// Verb is the HTTP method a route is registered for.
type Verb string

const (
	VerbGet     Verb = http.MethodGet
	VerbPost    Verb = http.MethodPost
	VerbPut     Verb = http.MethodPut
	VerbPatch   Verb = http.MethodPatch
	VerbDelete  Verb = http.MethodDelete
	VerbOptions Verb = http.MethodOptions
)

// Valid reports whether routes can be registered for v.
func (v Verb) Valid() bool {
	switch v {
	case VerbGet, VerbPost, VerbPut, VerbPatch, VerbDelete, VerbOptions:
		return true
	default:
		return false
	}
}

func (v Verb) String() string {
	return string(v)
}
