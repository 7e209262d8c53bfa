// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package ptr

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestOr(t *testing.T) {
	t.Run("will return the default", func(t *testing.T) {
		t.Run("if the pointer is nil", func(t *testing.T) {
			var d *time.Duration
			assert.Equal(t, 5*time.Second, Or(d, 5*time.Second))
		})
	})

	t.Run("will return the referenced value", func(t *testing.T) {
		t.Run("if the pointer is not nil", func(t *testing.T) {
			assert.Equal(t, time.Duration(0), Or(Ref(time.Duration(0)), 5*time.Second))
		})
	})
}
