// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package configtmpl

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnv(t *testing.T) {
	t.Run("will return the variable value", func(t *testing.T) {
		t.Run("if it is set", func(t *testing.T) {
			t.Setenv("HANDOFF_TEST_ENV", "hello")
			assert.Equal(t, "hello", Env("HANDOFF_TEST_ENV"))
		})
	})

	t.Run("will return an empty string", func(t *testing.T) {
		t.Run("if it is not set", func(t *testing.T) {
			assert.Equal(t, "", Env("HANDOFF_TEST_ENV_MISSING"))
		})
	})
}

func TestDefault(t *testing.T) {
	t.Run("will return the default", func(t *testing.T) {
		t.Run("if the value is nil", func(t *testing.T) {
			assert.Equal(t, 8080, Default(8080, nil))
		})

		t.Run("if the value is the zero value", func(t *testing.T) {
			assert.Equal(t, "localhost", Default("localhost", ""))
		})
	})

	t.Run("will return the value", func(t *testing.T) {
		t.Run("if it is not the zero value", func(t *testing.T) {
			assert.Equal(t, "0.0.0.0", Default("localhost", "0.0.0.0"))
		})
	})
}
