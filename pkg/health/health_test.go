// Copyright (c) 2023 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package health

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBinary_Toggle(t *testing.T) {
	t.Run("will make it unhealthy", func(t *testing.T) {
		t.Run("if the current state is healthy", func(t *testing.T) {
			var m Binary
			m.Toggle()
			assert.False(t, m.Healthy(context.Background()))
		})
	})

	t.Run("will make it healthy", func(t *testing.T) {
		t.Run("if the current state is unhealthy", func(t *testing.T) {
			m := Binary{
				unhealthy: true,
			}
			m.Toggle()
			assert.True(t, m.Healthy(context.Background()))
		})
	})
}

func TestAndMetric_Healthy(t *testing.T) {
	healthy := MetricFunc(func(context.Context) bool { return true })
	unhealthy := MetricFunc(func(context.Context) bool { return false })

	testCases := []struct {
		Name     string
		Metrics  []Metric
		Expected bool
	}{
		{Name: "if there are no metrics", Expected: true},
		{Name: "if there is a single healthy metric", Metrics: []Metric{healthy}, Expected: true},
		{Name: "if all metrics are healthy", Metrics: []Metric{healthy, healthy}, Expected: true},
		{Name: "if a single metric is unhealthy", Metrics: []Metric{healthy, unhealthy}, Expected: false},
	}

	for _, testCase := range testCases {
		t.Run(testCase.Name, func(t *testing.T) {
			am := And(testCase.Metrics...)
			assert.Equal(t, testCase.Expected, am.Healthy(context.Background()))
		})
	}
}
