// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package health

import (
	"context"
	"fmt"
)

func ExampleBinary() {
	var b Binary
	fmt.Println(b.Healthy(context.Background()))

	b.Toggle()
	fmt.Println(b.Healthy(context.Background()))
	// Output: true
	// false
}

func ExampleAnd() {
	var listening Binary
	draining := MetricFunc(func(context.Context) bool {
		return false
	})

	ready := And(&listening, draining)
	fmt.Println(ready.Healthy(context.Background()))
	// Output: false
}
