// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package config

import (
	"fmt"
	"strings"
	"time"
)

func Example() {
	tmpl := strings.NewReader(`
server:
  port: {{ port }}
  max_wait: 250ms
`)

	m, err := Read(
		FromYaml(RenderTextTemplate(tmpl, TemplateFunc("port", func() int { return 8080 }))),
	)
	if err != nil {
		fmt.Println(err)
		return
	}

	var cfg struct {
		Server struct {
			Port    uint16        `config:"port"`
			MaxWait time.Duration `config:"max_wait"`
		} `config:"server"`
	}
	err = m.Unmarshal(&cfg)
	if err != nil {
		fmt.Println(err)
		return
	}

	fmt.Println(cfg.Server.Port)
	fmt.Println(cfg.Server.MaxWait)
	// Output:
	// 8080
	// 250ms
}
