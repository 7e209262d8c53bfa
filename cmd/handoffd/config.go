// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/z5labs/handoff"
	"github.com/z5labs/handoff/config"
	"github.com/z5labs/handoff/config/configtmpl"
	"github.com/z5labs/handoff/pkg/otelconfig"
)

//go:embed default_config.yaml
var defaultConfig []byte

// Config is the full handoffd configuration.
type Config struct {
	Log     LogConfig     `config:"log"`
	Server  ServerConfig  `config:"server"`
	Metrics MetricsConfig `config:"metrics"`
	OTel    OTelConfig    `config:"otel"`
}

type LogConfig struct {
	Level  slog.Level `config:"level"`
	Format string     `config:"format"`
}

type ServerConfig struct {
	Host             string  `config:"host"`
	Port             int     `config:"port"`
	MaxWait          float64 `config:"max_wait"`
	TCPNoDelay       bool    `config:"tcp_no_delay"`
	Workers          int     `config:"workers"`
	PayloadMaxLength int64   `config:"payload_max_length"`

	KeepAlive struct {
		MaxCount int           `config:"max_count"`
		Timeout  time.Duration `config:"timeout"`
	} `config:"keep_alive"`

	TLS struct {
		CertFile     string `config:"cert_file"`
		KeyFile      string `config:"key_file"`
		ClientCAFile string `config:"client_ca_file"`
		ClientCADir  string `config:"client_ca_dir"`
	} `config:"tls"`

	Mounts    []MountConfig     `config:"mounts"`
	MIMETypes map[string]string `config:"mime_types"`
	Routes    []RouteConfig     `config:"routes"`
}

type MountConfig struct {
	Prefix  string            `config:"prefix"`
	Dir     string            `config:"dir"`
	Headers map[string]string `config:"headers"`
}

// RouteConfig describes a canned response. Designated routes are answered
// from the main loop, optionally after Delay.
type RouteConfig struct {
	Verb        string            `config:"verb"`
	Path        string            `config:"path"`
	Status      int               `config:"status"`
	Body        string            `config:"body"`
	ContentType string            `config:"content_type"`
	Headers     map[string]string `config:"headers"`
	Echo        bool              `config:"echo"`
	Designated  bool              `config:"designated"`
	Delay       time.Duration     `config:"delay"`
	MaxWait     *time.Duration    `config:"max_wait"`
}

type MetricsConfig struct {
	Addr string `config:"addr"`
}

type OTelConfig struct {
	Exporter    string `config:"exporter"`
	ServiceName string `config:"service_name"`

	OTLP struct {
		Endpoint string            `config:"endpoint"`
		Insecure bool              `config:"insecure"`
		Headers  map[string]string `config:"headers"`
	} `config:"otlp"`
}

// InvalidConfigError is returned when a config value is outside of its allowed range.
type InvalidConfigError struct {
	Key    string
	Value  any
	Reason string
}

// Error implements the error interface.
func (e InvalidConfigError) Error() string {
	return fmt.Sprintf("invalid config value for %s: %v: %s", e.Key, e.Value, e.Reason)
}

func templateFuncs() []config.RenderTextTemplateOption {
	return []config.RenderTextTemplateOption{
		config.TemplateFunc("env", configtmpl.Env),
		config.TemplateFunc("default", configtmpl.Default),
	}
}

// readConfig layers the embedded defaults, the optional file at path and
// environment variables starting with envPrefix, in that order.
func readConfig(path, envPrefix string) (Config, error) {
	srcs := []config.Source{
		config.FromYaml(config.RenderTextTemplate(bytes.NewReader(defaultConfig), templateFuncs()...)),
	}
	if path != "" {
		srcs = append(srcs, fileSource(path))
	}
	if envPrefix != "" {
		srcs = append(srcs, config.FromEnv(config.EnvPrefix(envPrefix)))
	}

	m, err := config.Read(srcs...)
	if err != nil {
		return Config{}, err
	}

	var cfg Config
	err = m.Unmarshal(&cfg)
	if err != nil {
		return Config{}, err
	}
	return cfg, cfg.validate()
}

func fileSource(path string) config.Source {
	var r io.Reader = config.NewFileReader(os.DirFS(filepath.Dir(path)), filepath.Base(path))
	r = config.RenderTextTemplate(r, templateFuncs()...)

	if strings.EqualFold(filepath.Ext(path), ".json") {
		return config.FromJson(r)
	}
	return config.FromYaml(r)
}

func (cfg Config) validate() error {
	if cfg.Server.Port < 0 || cfg.Server.Port > 65535 {
		return InvalidConfigError{Key: "server.port", Value: cfg.Server.Port, Reason: "must be within [0, 65535]"}
	}
	if cfg.Server.MaxWait < 0 {
		return InvalidConfigError{Key: "server.max_wait", Value: cfg.Server.MaxWait, Reason: "must not be negative"}
	}
	switch cfg.Log.Format {
	case "text", "json":
	default:
		return InvalidConfigError{Key: "log.format", Value: cfg.Log.Format, Reason: "must be text or json"}
	}
	switch cfg.OTel.Exporter {
	case "none", "stdout":
	case "otlp":
		if cfg.OTel.OTLP.Endpoint == "" {
			return InvalidConfigError{Key: "otel.otlp.endpoint", Value: "", Reason: "required by the otlp exporter"}
		}
	default:
		return InvalidConfigError{Key: "otel.exporter", Value: cfg.OTel.Exporter, Reason: "must be none, stdout or otlp"}
	}
	for i, rc := range cfg.Server.Routes {
		if rc.Status != 0 && (rc.Status < 100 || rc.Status > 999) {
			key := fmt.Sprintf("server.routes[%d].status", i)
			return InvalidConfigError{Key: key, Value: rc.Status, Reason: "must be within [100, 999]"}
		}
		if rc.Delay > 0 && !rc.Designated {
			key := fmt.Sprintf("server.routes[%d].delay", i)
			return InvalidConfigError{Key: key, Value: rc.Delay, Reason: "only designated routes may be delayed"}
		}
	}
	return nil
}

func (cfg OTelConfig) initializer(stdout io.Writer) otelconfig.Initializer {
	switch cfg.Exporter {
	case "stdout":
		return otelconfig.Local(
			otelconfig.ServiceName(cfg.ServiceName),
			otelconfig.Out(stdout),
		)
	case "otlp":
		opts := []otelconfig.OTLPOption{
			otelconfig.ServiceName(cfg.ServiceName),
			otelconfig.Endpoint(cfg.OTLP.Endpoint),
			otelconfig.Headers(cfg.OTLP.Headers),
		}
		if cfg.OTLP.Insecure {
			opts = append(opts, otelconfig.Insecure())
		}
		return otelconfig.OTLP(opts...)
	default:
		return otelconfig.Noop
	}
}

func (cfg ServerConfig) tls() (handoff.TLSConfig, bool) {
	if cfg.TLS.CertFile == "" && cfg.TLS.KeyFile == "" {
		return handoff.TLSConfig{}, false
	}
	return handoff.TLSConfig{
		CertFile:     cfg.TLS.CertFile,
		KeyFile:      cfg.TLS.KeyFile,
		ClientCAFile: cfg.TLS.ClientCAFile,
		ClientCADir:  cfg.TLS.ClientCADir,
	}, true
}

func (cfg ServerConfig) mounts() []handoff.Mount {
	mounts := make([]handoff.Mount, 0, len(cfg.Mounts))
	for _, mc := range cfg.Mounts {
		mounts = append(mounts, handoff.Mount{
			Prefix:  mc.Prefix,
			Dir:     mc.Dir,
			Headers: mc.Headers,
		})
	}
	return mounts
}
