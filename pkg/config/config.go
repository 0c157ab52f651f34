/*
 * Copyright (c) 2019 OysterPack, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 * http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package config loads the probe engine settings from the environment.
//
// All env vars are prefixed with "PROBEKIT", e.g., PROBEKIT_LOG_LEVEL. For more information, see
// "github.com/kelseyhightower/envconfig".
package config

import (
	"fmt"
	"github.com/kelseyhightower/envconfig"
	"github.com/oysterpack/probekit/pkg/eventlog"
	"github.com/oysterpack/probekit/pkg/probe/executor"
	"github.com/rs/zerolog"
	"io"
	"log"
	"time"
)

// EnvPrefix is used as the environment variable name prefix to load configs from the env
const EnvPrefix = "PROBEKIT"

// Config is used to load the config settings from env vars
type Config struct {
	// LogLevel specifies the global log level - default = info
	LogLevel           Level `default:"info" envconfig:"log_level"`
	LogDisableSampling bool  `envconfig:"log_disable_sampling"`

	// MetricsAddr is the prometheus metrics HTTP server listen address
	MetricsAddr     string `default:":5050" envconfig:"metrics_addr"`
	MetricsEndpoint string `default:"/metrics" envconfig:"metrics_endpoint"`

	// ShutdownTimeout bounds how long to wait for in flight probes when shutting down
	ShutdownTimeout time.Duration `default:"15s" envconfig:"shutdown_timeout"`

	HTTPUserAgent  string `default:"probekit" envconfig:"http_user_agent"`
	HTTPMaxRetries int    `default:"0" envconfig:"http_max_retries"`
	// HTTPInsecureSkipVerify is true by default because probe targets are typically addressed by IP
	HTTPInsecureSkipVerify bool `default:"true" envconfig:"http_insecure_skip_verify"`
}

// Load loads the Config from the env
func Load() (Config, error) {
	var config Config
	if err := envconfig.Process(EnvPrefix, &config); err != nil {
		return config, err
	}
	if config.HTTPMaxRetries < 0 {
		return config, fmt.Errorf("%s_HTTP_MAX_RETRIES must not be negative: %d", EnvPrefix, config.HTTPMaxRetries)
	}
	if config.ShutdownTimeout <= 0 {
		return config, fmt.Errorf("%s_SHUTDOWN_TIMEOUT must be greater than 0: %s", EnvPrefix, config.ShutdownTimeout)
	}
	return config, nil
}

// ApplyLogSettings applies the global zerolog settings
func (c Config) ApplyLogSettings() {
	zerolog.SetGlobalLevel(zerolog.Level(c.LogLevel))
	zerolog.DisableSampling(c.LogDisableSampling)
}

// NewLogger applies the global zerolog settings and constructs a new logger that writes to w
func (c Config) NewLogger(w io.Writer) *zerolog.Logger {
	c.ApplyLogSettings()
	logger := eventlog.NewZeroLogger(w)
	return &logger
}

// HTTPGetOpts returns the HTTPGet executor options
func (c Config) HTTPGetOpts(logger *zerolog.Logger) executor.HTTPGetOpts {
	return executor.HTTPGetOpts{
		UserAgent:          c.HTTPUserAgent,
		MaxRetries:         c.HTTPMaxRetries,
		InsecureSkipVerify: c.HTTPInsecureSkipVerify,
		Logger:             logger,
	}
}

func (c Config) String() string {
	return fmt.Sprintf("Config{LogLevel=%s, LogDisableSampling=%v, MetricsAddr=%s, MetricsEndpoint=%s, ShutdownTimeout=%s, HTTPUserAgent=%s, HTTPMaxRetries=%d, HTTPInsecureSkipVerify=%v}",
		c.LogLevel, c.LogDisableSampling, c.MetricsAddr, c.MetricsEndpoint, c.ShutdownTimeout, c.HTTPUserAgent, c.HTTPMaxRetries, c.HTTPInsecureSkipVerify)
}

// MarshalZerologObject implements zerolog.LogObjectMarshaler interface
func (c Config) MarshalZerologObject(e *zerolog.Event) {
	e.Str("log_level", c.LogLevel.String()).
		Bool("log_disable_sampling", c.LogDisableSampling).
		Str("metrics_addr", c.MetricsAddr).
		Str("metrics_endpoint", c.MetricsEndpoint).
		Dur("shutdown_timeout", c.ShutdownTimeout).
		Str("http_user_agent", c.HTTPUserAgent).
		Int("http_max_retries", c.HTTPMaxRetries).
		Bool("http_insecure_skip_verify", c.HTTPInsecureSkipVerify)
}

// Level is a type alias for zerolog.Level in order to be able to implement the `envconfig.Decoder` interface on it
type Level zerolog.Level

// Decode implements `envconfig.Decoder` interface
func (l *Level) Decode(value string) error {
	level, err := zerolog.ParseLevel(value)
	if err != nil {
		return err
	}
	*l = Level(level)
	return nil
}

func (l Level) String() string {
	return zerolog.Level(l).String()
}

// UseAsStandardLoggerOutput uses the specified logger as the go std log output.
func UseAsStandardLoggerOutput(logger *zerolog.Logger) {
	log.SetFlags(0)
	log.SetOutput(logger)
}
