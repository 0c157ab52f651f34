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

// Package metrics exposes the prometheus metrics collected by the probe engine over HTTP.
package metrics

import (
	"context"
	"fmt"
	"github.com/oysterpack/probekit/pkg/eventlog"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
)

// HTTP server events
const (
	// HTTPError indicates an error occurred while serving HTTP requests.
	HTTPError eventlog.Event = "01HCEHCQJ55GQAPENECFSECZP1"

	HTTPServerStarting eventlog.Event = "01HCEHD713DY0YP57RCYBVN5SX"
)

// ServerOpts are the metrics HTTP server options
type ServerOpts struct {
	// Addr is the listen address - if blank, then it defaults to ":5050"
	Addr string
	// ReadTimeout corresponds to http.ReadTimeout and defaults to 1 sec
	ReadTimeout time.Duration
	// WriteTimeout corresponds to http.WriteTimeout and defaults to 5 secs
	WriteTimeout time.Duration
	// Endpoint defaults to /metrics
	Endpoint string
}

func (opts ServerOpts) addr() string {
	addr := strings.TrimSpace(opts.Addr)
	if addr == "" {
		return ":5050"
	}
	return addr
}

func (opts ServerOpts) readTimeout() time.Duration {
	if opts.ReadTimeout <= 0 {
		return 1 * time.Second
	}
	return opts.ReadTimeout
}

func (opts ServerOpts) writeTimeout() time.Duration {
	if opts.WriteTimeout <= 0 {
		return 5 * time.Second
	}
	return opts.WriteTimeout
}

func (opts ServerOpts) endpoint() string {
	endpoint := strings.TrimSpace(opts.Endpoint)
	if endpoint == "" {
		return "/metrics"
	}
	if !strings.HasPrefix(endpoint, "/") {
		return "/" + endpoint
	}
	return endpoint
}

// NewRegistry returns a new registry with the Go runtime and process collectors registered
func NewRegistry() *prometheus.Registry {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return registry
}

// Server exposes prometheus metrics over HTTP, along with any additional HTTP endpoints
type Server struct {
	opts     ServerOpts
	server   *http.Server
	info     serverInfo
	errorLog eventlog.ErrorLogger
	starting eventlog.Logger

	m        sync.Mutex
	listener net.Listener
	done     chan struct{}
}

// NewServer constructs a new metrics HTTP server. The server is not started.
//
// An error is returned if the endpoint paths are not unique.
func NewServer(opts ServerOpts, gatherer prometheus.Gatherer, logger *zerolog.Logger, endpoints ...HTTPEndpoint) (*Server, error) {
	if err := validateEndpoints(opts.endpoint(), endpoints); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = eventlog.Nop()
	}
	logger = eventlog.ForComponent(logger, "metrics")
	errorLog := HTTPError.NewErrorLogger(logger)
	handlerOpts := promhttp.HandlerOpts{
		ErrorLog:            promHTTPErrorLog(errorLog),
		ErrorHandling:       promhttp.ContinueOnError,
		MaxRequestsInFlight: 5,
	}
	if registerer, ok := gatherer.(prometheus.Registerer); ok {
		handlerOpts.Registry = registerer
	}
	handler := http.NewServeMux()
	handler.Handle(opts.endpoint(), promhttp.HandlerFor(gatherer, handlerOpts))
	for _, endpoint := range endpoints {
		handler.HandleFunc(endpoint.Path, endpoint.Handler)
	}
	return &Server{
		opts:   opts,
		info:   newServerInfo(opts.addr(), opts.endpoint(), endpoints),
		server: &http.Server{
			Addr:           opts.addr(),
			Handler:        handler,
			ReadTimeout:    opts.readTimeout(),
			WriteTimeout:   opts.writeTimeout(),
			MaxHeaderBytes: 1024,
		},
		errorLog: errorLog,
		starting: HTTPServerStarting.NewLogger(logger, zerolog.InfoLevel),
	}, nil
}

// Start binds the listen address and serves requests in a background goroutine.
func (s *Server) Start() error {
	s.m.Lock()
	defer s.m.Unlock()
	if s.listener != nil {
		return errors.New("metrics server is already started")
	}
	listener, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return errors.Wrapf(err, "failed to listen on %q", s.server.Addr)
	}
	s.listener = listener
	s.done = make(chan struct{})
	s.starting(s.info, "starting HTTP server")
	go func(done chan<- struct{}) {
		defer close(done)
		if err := s.server.Serve(listener); err != http.ErrServerClosed {
			s.errorLog(serverEvent{s.server.Addr}, err, "metrics HTTP server has exited with an error")
		}
	}(s.done)
	return nil
}

// Addr returns the bound listen address. If the server is not started, then the configured address is returned.
func (s *Server) Addr() string {
	s.m.Lock()
	defer s.m.Unlock()
	if s.listener == nil {
		return s.server.Addr
	}
	return s.listener.Addr().String()
}

// URL returns the metrics endpoint URL
func (s *Server) URL() string {
	addr := s.Addr()
	if strings.HasPrefix(addr, ":") {
		addr = "localhost" + addr
	}
	return fmt.Sprintf("http://%s%s", addr, s.opts.endpoint())
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.m.Lock()
	done := s.done
	s.m.Unlock()
	if done == nil {
		return nil
	}
	if err := s.server.Shutdown(ctx); err != nil {
		return err
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

type promHTTPErrorLog eventlog.ErrorLogger

func (errLog promHTTPErrorLog) Println(v ...interface{}) {
	errLog(nil, errors.New(fmt.Sprint(v...)), "prometheus HTTP handler error")
}

type serverEvent struct {
	addr string
}

func (e serverEvent) MarshalZerologObject(event *zerolog.Event) {
	event.Str("addr", e.addr)
}
