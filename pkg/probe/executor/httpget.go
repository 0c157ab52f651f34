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

package executor

import (
	"context"
	"crypto/tls"
	"fmt"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/oysterpack/probekit/pkg/probe"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"
)

// DefaultUserAgent is sent with HTTP probe requests unless overridden
const DefaultUserAgent = "probekit"

// maxReasonBodyBytes limits how much of a failed response body is used as the failure reason
const maxReasonBodyBytes = 1024

// HTTPGetOpts is used to construct a new HTTPGet executor
type HTTPGetOpts struct {
	UserAgent string
	// MaxRetries is the number of times a request is retried within a single probe invocation - default is 0.
	// Retries are bounded by the probe timeout.
	MaxRetries int
	// InsecureSkipVerify disables TLS certificate verification for HTTPS probes
	InsecureSkipVerify bool
	// Logger is optional
	Logger *zerolog.Logger
}

// HTTPGet executes HTTPGetAction probes
type HTTPGet struct {
	client    *retryablehttp.Client
	userAgent string
}

// NewHTTPGet constructs a new HTTPGet executor
func NewHTTPGet(opts HTTPGetOpts) *HTTPGet {
	client := retryablehttp.NewClient()
	client.RetryMax = opts.MaxRetries
	client.RetryWaitMin = 100 * time.Millisecond
	client.RetryWaitMax = time.Second
	// the response is classified by the executor, i.e., 5xx responses are failures, not errors
	client.ErrorHandler = retryablehttp.PassthroughErrorHandler
	client.Logger = nil
	if opts.Logger != nil {
		client.Logger = leveledLogger{opts.Logger}
	}
	if transport, ok := client.HTTPClient.Transport.(*http.Transport); ok {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: opts.InsecureSkipVerify}
		transport.DisableKeepAlives = true
	}

	userAgent := strings.TrimSpace(opts.UserAgent)
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	return &HTTPGet{
		client:    client,
		userAgent: userAgent,
	}
}

// Execute sends the GET request
func (e *HTTPGet) Execute(ctx context.Context, target probe.Target, timeout time.Duration) probe.Outcome {
	outcome := probe.NewOutcomeBuilder()
	action, ok := target.(probe.HTTPGetAction)
	if !ok {
		return outcome.Error(errors.Wrapf(probe.ErrUnsupportedTargetKind, "HTTPGet executor: %s", target.Kind()))
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, action.URL(), nil)
	if err != nil {
		return outcome.Error(errors.Wrap(err, "failed to create HTTP request"))
	}
	req.Header.Set("User-Agent", e.userAgent)
	req.Header.Set("Accept", "*/*")
	for _, header := range action.Headers {
		if strings.EqualFold(header.Name, "Host") {
			req.Host = header.Value
			continue
		}
		req.Header.Add(header.Name, header.Value)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return outcome.Error(err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxReasonBodyBytes))
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusBadRequest {
		return outcome.Success()
	}
	return outcome.Failure(failureReason(resp))
}

func failureReason(resp *http.Response) string {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxReasonBodyBytes))
	reason := fmt.Sprintf("HTTP probe failed with statuscode: %d", resp.StatusCode)
	if len(body) > 0 && utf8.Valid(body) {
		reason = fmt.Sprintf("%s: %s", reason, strings.TrimSpace(string(body)))
	}
	return reason
}

// leveledLogger adapts zerolog to retryablehttp.LeveledLogger
type leveledLogger struct {
	logger *zerolog.Logger
}

func (l leveledLogger) Error(msg string, keysAndValues ...interface{}) {
	l.logger.Error().Fields(keysAndValues).Msg(msg)
}

func (l leveledLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Info().Fields(keysAndValues).Msg(msg)
}

func (l leveledLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.logger.Debug().Fields(keysAndValues).Msg(msg)
}

func (l leveledLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.logger.Warn().Fields(keysAndValues).Msg(msg)
}
