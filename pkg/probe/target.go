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

package probe

import (
	"fmt"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"go.uber.org/multierr"
	"net"
	"net/url"
	"strconv"
	"strings"
)

// Target describes what is probed. It is one of HTTPGetAction, TCPSocketAction or ExecAction.
type Target interface {
	Kind() Kind

	// Validate returns an error describing every invalid field
	Validate() error

	zerolog.LogObjectMarshaler
	fmt.Stringer
}

// DefaultHost is used when a target host is not specified
const DefaultHost = "localhost"

// HTTPHeader is a custom header sent with an HTTP GET probe request
type HTTPHeader struct {
	Name  string
	Value string
}

// HTTPGetAction probes the target using an HTTP GET request.
// Any response status code in the range [200,400) is a success.
type HTTPGetAction struct {
	// Scheme is either HTTP or HTTPS - default is HTTP
	Scheme string
	// Host defaults to localhost
	Host string
	Port int
	// Path defaults to "/"
	Path    string
	Headers []HTTPHeader
}

// Kind returns HTTPGet
func (a HTTPGetAction) Kind() Kind {
	return HTTPGet
}

// URL returns the URL that the GET request is sent to
func (a HTTPGetAction) URL() string {
	scheme := strings.ToLower(strings.TrimSpace(a.Scheme))
	if scheme == "" {
		scheme = "http"
	}
	u := url.URL{
		Scheme: scheme,
		Host:   net.JoinHostPort(host(a.Host), strconv.Itoa(a.Port)),
	}
	path := strings.TrimSpace(a.Path)
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	// the path may carry a query string
	if i := strings.IndexByte(path, '?'); i >= 0 {
		u.Path, u.RawQuery = path[:i], path[i+1:]
	} else {
		u.Path = path
	}
	return u.String()
}

// Validate checks the scheme, port and headers
func (a HTTPGetAction) Validate() error {
	var err error
	switch strings.ToLower(strings.TrimSpace(a.Scheme)) {
	case "", "http", "https":
	default:
		err = errors.Errorf("HTTP scheme must be HTTP or HTTPS: %q", a.Scheme)
	}
	err = multierr.Append(err, validatePort(a.Port))
	for _, header := range a.Headers {
		if strings.TrimSpace(header.Name) == "" {
			err = multierr.Append(err, errors.New("HTTP header name must not be blank"))
		}
	}
	return err
}

func (a HTTPGetAction) String() string {
	return "GET " + a.URL()
}

// MarshalZerologObject implements zerolog.LogObjectMarshaler interface
func (a HTTPGetAction) MarshalZerologObject(e *zerolog.Event) {
	e.Str("kind", a.Kind().String()).Str("url", a.URL())
}

// TCPSocketAction probes the target by opening a TCP connection
type TCPSocketAction struct {
	// Host defaults to localhost
	Host string
	Port int
}

// Kind returns TCPSocket
func (a TCPSocketAction) Kind() Kind {
	return TCPSocket
}

// Address returns the address in host:port form
func (a TCPSocketAction) Address() string {
	return net.JoinHostPort(host(a.Host), strconv.Itoa(a.Port))
}

// Validate checks the port
func (a TCPSocketAction) Validate() error {
	return validatePort(a.Port)
}

func (a TCPSocketAction) String() string {
	return "TCP " + a.Address()
}

// MarshalZerologObject implements zerolog.LogObjectMarshaler interface
func (a TCPSocketAction) MarshalZerologObject(e *zerolog.Event) {
	e.Str("kind", a.Kind().String()).Str("addr", a.Address())
}

// ExecAction probes the target by running a command.
// The command is not run in a shell. An exit code of 0 is a success.
type ExecAction struct {
	Command []string
}

// Kind returns Exec
func (a ExecAction) Kind() Kind {
	return Exec
}

// Validate checks that a command is specified
func (a ExecAction) Validate() error {
	if len(a.Command) == 0 || strings.TrimSpace(a.Command[0]) == "" {
		return errors.New("exec command is required")
	}
	return nil
}

func (a ExecAction) String() string {
	return "EXEC " + strings.Join(a.Command, " ")
}

// MarshalZerologObject implements zerolog.LogObjectMarshaler interface
func (a ExecAction) MarshalZerologObject(e *zerolog.Event) {
	e.Str("kind", a.Kind().String()).Strs("cmd", a.Command)
}

func host(h string) string {
	h = strings.TrimSpace(h)
	if h == "" {
		return DefaultHost
	}
	return h
}

func validatePort(port int) error {
	if port < 1 || port > 65535 {
		return errors.Wrapf(ErrInvalidPort, "%d", port)
	}
	return nil
}
