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

package metrics

import (
	"fmt"
	"github.com/rs/zerolog"
	"go.uber.org/fx"
	"net/http"
	"sort"
)

// HTTPHandler is used to group HTTPEndpoint(s) together.
// The HTTPEndpoint(s) are automatically registered with the metrics HTTP server by Module.
type HTTPHandler struct {
	fx.Out

	HTTPEndpoint `group:"HTTPHandler"`
}

// NewHTTPHandler constructs a new HTTPHandler
func NewHTTPHandler(path string, handler func(http.ResponseWriter, *http.Request)) HTTPHandler {
	return HTTPHandler{
		HTTPEndpoint: HTTPEndpoint{
			Path:    path,
			Handler: handler,
		},
	}
}

// HTTPEndpoint maps an HTTP handler to an HTTP path
type HTTPEndpoint struct {
	Path    string
	Handler func(http.ResponseWriter, *http.Request)
}

// validateEndpoints runs the following checks:
//	- endpoint paths are unique, including the metrics endpoint
//	- handler funcs are not nil
func validateEndpoints(metricsEndpoint string, endpoints []HTTPEndpoint) error {
	paths := map[string]bool{metricsEndpoint: true}
	for _, endpoint := range endpoints {
		if paths[endpoint.Path] {
			return fmt.Errorf("duplicate HTTP endpoint path: %v", endpoint.Path)
		}
		if endpoint.Handler == nil {
			return fmt.Errorf("http handler func is nil for: %v", endpoint.Path)
		}
		paths[endpoint.Path] = true
	}
	return nil
}

type serverInfo struct {
	addr      string
	endpoints []string
}

func newServerInfo(addr string, metricsEndpoint string, endpoints []HTTPEndpoint) serverInfo {
	paths := make([]string, 0, len(endpoints)+1)
	paths = append(paths, metricsEndpoint)
	for _, endpoint := range endpoints {
		paths = append(paths, endpoint.Path)
	}
	sort.Strings(paths)
	return serverInfo{addr, paths}
}

func (info serverInfo) MarshalZerologObject(e *zerolog.Event) {
	e.Str("addr", info.addr).
		Strs("endpoints", info.endpoints)
}
