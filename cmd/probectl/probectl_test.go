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

package main

import (
	"bytes"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Setenv("PROBEKIT_LOG_LEVEL", "error")
	cmd := newRootCmd()
	out := new(bytes.Buffer)
	cmd.SetOut(out)
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs(args)
	err := cmd.Execute()
	t.Logf("probectl %v\n%s", args, out)
	return out.String(), err
}

func requireCommand(t *testing.T, name string) {
	if _, err := exec.LookPath(name); err != nil {
		t.Skipf("%s command is not available", name)
	}
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "probectl v"+version+"\n", out)

	_, err = run(t, "version", "--check", ">= 0.1")
	assert.NoError(t, err)
	_, err = run(t, "version", "--check", ">= 99")
	assert.Error(t, err)
	_, err = run(t, "version", "--check", "not a constraint")
	assert.Error(t, err)
}

func TestProbeHTTP(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		switch req.URL.Path {
		case "/healthz":
			if req.Header.Get("X-Probe") != "probectl" {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			w.WriteHeader(http.StatusOK)
		default:
			w.WriteHeader(http.StatusServiceUnavailable)
		}
	}))
	defer server.Close()
	u, err := url.Parse(server.URL)
	require.NoError(t, err)
	host, port, err := net.SplitHostPort(u.Host)
	require.NoError(t, err)

	out, err := run(t, "probe", "http", "--host", host, "--port", port, "--path", "/healthz", "--header", "X-Probe: probectl")
	require.NoError(t, err)
	assert.Contains(t, out, "success")

	out, err = run(t, "probe", "http", "--host", host, "--port", port, "--path", "/ready")
	assert.True(t, errors.Is(err, ErrUnhealthy))
	assert.Contains(t, out, "failure")
	assert.Contains(t, out, "503")

	_, err = run(t, "probe", "http", "--host", host, "--port", port, "--header", "X-Probe")
	assert.Error(t, err)
	_, err = run(t, "probe", "http", "--host", host)
	assert.Error(t, err, "--port is required")
}

func TestProbeTCP(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := l.Addr().(*net.TCPAddr).Port

	out, err := run(t, "probe", "tcp", "--host", "127.0.0.1", "--port", strconv.Itoa(port))
	require.NoError(t, err)
	assert.Contains(t, out, "success")

	require.NoError(t, l.Close())
	out, err = run(t, "probe", "tcp", "--host", "127.0.0.1", "--port", strconv.Itoa(port))
	assert.True(t, errors.Is(err, ErrUnhealthy))
	assert.Contains(t, out, "failure")

	_, err = run(t, "probe", "tcp", "--port", "70000")
	assert.Error(t, err)
}

func TestProbeExec(t *testing.T) {
	requireCommand(t, "true")
	requireCommand(t, "false")

	out, err := run(t, "probe", "exec", "--", "true")
	require.NoError(t, err)
	assert.Contains(t, out, "success")

	_, err = run(t, "probe", "exec", "--", "false")
	assert.True(t, errors.Is(err, ErrUnhealthy))

	_, err = run(t, "probe", "exec")
	assert.Error(t, err, "command is required")
}

const manifest = `
apiVersion: v1
kind: Pod
metadata:
  name: worker
spec:
  containers:
  - name: worker
    image: busybox
    readinessProbe:
      exec:
        command: ["true"]
      periodSeconds: 1
  - name: sidecar
    image: busybox
`

func TestWatch(t *testing.T) {
	requireCommand(t, "true")
	file := filepath.Join(t.TempDir(), "pod.yaml")
	require.NoError(t, os.WriteFile(file, []byte(manifest), 0600))

	out, err := run(t, "watch", "-f", file, "--duration", "1500ms", "--no-metrics")
	require.NoError(t, err)
	assert.Contains(t, out, `"action":"AddToService","container":"worker"`)
	assert.Contains(t, out, `"action":"AddToService","container":"sidecar"`)
	assert.Contains(t, out, `"transition":"BecameHealthy"`)
}

func TestWatch_SelectContainer(t *testing.T) {
	file := filepath.Join(t.TempDir(), "pod.yaml")
	require.NoError(t, os.WriteFile(file, []byte(manifest), 0600))

	out, err := run(t, "watch", "-f", file, "-c", "sidecar", "--duration", "200ms", "--no-metrics")
	require.NoError(t, err)
	assert.Contains(t, out, `"container":"sidecar"`)
	assert.NotContains(t, out, `"container":"worker"`)

	_, err = run(t, "watch", "-f", file, "-c", "db", "--duration", "200ms", "--no-metrics")
	assert.Error(t, err)
}

func TestWatch_InvalidManifest(t *testing.T) {
	dir := t.TempDir()
	_, err := run(t, "watch", "-f", filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	file := filepath.Join(dir, "grpc.yaml")
	require.NoError(t, os.WriteFile(file, []byte("name: api\nlivenessProbe:\n  grpc:\n    port: 50051\n"), 0600))
	_, err = run(t, "watch", "-f", file, "--no-metrics")
	assert.Error(t, err)
}

func TestWatch_Metrics(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())
	t.Setenv("PROBEKIT_METRICS_ADDR", addr)

	file := filepath.Join(t.TempDir(), "pod.yaml")
	require.NoError(t, os.WriteFile(file, []byte("name: sidecar\nimage: busybox\n"), 0600))

	done := make(chan error, 1)
	go func() {
		_, err := run(t, "watch", "-f", file, "--duration", "3s")
		done <- err
	}()

	client := http.Client{Timeout: time.Second}
	var body string
	require.Eventually(t, func() bool {
		resp, err := client.Get("http://" + addr + "/status?container=sidecar")
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		b, err := io.ReadAll(resp.Body)
		body = string(b)
		return err == nil && resp.StatusCode == http.StatusOK && strings.Contains(body, `"readiness":"Ready"`)
	}, 2*time.Second, 50*time.Millisecond)

	resp, err := client.Get("http://" + addr + "/metrics")
	require.NoError(t, err)
	b, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Contains(t, string(b), "probekit_containers 1")

	require.NoError(t, <-done)
}
