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

package probetest

import (
	"bufio"
	"bytes"
	"encoding/json"
	"sync"
)

// SyncLog is used to to provide a concurrency safe read/write log.
//
// Use Case: used when inspecting logs in unit tests that have multiple go routines writing to the log concurrently
type SyncLog struct {
	sync.Mutex
	buf *bytes.Buffer
}

// NewSyncLog constructs a new SyncLog
func NewSyncLog() *SyncLog {
	return &SyncLog{
		buf: new(bytes.Buffer),
	}
}

func (l *SyncLog) Write(data []byte) (int, error) {
	l.Lock()
	defer l.Unlock()
	return l.buf.Write(data)
}

func (l *SyncLog) String() string {
	l.Lock()
	defer l.Unlock()
	return l.buf.String()
}

// Events parses each JSON log line. Lines that are not valid JSON are skipped.
func (l *SyncLog) Events() []map[string]interface{} {
	l.Lock()
	data := make([]byte, l.buf.Len())
	copy(data, l.buf.Bytes())
	l.Unlock()

	var events []map[string]interface{}
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		var event map[string]interface{}
		if err := json.Unmarshal(scanner.Bytes(), &event); err == nil {
			events = append(events, event)
		}
	}
	return events
}

// EventsNamed returns the log events with the specified event name, i.e., "n" field
func (l *SyncLog) EventsNamed(name string) []map[string]interface{} {
	var events []map[string]interface{}
	for _, event := range l.Events() {
		if event["n"] == name {
			events = append(events, event)
		}
	}
	return events
}
