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

package eventlog

import (
	"github.com/rs/zerolog"
)

// Event is used as an event type ID.
// It must be globally unique - ULIDs are recommended.
type Event string

func (e Event) String() string {
	return string(e)
}

// Logger is a function used to log events.
type Logger func(eventData zerolog.LogObjectMarshaler, msg string, tags ...string)

// ErrorLogger is a function used to log error events
type ErrorLogger func(eventData zerolog.LogObjectMarshaler, err error, msg string, tags ...string)

// NewLogger creates a new function used to log events using a standardized structure.
//
// Example probe transition event
//	{
//	  "l": "info", --------------------------------------- event level
//	  "c": "scheduler", ================================== component
//	  "n": "01HCEHA2G0M9S346Q3D25VT4F5", ----------------- event type ID
//	  "d": { --------------------------------------------- event data (optional)
//		"container": "web-7d9f", ------------------------- event data
//		"probe": "readiness", ---------------------------- event data
//		"transition": "BecameUnhealthy" ------------------ event data
//	  },
//	  "g": ["tag-a","tag-b"], ---------------------------- event tags (optional)
//	  "z": "01HCEHC83796Q14DR9GPQY77ZX", ================= event instance ULID
//	  "t": 1697000000, =================================== event timestamp in Unix time
//	  "m": "probe transition" ---------------------------- event short description
//	}
//
//  where
//      ==== means the field was populated by the application logger
//      ---- means the field was populated by the event logger
func (e Event) NewLogger(logger *zerolog.Logger, level zerolog.Level) Logger {
	eventLogger := ForEvent(logger, e.String())
	return func(eventData zerolog.LogObjectMarshaler, msg string, tags ...string) {
		event := eventLogger.WithLevel(level)
		if event == nil {
			// level is disabled
			return
		}
		logEvent(event, eventData, msg, tags)
	}
}

// NewErrorLogger creates a new function used to log errors with contextual data. It uses the same structure as `Logger`
// except that the level is automatically set to `error` and the error is set on the log event.
func (e Event) NewErrorLogger(logger *zerolog.Logger) ErrorLogger {
	eventLogger := ForEvent(logger, e.String())
	return func(eventData zerolog.LogObjectMarshaler, err error, msg string, tags ...string) {
		logEvent(eventLogger.Error().Stack().Err(err), eventData, msg, tags)
	}
}

func logEvent(event *zerolog.Event, eventData zerolog.LogObjectMarshaler, msg string, tags []string) {
	if eventData != nil {
		event.Object(Data, eventData)
	}
	if len(tags) > 0 {
		event.Strs(Tags, tags)
	}
	event.Msg(msg)
}
