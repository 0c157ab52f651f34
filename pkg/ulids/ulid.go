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

// Package ulids provides ULID generators used to identify log events and event types.
package ulids

import (
	"crypto/rand"
	"github.com/oklog/ulid"
	"github.com/pkg/errors"
	"sync"
)

// ErrZero is returned by Parse when the ULID is the zero value
var ErrZero = errors.New("ULID must not be zero")

// MonotonicGenerator returns a function that generates ULID(s) in strictly increasing order.
//   - is safe for concurrent use.
//   - panics if a ULID fails to be generated
//
// Event log ULIDs use a monotonic generator, i.e., events logged within the same millisecond still sort in the order they
// were logged.
func MonotonicGenerator() func() ulid.ULID {
	var m sync.Mutex
	entropy := ulid.Monotonic(rand.Reader, 0)

	return func() (uid ulid.ULID) {
		m.Lock()
		uid = ulid.MustNew(ulid.Now(), entropy)
		m.Unlock()
		return
	}
}

// MustNew generates a new crypto/rand based ULID.
//   - panics if a ULID fails to be generated
func MustNew() ulid.ULID {
	return ulid.MustNew(ulid.Now(), rand.Reader)
}

// Parse tries to parse the id into a non-zero ULID.
func Parse(id string) (ulid.ULID, error) {
	uid, err := ulid.Parse(id)
	if err != nil {
		return uid, errors.Wrapf(err, "invalid ULID: %q", id)
	}
	if IsZero(uid) {
		return uid, ErrZero
	}
	return uid, nil
}

// MustParse parses the id and panics if it is not a valid non-zero ULID.
//
// Use Case: event type IDs are declared as constants and validated on package init.
func MustParse(id string) ulid.ULID {
	uid, err := Parse(id)
	if err != nil {
		panic(err)
	}
	return uid
}

// IsZero returns true if the id is a zero value
func IsZero(id ulid.ULID) bool {
	return ulid.ULID{} == id
}
