// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package badger

import (
	"encoding/binary"

	"github.com/poiesic/committee/core"
)

const (
	facultyRecordPrefix = "facrec"
	facultyNamePrefix   = "facname"
	manifestKey         = "manifest"
)

// makeFacultyKey generates a key for a faculty entry by ID.
// Format: prefix:id with the ID big-endian so keys sort by ID.
func makeFacultyKey(id core.ID) []byte {
	prefix := facultyRecordPrefix + ":"
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

// makeFacultyNameKey generates a key for the exact-name index.
// Format: prefix:name
func makeFacultyNameKey(name string) []byte {
	return []byte(facultyNamePrefix + ":" + name)
}
