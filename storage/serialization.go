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


package storage

import (
	"fmt"
	"math"
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"
	"github.com/poiesic/committee/core"
)

// Records are encoded field by field with mus-go. Timestamps are stored as
// Unix microseconds and vectors as a length followed by IEEE-754 bit patterns.

type idSer struct{}

func (idSer) Marshal(id core.ID, bs []byte) int {
	return varint.Uint64.Marshal(uint64(id), bs)
}

func (idSer) Unmarshal(bs []byte) (core.ID, int, error) {
	v, n, err := varint.Uint64.Unmarshal(bs)
	return core.ID(v), n, err
}

func (idSer) Size(id core.ID) int {
	return varint.Uint64.Size(uint64(id))
}

type timeSer struct{}

func (timeSer) Marshal(t time.Time, bs []byte) int {
	return varint.Int64.Marshal(t.UnixMicro(), bs)
}

func (timeSer) Unmarshal(bs []byte) (time.Time, int, error) {
	v, n, err := varint.Int64.Unmarshal(bs)
	if err != nil {
		return time.Time{}, n, err
	}
	return time.UnixMicro(v).UTC(), n, nil
}

func (timeSer) Size(t time.Time) int {
	return varint.Int64.Size(t.UnixMicro())
}

type vectorSer struct{}

func (vectorSer) Marshal(v []float32, bs []byte) int {
	n := varint.Int.Marshal(len(v), bs)
	for _, f := range v {
		n += varint.Uint32.Marshal(math.Float32bits(f), bs[n:])
	}
	return n
}

func (vectorSer) Unmarshal(bs []byte) ([]float32, int, error) {
	length, n, err := varint.Int.Unmarshal(bs)
	if err != nil {
		return nil, n, err
	}
	if length < 0 || length > len(bs)-n {
		return nil, n, ErrTruncatedData
	}
	if length == 0 {
		return nil, n, nil
	}
	v := make([]float32, length)
	for i := range v {
		bits, m, err := varint.Uint32.Unmarshal(bs[n:])
		n += m
		if err != nil {
			return nil, n, err
		}
		v[i] = math.Float32frombits(bits)
	}
	return v, n, nil
}

func (vectorSer) Size(v []float32) int {
	size := varint.Int.Size(len(v))
	for _, f := range v {
		size += varint.Uint32.Size(math.Float32bits(f))
	}
	return size
}

type indexEntrySer struct{}

func (indexEntrySer) Marshal(e core.IndexEntry, bs []byte) int {
	n := idSer{}.Marshal(e.Id, bs)
	n += ord.String.Marshal(e.Name, bs[n:])
	n += ord.String.Marshal(e.Document, bs[n:])
	n += vectorSer{}.Marshal(e.Vector, bs[n:])
	n += timeSer{}.Marshal(e.InsertedAt, bs[n:])
	n += timeSer{}.Marshal(e.UpdatedAt, bs[n:])
	return n
}

func (indexEntrySer) Unmarshal(bs []byte) (e core.IndexEntry, n int, err error) {
	var m int
	if e.Id, m, err = (idSer{}).Unmarshal(bs); err != nil {
		return
	}
	n += m
	if e.Name, m, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += m
	if e.Document, m, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += m
	if e.Vector, m, err = (vectorSer{}).Unmarshal(bs[n:]); err != nil {
		return
	}
	n += m
	if e.InsertedAt, m, err = (timeSer{}).Unmarshal(bs[n:]); err != nil {
		return
	}
	n += m
	e.UpdatedAt, m, err = timeSer{}.Unmarshal(bs[n:])
	n += m
	return
}

func (indexEntrySer) Size(e core.IndexEntry) int {
	return idSer{}.Size(e.Id) +
		ord.String.Size(e.Name) +
		ord.String.Size(e.Document) +
		vectorSer{}.Size(e.Vector) +
		timeSer{}.Size(e.InsertedAt) +
		timeSer{}.Size(e.UpdatedAt)
}

type manifestSer struct{}

func (manifestSer) Marshal(m core.Manifest, bs []byte) int {
	n := ord.String.Marshal(m.EmbeddingModel, bs)
	n += varint.Int.Marshal(m.Dimensions, bs[n:])
	n += varint.Int.Marshal(m.Entries, bs[n:])
	n += timeSer{}.Marshal(m.UpdatedAt, bs[n:])
	n += ord.String.Marshal(m.PendingModel, bs[n:])
	return n
}

func (manifestSer) Unmarshal(bs []byte) (m core.Manifest, n int, err error) {
	var k int
	if m.EmbeddingModel, k, err = ord.String.Unmarshal(bs); err != nil {
		return
	}
	n += k
	if m.Dimensions, k, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += k
	if m.Entries, k, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += k
	if m.UpdatedAt, k, err = (timeSer{}).Unmarshal(bs[n:]); err != nil {
		return
	}
	n += k
	// manifests written before PendingModel existed end here
	if n == len(bs) {
		return
	}
	m.PendingModel, k, err = ord.String.Unmarshal(bs[n:])
	n += k
	return
}

func (manifestSer) Size(m core.Manifest) int {
	return ord.String.Size(m.EmbeddingModel) +
		varint.Int.Size(m.Dimensions) +
		varint.Int.Size(m.Entries) +
		timeSer{}.Size(m.UpdatedAt) +
		ord.String.Size(m.PendingModel)
}

// MarshalID serializes an ID to bytes.
func MarshalID(id core.ID) []byte {
	buf := make([]byte, idSer{}.Size(id))
	idSer{}.Marshal(id, buf)
	return buf
}

// UnmarshalID deserializes an ID from bytes.
func UnmarshalID(data []byte) (core.ID, error) {
	id, _, err := idSer{}.Unmarshal(data)
	if err != nil {
		return 0, fmt.Errorf("%w: id: %w", ErrSerializationFailed, err)
	}
	return id, nil
}

// MarshalIndexEntry serializes an IndexEntry to bytes.
func MarshalIndexEntry(entry *core.IndexEntry) []byte {
	buf := make([]byte, indexEntrySer{}.Size(*entry))
	indexEntrySer{}.Marshal(*entry, buf)
	return buf
}

// UnmarshalIndexEntry deserializes an IndexEntry from bytes.
func UnmarshalIndexEntry(data []byte) (*core.IndexEntry, error) {
	entry, _, err := indexEntrySer{}.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: index entry: %w", ErrSerializationFailed, err)
	}
	return &entry, nil
}

// MarshalManifest serializes a Manifest to bytes.
func MarshalManifest(manifest *core.Manifest) []byte {
	buf := make([]byte, manifestSer{}.Size(*manifest))
	manifestSer{}.Marshal(*manifest, buf)
	return buf
}

// UnmarshalManifest deserializes a Manifest from bytes.
func UnmarshalManifest(data []byte) (*core.Manifest, error) {
	manifest, _, err := manifestSer{}.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: manifest: %w", ErrSerializationFailed, err)
	}
	return &manifest, nil
}
