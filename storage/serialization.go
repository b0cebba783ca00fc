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
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
)

const float32Size = 4

// Entry is one snapshot row: a chunk and its vector.
type Entry struct {
	SourceLabel string
	FileID      string
	Text        string
	Vector      []float32
}

// Manifest describes one stored snapshot generation.
type Manifest struct {
	Generation uint64
	Count      int
	Dimension  int
	Model      string
	BuiltAt    time.Time // stored with microsecond precision
	Checksum   uint64    // BLAKE2b-64 over the encoded entries in order
}

// MarshalEntry serializes an Entry to bytes.
func MarshalEntry(e *Entry) []byte {
	size := ord.String.Size(e.SourceLabel) +
		ord.String.Size(e.FileID) +
		ord.String.Size(e.Text) +
		varint.Int.Size(len(e.Vector)) +
		len(e.Vector)*float32Size

	buf := make([]byte, size)
	n := ord.String.Marshal(e.SourceLabel, buf)
	n += ord.String.Marshal(e.FileID, buf[n:])
	n += ord.String.Marshal(e.Text, buf[n:])
	n += varint.Int.Marshal(len(e.Vector), buf[n:])
	for _, f := range e.Vector {
		n += raw.Float32.Marshal(f, buf[n:])
	}
	return buf[:n]
}

// UnmarshalEntry deserializes an Entry from bytes.
func UnmarshalEntry(data []byte) (*Entry, error) {
	var (
		e   Entry
		n   int
		m   int
		err error
	)

	if e.SourceLabel, m, err = ord.String.Unmarshal(data); err != nil {
		return nil, fmt.Errorf("%w: source label: %w", ErrSerializationFailed, err)
	}
	n += m
	if e.FileID, m, err = ord.String.Unmarshal(data[n:]); err != nil {
		return nil, fmt.Errorf("%w: file id: %w", ErrSerializationFailed, err)
	}
	n += m
	if e.Text, m, err = ord.String.Unmarshal(data[n:]); err != nil {
		return nil, fmt.Errorf("%w: text: %w", ErrSerializationFailed, err)
	}
	n += m

	count, m, err := varint.Int.Unmarshal(data[n:])
	if err != nil {
		return nil, fmt.Errorf("%w: vector length: %w", ErrSerializationFailed, err)
	}
	n += m
	if count < 0 || count > (len(data)-n)/float32Size {
		return nil, fmt.Errorf("%w: vector of %d values in %d bytes", ErrTruncatedData, count, len(data)-n)
	}

	e.Vector = make([]float32, count)
	for i := range e.Vector {
		if e.Vector[i], m, err = raw.Float32.Unmarshal(data[n:]); err != nil {
			return nil, fmt.Errorf("%w: vector value %d: %w", ErrSerializationFailed, i, err)
		}
		n += m
	}

	if n != len(data) {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrSerializationFailed, len(data)-n)
	}
	return &e, nil
}

// MarshalManifest serializes a Manifest to bytes.
func MarshalManifest(m *Manifest) []byte {
	builtAt := m.BuiltAt.UnixMicro()
	size := varint.Uint64.Size(m.Generation) +
		varint.Int.Size(m.Count) +
		varint.Int.Size(m.Dimension) +
		ord.String.Size(m.Model) +
		varint.Int64.Size(builtAt) +
		varint.Uint64.Size(m.Checksum)

	buf := make([]byte, size)
	n := varint.Uint64.Marshal(m.Generation, buf)
	n += varint.Int.Marshal(m.Count, buf[n:])
	n += varint.Int.Marshal(m.Dimension, buf[n:])
	n += ord.String.Marshal(m.Model, buf[n:])
	n += varint.Int64.Marshal(builtAt, buf[n:])
	n += varint.Uint64.Marshal(m.Checksum, buf[n:])
	return buf[:n]
}

// UnmarshalManifest deserializes a Manifest from bytes.
func UnmarshalManifest(data []byte) (*Manifest, error) {
	var (
		m   Manifest
		n   int
		k   int
		err error
	)

	if m.Generation, k, err = varint.Uint64.Unmarshal(data); err != nil {
		return nil, fmt.Errorf("%w: generation: %w", ErrSerializationFailed, err)
	}
	n += k
	if m.Count, k, err = varint.Int.Unmarshal(data[n:]); err != nil {
		return nil, fmt.Errorf("%w: count: %w", ErrSerializationFailed, err)
	}
	n += k
	if m.Dimension, k, err = varint.Int.Unmarshal(data[n:]); err != nil {
		return nil, fmt.Errorf("%w: dimension: %w", ErrSerializationFailed, err)
	}
	n += k
	if m.Model, k, err = ord.String.Unmarshal(data[n:]); err != nil {
		return nil, fmt.Errorf("%w: model: %w", ErrSerializationFailed, err)
	}
	n += k

	builtAt, k, err := varint.Int64.Unmarshal(data[n:])
	if err != nil {
		return nil, fmt.Errorf("%w: built at: %w", ErrSerializationFailed, err)
	}
	n += k
	m.BuiltAt = time.UnixMicro(builtAt).UTC()

	if m.Checksum, k, err = varint.Uint64.Unmarshal(data[n:]); err != nil {
		return nil, fmt.Errorf("%w: checksum: %w", ErrSerializationFailed, err)
	}
	n += k

	if n != len(data) {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrSerializationFailed, len(data)-n)
	}
	if m.Count < 0 || m.Dimension < 0 {
		return nil, fmt.Errorf("%w: negative count or dimension", ErrSerializationFailed)
	}
	return &m, nil
}
