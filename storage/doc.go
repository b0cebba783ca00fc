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


// Package storage provides the persistence layer for corpus snapshots.
//
// A snapshot is the only durable state: the vector matrix plus the aligned
// source label, file ID and chunk text sequences. Saving replaces all four
// collections as one set; a reader sees either the previous snapshot or the
// new one, never a mix.
//
// # Constructor Return Type Pattern
//
// Public constructors return the SnapshotRepository interface:
//
//	repo, err := badger.NewRepository(path)  // returns storage.SnapshotRepository
//
// Internal package constructors may return concrete types since they're only
// used within the implementation package.
//
// # Encoding
//
// Entries and the manifest are encoded with mus-go serializers. Vectors are
// stored as raw little-endian float32 values so a round trip is bitwise.
//
// # Usage
//
//	repo, err := badger.NewRepository("/path/to/db")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer repo.Close()
//
// Use in tests with in-memory storage:
//
//	repo, err := badger.NewMemoryRepository()
//
// # Thread Safety
//
// All repository implementations must be thread-safe. Saves must not run
// concurrently with each other; the refresh pipeline serializes them.
package storage
