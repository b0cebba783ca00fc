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


package core

import "errors"

// Error taxonomy shared by every component.
var (
	// ErrInvalidIndexInput indicates malformed index build data. A refresh
	// that hits it aborts and the previous index stays live.
	ErrInvalidIndexInput = errors.New("invalid index input")

	// ErrInvalidQuery indicates an empty or malformed query.
	ErrInvalidQuery = errors.New("invalid query")

	// ErrAccessCheckFailed indicates the permission provider could not be
	// queried. Recoverable: results are still shown, all inaccessible.
	ErrAccessCheckFailed = errors.New("access check failed")

	// ErrAccessCheckTimeout indicates the permission provider did not answer
	// in time. Recoverable like ErrAccessCheckFailed.
	ErrAccessCheckTimeout = errors.New("access check timed out")

	// ErrEmbeddingUnavailable indicates the embedding model could not be
	// initialized. Fatal for the search subsystem.
	ErrEmbeddingUnavailable = errors.New("embedding unavailable")

	// ErrIndexNotLoaded indicates no corpus has been built or loaded yet.
	ErrIndexNotLoaded = errors.New("index not loaded")

	// ErrModelMismatch indicates a stored snapshot was embedded with a
	// different model than the one configured.
	ErrModelMismatch = errors.New("embedding model mismatch")

	// ErrDimensionMismatch indicates vectors of differing dimensionality.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")

	// ErrInvalidIdentity indicates an empty or malformed reader identity.
	ErrInvalidIdentity = errors.New("invalid identity")

	// ErrInvalidSnapshot indicates the four snapshot collections are misaligned.
	ErrInvalidSnapshot = errors.New("invalid snapshot")

	// ErrInvalidDocument indicates a source document failed validation.
	ErrInvalidDocument = errors.New("invalid source document")

	// ErrEmptyFileID indicates the FileID field is empty.
	ErrEmptyFileID = errors.New("file id cannot be empty")

	// ErrEmptySourceLabel indicates the SourceLabel field is empty.
	ErrEmptySourceLabel = errors.New("source label cannot be empty")
)
