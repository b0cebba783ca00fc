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

import (
	"fmt"
	"math"
	"strings"
)

// ValidateSnapshot validates a Snapshot according to domain rules.
//
// Validation rules:
//   - Vectors, SourceLabels, FileIDs and Texts have identical length
//   - every vector has the same non-zero dimensionality
//   - Dimension, when set, matches that dimensionality
//
// An empty snapshot is valid.
func ValidateSnapshot(s *Snapshot) error {
	if s == nil {
		return fmt.Errorf("%w: snapshot is nil", ErrInvalidSnapshot)
	}

	n := len(s.Vectors)
	if len(s.SourceLabels) != n || len(s.FileIDs) != n || len(s.Texts) != n {
		return fmt.Errorf("%w: collection lengths differ (vectors=%d labels=%d ids=%d texts=%d)",
			ErrInvalidSnapshot, n, len(s.SourceLabels), len(s.FileIDs), len(s.Texts))
	}
	if n == 0 {
		return nil
	}

	dim := len(s.Vectors[0])
	if dim == 0 {
		return fmt.Errorf("%w: %w: zero-length vector at 0", ErrInvalidSnapshot, ErrDimensionMismatch)
	}
	for i, v := range s.Vectors {
		if len(v) != dim {
			return fmt.Errorf("%w: %w: vector %d has %d dimensions, want %d",
				ErrInvalidSnapshot, ErrDimensionMismatch, i, len(v), dim)
		}
	}
	if s.Dimension != 0 && s.Dimension != dim {
		return fmt.Errorf("%w: %w: recorded dimension %d, vectors have %d",
			ErrInvalidSnapshot, ErrDimensionMismatch, s.Dimension, dim)
	}
	return nil
}

// ValidateSourceDocument validates a SourceDocument.
//
// Validation rules:
//   - FileID must not be empty
//   - SourceLabel must not be empty
//
// Empty RawText is valid: the document still yields identity chunks.
func ValidateSourceDocument(doc *SourceDocument) error {
	if doc == nil {
		return fmt.Errorf("%w: document is nil", ErrInvalidDocument)
	}
	if strings.TrimSpace(doc.FileID) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, ErrEmptyFileID)
	}
	if strings.TrimSpace(doc.SourceLabel) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, ErrEmptySourceLabel)
	}
	return nil
}

// ValidateQuery rejects queries with blank text.
func ValidateQuery(q *Query) error {
	if q == nil {
		return fmt.Errorf("%w: query is nil", ErrInvalidQuery)
	}
	if strings.TrimSpace(q.Text) == "" {
		return fmt.Errorf("%w: query text is empty", ErrInvalidQuery)
	}
	if q.TopK < 0 || q.CandidatePool < 0 {
		return fmt.Errorf("%w: negative result count", ErrInvalidQuery)
	}
	return nil
}

// ValidateVector checks that every component is finite.
func ValidateVector(v []float32) error {
	for i, f := range v {
		if math.IsNaN(float64(f)) || math.IsInf(float64(f), 0) {
			return fmt.Errorf("%w: non-finite component at %d", ErrInvalidIndexInput, i)
		}
	}
	return nil
}
