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


// Package search answers queries against the live index.
//
// The Engine runs one query end to end:
//   - Embeds the query text with the corpus embedder
//   - Fetches a candidate pool of nearest chunks, larger than the result count
//   - Applies the exact-match and filename filters
//   - Keeps the top results in ascending distance order
//   - Marks each result accessible or not against the identity's access set
//
// Access resolution runs concurrently with embedding and vector search.
// Inaccessible results are returned, not dropped, so callers can render a
// placeholder. A failed access check is recoverable: results come back all
// marked inaccessible, with the error in SearchResponse.AccessErr.
package search
