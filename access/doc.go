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


// Package access resolves which documents an identity may read.
//
// Permissions are fetched from the storage provider on every query and never
// cached, so a revoked grant disappears on the next search. Retrieval always
// runs unfiltered; the access set is intersected with the ranked results
// afterwards and inaccessible results are marked rather than dropped.
//
// A Provider answers one page of the permission listing at a time. Pages
// turns that into a lazy, finite sequence of file-id batches that ends when
// the provider returns no continuation token. Filter drains the sequence
// under a timeout and reports provider failures as recoverable errors with
// an empty access set.
package access
