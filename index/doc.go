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


// Package index provides an exact nearest-neighbor index over chunk vectors.
//
// An Index is built once from the full vector matrix and is read-only
// afterwards, so any number of goroutines may search it concurrently. There
// is no insertion or deletion: a refresh builds a new Index and publishes it
// through a Holder, which swaps the live index atomically. Readers observe
// either the old or the new index, never a partially built one.
//
// Distances are squared Euclidean. Results are ordered ascending by distance
// with ties broken by insertion position.
package index
