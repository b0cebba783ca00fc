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


package access

import "errors"

var (
	// ErrProviderRequired is returned when a permission provider is not provided.
	ErrProviderRequired = errors.New("access provider required")

	// ErrPaginationLoop is returned when a provider repeats a continuation token.
	ErrPaginationLoop = errors.New("provider repeated a page token")
)
