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

package search

import "errors"

var (
	// ErrCollectionRepositoryRequired is returned when a collection repository is not provided.
	ErrCollectionRepositoryRequired = errors.New("collection repository required")

	// ErrDocumentRepositoryRequired is returned when a document repository is not provided.
	ErrDocumentRepositoryRequired = errors.New("document repository required")

	// ErrChunkRepositoryRequired is returned when a chunk repository is not provided.
	ErrChunkRepositoryRequired = errors.New("chunk repository required")

	// ErrRouterRequired is returned when an embedding router is not provided.
	ErrRouterRequired = errors.New("embedding router required")

	// ErrEmptyQuery is returned for empty or whitespace-only query text.
	ErrEmptyQuery = errors.New("query is empty")

	// ErrInvalidTopK is returned for a negative topK.
	ErrInvalidTopK = errors.New("topK must be positive")

	// ErrInvalidMode is returned for a search mode other than vector or hybrid.
	ErrInvalidMode = errors.New("invalid search mode")

	// ErrInvalidWeights is returned when fusion weights are negative or sum to zero.
	ErrInvalidWeights = errors.New("invalid fusion weights")

	// ErrCollectionNotFound is returned when the requested collection does not exist.
	ErrCollectionNotFound = errors.New("collection not found")

	// ErrProviderUnavailable is returned when the query embedding could not be
	// produced, which fails the whole search.
	ErrProviderUnavailable = errors.New("embedding provider unavailable")
)
