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

// Package storage provides the storage abstraction layer for quarry.
//
// This package defines repository interfaces that decouple storage
// implementation from business logic, so different backends (BadgerDB,
// in-memory, etc.) can be used interchangeably.
//
// # Architecture
//
// The storage layer follows the Repository pattern, split per aggregate:
//
//   - CollectionRepository: named document namespaces
//   - DocumentRepository: documents and their pipeline status
//   - ChunkRepository: chunks, including vector similarity scans
//   - UsageRepository: append-only paid API usage ledger
//   - AlertRepository: budget alerts
//
// All public constructors return interfaces to prevent coupling to backend
// specifics; internal constructors may return concrete types.
//
// # Usage
//
// Create repositories backed by one BadgerDB instance:
//
//	repos, err := badger.NewRepositories("/path/to/db")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer repos.Close()
//
// Use in tests with in-memory storage:
//
//	repos, err := badger.NewMemoryRepositories()
//
// # Thread Safety
//
// All repository implementations must be thread-safe and support concurrent
// access from multiple goroutines.
//
// # Context Support
//
// All repository methods accept context.Context for cancellation and timeout
// support.
package storage
