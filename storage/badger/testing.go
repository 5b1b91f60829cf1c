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

package badger

import (
	"errors"

	"github.com/poiesic/quarry/storage"
)

// Repositories bundles all repositories backed by one BadgerDB instance.
type Repositories struct {
	Collections storage.CollectionRepository
	Documents   storage.DocumentRepository
	Chunks      storage.ChunkRepository
	Usage       storage.UsageRepository
	Alerts      storage.AlertRepository

	backend *Backend
}

// Backend exposes the shared backend for callers that need raw access.
func (r *Repositories) Backend() *Backend {
	return r.backend
}

// Close closes every repository and the shared backend.
func (r *Repositories) Close() error {
	errs := []error{
		r.Collections.Close(),
		r.Documents.Close(),
		r.Chunks.Close(),
		r.Usage.Close(),
		r.Alerts.Close(),
		r.backend.Close(),
	}
	return errors.Join(errs...)
}

// NewRepositories opens a BadgerDB database at path and builds all
// repositories over it. Caller must Close when done.
func NewRepositories(path string) (*Repositories, error) {
	return newRepositories(path, false)
}

// NewMemoryRepositories creates in-memory repositories for testing.
// Caller must Close when done.
func NewMemoryRepositories() (*Repositories, error) {
	return newRepositories("", true)
}

func newRepositories(path string, inMemory bool) (*Repositories, error) {
	backend, err := OpenBackend(path, inMemory)
	if err != nil {
		return nil, err
	}

	collections, err := NewCollectionRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}
	documents, err := NewDocumentRepository(backend)
	if err != nil {
		collections.Close()
		backend.Close()
		return nil, err
	}
	chunks, err := NewChunkRepository(backend)
	if err != nil {
		documents.Close()
		collections.Close()
		backend.Close()
		return nil, err
	}
	usage, err := NewUsageRepository(backend)
	if err != nil {
		chunks.Close()
		documents.Close()
		collections.Close()
		backend.Close()
		return nil, err
	}
	alerts, err := NewAlertRepository(backend)
	if err != nil {
		usage.Close()
		chunks.Close()
		documents.Close()
		collections.Close()
		backend.Close()
		return nil, err
	}

	return &Repositories{
		Collections: collections,
		Documents:   documents,
		Chunks:      chunks,
		Usage:       usage,
		Alerts:      alerts,
		backend:     backend,
	}, nil
}
