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

package quarry

import (
	"context"
	"log/slog"

	"github.com/poiesic/quarry/ai"
	"github.com/poiesic/quarry/ai/openai"
	"github.com/poiesic/quarry/budget"
	"github.com/poiesic/quarry/core"
	"github.com/poiesic/quarry/ingestion"
	"github.com/poiesic/quarry/search"
	"github.com/poiesic/quarry/storage"
	"github.com/poiesic/quarry/storage/badger"
)

// Database wires the storage backend, the embedding provider registry, the
// router and the budget guard into one handle. It is the composition root
// callers use to build ingestion pipelines and searchers.
type Database struct {
	repos    *badger.Repositories
	registry ai.Registry
	router   *ai.Router
	guard    *budget.Guard
	logger   *slog.Logger
}

// DatabaseOption configures a Database.
type DatabaseOption func(*databaseOptions)

type databaseOptions struct {
	aiConfig     *ai.Config
	budgetConfig *budget.Config
	registry     ai.Registry
	inMemory     bool
	logger       *slog.Logger
}

// WithAIConfig overrides the embedding provider configuration.
func WithAIConfig(cfg *ai.Config) DatabaseOption {
	return func(o *databaseOptions) {
		if cfg != nil {
			o.aiConfig = cfg
		}
	}
}

// WithBudgetConfig overrides the budget guard configuration.
func WithBudgetConfig(cfg *budget.Config) DatabaseOption {
	return func(o *databaseOptions) {
		if cfg != nil {
			o.budgetConfig = cfg
		}
	}
}

// WithRegistry injects a prebuilt provider registry instead of constructing
// the OpenAI-compatible clients from the AI config. Used in tests and by
// embedders with custom transports.
func WithRegistry(registry ai.Registry) DatabaseOption {
	return func(o *databaseOptions) { o.registry = registry }
}

// WithInMemory opens an in-memory store instead of the on-disk one.
func WithInMemory() DatabaseOption {
	return func(o *databaseOptions) { o.inMemory = true }
}

// WithDatabaseLogger sets a custom logger. Default is slog.Default().
func WithDatabaseLogger(logger *slog.Logger) DatabaseOption {
	return func(o *databaseOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// NewDatabase opens the store at filePath and wires the full engine:
// repositories, provider registry, budget guard and router. Callers must
// Close the returned handle.
func NewDatabase(filePath string, opts ...DatabaseOption) (*Database, error) {
	options := &databaseOptions{
		aiConfig: ai.DefaultConfig(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(options)
	}

	var repos *badger.Repositories
	var err error
	if options.inMemory {
		repos, err = badger.NewMemoryRepositories()
	} else {
		repos, err = badger.NewRepositories(filePath)
	}
	if err != nil {
		return nil, err
	}

	registry := options.registry
	if registry == nil {
		registry, err = openai.NewRegistry(options.aiConfig)
		if err != nil {
			repos.Close()
			return nil, err
		}
	}

	guardOpts := []budget.GuardOption{budget.WithLogger(options.logger)}
	if options.budgetConfig != nil {
		guardOpts = append(guardOpts, budget.WithConfig(options.budgetConfig))
	}
	guard, err := budget.NewGuard(repos.Usage, repos.Alerts, guardOpts...)
	if err != nil {
		registry.Close()
		repos.Close()
		return nil, err
	}

	router, err := ai.NewRouter(registry, guard, ai.WithRouterLogger(options.logger))
	if err != nil {
		guard.Close()
		registry.Close()
		repos.Close()
		return nil, err
	}

	return &Database{
		repos:    repos,
		registry: registry,
		router:   router,
		guard:    guard,
		logger:   options.logger,
	}, nil
}

// Close flushes the budget guard and releases providers and storage.
func (db *Database) Close() error {
	var firstErr error
	if err := db.guard.Close(); err != nil {
		db.logger.Error("error closing budget guard", "err", err)
		firstErr = err
	}
	if err := db.registry.Close(); err != nil {
		db.logger.Error("error closing provider registry", "err", err)
		if firstErr == nil {
			firstErr = err
		}
	}
	if err := db.repos.Close(); err != nil {
		db.logger.Error("error closing storage", "err", err)
		if firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// CollectionRepository exposes collection storage.
func (db *Database) CollectionRepository() storage.CollectionRepository {
	return db.repos.Collections
}

// DocumentRepository exposes document storage.
func (db *Database) DocumentRepository() storage.DocumentRepository {
	return db.repos.Documents
}

// ChunkRepository exposes chunk storage.
func (db *Database) ChunkRepository() storage.ChunkRepository {
	return db.repos.Chunks
}

// Guard exposes the budget guard for dashboards and usage recording.
func (db *Database) Guard() *budget.Guard {
	return db.guard
}

// Router exposes the embedding router.
func (db *Database) Router() *ai.Router {
	return db.router
}

// NewIngestionPipeline builds an ingestion pipeline over this database.
func (db *Database) NewIngestionPipeline(opts ...ingestion.Option) (*ingestion.Pipeline, error) {
	return ingestion.NewPipeline(db.repos.Collections, db.repos.Documents, db.repos.Chunks, db.router, db.guard, opts...)
}

// NewSearcher builds a searcher over this database.
func (db *Database) NewSearcher(opts ...search.Option) (*search.Searcher, error) {
	return search.NewSearcher(db.repos.Collections, db.repos.Documents, db.repos.Chunks, db.router, opts...)
}

// CreateCollection registers a new collection namespace.
func (db *Database) CreateCollection(ctx context.Context, name, description string, personal bool) (*core.Collection, error) {
	return db.repos.Collections.AddCollection(ctx, &core.Collection{
		Name:        name,
		Description: description,
		Personal:    personal,
	})
}

// AddDocument registers a pending document in a collection. The document
// becomes searchable once an ingestion pipeline processes its text.
func (db *Database) AddDocument(ctx context.Context, collectionID core.ID, title, contentType string, metadata map[string]string) (*core.Document, error) {
	docs, err := db.repos.Documents.AddDocuments(ctx, &core.Document{
		CollectionId: collectionID,
		Title:        title,
		ContentType:  contentType,
		Status:       core.StatusPending,
		Metadata:     metadata,
	})
	if err != nil {
		return nil, err
	}
	return docs[0], nil
}

// DeleteCollection removes a collection, cascading to its documents and
// chunks.
func (db *Database) DeleteCollection(ctx context.Context, id core.ID) error {
	return db.repos.Collections.DeleteCollection(ctx, id)
}

// BudgetSummary returns the spend view for a budget period.
func (db *Database) BudgetSummary(ctx context.Context, period string) (*budget.Summary, error) {
	return db.guard.Summary(ctx, period)
}

// RecentAlerts returns the most recent budget alerts, newest first.
func (db *Database) RecentAlerts(ctx context.Context, limit int) ([]*core.BudgetAlert, error) {
	return db.guard.RecentAlerts(ctx, limit)
}
