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


// Package committee wires the faculty index, the AI provider and the matching
// pipeline together.
//
// Database is the composition root used by the command line tool:
//
//	db, err := committee.NewDatabase("./faculty.db", committee.WithAIConfig(cfg))
//	if err != nil {
//		return err
//	}
//	defer db.Close()
//
//	pipeline, err := db.NewPipeline(ctx)
package committee

import (
	"context"
	"io"
	"log/slog"

	"github.com/poiesic/committee/ai"
	"github.com/poiesic/committee/ai/openai"
	"github.com/poiesic/committee/ingestion"
	"github.com/poiesic/committee/match"
	"github.com/poiesic/committee/reembed"
	"github.com/poiesic/committee/search"
	"github.com/poiesic/committee/storage"
	"github.com/poiesic/committee/storage/badger"
)

// Database owns the faculty index and the AI provider.
type Database struct {
	store    storage.Store
	provider ai.AIProvider
	aiConfig *ai.Config
	logger   *slog.Logger

	// base is handed to the components, which add their own component attribute.
	base *slog.Logger
}

// DatabaseOption configures a Database.
type DatabaseOption func(*databaseOptions)

type databaseOptions struct {
	aiConfig *ai.Config
	provider ai.AIProvider
	inMemory bool
	logger   *slog.Logger
}

// WithAIConfig sets the provider configuration. Default is ai.DefaultConfig().
func WithAIConfig(cfg *ai.Config) DatabaseOption {
	return func(o *databaseOptions) {
		o.aiConfig = cfg
	}
}

// WithProvider replaces the OpenAI-compatible provider built from the AI
// configuration. The provider is still wrapped with timeouts, retries and
// rate limiting.
func WithProvider(provider ai.AIProvider) DatabaseOption {
	return func(o *databaseOptions) {
		o.provider = provider
	}
}

// WithInMemory keeps the index in memory; the path is ignored.
func WithInMemory() DatabaseOption {
	return func(o *databaseOptions) {
		o.inMemory = true
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) DatabaseOption {
	return func(o *databaseOptions) {
		o.logger = logger
	}
}

// NewDatabase opens the index at filePath and builds the AI provider.
func NewDatabase(filePath string, opts ...DatabaseOption) (*Database, error) {
	options := &databaseOptions{
		aiConfig: ai.DefaultConfig(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(options)
	}
	if options.aiConfig == nil {
		options.aiConfig = ai.DefaultConfig()
	}
	if options.logger == nil {
		options.logger = slog.Default()
	}

	var (
		store storage.Store
		err   error
	)
	if options.inMemory {
		store, err = badger.NewMemoryRepository()
	} else {
		store, err = badger.NewRepository(filePath)
	}
	if err != nil {
		return nil, err
	}

	inner := options.provider
	if inner == nil {
		inner, err = openai.NewProvider(options.aiConfig)
		if err != nil {
			store.Close()
			return nil, err
		}
	}

	return &Database{
		store:    store,
		provider: ai.NewResilientProvider(inner, options.aiConfig),
		aiConfig: options.aiConfig,
		logger:   options.logger.With("component", "database"),
		base:     options.logger,
	}, nil
}

// Close releases the provider and the index.
func (db *Database) Close() error {
	if err := db.provider.Close(); err != nil {
		db.logger.Error("error closing AI provider", "err", err)
	}
	if err := db.store.Close(); err != nil {
		db.logger.Error("error closing faculty index", "err", err)
		return err
	}
	return nil
}

// Store returns the faculty index.
func (db *Database) Store() storage.Store {
	return db.store
}

// Provider returns the guarded AI provider.
func (db *Database) Provider() ai.AIProvider {
	return db.provider
}

// EmbeddingModel returns the configured embedding model name.
func (db *Database) EmbeddingModel() string {
	return db.aiConfig.EmbeddingModel
}

// CheckModel fails with storage.ErrModelMismatch when the index was built
// with a different embedding model than the one configured.
func (db *Database) CheckModel(ctx context.Context) error {
	manifest, err := db.store.LoadManifest(ctx)
	if err != nil {
		return err
	}
	return storage.CheckModel(manifest, db.aiConfig.EmbeddingModel)
}

// NewSearchIndex returns the similarity search service over the index.
func (db *Database) NewSearchIndex(ctx context.Context, opts ...search.IndexOption) (*search.VectorIndex, error) {
	if err := db.CheckModel(ctx); err != nil {
		return nil, err
	}
	opts = append([]search.IndexOption{search.WithIndexLogger(db.base)}, opts...)
	return search.NewVectorIndex(db.store, db.provider.Embedder(), opts...)
}

// NewRetriever returns a candidate retriever over the index.
func (db *Database) NewRetriever(ctx context.Context) (*search.Retriever, error) {
	index, err := db.NewSearchIndex(ctx)
	if err != nil {
		return nil, err
	}
	return search.NewRetriever(index, search.WithLogger(db.base))
}

// NewPipeline returns a matching pipeline over the index.
// Call Release on the pipeline when done.
func (db *Database) NewPipeline(ctx context.Context, opts ...match.Option) (*match.Pipeline, error) {
	retriever, err := db.NewRetriever(ctx)
	if err != nil {
		return nil, err
	}
	opts = append([]match.Option{match.WithLogger(db.base)}, opts...)
	return match.NewPipeline(retriever, db.provider.Generator(), opts...)
}

// NewIngestionPipeline returns a pipeline that embeds profiles into the index
// and records the configured embedding model in the manifest.
func (db *Database) NewIngestionPipeline(opts ...ingestion.Option) (*ingestion.Pipeline, error) {
	opts = append([]ingestion.Option{
		ingestion.WithEmbeddingModel(db.aiConfig.EmbeddingModel),
		ingestion.WithLogger(db.base),
	}, opts...)
	return ingestion.NewPipeline(db.store, db.provider.Embedder(), opts...)
}

// NewReembedder returns a reembedder that moves the index to the configured
// embedding model.
func (db *Database) NewReembedder(config *reembed.Config, progress io.Writer) (*reembed.Reembedder, error) {
	return reembed.NewReembedder(db.store, db.provider.Embedder(), db.aiConfig.EmbeddingModel, config, progress)
}
