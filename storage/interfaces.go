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


package storage

import (
	"context"
	"fmt"

	"github.com/poiesic/committee/core"
)

// Repository defines the operations shared by every storage backend.
type Repository interface {
	// FindSimilar finds corpus entries similar to the given vector.
	// Returns hits with similarity >= minSimilarity, up to limit results.
	// Results are ordered by similarity score (highest first).
	FindSimilar(ctx context.Context, vector []float32, minSimilarity float32, limit int) ([]core.SearchHit, error)

	// WithTransaction executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error

	// Close closes the storage backend and releases resources.
	Close() error
}

// FacultyRepository stores the embedded faculty corpus.
type FacultyRepository interface {
	Repository

	// AddEntries inserts or replaces entries. Entries with ID=0 get a
	// content-based ID derived from their name, so re-ingesting a profile
	// replaces the previous entry. InsertedAt is preserved across replacements.
	// Returns the entries with IDs and timestamps populated.
	AddEntries(ctx context.Context, entries ...*core.IndexEntry) ([]*core.IndexEntry, error)

	// UpdateEntries updates existing entries.
	// Updates the UpdatedAt timestamp automatically.
	// Returns ErrNotFound if any entry doesn't exist.
	UpdateEntries(ctx context.Context, entries ...*core.IndexEntry) ([]*core.IndexEntry, error)

	// DeleteEntries removes entries by their IDs together with their name index.
	// Returns ErrNotFound if any entry doesn't exist.
	DeleteEntries(ctx context.Context, ids ...core.ID) error

	// GetEntry retrieves a single entry by ID.
	// Returns ErrNotFound if the entry doesn't exist.
	GetEntry(ctx context.Context, id core.ID) (*core.IndexEntry, error)

	// GetEntryByName retrieves an entry by exact faculty name.
	// Returns ErrNotFound if no entry has that name.
	GetEntryByName(ctx context.Context, name string) (*core.IndexEntry, error)

	// GetAllEntries retrieves every entry ordered by ID.
	GetAllEntries(ctx context.Context) ([]*core.IndexEntry, error)

	// Count returns the number of stored entries.
	Count(ctx context.Context) (int, error)
}

// ManifestRepository persists the description of how the index was built.
type ManifestRepository interface {
	// SaveManifest stores the manifest, replacing any previous one.
	// UpdatedAt is set automatically.
	SaveManifest(ctx context.Context, manifest *core.Manifest) error

	// LoadManifest returns the stored manifest, or nil, nil if none exists.
	LoadManifest(ctx context.Context) (*core.Manifest, error)
}

// Store combines corpus and manifest storage over a single backend.
type Store interface {
	FacultyRepository
	ManifestRepository
}

// CheckModel returns ErrModelMismatch when manifest records an embedding model
// different from model, and ErrReembedIncomplete while a re-embedding run is
// unfinished. A nil manifest (empty index) always passes.
func CheckModel(manifest *core.Manifest, model string) error {
	if manifest != nil && manifest.PendingModel != "" {
		return fmt.Errorf("%w: index is partly embedded with %s (rerun reembed with %s)",
			ErrReembedIncomplete, manifest.PendingModel, manifest.PendingModel)
	}
	if manifest == nil || manifest.EmbeddingModel == "" || manifest.EmbeddingModel == model {
		return nil
	}
	return &ModelMismatchError{Indexed: manifest.EmbeddingModel, Configured: model}
}

// ModelMismatchError reports the two embedding models involved in a mismatch.
type ModelMismatchError struct {
	Indexed    string
	Configured string
}

func (e *ModelMismatchError) Error() string {
	return "index built with embedding model " + e.Indexed + ", configured model is " + e.Configured + " (run reembed)"
}

func (e *ModelMismatchError) Unwrap() error {
	return ErrModelMismatch
}
