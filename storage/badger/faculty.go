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
	"context"
	"errors"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/committee/core"
	"github.com/poiesic/committee/storage"
)

// Repository implements storage.Store on top of a BadgerDB backend.
type Repository struct {
	backend     *Backend
	ownsBackend bool
}

var _ storage.Store = (*Repository)(nil)

// NewRepository opens (or creates) a database directory and returns a store over it.
// Closing the store closes the database.
func NewRepository(path string) (storage.Store, error) {
	backend, err := OpenBackend(path, false)
	if err != nil {
		return nil, err
	}
	return &Repository{backend: backend, ownsBackend: true}, nil
}

// NewRepositoryWithBackend creates a store over an existing backend.
// The caller remains responsible for closing the backend.
func NewRepositoryWithBackend(backend *Backend) *Repository {
	return &Repository{backend: backend}
}

// Close releases resources, closing the backend if the repository opened it.
func (r *Repository) Close() error {
	if r.ownsBackend && !r.backend.IsClosed() {
		return r.backend.Close()
	}
	return nil
}

// FindSimilar delegates to the backend.
func (r *Repository) FindSimilar(ctx context.Context, vector []float32, minSimilarity float32, limit int) ([]core.SearchHit, error) {
	return r.backend.FindSimilar(ctx, vector, minSimilarity, limit)
}

// WithTransaction delegates to the backend.
func (r *Repository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// AddEntries inserts or replaces entries.
func (r *Repository) AddEntries(ctx context.Context, entries ...*core.IndexEntry) ([]*core.IndexEntry, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		now := time.Now().UTC().Truncate(time.Microsecond)
		for _, entry := range entries {
			if entry.Id == 0 {
				entry.Id = core.IDFromContent(entry.Name)
			}
			key := makeFacultyKey(entry.Id)

			old, err := readEntry(tx, key)
			if err != nil {
				return err
			}
			if old != nil {
				entry.InsertedAt = old.InsertedAt
				if old.Name != entry.Name {
					if err := tx.Delete(makeFacultyNameKey(old.Name)); err != nil {
						return err
					}
				}
			} else if entry.InsertedAt.IsZero() {
				entry.InsertedAt = now
			}
			entry.UpdatedAt = now

			if err := tx.Set(key, storage.MarshalIndexEntry(entry)); err != nil {
				return err
			}
			if err := tx.Set(makeFacultyNameKey(entry.Name), storage.MarshalID(entry.Id)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)

	return entries, err
}

// UpdateEntries updates existing entries.
func (r *Repository) UpdateEntries(ctx context.Context, entries ...*core.IndexEntry) ([]*core.IndexEntry, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		now := time.Now().UTC().Truncate(time.Microsecond)
		for _, entry := range entries {
			key := makeFacultyKey(entry.Id)

			old, err := readEntry(tx, key)
			if err != nil {
				return err
			}
			if old == nil {
				return storage.ErrNotFound
			}

			entry.UpdatedAt = now
			if err := tx.Set(key, storage.MarshalIndexEntry(entry)); err != nil {
				return err
			}

			if old.Name != entry.Name {
				if err := tx.Delete(makeFacultyNameKey(old.Name)); err != nil {
					return err
				}
				if err := tx.Set(makeFacultyNameKey(entry.Name), storage.MarshalID(entry.Id)); err != nil {
					return err
				}
			}
		}
		return tx.Commit()
	}, true)

	return entries, err
}

// DeleteEntries removes entries by their IDs.
func (r *Repository) DeleteEntries(ctx context.Context, ids ...core.ID) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			key := makeFacultyKey(id)

			entry, err := readEntry(tx, key)
			if err != nil {
				return err
			}
			if entry == nil {
				return storage.ErrNotFound
			}

			if err := tx.Delete(makeFacultyNameKey(entry.Name)); err != nil {
				return err
			}
			if err := tx.Delete(key); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// GetEntry retrieves a single entry by ID.
func (r *Repository) GetEntry(ctx context.Context, id core.ID) (*core.IndexEntry, error) {
	var result *core.IndexEntry
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readEntry(tx, makeFacultyKey(id))
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// GetEntryByName retrieves an entry by exact faculty name.
func (r *Repository) GetEntryByName(ctx context.Context, name string) (*core.IndexEntry, error) {
	var result *core.IndexEntry
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeFacultyNameKey(name))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return storage.ErrNotFound
			}
			return err
		}

		var id core.ID
		err = item.Value(func(val []byte) error {
			id, err = storage.UnmarshalID(val)
			return err
		})
		if err != nil {
			return err
		}

		result, err = readEntry(tx, makeFacultyKey(id))
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// GetAllEntries retrieves every entry ordered by ID.
func (r *Repository) GetAllEntries(ctx context.Context) ([]*core.IndexEntry, error) {
	var results []*core.IndexEntry
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(facultyRecordPrefix + ":")
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var entry *core.IndexEntry
			err := iter.Item().Value(func(val []byte) error {
				var err error
				entry, err = storage.UnmarshalIndexEntry(val)
				return err
			})
			if err != nil {
				return err
			}
			results = append(results, entry)
		}
		return nil
	}, false)

	return results, err
}

// Count returns the number of stored entries.
func (r *Repository) Count(ctx context.Context) (int, error) {
	count := 0
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(facultyRecordPrefix + ":")
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			count++
		}
		return nil
	}, false)
	return count, err
}

// readEntry reads an entry from the transaction. Returns nil, nil when absent.
func readEntry(tx *badger.Txn, key []byte) (*core.IndexEntry, error) {
	item, err := tx.Get(key)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var entry *core.IndexEntry
	err = item.Value(func(val []byte) error {
		var err error
		entry, err = storage.UnmarshalIndexEntry(val)
		return err
	})
	return entry, err
}
