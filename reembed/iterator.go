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


package reembed

import (
	"context"

	"github.com/poiesic/committee/core"
	"github.com/poiesic/committee/storage"
)

const (
	// DefaultBatchSize is the default number of entries handled per batch.
	DefaultBatchSize = 100
)

// EntryIterator walks every index entry in batches, ordered by ID.
type EntryIterator struct {
	repo      storage.FacultyRepository
	batchSize int
}

// NewEntryIterator creates a new entry iterator.
// A batchSize below 1 falls back to DefaultBatchSize.
func NewEntryIterator(repo storage.FacultyRepository, batchSize int) *EntryIterator {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &EntryIterator{repo: repo, batchSize: batchSize}
}

// ForEach calls fn once per batch. Iteration stops at the first error from fn.
// Context cancellation is checked between batches.
func (it *EntryIterator) ForEach(ctx context.Context, fn func([]*core.IndexEntry) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	entries, err := it.repo.GetAllEntries(ctx)
	if err != nil {
		return err
	}

	for i := 0; i < len(entries); i += it.batchSize {
		if err := fn(entries[i:min(i+it.batchSize, len(entries))]); err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
	}
	return nil
}
