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
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/poiesic/committee/ai"
	"github.com/poiesic/committee/core"
	"github.com/poiesic/committee/storage"
)

// Config holds configuration for the reembedding operation.
type Config struct {
	// BatchSize is the number of entries embedded per request
	BatchSize int

	// ReportInterval is how often to report progress (number of entries)
	ReportInterval int

	// MaxRetries is the maximum number of attempts for each embedding call
	MaxRetries int

	// RetryDelay is the base delay for exponential backoff
	RetryDelay time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		BatchSize:      DefaultBatchSize,
		ReportInterval: 100,
		MaxRetries:     3,
		RetryDelay:     1 * time.Second,
	}
}

// Summary describes a finished run.
type Summary struct {
	Entries    int
	Dimensions int
	Model      string
	Elapsed    time.Duration
}

// Reembedder re-embeds every faculty entry with a new embedding model.
type Reembedder struct {
	store     storage.Store
	model     string
	config    *Config
	progress  io.Writer
	processor *BatchProcessor
	iterator  *EntryIterator
	logger    *slog.Logger
}

// NewReembedder creates a new reembedder. model names the embedding model
// behind embedder and is recorded in the manifest once the run completes.
// progress receives human-readable progress output (typically os.Stderr).
func NewReembedder(store storage.Store, embedder ai.Embedder, model string, config *Config, progress io.Writer) (*Reembedder, error) {
	if model == "" {
		return nil, ErrModelRequired
	}
	if config == nil {
		config = DefaultConfig()
	}
	if progress == nil {
		progress = io.Discard
	}

	return &Reembedder{
		store:     store,
		model:     model,
		config:    config,
		progress:  progress,
		processor: NewBatchProcessor(store, embedder, config.MaxRetries, config.RetryDelay),
		iterator:  NewEntryIterator(store, config.BatchSize),
		logger:    slog.Default().With("component", "reembed"),
	}, nil
}

// Run re-embeds all entries. The manifest names the new model as pending for
// the duration of the run, which blocks searches until every batch succeeded.
// The first batch that cannot be embedded or stored stops the run and leaves
// the pending mark in place.
func (r *Reembedder) Run(ctx context.Context) (*Summary, error) {
	total, err := r.store.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count entries: %w", err)
	}

	previous, err := r.store.LoadManifest(ctx)
	if err != nil {
		return nil, err
	}

	summary := &Summary{Entries: total, Model: r.model}
	if total == 0 {
		fmt.Fprintf(r.progress, "No entries found in index (0 entries)\n")
		if err := r.store.SaveManifest(ctx, &core.Manifest{EmbeddingModel: r.model}); err != nil {
			return nil, fmt.Errorf("failed to save manifest: %w", err)
		}
		return summary, nil
	}

	from := "unknown"
	if previous != nil && previous.EmbeddingModel != "" {
		from = previous.EmbeddingModel
	}
	fmt.Fprintf(r.progress, "Re-embedding %d entries from %s to %s (batch size: %d)\n",
		total, from, r.model, r.config.BatchSize)

	pending := &core.Manifest{PendingModel: r.model, Entries: total}
	if previous != nil {
		pending.EmbeddingModel = previous.EmbeddingModel
		pending.Dimensions = previous.Dimensions
	}
	if err := r.store.SaveManifest(ctx, pending); err != nil {
		return nil, fmt.Errorf("failed to save manifest: %w", err)
	}

	tracker := NewProgressTracker(r.progress, total, r.config.ReportInterval)
	tracker.Start()

	err = r.iterator.ForEach(ctx, func(entries []*core.IndexEntry) error {
		if err := r.processor.Process(ctx, entries); err != nil {
			tracker.Add(0, len(entries))
			return fmt.Errorf("failed to process batch: %w", err)
		}
		if summary.Dimensions == 0 && len(entries[0].Vector) > 0 {
			summary.Dimensions = len(entries[0].Vector)
		}
		tracker.Add(len(entries), 0)
		return nil
	})
	if err != nil {
		tracker.Finish()
		r.logger.Error("reembedding stopped, index is unsearchable until a rerun completes",
			"from", from, "to", r.model, "err", err)
		return nil, err
	}
	tracker.Finish()

	if err := r.store.SaveManifest(ctx, &core.Manifest{
		EmbeddingModel: r.model,
		Dimensions:     summary.Dimensions,
		Entries:        total,
	}); err != nil {
		return nil, fmt.Errorf("failed to save manifest: %w", err)
	}

	summary.Elapsed = tracker.Elapsed()
	fmt.Fprintf(r.progress, "Reembedding complete. Processed %d entries in %v (%.1f entries/sec)\n",
		total, summary.Elapsed.Round(time.Second), float64(total)/summary.Elapsed.Seconds())

	return summary, nil
}
