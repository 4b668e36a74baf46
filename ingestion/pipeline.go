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


package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/committee/ai"
	"github.com/poiesic/committee/core"
	"github.com/poiesic/committee/storage"
)

// DefaultBatchSize is how many profiles share one embedding request.
const DefaultBatchSize = 16

// Pipeline embeds faculty profiles and stores them in the corpus index.
type Pipeline struct {
	store          storage.Store
	pool           *ants.Pool
	embeddingProc  *embeddingProcessor
	batchSize      int
	embeddingModel string
	logger         *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the worker pool size for concurrent embedding.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}
		if p.pool != nil {
			p.pool.Release()
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		p.pool = pool
		return nil
	}
}

// WithBatchSize sets how many profiles are embedded per request.
func WithBatchSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}
		p.batchSize = size
		return nil
	}
}

// WithEmbeddingModel records the embedding model name in the index manifest.
// Ingesting into an index built with another model fails with
// storage.ErrModelMismatch.
func WithEmbeddingModel(model string) Option {
	return func(p *Pipeline) error {
		p.embeddingModel = model
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPipeline creates a new ingestion pipeline.
func NewPipeline(store storage.Store, embedder ai.Embedder, opts ...Option) (*Pipeline, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	poolSize := max(runtime.NumCPU()/2, 1)
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		store:     store,
		pool:      pool,
		batchSize: DefaultBatchSize,
		logger:    slog.Default(),
	}

	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}
	p.logger = p.logger.With("component", "ingestion")

	embeddingProc, err := newEmbeddingProcessor(store, embedder, p.logger)
	if err != nil {
		p.Release()
		return nil, err
	}
	p.embeddingProc = embeddingProc

	return p, nil
}

// Ingest validates, embeds and stores profiles, then rewrites the manifest.
// Failures of single profiles or batches are collected in the report; the
// returned error is reserved for problems that stop the run as a whole.
func (p *Pipeline) Ingest(ctx context.Context, profiles []core.FacultyProfile) (*Report, error) {
	manifest, err := p.store.LoadManifest(ctx)
	if err != nil {
		return nil, err
	}
	if p.embeddingModel != "" {
		if err := storage.CheckModel(manifest, p.embeddingModel); err != nil {
			return nil, err
		}
	}

	report := &Report{Total: len(profiles)}

	valid := make([]core.FacultyProfile, 0, len(profiles))
	seen := make(map[string]struct{}, len(profiles))
	for i := range profiles {
		if err := core.ValidateProfile(&profiles[i]); err != nil {
			p.logger.Warn("skipping invalid profile", "index", i, "err", err)
			report.fail(1, fmt.Errorf("profile %d: %w", i, err))
			continue
		}
		if _, dup := seen[profiles[i].Name]; dup {
			p.logger.Warn("skipping duplicate profile", "index", i, "name", profiles[i].Name)
			report.fail(1, fmt.Errorf("profile %d: %w: %q", i, ErrDuplicateProfile, profiles[i].Name))
			continue
		}
		seen[profiles[i].Name] = struct{}{}
		valid = append(valid, profiles[i])
	}

	var (
		mu         sync.Mutex
		wg         sync.WaitGroup
		dimensions int
	)
	for start := 0; start < len(valid); start += p.batchSize {
		batch := valid[start:min(start+p.batchSize, len(valid))]

		wg.Add(1)
		submitErr := p.pool.Submit(func() {
			defer wg.Done()
			stored, err := p.embeddingProc.process(ctx, batch)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				p.logger.Error("error ingesting batch", "first", batch[0].Name, "size", len(batch), "err", err)
				report.fail(len(batch), fmt.Errorf("batch starting at %q: %w", batch[0].Name, err))
				return
			}
			report.Succeeded += len(stored)
			for i := range batch {
				if batch[i].IsSparse() {
					p.logger.Warn("indexed profile without biography or research topics", "name", batch[i].Name)
					report.Degraded++
				}
			}
			if len(stored) > 0 {
				dimensions = len(stored[0].Vector)
			}
		})
		if submitErr != nil {
			wg.Done()
			mu.Lock()
			report.fail(len(batch), submitErr)
			mu.Unlock()
		}
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return report, err
	}

	if report.Succeeded > 0 {
		if err := p.saveManifest(ctx, manifest, dimensions); err != nil {
			return report, err
		}
	}

	p.logger.Info("ingestion complete",
		"total", report.Total,
		"succeeded", report.Succeeded,
		"degraded", report.Degraded,
		"failed", report.Failed)

	return report, nil
}

func (p *Pipeline) saveManifest(ctx context.Context, previous *core.Manifest, dimensions int) error {
	count, err := p.store.Count(ctx)
	if err != nil {
		return err
	}
	manifest := &core.Manifest{
		EmbeddingModel: p.embeddingModel,
		Dimensions:     dimensions,
		Entries:        count,
	}
	if previous != nil {
		if manifest.EmbeddingModel == "" {
			manifest.EmbeddingModel = previous.EmbeddingModel
		}
		manifest.PendingModel = previous.PendingModel
	}
	return p.store.SaveManifest(ctx, manifest)
}

// Release releases the worker pool.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	if p.pool != nil {
		p.pool.Release()
	}
}
