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

import (
	"context"
	"log/slog"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/poiesic/committee/ai"
	"github.com/poiesic/committee/core"
	"github.com/poiesic/committee/storage"
)

const (
	// DefaultCacheSize is the number of query embeddings kept in memory.
	DefaultCacheSize = 256

	// NoThreshold accepts every hit; cosine similarity never drops below -1.
	NoThreshold float32 = -1
)

// SimilaritySearcher is the embedding-similarity search service.
// Hits are ordered by score, highest first, and number at most k.
type SimilaritySearcher interface {
	Search(ctx context.Context, query string, k int) ([]core.SearchHit, error)
}

// VectorIndex implements SimilaritySearcher over a storage repository.
type VectorIndex struct {
	repo          storage.Repository
	embedder      ai.Embedder
	cache         *lru.Cache[string, []float32]
	cacheSize     int
	minSimilarity float32
	logger        *slog.Logger
}

var _ SimilaritySearcher = (*VectorIndex)(nil)

// IndexOption configures a VectorIndex.
type IndexOption func(*VectorIndex) error

// WithIndexLogger sets a custom logger.
// Default is slog.Default().
func WithIndexLogger(logger *slog.Logger) IndexOption {
	return func(v *VectorIndex) error {
		if logger == nil {
			logger = slog.Default()
		}
		v.logger = logger
		return nil
	}
}

// WithCacheSize sets how many query embeddings are cached. Zero disables caching.
func WithCacheSize(size int) IndexOption {
	return func(v *VectorIndex) error {
		v.cacheSize = size
		return nil
	}
}

// WithMinSimilarity drops hits scoring below threshold.
// Default is NoThreshold.
func WithMinSimilarity(threshold float32) IndexOption {
	return func(v *VectorIndex) error {
		v.minSimilarity = threshold
		return nil
	}
}

// NewVectorIndex creates a similarity search service over repo.
func NewVectorIndex(repo storage.Repository, embedder ai.Embedder, opts ...IndexOption) (*VectorIndex, error) {
	if repo == nil {
		return nil, ErrRepositoryRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	v := &VectorIndex{
		repo:          repo,
		embedder:      embedder,
		cacheSize:     DefaultCacheSize,
		minSimilarity: NoThreshold,
		logger:        slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(v); err != nil {
			return nil, err
		}
	}
	v.logger = v.logger.With("component", "vector-index")

	if v.cacheSize > 0 {
		cache, err := lru.New[string, []float32](v.cacheSize)
		if err != nil {
			return nil, err
		}
		v.cache = cache
	}

	return v, nil
}

// Search embeds query and returns up to k stored documents ordered by similarity.
func (v *VectorIndex) Search(ctx context.Context, query string, k int) ([]core.SearchHit, error) {
	if k <= 0 {
		return nil, ErrInvalidTopK
	}

	vector, err := v.embed(ctx, query)
	if err != nil {
		v.logger.Error("error generating embedding for query", "query", query, "err", err)
		return nil, err
	}

	hits, err := v.repo.FindSimilar(ctx, vector, v.minSimilarity, k)
	if err != nil {
		v.logger.Error("error querying for similar records", "err", err)
		return nil, err
	}

	v.logger.Debug("similarity search", "query", query, "k", k, "hits", len(hits))
	return hits, nil
}

func (v *VectorIndex) embed(ctx context.Context, query string) ([]float32, error) {
	if v.cache != nil {
		if vector, ok := v.cache.Get(query); ok {
			return vector, nil
		}
	}

	raw, err := v.embedder.EmbedText(ctx, query)
	if err != nil {
		return nil, err
	}
	vector := core.NormalizeVector(raw)

	if v.cache != nil {
		v.cache.Add(query, vector)
	}
	return vector, nil
}
