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

	"github.com/poiesic/committee/ai"
	"github.com/poiesic/committee/core"
	"github.com/poiesic/committee/storage"
)

// embeddingProcessor embeds a batch of profiles and stores the resulting entries.
type embeddingProcessor struct {
	repository storage.FacultyRepository
	embedder   ai.Embedder
	logger     *slog.Logger
}

// newEmbeddingProcessor creates a new embedding processor.
func newEmbeddingProcessor(repository storage.FacultyRepository, embedder ai.Embedder, logger *slog.Logger) (*embeddingProcessor, error) {
	if repository == nil {
		return nil, ErrStoreRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &embeddingProcessor{
		repository: repository,
		embedder:   embedder,
		logger:     logger.With("processor", "embeddings"),
	}, nil
}

// process embeds the profiles and upserts them. Either the whole batch is
// stored or none of it is.
func (ep *embeddingProcessor) process(ctx context.Context, profiles []core.FacultyProfile) ([]*core.IndexEntry, error) {
	texts := make([]string, len(profiles))
	for i := range profiles {
		texts[i] = profiles[i].EmbeddingText()
	}

	ep.logger.Debug("generating embeddings for profiles", "profiles", len(texts))
	embeddings, err := ep.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		ep.logger.Error("error generating embeddings", "err", err)
		return nil, err
	}
	if len(embeddings) != len(profiles) {
		return nil, fmt.Errorf("%w: expected %d, received %d", ErrEmbeddingMismatch, len(profiles), len(embeddings))
	}

	entries := make([]*core.IndexEntry, len(profiles))
	for i := range profiles {
		document, err := core.EncodeProfile(&profiles[i])
		if err != nil {
			return nil, fmt.Errorf("encoding profile %q: %w", profiles[i].Name, err)
		}
		entries[i] = &core.IndexEntry{
			Name:     profiles[i].Name,
			Document: document,
			Vector:   core.NormalizeVector(embeddings[i]),
		}
	}

	return ep.repository.AddEntries(ctx, entries...)
}
