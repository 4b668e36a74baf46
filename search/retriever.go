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

	"github.com/poiesic/committee/core"
)

// Retriever issues similarity searches and deserializes hits into candidates.
type Retriever struct {
	searcher SimilaritySearcher
	logger   *slog.Logger
}

// Option configures a Retriever.
type Option func(*Retriever) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Retriever) error {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger
		return nil
	}
}

// NewRetriever creates a retriever over searcher.
func NewRetriever(searcher SimilaritySearcher, opts ...Option) (*Retriever, error) {
	if searcher == nil {
		return nil, ErrSearcherRequired
	}

	r := &Retriever{
		searcher: searcher,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	r.logger = r.logger.With("component", "retriever")

	return r, nil
}

// Search runs one similarity query and returns up to k candidates in score order.
// Every candidate carries the score of its hit as its only evidence.
// Malformed documents yield placeholders rather than an error.
func (r *Retriever) Search(ctx context.Context, query string, k int) ([]*core.Candidate, error) {
	hits, err := r.searcher.Search(ctx, query, k)
	if err != nil {
		return nil, err
	}

	candidates := make([]*core.Candidate, 0, len(hits))
	for _, hit := range hits {
		candidate, err := core.CandidateFromDocument(hit.Document, hit.Score)
		if err != nil {
			r.logger.Warn("malformed corpus record, using placeholder",
				"query", query,
				"score", hit.Score,
				"document", hit.Document,
				"err", err)
		}
		candidates = append(candidates, candidate)
	}

	return candidates, nil
}
