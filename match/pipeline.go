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


package match

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/poiesic/committee/ai"
	"github.com/poiesic/committee/core"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultTopK is how many hits each query variant retrieves.
	DefaultTopK = 5
	// DefaultConcurrency bounds parallel retrieval calls and verification batches.
	DefaultConcurrency = 4
)

// CandidateRetriever looks up faculty candidates similar to a query.
// search.Retriever satisfies it.
type CandidateRetriever interface {
	Search(ctx context.Context, query string, k int) ([]*core.Candidate, error)
}

// Settings controls the shape of one pipeline.
type Settings struct {
	TopK          int
	BatchSize     int
	VariantCount  int
	Concurrency   int
	FailurePolicy FailurePolicy
}

// DefaultSettings returns the settings used when none are given.
func DefaultSettings() Settings {
	return Settings{
		TopK:          DefaultTopK,
		BatchSize:     DefaultBatchSize,
		VariantCount:  DefaultVariantCount,
		Concurrency:   DefaultConcurrency,
		FailurePolicy: FailFast,
	}
}

// Stats summarizes one run.
type Stats struct {
	Queries             int
	Hits                int
	Distinct            int
	PlaceholdersDropped int
	Batches             int
	FailedBatches       int
	UnjudgedCandidates  []string
	UnmatchedJudgments  []string
}

// Result is the outcome of a successful pipeline run.
type Result struct {
	RunID    string
	Keywords core.KeywordSet
	Query    core.QueryVariantSet
	// Candidates is ranked by match count, most frequent first.
	Candidates []*core.Candidate
	Stats      Stats
}

// Relevant returns the candidates judged relevant, in rank order.
func (r *Result) Relevant() []*core.Candidate {
	var out []*core.Candidate
	for _, c := range r.Candidates {
		if c.IsRelevant() {
			out = append(out, c)
		}
	}
	return out
}

// Unjudged returns the candidates with no relevance verdict, in rank order.
func (r *Result) Unjudged() []*core.Candidate {
	var out []*core.Candidate
	for _, c := range r.Candidates {
		if !c.Judged() {
			out = append(out, c)
		}
	}
	return out
}

// Pipeline sequences query expansion, retrieval, aggregation and verification.
type Pipeline struct {
	expander  *Expander
	retriever CandidateRetriever
	verifier  *Verifier
	settings  Settings
	reporter  Reporter
	logger    *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithSettings replaces the default settings. Zero fields keep their defaults.
func WithSettings(s Settings) Option {
	return func(p *Pipeline) error {
		if s.TopK > 0 {
			p.settings.TopK = s.TopK
		}
		if s.BatchSize > 0 {
			p.settings.BatchSize = s.BatchSize
		}
		if s.VariantCount > 0 {
			p.settings.VariantCount = s.VariantCount
		}
		if s.Concurrency > 0 {
			p.settings.Concurrency = s.Concurrency
		}
		p.settings.FailurePolicy = s.FailurePolicy
		return nil
	}
}

// WithReporter sets the progress reporter. A nil reporter disables reporting.
func WithReporter(r Reporter) Option {
	return func(p *Pipeline) error {
		if r == nil {
			r = noopReporter{}
		}
		p.reporter = r
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPipeline creates a pipeline over retriever and generator.
// Call Release when done.
func NewPipeline(retriever CandidateRetriever, generator ai.Generator, opts ...Option) (*Pipeline, error) {
	if retriever == nil {
		return nil, ErrRetrieverRequired
	}
	if generator == nil {
		return nil, ErrGeneratorRequired
	}

	p := &Pipeline{
		retriever: retriever,
		settings:  DefaultSettings(),
		reporter:  noopReporter{},
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}
	base := p.logger
	p.logger = base.With("component", "pipeline")

	expander, err := NewExpander(generator,
		WithVariantCount(p.settings.VariantCount),
		WithExpanderLogger(base))
	if err != nil {
		return nil, err
	}
	verifier, err := NewVerifier(generator,
		WithBatchSize(p.settings.BatchSize),
		WithFailurePolicy(p.settings.FailurePolicy),
		WithVerifierPoolSize(p.settings.Concurrency),
		WithVerifierLogger(base))
	if err != nil {
		return nil, err
	}
	p.expander = expander
	p.verifier = verifier

	return p, nil
}

// Release frees the verification worker pool.
func (p *Pipeline) Release() {
	p.verifier.Release()
}

// Settings returns the effective settings.
func (p *Pipeline) Settings() Settings {
	return p.settings
}

// Run suggests committee members for a thesis. Any unrecovered failure is
// returned as a *StageError naming the stage, and no partial result is given.
func (p *Pipeline) Run(ctx context.Context, thesis core.Thesis) (*Result, error) {
	if err := core.ValidateThesis(&thesis); err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	logger := p.logger.With("run_id", runID)
	logger.Info("pipeline started", "title", thesis.Title)

	query, err := p.expander.Expand(ctx, thesis, p.reporter)
	if err != nil {
		logger.Error("query expansion failed", "err", err)
		return nil, err
	}

	result := &Result{RunID: runID, Keywords: query.Keywords, Query: query}

	p.reporter.StageStarted(StageRetrieve)
	perQuery, err := p.retrieve(ctx, query.Queries(), &result.Stats)
	if err != nil {
		logger.Error("retrieval failed", "err", err)
		return nil, stageError(StageRetrieve, err)
	}

	p.reporter.StageStarted(StageAggregate)
	agg := NewAggregator()
	for _, hits := range perQuery {
		agg.AddAll(hits)
	}
	ranked := agg.Rank()
	result.Candidates = make([]*core.Candidate, 0, len(ranked))
	for _, c := range ranked {
		if c.IsPlaceholder() {
			result.Stats.PlaceholdersDropped += c.MatchCount
			continue
		}
		result.Candidates = append(result.Candidates, c)
	}
	result.Stats.Distinct = len(result.Candidates)
	if result.Stats.PlaceholdersDropped > 0 {
		logger.Warn("dropped unparseable records before verification", "count", result.Stats.PlaceholdersDropped)
	}
	p.reporter.Aggregated(result.Candidates)

	p.reporter.StageStarted(StageVerify)
	verification, err := p.verifier.Verify(ctx, thesis.Abstract, query, result.Candidates, p.reporter)
	if err != nil {
		logger.Error("verification failed", "err", err)
		return nil, stageError(StageVerify, err)
	}
	result.Stats.Batches = verification.Batches
	result.Stats.FailedBatches = verification.FailedBatches
	result.Stats.UnjudgedCandidates = verification.Reconcile.UnjudgedCandidates
	result.Stats.UnmatchedJudgments = verification.Reconcile.UnmatchedJudgments

	logger.Info("pipeline finished",
		"candidates", len(result.Candidates),
		"relevant", verification.Reconcile.Relevant,
		"unjudged", len(result.Stats.UnjudgedCandidates))
	p.reporter.Finished(result)

	return result, nil
}

// retrieve runs one search per query with bounded parallelism. Results are
// returned in query order so aggregation ties follow variant order.
func (p *Pipeline) retrieve(ctx context.Context, queries []string, stats *Stats) ([][]*core.Candidate, error) {
	results := make([][]*core.Candidate, len(queries))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.settings.Concurrency)
	for i, q := range queries {
		if strings.TrimSpace(q) == "" {
			continue
		}
		stats.Queries++
		g.Go(func() error {
			hits, err := p.retriever.Search(gctx, q, p.settings.TopK)
			if err != nil {
				return err
			}
			results[i] = hits
			p.reporter.Retrieved(q, hits)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, hits := range results {
		stats.Hits += len(hits)
	}
	return results, nil
}

// RunPipeline suggests committee members with default settings and returns
// the ranked candidates. keywords is a ';'-separated list.
func RunPipeline(ctx context.Context, title, abstract, keywords string, retriever CandidateRetriever, generator ai.Generator) ([]*core.Candidate, error) {
	p, err := NewPipeline(retriever, generator)
	if err != nil {
		return nil, err
	}
	defer p.Release()

	result, err := p.Run(ctx, core.Thesis{Title: title, Abstract: abstract, Keywords: keywords})
	if err != nil {
		return nil, err
	}
	return result.Candidates, nil
}
