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
	"errors"
	"log/slog"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/committee/ai"
	"github.com/poiesic/committee/core"
)

// DefaultBatchSize is how many candidates are judged per generation call.
const DefaultBatchSize = 5

// Partition splits candidates into consecutive batches of size. Only the
// last batch may be smaller, and no batch is ever empty.
func Partition(candidates []*core.Candidate, size int) ([][]*core.Candidate, error) {
	if size < 1 {
		return nil, ErrInvalidBatchSize
	}
	batches := make([][]*core.Candidate, 0, (len(candidates)+size-1)/size)
	for start := 0; start < len(candidates); start += size {
		end := min(start+size, len(candidates))
		batches = append(batches, candidates[start:end])
	}
	return batches, nil
}

// ReconcileStats counts how judgments lined up with candidates.
type ReconcileStats struct {
	// Judged is the number of candidates that received a judgment.
	Judged int
	// Relevant is the number of candidates judged relevant.
	Relevant int
	// UnjudgedCandidates lists candidates no judgment named.
	UnjudgedCandidates []string
	// UnmatchedJudgments lists judgment names that match no candidate.
	UnmatchedJudgments []string
}

// Reconcile applies judgments onto candidates by exact name. When several
// judgments carry the same name the first one wins. Candidates without a
// judgment keep nil Relevant and Justification; a judgment that leaves
// "relevant" unset also leaves the candidate unjudged. Both kinds of miss are
// logged at WARN.
func Reconcile(judgments []core.Judgment, candidates []*core.Candidate, logger *slog.Logger) ReconcileStats {
	if logger == nil {
		logger = slog.Default()
	}

	byName := make(map[string]core.Judgment, len(judgments))
	for _, j := range judgments {
		if _, seen := byName[j.Name]; !seen {
			byName[j.Name] = j
		}
	}

	var stats ReconcileStats
	matched := make(map[string]bool, len(candidates))
	for _, c := range candidates {
		j, ok := byName[c.Name]
		if !ok {
			logger.Warn("candidate not found in relevance judgments", "name", c.Name)
			stats.UnjudgedCandidates = append(stats.UnjudgedCandidates, c.Name)
			continue
		}
		matched[c.Name] = true
		if j.Relevant == nil {
			logger.Warn("judgment without relevance verdict", "name", c.Name)
			stats.UnjudgedCandidates = append(stats.UnjudgedCandidates, c.Name)
			continue
		}

		relevant := *j.Relevant
		justification := j.Justification
		c.Relevant = &relevant
		c.Justification = &justification
		stats.Judged++
		if relevant {
			stats.Relevant++
		}
	}

	for name := range byName {
		if !matched[name] {
			logger.Warn("relevance judgment matches no candidate", "name", name)
			stats.UnmatchedJudgments = append(stats.UnmatchedJudgments, name)
		}
	}

	return stats
}

// Verification is the outcome of judging a ranked candidate list.
type Verification struct {
	Judgments     []core.Judgment
	Batches       int
	FailedBatches int
	Reconcile     ReconcileStats
}

// Verifier judges candidates in batches through the generation service.
type Verifier struct {
	generator ai.Generator
	batchSize int
	policy    FailurePolicy
	pool      *ants.Pool
	logger    *slog.Logger
}

// VerifierOption configures a Verifier.
type VerifierOption func(*Verifier) error

// WithBatchSize sets how many candidates share one generation call.
func WithBatchSize(size int) VerifierOption {
	return func(v *Verifier) error {
		if size < 1 {
			return ErrInvalidBatchSize
		}
		v.batchSize = size
		return nil
	}
}

// WithFailurePolicy sets what a failed batch does to the run.
// Default is FailFast.
func WithFailurePolicy(policy FailurePolicy) VerifierOption {
	return func(v *Verifier) error {
		v.policy = policy
		return nil
	}
}

// WithVerifierPoolSize sets how many batches are judged concurrently.
func WithVerifierPoolSize(size int) VerifierOption {
	return func(v *Verifier) error {
		if size < 1 {
			size = 1
		}
		if v.pool != nil {
			v.pool.Release()
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		v.pool = pool
		return nil
	}
}

// WithVerifierLogger sets a custom logger.
func WithVerifierLogger(logger *slog.Logger) VerifierOption {
	return func(v *Verifier) error {
		if logger == nil {
			logger = slog.Default()
		}
		v.logger = logger
		return nil
	}
}

// NewVerifier creates a verifier backed by generator.
// Call Release when done to free the worker pool.
func NewVerifier(generator ai.Generator, opts ...VerifierOption) (*Verifier, error) {
	if generator == nil {
		return nil, ErrGeneratorRequired
	}

	pool, err := ants.NewPool(DefaultConcurrency)
	if err != nil {
		return nil, err
	}

	v := &Verifier{
		generator: generator,
		batchSize: DefaultBatchSize,
		policy:    FailFast,
		pool:      pool,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(v); err != nil {
			v.Release()
			return nil, err
		}
	}
	v.logger = v.logger.With("component", "verifier")

	return v, nil
}

// Release frees the worker pool.
func (v *Verifier) Release() {
	if v.pool != nil {
		v.pool.Release()
	}
}

// Verify partitions candidates into batches, judges every batch and reconciles
// the concatenated judgments back onto candidates in place. Batches run
// concurrently; judgments are concatenated in batch order.
//
// Under FailFast the first failed batch cancels the others and its error is
// returned. Under BestEffort failed batches are counted and their candidates
// stay unjudged.
func (v *Verifier) Verify(ctx context.Context, abstract string, query core.QueryVariantSet, candidates []*core.Candidate, reporter Reporter) (*Verification, error) {
	if reporter == nil {
		reporter = noopReporter{}
	}

	batches, err := Partition(candidates, v.batchSize)
	if err != nil {
		return nil, err
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make([][]core.Judgment, len(batches))
	errs := make([]error, len(batches))

	var wg sync.WaitGroup
	for i, batch := range batches {
		wg.Add(1)
		submitErr := v.pool.Submit(func() {
			defer wg.Done()
			results[i], errs[i] = v.judgeBatch(runCtx, abstract, query, batch)
			reporter.BatchVerified(i, results[i], errs[i])
			if errs[i] != nil && v.policy == FailFast {
				cancel()
			}
		})
		if submitErr != nil {
			wg.Done()
			errs[i] = submitErr
			if v.policy == FailFast {
				cancel()
			}
		}
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := &Verification{Batches: len(batches)}
	for i := range batches {
		if errs[i] != nil {
			out.FailedBatches++
			continue
		}
		out.Judgments = append(out.Judgments, results[i]...)
	}

	if out.FailedBatches > 0 && v.policy == FailFast {
		return nil, firstCause(errs)
	}
	if out.FailedBatches > 0 {
		v.logger.Warn("verification batches failed, affected candidates stay unjudged",
			"failed", out.FailedBatches,
			"batches", out.Batches,
			"err", errors.Join(errs...))
	}

	out.Reconcile = Reconcile(out.Judgments, candidates, v.logger)
	v.logger.Debug("verification complete",
		"batches", out.Batches,
		"judgments", len(out.Judgments),
		"judged", out.Reconcile.Judged,
		"relevant", out.Reconcile.Relevant)

	return out, nil
}

func (v *Verifier) judgeBatch(ctx context.Context, abstract string, query core.QueryVariantSet, batch []*core.Candidate) ([]core.Judgment, error) {
	prompt, err := buildVerifyPrompt(abstract, query, batch)
	if err != nil {
		return nil, err
	}

	var reply judgmentReply
	if err := v.generator.Generate(ctx, prompt, judgmentShape, &reply); err != nil {
		return nil, err
	}
	if len(reply.Judgments) > len(batch) {
		v.logger.Warn("more judgments than candidates in batch", "batch", len(batch), "judgments", len(reply.Judgments))
	}
	return reply.Judgments, nil
}

// firstCause returns the first error that is not a cancellation triggered by
// another batch failing, falling back to the first error at all.
func firstCause(errs []error) error {
	var first error
	for _, err := range errs {
		if err == nil {
			continue
		}
		if first == nil {
			first = err
		}
		if !errors.Is(err, context.Canceled) {
			return err
		}
	}
	return first
}
