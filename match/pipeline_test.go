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
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/poiesic/committee/ai"
	"github.com/poiesic/committee/ai/mock"
	"github.com/poiesic/committee/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRetriever answers each query with the candidates of the first rule whose
// substring the query contains.
type fakeRetriever struct {
	mu      sync.Mutex
	rules   []retrievalRule
	queries []string
	err     error
}

type retrievalRule struct {
	contains string
	hits     func() []*core.Candidate
}

func (f *fakeRetriever) Search(ctx context.Context, query string, k int) ([]*core.Candidate, error) {
	f.mu.Lock()
	f.queries = append(f.queries, query)
	f.mu.Unlock()

	if f.err != nil {
		return nil, f.err
	}
	for _, r := range f.rules {
		if strings.Contains(query, r.contains) {
			hits := r.hits()
			if len(hits) > k {
				hits = hits[:k]
			}
			return hits, nil
		}
	}
	return nil, nil
}

func alice() *core.Candidate {
	return &core.Candidate{
		Name:           "Alice",
		ResearchTopics: []string{"distributed systems", "consensus"},
		Evidence:       []float32{0.8},
	}
}

func bob() *core.Candidate {
	return &core.Candidate{
		Name:           "Bob",
		ResearchTopics: []string{"computer graphics"},
		Evidence:       []float32{0.2},
	}
}

// scenarioGenerator answers keyword and variant requests with canned JSON and
// judges every listed candidate relevant.
func scenarioGenerator(t *testing.T) *mock.MockGenerator {
	judge := judgingGenerator(t, func(name string) bool { return name == "Alice" })
	gen := mock.NewMockGenerator()
	gen.GenerateFunc = func(ctx context.Context, prompt string, shape ai.OutputShape, out any) error {
		switch shape.Name {
		case keywordShape.Name:
			return decodeInto(out, keywordReply{Keywords: []string{"consensus", "edge computing", "fault tolerance", "iot", "replication"}})
		case variantShape.Name:
			return decodeInto(out, variantReply{Titles: []string{
				"Raft Consensus for Edge Devices",
				"Fault-Tolerant Replication at the Edge",
				"Consensus Protocols in IoT Networks",
				"Edge Computing and Distributed Agreement",
				"Replicated State Machines on the Edge",
			}})
		default:
			return judge.Generate(ctx, prompt, shape, out)
		}
	}
	return gen
}

func TestNewPipeline(t *testing.T) {
	_, err := NewPipeline(nil, mock.NewMockGenerator())
	assert.ErrorIs(t, err, ErrRetrieverRequired)

	_, err = NewPipeline(&fakeRetriever{}, nil)
	assert.ErrorIs(t, err, ErrGeneratorRequired)

	p, err := NewPipeline(&fakeRetriever{}, mock.NewMockGenerator(),
		WithSettings(Settings{TopK: 3, FailurePolicy: BestEffort}),
		WithReporter(nil),
		WithLogger(nil))
	require.NoError(t, err)
	defer p.Release()

	s := p.Settings()
	assert.Equal(t, 3, s.TopK)
	assert.Equal(t, DefaultBatchSize, s.BatchSize)
	assert.Equal(t, DefaultVariantCount, s.VariantCount)
	assert.Equal(t, DefaultConcurrency, s.Concurrency)
	assert.Equal(t, BestEffort, s.FailurePolicy)
}

func TestPipeline_EndToEndScenario(t *testing.T) {
	retriever := &fakeRetriever{rules: []retrievalRule{
		{contains: "Consensus", hits: func() []*core.Candidate { return []*core.Candidate{alice()} }},
	}}
	gen := scenarioGenerator(t)

	p, err := NewPipeline(retriever, gen)
	require.NoError(t, err)
	defer p.Release()

	result, err := p.Run(context.Background(), core.Thesis{
		Title:    "Distributed Consensus in Edge Networks",
		Abstract: "",
		Keywords: "raft;distributed systems",
	})
	require.NoError(t, err)

	require.Len(t, result.Candidates, 1)
	got := result.Candidates[0]
	assert.Equal(t, "Alice", got.Name)
	assert.GreaterOrEqual(t, got.MatchCount, 1)
	assert.Len(t, got.Evidence, got.MatchCount)
	assert.True(t, got.IsRelevant())
	require.NotNil(t, got.Justification)

	for _, c := range result.Candidates {
		assert.NotEqual(t, "Bob", c.Name)
	}

	// 5 variants, the title and the blank abstract each become a query
	assert.Len(t, retriever.queries, 7)
	assert.Equal(t, 7, result.Stats.Queries)
	for _, q := range retriever.queries {
		assert.Contains(t, q, "raft")
		assert.Contains(t, q, "distributed systems")
	}
	assert.Len(t, result.Query.Titles, 7)
	assert.NotEmpty(t, result.RunID)
	assert.Equal(t, 1, result.Stats.Batches)
	assert.Equal(t, []*core.Candidate{got}, result.Relevant())
	assert.Empty(t, result.Unjudged())
}

func TestPipeline_RanksByFrequency(t *testing.T) {
	retriever := &fakeRetriever{rules: []retrievalRule{
		{contains: "Edge", hits: func() []*core.Candidate { return []*core.Candidate{bob(), alice()} }},
		{contains: "", hits: func() []*core.Candidate { return []*core.Candidate{bob()} }},
	}}

	p, err := NewPipeline(retriever, scenarioGenerator(t))
	require.NoError(t, err)
	defer p.Release()

	result, err := p.Run(context.Background(), core.Thesis{Title: "Distributed Consensus in Edge Networks"})
	require.NoError(t, err)

	require.Len(t, result.Candidates, 2)
	assert.Equal(t, "Bob", result.Candidates[0].Name)
	assert.Equal(t, 7, result.Candidates[0].MatchCount)
	assert.Equal(t, "Alice", result.Candidates[1].Name)
	assert.False(t, result.Candidates[0].IsRelevant())
	assert.True(t, result.Candidates[0].Judged())
	assert.Equal(t, 2, result.Stats.Distinct)
	assert.Equal(t, 7+result.Candidates[1].MatchCount, result.Stats.Hits)
}

func TestPipeline_ComponentLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	retriever := &fakeRetriever{rules: []retrievalRule{
		{contains: "", hits: func() []*core.Candidate { return []*core.Candidate{alice()} }},
	}}

	p, err := NewPipeline(retriever, scenarioGenerator(t), WithLogger(logger))
	require.NoError(t, err)
	defer p.Release()

	_, err = p.Run(context.Background(), core.Thesis{Title: "Consensus"})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "component=pipeline")
	assert.Contains(t, out, "component=expander")
	assert.Contains(t, out, "component=verifier")
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		assert.Equal(t, 1, strings.Count(line, "component="), line)
	}
}

func TestPipeline_DropsPlaceholders(t *testing.T) {
	retriever := &fakeRetriever{rules: []retrievalRule{
		{contains: "", hits: func() []*core.Candidate { return []*core.Candidate{core.Placeholder(), alice()} }},
	}}

	p, err := NewPipeline(retriever, scenarioGenerator(t))
	require.NoError(t, err)
	defer p.Release()

	result, err := p.Run(context.Background(), core.Thesis{Title: "Consensus"})
	require.NoError(t, err)

	require.Len(t, result.Candidates, 1)
	assert.Equal(t, "Alice", result.Candidates[0].Name)
	assert.Equal(t, 7, result.Stats.PlaceholdersDropped)
}

func TestPipeline_RetrievalFailure(t *testing.T) {
	retriever := &fakeRetriever{err: ai.ErrUpstreamUnavailable}
	p, err := NewPipeline(retriever, scenarioGenerator(t))
	require.NoError(t, err)
	defer p.Release()

	result, err := p.Run(context.Background(), core.Thesis{Title: "Consensus"})
	require.Error(t, err)
	assert.Nil(t, result)

	var se *StageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, StageRetrieve, se.Stage)
	assert.ErrorIs(t, err, ai.ErrUpstreamUnavailable)
}

func TestPipeline_KeywordFailureIsFatal(t *testing.T) {
	gen := mock.NewMockGenerator()
	gen.GenerateFunc = func(context.Context, string, ai.OutputShape, any) error {
		return errors.New("connection refused")
	}
	retriever := &fakeRetriever{}

	p, err := NewPipeline(retriever, gen)
	require.NoError(t, err)
	defer p.Release()

	_, err = p.Run(context.Background(), core.Thesis{Title: "Consensus"})
	var se *StageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, StageExtractKeywords, se.Stage)
	assert.Empty(t, retriever.queries)
}

func TestPipeline_VerificationPolicy(t *testing.T) {
	newGen := func() *mock.MockGenerator {
		base := scenarioGenerator(t)
		gen := mock.NewMockGenerator()
		gen.GenerateFunc = func(ctx context.Context, prompt string, shape ai.OutputShape, out any) error {
			if shape.Name == judgmentShape.Name {
				return ai.ErrUpstreamUnavailable
			}
			return base.Generate(ctx, prompt, shape, out)
		}
		return gen
	}
	retriever := &fakeRetriever{rules: []retrievalRule{
		{contains: "", hits: func() []*core.Candidate { return []*core.Candidate{alice()} }},
	}}

	t.Run("fail fast", func(t *testing.T) {
		p, err := NewPipeline(retriever, newGen())
		require.NoError(t, err)
		defer p.Release()

		_, err = p.Run(context.Background(), core.Thesis{Title: "Consensus"})
		var se *StageError
		require.ErrorAs(t, err, &se)
		assert.Equal(t, StageVerify, se.Stage)
		assert.ErrorIs(t, err, ai.ErrUpstreamUnavailable)
	})

	t.Run("best effort", func(t *testing.T) {
		p, err := NewPipeline(retriever, newGen(), WithSettings(Settings{FailurePolicy: BestEffort}))
		require.NoError(t, err)
		defer p.Release()

		result, err := p.Run(context.Background(), core.Thesis{Title: "Consensus"})
		require.NoError(t, err)
		require.Len(t, result.Candidates, 1)
		assert.False(t, result.Candidates[0].Judged())
		assert.Equal(t, 1, result.Stats.FailedBatches)
		assert.Len(t, result.Unjudged(), 1)
		assert.Empty(t, result.Relevant())
	})
}

func TestPipeline_InvalidThesis(t *testing.T) {
	gen := mock.NewMockGenerator()
	p, err := NewPipeline(&fakeRetriever{}, gen)
	require.NoError(t, err)
	defer p.Release()

	_, err = p.Run(context.Background(), core.Thesis{Title: "   "})
	assert.ErrorIs(t, err, core.ErrEmptyTitle)
	assert.Equal(t, 0, gen.CallCount())
}

func TestPipeline_Reporter(t *testing.T) {
	retriever := &fakeRetriever{rules: []retrievalRule{
		{contains: "", hits: func() []*core.Candidate { return []*core.Candidate{alice()} }},
	}}
	rec := &recordingReporter{}

	p, err := NewPipeline(retriever, scenarioGenerator(t), WithReporter(rec))
	require.NoError(t, err)
	defer p.Release()

	_, err = p.Run(context.Background(), core.Thesis{Title: "Consensus"})
	require.NoError(t, err)

	assert.Equal(t, []Stage{StageExtractKeywords, StageGenerateVariants, StageRetrieve, StageAggregate, StageVerify}, rec.stages)
	assert.True(t, rec.finished)
}

func TestRunPipeline(t *testing.T) {
	retriever := &fakeRetriever{rules: []retrievalRule{
		{contains: "Consensus", hits: func() []*core.Candidate { return []*core.Candidate{alice()} }},
	}}

	ranked, err := RunPipeline(context.Background(),
		"Distributed Consensus in Edge Networks", "", "raft;distributed systems",
		retriever, scenarioGenerator(t))
	require.NoError(t, err)
	require.Len(t, ranked, 1)
	assert.Equal(t, "Alice", ranked[0].Name)
	assert.True(t, ranked[0].IsRelevant())
}

type recordingReporter struct {
	noopReporter
	mu       sync.Mutex
	stages   []Stage
	finished bool
}

func (r *recordingReporter) StageStarted(stage Stage) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stages = append(r.stages, stage)
}

func (r *recordingReporter) Finished(*Result) {
	r.finished = true
}
