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
	"testing"

	"github.com/poiesic/committee/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func hit(name string, score float32) *core.Candidate {
	return &core.Candidate{Name: name, Evidence: []float32{score}}
}

func TestAggregator_CountsEveryHit(t *testing.T) {
	agg := NewAggregator()
	for i := range 4 {
		agg.Add(hit("Alice", float32(i)/10))
	}

	ranked := agg.Rank()
	require.Len(t, ranked, 1)
	assert.Equal(t, 4, ranked[0].MatchCount)
	assert.Equal(t, []float32{0, 0.1, 0.2, 0.3}, ranked[0].Evidence)
}

func TestAggregator_DedupByName(t *testing.T) {
	agg := NewAggregator()
	agg.AddAll([]*core.Candidate{
		hit("Alice", 0.9),
		hit("Bob", 0.8),
		hit("Alice", 0.7),
		hit("alice", 0.6),
	})

	ranked := agg.Rank()
	assert.Equal(t, 3, agg.Len())
	require.Len(t, ranked, 3)

	names := make(map[string]int)
	for _, c := range ranked {
		names[c.Name]++
	}
	for name, n := range names {
		assert.Equal(t, 1, n, "name %q appears more than once", name)
	}
}

func TestAggregator_RankOrdering(t *testing.T) {
	agg := NewAggregator()
	agg.AddAll([]*core.Candidate{
		hit("Carol", 0.99),
		hit("Alice", 0.5),
		hit("Bob", 0.4),
		hit("Alice", 0.5),
		hit("Bob", 0.4),
		hit("Alice", 0.5),
		hit("Dave", 0.3),
	})

	ranked := agg.Rank()
	require.Len(t, ranked, 4)
	for i := 1; i < len(ranked); i++ {
		assert.GreaterOrEqual(t, ranked[i-1].MatchCount, ranked[i].MatchCount)
	}

	var order []string
	for _, c := range ranked {
		order = append(order, c.Name)
	}
	// ties keep arrival order
	assert.Equal(t, []string{"Alice", "Bob", "Carol", "Dave"}, order)
}

func TestAggregator_FrequencyBeatsSimilarity(t *testing.T) {
	agg := NewAggregator()
	agg.AddAll([]*core.Candidate{
		hit("Peak", 0.99),
		hit("Broad", 0.4),
		hit("Broad", 0.4),
		hit("Broad", 0.4),
	})

	ranked := agg.Rank()
	require.Len(t, ranked, 2)
	assert.Equal(t, "Broad", ranked[0].Name)
	assert.Equal(t, 3, ranked[0].MatchCount)
	assert.InDelta(t, 0.4, ranked[0].MeanSimilarity(), 1e-6)
}

func TestAggregator_MatchCountIgnoresIncomingCount(t *testing.T) {
	agg := NewAggregator()
	first := &core.Candidate{Name: "Alice", Evidence: []float32{0.5}, MatchCount: 7}
	agg.Add(first)
	agg.Add(&core.Candidate{Name: "Alice", Evidence: []float32{0.4, 0.3}, MatchCount: 9})

	ranked := agg.Rank()
	require.Len(t, ranked, 1)
	assert.Equal(t, 2, ranked[0].MatchCount)
	assert.Len(t, ranked[0].Evidence, 3)
}

func TestAggregator_RankDoesNotReorderInternalList(t *testing.T) {
	agg := NewAggregator()
	agg.AddAll([]*core.Candidate{hit("A", 1), hit("B", 1), hit("B", 1)})

	_ = agg.Rank()
	agg.Add(hit("A", 1))
	agg.Add(hit("A", 1))

	ranked := agg.Rank()
	assert.Equal(t, "A", ranked[0].Name)
	assert.Equal(t, 3, ranked[0].MatchCount)
}

func TestAggregator_Empty(t *testing.T) {
	agg := NewAggregator()
	assert.Empty(t, agg.Rank())
	assert.Equal(t, 0, agg.Len())
}
