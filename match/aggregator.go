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
	"slices"

	"github.com/poiesic/committee/core"
)

// Aggregator folds retrieval hits into one candidate list keyed by exact name.
// A candidate found by several queries is kept once, with its match count
// incremented and its evidence extended. Not safe for concurrent use.
type Aggregator struct {
	candidates []*core.Candidate
	byName     map[string]*core.Candidate
}

// NewAggregator creates an empty aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{byName: make(map[string]*core.Candidate)}
}

// Add merges one candidate into the list. A name seen before has its match
// count incremented and the incoming evidence appended; a new name starts with
// a match count of 1 and is appended in arrival order.
func (a *Aggregator) Add(c *core.Candidate) {
	if existing, ok := a.byName[c.Name]; ok {
		existing.MatchCount++
		existing.Evidence = append(existing.Evidence, c.Evidence...)
		return
	}
	c.MatchCount = 1
	a.byName[c.Name] = c
	a.candidates = append(a.candidates, c)
}

// AddAll merges candidates in order.
func (a *Aggregator) AddAll(candidates []*core.Candidate) {
	for _, c := range candidates {
		a.Add(c)
	}
}

// Len returns the number of distinct names seen.
func (a *Aggregator) Len() int {
	return len(a.candidates)
}

// Rank returns the candidates ordered by match count, highest first.
// Ties keep arrival order. The aggregator's own list is not reordered.
func (a *Aggregator) Rank() []*core.Candidate {
	ranked := slices.Clone(a.candidates)
	slices.SortStableFunc(ranked, func(x, y *core.Candidate) int {
		return y.MatchCount - x.MatchCount
	})
	return ranked
}
