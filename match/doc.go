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


// Package match suggests thesis committee members.
//
// A Pipeline runs four stages in order:
//
//  1. Expander asks the generation service for topic keywords and title
//     variants, producing a core.QueryVariantSet.
//  2. Every query variant is searched through a CandidateRetriever.
//  3. Aggregator folds the hits by exact name into one list ranked by how
//     many hits each candidate collected, not by how similar they were.
//  4. Verifier judges the ranked list in batches and reconciles the
//     judgments back onto candidates by exact name.
//
// Candidates the verifier did not judge keep a nil Relevant field and must be
// read as unknown rather than irrelevant. Reporter receives progress
// callbacks; a nil reporter disables them.
//
// Basic usage:
//
//	p, err := match.NewPipeline(retriever, provider.Generator(),
//		match.WithReporter(match.NewLogReporter(logger)))
//	if err != nil {
//		return err
//	}
//	defer p.Release()
//
//	result, err := p.Run(ctx, core.Thesis{Title: title, Abstract: abstract})
package match
