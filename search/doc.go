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


// Package search answers similarity queries against the faculty corpus.
//
// VectorIndex is the embedding-similarity search service: it embeds a query,
// scores it against every stored profile and returns the opaque stored
// documents with their scores, best first. Query embeddings are cached.
//
// Retriever sits on top of any SimilaritySearcher and turns hits into
// core.Candidate values, each carrying exactly one similarity score.
// Documents that cannot be parsed degrade to placeholder candidates and are
// logged; they never fail the search.
package search
