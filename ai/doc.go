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


// Package ai provides abstractions for the AI services used by the committee matcher.
//
// This package defines interfaces for text embeddings and structured generation.
// The matching pipeline depends only on these abstractions, never on a concrete
// vendor client.
//
// # Interfaces
//
//   - Embedder: Generates vector embeddings from text
//   - Generator: Produces a JSON value of a declared OutputShape from a prompt
//   - AIProvider: Aggregates AI services for convenient initialization
//
// # Implementation Packages
//
//   - ai/openai: Production implementation using OpenAI-compatible APIs
//   - ai/mock: Test doubles for unit testing without external dependencies
//
// # Models
//
// A Model (ChatGPT, Gemini or Ollama) is resolved into concrete hosts and model
// identifiers once, through Model.Preset, when a Config is built with WithModel.
//
// # Resilience
//
// NewResilientProvider wraps any AIProvider so that every upstream call is rate
// limited, bounded by a per-call timeout and retried with exponential backoff.
// Errors marked with Permanent are not retried. Exhausted retries surface as
// ErrUpstreamUnavailable.
//
// # Usage Example
//
//	cfg := ai.NewConfig(ai.WithModel(ai.ModelChatGPT))
//	base, err := openai.NewProvider(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	provider := ai.NewResilientProvider(base, cfg)
//	defer provider.Close()
//
//	var out struct{ Keywords []string `json:"keywords"` }
//	err = provider.Generator().Generate(ctx, prompt, shape, &out)
package ai
