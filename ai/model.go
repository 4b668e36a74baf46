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


package ai

import (
	"fmt"
	"strings"
)

// Model is the closed set of supported model families. A Model is resolved into
// concrete hosts and model identifiers once, when a Config is built.
type Model int

const (
	// ModelOllama targets a local OpenAI-compatible server such as Ollama.
	ModelOllama Model = iota + 1
	// ModelChatGPT targets the OpenAI API.
	ModelChatGPT
	// ModelGemini targets Google's OpenAI-compatible Gemini endpoint.
	ModelGemini
)

// Models lists every supported model in display order.
var Models = []Model{ModelChatGPT, ModelGemini, ModelOllama}

// Preset holds the concrete service settings for a Model.
type Preset struct {
	Host            string
	GenerationModel string
	EmbeddingModel  string
	// TokenEnv names the environment variable holding the API token.
	// Empty means the service does not require authentication.
	TokenEnv string
}

func (m Model) String() string {
	switch m {
	case ModelOllama:
		return "ollama"
	case ModelChatGPT:
		return "chatgpt"
	case ModelGemini:
		return "gemini"
	default:
		return fmt.Sprintf("model(%d)", int(m))
	}
}

// Preset returns the service settings for the model.
func (m Model) Preset() (Preset, error) {
	switch m {
	case ModelOllama:
		return Preset{
			Host:            "http://localhost:11434/v1",
			GenerationModel: "qwen2.5:7b",
			EmbeddingModel:  "embeddinggemma",
		}, nil
	case ModelChatGPT:
		return Preset{
			Host:            "https://api.openai.com/v1",
			GenerationModel: "gpt-4o-mini",
			EmbeddingModel:  "text-embedding-3-small",
			TokenEnv:        "OPENAI_API_KEY",
		}, nil
	case ModelGemini:
		return Preset{
			Host:            "https://generativelanguage.googleapis.com/v1beta/openai",
			GenerationModel: "gemini-1.5-flash",
			EmbeddingModel:  "text-embedding-004",
			TokenEnv:        "GEMINI_API_KEY",
		}, nil
	default:
		return Preset{}, fmt.Errorf("%w: %d", ErrUnknownModel, int(m))
	}
}

// ParseModel maps a user-facing name onto a Model. Matching is case-insensitive
// and accepts "openai" for ChatGPT.
func ParseModel(name string) (Model, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "ollama", "local":
		return ModelOllama, nil
	case "chatgpt", "openai":
		return ModelChatGPT, nil
	case "gemini":
		return ModelGemini, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownModel, name)
	}
}
