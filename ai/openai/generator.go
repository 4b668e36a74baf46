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


package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"reflect"
	"strings"

	"github.com/poiesic/committee/ai"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// parseAttempts is how many times a malformed reply is re-requested before giving up.
const parseAttempts = 3

// Generator implements ai.Generator using OpenAI-compatible chat APIs in JSON mode.
type Generator struct {
	client      llms.Model
	temperature float64
	logger      *slog.Logger
}

func newGenerator(config *ai.Config) (*Generator, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	client, err := openai.New(
		openai.WithBaseURL(config.GenerationHost),
		openai.WithToken(resolveToken(config)),
		openai.WithModel(config.GenerationModel),
	)
	if err != nil {
		return nil, err
	}

	return newGeneratorWithClient(client, config.Temperature), nil
}

func newGeneratorWithClient(client llms.Model, temperature float64) *Generator {
	return &Generator{
		client:      client,
		temperature: temperature,
		logger:      slog.Default().With("component", "openai-generator"),
	}
}

// NewGenerator creates a new structured generator using the provided configuration.
//
// Returns ai.Generator interface to enforce abstraction.
func NewGenerator(config *ai.Config) (ai.Generator, error) {
	return newGenerator(config)
}

// Generate sends prompt with a system message describing shape and decodes
// the reply into out. Transport errors are returned as is so callers can retry
// them. Replies that still fail to parse after several attempts are reported
// as a permanent ai.ErrInvalidResponse. Each attempt decodes into a fresh
// value; out is replaced only by a reply that parses.
func (g *Generator) Generate(ctx context.Context, prompt string, shape ai.OutputShape, out any) error {
	target := reflect.ValueOf(out)
	if target.Kind() != reflect.Pointer || target.IsNil() {
		return ai.Permanent(fmt.Errorf("%w: %s: out must be a non-nil pointer, got %T", ai.ErrInvalidResponse, shape.Name, out))
	}

	content := []llms.MessageContent{
		{
			Role:  llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{llms.TextPart(buildSystemPrompt(shape))},
		},
		{
			Role:  llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.TextPart(strings.TrimSpace(prompt))},
		},
	}

	var lastErr error
	for attempt := 1; attempt <= parseAttempts; attempt++ {
		response, err := g.client.GenerateContent(ctx, content, llms.WithTemperature(g.temperature), llms.WithJSONMode())
		if err != nil {
			g.logger.Error("failed to generate content", "shape", shape.Name, "attempt", attempt, "err", err)
			return err
		}

		if len(response.Choices) < 1 {
			lastErr = fmt.Errorf("no choices returned")
			g.logger.Warn("no choices returned from model", "shape", shape.Name, "attempt", attempt)
			continue
		}

		text := cleanResponse(response.Choices[0].Content)
		decoded := reflect.New(target.Type().Elem())
		if err := json.Unmarshal([]byte(text), decoded.Interface()); err != nil {
			lastErr = err
			g.logger.Warn("error parsing generator response",
				"shape", shape.Name,
				"attempt", attempt,
				"response", text,
				"err", err)
			continue
		}

		target.Elem().Set(decoded.Elem())
		g.logger.Debug("generated structured response", "shape", shape.Name, "attempt", attempt)
		return nil
	}

	g.logger.Error("failed to parse generator response after retries", "shape", shape.Name, "err", lastErr)
	return ai.Permanent(fmt.Errorf("%w: %s: %w", ai.ErrInvalidResponse, shape.Name, lastErr))
}
