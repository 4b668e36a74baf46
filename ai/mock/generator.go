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


package mock

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/poiesic/committee/ai"
)

// MockGenerator is a test double for ai.Generator.
// It is safe for concurrent use.
type MockGenerator struct {
	// GenerateFunc is called by Generate if set.
	GenerateFunc func(ctx context.Context, prompt string, shape ai.OutputShape, out any) error

	mu        sync.Mutex
	responses map[string]string
	prompts   []string
	callCount int
}

// NewMockGenerator creates a mock generator. Without a GenerateFunc or a
// registered response it decodes "{}" into the output value.
func NewMockGenerator() *MockGenerator {
	return &MockGenerator{responses: make(map[string]string)}
}

// WithResponse registers the JSON returned for every call with the named shape.
func (m *MockGenerator) WithResponse(shape, jsonText string) *MockGenerator {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[shape] = jsonText
	return m
}

// Generate records the prompt and produces a canned response.
func (m *MockGenerator) Generate(ctx context.Context, prompt string, shape ai.OutputShape, out any) error {
	m.mu.Lock()
	m.callCount++
	m.prompts = append(m.prompts, prompt)
	fn := m.GenerateFunc
	response, ok := m.responses[shape.Name]
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, prompt, shape, out)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if !ok {
		response = "{}"
	}
	if err := json.Unmarshal([]byte(response), out); err != nil {
		return fmt.Errorf("%w: %s: %w", ai.ErrInvalidResponse, shape.Name, err)
	}
	return nil
}

// Prompts returns a copy of every prompt received, in call order.
func (m *MockGenerator) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.prompts...)
}

// CallCount returns the number of times Generate was called.
func (m *MockGenerator) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// Reset clears the call count, recorded prompts, responses and custom functions.
func (m *MockGenerator) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callCount = 0
	m.prompts = nil
	m.responses = make(map[string]string)
	m.GenerateFunc = nil
}
