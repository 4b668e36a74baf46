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
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubEmbedder struct {
	calls atomic.Int32
	fn    func(ctx context.Context, attempt int) ([]float32, error)
}

func (s *stubEmbedder) EmbedText(ctx context.Context, _ string) ([]float32, error) {
	n := int(s.calls.Add(1))
	return s.fn(ctx, n)
}

func (s *stubEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		v, err := s.EmbedText(ctx, text)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

type stubGenerator struct {
	calls atomic.Int32
	fn    func(ctx context.Context, attempt int, out any) error
}

func (s *stubGenerator) Generate(ctx context.Context, _ string, _ OutputShape, out any) error {
	n := int(s.calls.Add(1))
	return s.fn(ctx, n, out)
}

type stubProvider struct {
	embedder  *stubEmbedder
	generator *stubGenerator
	closed    bool
}

func (s *stubProvider) Embedder() Embedder   { return s.embedder }
func (s *stubProvider) Generator() Generator { return s.generator }
func (s *stubProvider) Close() error {
	s.closed = true
	return nil
}

func testConfig() *Config {
	return NewConfig(WithRetry(3, time.Millisecond), WithCallTimeout(50*time.Millisecond))
}

func TestResilientProvider_RetriesTransientFailures(t *testing.T) {
	gen := &stubGenerator{fn: func(_ context.Context, attempt int, out any) error {
		if attempt < 3 {
			return errors.New("connection reset")
		}
		*(out.(*string)) = "ok"
		return nil
	}}
	p := NewResilientProvider(&stubProvider{generator: gen, embedder: &stubEmbedder{}}, testConfig())

	var got string
	err := p.Generator().Generate(context.Background(), "prompt", OutputShape{Name: "test"}, &got)
	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, int32(3), gen.calls.Load())
}

func TestResilientProvider_ExhaustedRetries(t *testing.T) {
	emb := &stubEmbedder{fn: func(context.Context, int) ([]float32, error) {
		return nil, errors.New("503")
	}}
	p := NewResilientProvider(&stubProvider{embedder: emb, generator: &stubGenerator{}}, testConfig())

	_, err := p.Embedder().EmbedText(context.Background(), "text")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUpstreamUnavailable)
	assert.Equal(t, int32(3), emb.calls.Load())
}

func TestResilientProvider_CallTimeout(t *testing.T) {
	emb := &stubEmbedder{fn: func(ctx context.Context, _ int) ([]float32, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}}
	cfg := NewConfig(WithRetry(2, time.Millisecond), WithCallTimeout(10*time.Millisecond))
	p := NewResilientProvider(&stubProvider{embedder: emb, generator: &stubGenerator{}}, cfg)

	_, err := p.Embedder().EmbedText(context.Background(), "text")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUpstreamUnavailable)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestResilientProvider_PermanentNotRetried(t *testing.T) {
	gen := &stubGenerator{fn: func(context.Context, int, any) error {
		return Permanent(ErrInvalidResponse)
	}}
	p := NewResilientProvider(&stubProvider{generator: gen, embedder: &stubEmbedder{}}, testConfig())

	var out string
	err := p.Generator().Generate(context.Background(), "prompt", OutputShape{Name: "test"}, &out)
	assert.ErrorIs(t, err, ErrInvalidResponse)
	assert.NotErrorIs(t, err, ErrUpstreamUnavailable)
	assert.Equal(t, int32(1), gen.calls.Load())
}

func TestResilientProvider_CallerCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	gen := &stubGenerator{fn: func(context.Context, int, any) error {
		cancel()
		return errors.New("interrupted")
	}}
	p := NewResilientProvider(&stubProvider{generator: gen, embedder: &stubEmbedder{}}, testConfig())

	var out string
	err := p.Generator().Generate(ctx, "prompt", OutputShape{Name: "test"}, &out)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, ErrUpstreamUnavailable)
}

func TestResilientProvider_Close(t *testing.T) {
	inner := &stubProvider{embedder: &stubEmbedder{}, generator: &stubGenerator{}}
	p := NewResilientProvider(inner, testConfig())
	require.NoError(t, p.Close())
	assert.True(t, inner.closed)
}
