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
	"fmt"
	"time"

	"golang.org/x/time/rate"
)

// guard applies rate limiting, a per-call timeout and bounded retry to an upstream call.
type guard struct {
	limiter     *rate.Limiter
	timeout     time.Duration
	maxAttempts int
	delay       time.Duration
}

func newGuard(cfg *Config) *guard {
	limit := rate.Inf
	burst := 1
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
		burst = max(1, int(cfg.RequestsPerSecond))
	}
	attempts := cfg.MaxRetries
	if attempts < 1 {
		attempts = 1
	}
	return &guard{
		limiter:     rate.NewLimiter(limit, burst),
		timeout:     cfg.CallTimeout,
		maxAttempts: attempts,
		delay:       cfg.RetryDelay,
	}
}

func (g *guard) do(ctx context.Context, name string, op func(ctx context.Context) error) error {
	err := RetryWithBackoff(ctx, func() error {
		if err := g.limiter.Wait(ctx); err != nil {
			return err
		}
		callCtx, cancel := ctx, context.CancelFunc(func() {})
		if g.timeout > 0 {
			callCtx, cancel = context.WithTimeout(ctx, g.timeout)
		}
		defer cancel()
		return op(callCtx)
	}, g.maxAttempts, g.delay)
	if err == nil {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if IsPermanent(err) {
		return err
	}
	return fmt.Errorf("%w: %s: %w", ErrUpstreamUnavailable, name, err)
}

type resilientEmbedder struct {
	inner Embedder
	guard *guard
}

func (r *resilientEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	var out []float32
	err := r.guard.do(ctx, "embed", func(ctx context.Context) error {
		v, err := r.inner.EmbedText(ctx, text)
		out = v
		return err
	})
	return out, err
}

func (r *resilientEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	var out [][]float32
	err := r.guard.do(ctx, "embed batch", func(ctx context.Context) error {
		v, err := r.inner.EmbedTexts(ctx, texts)
		out = v
		return err
	})
	return out, err
}

type resilientGenerator struct {
	inner Generator
	guard *guard
}

func (r *resilientGenerator) Generate(ctx context.Context, prompt string, shape OutputShape, out any) error {
	return r.guard.do(ctx, "generate "+shape.Name, func(ctx context.Context) error {
		return r.inner.Generate(ctx, prompt, shape, out)
	})
}

// ResilientProvider decorates an AIProvider so every call is rate limited,
// bounded by Config.CallTimeout and retried with backoff. Calls that still fail
// are reported as ErrUpstreamUnavailable. Cancellation of the caller's context
// is returned unchanged.
type ResilientProvider struct {
	inner     AIProvider
	embedder  *resilientEmbedder
	generator *resilientGenerator
}

// NewResilientProvider wraps inner using the timeout, retry and rate settings from cfg.
// Embedding and generation share one rate limiter.
func NewResilientProvider(inner AIProvider, cfg *Config) *ResilientProvider {
	g := newGuard(cfg)
	return &ResilientProvider{
		inner:     inner,
		embedder:  &resilientEmbedder{inner: inner.Embedder(), guard: g},
		generator: &resilientGenerator{inner: inner.Generator(), guard: g},
	}
}

func (p *ResilientProvider) Embedder() Embedder {
	return p.embedder
}

func (p *ResilientProvider) Generator() Generator {
	return p.generator
}

func (p *ResilientProvider) Close() error {
	return p.inner.Close()
}
