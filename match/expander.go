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
	"context"
	"log/slog"
	"strings"

	"github.com/poiesic/committee/ai"
	"github.com/poiesic/committee/core"
)

// DefaultVariantCount is how many alternative titles are requested.
const DefaultVariantCount = 5

// Expander turns thesis input into the set of queries used for retrieval.
type Expander struct {
	generator    ai.Generator
	variantCount int
	logger       *slog.Logger
}

// ExpanderOption configures an Expander.
type ExpanderOption func(*Expander)

// WithVariantCount sets how many title variants are requested.
func WithVariantCount(n int) ExpanderOption {
	return func(e *Expander) {
		if n > 0 {
			e.variantCount = n
		}
	}
}

// WithExpanderLogger sets a custom logger.
func WithExpanderLogger(logger *slog.Logger) ExpanderOption {
	return func(e *Expander) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewExpander creates an expander backed by generator.
func NewExpander(generator ai.Generator, opts ...ExpanderOption) (*Expander, error) {
	if generator == nil {
		return nil, ErrGeneratorRequired
	}
	e := &Expander{
		generator:    generator,
		variantCount: DefaultVariantCount,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.With("component", "expander")
	return e, nil
}

// ExtractKeywords asks the generator for topic keywords inferred from title and
// abstract and unions them with the keywords the user supplied.
// Generator failures are returned unchanged; there is no fallback keyword set.
func (e *Expander) ExtractKeywords(ctx context.Context, title, abstract string, userKeywords core.KeywordSet) (core.KeywordSet, error) {
	var reply keywordReply
	if err := e.generator.Generate(ctx, buildKeywordPrompt(title, abstract), keywordShape, &reply); err != nil {
		e.logger.Error("keyword extraction failed", "err", err)
		return nil, err
	}

	extracted := core.NewKeywordSet(reply.Keywords...)
	if extracted.Len() < 5 {
		e.logger.Warn("fewer keywords than requested", "requested", 5, "received", extracted.Len())
	}
	e.logger.Debug("keywords extracted", "extracted", extracted.Len(), "user", userKeywords.Len())

	return extracted.Union(userKeywords), nil
}

// GenerateTitleVariants asks the generator for alternative phrasings of the title
// that recombine the keywords. Blank replies are discarded and surplus replies are
// cut to the requested count. Variants are not deduplicated.
func (e *Expander) GenerateTitleVariants(ctx context.Context, title, abstract string, keywords core.KeywordSet) ([]string, error) {
	var reply variantReply
	prompt := buildVariantPrompt(e.variantCount, title, abstract, keywords)
	if err := e.generator.Generate(ctx, prompt, variantShapeFor(e.variantCount), &reply); err != nil {
		e.logger.Error("title variant generation failed", "err", err)
		return nil, err
	}

	variants := make([]string, 0, e.variantCount)
	for _, v := range reply.Titles {
		if v = strings.TrimSpace(v); v != "" {
			variants = append(variants, v)
		}
	}
	if len(variants) != e.variantCount {
		e.logger.Warn("unexpected number of title variants", "requested", e.variantCount, "received", len(variants))
	}
	if len(variants) > e.variantCount {
		variants = variants[:e.variantCount]
	}

	return variants, nil
}

// Expand runs keyword extraction and variant generation, then appends the
// original title and abstract to the variants.
func (e *Expander) Expand(ctx context.Context, thesis core.Thesis, reporter Reporter) (core.QueryVariantSet, error) {
	if reporter == nil {
		reporter = noopReporter{}
	}

	reporter.StageStarted(StageExtractKeywords)
	keywords, err := e.ExtractKeywords(ctx, thesis.Title, thesis.Abstract, core.ParseKeywords(thesis.Keywords))
	if err != nil {
		return core.QueryVariantSet{}, stageError(StageExtractKeywords, err)
	}
	reporter.KeywordsExtracted(keywords)

	reporter.StageStarted(StageGenerateVariants)
	variants, err := e.GenerateTitleVariants(ctx, thesis.Title, thesis.Abstract, keywords)
	if err != nil {
		return core.QueryVariantSet{}, stageError(StageGenerateVariants, err)
	}
	reporter.VariantsGenerated(variants)

	titles := append(variants, thesis.Title, thesis.Abstract)
	return core.QueryVariantSet{Titles: titles, Keywords: keywords}, nil
}
