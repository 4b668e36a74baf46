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
	"errors"
	"testing"

	"github.com/poiesic/committee/ai"
	"github.com/poiesic/committee/ai/mock"
	"github.com/poiesic/committee/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewExpander(t *testing.T) {
	_, err := NewExpander(nil)
	assert.ErrorIs(t, err, ErrGeneratorRequired)

	e, err := NewExpander(mock.NewMockGenerator(), WithVariantCount(3), WithExpanderLogger(nil))
	require.NoError(t, err)
	assert.Equal(t, 3, e.variantCount)

	e, err = NewExpander(mock.NewMockGenerator(), WithVariantCount(0))
	require.NoError(t, err)
	assert.Equal(t, DefaultVariantCount, e.variantCount)
}

func TestExpander_ExtractKeywords(t *testing.T) {
	gen := mock.NewMockGenerator().
		WithResponse(keywordShape.Name, `{"keywords": ["consensus", "edge computing", "raft", " ", "consensus"]}`)
	e, err := NewExpander(gen)
	require.NoError(t, err)

	keywords, err := e.ExtractKeywords(context.Background(), "title", "abstract", core.ParseKeywords("raft; distributed systems"))
	require.NoError(t, err)
	assert.Equal(t, []string{"consensus", "distributed systems", "edge computing", "raft"}, keywords.Sorted())

	prompts := gen.Prompts()
	require.Len(t, prompts, 1)
	assert.Contains(t, prompts[0], `"title"`)
	assert.Contains(t, prompts[0], "Abstract: abstract")
}

func TestExpander_ExtractKeywordsError(t *testing.T) {
	gen := mock.NewMockGenerator()
	gen.GenerateFunc = func(context.Context, string, ai.OutputShape, any) error {
		return ai.ErrUpstreamUnavailable
	}
	e, err := NewExpander(gen)
	require.NoError(t, err)

	_, err = e.ExtractKeywords(context.Background(), "t", "", nil)
	assert.ErrorIs(t, err, ai.ErrUpstreamUnavailable)
}

func TestExpander_GenerateTitleVariants(t *testing.T) {
	tests := []struct {
		name     string
		count    int
		response string
		want     []string
	}{
		{
			name:     "exact count",
			count:    2,
			response: `{"titles": ["A", "B"]}`,
			want:     []string{"A", "B"},
		},
		{
			name:     "surplus is cut",
			count:    2,
			response: `{"titles": ["A", "B", "C"]}`,
			want:     []string{"A", "B"},
		},
		{
			name:     "blank and padded entries",
			count:    3,
			response: `{"titles": ["  A ", "", "B"]}`,
			want:     []string{"A", "B"},
		},
		{
			name:     "duplicates kept",
			count:    3,
			response: `{"titles": ["A", "A", "B"]}`,
			want:     []string{"A", "A", "B"},
		},
		{
			name:     "empty reply",
			count:    5,
			response: `{}`,
			want:     []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := mock.NewMockGenerator().WithResponse(variantShape.Name, tt.response)
			e, err := NewExpander(gen, WithVariantCount(tt.count))
			require.NoError(t, err)

			got, err := e.GenerateTitleVariants(context.Background(), "title", "", core.NewKeywordSet("k"))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExpander_Expand(t *testing.T) {
	gen := mock.NewMockGenerator().
		WithResponse(keywordShape.Name, `{"keywords": ["consensus"]}`).
		WithResponse(variantShape.Name, `{"titles": ["V1", "V2", "V3", "V4", "V5"]}`)
	e, err := NewExpander(gen)
	require.NoError(t, err)

	query, err := e.Expand(context.Background(), core.Thesis{
		Title:    "Distributed Consensus in Edge Networks",
		Abstract: "",
		Keywords: "raft;distributed systems",
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"V1", "V2", "V3", "V4", "V5", "Distributed Consensus in Edge Networks", ""}, query.Titles)
	assert.Equal(t, []string{"consensus", "distributed systems", "raft"}, query.Keywords.Sorted())
	assert.Equal(t, 2, gen.CallCount())
}

func TestExpander_ExpandNamesFailingStage(t *testing.T) {
	gen := mock.NewMockGenerator()
	gen.GenerateFunc = func(_ context.Context, _ string, shape ai.OutputShape, out any) error {
		if shape.Name == variantShape.Name {
			return errors.New("model overloaded")
		}
		return nil
	}
	e, err := NewExpander(gen)
	require.NoError(t, err)

	_, err = e.Expand(context.Background(), core.Thesis{Title: "t"}, nil)
	require.Error(t, err)

	var se *StageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, StageGenerateVariants, se.Stage)
	assert.Contains(t, err.Error(), "generate-variants: model overloaded")
}
