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


package core

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Candidate is a faculty member under consideration plus the evidence accumulated for them
// during one pipeline run. Candidates are never persisted.
type Candidate struct {
	Name           string
	Biography      string
	ResearchTopics []string
	Photo          string

	// Evidence holds one similarity score per retrieval hit, in arrival order.
	// Scores are not averaged on insert; see MeanSimilarity.
	Evidence []float32

	// MatchCount counts the retrieval hits that resolved to this name.
	// It is incremented per hit and may diverge from len(Evidence).
	MatchCount int

	// Relevant is nil until a judgment is reconciled onto the candidate.
	Relevant *bool

	// Justification is nil until a judgment is reconciled onto the candidate.
	Justification *string
}

// Placeholder returns the empty candidate that stands in for an unparseable record.
func Placeholder() *Candidate {
	return &Candidate{}
}

// IsPlaceholder reports whether the candidate has no identity.
func (c *Candidate) IsPlaceholder() bool {
	return c.Name == ""
}

// Judged reports whether a relevance judgment has been applied.
// An unjudged candidate is "unknown", which is distinct from "not relevant".
func (c *Candidate) Judged() bool {
	return c.Relevant != nil
}

// IsRelevant reports whether the candidate was judged relevant.
func (c *Candidate) IsRelevant() bool {
	return c.Relevant != nil && *c.Relevant
}

// MeanSimilarity averages the evidence scores. Returns 0 when there is no evidence.
func (c *Candidate) MeanSimilarity() float32 {
	if len(c.Evidence) == 0 {
		return 0
	}
	var sum float32
	for _, s := range c.Evidence {
		sum += s
	}
	return sum / float32(len(c.Evidence))
}

// Profile returns the profile fields of the candidate.
func (c *Candidate) Profile() FacultyProfile {
	return FacultyProfile{
		Name:           c.Name,
		Biography:      c.Biography,
		ResearchTopics: c.ResearchTopics,
		Photo:          c.Photo,
	}
}

// NewCandidate builds a candidate from a profile with no evidence attached.
func NewCandidate(profile FacultyProfile) *Candidate {
	return &Candidate{
		Name:           profile.Name,
		Biography:      profile.Biography,
		ResearchTopics: profile.ResearchTopics,
		Photo:          profile.Photo,
	}
}

// EncodeProfile serializes a profile into the document format kept in the index.
func EncodeProfile(profile *FacultyProfile) (string, error) {
	data, err := json.Marshal(profile)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// DecodeProfile parses an index document. The document must be a JSON object.
func DecodeProfile(document string) (*FacultyProfile, error) {
	trimmed := bytes.TrimSpace([]byte(document))
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, fmt.Errorf("%w: document is not an object", ErrMalformedRecord)
	}
	var profile FacultyProfile
	if err := json.Unmarshal(trimmed, &profile); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedRecord, err)
	}
	return &profile, nil
}

// CandidateFromDocument turns a similarity hit into a candidate carrying exactly one score.
// A document that cannot be parsed yields a placeholder together with an ErrMalformedRecord
// error; the placeholder is always non-nil so callers can degrade instead of failing.
func CandidateFromDocument(document string, score float32) (*Candidate, error) {
	profile, err := DecodeProfile(document)
	if err != nil {
		return Placeholder(), err
	}
	c := NewCandidate(*profile)
	c.Evidence = []float32{score}
	return c, nil
}

// Judgment is one relevance verdict returned by the generation service.
// It is merged onto a Candidate by exact name and then discarded.
type Judgment struct {
	Name          string `json:"name"`
	Relevant      *bool  `json:"relevant"`
	Justification string `json:"justification"`
}
