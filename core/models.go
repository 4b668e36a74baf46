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
	"encoding/binary"
	"strings"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for corpus entries.
// It is derived from content so the same faculty name always maps to the same entry.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// FacultyProfile is one faculty member as described by the corpus.
// The name is the identity; there is no other stable key across data sources.
type FacultyProfile struct {
	Name           string   `json:"name"`
	Biography      string   `json:"biography,omitempty"`
	ResearchTopics []string `json:"research_topics,omitempty"`
	Photo          string   `json:"photo,omitempty"`
}

// EmbeddingText returns the text that is embedded for similarity search.
func (p *FacultyProfile) EmbeddingText() string {
	var sb strings.Builder
	sb.WriteString(p.Name)
	if p.Biography != "" {
		sb.WriteString("\n")
		sb.WriteString(p.Biography)
	}
	if len(p.ResearchTopics) > 0 {
		sb.WriteString("\nResearch topics: ")
		sb.WriteString(strings.Join(p.ResearchTopics, "; "))
	}
	return sb.String()
}

// IsSparse reports whether the profile carries no biography and no research topics.
// Sparse profiles are still indexed but can only ever match on their name.
func (p *FacultyProfile) IsSparse() bool {
	return strings.TrimSpace(p.Biography) == "" && len(p.ResearchTopics) == 0
}

// IndexEntry is a corpus record as held by the vector store.
// Document is the opaque serialized profile handed back by similarity search.
type IndexEntry struct {
	Id         ID
	Name       string
	Document   string
	Vector     []float32 // Normalized embedding of the profile text
	InsertedAt time.Time
	UpdatedAt  time.Time
}

// SearchHit is a raw similarity search result: the opaque stored record and its score.
// Higher scores are more similar; the scale belongs to the embedding backend.
type SearchHit struct {
	Document string
	Score    float32
}

// Manifest describes how a corpus index was built.
type Manifest struct {
	EmbeddingModel string
	Dimensions     int
	Entries        int
	UpdatedAt      time.Time

	// PendingModel is set while a re-embedding run towards it is unfinished.
	// The index then mixes vectors from two models and must not be searched.
	PendingModel string
}

// Thesis is the user input a committee is suggested for.
type Thesis struct {
	Title    string
	Abstract string
	Keywords string // ';'-separated
}
