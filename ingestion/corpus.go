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


package ingestion

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/poiesic/committee/core"
)

// corpusRecord is one value of the corpus object; the key is the name.
type corpusRecord struct {
	Biography      string   `json:"biography"`
	ResearchTopics []string `json:"research_topics"`
	Photo          string   `json:"photo"`
}

// LoadCorpus decodes a corpus document into profiles ordered by name.
// Blank research topics are dropped and surrounding whitespace is trimmed.
// Keys that collide once trimmed are rejected with ErrDuplicateProfile.
func LoadCorpus(r io.Reader) ([]core.FacultyProfile, error) {
	var raw map[string]corpusRecord
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCorpus, err)
	}

	profiles := make([]core.FacultyProfile, 0, len(raw))
	keys := make(map[string]string, len(raw))
	for name, rec := range raw {
		trimmed := strings.TrimSpace(name)
		if other, ok := keys[trimmed]; ok {
			first, second := min(other, name), max(other, name)
			return nil, fmt.Errorf("%w: %w: %q and %q", ErrInvalidCorpus, ErrDuplicateProfile, first, second)
		}
		keys[trimmed] = name

		topics := make([]string, 0, len(rec.ResearchTopics))
		for _, t := range rec.ResearchTopics {
			if t = strings.TrimSpace(t); t != "" {
				topics = append(topics, t)
			}
		}
		profiles = append(profiles, core.FacultyProfile{
			Name:           trimmed,
			Biography:      strings.TrimSpace(rec.Biography),
			ResearchTopics: topics,
			Photo:          strings.TrimSpace(rec.Photo),
		})
	}

	slices.SortFunc(profiles, func(a, b core.FacultyProfile) int {
		return strings.Compare(a.Name, b.Name)
	})
	return profiles, nil
}

// LoadCorpusFile reads a corpus document from path.
func LoadCorpusFile(path string) ([]core.FacultyProfile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return LoadCorpus(f)
}
