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
	"encoding/json"
	"fmt"
	"strings"

	"github.com/poiesic/committee/ai"
	"github.com/poiesic/committee/core"
)

var keywordShape = ai.OutputShape{
	Name: "keyword_list",
	Schema: `{
  "type": "object",
  "properties": {
    "keywords": {
      "type": "array",
      "minItems": 5,
      "items": {"type": "string"}
    }
  },
  "required": ["keywords"],
  "additionalProperties": false
}`,
}

var variantShape = ai.OutputShape{
	Name: "title_variants",
	Schema: `{
  "type": "object",
  "properties": {
    "titles": {
      "type": "array",
      "minItems": %[1]d,
      "maxItems": %[1]d,
      "items": {"type": "string"}
    }
  },
  "required": ["titles"],
  "additionalProperties": false
}`,
}

var judgmentShape = ai.OutputShape{
	Name: "relevance_judgments",
	Schema: `{
  "type": "object",
  "properties": {
    "judgments": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "name": {"type": "string"},
          "relevant": {"type": "boolean"},
          "justification": {"type": "string"}
        },
        "required": ["name", "relevant", "justification"],
        "additionalProperties": false
      }
    }
  },
  "required": ["judgments"],
  "additionalProperties": false
}`,
}

type keywordReply struct {
	Keywords []string `json:"keywords"`
}

type variantReply struct {
	Titles []string `json:"titles"`
}

type judgmentReply struct {
	Judgments []core.Judgment `json:"judgments"`
}

func variantShapeFor(count int) ai.OutputShape {
	return ai.OutputShape{
		Name:   variantShape.Name,
		Schema: fmt.Sprintf(variantShape.Schema, count),
	}
}

const keywordPromptTemplate = `From the master's thesis title %q and the abstract below, extract the research areas and topic keywords of the work.
Return at least 5 keywords.

Abstract: %s

Consider the following questions when choosing keywords:
- Which field of knowledge does the work belong to? Which undergraduate course is closest to the subject?
- What are the main objectives of the work? Which keywords describe its general theme?
- What does the work set out to investigate? Which question does it try to answer?`

const variantPromptTemplate = `Suggest exactly %d new titles for the master's thesis titled %q with keywords: %s.

Abstract: %s

Highlight some of the keywords in each title and use them as the basis for the new variations, combining them in different ways.`

const verifyPromptTemplate = `You assist in choosing examination committees for master's theses.
You receive several possible titles for a master's thesis, its abstract and a list of keywords describing its research area and objectives.
You also receive a list of professors who may be candidates to evaluate the thesis. For each professor, state in the "relevant" field whether the professor is relevant to the thesis.
For each professor, give a one-paragraph justification of their relevance or lack of relevance, citing the professor's relevant research areas.
Professors should be chosen for their familiarity with any of the subjects covered by the thesis.
Copy each professor's name exactly as given.

Titles: %s
Abstract: %s
Keywords: %s

Professors:
%s`

func buildKeywordPrompt(title, abstract string) string {
	return fmt.Sprintf(keywordPromptTemplate, title, abstract)
}

func buildVariantPrompt(count int, title, abstract string, keywords core.KeywordSet) string {
	return fmt.Sprintf(variantPromptTemplate, count, title, keywords.String(), abstract)
}

// candidateSummary is the compact per-candidate record shown to the verifier.
type candidateSummary struct {
	Name           string   `json:"name"`
	Biography      string   `json:"biography"`
	ResearchTopics []string `json:"research_topics"`
}

func buildVerifyPrompt(abstract string, query core.QueryVariantSet, batch []*core.Candidate) (string, error) {
	titles, err := json.Marshal(query.Titles)
	if err != nil {
		return "", err
	}

	lines := make([]string, 0, len(batch))
	for _, c := range batch {
		line, err := json.Marshal(candidateSummary{
			Name:           c.Name,
			Biography:      c.Biography,
			ResearchTopics: c.ResearchTopics,
		})
		if err != nil {
			return "", err
		}
		lines = append(lines, string(line))
	}

	return fmt.Sprintf(verifyPromptTemplate,
		titles,
		abstract,
		query.Keywords.String(),
		strings.Join(lines, "\n")), nil
}
