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
	"slices"
	"strings"
)

// KeywordSet is an unordered set of topic keywords.
type KeywordSet map[string]struct{}

// NewKeywordSet builds a set from the given words. Words are trimmed; blank words are skipped.
func NewKeywordSet(words ...string) KeywordSet {
	ks := make(KeywordSet, len(words))
	for _, w := range words {
		ks.Add(w)
	}
	return ks
}

// ParseKeywords splits user input on ';' into a KeywordSet.
func ParseKeywords(s string) KeywordSet {
	return NewKeywordSet(strings.Split(s, ";")...)
}

// Add inserts a keyword. Returns false for blank words and duplicates.
func (ks KeywordSet) Add(word string) bool {
	word = strings.TrimSpace(word)
	if word == "" {
		return false
	}
	if _, ok := ks[word]; ok {
		return false
	}
	ks[word] = struct{}{}
	return true
}

// Union returns a new set holding the keywords of both sets.
func (ks KeywordSet) Union(other KeywordSet) KeywordSet {
	out := make(KeywordSet, len(ks)+len(other))
	for w := range ks {
		out[w] = struct{}{}
	}
	for w := range other {
		out[w] = struct{}{}
	}
	return out
}

func (ks KeywordSet) Contains(word string) bool {
	_, ok := ks[strings.TrimSpace(word)]
	return ok
}

func (ks KeywordSet) Len() int {
	return len(ks)
}

// Sorted returns the keywords in lexical order so prompts and queries are stable.
func (ks KeywordSet) Sorted() []string {
	out := make([]string, 0, len(ks))
	for w := range ks {
		out = append(out, w)
	}
	slices.Sort(out)
	return out
}

// String joins the sorted keywords with ", ".
func (ks KeywordSet) String() string {
	return strings.Join(ks.Sorted(), ", ")
}

// QueryVariantSet is the expanded query: title-like strings plus topic keywords.
// Titles are not deduplicated; repeated text weighs more in aggregation.
type QueryVariantSet struct {
	Titles   []string
	Keywords KeywordSet
}

// Queries returns one similarity query per title, each followed by the keyword set.
// A blank title yields the keywords alone; the result may be empty when both are blank.
func (q QueryVariantSet) Queries() []string {
	suffix := q.Keywords.String()
	out := make([]string, len(q.Titles))
	for i, t := range q.Titles {
		out[i] = strings.TrimSpace(strings.TrimSpace(t) + " " + suffix)
	}
	return out
}
