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


// Package ingestion populates the faculty corpus index.
//
// LoadCorpus reads the corpus file, a JSON object keyed by faculty name:
//
//	{
//	  "Alice Smith": {
//	    "biography": "...",
//	    "research_topics": ["distributed systems", "consensus"],
//	    "photo": "https://..."
//	  }
//	}
//
// Pipeline embeds profiles in batches on a worker pool and stores them with
// their vectors, replacing entries with the same name. Every run returns a
// Report counting succeeded, degraded and failed profiles. A degraded profile
// has neither biography nor research topics; it is indexed but can only match
// on its name. A failed profile is reported with its error and never aborts
// the remaining batches.
package ingestion
