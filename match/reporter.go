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
	"log/slog"

	"github.com/poiesic/committee/core"
)

// Reporter receives progress callbacks while a pipeline runs.
// Retrieved and BatchVerified may be called from several goroutines at once.
type Reporter interface {
	StageStarted(stage Stage)
	KeywordsExtracted(keywords core.KeywordSet)
	VariantsGenerated(titles []string)
	Retrieved(query string, candidates []*core.Candidate)
	Aggregated(ranked []*core.Candidate)
	BatchVerified(batch int, judgments []core.Judgment, err error)
	Finished(result *Result)
}

// noopReporter is a no-op implementation of Reporter
type noopReporter struct{}

var _ Reporter = (*noopReporter)(nil)

func (noopReporter) StageStarted(Stage) {}
func (noopReporter) KeywordsExtracted(core.KeywordSet) {}
func (noopReporter) VariantsGenerated([]string) {}
func (noopReporter) Retrieved(string, []*core.Candidate) {}
func (noopReporter) Aggregated([]*core.Candidate) {}
func (noopReporter) BatchVerified(int, []core.Judgment, error) {}
func (noopReporter) Finished(*Result) {}

// LogReporter writes progress to a structured logger at INFO level.
type LogReporter struct {
	logger *slog.Logger
}

var _ Reporter = (*LogReporter)(nil)

// NewLogReporter creates a reporter that logs through logger.
// A nil logger falls back to slog.Default().
func NewLogReporter(logger *slog.Logger) *LogReporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogReporter{logger: logger.With("component", "progress")}
}

func (r *LogReporter) StageStarted(stage Stage) {
	r.logger.Info("stage started", "stage", string(stage))
}

func (r *LogReporter) KeywordsExtracted(keywords core.KeywordSet) {
	r.logger.Info("keywords extracted", "count", keywords.Len(), "keywords", keywords.Sorted())
}

func (r *LogReporter) VariantsGenerated(titles []string) {
	r.logger.Info("title variants generated", "count", len(titles), "titles", titles)
}

func (r *LogReporter) Retrieved(query string, candidates []*core.Candidate) {
	r.logger.Debug("query retrieved", "query", query, "hits", len(candidates))
}

func (r *LogReporter) Aggregated(ranked []*core.Candidate) {
	r.logger.Info("candidates aggregated", "candidates", len(ranked))
}

func (r *LogReporter) BatchVerified(batch int, judgments []core.Judgment, err error) {
	if err != nil {
		r.logger.Warn("batch verification failed", "batch", batch, "err", err)
		return
	}
	r.logger.Debug("batch verified", "batch", batch, "judgments", len(judgments))
}

func (r *LogReporter) Finished(result *Result) {
	r.logger.Info("committee suggestion ready",
		"candidates", len(result.Candidates),
		"relevant", len(result.Relevant()),
		"unjudged", len(result.Unjudged()))
}
