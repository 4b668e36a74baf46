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


package main

import (
	"bytes"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/poiesic/committee/core"
	"github.com/poiesic/committee/match"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

func testApp() *cli.App {
	app := newApp()
	app.Writer = io.Discard
	app.ErrWriter = io.Discard
	return app
}

func findCommand(t *testing.T, app *cli.App, name string) *cli.Command {
	t.Helper()
	for _, cmd := range app.Commands {
		if cmd.Name == name {
			return cmd
		}
	}
	t.Fatalf("command %q not found", name)
	return nil
}

func TestRequiredFlags(t *testing.T) {
	t.Setenv("COMMITTEE_CONFIG", "")

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"suggest requires title", []string{"committee", "suggest", "--abstract", "x"}, "title"},
		{"ingest requires corpus", []string{"committee", "ingest"}, "corpus"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := testApp().Run(tt.args)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestCommandValidation(t *testing.T) {
	t.Setenv("COMMITTEE_CONFIG", "")

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"blank title", []string{"committee", "suggest", "--title", "   "}, "title is required"},
		{"missing query", []string{"committee", "search"}, "query is required"},
		{"zero batch size", []string{"committee", "reembed", "--batch-size", "0"}, "batch-size must be greater than 0"},
		{"zero report interval", []string{"committee", "reembed", "--report-interval", "0"}, "report-interval must be greater than 0"},
		{"zero retries", []string{"committee", "reembed", "--max-retries", "0"}, "max-retries must be greater than 0"},
		{"missing corpus file", []string{"committee", "ingest", "--corpus", filepath.Join(t.TempDir(), "none.json")}, "failed to load corpus"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := testApp().Run(tt.args)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestFlagDefaults(t *testing.T) {
	app := testApp()

	reembedCmd := findCommand(t, app, "reembed")
	for _, flag := range reembedCmd.Flags {
		switch f := flag.(type) {
		case *cli.IntFlag:
			switch f.Name {
			case "batch-size":
				assert.Equal(t, 100, f.Value)
			case "report-interval":
				assert.Equal(t, 100, f.Value)
			case "max-retries":
				assert.Equal(t, 3, f.Value)
			}
		case *cli.StringFlag:
			if f.Name == "embedding-model" {
				assert.Empty(t, f.Value)
				assert.False(t, f.Required)
			}
		}
	}

	searchCmd := findCommand(t, app, "search")
	require.Len(t, searchCmd.Flags, 1)
	kFlag, ok := searchCmd.Flags[0].(*cli.IntFlag)
	require.True(t, ok)
	assert.Equal(t, match.DefaultTopK, kFlag.Value)
}

func TestPrintResult(t *testing.T) {
	yes, no := true, false
	why := "Works on consensus protocols."
	alice := &core.Candidate{
		Name:           "Alice",
		ResearchTopics: []string{"distributed systems", "consensus"},
		Evidence:       []float32{0.8, 0.9},
		MatchCount:     2,
		Relevant:       &yes,
		Justification:  &why,
	}
	bob := &core.Candidate{Name: "Bob", Evidence: []float32{0.5}, MatchCount: 1, Relevant: &no}
	carol := &core.Candidate{Name: "Carol", Evidence: []float32{0.4}, MatchCount: 1}

	result := &match.Result{
		Keywords:   core.NewKeywordSet("consensus", "raft"),
		Candidates: []*core.Candidate{alice, bob, carol},
	}

	t.Run("all candidates", func(t *testing.T) {
		var buf bytes.Buffer
		printResult(&buf, "Consensus at scale", result, false)
		out := buf.String()

		assert.Contains(t, out, `Committee suggestions for "Consensus at scale"`)
		assert.Contains(t, out, "Keywords: consensus, raft")
		assert.Contains(t, out, " 1. Alice  [relevant]  matches=2  similarity=85.0")
		assert.Contains(t, out, "    Topics: distributed systems, consensus")
		assert.Contains(t, out, "    Works on consensus protocols.")
		assert.Contains(t, out, " 2. Bob  [not relevant]  matches=1  similarity=50.0")
		assert.Contains(t, out, " 3. Carol  [unknown]  matches=1  similarity=40.0")
		assert.Contains(t, out, "1 candidate(s) could not be judged.")
	})

	t.Run("relevant only", func(t *testing.T) {
		var buf bytes.Buffer
		printResult(&buf, "Consensus at scale", result, true)
		out := buf.String()

		assert.Contains(t, out, " 1. Alice")
		assert.NotContains(t, out, "Bob")
		assert.NotContains(t, out, "Carol  [")
	})

	t.Run("empty", func(t *testing.T) {
		var buf bytes.Buffer
		printResult(&buf, "Nothing", &match.Result{Keywords: core.NewKeywordSet()}, false)
		assert.Contains(t, buf.String(), "No candidates found.")
	})
}

func TestSetupLogger(t *testing.T) {
	originalLogger := slog.Default()
	defer slog.SetDefault(originalLogger)

	tests := []struct {
		name    string
		level   string
		want    slog.Level
		wantErr bool
	}{
		{name: "debug", level: "debug", want: slog.LevelDebug},
		{name: "info", level: "info", want: slog.LevelInfo},
		{name: "warn", level: "warn", want: slog.LevelWarn},
		{name: "error", level: "error", want: slog.LevelError},
		{name: "case insensitive", level: "DEBUG", want: slog.LevelDebug},
		{name: "invalid", level: "verbose", wantErr: true},
		{name: "empty", level: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := &cli.App{
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "log-level", Value: "info"},
				},
				Action: setupLogger,
			}
			err := app.Run([]string{"test", "--log-level", tt.level})
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "invalid log level")
				return
			}
			require.NoError(t, err)

			ctx := t.Context()
			logger := slog.Default()
			assert.True(t, logger.Enabled(ctx, tt.want))
			if tt.want > slog.LevelDebug {
				assert.False(t, logger.Enabled(ctx, tt.want-4))
			}
		})
	}
}

func TestLogLevelAlias(t *testing.T) {
	originalLogger := slog.Default()
	defer slog.SetDefault(originalLogger)

	err := testApp().Run([]string{"committee", "-l", "bogus", "search", "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid log level")
}
