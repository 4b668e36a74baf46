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
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/poiesic/committee"
	"github.com/poiesic/committee/ai"
	"github.com/poiesic/committee/config"
	"github.com/poiesic/committee/core"
	"github.com/poiesic/committee/ingestion"
	"github.com/poiesic/committee/match"
	"github.com/poiesic/committee/reembed"
	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "committee",
		Usage: "Suggest thesis committee members from a faculty corpus",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to YAML configuration file",
				EnvVars: []string{"COMMITTEE_CONFIG"},
			},
			&cli.StringFlag{
				Name:    "db",
				Aliases: []string{"d"},
				Usage:   "Path to BadgerDB faculty index directory",
			},
			&cli.StringFlag{
				Name:    "model",
				Aliases: []string{"m"},
				Usage:   "Model family (chatgpt, gemini, ollama)",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "suggest",
				Usage:  "Suggest committee members for a thesis",
				Action: suggestCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "title",
						Aliases:  []string{"t"},
						Usage:    "Thesis title",
						Required: true,
					},
					&cli.StringFlag{
						Name:    "abstract",
						Aliases: []string{"a"},
						Usage:   "Thesis abstract",
					},
					&cli.StringFlag{
						Name:  "abstract-file",
						Usage: "Read the thesis abstract from a file",
					},
					&cli.StringFlag{
						Name:    "keywords",
						Aliases: []string{"k"},
						Usage:   "Keywords separated by ';'",
					},
					&cli.IntFlag{
						Name:  "top-k",
						Usage: "Faculty members retrieved per query variant",
					},
					&cli.StringFlag{
						Name:  "failure-policy",
						Usage: "What a failed verification batch does (fail-fast, best-effort)",
					},
					&cli.BoolFlag{
						Name:  "relevant-only",
						Usage: "Only print candidates judged relevant",
					},
				},
			},
			{
				Name:   "ingest",
				Usage:  "Embed a faculty corpus into the index",
				Action: ingestCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "corpus",
						Usage:    "Path to the corpus JSON file",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of profiles embedded per request",
						Value: ingestion.DefaultBatchSize,
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Number of concurrent embedding requests",
						Value: 2,
					},
				},
			},
			{
				Name:      "search",
				Usage:     "Run a raw similarity search against the index",
				ArgsUsage: "<query>",
				Action:    searchCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "k",
						Usage: "Number of hits",
						Value: match.DefaultTopK,
					},
				},
			},
			{
				Name:   "reembed",
				Usage:  "Re-embed every faculty entry with the configured embedding model",
				Action: reembedCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "embedding-model",
						Usage: "Embedding model name (overrides the model preset)",
					},
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of entries to process in each batch",
						Value: reembed.DefaultBatchSize,
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N entries",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum retry attempts for failed operations",
						Value: 3,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff",
						Value: 1 * time.Second,
					},
				},
			},
		},
	}
}

// loadConfig reads the configuration file and applies global flag overrides.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}
	if c.IsSet("db") {
		cfg.Database.Path = c.String("db")
	}
	if c.IsSet("model") {
		cfg.AI.Model = c.String("model")
	}
	return cfg, nil
}

func openDatabase(cfg *config.Config, extra ...ai.ConfigOption) (*committee.Database, error) {
	aiConfig, err := cfg.AIConfig(extra...)
	if err != nil {
		return nil, err
	}
	db, err := committee.NewDatabase(cfg.Database.Path, committee.WithAIConfig(aiConfig))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

func suggestCommand(c *cli.Context) error {
	ctx := c.Context

	title := strings.TrimSpace(c.String("title"))
	if title == "" {
		return fmt.Errorf("title is required")
	}
	abstract := c.String("abstract")
	if path := c.String("abstract-file"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read abstract: %w", err)
		}
		abstract = string(data)
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if c.IsSet("top-k") {
		cfg.Pipeline.TopK = c.Int("top-k")
	}
	if c.IsSet("failure-policy") {
		cfg.Pipeline.FailurePolicy = c.String("failure-policy")
	}
	settings, err := cfg.Pipeline.Settings()
	if err != nil {
		return err
	}

	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	pipeline, err := db.NewPipeline(ctx,
		match.WithSettings(settings),
		match.WithReporter(match.NewLogReporter(slog.Default())))
	if err != nil {
		return err
	}
	defer pipeline.Release()

	result, err := pipeline.Run(ctx, core.Thesis{Title: title, Abstract: abstract, Keywords: c.String("keywords")})
	if err != nil {
		return fmt.Errorf("suggestion failed: %w", err)
	}

	printResult(c.App.Writer, title, result, c.Bool("relevant-only"))
	return nil
}

// printResult writes the ranked candidates. Mean similarity is shown as a
// percentage; candidates without a verdict are marked unknown.
func printResult(w io.Writer, title string, result *match.Result, relevantOnly bool) {
	fmt.Fprintf(w, "Committee suggestions for %q\n", title)
	fmt.Fprintf(w, "Keywords: %s\n\n", result.Keywords)

	candidates := result.Candidates
	if relevantOnly {
		candidates = result.Relevant()
	}
	if len(candidates) == 0 {
		fmt.Fprintln(w, "No candidates found.")
		return
	}

	for i, cand := range candidates {
		verdict := "unknown"
		if cand.Judged() {
			verdict = "not relevant"
			if cand.IsRelevant() {
				verdict = "relevant"
			}
		}
		fmt.Fprintf(w, "%2d. %s  [%s]  matches=%d  similarity=%.1f\n",
			i+1, cand.Name, verdict, cand.MatchCount, cand.MeanSimilarity()*100)
		if len(cand.ResearchTopics) > 0 {
			fmt.Fprintf(w, "    Topics: %s\n", strings.Join(cand.ResearchTopics, ", "))
		}
		if cand.Justification != nil && *cand.Justification != "" {
			fmt.Fprintf(w, "    %s\n", *cand.Justification)
		}
	}

	if n := len(result.Unjudged()); n > 0 {
		fmt.Fprintf(w, "\n%d candidate(s) could not be judged.\n", n)
	}
}

func ingestCommand(c *cli.Context) error {
	ctx := c.Context

	profiles, err := ingestion.LoadCorpusFile(c.String("corpus"))
	if err != nil {
		return fmt.Errorf("failed to load corpus: %w", err)
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	pipeline, err := db.NewIngestionPipeline(
		ingestion.WithBatchSize(c.Int("batch-size")),
		ingestion.WithPoolSize(c.Int("workers")))
	if err != nil {
		return err
	}
	defer pipeline.Release()

	report, err := pipeline.Ingest(ctx, profiles)
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}

	fmt.Fprintf(c.App.Writer, "Database: %s\nEmbedding model: %s\n%s\n", cfg.Database.Path, db.EmbeddingModel(), report)
	if report.Failed > 0 {
		return report.Err()
	}
	return nil
}

func searchCommand(c *cli.Context) error {
	query := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if query == "" {
		return fmt.Errorf("query is required")
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	retriever, err := db.NewRetriever(c.Context)
	if err != nil {
		return err
	}
	candidates, err := retriever.Search(c.Context, query, c.Int("k"))
	if err != nil {
		return err
	}

	for i, cand := range candidates {
		name := cand.Name
		if cand.IsPlaceholder() {
			name = "(unreadable record)"
		}
		fmt.Fprintf(c.App.Writer, "%2d. %-40s %.4f\n", i+1, name, cand.MeanSimilarity())
	}
	return nil
}

func reembedCommand(c *cli.Context) error {
	reembedConfig := &reembed.Config{
		BatchSize:      c.Int("batch-size"),
		ReportInterval: c.Int("report-interval"),
		MaxRetries:     c.Int("max-retries"),
		RetryDelay:     c.Duration("retry-delay"),
	}
	if reembedConfig.BatchSize <= 0 {
		return fmt.Errorf("batch-size must be greater than 0")
	}
	if reembedConfig.ReportInterval <= 0 {
		return fmt.Errorf("report-interval must be greater than 0")
	}
	if reembedConfig.MaxRetries <= 0 {
		return fmt.Errorf("max-retries must be greater than 0")
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	var extra []ai.ConfigOption
	if m := c.String("embedding-model"); m != "" {
		extra = append(extra, ai.WithEmbeddingModel(m))
	}
	db, err := openDatabase(cfg, extra...)
	if err != nil {
		return err
	}
	defer db.Close()

	reembedder, err := db.NewReembedder(reembedConfig, c.App.ErrWriter)
	if err != nil {
		return err
	}

	fmt.Fprintf(c.App.ErrWriter, "Database: %s\nEmbedding model: %s\n\n", cfg.Database.Path, db.EmbeddingModel())

	if _, err := reembedder.Run(c.Context); err != nil {
		return fmt.Errorf("reembedding failed: %w", err)
	}
	return nil
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
