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


// Package config assembles runtime settings from an optional YAML file, a
// .env file and COMMITTEE_* environment variables, in increasing precedence.
//
// Example file:
//
//	database:
//	  path: ./faculty.db
//	ai:
//	  model: chatgpt
//	  call_timeout: 30s
//	  requests_per_second: 2
//	pipeline:
//	  top_k: 5
//	  failure_policy: best-effort
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/poiesic/committee/ai"
	"github.com/poiesic/committee/match"
	"gopkg.in/yaml.v3"
)

const (
	configPathEnv = "COMMITTEE_CONFIG"
	envPrefix     = "COMMITTEE_"

	// DefaultDatabasePath is used when no database path is configured.
	DefaultDatabasePath = "faculty.db"
)

// ErrInvalidConfig is returned when a file or environment value cannot be parsed.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds the settings shared by every command.
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	AI       AIConfig       `yaml:"ai"`
	Pipeline PipelineConfig `yaml:"pipeline"`
}

// DatabaseConfig locates the faculty index.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// AIConfig selects the model family and overrides its preset.
// Empty fields keep the preset value.
type AIConfig struct {
	Model             string        `yaml:"model"`
	Host              string        `yaml:"host"`
	EmbeddingHost     string        `yaml:"embedding_host"`
	GenerationHost    string        `yaml:"generation_host"`
	EmbeddingModel    string        `yaml:"embedding_model"`
	GenerationModel   string        `yaml:"generation_model"`
	Token             string        `yaml:"token"`
	CallTimeout       time.Duration `yaml:"call_timeout"`
	MaxRetries        int           `yaml:"max_retries"`
	RetryDelay        time.Duration `yaml:"retry_delay"`
	RequestsPerSecond float64       `yaml:"requests_per_second"`
}

// PipelineConfig tunes the matching pipeline. Zero values keep the defaults.
type PipelineConfig struct {
	TopK          int    `yaml:"top_k"`
	BatchSize     int    `yaml:"batch_size"`
	VariantCount  int    `yaml:"variant_count"`
	Concurrency   int    `yaml:"concurrency"`
	FailurePolicy string `yaml:"failure_policy"`
}

// Load reads path (or $COMMITTEE_CONFIG when path is empty) if it names a
// file, loads .env from the working directory and applies environment
// overrides. A missing .env file is not an error; a missing explicit path is.
func Load(path string) (*Config, error) {
	_ = godotenv.Load(".env")

	cfg := &Config{Database: DatabaseConfig{Path: DefaultDatabasePath}}

	if path == "" {
		path = os.Getenv(configPathEnv)
	}
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: cannot read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrInvalidConfig, path, err)
		}
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnvOverrides() error {
	strs := map[string]*string{
		"DB":               &c.Database.Path,
		"MODEL":            &c.AI.Model,
		"HOST":             &c.AI.Host,
		"EMBEDDING_HOST":   &c.AI.EmbeddingHost,
		"GENERATION_HOST":  &c.AI.GenerationHost,
		"EMBEDDING_MODEL":  &c.AI.EmbeddingModel,
		"GENERATION_MODEL": &c.AI.GenerationModel,
		"TOKEN":            &c.AI.Token,
		"FAILURE_POLICY":   &c.Pipeline.FailurePolicy,
	}
	for name, dst := range strs {
		if v, ok := os.LookupEnv(envPrefix + name); ok {
			*dst = v
		}
	}

	ints := map[string]*int{
		"MAX_RETRIES":   &c.AI.MaxRetries,
		"TOP_K":         &c.Pipeline.TopK,
		"BATCH_SIZE":    &c.Pipeline.BatchSize,
		"VARIANT_COUNT": &c.Pipeline.VariantCount,
		"CONCURRENCY":   &c.Pipeline.Concurrency,
	}
	for name, dst := range ints {
		v, ok := os.LookupEnv(envPrefix + name)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: %s%s: %w", ErrInvalidConfig, envPrefix, name, err)
		}
		*dst = n
	}

	durations := map[string]*time.Duration{
		"CALL_TIMEOUT": &c.AI.CallTimeout,
		"RETRY_DELAY":  &c.AI.RetryDelay,
	}
	for name, dst := range durations {
		v, ok := os.LookupEnv(envPrefix + name)
		if !ok {
			continue
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%w: %s%s: %w", ErrInvalidConfig, envPrefix, name, err)
		}
		*dst = d
	}

	if v, ok := os.LookupEnv(envPrefix + "REQUESTS_PER_SECOND"); ok {
		rps, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%w: %sREQUESTS_PER_SECOND: %w", ErrInvalidConfig, envPrefix, err)
		}
		c.AI.RequestsPerSecond = rps
	}
	return nil
}

// Options converts the AI settings into ai.ConfigOption values. The model
// preset is applied first so explicit fields override it.
func (a AIConfig) Options() ([]ai.ConfigOption, error) {
	var opts []ai.ConfigOption
	if a.Model != "" {
		m, err := ai.ParseModel(a.Model)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
		opts = append(opts, ai.WithModel(m))
	}

	if a.Host != "" {
		opts = append(opts, ai.WithHost(a.Host))
	}
	if a.EmbeddingHost != "" {
		opts = append(opts, ai.WithEmbeddingHost(a.EmbeddingHost))
	}
	if a.GenerationHost != "" {
		opts = append(opts, ai.WithGenerationHost(a.GenerationHost))
	}
	if a.EmbeddingModel != "" {
		opts = append(opts, ai.WithEmbeddingModel(a.EmbeddingModel))
	}
	if a.GenerationModel != "" {
		opts = append(opts, ai.WithGenerationModel(a.GenerationModel))
	}
	if a.Token != "" {
		opts = append(opts, ai.WithToken(a.Token))
	}
	if a.CallTimeout > 0 {
		opts = append(opts, ai.WithCallTimeout(a.CallTimeout))
	}
	if a.MaxRetries > 0 || a.RetryDelay > 0 {
		defaults := ai.DefaultConfig()
		retries, delay := defaults.MaxRetries, defaults.RetryDelay
		if a.MaxRetries > 0 {
			retries = a.MaxRetries
		}
		if a.RetryDelay > 0 {
			delay = a.RetryDelay
		}
		opts = append(opts, ai.WithRetry(retries, delay))
	}
	if a.RequestsPerSecond > 0 {
		opts = append(opts, ai.WithRequestsPerSecond(a.RequestsPerSecond))
	}
	return opts, nil
}

// AIConfig builds and validates the provider configuration.
func (c *Config) AIConfig(extra ...ai.ConfigOption) (*ai.Config, error) {
	opts, err := c.AI.Options()
	if err != nil {
		return nil, err
	}
	cfg := ai.NewConfig(append(opts, extra...)...)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return cfg, nil
}

// Settings converts the pipeline section into match.Settings.
func (p PipelineConfig) Settings() (match.Settings, error) {
	policy, err := match.ParseFailurePolicy(p.FailurePolicy)
	if err != nil {
		return match.Settings{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	s := match.DefaultSettings()
	if p.TopK > 0 {
		s.TopK = p.TopK
	}
	if p.BatchSize > 0 {
		s.BatchSize = p.BatchSize
	}
	if p.VariantCount > 0 {
		s.VariantCount = p.VariantCount
	}
	if p.Concurrency > 0 {
		s.Concurrency = p.Concurrency
	}
	s.FailurePolicy = policy
	return s, nil
}
