// Package config provides configuration management for cv-git.
// It supports loading configuration from environment variables, a per-repo
// file (.cv/config.json) and a per-user global file ($HOME/.cv-git/config.json),
// with a clear precedence order: env > repo file > global file > defaults.
package config

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/controlvector/cv-git/internal/validation"
	"gopkg.in/yaml.v3"
)

// Config is the complete cv-git configuration, matching the recognized key
// set in spec.md §6.
type Config struct {
	Platform      PlatformConfig      `json:"platform" yaml:"platform"`
	AI            AIConfig            `json:"ai" yaml:"ai"`
	Graph         GraphConfig         `json:"graph" yaml:"graph"`
	Vector        VectorConfig        `json:"vector" yaml:"vector"`
	Credentials   CredentialsConfig   `json:"credentials" yaml:"credentials"`
	Features      FeaturesConfig      `json:"features" yaml:"features"`
	Privilege     PrivilegeConfig     `json:"privilege" yaml:"privilege"`
	Containers    ContainersConfig    `json:"containers" yaml:"containers"`
	Indexer       IndexerConfig       `json:"indexer" yaml:"indexer"`
	Logging       LoggingConfig       `json:"logging" yaml:"logging"`
	Observability ObservabilityConfig `json:"observability" yaml:"observability"`
	Cache         CacheConfig         `json:"cache" yaml:"cache"`
}

// PlatformConfig selects and configures the git-hosting platform adapter.
type PlatformConfig struct {
	Type string `json:"type" yaml:"type"` // "github", "gitlab", ...
	URL  string `json:"url" yaml:"url"`   // override for self-hosted instances
	API  string `json:"api" yaml:"api"`   // override API base for self-hosted instances
}

// AIConfig shapes the LLM client used by the hierarchical summary generator
// and (outside core scope) commit-message/PR-body prompt templates.
type AIConfig struct {
	Provider    string  `json:"provider" yaml:"provider"`
	Model       string  `json:"model" yaml:"model"`
	MaxTokens   int     `json:"max_tokens" yaml:"max_tokens"`
	Temperature float64 `json:"temperature" yaml:"temperature"`
}

// GraphConfig configures the graph-store connection.
type GraphConfig struct {
	URL            string `json:"url" yaml:"url"`
	Database       string `json:"database" yaml:"database"`
	BridgeMaxDepth int    `json:"bridge_max_depth" yaml:"bridge_max_depth"`
}

// VectorConfig configures the vector-store connection and collection naming.
type VectorConfig struct {
	URL         string            `json:"url" yaml:"url"`
	Collections map[string]string `json:"collections" yaml:"collections"`
	Dimensions  int               `json:"dimensions" yaml:"dimensions"`
}

// CredentialsConfig selects the preferred credential backend.
type CredentialsConfig struct {
	Storage string `json:"storage" yaml:"storage"` // "keychain" | "file"
}

// FeaturesConfig gates optional behavior.
type FeaturesConfig struct {
	AICommitMessages bool `json:"ai_commit_messages" yaml:"ai_commit_messages"`
	AIPRDescriptions bool `json:"ai_pr_descriptions" yaml:"ai_pr_descriptions"`
	AICodeReview     bool `json:"ai_code_review" yaml:"ai_code_review"`
	AutoMerge        bool `json:"auto_merge" yaml:"auto_merge"`
}

// PrivilegeConfig controls OS-level privilege defaults.
type PrivilegeConfig struct {
	Mode       string `json:"mode" yaml:"mode"` // "auto" | "user" | "root"
	AllowSudo  bool   `json:"allow_sudo" yaml:"allow_sudo"`
	WarnOnRoot bool   `json:"warn_on_root" yaml:"warn_on_root"`
}

// ContainersConfig controls how companion services (graph/vector backends)
// are launched.
type ContainersConfig struct {
	Runtime  string `json:"runtime" yaml:"runtime"` // "docker" | "podman" | "external"
	Rootless bool   `json:"rootless" yaml:"rootless"`
}

// IndexerConfig holds sync/ingest tuning.
type IndexerConfig struct {
	RootPath           string `json:"root_path" yaml:"root_path"`
	ChunkSize          int    `json:"chunk_size" yaml:"chunk_size"`
	ChunkOverlap       int    `json:"chunk_overlap" yaml:"chunk_overlap"`
	ParseWorkers       int    `json:"parse_workers" yaml:"parse_workers"`
	EmbedWorkers       int    `json:"embed_workers" yaml:"embed_workers"`
	StoreWorkers       int    `json:"store_workers" yaml:"store_workers"`
	EmbedBatchSize     int    `json:"embed_batch_size" yaml:"embed_batch_size"`
	CancelGraceSeconds int    `json:"cancel_grace_seconds" yaml:"cancel_grace_seconds"`
}

// LoggingConfig holds structured-logging configuration.
type LoggingConfig struct {
	Level  string `json:"level" yaml:"level"`
	Format string `json:"format" yaml:"format"`
}

// ObservabilityConfig holds metrics/tracing/error-reporting configuration.
type ObservabilityConfig struct {
	Metrics MetricsConfig `json:"metrics" yaml:"metrics"`
	Tracing TracingConfig `json:"tracing" yaml:"tracing"`
	Sentry  SentryConfig  `json:"sentry" yaml:"sentry"`
}

type MetricsConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Port    int    `json:"port" yaml:"port"`
	Path    string `json:"path" yaml:"path"`
}

type TracingConfig struct {
	Enabled    bool    `json:"enabled" yaml:"enabled"`
	Endpoint   string  `json:"endpoint" yaml:"endpoint"`
	SampleRate float64 `json:"sample_rate" yaml:"sample_rate"`
}

type SentryConfig struct {
	Enabled     bool    `json:"enabled" yaml:"enabled"`
	DSN         string  `json:"dsn" yaml:"dsn"`
	Environment string  `json:"environment" yaml:"environment"`
	SampleRate  float64 `json:"sample_rate" yaml:"sample_rate"`
	Release     string  `json:"release" yaml:"release"`
}

// CacheConfig configures the namespaced query cache (§5) and its optional
// Redis-backed remote tier.
type CacheConfig struct {
	MaxEntriesPerNamespace int           `json:"max_entries_per_namespace" yaml:"max_entries_per_namespace"`
	Redis                  RedisConfig   `json:"redis" yaml:"redis"`
	TTL                    time.Duration `json:"ttl" yaml:"ttl"`
}

type RedisConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Addr    string `json:"addr" yaml:"addr"`
	DB      int    `json:"db" yaml:"db"`
}

// Default values.
const (
	DefaultPlatformType        = "github"
	DefaultAIProvider          = "anthropic"
	DefaultAIModel             = "claude-sonnet-4"
	DefaultAIMaxTokens         = 4096
	DefaultAITemperature       = 0.2
	DefaultGraphURL            = "bolt://localhost:7687"
	DefaultGraphDatabase       = "neo4j"
	DefaultBridgeMaxDepth      = 4
	DefaultVectorURL           = "http://localhost:6334"
	DefaultVectorDimensions    = 1536
	DefaultCredentialsStorage  = "keychain"
	DefaultPrivilegeMode       = "auto"
	DefaultContainersRuntime   = "docker"
	DefaultRootPath            = "."
	DefaultChunkSize           = 50
	DefaultChunkOverlap        = 0
	DefaultParseWorkers        = 4
	DefaultEmbedWorkers        = 2
	DefaultStoreWorkers        = 4
	DefaultEmbedBatchSize      = 64
	DefaultCancelGraceSeconds  = 5
	DefaultLogLevel            = "info"
	DefaultLogFormat           = "json"
	DefaultMetricsEnabled      = false
	DefaultMetricsPort         = 9091
	DefaultMetricsPath         = "/metrics"
	DefaultTracingEndpoint     = "http://localhost:4318"
	DefaultSampleRate          = 0.1
	DefaultSentryEnv           = "development"
	DefaultSentrySampleRate    = 1.0
	DefaultCacheMaxEntries     = 1000
	DefaultCacheTTL            = 10 * time.Minute
)

// ValidLogLevels lists acceptable Logging.Level values.
var ValidLogLevels = []string{"debug", "info", "warn", "error"}

// ValidLogFormats lists acceptable Logging.Format values.
var ValidLogFormats = []string{"json", "text"}

// RepoConfigPath returns the path to the per-repo config file under root.
func RepoConfigPath(repoRoot string) string {
	return filepath.Join(repoRoot, ".cv", "config.json")
}

// GlobalConfigPath returns the path to the per-user global config file.
func GlobalConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".cv-git", "config.json")
}

// Load loads configuration with precedence: env vars > repo file > global
// file > defaults.
func Load(ctx context.Context, repoRoot string) (*Config, error) {
	cfg := Defaults()

	if globalPath := GlobalConfigPath(); globalPath != "" {
		if fileCfg, err := loadFileIfExists(globalPath); err != nil {
			return nil, fmt.Errorf("load global config: %w", err)
		} else if fileCfg != nil {
			cfg = merge(cfg, fileCfg)
		}
	}

	if repoRoot != "" {
		repoPath := RepoConfigPath(repoRoot)
		if fileCfg, err := loadFileIfExists(repoPath); err != nil {
			return nil, fmt.Errorf("load repo config: %w", err)
		} else if fileCfg != nil {
			cfg = merge(cfg, fileCfg)
		}
	}

	cfg = loadEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// Defaults returns a Config populated entirely with default values.
func Defaults() *Config {
	return &Config{
		Platform: PlatformConfig{Type: DefaultPlatformType},
		AI: AIConfig{
			Provider:    DefaultAIProvider,
			Model:       DefaultAIModel,
			MaxTokens:   DefaultAIMaxTokens,
			Temperature: DefaultAITemperature,
		},
		Graph: GraphConfig{
			URL:            DefaultGraphURL,
			Database:       DefaultGraphDatabase,
			BridgeMaxDepth: DefaultBridgeMaxDepth,
		},
		Vector: VectorConfig{
			URL:        DefaultVectorURL,
			Dimensions: DefaultVectorDimensions,
			Collections: map[string]string{
				"code":      "code_chunks",
				"documents": "document_chunks",
				"summary1":  "summaries_level_1",
				"summary2":  "summaries_level_2",
				"summary3":  "summaries_level_3",
				"summary4":  "summaries_level_4",
			},
		},
		Credentials: CredentialsConfig{Storage: DefaultCredentialsStorage},
		Privilege:   PrivilegeConfig{Mode: DefaultPrivilegeMode, WarnOnRoot: true},
		Containers:  ContainersConfig{Runtime: DefaultContainersRuntime},
		Indexer: IndexerConfig{
			RootPath:           DefaultRootPath,
			ChunkSize:          DefaultChunkSize,
			ChunkOverlap:       DefaultChunkOverlap,
			ParseWorkers:       DefaultParseWorkers,
			EmbedWorkers:       DefaultEmbedWorkers,
			StoreWorkers:       DefaultStoreWorkers,
			EmbedBatchSize:     DefaultEmbedBatchSize,
			CancelGraceSeconds: DefaultCancelGraceSeconds,
		},
		Logging: LoggingConfig{Level: DefaultLogLevel, Format: DefaultLogFormat},
		Observability: ObservabilityConfig{
			Metrics: MetricsConfig{Enabled: DefaultMetricsEnabled, Port: DefaultMetricsPort, Path: DefaultMetricsPath},
			Tracing: TracingConfig{Endpoint: DefaultTracingEndpoint, SampleRate: DefaultSampleRate},
			Sentry:  SentryConfig{Environment: DefaultSentryEnv, SampleRate: DefaultSentrySampleRate},
		},
		Cache: CacheConfig{MaxEntriesPerNamespace: DefaultCacheMaxEntries, TTL: DefaultCacheTTL},
	}
}

// loadFileIfExists loads a YAML or JSON config file, returning (nil, nil) if
// the file does not exist.
func loadFileIfExists(path string) (*Config, error) {
	validatedPath, err := validation.ValidateConfigPath(path)
	if err != nil {
		return nil, fmt.Errorf("config path validation failed: %w", err)
	}

	data, err := os.ReadFile(validatedPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read file: %w", err)
	}

	cfg := &Config{}
	ext := strings.ToLower(filepath.Ext(validatedPath))
	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse yaml: %w", err)
		}
	default:
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse json: %w", err)
		}
	}
	return cfg, nil
}

// merge overlays non-zero fields of override onto base, field group by
// field group. Zero-value struct fields in override mean "unset"; this
// mirrors the teacher's whole-group replace semantics for nested configs.
func merge(base, override *Config) *Config {
	out := *base

	if override.Platform != (PlatformConfig{}) {
		out.Platform = override.Platform
	}
	if override.AI != (AIConfig{}) {
		out.AI = override.AI
	}
	if override.Graph != (GraphConfig{}) {
		out.Graph = override.Graph
	}
	if len(override.Vector.Collections) > 0 || override.Vector.URL != "" || override.Vector.Dimensions != 0 {
		out.Vector = override.Vector
	}
	if override.Credentials != (CredentialsConfig{}) {
		out.Credentials = override.Credentials
	}
	if override.Features != (FeaturesConfig{}) {
		out.Features = override.Features
	}
	if override.Privilege != (PrivilegeConfig{}) {
		out.Privilege = override.Privilege
	}
	if override.Containers != (ContainersConfig{}) {
		out.Containers = override.Containers
	}
	if override.Indexer != (IndexerConfig{}) {
		out.Indexer = override.Indexer
	}
	if override.Logging != (LoggingConfig{}) {
		out.Logging = override.Logging
	}
	if override.Observability.Metrics != (MetricsConfig{}) {
		out.Observability.Metrics = override.Observability.Metrics
	}
	if override.Observability.Tracing != (TracingConfig{}) {
		out.Observability.Tracing = override.Observability.Tracing
	}
	if override.Observability.Sentry != (SentryConfig{}) {
		out.Observability.Sentry = override.Observability.Sentry
	}
	if override.Cache.MaxEntriesPerNamespace != 0 || override.Cache.TTL != 0 || override.Cache.Redis != (RedisConfig{}) {
		out.Cache = override.Cache
	}

	return &out
}

// loadEnv overrides configuration from the recognized CV_* environment
// variables (spec.md §6's CV_LOG_LEVEL, CV_LOG_JSON, CV_DEBUG plus the
// conventional per-section overrides).
func loadEnv(cfg *Config) *Config {
	if v := os.Getenv("CV_PLATFORM_TYPE"); v != "" {
		cfg.Platform.Type = v
	}
	if v := os.Getenv("CV_PLATFORM_URL"); v != "" {
		cfg.Platform.URL = v
	}
	if v := os.Getenv("CV_PLATFORM_API"); v != "" {
		cfg.Platform.API = v
	}
	if v := os.Getenv("CV_AI_PROVIDER"); v != "" {
		cfg.AI.Provider = v
	}
	if v := os.Getenv("CV_AI_MODEL"); v != "" {
		cfg.AI.Model = v
	}
	if v := os.Getenv("CV_GRAPH_URL"); v != "" {
		cfg.Graph.URL = v
	}
	if v := os.Getenv("CV_GRAPH_DATABASE"); v != "" {
		cfg.Graph.Database = v
	}
	if v := os.Getenv("CV_VECTOR_URL"); v != "" {
		cfg.Vector.URL = v
	}
	if v := os.Getenv("CV_CREDENTIALS_STORAGE"); v != "" {
		cfg.Credentials.Storage = v
	}
	if v := os.Getenv("CV_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("CV_LOG_JSON"); v != "" {
		if asBool, err := strconv.ParseBool(v); err == nil {
			if asBool {
				cfg.Logging.Format = "json"
			} else {
				cfg.Logging.Format = "text"
			}
		}
	}
	if v := os.Getenv("CV_DEBUG"); v != "" {
		if asBool, err := strconv.ParseBool(v); err == nil && asBool {
			cfg.Logging.Level = "debug"
		}
	}
	return cfg
}

// Validate checks the configuration for internally inconsistent values.
func (c *Config) Validate() error {
	if !contains(ValidLogLevels, c.Logging.Level) {
		return fmt.Errorf("invalid log level %q: must be one of %v", c.Logging.Level, ValidLogLevels)
	}
	if !contains(ValidLogFormats, c.Logging.Format) {
		return fmt.Errorf("invalid log format %q: must be one of %v", c.Logging.Format, ValidLogFormats)
	}
	if c.Credentials.Storage != "keychain" && c.Credentials.Storage != "file" {
		return fmt.Errorf("invalid credentials.storage %q: must be keychain or file", c.Credentials.Storage)
	}
	if c.Indexer.ParseWorkers <= 0 || c.Indexer.EmbedWorkers <= 0 || c.Indexer.StoreWorkers <= 0 {
		return fmt.Errorf("indexer worker pool sizes must be positive")
	}
	if c.Graph.BridgeMaxDepth <= 0 {
		return fmt.Errorf("graph.bridge_max_depth must be positive")
	}
	return nil
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
