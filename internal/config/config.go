// Package config handles configuration loading and validation.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// Config holds all benchmark configuration.
type Config struct {
	// RunName labels the benchmark run in reports and history.
	RunName string `envconfig:"LAWBENCH_RUN_NAME" yaml:"run_name"`

	// Data configuration
	Data DataConfig `yaml:"data"`

	// Retriever configuration
	Retriever RetrieverConfig `yaml:"retriever"`

	// Qdrant configuration (qdrant retriever backend)
	Qdrant QdrantConfig `yaml:"qdrant"`

	// Outputs configuration
	Outputs OutputsConfig `yaml:"outputs"`

	// Bus configuration
	Bus BusConfig `yaml:"bus"`

	// History configuration
	History HistoryConfig `yaml:"history"`

	// Logging configuration
	Log LogConfig `yaml:"log"`

	// Metadata is echoed verbatim into the aggregate report.
	Metadata map[string]string `yaml:"metadata"`
}

// DataConfig holds input dataset settings.
type DataConfig struct {
	QueriesPath string `envconfig:"LAWBENCH_QUERIES_PATH" yaml:"queries_path"`
	CorpusPath  string `envconfig:"LAWBENCH_CORPUS_PATH" yaml:"corpus_path"`

	// MaxQueries caps the number of benchmark queries. 0 = no cap.
	// Applied before iteration begins.
	MaxQueries int `envconfig:"LAWBENCH_MAX_QUERIES" yaml:"max_queries"`
}

// RetrieverConfig holds retriever backend settings.
type RetrieverConfig struct {
	// Type selects the backend: lexical, remote, or qdrant.
	Type string `envconfig:"LAWBENCH_RETRIEVER_TYPE" yaml:"type"`

	// TopK is the retrieval cutoff used for all metrics.
	TopK int `envconfig:"LAWBENCH_TOP_K" yaml:"top_k"`

	// Endpoint is the remote retriever URL (remote type only).
	Endpoint string `envconfig:"LAWBENCH_ENDPOINT" yaml:"endpoint"`

	// TimeoutSeconds bounds each remote request. A timeout marks the
	// query as failed, not the run.
	TimeoutSeconds float64 `envconfig:"LAWBENCH_TIMEOUT_SECONDS" yaml:"timeout_seconds"`

	// RateLimit caps remote requests per second. 0 = unlimited.
	RateLimit float64 `envconfig:"LAWBENCH_RATE_LIMIT" yaml:"rate_limit"`

	// IndexWorkers bounds the lexical index build pool. 0 = GOMAXPROCS.
	IndexWorkers int `envconfig:"LAWBENCH_INDEX_WORKERS" yaml:"index_workers"`
}

// QdrantConfig holds Qdrant connection settings.
type QdrantConfig struct {
	Host       string `envconfig:"LAWBENCH_QDRANT_HOST" yaml:"host"`
	Port       int    `envconfig:"LAWBENCH_QDRANT_PORT" yaml:"port"`
	APIKey     string `envconfig:"LAWBENCH_QDRANT_API_KEY" yaml:"api_key"`
	UseTLS     bool   `envconfig:"LAWBENCH_QDRANT_USE_TLS" yaml:"use_tls"`
	Collection string `envconfig:"LAWBENCH_QDRANT_COLLECTION" yaml:"collection"`
}

// OutputsConfig holds report destination settings.
type OutputsConfig struct {
	Root            string `envconfig:"LAWBENCH_OUTPUT_ROOT" yaml:"root"`
	PredictionsPath string `yaml:"predictions_path"`
	MetricsJSONPath string `yaml:"metrics_json"`
	MetricsCSVPath  string `yaml:"metrics_csv"`
	PerSourceCSV    string `yaml:"per_source_csv"`
	BadCasesPath    string `yaml:"bad_cases_path"`
}

// OutputPaths holds the resolved destinations for one run's artifacts.
type OutputPaths struct {
	RunDir       string
	Predictions  string
	MetricsJSON  string
	MetricsCSV   string
	PerSourceCSV string
	BadCases     string
}

// Paths resolves the output file locations for a run. Unset paths get
// defaults; relative paths are joined under <root>/<run_name>.
func (o OutputsConfig) Paths(runName string) OutputPaths {
	runDir := filepath.Join(o.Root, runName)
	resolve := func(configured, fallback string) string {
		path := configured
		if path == "" {
			path = fallback
		}
		if filepath.IsAbs(path) {
			return path
		}
		return filepath.Join(runDir, path)
	}
	return OutputPaths{
		RunDir:       runDir,
		Predictions:  resolve(o.PredictionsPath, "reports/predictions.json"),
		MetricsJSON:  resolve(o.MetricsJSONPath, "reports/metrics.json"),
		MetricsCSV:   resolve(o.MetricsCSVPath, "reports/metrics.csv"),
		PerSourceCSV: resolve(o.PerSourceCSV, "reports/per_source_metrics.csv"),
		BadCases:     resolve(o.BadCasesPath, "bad_cases/diff_cases.json"),
	}
}

// BusConfig holds event bus settings.
type BusConfig struct {
	Type         string `envconfig:"LAWBENCH_BUS_TYPE" yaml:"type"`
	KafkaBrokers string `envconfig:"LAWBENCH_KAFKA_BROKERS" yaml:"kafka_brokers"`
	KafkaGroup   string `envconfig:"LAWBENCH_KAFKA_GROUP" yaml:"kafka_group"`
}

// HistoryConfig holds run history persistence settings.
type HistoryConfig struct {
	Enabled  bool   `envconfig:"LAWBENCH_HISTORY_ENABLED" yaml:"enabled"`
	RedisURL string `envconfig:"LAWBENCH_REDIS_URL" yaml:"redis_url"`
	TTLHours int    `envconfig:"LAWBENCH_HISTORY_TTL_HOURS" yaml:"ttl_hours"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `envconfig:"LAWBENCH_LOG_LEVEL" yaml:"level"`
	Format string `envconfig:"LAWBENCH_LOG_FORMAT" yaml:"format"`
}

// Load loads configuration from environment variables and optional config file.
func Load(configPath string) (*Config, error) {
	cfg := &Config{}

	// Set defaults first
	setDefaults(cfg)

	// Load from YAML file if provided (overrides defaults)
	if configPath != "" {
		if err := loadFromFile(cfg, configPath); err != nil {
			return nil, fmt.Errorf("loading config file: %w", err)
		}
	}

	// Override with environment variables (highest priority)
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("processing env config: %w", err)
	}

	// Validation is the caller's job: commands apply flag overrides on
	// top of the loaded config and validate the final result once.
	return cfg, nil
}

// LoadFromEnv loads configuration from environment variables only.
func LoadFromEnv() (*Config, error) {
	return Load("")
}

func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	return yaml.Unmarshal(data, cfg)
}

func setDefaults(cfg *Config) {
	cfg.RunName = "lawbench"

	cfg.Data = DataConfig{
		QueriesPath: "data/query_law_ids_validated.json",
		CorpusPath:  "data/laws.jsonl",
	}

	cfg.Retriever = RetrieverConfig{
		Type:           "lexical",
		TopK:           10,
		TimeoutSeconds: 10,
	}

	cfg.Qdrant = QdrantConfig{
		Host:       "localhost",
		Port:       6334,
		Collection: "laws",
	}

	cfg.Outputs = OutputsConfig{
		Root: "outputs",
	}

	cfg.Bus = BusConfig{
		Type: "memory",
	}

	cfg.History = HistoryConfig{
		RedisURL: "redis://localhost:6379",
		TTLHours: 24 * 30,
	}

	cfg.Log = LogConfig{
		Level:  "info",
		Format: "text",
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	var errs []string

	validRetrievers := map[string]bool{"lexical": true, "remote": true, "qdrant": true}
	retrieverType := strings.ToLower(c.Retriever.Type)
	if !validRetrievers[retrieverType] {
		errs = append(errs, fmt.Sprintf("invalid retriever type: %s (must be lexical, remote, or qdrant)", c.Retriever.Type))
	}

	if c.Retriever.TopK < 1 {
		errs = append(errs, "top_k must be positive")
	}

	if retrieverType == "remote" {
		if c.Retriever.Endpoint == "" {
			errs = append(errs, "endpoint is required for the remote retriever")
		}
		if c.Retriever.TimeoutSeconds <= 0 {
			errs = append(errs, "timeout_seconds must be positive for the remote retriever")
		}
	}

	if retrieverType == "qdrant" && c.Qdrant.Collection == "" {
		errs = append(errs, "qdrant collection must be set")
	}

	if c.Data.QueriesPath == "" {
		errs = append(errs, "queries_path must be set")
	}
	if c.Data.CorpusPath == "" {
		errs = append(errs, "corpus_path must be set")
	}
	if c.Data.MaxQueries < 0 {
		errs = append(errs, "max_queries cannot be negative")
	}

	validBusTypes := map[string]bool{"memory": true, "kafka": true, "none": true, "": true}
	if !validBusTypes[strings.ToLower(c.Bus.Type)] {
		errs = append(errs, fmt.Sprintf("invalid bus type: %s (must be memory, kafka, or none)", c.Bus.Type))
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Log.Level] {
		errs = append(errs, fmt.Sprintf("invalid log level: %s", c.Log.Level))
	}

	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[c.Log.Format] {
		errs = append(errs, fmt.Sprintf("invalid log format: %s", c.Log.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}
