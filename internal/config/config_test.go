package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Retriever.Type != "lexical" {
		t.Errorf("Retriever.Type = %q, want lexical", cfg.Retriever.Type)
	}
	if cfg.Retriever.TopK != 10 {
		t.Errorf("Retriever.TopK = %d, want 10", cfg.Retriever.TopK)
	}
	if cfg.Bus.Type != "memory" {
		t.Errorf("Bus.Type = %q, want memory", cfg.Bus.Type)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("Log.Level = %q, want info", cfg.Log.Level)
	}
}

func TestLoad_YAMLFile(t *testing.T) {
	content := `
run_name: bm25-baseline
retriever:
  type: remote
  top_k: 20
  endpoint: http://localhost:9000/search
  timeout_seconds: 5
data:
  queries_path: data/q.json
  corpus_path: data/laws.jsonl
metadata:
  team: legal-rag
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.RunName != "bm25-baseline" {
		t.Errorf("RunName = %q, want bm25-baseline", cfg.RunName)
	}
	if cfg.Retriever.Type != "remote" {
		t.Errorf("Retriever.Type = %q, want remote", cfg.Retriever.Type)
	}
	if cfg.Retriever.TopK != 20 {
		t.Errorf("Retriever.TopK = %d, want 20", cfg.Retriever.TopK)
	}
	if cfg.Metadata["team"] != "legal-rag" {
		t.Errorf("Metadata[team] = %q, want legal-rag", cfg.Metadata["team"])
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	content := `
retriever:
  type: lexical
  top_k: 10
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	t.Setenv("LAWBENCH_TOP_K", "50")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Retriever.TopK != 50 {
		t.Errorf("Retriever.TopK = %d, want env override 50", cfg.Retriever.TopK)
	}
}

func TestLoad_DefersValidation(t *testing.T) {
	// Load only merges defaults, file, and env. Commands validate once,
	// after flag overrides, so an invalid value must survive Load and be
	// rejected by Validate.
	content := `
retriever:
  type: dense
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if err := cfg.Validate(); err == nil {
		t.Fatal("Validate() should reject retriever type dense")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*Config)
		wantErr  bool
		contains string
	}{
		{
			"valid defaults",
			func(c *Config) {},
			false, "",
		},
		{
			"unknown retriever",
			func(c *Config) { c.Retriever.Type = "dense" },
			true, "invalid retriever type",
		},
		{
			"zero top_k",
			func(c *Config) { c.Retriever.TopK = 0 },
			true, "top_k must be positive",
		},
		{
			"remote without endpoint",
			func(c *Config) { c.Retriever.Type = "remote" },
			true, "endpoint is required",
		},
		{
			"remote without timeout",
			func(c *Config) {
				c.Retriever.Type = "remote"
				c.Retriever.Endpoint = "http://localhost:9000"
				c.Retriever.TimeoutSeconds = 0
			},
			true, "timeout_seconds must be positive",
		},
		{
			"qdrant without collection",
			func(c *Config) {
				c.Retriever.Type = "qdrant"
				c.Qdrant.Collection = ""
			},
			true, "qdrant collection",
		},
		{
			"negative max_queries",
			func(c *Config) { c.Data.MaxQueries = -1 },
			true, "max_queries",
		},
		{
			"unknown bus",
			func(c *Config) { c.Bus.Type = "nats" },
			true, "invalid bus type",
		},
		{
			"unknown log level",
			func(c *Config) { c.Log.Level = "trace" },
			true, "invalid log level",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{}
			setDefaults(cfg)
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected validation error")
				}
				if !strings.Contains(err.Error(), tt.contains) {
					t.Errorf("error %q does not mention %q", err, tt.contains)
				}
				return
			}
			if err != nil {
				t.Errorf("Validate() error = %v", err)
			}
		})
	}
}

func TestOutputPaths(t *testing.T) {
	o := OutputsConfig{Root: "outputs"}
	paths := o.Paths("nightly")

	if paths.RunDir != filepath.Join("outputs", "nightly") {
		t.Errorf("RunDir = %s", paths.RunDir)
	}
	if paths.Predictions != filepath.Join("outputs", "nightly", "reports", "predictions.json") {
		t.Errorf("Predictions = %s", paths.Predictions)
	}
	if paths.BadCases != filepath.Join("outputs", "nightly", "bad_cases", "diff_cases.json") {
		t.Errorf("BadCases = %s", paths.BadCases)
	}

	// Configured relative paths resolve under the run dir; absolute
	// paths pass through.
	abs := string(filepath.Separator) + filepath.Join("tmp", "m.csv")
	o = OutputsConfig{Root: "out", MetricsCSVPath: abs, PerSourceCSV: "custom/ps.csv"}
	paths = o.Paths("r1")
	if paths.MetricsCSV != abs {
		t.Errorf("MetricsCSV = %s, want %s", paths.MetricsCSV, abs)
	}
	if paths.PerSourceCSV != filepath.Join("out", "r1", "custom", "ps.csv") {
		t.Errorf("PerSourceCSV = %s", paths.PerSourceCSV)
	}
}
