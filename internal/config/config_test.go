package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"partscope/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("OPENROUTER_API_KEY", "")
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantData := filepath.Join(tempHome, ".local", "share", "partscope")
	if cfg.Paths.DataDir != wantData {
		t.Fatalf("unexpected data dir: got %q want %q", cfg.Paths.DataDir, wantData)
	}
	if cfg.Paths.ImagesDir != filepath.Join(wantData, "images") {
		t.Fatalf("unexpected images dir: %q", cfg.Paths.ImagesDir)
	}
	if cfg.Paths.DatabasePath != filepath.Join(wantData, "inventory.db") {
		t.Fatalf("unexpected database path: %q", cfg.Paths.DatabasePath)
	}
	if cfg.Server.Bind != "127.0.0.1:8000" {
		t.Fatalf("unexpected bind: %q", cfg.Server.Bind)
	}
	if cfg.Classifier.Backend != "remote" {
		t.Fatalf("expected remote classifier by default, got %q", cfg.Classifier.Backend)
	}
	if cfg.Classifier.InputSize != 150 {
		t.Fatalf("unexpected input size: %d", cfg.Classifier.InputSize)
	}
	if !cfg.Classifier.UpdateStatus {
		t.Fatal("expected classify to update status by default")
	}
	if cfg.Insights.Backend != "heuristic" {
		t.Fatalf("expected heuristic insights by default, got %q", cfg.Insights.Backend)
	}
	if cfg.LockPath() != filepath.Join(cfg.Paths.LogDir, "partscoped.lock") {
		t.Fatalf("unexpected lock path: %q", cfg.LockPath())
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.DataDir, cfg.Paths.ImagesDir, cfg.Paths.LogDir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
}

func TestLoadCustomPath(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "partscope.toml")

	type payload struct {
		Paths struct {
			DataDir string `toml:"data_dir"`
		} `toml:"paths"`
		Server struct {
			Bind string `toml:"bind"`
		} `toml:"server"`
		Insights struct {
			Backend     string `toml:"backend"`
			Concurrency int    `toml:"concurrency"`
		} `toml:"insights"`
		LLM struct {
			APIKey string `toml:"api_key"`
		} `toml:"llm"`
	}
	custom := payload{}
	custom.Paths.DataDir = filepath.Join(tempDir, "data")
	custom.Server.Bind = "0.0.0.0:9100"
	custom.Insights.Backend = "llm"
	custom.Insights.Concurrency = 2
	custom.LLM.APIKey = "file-key"
	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected exists to be true")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: got %q want %q", resolved, configPath)
	}
	if cfg.Paths.ImagesDir != filepath.Join(tempDir, "data", "images") {
		t.Fatalf("expected images dir derived from data dir, got %q", cfg.Paths.ImagesDir)
	}
	if cfg.Insights.Backend != "llm" || cfg.Insights.Concurrency != 2 {
		t.Fatalf("unexpected insights section: %+v", cfg.Insights)
	}
	if cfg.LLM.APIKey != "file-key" {
		t.Fatalf("expected api key from file, got %q", cfg.LLM.APIKey)
	}
	if got := cfg.ServerURL(); got != "http://127.0.0.1:9100" {
		t.Fatalf("unexpected server url for wildcard bind: %q", got)
	}
}

func TestEnvFallbacks(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("OPENROUTER_API_KEY", "env-key")
	t.Setenv("PARTSCOPE_CLASSIFIER_ENDPOINT", "http://models.local:9000/classify")
	t.Setenv("PARTSCOPE_API_TOKEN", " secret ")
	configPath := filepath.Join(t.TempDir(), "partscope.toml")
	if err := os.WriteFile(configPath, []byte("[insights]\nbackend = \"llm\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.LLM.APIKey != "env-key" {
		t.Fatalf("expected api key from env, got %q", cfg.LLM.APIKey)
	}
	if cfg.Classifier.Endpoint != "http://models.local:9000/classify" {
		t.Fatalf("expected classifier endpoint from env, got %q", cfg.Classifier.Endpoint)
	}
	if cfg.Server.APIToken != "secret" {
		t.Fatalf("expected api token from env, got %q", cfg.Server.APIToken)
	}
}

func TestValidateRejectsBadSettings(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"unknown classifier", func(c *config.Config) { c.Classifier.Backend = "magic" }, "classifier.backend"},
		{"remote without endpoint", func(c *config.Config) { c.Classifier.Endpoint = "" }, "classifier.endpoint"},
		{"relative endpoint", func(c *config.Config) { c.Classifier.Endpoint = "models/classify" }, "absolute URL"},
		{"unknown model output", func(c *config.Config) { c.Classifier.Output = "scores" }, "classifier.output"},
		{"tflite without model", func(c *config.Config) { c.Classifier.Backend = "tflite" }, "classifier.model_path"},
		{"llm without key", func(c *config.Config) { c.Insights.Backend = "llm"; c.LLM.APIKey = "" }, "llm.api_key"},
		{"unknown insights", func(c *config.Config) { c.Insights.Backend = "oracle" }, "insights.backend"},
		{"bad bind", func(c *config.Config) { c.Server.Bind = "localhost" }, "server.bind"},
		{"bad log format", func(c *config.Config) { c.Logging.Format = "xml" }, "logging.format"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected %q in %v", tc.want, err)
			}
		})
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "partscope.toml")
	if err := os.WriteFile(configPath, []byte("[server]\nport = 80\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, _, err := config.Load(configPath); err == nil {
		t.Fatal("expected parse error for unknown key")
	}
}

func TestCreateSampleRoundTrips(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("OPENROUTER_API_KEY", "")
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load sample: %v", err)
	}
	if !exists {
		t.Fatal("expected sample file to exist")
	}
	if cfg.Insights.CacheTTLSeconds != 300 {
		t.Fatalf("unexpected cache ttl from sample: %d", cfg.Insights.CacheTTLSeconds)
	}
	if cfg.Classifier.Output != "logits" {
		t.Fatalf("expected logits model output, got %q", cfg.Classifier.Output)
	}
}
