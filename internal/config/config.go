package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and file locations.
type Paths struct {
	DataDir      string `toml:"data_dir"`
	ImagesDir    string `toml:"images_dir"`
	DatabasePath string `toml:"database_path"`
	LogDir       string `toml:"log_dir"`
}

// Server contains HTTP API settings for partscoped.
type Server struct {
	Bind           string   `toml:"bind"`
	CORSOrigins    []string `toml:"cors_origins"`
	MaxBodyMB      int      `toml:"max_body_mb"`
	MetricsEnabled bool     `toml:"metrics_enabled"`
	// APIToken, when set, is required as a bearer token on /api/ routes
	// other than /api/health.
	APIToken string `toml:"api_token"`
}

// Classifier selects and configures the defect classifier backend.
type Classifier struct {
	// Backend is "remote" (HTTP model server) or "tflite" (in-process, requires
	// the tflite build tag).
	Backend        string `toml:"backend"`
	Endpoint       string `toml:"endpoint"`
	ModelPath      string `toml:"model_path"`
	InputSize      int    `toml:"input_size"`
	Threads        int    `toml:"threads"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	// Output tells how the tflite model's last layer is activated: "logits"
	// (softmax or sigmoid is applied) or "probabilities" (used as is).
	Output string `toml:"output"`
	// UpdateStatus moves classified items to needs_attention or cleared
	// according to the derived label.
	UpdateStatus bool `toml:"update_status"`
}

// Insights configures recommendation generation.
type Insights struct {
	// Backend is "heuristic" or "llm".
	Backend           string `toml:"backend"`
	TimeoutSeconds    int    `toml:"timeout_seconds"`
	Concurrency       int    `toml:"concurrency"`
	CacheTTLSeconds   int    `toml:"cache_ttl_seconds"`
	RequestsPerMinute int    `toml:"requests_per_minute"`
}

// LLM contains connection settings for the chat completion API used by the
// llm insight backend.
type LLM struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	Referer        string `toml:"referer"`
	Title          string `toml:"title"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for partscope.
//
// Configuration sections by subsystem:
//   - Paths: data, image, database, and log locations
//   - Server: API bind address, CORS, body limits, metrics
//   - Classifier: defect classifier backend and preprocessing
//   - Insights: recommendation backend, timeouts, caching, pacing
//   - LLM: chat completion connection settings
//   - Logging: log format and level
type Config struct {
	Paths      Paths      `toml:"paths"`
	Server     Server     `toml:"server"`
	Classifier Classifier `toml:"classifier"`
	Insights   Insights   `toml:"insights"`
	LLM        LLM        `toml:"llm"`
	Logging    Logging    `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("partscope.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the data, image, database, and log directories.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Paths.DataDir, c.Paths.ImagesDir, filepath.Dir(c.Paths.DatabasePath), c.Paths.LogDir}
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// LockPath returns the single-instance lock file used by partscoped.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.LogDir, "partscoped.lock")
}

// LogPath returns the service log file location.
func (c *Config) LogPath() string {
	return filepath.Join(c.Paths.LogDir, "partscoped.log")
}

// ServerURL returns the base URL clients use to reach the API.
func (c *Config) ServerURL() string {
	bind := strings.TrimSpace(c.Server.Bind)
	if strings.HasPrefix(bind, ":") {
		bind = "127.0.0.1" + bind
	}
	if host, port, ok := strings.Cut(bind, ":"); ok && (host == "0.0.0.0" || host == "") {
		bind = "127.0.0.1:" + port
	}
	return "http://" + bind
}

// MaxBodyBytes returns the request body limit in bytes.
func (c *Config) MaxBodyBytes() int64 {
	return int64(c.Server.MaxBodyMB) << 20
}

// ClassifierTimeout returns the per-image classifier timeout.
func (c *Config) ClassifierTimeout() time.Duration {
	return time.Duration(c.Classifier.TimeoutSeconds) * time.Second
}

// InsightTimeout returns the per-item insight generation timeout.
func (c *Config) InsightTimeout() time.Duration {
	return time.Duration(c.Insights.TimeoutSeconds) * time.Second
}

// InsightCacheTTL returns how long generated insights stay cached; zero disables caching.
func (c *Config) InsightCacheTTL() time.Duration {
	return time.Duration(c.Insights.CacheTTLSeconds) * time.Second
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// SampleConfig returns the embedded sample configuration.
func SampleConfig() string {
	return sampleConfig
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// LLMConfig contains the chat completion settings in a transport-neutral form.
type LLMConfig struct {
	APIKey         string
	BaseURL        string
	Model          string
	Referer        string
	Title          string
	TimeoutSeconds int
}

// GetLLM returns the LLM connection settings.
func (c *Config) GetLLM() LLMConfig {
	return LLMConfig{
		APIKey:         strings.TrimSpace(c.LLM.APIKey),
		BaseURL:        strings.TrimSpace(c.LLM.BaseURL),
		Model:          strings.TrimSpace(c.LLM.Model),
		Referer:        strings.TrimSpace(c.LLM.Referer),
		Title:          strings.TrimSpace(c.LLM.Title),
		TimeoutSeconds: c.LLM.TimeoutSeconds,
	}
}
