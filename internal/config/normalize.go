package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeServer()
	if err := c.normalizeClassifier(); err != nil {
		return err
	}
	c.normalizeInsights()
	c.normalizeLLM()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.ImagesDir) == "" {
		c.Paths.ImagesDir = filepath.Join(c.Paths.DataDir, defaultImagesDirName)
	}
	if c.Paths.ImagesDir, err = expandPath(c.Paths.ImagesDir); err != nil {
		return fmt.Errorf("paths.images_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.DatabasePath) == "" {
		c.Paths.DatabasePath = filepath.Join(c.Paths.DataDir, defaultDatabaseFileName)
	}
	if c.Paths.DatabasePath, err = expandPath(c.Paths.DatabasePath); err != nil {
		return fmt.Errorf("paths.database_path: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeServer() {
	c.Server.Bind = strings.TrimSpace(c.Server.Bind)
	if c.Server.Bind == "" {
		c.Server.Bind = defaultServerBind
	}
	origins := c.Server.CORSOrigins[:0]
	for _, origin := range c.Server.CORSOrigins {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	c.Server.CORSOrigins = origins
	if c.Server.MaxBodyMB == 0 {
		c.Server.MaxBodyMB = defaultMaxBodyMB
	}
	c.Server.APIToken = strings.TrimSpace(c.Server.APIToken)
	if c.Server.APIToken == "" {
		if value, ok := os.LookupEnv("PARTSCOPE_API_TOKEN"); ok {
			c.Server.APIToken = strings.TrimSpace(value)
		}
	}
}

func (c *Config) normalizeClassifier() error {
	c.Classifier.Backend = strings.ToLower(strings.TrimSpace(c.Classifier.Backend))
	if c.Classifier.Backend == "" {
		c.Classifier.Backend = defaultClassifierBackend
	}
	if value, ok := os.LookupEnv("PARTSCOPE_CLASSIFIER_ENDPOINT"); ok && strings.TrimSpace(value) != "" {
		c.Classifier.Endpoint = value
	}
	c.Classifier.Endpoint = strings.TrimSpace(c.Classifier.Endpoint)
	if strings.TrimSpace(c.Classifier.ModelPath) != "" {
		expanded, err := expandPath(strings.TrimSpace(c.Classifier.ModelPath))
		if err != nil {
			return fmt.Errorf("classifier.model_path: %w", err)
		}
		c.Classifier.ModelPath = expanded
	}
	if c.Classifier.InputSize == 0 {
		c.Classifier.InputSize = defaultClassifierInputSize
	}
	if c.Classifier.TimeoutSeconds == 0 {
		c.Classifier.TimeoutSeconds = defaultClassifierTimeout
	}
	c.Classifier.Output = strings.ToLower(strings.TrimSpace(c.Classifier.Output))
	if c.Classifier.Output == "" {
		c.Classifier.Output = defaultClassifierOutput
	}
	return nil
}

func (c *Config) normalizeInsights() {
	c.Insights.Backend = strings.ToLower(strings.TrimSpace(c.Insights.Backend))
	if c.Insights.Backend == "" {
		c.Insights.Backend = defaultInsightsBackend
	}
	if c.Insights.TimeoutSeconds == 0 {
		c.Insights.TimeoutSeconds = defaultInsightsTimeout
	}
	if c.Insights.Concurrency == 0 {
		c.Insights.Concurrency = defaultInsightsConcurrency
	}
}

func (c *Config) normalizeLLM() {
	c.LLM.APIKey = strings.TrimSpace(c.LLM.APIKey)
	if c.LLM.APIKey == "" {
		if value, ok := os.LookupEnv("PARTSCOPE_LLM_API_KEY"); ok {
			c.LLM.APIKey = strings.TrimSpace(value)
		} else if value, ok := os.LookupEnv("OPENROUTER_API_KEY"); ok {
			c.LLM.APIKey = strings.TrimSpace(value)
		}
	}
	c.LLM.BaseURL = strings.TrimSpace(c.LLM.BaseURL)
	if c.LLM.BaseURL == "" {
		c.LLM.BaseURL = defaultLLMBaseURL
	}
	c.LLM.Model = strings.TrimSpace(c.LLM.Model)
	if c.LLM.Model == "" {
		c.LLM.Model = defaultLLMModel
	}
	if c.LLM.TimeoutSeconds == 0 {
		c.LLM.TimeoutSeconds = defaultLLMTimeoutSeconds
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
