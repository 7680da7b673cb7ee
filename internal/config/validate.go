package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateClassifier(); err != nil {
		return err
	}
	if err := c.validateInsights(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateServer() error {
	if _, _, err := net.SplitHostPort(c.Server.Bind); err != nil {
		return fmt.Errorf("server.bind must be host:port: %w", err)
	}
	if c.Server.MaxBodyMB < 0 {
		return errors.New("server.max_body_mb must be positive")
	}
	return nil
}

func (c *Config) validateClassifier() error {
	switch c.Classifier.Backend {
	case "remote":
		if c.Classifier.Endpoint == "" {
			return errors.New("classifier.endpoint must be set when classifier.backend is \"remote\" (or set PARTSCOPE_CLASSIFIER_ENDPOINT)")
		}
		parsed, err := url.Parse(c.Classifier.Endpoint)
		if err != nil || parsed.Scheme == "" || parsed.Host == "" {
			return fmt.Errorf("classifier.endpoint %q must be an absolute URL", c.Classifier.Endpoint)
		}
	case "tflite":
		if c.Classifier.ModelPath == "" {
			return errors.New("classifier.model_path must be set when classifier.backend is \"tflite\"")
		}
	default:
		return fmt.Errorf("classifier.backend %q is not supported (use \"remote\" or \"tflite\")", c.Classifier.Backend)
	}
	switch c.Classifier.Output {
	case "logits", "probabilities":
	default:
		return fmt.Errorf("classifier.output %q is not supported (use \"logits\" or \"probabilities\")", c.Classifier.Output)
	}
	if c.Classifier.InputSize < 8 {
		return errors.New("classifier.input_size must be at least 8 pixels")
	}
	if c.Classifier.Threads < 0 {
		return errors.New("classifier.threads must be >= 0")
	}
	if c.Classifier.TimeoutSeconds < 0 {
		return errors.New("classifier.timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateInsights() error {
	switch c.Insights.Backend {
	case "heuristic":
	case "llm":
		if c.LLM.APIKey == "" {
			return errors.New("llm.api_key must be set when insights.backend is \"llm\" (or set OPENROUTER_API_KEY)")
		}
	default:
		return fmt.Errorf("insights.backend %q is not supported (use \"heuristic\" or \"llm\")", c.Insights.Backend)
	}
	if c.Insights.TimeoutSeconds < 0 {
		return errors.New("insights.timeout_seconds must be positive")
	}
	if c.Insights.Concurrency < 0 {
		return errors.New("insights.concurrency must be positive")
	}
	if c.Insights.CacheTTLSeconds < 0 {
		return errors.New("insights.cache_ttl_seconds must be >= 0")
	}
	if c.Insights.RequestsPerMinute < 0 {
		return errors.New("insights.requests_per_minute must be >= 0")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format %q is not supported (use \"console\" or \"json\")", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level %q is not supported", c.Logging.Level)
	}
	return nil
}
