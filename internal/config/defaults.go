package config

const (
	defaultConfigPath           = "~/.config/partscope/config.toml"
	defaultDataDir              = "~/.local/share/partscope"
	defaultLogDir               = "~/.local/share/partscope/logs"
	defaultImagesDirName        = "images"
	defaultDatabaseFileName     = "inventory.db"
	defaultServerBind           = "127.0.0.1:8000"
	defaultMaxBodyMB            = 32
	defaultClassifierBackend    = "remote"
	defaultClassifierEndpoint   = "http://127.0.0.1:8500/v1/classify"
	defaultClassifierInputSize  = 150
	defaultClassifierTimeout    = 30
	defaultClassifierOutput     = "logits"
	defaultInsightsBackend      = "heuristic"
	defaultInsightsTimeout      = 20
	defaultInsightsConcurrency  = 4
	defaultInsightsCacheTTL     = 300
	defaultInsightsRequestsRate = 30
	defaultLLMBaseURL           = "https://openrouter.ai/api/v1/chat/completions"
	defaultLLMModel             = "google/gemini-3-flash-preview"
	defaultLLMReferer           = "https://github.com/partscope/partscope"
	defaultLLMTitle             = "Partscope Inspection Insights"
	defaultLLMTimeoutSeconds    = 30
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		Server: Server{
			Bind:           defaultServerBind,
			CORSOrigins:    []string{"*"},
			MaxBodyMB:      defaultMaxBodyMB,
			MetricsEnabled: true,
		},
		Classifier: Classifier{
			Backend:        defaultClassifierBackend,
			Endpoint:       defaultClassifierEndpoint,
			InputSize:      defaultClassifierInputSize,
			TimeoutSeconds: defaultClassifierTimeout,
			Output:         defaultClassifierOutput,
			UpdateStatus:   true,
		},
		Insights: Insights{
			Backend:           defaultInsightsBackend,
			TimeoutSeconds:    defaultInsightsTimeout,
			Concurrency:       defaultInsightsConcurrency,
			CacheTTLSeconds:   defaultInsightsCacheTTL,
			RequestsPerMinute: defaultInsightsRequestsRate,
		},
		LLM: LLM{
			BaseURL:        defaultLLMBaseURL,
			Model:          defaultLLMModel,
			Referer:        defaultLLMReferer,
			Title:          defaultLLMTitle,
			TimeoutSeconds: defaultLLMTimeoutSeconds,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
