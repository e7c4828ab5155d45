package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Global configuration structure.
type Global struct {
	// LLM chain
	LLMProvider      string   `mapstructure:"llm_provider" yaml:"llm_provider" validate:"omitempty,oneof=huggingface openrouter ollama"`
	LLMModels        []string `mapstructure:"llm_models" yaml:"llm_models"`
	HFAPIToken       string   `mapstructure:"hf_api_token" yaml:"hf_api_token"`
	OpenRouterAPIKey string   `mapstructure:"openrouter_api_key" yaml:"openrouter_api_key"`
	MaxTokens        int      `mapstructure:"max_tokens" yaml:"max_tokens" validate:"gte=1"`
	Temperature      float64  `mapstructure:"temperature" yaml:"temperature" validate:"gte=0,lte=2"`
	LLMRatePerSec    float64  `mapstructure:"llm_rate_per_sec" yaml:"llm_rate_per_sec" validate:"gte=0"`
	InsightCacheTTL  int      `mapstructure:"insight_cache_ttl_sec" yaml:"insight_cache_ttl_sec" validate:"gte=0"`

	// HTTP/Retry configuration
	HTTPTimeoutSec   int `mapstructure:"http_timeout_sec" yaml:"http_timeout_sec" validate:"gte=1"`
	RetryMaxAttempts int `mapstructure:"retry_max_attempts" yaml:"retry_max_attempts" validate:"gte=1"`
	RetryBaseDelayMs int `mapstructure:"retry_base_delay_ms" yaml:"retry_base_delay_ms" validate:"gte=0"`
	RetryMaxDelayMs  int `mapstructure:"retry_max_delay_ms" yaml:"retry_max_delay_ms" validate:"gte=0"`

	// Local runtimes (Ollama)
	OllamaHost string `mapstructure:"ollama_host" yaml:"ollama_host"`

	// Audit trail: a Postgres DSN wins over a JSON file; neither keeps it in memory.
	AuditDSN  string `mapstructure:"audit_dsn" yaml:"audit_dsn"`
	AuditFile string `mapstructure:"audit_file" yaml:"audit_file"`
	Actor     string `mapstructure:"actor" yaml:"actor"`

	// Dashboard server
	ServerAddr    string `mapstructure:"server_addr" yaml:"server_addr" validate:"required"`
	SessionTTLMin int    `mapstructure:"session_ttl_min" yaml:"session_ttl_min" validate:"gte=1"`

	// Ingestion
	SampleThresholdMB int     `mapstructure:"sample_threshold_mb" yaml:"sample_threshold_mb" validate:"gte=0"`
	SampleRows        int     `mapstructure:"sample_rows" yaml:"sample_rows" validate:"gte=1"`
	RevenueTarget     float64 `mapstructure:"revenue_target" yaml:"revenue_target" validate:"gt=0"`

	LogLevel  string `mapstructure:"log_level" yaml:"log_level" validate:"omitempty,oneof=debug info warn warning error"`
	LogFormat string `mapstructure:"log_format" yaml:"log_format" validate:"omitempty,oneof=json text"`
}

func (c *Global) HTTPTimeout() time.Duration { return time.Duration(c.HTTPTimeoutSec) * time.Second }
func (c *Global) RetryBaseDelay() time.Duration {
	return time.Duration(c.RetryBaseDelayMs) * time.Millisecond
}
func (c *Global) RetryMaxDelay() time.Duration {
	return time.Duration(c.RetryMaxDelayMs) * time.Millisecond
}
func (c *Global) CacheTTL() time.Duration   { return time.Duration(c.InsightCacheTTL) * time.Second }
func (c *Global) SessionTTL() time.Duration { return time.Duration(c.SessionTTLMin) * time.Minute }

// SampleThresholdBytes converts the MB setting; 0 disables sampling.
func (c *Global) SampleThresholdBytes() int64 { return int64(c.SampleThresholdMB) << 20 }

// APIKeyFor returns the credential of a hosted provider.
func (c *Global) APIKeyFor(provider string) string {
	switch provider {
	case "openrouter":
		return c.OpenRouterAPIKey
	case "huggingface", "":
		return c.HFAPIToken
	default:
		return ""
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks ranges and enumerations.
func (c *Global) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Dir is ~/.prism, where the config file and the default audit file live.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".prism"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.prism/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		dir, err := Dir()
		if err != nil {
			return err
		}
		path = filepath.Join(dir, "config.yaml")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: flags (cfgFile) > env > config file > defaults.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("PRISM")
	v.AutomaticEnv()

	// Every key needs a default for AutomaticEnv to reach it on Unmarshal.
	v.SetDefault("llm_provider", "huggingface")
	v.SetDefault("llm_models", []string{})
	v.SetDefault("hf_api_token", "")
	v.SetDefault("openrouter_api_key", "")
	v.SetDefault("max_tokens", 150)
	v.SetDefault("temperature", 0.7)
	v.SetDefault("llm_rate_per_sec", 0.0)
	v.SetDefault("insight_cache_ttl_sec", 600)
	// HTTP/retry defaults
	v.SetDefault("http_timeout_sec", 60)
	v.SetDefault("retry_max_attempts", 3)
	v.SetDefault("retry_base_delay_ms", 500)
	v.SetDefault("retry_max_delay_ms", 4000)
	v.SetDefault("ollama_host", "http://127.0.0.1:11434")
	v.SetDefault("audit_dsn", "")
	v.SetDefault("audit_file", "")
	v.SetDefault("actor", "Manager")
	v.SetDefault("server_addr", ":8080")
	v.SetDefault("session_ttl_min", 30)
	v.SetDefault("sample_threshold_mb", 200)
	v.SetDefault("sample_rows", 10000)
	v.SetDefault("revenue_target", 1000000.0)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "json")

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		dir, err := Dir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	// The Hugging Face CLI convention is honoured when no prism token is set.
	if c.HFAPIToken == "" {
		c.HFAPIToken = os.Getenv("HF_TOKEN")
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}
