package cmd

import (
	"fmt"
	"strconv"
	"strings"

	cfgpkg "github.com/KaramelBytes/prism-cli/internal/config"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set Prism configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := ensureConfig()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "llm_provider: %s\n", c.LLMProvider)
		if len(c.LLMModels) > 0 {
			fmt.Fprintf(out, "llm_models: %s\n", strings.Join(c.LLMModels, ","))
		}
		fmt.Fprintf(out, "hf_api_token: %s\n", mask(c.HFAPIToken))
		fmt.Fprintf(out, "openrouter_api_key: %s\n", mask(c.OpenRouterAPIKey))
		fmt.Fprintf(out, "ollama_host: %s\n", c.OllamaHost)
		fmt.Fprintf(out, "max_tokens: %d\n", c.MaxTokens)
		fmt.Fprintf(out, "temperature: %.3f\n", c.Temperature)
		if c.LLMRatePerSec > 0 {
			fmt.Fprintf(out, "llm_rate_per_sec: %.2f\n", c.LLMRatePerSec)
		}
		fmt.Fprintf(out, "insight_cache_ttl_sec: %d\n", c.InsightCacheTTL)
		fmt.Fprintf(out, "http_timeout_sec: %d\n", c.HTTPTimeoutSec)
		fmt.Fprintf(out, "retry_max_attempts: %d\n", c.RetryMaxAttempts)
		if c.AuditDSN != "" {
			fmt.Fprintf(out, "audit_dsn: %s\n", mask(c.AuditDSN))
		}
		if c.AuditFile != "" {
			fmt.Fprintf(out, "audit_file: %s\n", c.AuditFile)
		}
		fmt.Fprintf(out, "actor: %s\n", c.Actor)
		fmt.Fprintf(out, "server_addr: %s\n", c.ServerAddr)
		fmt.Fprintf(out, "session_ttl_min: %d\n", c.SessionTTLMin)
		fmt.Fprintf(out, "sample_threshold_mb: %d\n", c.SampleThresholdMB)
		fmt.Fprintf(out, "sample_rows: %d\n", c.SampleRows)
		fmt.Fprintf(out, "revenue_target: %.2f\n", c.RevenueTarget)
		fmt.Fprintf(out, "log_level: %s\n", c.LogLevel)
		fmt.Fprintf(out, "log_format: %s\n", c.LogFormat)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value and save to disk",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, val := args[0], args[1]
		c, err := ensureConfig()
		if err != nil {
			return err
		}
		if err := setConfigValue(c, key, val); err != nil {
			return err
		}
		if err := c.Validate(); err != nil {
			return err
		}
		if err := cfgpkg.Save(c, cfgFile); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Saved config")
		return nil
	},
}

func setConfigValue(c *cfgpkg.Global, key, val string) error {
	atoi := func() (int, error) {
		i, err := strconv.Atoi(val)
		if err != nil || i < 0 {
			return 0, fmt.Errorf("invalid int for %s: %v", key, val)
		}
		return i, nil
	}
	atof := func() (float64, error) {
		f, err := strconv.ParseFloat(val, 64)
		if err != nil || f < 0 {
			return 0, fmt.Errorf("invalid float for %s: %v", key, val)
		}
		return f, nil
	}
	var err error
	switch key {
	case "llm_provider":
		switch strings.ToLower(val) {
		case "huggingface", "hf":
			c.LLMProvider = "huggingface"
		case "openrouter":
			c.LLMProvider = "openrouter"
		case "ollama", "local":
			c.LLMProvider = "ollama"
		default:
			return fmt.Errorf("invalid llm_provider: %s (use huggingface, openrouter or ollama)", val)
		}
	case "llm_models":
		c.LLMModels = nil
		for _, m := range strings.Split(val, ",") {
			if m = strings.TrimSpace(m); m != "" {
				c.LLMModels = append(c.LLMModels, m)
			}
		}
	case "hf_api_token":
		c.HFAPIToken = val
	case "openrouter_api_key":
		c.OpenRouterAPIKey = val
	case "ollama_host":
		c.OllamaHost = val
	case "max_tokens":
		c.MaxTokens, err = atoi()
	case "temperature":
		c.Temperature, err = atof()
	case "llm_rate_per_sec":
		c.LLMRatePerSec, err = atof()
	case "insight_cache_ttl_sec":
		c.InsightCacheTTL, err = atoi()
	case "http_timeout_sec":
		c.HTTPTimeoutSec, err = atoi()
	case "retry_max_attempts":
		c.RetryMaxAttempts, err = atoi()
	case "retry_base_delay_ms":
		c.RetryBaseDelayMs, err = atoi()
	case "retry_max_delay_ms":
		c.RetryMaxDelayMs, err = atoi()
	case "audit_dsn":
		c.AuditDSN = val
	case "audit_file":
		c.AuditFile = val
	case "actor":
		c.Actor = val
	case "server_addr":
		c.ServerAddr = val
	case "session_ttl_min":
		c.SessionTTLMin, err = atoi()
	case "sample_threshold_mb":
		c.SampleThresholdMB, err = atoi()
	case "sample_rows":
		c.SampleRows, err = atoi()
	case "revenue_target":
		c.RevenueTarget, err = atof()
	case "log_level":
		c.LogLevel = strings.ToLower(val)
	case "log_format":
		c.LogFormat = strings.ToLower(val)
	default:
		return fmt.Errorf("unknown key: %s", key)
	}
	return err
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}

func mask(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 6 {
		return "******"
	}
	return s[:3] + "****" + s[len(s)-3:]
}
