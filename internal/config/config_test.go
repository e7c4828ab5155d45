package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("HF_TOKEN", "")
	c, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.LLMProvider != "huggingface" || c.MaxTokens != 150 || c.Temperature != 0.7 {
		t.Fatalf("llm defaults = %+v", c)
	}
	if c.ServerAddr != ":8080" || c.Actor != "Manager" || c.RevenueTarget != 1000000 {
		t.Fatalf("server defaults = %+v", c)
	}
	if c.SampleThresholdBytes() != 200<<20 || c.SampleRows != 10000 {
		t.Fatalf("sampling defaults = %d/%d", c.SampleThresholdBytes(), c.SampleRows)
	}
	if c.HTTPTimeout() != time.Minute || c.RetryBaseDelay() != 500*time.Millisecond || c.SessionTTL() != 30*time.Minute {
		t.Fatalf("durations = %v %v %v", c.HTTPTimeout(), c.RetryBaseDelay(), c.SessionTTL())
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("PRISM_LLM_PROVIDER", "openrouter")
	t.Setenv("PRISM_OPENROUTER_API_KEY", "sk-or")
	t.Setenv("PRISM_MAX_TOKENS", "99")
	t.Setenv("PRISM_LLM_MODELS", "a/b,ollama:phi3:mini")
	c, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.LLMProvider != "openrouter" || c.APIKeyFor("openrouter") != "sk-or" || c.MaxTokens != 99 {
		t.Fatalf("env overrides = %+v", c)
	}
	if len(c.LLMModels) != 2 || c.LLMModels[1] != "ollama:phi3:mini" {
		t.Fatalf("models = %#v", c.LLMModels)
	}
}

func TestHFTokenFallback(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("HF_TOKEN", "hf_env")
	c, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.APIKeyFor("huggingface") != "hf_env" {
		t.Fatalf("token = %q", c.HFAPIToken)
	}
}

func TestSaveAndReload(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "cfg", "config.yaml")
	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load missing file: %v", err)
	}
	c.Actor = "Analyst"
	c.AuditFile = "/tmp/history.json"
	if err := Save(c, path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if info, err := os.Stat(path); err != nil || info.Mode().Perm() != 0o600 {
		t.Fatalf("saved file: %v %v", info, err)
	}
	again, err := Load(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if again.Actor != "Analyst" || again.AuditFile != "/tmp/history.json" {
		t.Fatalf("reloaded = %+v", again)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("PRISM_LOG_FORMAT", "xml")
	if _, err := Load(""); err == nil {
		t.Fatalf("expected validation error for log_format")
	}
	t.Setenv("PRISM_LOG_FORMAT", "text")
	t.Setenv("PRISM_LLM_PROVIDER", "openai")
	if _, err := Load(""); err == nil {
		t.Fatalf("expected validation error for llm_provider")
	}
}
