package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/KaramelBytes/prism-cli/internal/ai"
	"github.com/KaramelBytes/prism-cli/internal/audit"
	cfgpkg "github.com/KaramelBytes/prism-cli/internal/config"
)

// auditOptions picks the configured backend. Without a DSN or file the CLI
// keeps history in ~/.prism/history.json so it survives between runs.
func auditOptions(c *cfgpkg.Global) (audit.Options, error) {
	opt := audit.Options{DSN: c.AuditDSN, Path: c.AuditFile}
	if opt.DSN == "" && opt.Path == "" {
		dir, err := cfgpkg.Dir()
		if err != nil {
			return opt, err
		}
		opt.Path = filepath.Join(dir, "history.json")
	}
	return opt, nil
}

func openRecorder(ctx context.Context, c *cfgpkg.Global, log *slog.Logger) (*audit.Recorder, error) {
	opt, err := auditOptions(c)
	if err != nil {
		return nil, err
	}
	store, err := audit.Open(ctx, opt)
	if err != nil {
		return nil, fmt.Errorf("open %s audit store: %w", opt.Backend(), err)
	}
	log.Debug("audit store opened", slog.String("backend", opt.Backend()))
	return audit.NewRecorder(store, log), nil
}

// runtimeConfig maps config onto a provider's runtime settings. A non-empty
// baseURL points the hosted providers at another OpenAI-compatible endpoint.
func runtimeConfig(c *cfgpkg.Global, baseURL string) func(provider string) ai.RuntimeConfig {
	return func(provider string) ai.RuntimeConfig {
		rc := ai.RuntimeConfig{
			HTTPTimeout: c.HTTPTimeout(),
			RetryMax:    c.RetryMaxAttempts,
			BaseDelay:   c.RetryBaseDelay(),
			MaxDelay:    c.RetryMaxDelay(),
			APIKey:      c.APIKeyFor(provider),
			Host:        c.OllamaHost,
		}
		if provider != ai.ProviderOllama {
			rc.BaseURL = baseURL
		}
		return rc
	}
}

// buildFallback resolves the configured model chain. models overrides
// llm_models when non-empty.
func buildFallback(c *cfgpkg.Global, models []string, baseURL string, log *slog.Logger, observe func(ai.Attempt)) (*ai.Fallback, error) {
	if len(models) == 0 {
		models = c.LLMModels
	}
	backends, err := ai.BuildBackends(c.LLMProvider, models, runtimeConfig(c, baseURL))
	if err != nil {
		return nil, err
	}
	return ai.NewFallback(backends, ai.FallbackOptions{
		MaxTokens:   c.MaxTokens,
		Temperature: c.Temperature,
		CacheTTL:    c.CacheTTL(),
		RatePerSec:  c.LLMRatePerSec,
		Logger:      log,
		Observe:     observe,
	}), nil
}
