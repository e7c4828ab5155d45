package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jellydator/ttlcache/v3"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"
)

const (
	// SystemInstruction keeps answers short enough to generate in a second or two.
	SystemInstruction = "You are a fast Business Analyst. Be extremely concise. Use bullet points. Max 50 words."
	// BusyMessage is returned when every backend failed.
	BusyMessage = "AI traffic high. Please try again in 5 seconds."

	DefaultMaxTokens   = 150
	DefaultTemperature = 0.7

	// sharedCallTimeout bounds a completion that has outlived the caller
	// who started it.
	sharedCallTimeout = 2 * time.Minute
)

// Backend is one tier of the fallback chain.
type Backend struct {
	Name    string
	Runtime Runtime
	Model   string
}

func (b Backend) String() string { return b.Name + ":" + b.Model }

// Answer is the outcome of a completion. Busy answers carry BusyMessage.
type Answer struct {
	Text    string `json:"text"`
	Backend string `json:"backend,omitempty"`
	Model   string `json:"model,omitempty"`
	Cached  bool   `json:"cached"`
	Busy    bool   `json:"busy"`
}

// Attempt describes one backend call, reported to FallbackOptions.Observe.
// Outcome is Outcome(Err).
type Attempt struct {
	Backend string
	Model   string
	Elapsed time.Duration
	Err     error
	Outcome string
}

// FallbackOptions tunes a Fallback. Zero values pick the defaults above;
// CacheTTL <= 0 disables memoization and RatePerSec <= 0 disables pacing.
type FallbackOptions struct {
	MaxTokens   int
	Temperature float64
	CacheTTL    time.Duration
	RatePerSec  float64
	Logger      *slog.Logger
	Observe     func(Attempt)
}

// Fallback tries an ordered list of backends and never fails: when all of
// them error out or answer with nothing, the caller gets BusyMessage.
type Fallback struct {
	backends []Backend
	opt      FallbackOptions
	log      *slog.Logger
	cache    *ttlcache.Cache[string, Answer]
	group    singleflight.Group
	limiter  *rate.Limiter
}

// NewFallback builds the chain. Call Close to stop the cache janitor.
func NewFallback(backends []Backend, opt FallbackOptions) *Fallback {
	if opt.MaxTokens <= 0 {
		opt.MaxTokens = DefaultMaxTokens
	}
	if opt.Temperature <= 0 {
		opt.Temperature = DefaultTemperature
	}
	log := opt.Logger
	if log == nil {
		log = slog.Default()
	}
	f := &Fallback{
		backends: append([]Backend(nil), backends...),
		opt:      opt,
		log:      log.With(slog.String("component", "llm")),
	}
	if opt.CacheTTL > 0 {
		f.cache = ttlcache.New[string, Answer](
			ttlcache.WithTTL[string, Answer](opt.CacheTTL),
			ttlcache.WithDisableTouchOnHit[string, Answer](),
		)
		go f.cache.Start()
	}
	if opt.RatePerSec > 0 {
		burst := int(opt.RatePerSec)
		if burst < 1 {
			burst = 1
		}
		f.limiter = rate.NewLimiter(rate.Limit(opt.RatePerSec), burst)
	}
	return f
}

// Backends returns the configured chain in order.
func (f *Fallback) Backends() []Backend { return append([]Backend(nil), f.backends...) }

// Close stops background cache expiry.
func (f *Fallback) Close() {
	if f.cache != nil {
		f.cache.Stop()
	}
}

// Complete answers prompt with the first backend that succeeds. Identical
// prompts are served from cache while fresh, and concurrent identical
// prompts share one upstream call. Busy answers are never cached.
//
// The shared call is detached from ctx: a caller that goes away gets
// BusyMessage at once while joined callers still receive the answer.
func (f *Fallback) Complete(ctx context.Context, prompt string) Answer {
	if ctx.Err() != nil {
		return busyAnswer()
	}
	if f.cache != nil {
		if item := f.cache.Get(prompt); item != nil {
			a := item.Value()
			a.Cached = true
			return a
		}
	}
	ch := f.group.DoChan(prompt, func() (any, error) {
		callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sharedCallTimeout)
		defer cancel()
		a := f.try(callCtx, prompt)
		if !a.Busy && f.cache != nil {
			f.cache.Set(prompt, a, ttlcache.DefaultTTL)
		}
		return a, nil
	})
	select {
	case <-ctx.Done():
		f.log.Warn("caller left before completion", slog.String("error", ctx.Err().Error()))
		return busyAnswer()
	case res := <-ch:
		a := res.Val.(Answer)
		if res.Shared {
			f.log.Debug("joined in-flight completion", slog.String("model", a.Model))
		}
		return a
	}
}

func busyAnswer() Answer { return Answer{Text: BusyMessage, Busy: true} }

func (f *Fallback) try(ctx context.Context, prompt string) Answer {
	req := GenerateRequest{
		Messages: []Message{{
			Role:    "user",
			Content: fmt.Sprintf("%s\n\nTask: %s", SystemInstruction, prompt),
		}},
		MaxTokens:   f.opt.MaxTokens,
		Temperature: f.opt.Temperature,
	}
	down := map[string]string{}
	for _, b := range f.backends {
		if ctx.Err() != nil {
			break
		}
		if why, ok := down[b.Name]; ok {
			f.log.Info("skipping tier", slog.String("backend", b.Name), slog.String("model", b.Model), slog.String("reason", why))
			continue
		}
		if f.limiter != nil {
			if err := f.limiter.Wait(ctx); err != nil {
				f.log.Warn("rate limiter aborted", slog.String("error", err.Error()))
				break
			}
		}
		req.Model = b.Model
		f.log.Info("attempting inference", slog.String("backend", b.Name), slog.String("model", b.Model))
		start := time.Now()
		resp, err := b.Runtime.Generate(ctx, req)
		text := resp.Text()
		if err == nil && text == "" {
			err = errEmptyAnswer
		}
		outcome := Outcome(err)
		f.observe(Attempt{Backend: b.Name, Model: b.Model, Elapsed: time.Since(start), Err: err, Outcome: outcome})
		if err != nil {
			f.log.Warn("model failed, trying next",
				slog.String("backend", b.Name),
				slog.String("model", b.Model),
				slog.String("outcome", outcome),
				slog.String("error", err.Error()))
			if providerDown(outcome) {
				down[b.Name] = outcome
			}
			continue
		}
		return Answer{Text: text, Backend: b.Name, Model: b.Model}
	}
	f.log.Error("all models failed", slog.Int("backends", len(f.backends)))
	return busyAnswer()
}

var errEmptyAnswer = errors.New("empty answer")

func (f *Fallback) observe(a Attempt) {
	if f.opt.Observe != nil {
		f.opt.Observe(a)
	}
}

// ParseBackendSpec splits "provider:model". A spec without a known
// provider prefix is a model for defaultProvider. Ollama tags such as
// "llama3:8b" must be written "ollama:llama3:8b".
func ParseBackendSpec(spec, defaultProvider string) (provider, model string, err error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return "", "", errors.New("empty backend spec")
	}
	if i := strings.Index(spec, ":"); i > 0 {
		p := strings.ToLower(spec[:i])
		if _, ok := registry[p]; ok {
			model = strings.TrimSpace(spec[i+1:])
			if model == "" {
				return "", "", fmt.Errorf("backend spec %q has no model", spec)
			}
			return p, model, nil
		}
	}
	if defaultProvider == "" {
		defaultProvider = ProviderHuggingFace
	}
	return defaultProvider, spec, nil
}
