package insights

import (
	"context"
	"log/slog"
	"time"

	"github.com/KaramelBytes/prism-cli/internal/ai"
	"github.com/KaramelBytes/prism-cli/internal/audit"
	"github.com/KaramelBytes/prism-cli/internal/metrics"
	"github.com/KaramelBytes/prism-cli/internal/utils"
)

// MaxPromptTokens caps the task text sent upstream.
const MaxPromptTokens = 512

// Completer answers prompts. *ai.Fallback satisfies it.
type Completer interface {
	Complete(ctx context.Context, prompt string) ai.Answer
}

// Insight is one generated analysis.
type Insight struct {
	Kind    Kind          `json:"kind"`
	Title   string        `json:"title"`
	Text    string        `json:"text"`
	Model   string        `json:"model,omitempty"`
	Backend string        `json:"backend,omitempty"`
	Cached  bool          `json:"cached"`
	Busy    bool          `json:"busy"`
	Elapsed time.Duration `json:"elapsed_ns"`
	Prompt  string        `json:"-"`
}

// Seconds formats Elapsed the way the dashboard caption does.
func (i Insight) Seconds() float64 { return i.Elapsed.Seconds() }

// Service wires the LLM chain and the audit recorder together.
type Service struct {
	Completer Completer
	Recorder  *audit.Recorder
	Logger    *slog.Logger
	now       func() time.Time
}

func NewService(c Completer, rec *audit.Recorder, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{Completer: c, Recorder: rec, Logger: log.With(slog.String("component", "insights")), now: time.Now}
}

// Run generates kind for summary. The request is audited under the kind's
// label whether or not a backend answered.
func (s *Service) Run(ctx context.Context, kind Kind, summary metrics.Summary, actor string) Insight {
	prompt := utils.TruncateToTokenLimit(Prompt(kind, FormatStats(summary)), MaxPromptTokens)
	now := s.now
	if now == nil {
		now = time.Now
	}
	start := now()
	ans := s.Completer.Complete(ctx, prompt)
	in := Insight{
		Kind:    kind,
		Title:   kind.Title(),
		Text:    ans.Text,
		Model:   ans.Model,
		Backend: ans.Backend,
		Cached:  ans.Cached,
		Busy:    ans.Busy,
		Elapsed: now().Sub(start),
		Prompt:  prompt,
	}
	s.Recorder.Log(ctx, kind.Label(), actor)
	if s.Logger != nil {
		s.Logger.Info("insight generated",
			slog.String("kind", string(kind)),
			slog.String("model", in.Model),
			slog.Bool("cached", in.Cached),
			slog.Bool("busy", in.Busy),
			slog.Int("prompt_tokens", utils.CountTokens(prompt)),
			slog.Duration("elapsed", in.Elapsed))
	}
	return in
}
