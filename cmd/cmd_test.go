package cmd

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/KaramelBytes/prism-cli/internal/ai"
	"github.com/KaramelBytes/prism-cli/internal/ingest"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const salesCSV = "Region,Sales,Units\nNorth,100,1\nSouth,200,2\nNorth,100,1\n,,\nNorth,300,3\n"

// runCmd executes the root command with args and returns what it printed.
func runCmd(t *testing.T, args ...string) string {
	t.Helper()
	out, err := execCmd(args...)
	if err != nil {
		t.Fatalf("command %v failed: %v\n%s", args, err, out)
	}
	return out
}

func execCmd(args ...string) (string, error) {
	// Flags are bound to package variables and keep their values across
	// Execute calls, so every run starts from the declared defaults.
	resetFlags(rootCmd.PersistentFlags())
	walkCommands(rootCmd, func(c *cobra.Command) { resetFlags(c.Flags()) })
	cfg = nil

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func resetFlags(fs *pflag.FlagSet) {
	fs.VisitAll(func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	})
}

func walkCommands(c *cobra.Command, fn func(*cobra.Command)) {
	fn(c)
	for _, sub := range c.Commands() {
		walkCommands(sub, fn)
	}
}

// sandbox points HOME at a temp dir so config and audit history stay local,
// and writes the sales fixture there.
func sandbox(t *testing.T) (home, data string) {
	t.Helper()
	home = t.TempDir()
	t.Setenv("HOME", home)
	data = filepath.Join(home, "sales.csv")
	if err := os.WriteFile(data, []byte(salesCSV), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return home, data
}

func TestProfileWritesMarkdown(t *testing.T) {
	home, data := sandbox(t)
	out := filepath.Join(home, "out", "sales.md")
	msg := runCmd(t, "profile", data, "-o", out, "--group-by", "Region")
	if !strings.Contains(msg, "✓ Wrote profile to") {
		t.Fatalf("unexpected output: %s", msg)
	}
	body, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read profile: %v", err)
	}
	for _, want := range []string{"[DATASET SUMMARY]", "File: sales.csv", "Rows: 5", "Region=North"} {
		if !strings.Contains(string(body), want) {
			t.Fatalf("profile missing %q:\n%s", want, body)
		}
	}
}

func TestProfileBatchToDirectory(t *testing.T) {
	home, data := sandbox(t)
	second := filepath.Join(home, "east.csv")
	if err := os.WriteFile(second, []byte("Region,Sales\nEast,5\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	dir := filepath.Join(home, "summaries")
	msg := runCmd(t, "profile", filepath.Join(home, "*.csv"), "--output-dir", dir, "--format", "json")
	if !strings.Contains(msg, "[1/2] Processing east.csv") || !strings.Contains(msg, "[2/2] Processing sales.csv") {
		t.Fatalf("progress output: %s", msg)
	}
	b, err := os.ReadFile(filepath.Join(dir, "sales.summary.json"))
	if err != nil {
		t.Fatalf("read json summary: %v", err)
	}
	var rep struct {
		Name string `json:"name"`
		Rows int    `json:"rows"`
	}
	if err := json.Unmarshal(b, &rep); err != nil || rep.Rows != 5 || rep.Name != filepath.Base(data) {
		t.Fatalf("summary = %+v (%v)", rep, err)
	}
	if _, err := execCmd("profile", filepath.Join(home, "*.csv"), "-o", "x.md"); err == nil {
		t.Fatalf("--output with several inputs should fail")
	}
}

func TestCleanWritesXLSX(t *testing.T) {
	home, data := sandbox(t)
	out := filepath.Join(home, "clean.xlsx")
	msg := runCmd(t, "clean", data, "-o", out)
	if !strings.Contains(msg, "Removed 2 empty or duplicate rows.") {
		t.Fatalf("clean output: %s", msg)
	}
	res, err := ingest.LoadFile(out, ingest.Options{})
	if err != nil {
		t.Fatalf("reload cleaned file: %v", err)
	}
	if res.Dataset.NumRows() != 3 {
		t.Fatalf("cleaned rows = %d, want 3", res.Dataset.NumRows())
	}
}

func TestMetricsJSONAndFilter(t *testing.T) {
	_, data := sandbox(t)
	var got struct {
		Available bool `json:"available"`
		Rows      int  `json:"rows"`
		Stats     []struct {
			Label string `json:"label"`
			Value string `json:"value"`
		} `json:"stats"`
		Chart struct {
			Column string `json:"column"`
		} `json:"chart"`
	}
	if err := json.Unmarshal([]byte(runCmd(t, "metrics", data, "--json")), &got); err != nil {
		t.Fatalf("decode metrics: %v", err)
	}
	if !got.Available || got.Rows != 5 || len(got.Stats) != 3 {
		t.Fatalf("metrics = %+v", got)
	}
	if got.Stats[0].Value != "$700.00" || got.Stats[2].Value != "North" || got.Chart.Column != "Region" {
		t.Fatalf("stats = %+v chart = %+v", got.Stats, got.Chart)
	}

	text := runCmd(t, "metrics", data, "--filter", "Region=South")
	if !strings.Contains(text, "$200.00") || !strings.Contains(text, "(1 rows)") {
		t.Fatalf("filtered metrics: %s", text)
	}
	if _, err := execCmd("metrics", data, "--filter", "Region"); err == nil {
		t.Fatalf("malformed --filter should fail")
	}
}

func TestMetricsJSONWithInfinity(t *testing.T) {
	home, _ := sandbox(t)
	data := filepath.Join(home, "inf.csv")
	if err := os.WriteFile(data, []byte("Region,Sales\nNorth,1\nSouth,inf\nNorth,3\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	var got struct {
		Available bool `json:"available"`
		Rows      int  `json:"rows"`
	}
	out := runCmd(t, "metrics", data, "--json")
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decode metrics: %v\n%s", err, out)
	}
	if !got.Available || got.Rows != 3 {
		t.Fatalf("metrics = %+v", got)
	}
}

func TestReportExportAndLogs(t *testing.T) {
	home, data := sandbox(t)
	report := filepath.Join(home, "Executive_Summary.txt")
	runCmd(t, "report", data, "-o", report, "--actor", "CFO")
	body, err := os.ReadFile(report)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	if !strings.Contains(string(body), "EXECUTIVE INTELLIGENCE REPORT") || !strings.Contains(string(body), "$700.00") {
		t.Fatalf("report body:\n%s", body)
	}
	runCmd(t, "export", data, "-o", filepath.Join(home, "data.csv"), "--clean")

	var logs struct {
		Stats struct {
			Total       int `json:"total_events"`
			ActiveRoles int `json:"active_roles"`
		} `json:"stats"`
		Entries []struct {
			Action string `json:"action"`
			User   string `json:"user"`
		} `json:"entries"`
	}
	if err := json.Unmarshal([]byte(runCmd(t, "logs", "--json")), &logs); err != nil {
		t.Fatalf("decode logs: %v", err)
	}
	if logs.Stats.Total != 2 || logs.Stats.ActiveRoles != 2 {
		t.Fatalf("stats = %+v", logs.Stats)
	}
	if logs.Entries[0].Action != "Download Data" || logs.Entries[1].User != "CFO" {
		t.Fatalf("entries = %+v", logs.Entries)
	}

	text := runCmd(t, "logs", "--q", "REPORT")
	if !strings.Contains(text, "Download Executive Report") || strings.Contains(text, "Download Data") {
		t.Fatalf("search output: %s", text)
	}
	if _, err := os.Stat(filepath.Join(home, ".prism", "history.json")); err != nil {
		t.Fatalf("history file not written: %v", err)
	}
}

func TestInsightUsesModelChain(t *testing.T) {
	home, data := sandbox(t)
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		var req ai.GenerateRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Model == "broken" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"- North leads revenue"}}]}`))
	}))
	defer srv.Close()
	t.Setenv("PRISM_HF_API_TOKEN", "hf_test_token")

	out := runCmd(t, "insight", data, "--kind", "email", "--base-url", srv.URL,
		"-m", "broken", "-m", "good", "--retry-max", "1", "--actor", "CEO")
	for _, want := range []string{"## Draft: Executive Brief", "- North leads revenue", "by good", "mailto:?subject=Executive%20Update"} {
		if !strings.Contains(out, want) {
			t.Fatalf("insight output missing %q:\n%s", want, out)
		}
	}
	if hits.Load() != 2 {
		t.Fatalf("upstream calls = %d, want 2", hits.Load())
	}

	busy := runCmd(t, "insight", data, "-k", "trends", "--base-url", srv.URL, "-m", "broken", "--retry-max", "1")
	if !strings.Contains(busy, ai.BusyMessage) {
		t.Fatalf("busy output: %s", busy)
	}

	logs := runCmd(t, "logs", "--actor", "ceo")
	if !strings.Contains(logs, "Draft CEO Email") || strings.Contains(logs, "Summarize Trends") {
		t.Fatalf("audit after insights: %s", logs)
	}
	if _, err := os.Stat(filepath.Join(home, ".prism", "history.json")); err != nil {
		t.Fatalf("history not persisted: %v", err)
	}
	if _, err := execCmd("insight", data, "--kind", "poetry"); err == nil {
		t.Fatalf("unknown kind should fail")
	}
}

func TestConfigSetAndShow(t *testing.T) {
	sandbox(t)
	runCmd(t, "config", "set", "llm_provider", "OpenRouter")
	runCmd(t, "config", "set", "openrouter_api_key", "sk-or-abcdef123")
	runCmd(t, "config", "set", "llm_models", "a, b")
	out := runCmd(t, "config", "show")
	for _, want := range []string{"llm_provider: openrouter", "openrouter_api_key: sk-****123", "llm_models: a,b"} {
		if !strings.Contains(out, want) {
			t.Fatalf("config show missing %q:\n%s", want, out)
		}
	}
	if _, err := execCmd("config", "set", "nope", "1"); err == nil {
		t.Fatalf("unknown key should fail")
	}
	if _, err := execCmd("config", "set", "log_format", "xml"); err == nil {
		t.Fatalf("invalid log_format should fail validation")
	}
}

func TestModelsShowsActiveChain(t *testing.T) {
	sandbox(t)
	t.Setenv("HF_TOKEN", "")
	t.Setenv("PRISM_HF_API_TOKEN", "")
	out := runCmd(t, "models")
	if !strings.Contains(out, "Active chain: huggingface:microsoft/Phi-3-mini-4k-instruct") {
		t.Fatalf("models output: %s", out)
	}
	if !strings.Contains(out, "⚠ No API key configured for huggingface") {
		t.Fatalf("missing key warning: %s", out)
	}
}

func TestParseSeparators(t *testing.T) {
	var opt ingest.Options
	if err := parseSeparators(&opt, "tab", "comma", "space"); err != nil {
		t.Fatal(err)
	}
	if opt.Delimiter != '\t' || opt.DecimalSeparator != ',' || opt.ThousandsSeparator != ' ' {
		t.Fatalf("options = %+v", opt)
	}
	for _, bad := range [][3]string{{"x", "", ""}, {"", "x", ""}, {"", "", "x"}} {
		if err := parseSeparators(&ingest.Options{}, bad[0], bad[1], bad[2]); err == nil {
			t.Fatalf("expected error for %v", bad)
		}
	}
}
