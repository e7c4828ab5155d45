package cmd

import (
	"fmt"
	"log/slog"

	"github.com/KaramelBytes/prism-cli/internal/insights"
	"github.com/KaramelBytes/prism-cli/internal/metrics"
	"github.com/KaramelBytes/prism-cli/internal/report"
	"github.com/KaramelBytes/prism-cli/internal/utils"
	"github.com/spf13/cobra"
)

var (
	insInput       inputFlags
	insKinds       []string
	insModels      []string
	insBaseURL     string
	insActor       string
	insJSON        bool
	insPrintPrompt bool
)

var insightCmd = &cobra.Command{
	Use:   "insight <file>",
	Short: "Ask the model chain for executive insights on a dataset",
	Example: `  prism insight sales.csv --kind trends
  prism insight sales.csv --kind email --actor CFO
  prism insight sales.xlsx --kind anomalies --model ollama:phi3:mini`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		kinds := make([]insights.Kind, 0, len(insKinds))
		for _, k := range insKinds {
			kind, err := insights.ParseKind(k)
			if err != nil {
				return err
			}
			kinds = append(kinds, kind)
		}
		if len(kinds) == 0 {
			return fmt.Errorf("--kind is required (trends, anomalies, actions, email)")
		}
		c, err := ensureConfig()
		if err != nil {
			return err
		}
		in, err := insInput.load(args[0], c, cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		summary, ok := metrics.Summarize(in.Current)
		if !ok {
			return fmt.Errorf("no numeric data found in %s", in.Name)
		}

		ctx := cmd.Context()
		log := newLogger(c)
		rec, err := openRecorder(ctx, c, log)
		if err != nil {
			return err
		}
		defer rec.Store().Close()
		chain, err := buildFallback(c, insModels, insBaseURL, log, nil)
		if err != nil {
			return err
		}
		defer chain.Close()
		svc := insights.NewService(chain, rec, log)

		actor := insActor
		if actor == "" {
			actor = c.Actor
		}
		out := cmd.OutOrStdout()
		var results []insights.Insight
		for _, kind := range kinds {
			res := svc.Run(ctx, kind, summary, actor)
			results = append(results, res)
			if insJSON {
				continue
			}
			if insPrintPrompt {
				fmt.Fprintf(out, "--- prompt ---\n%s\n--------------\n", res.Prompt)
			}
			fmt.Fprintf(out, "## %s\n%s\n", res.Title, res.Text)
			if res.Busy {
				log.Warn("every model in the chain failed", slog.String("kind", string(kind)))
				continue
			}
			fmt.Fprintf(out, "Generated in %.2fs by %s\n", res.Seconds(), res.Model)
			if kind == insights.Email {
				fmt.Fprintf(out, "Open in mail client: %s\n", report.MailtoLink(report.EmailSubject, res.Text))
			}
			fmt.Fprintln(out)
		}
		if insJSON {
			b, err := utils.PrettyJSON(results)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, string(b))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(insightCmd)
	insInput.bind(insightCmd)
	insightCmd.Flags().StringSliceVarP(&insKinds, "kind", "k", nil, "insight kind: trends|anomalies|actions|email (repeatable)")
	insightCmd.Flags().StringSliceVarP(&insModels, "model", "m", nil, "model chain override, e.g. openrouter:google/gemma-2-9b-it (repeatable)")
	insightCmd.Flags().StringVar(&insBaseURL, "base-url", "", "OpenAI-compatible endpoint for hosted providers")
	insightCmd.Flags().StringVar(&insActor, "actor", "", "name recorded in the audit log (default from config)")
	insightCmd.Flags().BoolVar(&insJSON, "json", false, "print machine-readable JSON")
	insightCmd.Flags().BoolVar(&insPrintPrompt, "print-prompt", false, "print the prompt sent to the model")
}
