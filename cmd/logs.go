package cmd

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/KaramelBytes/prism-cli/internal/audit"
	"github.com/KaramelBytes/prism-cli/internal/utils"
	"github.com/spf13/cobra"
)

var (
	logsQuery  string
	logsActor  string
	logsLimit  int
	logsJSON   bool
	logsExport string
)

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Show the audit trail of actions taken",
	Example: `  prism logs
  prism logs --q report
  prism logs --actor CFO --export history.csv`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := ensureConfig()
		if err != nil {
			return err
		}
		rec, err := openRecorder(cmd.Context(), c, newLogger(c))
		if err != nil {
			return err
		}
		defer rec.Store().Close()
		all, err := rec.History(cmd.Context())
		if err != nil {
			return err
		}
		stats := audit.Summarize(all)
		entries := all
		if logsActor != "" {
			entries = audit.ByActor(entries, logsActor)
		}
		entries = audit.Search(entries, logsQuery)
		if logsLimit > 0 && len(entries) > logsLimit {
			entries = entries[:logsLimit]
		}

		out := cmd.OutOrStdout()
		if logsExport != "" {
			if err := writeTable(logsExport, audit.Table(entries)); err != nil {
				return err
			}
			fmt.Fprintf(out, "✓ Wrote %d events to %s\n", len(entries), logsExport)
			return nil
		}
		if logsJSON {
			b, err := utils.PrettyJSON(map[string]any{
				"stats":     stats,
				"last_sync": stats.LastSync(),
				"entries":   entries,
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(out, string(b))
			return nil
		}
		fmt.Fprintf(out, "Total Events: %d  Active Roles: %d  Last Sync: %s\n", stats.Total, stats.UniqueActors, stats.LastSync())
		if len(entries) == 0 {
			fmt.Fprintln(out, "No matching events.")
			return nil
		}
		tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "TIME\tUSER\tACTION")
		for _, e := range entries {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", e.CreatedAt.UTC().Format(time.DateTime), e.Actor, e.Action)
		}
		return tw.Flush()
	},
}

func init() {
	rootCmd.AddCommand(logsCmd)
	logsCmd.Flags().StringVar(&logsQuery, "q", "", "case-insensitive search on action or user")
	logsCmd.Flags().StringVar(&logsActor, "actor", "", "only events by this user")
	logsCmd.Flags().IntVar(&logsLimit, "limit", 0, "maximum events to show (0 = all)")
	logsCmd.Flags().BoolVar(&logsJSON, "json", false, "print machine-readable JSON")
	logsCmd.Flags().StringVar(&logsExport, "export", "", "write matching events to a .csv or .xlsx file (e.g. history.csv)")
}
