package cmd

import (
	"fmt"
	"strings"

	"github.com/KaramelBytes/prism-cli/internal/ai"
	"github.com/KaramelBytes/prism-cli/internal/utils"
	"github.com/spf13/cobra"
)

var modelsJSON bool

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "Show providers, their default model chains and the active chain",
	Example: `  prism models
  prism models --json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := ensureConfig()
		if err != nil {
			return err
		}
		presets := map[string][]string{}
		for _, p := range ai.Providers() {
			if chain, ok := ai.FallbackPreset(p); ok {
				presets[p] = chain
			}
		}
		backends, err := ai.BuildBackends(c.LLMProvider, c.LLMModels, runtimeConfig(c, ""))
		if err != nil {
			return err
		}
		active := make([]string, len(backends))
		for i, b := range backends {
			active[i] = b.String()
		}

		out := cmd.OutOrStdout()
		if modelsJSON {
			b, err := utils.PrettyJSON(map[string]any{"presets": presets, "active": active})
			if err != nil {
				return err
			}
			fmt.Fprintln(out, string(b))
			return nil
		}
		for _, p := range ai.Providers() {
			fmt.Fprintf(out, "%s:\n", p)
			for i, m := range presets[p] {
				fmt.Fprintf(out, "  %d. %s\n", i+1, m)
			}
		}
		fmt.Fprintf(out, "\nActive chain: %s\n", strings.Join(active, " → "))
		for _, b := range backends {
			if b.Name != ai.ProviderOllama && c.APIKeyFor(b.Name) == "" {
				fmt.Fprintf(out, "⚠ No API key configured for %s\n", b.Name)
				break
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(modelsCmd)
	modelsCmd.Flags().BoolVar(&modelsJSON, "json", false, "print machine-readable JSON")
}
