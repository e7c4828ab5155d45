package cmd

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/KaramelBytes/prism-cli/internal/analysis"
	"github.com/KaramelBytes/prism-cli/internal/insights"
	"github.com/KaramelBytes/prism-cli/internal/server"
	"github.com/KaramelBytes/prism-cli/internal/session"
	"github.com/spf13/cobra"
)

var (
	serveAddr      string
	serveModels    []string
	serveBaseURL   string
	serveMaxUpload int64
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the dashboard HTTP API",
	Long: `Serve exposes uploads, filtering, cleaning, metrics, insights, exports
and the audit trail over JSON. Prometheus metrics are served at /metrics.
The server stops gracefully on SIGINT or SIGTERM.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := ensureConfig()
		if err != nil {
			return err
		}
		addr := c.ServerAddr
		if serveAddr != "" {
			addr = serveAddr
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		log := newLogger(c)
		rec, err := openRecorder(ctx, c, log)
		if err != nil {
			return err
		}
		defer rec.Store().Close()

		sessions := session.NewStore(c.SessionTTL())
		defer sessions.Close()
		m := server.NewMetrics(sessions.Len)

		chain, err := buildFallback(c, serveModels, serveBaseURL, log, m.ObserveLLM)
		if err != nil {
			return err
		}
		defer chain.Close()
		for _, b := range chain.Backends() {
			log.Info("model tier", slog.String("backend", b.String()))
		}

		in, err := (&inputFlags{}).options(c)
		if err != nil {
			return err
		}
		srv := server.New(server.Options{
			Addr:           addr,
			DefaultActor:   c.Actor,
			RevenueTarget:  c.RevenueTarget,
			MaxUploadBytes: serveMaxUpload,
			Ingest:         in,
			Profile:        analysis.DefaultOptions(),
		}, server.Deps{
			Sessions: sessions,
			Insights: insights.NewService(chain, rec, log),
			Recorder: rec,
			Metrics:  m,
			Logger:   log,
		})
		if err := srv.ListenAndServe(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config server_addr)")
	serveCmd.Flags().StringSliceVarP(&serveModels, "model", "m", nil, "model chain override (repeatable)")
	serveCmd.Flags().StringVar(&serveBaseURL, "base-url", "", "OpenAI-compatible endpoint for hosted providers")
	serveCmd.Flags().Int64Var(&serveMaxUpload, "max-upload-bytes", 1<<30, "largest accepted upload")
}
