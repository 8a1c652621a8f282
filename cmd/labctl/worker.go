package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/upsurge/campaign-lab/internal/app"
	"github.com/upsurge/campaign-lab/internal/domain/optimizer"
)

var runOnce bool

var serveWorkerCmd = &cobra.Command{
	Use:   "serve-worker",
	Short: "Run the periodic optimizer and underperformer scan without the HTTP API",
	Args:  cobra.NoArgs,
	RunE:  runServeWorker,
}

func init() {
	serveWorkerCmd.Flags().BoolVar(&runOnce, "once", false, "run a single pass over active campaigns and exit")
	rootCmd.AddCommand(serveWorkerCmd)
}

func runServeWorker(cmd *cobra.Command, args []string) error {
	return withApp(cmd, func(ctx context.Context, a *app.App) error {
		w := optimizer.NewWorker(a.Optimizer, actingUser(), cfg.OptimizerInterval)
		if runOnce {
			w.RunOnce()
			return nil
		}

		w.Start()

		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		select {
		case <-quit:
		case <-ctx.Done():
		}

		log.Info().Msg("Shutting down worker...")
		w.Stop()
		return nil
	})
}
