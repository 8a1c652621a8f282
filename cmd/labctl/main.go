package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/upsurge/campaign-lab/internal/app"
	"github.com/upsurge/campaign-lab/internal/config"
	"github.com/upsurge/campaign-lab/internal/pkg/logger"
)

var (
	cfg      *config.Config
	asUserID int64
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "labctl",
	Short: "Campaign Lab operator CLI",
	Long:  `labctl runs winner identification, the optimizer and underperformer scans against the campaign lab database.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg = config.Load()
		return logger.Init(logger.Config{
			Level:       cfg.LogLevel,
			Environment: cfg.Env,
			LogFile:     cfg.LogFile,
		})
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().Int64Var(&asUserID, "as-user", 0, "acting user id recorded in the audit trail (defaults to OPTIMIZER_SYSTEM_USER_ID)")
}

// withApp wires the services for one command and tears them down afterwards
func withApp(cmd *cobra.Command, run func(ctx context.Context, a *app.App) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := app.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to start application: %w", err)
	}
	defer a.Close()

	if err := run(ctx, a); err != nil {
		log.Error().Err(err).Str("command", cmd.Name()).Msg("Command failed")
		return err
	}
	return nil
}

func actingUser() int64 {
	if asUserID > 0 {
		return asUserID
	}
	return cfg.OptimizerSystemUserID
}
