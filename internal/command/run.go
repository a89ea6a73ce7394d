package command

import (
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/zenercurrent/discord-live-backup/internal/config"
	"github.com/zenercurrent/discord-live-backup/internal/platform"
	"github.com/zenercurrent/discord-live-backup/internal/swarm"
)

// NewRunCmd starts the swarm and blocks until interrupted.
func NewRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start the backup swarm",
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, _ := cmd.Flags().GetString("config")
			debug, _ := cmd.Flags().GetBool("debug")
			pollInterval, _ := cmd.Flags().GetDuration("poll-interval")

			log, err := newLogger(debug)
			if err != nil {
				return err
			}
			defer log.Sync()

			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			gatewayFor := func(api platform.API, channelIDs []string) platform.Gateway {
				return platform.NewPollGateway(api, channelIDs, pollInterval)
			}
			s, err := swarm.New(cfg, gatewayFor, configPath, log.Named("swarm"))
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			log.Info("starting", zap.String("config", configPath))
			if err := s.Run(ctx); err != nil && ctx.Err() == nil {
				return err
			}
			log.Info("stopped")
			return nil
		},
	}
	cmd.Flags().Duration("poll-interval", time.Second, "gateway poll interval")
	return cmd
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
