package command

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zenercurrent/discord-live-backup/internal/config"
)

// NewCheckCmd validates the config file without touching the network.
func NewCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Validate the swarm config and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, _ := cmd.Flags().GetString("config")
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(),
				"config ok: %d monitored channel pattern(s), %d dedicated identit(ies)\n",
				len(cfg.MonitoredChannels), len(cfg.Swarm))
			return nil
		},
	}
}
