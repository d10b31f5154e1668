package main

import (
	"github.com/spf13/cobra"

	"github.com/hartyporpoise/smusensors/internal/config"
	"github.com/hartyporpoise/smusensors/internal/tui"
)

func newTUICommand(cfg **config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Interactive terminal dashboard",
		Long: `Interactive terminal dashboard.

Keys: q quit, t/p/f toggle temperatures/power/frequencies,
+/- change the refresh interval by 100ms (minimum 100ms).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c := *cfg
			access, reader, err := openReader(c)
			if err != nil {
				return err
			}
			firmware, _ := access.FirmwareVersion()
			return tui.Run(reader.Read, firmware, c.Interval)
		},
	}
}
