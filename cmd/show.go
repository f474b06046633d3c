package cmd

import (
	"context"

	"github.com/spf13/cobra"
)

func showCmd() *cobra.Command {
	var offline bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the live occupancy map",
		RunE: func(cmd *cobra.Command, args []string) error {
			controller, closeFn := newController()
			defer closeFn()

			snap := controller.Snapshot()
			if !offline {
				snap = controller.Refresh(context.Background())
			}
			return finish(cmd, snap)
		},
	}

	cmd.Flags().BoolVar(&offline, "offline", false, "Show the cached room map without contacting the backend")
	return cmd
}
