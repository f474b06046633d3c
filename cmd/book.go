package cmd

import (
	"context"
	"fmt"

	"smartstay-cli/api"

	"github.com/spf13/cobra"
)

func bookCmd() *cobra.Command {
	var size int

	cmd := &cobra.Command{
		Use:   "book",
		Short: "Allocate a block of rooms",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("size") {
				size = cfg.DefaultSize
			}
			if size < api.MinBooking || size > api.MaxBooking {
				return fmt.Errorf("--size must be between %d and %d", api.MinBooking, api.MaxBooking)
			}

			controller, closeFn := newController()
			defer closeFn()

			controller.SetSize(size)
			return finish(cmd, controller.RequestBooking(context.Background(), size))
		},
	}

	cmd.Flags().IntVarP(&size, "size", "n", api.MinBooking, "Number of rooms (1-5)")
	return cmd
}
