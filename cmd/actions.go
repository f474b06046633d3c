package cmd

import (
	"context"

	"smartstay-cli/state"

	"github.com/spf13/cobra"
)

func resetCmd() *cobra.Command {
	return simpleActionCmd("reset", "Release every room", state.ActionReset)
}

func randomizeCmd() *cobra.Command {
	return simpleActionCmd("randomize", "Randomise room occupancy", state.ActionRandomize)
}

func simpleActionCmd(use, short string, action state.Action) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			controller, closeFn := newController()
			defer closeFn()

			return finish(cmd, controller.RunSimpleAction(context.Background(), action))
		},
	}
}
