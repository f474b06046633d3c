package cmd

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"smartstay-cli/control"

	"github.com/spf13/cobra"
)

func scenarioCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scenario <id|name>",
		Short: "Seed a demonstration scenario and allocate against it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			scenario, err := parseScenario(args[0])
			if err != nil {
				return err
			}

			controller, closeFn := newController()
			defer closeFn()

			return finish(cmd, controller.RunScenario(context.Background(), scenario.ID))
		},
	}

	cmd.AddCommand(scenarioListCmd())
	return cmd
}

func scenarioListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List demonstration scenarios",
		RunE: func(cmd *cobra.Command, args []string) error {
			if outputJSON {
				return writeJSON(control.Scenarios)
			}

			writer := tabwriter.NewWriter(os.Stdout, 2, 2, 2, ' ', 0)
			if !outputCompact {
				fmt.Fprintln(writer, "ID\tNAME\tTITLE\tDESCRIPTION")
			}
			for _, scenario := range control.Scenarios {
				fmt.Fprintf(writer, "%d\t%s\t%s\t%s\n", scenario.ID, scenario.Name, scenario.Title, scenario.Description)
			}
			return writer.Flush()
		},
	}
}

// parseScenario accepts either the numeric id or the backend name.
func parseScenario(input string) (control.Scenario, error) {
	input = strings.TrimSpace(input)
	if id, err := strconv.Atoi(input); err == nil {
		if scenario, ok := control.LookupScenario(id); ok {
			return scenario, nil
		}
	}
	for _, scenario := range control.Scenarios {
		if strings.EqualFold(scenario.Name, input) {
			return scenario, nil
		}
	}
	return control.Scenario{}, fmt.Errorf("unknown scenario %q (run 'smartstay scenario list')", input)
}
