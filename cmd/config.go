package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"smartstay-cli/storage"

	"github.com/spf13/cobra"
)

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect configuration",
	}

	cmd.AddCommand(configShowCmd())
	cmd.AddCommand(configPathCmd())
	return cmd
}

func configShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			if outputJSON {
				return writeJSON(cfg)
			}

			writer := tabwriter.NewWriter(os.Stdout, 2, 2, 2, ' ', 0)
			if !outputCompact {
				fmt.Fprintln(writer, "KEY\tVALUE")
			}
			fmt.Fprintf(writer, "api_url\t%s\n", cfg.APIURL)
			fmt.Fprintf(writer, "default_size\t%d\n", cfg.DefaultSize)
			fmt.Fprintf(writer, "timeout\t%s\n", cfg.Timeout.Std())
			fmt.Fprintf(writer, "refresh_interval\t%s\n", cfg.RefreshInterval.Std())
			fmt.Fprintf(writer, "log_level\t%s\n", cfg.LogLevel)
			fmt.Fprintf(writer, "log_format\t%s\n", cfg.LogFormat)
			fmt.Fprintf(writer, "history\t%t\n", cfg.History)
			return writer.Flush()
		},
	}
}

func configPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the configuration file location",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := storage.ConfigPath()
			if err != nil {
				return err
			}
			fmt.Println(path)
			return nil
		},
	}
}
