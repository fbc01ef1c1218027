package cmd

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/goosewin/visionquest/internal/backend"
	"github.com/goosewin/visionquest/internal/config"
	"github.com/spf13/cobra"
)

var backendsCmd = &cobra.Command{
	Use:   "backends",
	Short: "List available model backends",
	RunE:  runBackends,
}

func init() {
	rootCmd.AddCommand(backendsCmd)
}

func runBackends(cmd *cobra.Command, args []string) error {
	names := backend.Names()
	out := cmd.OutOrStdout()
	if len(names) == 0 {
		fmt.Fprintln(out, "No backends registered")
		return nil
	}

	host := stringOrConfig(cmd, "ollama-host", backendHost, "backend.host")
	writer := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(writer, "NAME\tHOST\tREACHABLE")
	fmt.Fprintln(writer, "----\t----\t---------")

	for _, name := range names {
		reachable := "no"
		instance, err := backend.Open(name, backend.Config{Host: host})
		if err == nil {
			ctx, cancel := context.WithTimeout(cmd.Context(), 3*time.Second)
			if err := instance.CheckAvailable(ctx); err == nil {
				reachable = "yes"
			}
			cancel()
		}
		fmt.Fprintf(writer, "%s\t%s\t%s\n", name, host, reachable)
	}

	if err := writer.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(out, "")
	fmt.Fprintf(out, "Usage: visionquest serve --backend <name> (current: %s)\n", config.String("backend.name"))
	return nil
}
