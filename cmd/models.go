package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var modelsCmd = &cobra.Command{
	Use:     "models",
	Aliases: []string{"list"},
	Short:   "List models installed on the backend",
	Args:    cobra.NoArgs,
	RunE:    runModels,
}

func init() {
	rootCmd.AddCommand(modelsCmd)
}

func runModels(cmd *cobra.Command, args []string) error {
	b, err := openBackend()
	if err != nil {
		return err
	}
	models, err := b.ListModels(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(models) == 0 {
		fmt.Fprintln(out, "No models installed")
		return nil
	}

	writer := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(writer, "NAME\tFAMILY\tPARAMETERS\tSIZE\tMODIFIED")
	fmt.Fprintln(writer, "----\t------\t----------\t----\t--------")
	for _, model := range models {
		modified := "-"
		if !model.ModifiedAt.IsZero() {
			modified = model.ModifiedAt.Format("2006-01-02 15:04")
		}
		fmt.Fprintf(writer, "%s\t%s\t%s\t%s\t%s\n",
			model.Name, orDash(model.Family), orDash(model.Parameters), formatSize(model.Size), modified)
	}
	return writer.Flush()
}

func formatSize(bytes int64) string {
	const unit = 1000
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "kMGTPE"[exp])
}

func orDash(value string) string {
	if value == "" {
		return "-"
	}
	return value
}
