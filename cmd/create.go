package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/goosewin/visionquest/internal/backend"
	"github.com/spf13/cobra"
)

var (
	createFrom   string
	createSystem string
)

var createCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a model from a base model and a system prompt",
	Args:  cobra.ExactArgs(1),
	RunE:  runCreate,
}

func init() {
	createCmd.Flags().StringVar(&createFrom, "from", "", "Base model (default from chat.model)")
	createCmd.Flags().StringVarP(&createSystem, "system", "s", "", "System prompt baked into the new model")
	rootCmd.AddCommand(createCmd)
}

func runCreate(cmd *cobra.Command, args []string) error {
	name := strings.TrimSpace(args[0])
	if name == "" {
		return errors.New("model name is required")
	}

	b, err := openBackend()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	req := backend.CreateRequest{
		Model:  name,
		From:   stringOrConfig(cmd, "from", createFrom, "chat.model"),
		System: strings.TrimSpace(createSystem),
	}
	err = b.CreateModel(cmd.Context(), req, func(status string) {
		fmt.Fprintln(out, status)
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Created model %s from %s\n", req.Model, req.From)
	return nil
}
