package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/goosewin/visionquest/internal/backend"
	"github.com/spf13/cobra"
)

var (
	generateModel  string
	generateSystem string
	generateStream bool
)

var generateCmd = &cobra.Command{
	Use:   "generate <prompt>",
	Short: "Run a one-shot completion",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runGenerate,
}

func init() {
	generateCmd.Flags().StringVarP(&generateModel, "model", "m", "", "Model (default from chat.model)")
	generateCmd.Flags().StringVarP(&generateSystem, "system", "s", "", "System prompt")
	generateCmd.Flags().BoolVar(&generateStream, "stream", true, "Print the reply as it arrives")
	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	prompt := strings.TrimSpace(strings.Join(args, " "))
	if prompt == "" {
		return errors.New("prompt is required")
	}

	b, err := openBackend()
	if err != nil {
		return err
	}

	req := backend.GenerateRequest{
		Model:   stringOrConfig(cmd, "model", generateModel, "chat.model"),
		Prompt:  prompt,
		System:  strings.TrimSpace(generateSystem),
		Options: chatOptions(),
	}
	if generateStream {
		req.Stream = streamTo(cmd)
	}

	response, err := b.Generate(cmd.Context(), req)
	if err != nil {
		return err
	}
	if generateStream {
		fmt.Fprintln(cmd.OutOrStdout())
		return nil
	}
	fmt.Fprintln(cmd.OutOrStdout(), response)
	return nil
}
