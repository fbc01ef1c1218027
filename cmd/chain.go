package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/goosewin/visionquest/internal/chain"
	"github.com/spf13/cobra"
)

var (
	chainModel  string
	chainSystem string
)

var chainCmd = &cobra.Command{
	Use:   "chain <input>",
	Short: "Run the system/user prompt chain on an input",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runChain,
}

func init() {
	chainCmd.Flags().StringVarP(&chainModel, "model", "m", "", "Model (default from chat.model)")
	chainCmd.Flags().StringVarP(&chainSystem, "system", "s", chain.DefaultSystemPrompt, "System prompt template")
	rootCmd.AddCommand(chainCmd)
}

func runChain(cmd *cobra.Command, args []string) error {
	input := strings.TrimSpace(strings.Join(args, " "))
	if input == "" {
		return errors.New("input is required")
	}

	b, err := openBackend()
	if err != nil {
		return err
	}

	template := chain.DefinitionTemplate(chainSystem)
	messages, err := template.Format(map[string]string{"input": input})
	if err != nil {
		return err
	}
	for _, message := range messages {
		logger.Debug("chain message", "role", message.Role, "content", message.Content)
	}

	c := &chain.Chain{
		Template: template,
		Backend:  b,
		Model:    stringOrConfig(cmd, "model", chainModel, "chat.model"),
		Options:  chatOptions(),
		Parser:   chain.StringParser,
	}
	result, err := c.Invoke(cmd.Context(), map[string]string{"input": input})
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), result)
	return nil
}
