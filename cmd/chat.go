package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/goosewin/visionquest/internal/backend"
	"github.com/spf13/cobra"
)

var (
	chatModel     string
	chatSystem    string
	chatAssistant string
	chatStream    bool
)

var chatCmd = &cobra.Command{
	Use:   "chat <message>",
	Short: "Send one chat turn to the chat model",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runChat,
}

func init() {
	chatCmd.Flags().StringVarP(&chatModel, "model", "m", "", "Chat model (default from chat.model)")
	chatCmd.Flags().StringVarP(&chatSystem, "system", "s", "", "System prompt")
	chatCmd.Flags().StringVar(&chatAssistant, "assistant", "", "Prior assistant turn appended after the message")
	chatCmd.Flags().BoolVar(&chatStream, "stream", false, "Print the reply as it arrives")
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) error {
	content := strings.TrimSpace(strings.Join(args, " "))
	if content == "" {
		return errors.New("message is required")
	}

	b, err := openBackend()
	if err != nil {
		return err
	}

	var messages []backend.Message
	if system := strings.TrimSpace(chatSystem); system != "" {
		messages = append(messages, backend.Message{Role: backend.RoleSystem, Content: system})
	}
	messages = append(messages, backend.Message{Role: backend.RoleUser, Content: content})
	if assistant := strings.TrimSpace(chatAssistant); assistant != "" {
		messages = append(messages, backend.Message{Role: backend.RoleAssistant, Content: assistant})
	}

	req := backend.ChatRequest{
		Model:    stringOrConfig(cmd, "model", chatModel, "chat.model"),
		Messages: messages,
		Options:  chatOptions(),
	}
	if chatStream {
		req.Stream = streamTo(cmd)
	}

	reply, err := b.Chat(cmd.Context(), req)
	if err != nil {
		return err
	}
	if chatStream {
		fmt.Fprintln(cmd.OutOrStdout())
		return nil
	}
	fmt.Fprintln(cmd.OutOrStdout(), reply)
	return nil
}
