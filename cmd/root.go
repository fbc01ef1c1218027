package cmd

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/goosewin/visionquest/internal/backend"
	_ "github.com/goosewin/visionquest/internal/backend/ollama"
	"github.com/goosewin/visionquest/internal/config"
	"github.com/goosewin/visionquest/internal/logging"
	"github.com/spf13/cobra"
)

// Version is overridden at build time via -ldflags.
var Version = "dev"

var (
	backendName string
	backendHost string
	logLevel    string

	logger = slog.Default()
)

var rootCmd = &cobra.Command{
	Use:               "visionquest",
	Short:             "Vision guessing game on a local Ollama server",
	Long:              "Visionquest hands out image challenges and asks a local vision model whether an uploaded picture meets them.",
	Version:           Version,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&backendName, "backend", "", "Model backend (default from backend.name)")
	rootCmd.PersistentFlags().StringVar(&backendHost, "ollama-host", "", "Backend address (default from backend.host or OLLAMA_HOST)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func setup(cmd *cobra.Command, args []string) error {
	if err := loadConfigForCwd(); err != nil {
		return err
	}
	level := strings.TrimSpace(logLevel)
	if level == "" {
		level = config.String("logging.level")
	}
	logger = logging.New(level, config.String("logging.format"), os.Stderr)
	slog.SetDefault(logger)
	return nil
}

func openBackend() (backend.Backend, error) {
	name := strings.TrimSpace(backendName)
	if name == "" {
		name = config.String("backend.name")
	}
	host := strings.TrimSpace(backendHost)
	if host == "" {
		host = config.String("backend.host")
	}
	b, err := backend.Open(name, backend.Config{
		Host:       host,
		HTTPClient: &http.Client{Timeout: 5 * time.Minute},
	})
	if err != nil {
		return nil, err
	}
	logger.Debug("backend ready", "backend", b.Name(), "host", host)
	return b, nil
}

// chatOptions reads the generation settings shared by the text commands.
func chatOptions() backend.Options {
	return backend.Options{
		Temperature: backend.Float(config.Float("chat.temperature")),
		MaxTokens:   config.Int("chat.max_tokens"),
	}
}

func streamTo(cmd *cobra.Command) backend.StreamFunc {
	out := cmd.OutOrStdout()
	return func(chunk string) error {
		_, err := fmt.Fprint(out, chunk)
		return err
	}
}

func stringOrConfig(cmd *cobra.Command, flag, value, key string) string {
	if cmd.Flags().Changed(flag) && strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return config.String(key)
}

func intOrConfig(cmd *cobra.Command, flag string, value int, key string) int {
	if cmd.Flags().Changed(flag) {
		return value
	}
	return config.Int(key)
}
