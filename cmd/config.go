package cmd

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/goosewin/visionquest/internal/config"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	RunE:  runConfigList,
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a configuration value",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigGet,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE:  runConfigSet,
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "List configuration values",
	Args:  cobra.NoArgs,
	RunE:  runConfigList,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show the configuration files in use",
	Args:  cobra.NoArgs,
	RunE:  runConfigPath,
}

func init() {
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configListCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	if err := loadConfigForCwd(); err != nil {
		return err
	}

	key := strings.TrimSpace(args[0])
	if key == "" {
		return errors.New("config key is required")
	}

	value, ok := config.GetConfig(key)
	if !ok {
		return fmt.Errorf("config key not found: %s", key)
	}

	fmt.Fprintln(cmd.OutOrStdout(), value)
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	key := strings.TrimSpace(args[0])
	if key == "" {
		return errors.New("config key is required")
	}

	value := strings.TrimSpace(args[1])
	if value == "" {
		return errors.New("config value is required")
	}

	if err := config.SetConfig(key, value); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Updated config: %s\n", key)
	return nil
}

func runConfigList(cmd *cobra.Command, args []string) error {
	if err := loadConfigForCwd(); err != nil {
		return err
	}

	items, err := config.ListConfig()
	if err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}

	keys := make([]string, 0, len(items))
	for key := range items {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		fmt.Fprintf(cmd.OutOrStdout(), "%s=%s\n", key, items[key])
	}

	return nil
}

func runConfigPath(cmd *cobra.Command, args []string) error {
	if err := loadConfigForCwd(); err != nil {
		return err
	}
	paths := config.CurrentPaths()
	out := cmd.OutOrStdout()
	for _, item := range []struct{ label, path string }{
		{"default", paths.Default},
		{"global", paths.Global},
		{"project", paths.Project},
	} {
		state := "missing"
		if _, err := os.Stat(item.path); err == nil {
			state = "found"
		}
		fmt.Fprintf(out, "%-8s %s (%s)\n", item.label, item.path, state)
	}
	return nil
}

func loadConfigForCwd() error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("resolve current directory: %w", err)
	}
	_, err = config.LoadConfig(cwd)
	return err
}
