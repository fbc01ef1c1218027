package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

// Paths captures the config files used during LoadConfig.
type Paths struct {
	Default string
	Global  string
	Project string
}

var (
	currentConfig *viper.Viper
	currentPaths  Paths
)

// Defaults holds the compiled-in value of every known key.
var Defaults = map[string]interface{}{
	"backend.name":            "ollama",
	"backend.host":            "http://localhost:11434",
	"chat.model":              "gemma3:1b",
	"chat.temperature":        0.5,
	"chat.max_tokens":         1000,
	"game.vision_model":       "llama3.2-vision:latest",
	"game.points":             10,
	"game.thumbnail":          400,
	"game.max_sessions":       256,
	"server.host":             "127.0.0.1",
	"server.port":             8501,
	"server.max_upload_bytes": 10 << 20,
	"notify.webhook":          "",
	"notify.timeout_seconds":  10,
	"logging.level":           "info",
	"logging.format":          "text",
}

// LoadConfig loads and merges configuration in priority order:
// compiled defaults -> default file -> global -> project (highest).
func LoadConfig(projectDir string) (Paths, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix("VISIONQUEST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, value := range Defaults {
		v.SetDefault(key, value)
	}

	paths := Paths{
		Default: defaultConfigPath(),
		Global:  globalConfigPath(),
		Project: projectConfigPath(projectDir),
	}

	if err := readConfigFile(v, paths.Default); err != nil {
		return paths, err
	}
	if err := mergeConfigFile(v, paths.Global); err != nil {
		return paths, err
	}
	if err := mergeConfigFile(v, paths.Project); err != nil {
		return paths, err
	}

	currentConfig = v
	currentPaths = paths

	return paths, nil
}

// CurrentPaths returns the files consulted by the last LoadConfig.
func CurrentPaths() Paths {
	return currentPaths
}

// GetConfig returns a config value as a string with env overrides applied.
func GetConfig(key string) (string, bool) {
	if key == "" {
		return "", false
	}

	if aliasKey, ok := envAliases()[key]; ok {
		if value, found := os.LookupEnv(aliasKey); found && strings.TrimSpace(value) != "" {
			return value, true
		}
	}

	if currentConfig == nil {
		if value, ok := Defaults[key]; ok {
			return valueToString(value), true
		}
		return "", false
	}

	if !currentConfig.IsSet(key) {
		return "", false
	}

	return valueToString(currentConfig.Get(key)), true
}

// String returns key as a string, falling back to its compiled default.
func String(key string) string {
	if value, ok := GetConfig(key); ok && strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	if value, ok := Defaults[key]; ok {
		return valueToString(value)
	}
	return ""
}

// Int returns key as a positive integer, falling back to its compiled default.
func Int(key string) int {
	if value, ok := GetConfig(key); ok {
		if parsed, err := strconv.Atoi(strings.TrimSpace(value)); err == nil && parsed > 0 {
			return parsed
		}
	}
	if value, ok := Defaults[key].(int); ok {
		return value
	}
	return 0
}

// Float returns key as a non-negative float, falling back to its compiled default.
func Float(key string) float64 {
	if value, ok := GetConfig(key); ok {
		if parsed, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil && parsed >= 0 {
			return parsed
		}
	}
	if value, ok := Defaults[key].(float64); ok {
		return value
	}
	return 0
}

// SetConfig writes a configuration value to the global config file.
func SetConfig(key, value string) error {
	if key == "" {
		return errors.New("config key is required")
	}

	globalPath := globalConfigPath()
	if globalPath == "" {
		return errors.New("global config path is not available")
	}

	if err := os.MkdirAll(filepath.Dir(globalPath), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigFile(globalPath)
	if fileExists(globalPath) {
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read global config: %w", err)
		}
	}

	v.Set(key, value)
	if err := v.WriteConfigAs(globalPath); err != nil {
		return fmt.Errorf("write global config: %w", err)
	}

	if currentConfig != nil {
		currentConfig.Set(key, value)
	}

	return nil
}

// ListConfig returns a flattened view of the current configuration.
func ListConfig() (map[string]string, error) {
	if currentConfig == nil {
		return nil, errors.New("config not loaded")
	}

	settings := currentConfig.AllSettings()
	flattened := map[string]string{}
	flattenSettings("", settings, flattened)
	return flattened, nil
}

func defaultConfigPath() string {
	if path, ok := os.LookupEnv("VISIONQUEST_DEFAULT_CONFIG"); ok && path != "" {
		return path
	}

	var candidates []string
	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		candidates = append(candidates,
			filepath.Join(exeDir, "config", "default.yaml"),
			filepath.Join(exeDir, "..", "config", "default.yaml"),
		)
	}

	if cwd, err := os.Getwd(); err == nil {
		candidates = append(candidates, filepath.Join(cwd, "config", "default.yaml"))
	}

	for _, candidate := range candidates {
		if fileExists(candidate) {
			return candidate
		}
	}

	return ""
}

func globalConfigPath() string {
	if path, ok := os.LookupEnv("VISIONQUEST_GLOBAL_CONFIG"); ok && path != "" {
		return path
	}

	configDir := configDir()
	if configDir == "" {
		return ""
	}

	return filepath.Join(configDir, "config.yaml")
}

func projectConfigPath(projectDir string) string {
	if projectDir == "" {
		return ""
	}

	info, err := os.Stat(projectDir)
	if err != nil || !info.IsDir() {
		return ""
	}

	name := os.Getenv("VISIONQUEST_PROJECT_CONFIG_NAME")
	if name == "" {
		name = ".visionquest.yaml"
	}

	return filepath.Join(projectDir, name)
}

func configDir() string {
	if path, ok := os.LookupEnv("VISIONQUEST_CONFIG_DIR"); ok && path != "" {
		return path
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	return filepath.Join(home, ".config", "visionquest")
}

func readConfigFile(v *viper.Viper, path string) error {
	if !fileExists(path) {
		return nil
	}

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}

	return nil
}

func mergeConfigFile(v *viper.Viper, path string) error {
	if !fileExists(path) {
		return nil
	}

	v.SetConfigFile(path)
	if err := v.MergeInConfig(); err != nil {
		return fmt.Errorf("merge config %s: %w", path, err)
	}

	return nil
}

func fileExists(path string) bool {
	if path == "" {
		return false
	}

	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// envAliases maps keys to environment variables honoured by the ollama tooling itself.
func envAliases() map[string]string {
	return map[string]string{
		"backend.host": "OLLAMA_HOST",
	}
}

func valueToString(value interface{}) string {
	switch typed := value.(type) {
	case []string:
		return strings.Join(typed, ",")
	case []interface{}:
		parts := make([]string, 0, len(typed))
		for _, item := range typed {
			parts = append(parts, fmt.Sprint(item))
		}
		return strings.Join(parts, ",")
	default:
		return fmt.Sprint(value)
	}
}

func flattenSettings(prefix string, value interface{}, out map[string]string) {
	if value == nil {
		return
	}

	switch typed := value.(type) {
	case map[string]interface{}:
		for key, item := range typed {
			nextKey := key
			if prefix != "" {
				nextKey = prefix + "." + key
			}
			flattenSettings(nextKey, item, out)
		}
	case map[interface{}]interface{}:
		for key, item := range typed {
			keyText := fmt.Sprint(key)
			nextKey := keyText
			if prefix != "" {
				nextKey = prefix + "." + keyText
			}
			flattenSettings(nextKey, item, out)
		}
	default:
		if prefix == "" {
			return
		}
		out[prefix] = valueToString(value)
	}
}
