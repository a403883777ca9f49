package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ppiankov/gwaln/internal/model"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage gwaln configuration",
	Long: `Manage gwaln configuration files and settings.

Configuration hierarchy (highest to lowest priority):
1. CLI flags
2. Environment variables (GWALN_*, e.g. GWALN_CACHE_TTL_HOURS)
3. Config file (~/.gwaln/config.yaml)
4. Defaults`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		if configFile := viper.ConfigFileUsed(); configFile != "" {
			fmt.Fprintf(os.Stderr, "Configuration file: %s\n\n", configFile)
		} else {
			fmt.Fprintf(os.Stderr, "No configuration file found (defaults, env and flags only)\n\n")
		}

		yamlData, err := yaml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("error marshaling config: %w", err)
		}
		if _, err := cmd.OutOrStdout().Write(yamlData); err != nil {
			return err
		}

		if cfg.LLM.Provider != "" {
			fmt.Fprintf(os.Stderr, "\nLLM API key: %s\n", maskKey(cfg.LLM.APIKey))
		}
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize default configuration file",
	Long:  `Create a default configuration file at ~/.gwaln/config.yaml with every available option.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("error finding home directory: %w", err)
		}

		configPath := filepath.Join(home, ".gwaln", "config.yaml")
		if cfgFile != "" {
			configPath = cfgFile
		}

		if err := writeDefaultConfig(configPath); err != nil {
			return err
		}

		fmt.Printf("✓ Created default configuration: %s\n", configPath)
		fmt.Printf("\nTo view the configuration:\n")
		fmt.Printf("  gwaln config show\n")
		fmt.Printf("\nTo customize, edit the file with your preferred editor:\n")
		fmt.Printf("  $EDITOR %s\n", configPath)
		return nil
	},
}

// writeDefaultConfig writes the default configuration with a comment header.
// It refuses to overwrite an existing file.
func writeDefaultConfig(configPath string) (err error) {
	if _, statErr := os.Stat(configPath); statErr == nil {
		return fmt.Errorf("config file already exists: %s\nUse 'gwaln config show' to view it, or delete it first to recreate", configPath)
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	yamlData, err := yaml.Marshal(model.DefaultConfig())
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	f, err := os.Create(configPath)
	if err != nil {
		return fmt.Errorf("error creating config file: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close config file: %w", closeErr)
		}
	}()

	printf := func(format string, a ...interface{}) {
		if err != nil {
			return
		}
		_, err = fmt.Fprintf(f, format, a...)
	}

	printf("# gwaln configuration file\n")
	printf("#\n")
	printf("# Configuration hierarchy (highest to lowest priority):\n")
	printf("#   1. CLI flags\n")
	printf("#   2. Environment variables (GWALN_*)\n")
	printf("#   3. This config file\n")
	printf("#   4. Built-in defaults\n\n")
	printf("%s", yamlData)
	printf("\n# API keys (prefer environment variables):\n")
	printf("#   export GWALN_LLM_API_KEY=...\n")
	printf("#   export OPENAI_API_KEY=sk-...\n")
	printf("#   export ANTHROPIC_API_KEY=sk-ant-...\n")
	printf("#   export OLLAMA_BASE_URL=http://localhost:11434\n")

	return err
}

// maskKey hides all but the last four characters of a secret
func maskKey(key string) string {
	if key == "" {
		return "(not set)"
	}
	if len(key) <= 4 {
		return "****"
	}
	return "****" + key[len(key)-4:]
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
}
