package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/ppiankov/gwaln/internal/logging"
	"github.com/ppiankov/gwaln/internal/model"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// version is overridden at build time via -ldflags "-X .../internal/cli.version=..."
var version = "v0.2.0"

var (
	cfgFile     string
	verbose     bool
	llmProvider string
	llmModel    string
	cacheDir    string
	noCache     bool
	noCitations bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "gwaln",
	Short: "gwaln - Wikipedia vs Grokipedia article alignment",
	Long: `gwaln compares a Wikipedia article with its Grokipedia counterpart.

It aligns sentences, sections and claims, classifies what was added,
dropped or changed (bias wording, unsupported additions, numeric drift),
and writes a versioned JSON report with confidence scores.

Reports are cached per topic and reused while both sources are unchanged.`,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logging.Init(os.Stderr, verbose)
	},
}

// Execute runs the root command; SIGINT and SIGTERM cancel in-flight work
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "gwaln %s (report schema %s)\n", version, model.SchemaVersion)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default: $HOME/.gwaln/config.yaml)")
	flags.BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	flags.StringVar(&llmProvider, "llm-provider", "", "bias verifier provider (openai, anthropic, ollama); empty disables it")
	flags.StringVar(&llmModel, "llm-model", "", "bias verifier model name")
	flags.StringVar(&cacheDir, "cache-dir", "", "analysis cache directory")
	flags.BoolVar(&noCache, "no-cache", false, "disable the analysis cache")
	flags.BoolVar(&noCitations, "no-citations", false, "skip citation verification")

	_ = viper.BindPFlag("output.verbose", flags.Lookup("verbose"))
	_ = viper.BindPFlag("llm.provider", flags.Lookup("llm-provider"))
	_ = viper.BindPFlag("llm.model", flags.Lookup("llm-model"))
	_ = viper.BindPFlag("cache.dir", flags.Lookup("cache-dir"))

	rootCmd.AddCommand(versionCmd)
}

// initConfig reads in config file and ENV variables
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}

		viper.AddConfigPath(filepath.Join(home, ".gwaln"))
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	if err := setupViper(viper.GetViper()); err != nil {
		fmt.Fprintf(os.Stderr, "Error registering config defaults: %v\n", err)
	}

	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// setupViper registers every default key so GWALN_* variables reach nested
// fields, plus the keys that are hidden from or omitted in the YAML form.
func setupViper(v *viper.Viper) error {
	v.SetEnvPrefix("GWALN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	data, err := yaml.Marshal(model.DefaultConfig())
	if err != nil {
		return err
	}
	var tree map[string]interface{}
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return err
	}
	for key, value := range flattenKeys("", tree) {
		v.SetDefault(key, value)
	}

	_ = v.BindEnv("llm.api_key", "GWALN_LLM_API_KEY")
	_ = v.BindEnv("llm.base_url", "GWALN_LLM_BASE_URL", "OLLAMA_BASE_URL")
	_ = v.BindEnv("http.http_proxy", "GWALN_HTTP_HTTP_PROXY")
	_ = v.BindEnv("http.https_proxy", "GWALN_HTTP_HTTPS_PROXY")
	_ = v.BindEnv("http.no_proxy", "GWALN_HTTP_NO_PROXY")
	return nil
}

// flattenKeys turns a nested map into dotted viper keys
func flattenKeys(prefix string, tree map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{})
	for key, value := range tree {
		full := key
		if prefix != "" {
			full = prefix + "." + key
		}
		if nested, ok := value.(map[string]interface{}); ok {
			for k, v := range flattenKeys(full, nested) {
				out[k] = v
			}
			continue
		}
		out[full] = value
	}
	return out
}

// decodeConfig merges defaults, config file, env and bound flags into a Config
func decodeConfig(v *viper.Viper) (*model.Config, error) {
	cfg := model.DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.LLM.Provider = strings.ToLower(strings.TrimSpace(cfg.LLM.Provider))

	if cfg.LLM.APIKey == "" {
		switch cfg.LLM.Provider {
		case "openai":
			cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
		case "anthropic", "claude":
			cfg.LLM.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		}
	}

	switch cfg.LLM.Provider {
	case "openai", "anthropic", "claude":
		if cfg.LLM.APIKey == "" {
			return nil, fmt.Errorf("%s provider selected but no API key set (GWALN_LLM_API_KEY or the provider's own variable)", cfg.LLM.Provider)
		}
	}

	return cfg, nil
}

// loadConfig builds the effective configuration for a command run
func loadConfig() (*model.Config, error) {
	cfg, err := decodeConfig(viper.GetViper())
	if err != nil {
		return nil, err
	}
	if noCache {
		cfg.Cache.Enabled = false
	}
	if noCitations {
		cfg.Citations.Enabled = false
	}
	return cfg, nil
}
