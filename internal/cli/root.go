package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/vouch/internal/logging"
	"github.com/ppiankov/vouch/internal/model"
)

// Version is set at build time
var Version = "v0.1.0"

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "vouch",
	Short: "Vouch - validate business assumptions against customer interviews",
	Long: `Vouch checks the assumptions behind a business plan against what customers
actually said in interviews.

It ingests interview transcripts into classified, searchable quotes, then
validates each assumption by retrieving, filtering and ranking the best
evidence and asking a language model for a gap analysis.

Vouch reports evidence. It does not decide whether a business will work.`,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := viper.GetString("logging.level")
		if verbose {
			level = "debug"
		}
		logging.Init(logging.Config{
			Level:  level,
			Format: viper.GetString("logging.format"),
		})
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Display the version number of Vouch.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("vouch " + Version)
	},
}

// envKeys are config keys settable through VOUCH_* variables
var envKeys = []string{
	"llm.provider", "llm.model", "llm.api_key", "llm.base_url", "llm.http_proxy", "llm.https_proxy",
	"embeddings.provider", "embeddings.model", "embeddings.dimension", "embeddings.api_key", "embeddings.base_url",
	"index.backend", "index.dsn", "index.sqlite_path",
	"cache.enabled", "cache.dir",
	"ingestion.concurrency", "ingestion.batch_timeout",
	"logging.level", "logging.format",
	"server.addr",
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default: $HOME/.vouch/config.yaml)")
	flags.BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	flags.String("llm-provider", "", "completion provider (openai, anthropic, ollama)")
	flags.String("llm-model", "", "completion model name")
	flags.String("embeddings-provider", "", "embedding provider (openai, ollama, hash)")
	flags.String("index", "", "vector index backend (memory, sqlite, postgres)")
	flags.String("log-level", "", "log level (debug, info, warn, error)")
	flags.String("log-format", "", "log format (console, json)")

	// Bind flags to viper
	_ = viper.BindPFlag("output.verbose", flags.Lookup("verbose"))
	_ = viper.BindPFlag("llm.provider", flags.Lookup("llm-provider"))
	_ = viper.BindPFlag("llm.model", flags.Lookup("llm-model"))
	_ = viper.BindPFlag("embeddings.provider", flags.Lookup("embeddings-provider"))
	_ = viper.BindPFlag("index.backend", flags.Lookup("index"))
	_ = viper.BindPFlag("logging.level", flags.Lookup("log-level"))
	_ = viper.BindPFlag("logging.format", flags.Lookup("log-format"))

	// Unset flags must not mask the built-in defaults
	d := model.DefaultConfig()
	viper.SetDefault("llm.provider", d.LLM.Provider)
	viper.SetDefault("llm.model", d.LLM.Model)
	viper.SetDefault("embeddings.provider", d.Embeddings.Provider)
	viper.SetDefault("index.backend", d.Index.Backend)
	viper.SetDefault("logging.level", d.Logging.Level)
	viper.SetDefault("logging.format", d.Logging.Format)

	// Add subcommands
	rootCmd.AddCommand(versionCmd)
}

// initConfig reads in config file and ENV variables
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}

		// Search for config in home directory
		viper.AddConfigPath(filepath.Join(home, ".vouch"))
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// Read in environment variables that match VOUCH_*
	viper.SetEnvPrefix("VOUCH")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	for _, key := range envKeys {
		_ = viper.BindEnv(key)
	}
	_ = viper.BindEnv("index.dsn", "VOUCH_DATABASE_URL", "VOUCH_INDEX_DSN")

	// If a config file is found, read it in
	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// loadConfig layers the config file, environment and flags over the defaults
func loadConfig() (*model.Config, error) {
	cfg := model.DefaultConfig()
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	applyProviderEnv(cfg)
	return cfg, nil
}

// applyProviderEnv fills credentials from the providers' conventional
// environment variables when the config leaves them empty
func applyProviderEnv(cfg *model.Config) {
	if cfg.LLM.APIKey == "" {
		switch strings.ToLower(cfg.LLM.Provider) {
		case "openai":
			cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
		case "anthropic", "claude":
			cfg.LLM.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		}
	}
	if cfg.Embeddings.APIKey == "" && strings.EqualFold(cfg.Embeddings.Provider, "openai") {
		cfg.Embeddings.APIKey = os.Getenv("OPENAI_API_KEY")
	}

	if baseURL := os.Getenv("OLLAMA_BASE_URL"); baseURL != "" {
		if strings.EqualFold(cfg.LLM.Provider, "ollama") && cfg.LLM.BaseURL == "" {
			cfg.LLM.BaseURL = baseURL
		}
		if strings.EqualFold(cfg.Embeddings.Provider, "ollama") && cfg.Embeddings.BaseURL == "" {
			cfg.Embeddings.BaseURL = baseURL
		}
	}
}
