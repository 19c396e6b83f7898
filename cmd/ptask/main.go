// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the ptask CLI: research queries,
// entity enrichment, and report generation on the Parallel Task API.
package main

import (
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/ptask/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// rootCmd is the base command: it submits a task and waits for the result.
var rootCmd = &cobra.Command{
	Use:   "ptask [query...]",
	Short: "Deep research, enrichment, and reports via the Parallel Task API",
	Long: `ptask submits research tasks to the Parallel Task API and renders the
results. Three modes are available: a plain research query, structured
enrichment of an entity into typed output fields (--enrich with --output),
and a long-form report with citations (--report).

Tasks run remotely; ptask polls until the run completes unless --no-wait
is given. Every submission is recorded in a local history: "ptask runs"
lists it and "ptask watch RUN_ID" resumes a detached run.

A Parallel API key is required, from the PARALLEL_API_KEY environment
variable, the api_key config entry, or .secrets/parallel-api-key.`,
	Args:              cobra.ArbitraryArgs,
	SilenceUsage:      true,
	RunE:              runTask,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			log.Debug().Strs("keys", keys).Msg("loaded secrets")
		}
		return nil
	},
}

func init() {
	// Load .env if present so PARALLEL_API_KEY can live next to the data.
	_ = godotenv.Load()

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./ptask.yaml or ~/.config/ptask/config.yaml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "enable debug logging")

	registerTaskFlags(rootCmd)
	registerRunFlags(rootCmd)
}

func initConfig() {
	if verbose, _ := rootCmd.PersistentFlags().GetBool("verbose"); verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("ptask")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "ptask"))
		}
	}

	viper.SetDefault("processor", "core")
	viper.SetDefault("timeout", 300)
	viper.SetDefault("poll_interval", "2s")
	viper.SetDefault("http_timeout", "60s")
	viper.SetDefault("runlog_dir", ".ptask")

	viper.SetEnvPrefix("PTASK")
	viper.AutomaticEnv()
	// The documented credential variables predate the PTASK prefix.
	viper.BindEnv("api_key", "PARALLEL_API_KEY")
	viper.BindEnv("browseruse_key", "BROWSERUSE_API_KEY")

	if err := viper.ReadInConfig(); err == nil {
		log.Debug().Str("file", viper.ConfigFileUsed()).Msg("using config file")
	}
}

// settingString resolves a string setting: an explicitly set flag wins,
// then the config file and environment, then the flag default.
func settingString(cmd *cobra.Command, flag, key string) string {
	if cmd.Flags().Changed(flag) {
		v, _ := cmd.Flags().GetString(flag)
		return v
	}
	if v := viper.GetString(key); v != "" {
		return v
	}
	v, _ := cmd.Flags().GetString(flag)
	return v
}

func settingInt(cmd *cobra.Command, flag, key string) int {
	if cmd.Flags().Changed(flag) {
		v, _ := cmd.Flags().GetInt(flag)
		return v
	}
	if v := viper.GetInt(key); v != 0 {
		return v
	}
	v, _ := cmd.Flags().GetInt(flag)
	return v
}

func settingDuration(cmd *cobra.Command, flag, key string) time.Duration {
	if cmd.Flags().Changed(flag) {
		v, _ := cmd.Flags().GetDuration(flag)
		return v
	}
	if v := viper.GetDuration(key); v != 0 {
		return v
	}
	v, _ := cmd.Flags().GetDuration(flag)
	return v
}

func main() {
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()
	zerolog.TimestampFunc = func() time.Time { return time.Now().UTC() }

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
