package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"
	"igharvest/pkg/config"
	"igharvest/pkg/logger"
)

var (
	// Version information
	version   = "1.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile string
	logLevel   string
	quiet      bool

	// cfg is loaded once by the root PersistentPreRunE
	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "igharvest",
	Short: "Interactively harvest Instagram posts, comments and media",
	Long: `igharvest asks what to download, optionally logs in, walks the posts of a
profile, hashtag, location, single post, story, feed or saved collection and
saves the media next to two CSV tables:

  output.csv     one row per post
  comments.csv   one row per comment or reply

Press Ctrl-C during a harvest to stop early. Whatever was collected so far is
still exported and the harvest can be resumed later.`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		flags := make(map[string]interface{})
		if cmd.Flags().Changed("log-level") {
			flags["log-level"] = logLevel
		}

		loaded, err := config.Load(configFile, flags)
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		if quiet && !cmd.Flags().Changed("log-level") {
			loaded.Logging.Level = "error"
		}
		if err := logger.Initialize(&loaded.Logging); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		cfg = loaded
		return nil
	},
	RunE: runHarvest,
}

// Execute runs the root command and exits non-zero on failure
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is $HOME/.config/igharvest/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error, disabled)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "hide progress bars and informational logs")

	rootCmd.SetVersionTemplate(`igharvest {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}
