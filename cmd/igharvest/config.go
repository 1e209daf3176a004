package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
	"igharvest/pkg/config"
	"igharvest/pkg/ui"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the configuration file",
	Long: `Manage the igharvest configuration.

Values are taken from, in order of priority:
  - command line flags
  - IGHARVEST_* environment variables
  - .env and ~/.igharvest.env files
  - the configuration file
  - defaults`,
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a configuration file with the default values",
	Args:  cobra.NoArgs,
	RunE:  runConfigInit,
}

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the effective configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(initCmd, showCmd, validateCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := configFile
	if path == "" {
		path = config.DefaultConfigPath()
	}

	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("configuration file already exists: %s", path)
	}

	if err := config.DefaultConfig().Save(path); err != nil {
		return err
	}
	ui.PrintSuccess("Configuration file created: " + path)
	return nil
}

// maskedConfig hides credentials before the configuration is printed
func maskedConfig(c *config.Config) *config.Config {
	masked := *c
	if masked.Archive.PostgresDSN != "" {
		masked.Archive.PostgresDSN = "********"
	}
	if masked.Archive.S3.AccessKeyID != "" {
		masked.Archive.S3.AccessKeyID = "********"
	}
	if masked.Archive.S3.SecretAccessKey != "" {
		masked.Archive.S3.SecretAccessKey = "********"
	}
	return &masked
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	data, err := yaml.Marshal(maskedConfig(cfg))
	if err != nil {
		return fmt.Errorf("failed to format configuration: %w", err)
	}

	ui.PrintHighlight("Effective configuration")
	fmt.Fprint(ui.Out, string(data))

	source := configFile
	if source == "" {
		source = config.FindConfigFile()
	}
	if source == "" {
		source = "(none, defaults and environment only)"
	}
	ui.PrintInfo("Configuration file", source)
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	// Load already validated; report the outcome and the parts that matter
	if err := cfg.Validate(); err != nil {
		return err
	}

	ui.PrintSuccess("Configuration is valid")
	ui.PrintInfo("Download directory", cfg.Download.BaseDirectory)
	ui.PrintInfo("Output directory", cfg.Output.Directory)
	ui.PrintInfo("Concurrent downloads", fmt.Sprint(cfg.Download.ConcurrentDownloads))
	ui.PrintInfo("Requests per minute", fmt.Sprint(cfg.RateLimit.RequestsPerMinute))

	var archives []string
	if cfg.Archive.SQLitePath != "" {
		archives = append(archives, "sqlite")
	}
	if cfg.Archive.PostgresDSN != "" {
		archives = append(archives, "postgres")
	}
	if cfg.Archive.S3.Enabled() {
		archives = append(archives, "s3")
	}
	if len(archives) > 0 {
		ui.PrintInfo("Archives", fmt.Sprint(archives))
	}
	return nil
}
