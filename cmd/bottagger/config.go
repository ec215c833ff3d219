package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"bottagger/pkg/config"
	"bottagger/pkg/ui"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage bottagger configuration files.

Configuration can be loaded from:
  - Command line flags (highest priority)
  - Environment variables (BOTTAGGER_*)
  - .env files
  - Configuration file
  - Default values (lowest priority)`,
}

// initCmd represents the config init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create an example configuration file",
	Long: `Create an example configuration file with all available options.

The file will be created in the current directory as '.bottagger.yaml'
unless a different path is specified with the --config flag.`,
	RunE: runConfigInit,
}

// showCmd represents the config show command
var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long: `Show the effective configuration after merging every source.

Tokens and passwords are masked.`,
	RunE: runConfigShow,
}

// validateCmd represents the config validate command
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration",
	Long: `Validate the effective configuration.

This command checks:
  - YAML syntax
  - Value types and ranges
  - Output and log paths`,
	RunE: runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(initCmd, showCmd, validateCmd)
}

const exampleConfig = `# bottagger configuration file
#
# Every option can also be set through BOTTAGGER_* environment variables,
# for example BOTTAGGER_ACCESS_TOKEN or BOTTAGGER_PAGE_OUTPUT.

reddit:
  base_url: "https://www.reddit.com"
  # Used instead of base_url when an access token is configured
  oauth_base_url: "https://oauth.reddit.com"
  # Reddit rejects generic user agents
  user_agent: "bottagger/1.0 (profile ratio annotator)"
  # Prefer 'bottagger auth login' over putting a token here
  access_token: ""
  # Stored account to use; empty picks the most recent one
  account: ""
  request_timeout: 15s

schedule:
  # Discover post authors this often
  scan_interval: 1s
  # Fetch at most one profile this often
  drain_interval: 2s
  # Pause after a 429 without an x-ratelimit-reset header
  throttle_fallback: 10m
  # Put timed out lookups back at the end of the queue
  requeue_on_timeout: true

queue:
  capacity: 500
  # drop_new or drop_oldest
  overflow: drop_new

scoring:
  # Minimum link karma before an account is scored at all
  eligibility_floor: 100000
  # Subtract decay_per_year for every year of account age
  age_decay: true
  decay_per_year: 5
  medium_threshold: 50
  high_threshold: 100
  # bands (green, yellow, red) or gradient (red at gradient_min, green at gradient_max)
  presentation: bands
  gradient_min: 0
  gradient_max: 10

rate_limit:
  # memory, or redis to share the pause between several watchers
  backend: memory
  redis_addr: "localhost:6379"
  redis_password: ""
  redis_db: 0
  redis_prefix: bottagger
  # Proactive pacing below Reddit's limit; 0 disables it
  requests_per_minute: 0
  # token_bucket or sliding_window
  algorithm: token_bucket

page:
  # URL or file to annotate; the watch argument overrides it
  source: ""
  refresh_interval: 30s
  # Annotated snapshot, written only when it changes
  output: ""
  flush_interval: 2s
  retry_attempts: 3

settings:
  # Empty uses the per-user data directory
  path: ""

notifications:
  enabled: true
  on_rate_limit: true
  on_error: true
  # terminal, desktop or none
  notification_type: terminal

metrics:
  enabled: false
  addr: ":9464"

logging:
  # debug, info, warn, error
  level: info
  file: ""

ui:
  dashboard: false
  # Annotations kept in the dashboard list
  recent: 12
`

func runConfigInit(cmd *cobra.Command, args []string) error {
	configPath := configFile
	if configPath == "" {
		configPath = ".bottagger.yaml"
	}

	if _, err := os.Stat(configPath); err == nil {
		ui.PrintError("Configuration file already exists", configPath)
		fmt.Println("\nTo overwrite, first remove the existing file:")
		fmt.Printf("  rm %s\n", configPath)
		return fmt.Errorf("refusing to overwrite %s", configPath)
	}

	if err := os.WriteFile(configPath, []byte(exampleConfig), 0600); err != nil {
		return fmt.Errorf("failed to create configuration file: %w", err)
	}

	ui.PrintSuccess("Configuration file created: " + configPath)
	fmt.Println("\nNext steps:")
	fmt.Println("1. Run 'bottagger auth login' to store an access token (optional)")
	fmt.Println("2. Run 'bottagger config validate' to check the configuration")
	fmt.Println("3. Start with 'bottagger watch <url>'")
	return nil
}

func maskSecret(s string) string {
	if s == "" {
		return ""
	}
	if len(s) > 8 {
		return s[:4] + "..." + s[len(s)-4:]
	}
	return "***"
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, nil)
	if err != nil {
		return err
	}
	return writeMaskedConfig(os.Stdout, cfg)
}

func writeMaskedConfig(w io.Writer, cfg *config.Config) error {
	display := *cfg
	display.Reddit.AccessToken = maskSecret(display.Reddit.AccessToken)
	display.RateLimit.RedisPassword = maskSecret(display.RateLimit.RedisPassword)

	data, err := yaml.Marshal(&display)
	if err != nil {
		return fmt.Errorf("failed to format configuration: %w", err)
	}
	_, err = w.Write(data)
	return err
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, nil)
	if err != nil {
		ui.PrintError("Configuration validation failed", err)
		return err
	}

	warnings, problems := checkPaths(cfg)
	if len(problems) > 0 {
		ui.PrintError("Configuration has errors:")
		for _, p := range problems {
			fmt.Printf("  - %s\n", p)
		}
		return fmt.Errorf("%d configuration errors", len(problems))
	}
	if len(warnings) > 0 {
		ui.PrintWarning("Configuration warnings:")
		for _, w := range warnings {
			fmt.Printf("  - %s\n", w)
		}
		fmt.Println()
	}

	ui.PrintSuccess("Configuration is valid")
	fmt.Println("\nConfiguration summary:")
	fmt.Printf("  Endpoint: %s\n", cfg.Reddit.BaseURL)
	fmt.Printf("  Cadence: scan %s, drain %s\n", cfg.Schedule.ScanInterval, cfg.Schedule.DrainInterval)
	fmt.Printf("  Queue: %d (%s)\n", cfg.Queue.Capacity, cfg.Queue.Overflow)
	fmt.Printf("  Presentation: %s\n", cfg.Scoring.Presentation)
	fmt.Printf("  Throttle store: %s\n", cfg.RateLimit.Backend)
	fmt.Printf("  Log level: %s\n", cfg.Logging.Level)
	return nil
}

// checkPaths reports problems validation cannot see from values alone.
func checkPaths(cfg *config.Config) (warnings, problems []string) {
	if cfg.Page.Source == "" {
		warnings = append(warnings, "page.source is empty; pass the page to 'watch' instead")
	}
	if cfg.Reddit.AccessToken == "" && cfg.Reddit.Account == "" {
		warnings = append(warnings, "no access token configured; lookups use the public endpoint")
	}

	for name, path := range map[string]string{
		"page output": cfg.Page.Output,
		"log":         cfg.Logging.File,
	} {
		if path == "" {
			continue
		}
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			problems = append(problems, fmt.Sprintf("cannot create %s directory: %v", name, err))
		}
	}
	return warnings, problems
}
