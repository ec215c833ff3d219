package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"bottagger/pkg/ui"
)

var (
	// Version information
	version   = "1.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile    string
	logLevel      string
	noColor       bool
	notifications bool
	quiet         bool
	verbose       bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "bottagger",
	Short: "Annotate Reddit listing pages with automation likelihood badges",
	Long: `bottagger scans Reddit listing pages for post authors, looks up each
author's public karma counters and marks them with a likelihood label.

Features:
  - Layout detection for old, new desktop and mobile Reddit markup
  - Karma per comment heuristic with optional age decay
  - Color bands or a continuous red to green gradient
  - Automatic pause when Reddit answers 429, shared through Redis if wanted
  - Optional hiding of posts from high likelihood accounts
  - Live dashboard, desktop notifications and a Prometheus endpoint`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if noColor {
			ui.DisableColor()
		}
		if quiet {
			logLevel = "error"
		} else if verbose {
			logLevel = "debug"
		}

		// Don't show logo for certain commands
		switch cmd.Name() {
		case "version", "help", "completion", "get", "show":
			return
		}
		if !quiet {
			ui.PrintLogo()
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		ui.PrintError("Error", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is ./.bottagger.yaml or ~/.config/bottagger/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().BoolVar(&notifications, "notifications", true, "enable throttle and error notifications")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress all output except errors")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging and one line per annotation")

	rootCmd.SetVersionTemplate(`bottagger {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}
