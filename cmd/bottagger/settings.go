package main

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"bottagger/pkg/settings"
	"bottagger/pkg/ui"
)

// settingsCmd represents the settings command
var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show or change feature settings",
	Long: `Show or change the persisted feature settings.

Keys:
  featureEnabled      annotate pages at all (default true)
  autoFilterEnabled   hide posts from High likelihood accounts (default false)`,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show all settings",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := settingsStore(cmd)
		if err != nil {
			return err
		}
		st, err := store.Load()
		if err != nil {
			return err
		}
		return printSettings(os.Stdout, store.Path(), st)
	},
}

var settingsGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Print one setting",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := settingsStore(cmd)
		if err != nil {
			return err
		}
		st, err := store.Load()
		if err != nil {
			return err
		}
		v, err := st.Get(args[0])
		if err != nil {
			return err
		}
		fmt.Println(v)
		return nil
	},
}

var settingsSetCmd = &cobra.Command{
	Use:     "set <key> <true|false>",
	Short:   "Change one setting",
	Example: `  bottagger settings set autoFilterEnabled true`,
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		value, err := strconv.ParseBool(args[1])
		if err != nil {
			return fmt.Errorf("value must be true or false: %w", err)
		}
		store, err := settingsStore(cmd)
		if err != nil {
			return err
		}
		if err := store.Set(args[0], value); err != nil {
			return err
		}
		ui.PrintSuccess(fmt.Sprintf("%s = %t", args[0], value))
		return nil
	},
}

var settingsResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Restore every setting to its default",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := settingsStore(cmd)
		if err != nil {
			return err
		}
		if err := store.Reset(); err != nil {
			return err
		}
		ui.PrintSuccess("Settings restored to defaults")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(settingsCmd)
	settingsCmd.AddCommand(settingsShowCmd, settingsGetCmd, settingsSetCmd, settingsResetCmd)
}

func settingsStore(cmd *cobra.Command) (*settings.Store, error) {
	cfg, err := loadConfig(cmd, nil)
	if err != nil {
		return nil, err
	}
	return settings.NewStore(cfg.Settings.Path)
}

func printSettings(w io.Writer, path string, st settings.Settings) error {
	values := st.Values()
	for _, key := range settings.Keys() {
		fmt.Fprintf(w, "%-20s %t\n", key, values[key])
	}
	if !st.UpdatedAt.IsZero() {
		fmt.Fprintf(w, "\n%s %s\n", ui.Dim("updated"), st.UpdatedAt.Format("2006-01-02 15:04:05"))
	}
	fmt.Fprintf(w, "%s %s\n", ui.Dim("file"), path)
	return nil
}
