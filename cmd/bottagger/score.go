package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"bottagger/internal/scheduler"
	"bottagger/pkg/auth"
	"bottagger/pkg/ratelimit"
	"bottagger/pkg/reddit"
	"bottagger/pkg/scoring"
	"bottagger/pkg/ui"
)

var scoreFormat string

// scoreCmd represents the score command
var scoreCmd = &cobra.Command{
	Use:   "score <username>...",
	Short: "Look up and score accounts once",
	Long: `Fetch the public karma counters of each account and print its ratio,
age adjusted score and likelihood label.

Lookups stop at the first 429 and report when Reddit allows requests again.`,
	Example: `  bottagger score spez
  bottagger score u/spez AutoModerator --format json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runScore,
}

func init() {
	rootCmd.AddCommand(scoreCmd)
	scoreCmd.Flags().StringVarP(&scoreFormat, "format", "f", "table", "output format: table, json or yaml")
	scoreCmd.Flags().StringVarP(&accountName, "account", "a", "", "use a specific stored account")
}

// scoreRow is one line of score output.
type scoreRow struct {
	Username  string   `json:"username" yaml:"username"`
	Profile   string   `json:"profile,omitempty" yaml:"profile,omitempty"`
	Eligible  bool     `json:"eligible" yaml:"eligible"`
	Label     string   `json:"label,omitempty" yaml:"label,omitempty"`
	RawRatio  *float64 `json:"raw_ratio,omitempty" yaml:"raw_ratio,omitempty"`
	Adjusted  *float64 `json:"adjusted,omitempty" yaml:"adjusted,omitempty"`
	Error     string   `json:"error,omitempty" yaml:"error,omitempty"`
	Throttled bool     `json:"throttled,omitempty" yaml:"throttled,omitempty"`

	result scoring.Result
}

func valuePtr(v scoring.Value) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float
	return &f
}

func runScore(cmd *cobra.Command, args []string) error {
	switch scoreFormat {
	case "table", "json", "yaml":
	default:
		return fmt.Errorf("unknown format %q", scoreFormat)
	}

	cfg, err := loadConfig(cmd, map[string]interface{}{"account": accountName})
	if err != nil {
		return err
	}
	log, err := setupLogger(cfg, false)
	if err != nil {
		return err
	}

	manager, err := auth.NewManager()
	if err != nil {
		log.WithError(err).Warn("Credential stores unavailable")
	}
	if err := applyCredentials(cfg, manager, log); err != nil {
		return err
	}

	_, st, _ := openSettings(cfg)
	opts, err := scheduler.OptionsFromConfig(cfg, st)
	if err != nil {
		return err
	}

	client := reddit.NewClient(cfg.Reddit, log)
	rows := scoreUsernames(cmd.Context(), client, opts.Policy, opts.Pacer, time.Now, args)
	return printScores(os.Stdout, scoreFormat, rows)
}

// scoreUsernames fetches and scores each username in order, stopping at the
// first throttled response.
func scoreUsernames(ctx context.Context, f scheduler.Fetcher, policy scoring.Policy, pacer ratelimit.Pacer, now func() time.Time, usernames []string) []scoreRow {
	rows := make([]scoreRow, 0, len(usernames))

	for _, raw := range usernames {
		username := reddit.SanitizeUsername(raw)
		row := scoreRow{Username: username}

		if !reddit.IsValidUsername(username) {
			row.Error = "invalid username"
			rows = append(rows, row)
			continue
		}
		row.Profile = reddit.UserPageURL(username)
		if pacer != nil {
			if err := pacer.Wait(ctx); err != nil {
				row.Error = err.Error()
				rows = append(rows, row)
				break
			}
		}

		res := f.FetchProfile(ctx, username)
		switch res.Outcome {
		case reddit.OutcomeThrottled:
			row.Throttled = true
			row.Error = "rate limited"
			if res.HasRetryAfter {
				row.Error = fmt.Sprintf("rate limited, retry in %s", res.RetryAfter)
			}
			rows = append(rows, row)
			return rows
		case reddit.OutcomeFailure:
			row.Error = res.Err.Error()
		default:
			r, ok := policy.Score(res.Stats, now())
			row.Eligible = ok
			if ok {
				row.result = r
				row.Label = r.Label.String()
				row.RawRatio = valuePtr(r.RawRatio)
				row.Adjusted = valuePtr(r.Adjusted)
			}
		}
		rows = append(rows, row)
	}
	return rows
}

func printScores(w io.Writer, format string, rows []scoreRow) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	case "yaml":
		return yaml.NewEncoder(w).Encode(rows)
	}

	prev := ui.Output
	ui.Output = w
	defer func() { ui.Output = prev }()

	for _, row := range rows {
		switch {
		case row.Error != "":
			ui.PrintError(fmt.Sprintf("%-24s %s", row.Username, row.Error))
		case !row.Eligible:
			fmt.Fprintf(w, "%-24s %s\n", ui.Cyan(row.Username), ui.Dim("below eligibility floor"))
		default:
			ui.PrintResult(row.Username, row.result)
		}
	}
	if n := len(rows); n > 0 && rows[n-1].Throttled {
		fmt.Fprintln(w, ui.Yellow(strings.Repeat("-", 40)))
		fmt.Fprintln(w, ui.Yellow("Stopped early: Reddit is rate limiting this client"))
	}
	return nil
}
