package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"

	"bottagger/internal/metrics"
	"bottagger/internal/scheduler"
	"bottagger/pkg/auth"
	"bottagger/pkg/config"
	"bottagger/pkg/logger"
	"bottagger/pkg/page"
	"bottagger/pkg/reddit"
	"bottagger/pkg/retry"
	"bottagger/pkg/settings"
	"bottagger/pkg/storage"
	"bottagger/pkg/ui"
	"bottagger/pkg/ui/tui"
)

var (
	// Watch command flags
	outputPath      string
	refreshInterval time.Duration
	scanInterval    time.Duration
	drainInterval   time.Duration
	presentation    string
	accountName     string
	metricsAddr     string
	redisAddr       string
	useDashboard    bool
	autoFilter      bool
	watchDuration   time.Duration
)

// watchCmd represents the watch command
var watchCmd = &cobra.Command{
	Use:   "watch [url|file]",
	Short: "Annotate a listing page until interrupted",
	Long: `Load a Reddit listing page, find its post authors and badge each one
with an automation likelihood label as lookups complete.

The page is reloaded every --refresh-interval. Badges are re-applied from
the session cache after each reload, so each author is only fetched once.
When Reddit answers 429 lookups pause until the rate limit window passes.

With --output the annotated page is written atomically whenever it changes.`,
	Example: `  # Annotate the front page of a subreddit and keep a snapshot
  bottagger watch https://old.reddit.com/r/golang/ --output golang.html

  # Work on a saved page with the gradient presentation
  bottagger watch saved.html --presentation gradient --output annotated.html

  # Live dashboard with metrics and a throttle shared through redis
  bottagger watch https://old.reddit.com/r/all/ --dashboard \
      --metrics-addr :9464 --redis-addr localhost:6379`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().StringVarP(&outputPath, "output", "o", "", "write the annotated page to this file")
	watchCmd.Flags().DurationVar(&refreshInterval, "refresh-interval", 0, "reload the page this often (default from config)")
	watchCmd.Flags().DurationVar(&scanInterval, "scan-interval", 0, "discover authors this often")
	watchCmd.Flags().DurationVar(&drainInterval, "drain-interval", 0, "fetch at most one profile this often")
	watchCmd.Flags().StringVar(&presentation, "presentation", "", "badge colors: bands or gradient")
	watchCmd.Flags().StringVarP(&accountName, "account", "a", "", "use a specific stored account")
	watchCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
	watchCmd.Flags().StringVar(&redisAddr, "redis-addr", "", "share the throttle window through this redis")
	watchCmd.Flags().BoolVar(&useDashboard, "dashboard", false, "show the interactive dashboard")
	watchCmd.Flags().BoolVar(&autoFilter, "auto-filter", false, "hide posts from high likelihood accounts for this session")
	watchCmd.Flags().DurationVar(&watchDuration, "for", 0, "stop after this long (default: until interrupted)")
}

func runWatch(cmd *cobra.Command, args []string) error {
	flags := map[string]interface{}{
		"output":           outputPath,
		"refresh-interval": refreshInterval,
		"scan-interval":    scanInterval,
		"drain-interval":   drainInterval,
		"presentation":     presentation,
		"account":          accountName,
		"metrics-addr":     metricsAddr,
		"redis-addr":       redisAddr,
		"dashboard":        useDashboard,
	}
	if len(args) == 1 {
		flags["source"] = args[0]
	}

	cfg, err := loadConfig(cmd, flags)
	if err != nil {
		return err
	}
	if cfg.Page.Source == "" {
		return errors.New("no page to watch: pass a URL or file, or set page.source")
	}

	dashboard := cfg.UI.Dashboard && term.IsTerminal(int(os.Stdout.Fd()))
	log, err := setupLogger(cfg, dashboard)
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

	_, st, err := openSettings(cfg)
	if err != nil {
		log.WithError(err).Warn("Settings store unavailable, using defaults")
	}
	if cmd.Flags().Changed("auto-filter") {
		if err := st.Set(settings.KeyAutoFilterEnabled, autoFilter); err != nil {
			return err
		}
	}
	if !st.Feature() {
		ui.PrintWarning("Annotation is disabled. Enable it with 'bottagger settings set featureEnabled true'")
		return nil
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if watchDuration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, watchDuration)
		defer cancel()
	}

	client := reddit.NewClient(cfg.Reddit, log)
	session, err := newWatchSession(ctx, cfg, st, client, log)
	if err != nil {
		return err
	}
	defer session.Close()

	notifier := ui.NewNotifier(cfg.Notifications, os.Stderr)
	var display ui.Display
	if dashboard {
		display = tui.NewTUI(session.sched, cfg.UI.Recent)
	} else if !quiet {
		display = ui.NewProgressDisplay(os.Stderr, session.sched, time.Second, verbose)
	}
	if display != nil {
		session.Observe(display)
	}
	if !dashboard {
		session.Observe(notifier)
	}

	if !quiet && !dashboard {
		ui.PrintInfo("Watching", session.source.String())
		if session.snapshots != nil {
			ui.PrintInfo("Snapshot", session.snapshots.GetOutputPath())
		}
	}

	return session.Run(ctx, display)
}

// watchSession wires one page to one scheduler plus its refresh, snapshot
// and metrics loops.
type watchSession struct {
	cfg       *config.Config
	log       logger.Logger
	source    page.Source
	doc       *page.Document
	sched     *scheduler.Scheduler
	snapshots *storage.Manager
	observers *observerSet
	closeFn   func() error
}

// observerSet lets displays register after the scheduler is built.
type observerSet struct {
	scheduler.MultiObserver
}

func newWatchSession(ctx context.Context, cfg *config.Config, st settings.Settings, client *reddit.Client, log logger.Logger) (*watchSession, error) {
	retryCfg := retry.NewConfig(cfg.Page.RetryAttempts, log)
	retryCfg.OnRetry = func(attempt int, err error, delay time.Duration) {
		log.WithError(err).WithFields(map[string]interface{}{
			"attempt": attempt,
			"delay":   delay.String(),
		}).Warn("Retrying page load")
	}

	source := page.NewSource(cfg.Page.Source, client, retryCfg)
	loaded, err := source.Load(ctx)
	if err != nil {
		return nil, err
	}
	doc := page.NewDocument(loaded)

	throttle, closeFn, err := newThrottle(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	opts, err := scheduler.OptionsFromConfig(cfg, st)
	if err != nil {
		_ = closeFn()
		return nil, err
	}
	observers := &observerSet{}
	opts.Logger = log
	opts.Observer = observers

	s := &watchSession{
		cfg:       cfg,
		log:       log.WithField("component", "watch"),
		source:    source,
		doc:       doc,
		sched:     scheduler.New(doc, client, doc, throttle, opts),
		observers: observers,
		closeFn:   closeFn,
	}

	if cfg.Page.Output != "" {
		s.snapshots, err = storage.NewManager(cfg.Page.Output)
		if err != nil {
			_ = closeFn()
			return nil, err
		}
	}
	return s, nil
}

// Observe adds an observer. It must be called before Run.
func (s *watchSession) Observe(o scheduler.Observer) {
	s.observers.MultiObserver = append(s.observers.MultiObserver, o)
}

// Run blocks until ctx is done, the display is closed or a loop fails.
func (s *watchSession) Run(ctx context.Context, display ui.Display) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error { return s.sched.Run(ctx) })

	if s.cfg.Page.RefreshInterval > 0 {
		g.Go(func() error { return s.refreshLoop(ctx) })
	}
	if s.snapshots != nil {
		g.Go(func() error { return s.flushLoop(ctx) })
	}
	if s.cfg.Metrics.Enabled {
		g.Go(func() error { return metrics.Serve(ctx, s.cfg.Metrics.Addr, s.log) })
	}
	if display != nil {
		g.Go(func() error { return display.Run(ctx) })
	}

	err := g.Wait()
	if errors.Is(err, tui.ErrQuit) || errors.Is(err, context.Canceled) {
		err = nil
	}

	if s.snapshots != nil {
		if _, ferr := s.flush(); ferr != nil && err == nil {
			err = ferr
		}
	}

	st := s.sched.Stats()
	s.log.InfoWithFields("Watch finished", map[string]interface{}{
		"annotated": st.Annotated,
		"hidden":    st.Hidden,
		"fetches":   st.Fetches,
		"throttles": st.Throttles,
	})
	return err
}

func (s *watchSession) refreshLoop(ctx context.Context) error {
	ticker := time.NewTicker(s.cfg.Page.RefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := s.refresh(ctx); err != nil {
				s.log.WithError(err).Warn("Page refresh failed, keeping the previous page")
			}
		}
	}
}

// refresh reloads the page. Badges return on the next scan from the cache.
func (s *watchSession) refresh(ctx context.Context) error {
	loaded, err := s.source.Load(ctx)
	if err != nil {
		return err
	}
	s.doc.Replace(loaded)
	s.log.WithField("generation", s.doc.Generation()).Debug("Page reloaded")
	return nil
}

func (s *watchSession) flushLoop(ctx context.Context) error {
	ticker := time.NewTicker(s.cfg.Page.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := s.flush(); err != nil {
				return err
			}
		}
	}
}

func (s *watchSession) flush() (bool, error) {
	written, err := s.snapshots.Flush(s.doc)
	if err != nil {
		return false, fmt.Errorf("write snapshot: %w", err)
	}
	if written {
		s.log.WithField("writes", s.snapshots.GetWriteCount()).Debug("Snapshot written")
	}
	return written, nil
}

// Close releases the throttle store connection.
func (s *watchSession) Close() error {
	if s.closeFn == nil {
		return nil
	}
	return s.closeFn()
}
