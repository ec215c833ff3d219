package scheduler

import (
	"fmt"
	"time"

	"bottagger/pkg/config"
	"bottagger/pkg/logger"
	"bottagger/pkg/queue"
	"bottagger/pkg/ratelimit"
	"bottagger/pkg/scoring"
	"bottagger/pkg/settings"
)

// Options configures a Scheduler. Zero durations select the defaults.
type Options struct {
	ScanInterval  time.Duration
	DrainInterval time.Duration
	// FetchTimeout bounds one lookup; zero leaves it to the fetcher.
	FetchTimeout     time.Duration
	RequeueOnTimeout bool

	QueueCapacity int
	Overflow      queue.OverflowPolicy

	Policy  scoring.Policy
	Palette scoring.Palette

	FeatureEnabled bool
	AutoFilter     bool

	// Pacer optionally caps the request rate below the server's limit.
	Pacer ratelimit.Pacer

	Now      func() time.Time
	Logger   logger.Logger
	Observer Observer
}

const (
	DefaultScanInterval  = time.Second
	DefaultDrainInterval = 2 * time.Second
)

// DefaultOptions returns the standard cadence with the feature enabled.
func DefaultOptions() Options {
	return Options{
		ScanInterval:     DefaultScanInterval,
		DrainInterval:    DefaultDrainInterval,
		RequeueOnTimeout: true,
		QueueCapacity:    500,
		Overflow:         queue.DropNew,
		Policy:           scoring.DefaultPolicy(),
		Palette:          scoring.BandPalette{},
		FeatureEnabled:   true,
	}
}

// OptionsFromConfig builds Options from the loaded configuration and the
// user's feature settings.
func OptionsFromConfig(cfg *config.Config, st settings.Settings) (Options, error) {
	overflow, err := queue.ParseOverflowPolicy(cfg.Queue.Overflow)
	if err != nil {
		return Options{}, err
	}

	palette, err := scoring.NewPalette(cfg.Scoring.Presentation, cfg.Scoring.GradientMin, cfg.Scoring.GradientMax)
	if err != nil {
		return Options{}, err
	}

	pacer, err := ratelimit.NewPacer(cfg.RateLimit.Algorithm, cfg.RateLimit.RequestsPerMinute)
	if err != nil {
		return Options{}, fmt.Errorf("rate limit pacing: %w", err)
	}

	return Options{
		ScanInterval:     cfg.Schedule.ScanInterval,
		DrainInterval:    cfg.Schedule.DrainInterval,
		FetchTimeout:     cfg.Reddit.RequestTimeout,
		RequeueOnTimeout: cfg.Schedule.RequeueOnTimeout,
		QueueCapacity:    cfg.Queue.Capacity,
		Overflow:         overflow,
		Policy: scoring.Policy{
			EligibilityFloor: cfg.Scoring.EligibilityFloor,
			AgeDecay:         cfg.Scoring.AgeDecay,
			DecayPerYear:     cfg.Scoring.DecayPerYear,
			MediumThreshold:  cfg.Scoring.MediumThreshold,
			HighThreshold:    cfg.Scoring.HighThreshold,
		},
		Palette:        palette,
		FeatureEnabled: st.Feature(),
		AutoFilter:     st.AutoFilter(),
		Pacer:          pacer,
	}, nil
}

func (o *Options) fill() {
	if o.ScanInterval <= 0 {
		o.ScanInterval = DefaultScanInterval
	}
	if o.DrainInterval <= 0 {
		o.DrainInterval = DefaultDrainInterval
	}
	if o.Palette == nil {
		o.Palette = scoring.BandPalette{}
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.Logger == nil {
		o.Logger = logger.NewNopLogger()
	}
	if o.Observer == nil {
		o.Observer = NopObserver{}
	}
}
