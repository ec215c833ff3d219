package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"bottagger/pkg/auth"
	"bottagger/pkg/config"
	"bottagger/pkg/logger"
	"bottagger/pkg/ratelimit"
	"bottagger/pkg/settings"
)

// loadConfig applies the global flags on top of the command's own.
func loadConfig(cmd *cobra.Command, flags map[string]interface{}) (*config.Config, error) {
	if flags == nil {
		flags = make(map[string]interface{})
	}
	if logLevel != "" {
		flags["log-level"] = logLevel
	}
	if cmd.Flags().Changed("notifications") {
		flags["notifications"] = notifications
	}
	return config.Load(configFile, flags)
}

// setupLogger installs the global logger. With the dashboard on screen the
// console writer is dropped and only the log file, if any, is written.
func setupLogger(cfg *config.Config, dashboard bool) (logger.Logger, error) {
	var console io.Writer = os.Stderr
	if dashboard {
		console = nil
	}
	l, err := logger.NewWithWriter(&cfg.Logging, console)
	if err != nil {
		return nil, err
	}
	logger.SetGlobal(l)
	return l, nil
}

// applyCredentials fills the bearer token from the credential stores
// unless one is configured already. Without any account requests stay
// anonymous, which the public profile endpoint allows.
func applyCredentials(cfg *config.Config, manager *auth.Manager, log logger.Logger) error {
	if cfg.Reddit.AccessToken != "" {
		log.Debug("Using access token from configuration")
		return nil
	}
	if manager == nil {
		return nil
	}

	account, err := manager.Resolve(cfg.Reddit.Account)
	if err != nil {
		if cfg.Reddit.Account == "" && errors.Is(err, auth.ErrCredentialsNotFound) {
			log.Debug("No stored account, using anonymous requests")
			return nil
		}
		return fmt.Errorf("account %q: %w", cfg.Reddit.Account, err)
	}

	cfg.Reddit.AccessToken = account.AccessToken
	if account.UserAgent != "" {
		cfg.Reddit.UserAgent = account.UserAgent
	}
	log.WithField("account", account.Username).Info("Using stored credentials")
	return nil
}

// openSettings loads the feature settings, falling back to defaults when
// the store cannot be read.
func openSettings(cfg *config.Config) (*settings.Store, settings.Settings, error) {
	store, err := settings.NewStore(cfg.Settings.Path)
	if err != nil {
		return nil, settings.Settings{}, err
	}
	return store, store.LoadOrDefault(), nil
}

// newThrottle builds the configured throttle store. The returned closer
// releases the Redis connection, if one was opened.
func newThrottle(ctx context.Context, cfg *config.Config, log logger.Logger) (ratelimit.Throttle, func() error, error) {
	fallback := cfg.Schedule.ThrottleFallback

	if cfg.RateLimit.Backend != "redis" {
		return ratelimit.NewMemoryThrottle(fallback), func() error { return nil }, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RateLimit.RedisAddr,
		Password: cfg.RateLimit.RedisPassword,
		DB:       cfg.RateLimit.RedisDB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("connect to redis at %s: %w", cfg.RateLimit.RedisAddr, err)
	}
	log.WithFields(map[string]interface{}{
		"addr":   cfg.RateLimit.RedisAddr,
		"prefix": cfg.RateLimit.RedisPrefix,
	}).Info("Sharing throttle state through redis")

	return ratelimit.NewRedisThrottle(client, cfg.RateLimit.RedisPrefix, fallback), client.Close, nil
}
