package ui

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bottagger/pkg/config"
)

type recordingSender struct {
	titles   []string
	messages []string
}

func (r *recordingSender) Send(title, message string) error {
	r.titles = append(r.titles, title)
	r.messages = append(r.messages, message)
	return errors.New("no notification daemon")
}

func newTestNotifier(cfg config.NotificationConfig) (*Notifier, *bytes.Buffer, *recordingSender, *time.Time) {
	var out bytes.Buffer
	sender := &recordingSender{}
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	n := NewNotifier(cfg, &out).WithSender(sender)
	n.now = func() time.Time { return now }
	return n, &out, sender, &now
}

func TestNotifierThrottleWindow(t *testing.T) {
	cfg := config.DefaultConfig().Notifications
	n, out, sender, now := newTestNotifier(cfg)

	n.OnThrottled(now.Add(10 * time.Minute))
	*now = now.Add(10*time.Minute + time.Second)
	n.OnResumed()

	require.Len(t, sender.titles, 2)
	assert.Equal(t, "Rate limited", sender.titles[0])
	assert.Contains(t, sender.messages[0], "10m0s")
	assert.Equal(t, "Resumed", sender.titles[1])
	assert.Contains(t, sender.messages[1], "10m1s")
	assert.Contains(t, out.String(), "pausing lookups")
}

func TestNotifierRespectsConfig(t *testing.T) {
	tests := []struct {
		name string
		mut  func(*config.NotificationConfig)
		want int
	}{
		{"disabled", func(c *config.NotificationConfig) { c.Enabled = false }, 0},
		{"type none", func(c *config.NotificationConfig) { c.NotificationType = "none" }, 0},
		{"no rate limit events", func(c *config.NotificationConfig) { c.OnRateLimit = false }, 1},
		{"no error events", func(c *config.NotificationConfig) { c.OnError = false }, 2},
		{"all", func(c *config.NotificationConfig) {}, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.DefaultConfig().Notifications
			tt.mut(&cfg)
			n, _, sender, now := newTestNotifier(cfg)

			n.OnThrottled(now.Add(time.Minute))
			n.OnResumed()
			n.OnDropped("spez", errors.New("boom"))

			assert.Len(t, sender.titles, tt.want)
		})
	}
}

func TestNotifierDesktopSenderSelection(t *testing.T) {
	terminal := NewNotifier(config.NotificationConfig{Enabled: true, NotificationType: "terminal"}, &bytes.Buffer{})
	assert.Nil(t, terminal.sender)

	desktop := NewNotifier(config.NotificationConfig{Enabled: true, NotificationType: "desktop"}, &bytes.Buffer{})
	assert.Equal(t, desktopSender(), desktop.sender)
}
