package ui

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"sync"
	"time"

	"bottagger/pkg/config"
	"bottagger/pkg/scoring"
)

// NotificationSender interface for platform-specific notification implementations
type NotificationSender interface {
	Send(title, message string) error
}

// LinuxNotificationSender sends notifications on Linux using notify-send
type LinuxNotificationSender struct{}

func (l *LinuxNotificationSender) Send(title, message string) error {
	return exec.Command("notify-send", title, message).Run()
}

// MacOSNotificationSender sends notifications on macOS using osascript
type MacOSNotificationSender struct{}

func (m *MacOSNotificationSender) Send(title, message string) error {
	script := fmt.Sprintf(`display notification %q with title %q`, message, title)
	return exec.Command("osascript", "-e", script).Run()
}

// WindowsNotificationSender sends notifications on Windows using PowerShell
type WindowsNotificationSender struct{}

func (w *WindowsNotificationSender) Send(title, message string) error {
	script := fmt.Sprintf(`
		[Windows.UI.Notifications.ToastNotificationManager, Windows.UI.Notifications, ContentType = WindowsRuntime] | Out-Null
		[Windows.Data.Xml.Dom.XmlDocument, Windows.Data.Xml.Dom.XmlDocument, ContentType = WindowsRuntime] | Out-Null
		$xml = @"
<toast>
	<visual>
		<binding template="ToastText02">
			<text id="1">%s</text>
			<text id="2">%s</text>
		</binding>
	</visual>
</toast>
"@
		$doc = [Windows.Data.Xml.Dom.XmlDocument]::new()
		$doc.LoadXml($xml)
		$toast = [Windows.UI.Notifications.ToastNotification]::new($doc)
		[Windows.UI.Notifications.ToastNotificationManager]::CreateToastNotifier("bottagger").Show($toast)
	`, title, message)

	return exec.Command("powershell", "-NoProfile", "-NonInteractive", "-Command", script).Run()
}

// desktopSender returns the sender for the current platform, or nil.
func desktopSender() NotificationSender {
	switch runtime.GOOS {
	case "linux":
		return &LinuxNotificationSender{}
	case "darwin":
		return &MacOSNotificationSender{}
	case "windows":
		return &WindowsNotificationSender{}
	}
	return nil
}

// Notifier reports throttle windows and dropped lookups to the terminal and,
// when configured, the desktop. It satisfies scheduler.Observer.
type Notifier struct {
	cfg    config.NotificationConfig
	sender NotificationSender
	out    io.Writer

	mu            sync.Mutex
	throttleStart time.Time
	now           func() time.Time
}

// NewNotifier builds a notifier for cfg writing console lines to out
// (stderr when nil).
func NewNotifier(cfg config.NotificationConfig, out io.Writer) *Notifier {
	if out == nil {
		out = os.Stderr
	}
	n := &Notifier{cfg: cfg, out: out, now: time.Now}
	if strings.ToLower(cfg.NotificationType) == "desktop" {
		n.sender = desktopSender()
	}
	return n
}

// WithSender replaces the desktop sender.
func (n *Notifier) WithSender(s NotificationSender) *Notifier {
	n.sender = s
	return n
}

func (n *Notifier) active() bool {
	return n.cfg.Enabled && strings.ToLower(n.cfg.NotificationType) != "none"
}

// SendNotification prints a message and forwards it to the desktop sender.
func (n *Notifier) SendNotification(title, message string) {
	fmt.Fprintf(n.out, "\n%s: %s\n", Cyan(title), Yellow(message))
	n.forward(title, message)
}

// SendError prints an error notification
func (n *Notifier) SendError(title, message string) {
	fmt.Fprintf(n.out, "\n%s: %s\n", Red(title), Red(message))
	n.forward(title, message)
}

// SendSuccess prints a success notification
func (n *Notifier) SendSuccess(title, message string) {
	fmt.Fprintf(n.out, "\n%s: %s\n", Green(title), Green(message))
	n.forward(title, message)
}

func (n *Notifier) forward(title, message string) {
	if n.sender != nil {
		// Desktop delivery is best effort.
		_ = n.sender.Send(title, message)
	}
}

// OnThrottled announces the start of a throttle window.
func (n *Notifier) OnThrottled(until time.Time) {
	n.mu.Lock()
	n.throttleStart = n.now()
	wait := until.Sub(n.throttleStart).Round(time.Second)
	n.mu.Unlock()

	if !n.active() || !n.cfg.OnRateLimit {
		return
	}
	n.SendNotification("Rate limited", fmt.Sprintf("pausing lookups for %s (until %s)", wait, until.Format("15:04:05")))
}

// OnResumed announces the end of a throttle window.
func (n *Notifier) OnResumed() {
	n.mu.Lock()
	paused := time.Duration(0)
	if !n.throttleStart.IsZero() {
		paused = n.now().Sub(n.throttleStart).Round(time.Second)
	}
	n.throttleStart = time.Time{}
	n.mu.Unlock()

	if !n.active() || !n.cfg.OnRateLimit {
		return
	}
	n.SendSuccess("Resumed", fmt.Sprintf("lookups resumed after %s", paused))
}

func (n *Notifier) OnAnnotated(string, scoring.Result, bool) {}

// OnDropped reports a lookup that was abandoned.
func (n *Notifier) OnDropped(username string, err error) {
	if !n.active() || !n.cfg.OnError {
		return
	}
	n.SendError("Lookup failed", fmt.Sprintf("u/%s: %v", username, err))
}
