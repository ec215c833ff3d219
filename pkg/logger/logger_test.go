package logger

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"bottagger/pkg/config"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		level   string
		wantErr bool
	}{
		{"debug", "debug", false},
		{"info", "info", false},
		{"warning alias", "warning", false},
		{"empty defaults to info", "", false},
		{"invalid", "chatty", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := NewWithWriter(&config.LoggingConfig{Level: tt.level}, &bytes.Buffer{})
			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, l)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, l.GetZerolog())
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	level, err := parseLogLevel("ERROR")
	require.NoError(t, err)
	assert.Equal(t, zerolog.ErrorLevel, level)

	level, err = parseLogLevel("disabled")
	require.NoError(t, err)
	assert.Equal(t, zerolog.Disabled, level)

	_, err = parseLogLevel("nope")
	assert.Error(t, err)
}

func TestConsoleOutputCarriesFields(t *testing.T) {
	var buf bytes.Buffer
	l, err := NewWithWriter(&config.LoggingConfig{Level: "debug"}, &buf)
	require.NoError(t, err)

	l.WithField("username", "example").InfoWithFields("Annotated author", map[string]interface{}{
		"label": "High",
		"score": 190.5,
	})

	out := buf.String()
	assert.Contains(t, out, "Annotated author")
	assert.Contains(t, out, "username")
	assert.Contains(t, out, "example")
	assert.Contains(t, out, "High")
}

func TestFileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "bottagger.log")
	l, err := NewWithWriter(&config.LoggingConfig{Level: "info", File: path}, nil)
	require.NoError(t, err)

	l.WithError(errors.New("boom")).Error("drain failed")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"message":"drain failed"`)
	assert.Contains(t, string(data), `"error":"boom"`)
	assert.Contains(t, string(data), `"app":"bottagger"`)
}

func TestWithFieldsDoesNotMutateParent(t *testing.T) {
	tl := NewTestLogger()
	child := tl.WithField("component", "scheduler")
	child.WithField("username", "a").Info("one")
	child.Info("two")

	msgs := tl.GetMessages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "a", msgs[0].Fields["username"])
	_, leaked := msgs[1].Fields["username"]
	assert.False(t, leaked)
	assert.Equal(t, "scheduler", msgs[1].Fields["component"])
}

func TestTestLoggerCapture(t *testing.T) {
	tl := NewTestLogger()
	tl.Debug("dbg")
	tl.WithError(errors.New("bad")).Error("failed")
	tl.WarnWithFields("slow", map[string]interface{}{"duration": time.Second})

	assert.True(t, tl.HasMessage("failed"))
	assert.True(t, tl.HasError())
	assert.Len(t, tl.GetMessagesByLevel("WARN"), 1)
	assert.EqualError(t, tl.GetMessagesByLevel("ERROR")[0].Error, "bad")
	assert.Contains(t, tl.String(), "[DEBUG] dbg")

	tl.Clear()
	assert.Empty(t, tl.GetMessages())
}

func TestHelpers(t *testing.T) {
	tl := NewTestLogger()

	LogRequest(tl, "GET", "https://www.reddit.com/user/a/about.json", 429, 20*time.Millisecond)
	LogRequest(tl, "GET", "https://www.reddit.com/user/a/about.json", 503, time.Millisecond)
	LogThrottle(tl, "a", time.Now().Add(30*time.Second), true)
	LogComponentStart(tl, "scheduler", map[string]interface{}{"scan_interval": time.Second})
	LogComponentStop(tl, "scheduler", "context canceled")

	assert.Len(t, tl.GetMessagesByLevel("WARN"), 2)
	assert.Len(t, tl.GetMessagesByLevel("ERROR"), 1)
	assert.True(t, tl.HasMessage("pausing drain"))
	assert.True(t, tl.HasMessage("Component stopped"))
}

func TestGlobalLogger(t *testing.T) {
	tl := NewTestLogger()
	SetGlobal(tl)
	t.Cleanup(func() { SetGlobal(NewNopLogger()) })

	Info("hello")
	WithField("k", "v").Warn("careful")

	assert.Same(t, tl, GetLogger())
	assert.True(t, tl.HasMessage("hello"))
	assert.Equal(t, "v", tl.GetMessagesByLevel("WARN")[0].Fields["k"])
}

func TestNopLogger(t *testing.T) {
	l := NewNopLogger()
	assert.NotPanics(t, func() {
		l.WithField("a", 1).WithError(errors.New("x")).Info("ignored")
	})
	assert.Nil(t, l.GetZerolog())
}
