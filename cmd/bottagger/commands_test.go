package main

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"bottagger/pkg/auth"
	"bottagger/pkg/config"
	"bottagger/pkg/settings"
)

func TestExampleConfigParses(t *testing.T) {
	cfg := config.DefaultConfig()
	require.NoError(t, yaml.Unmarshal([]byte(exampleConfig), cfg))
	require.NoError(t, cfg.Validate())

	assert.Equal(t, config.DefaultConfig(), cfg)
}

func TestWriteMaskedConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Reddit.AccessToken = "abcd1234567890wxyz"
	cfg.RateLimit.RedisPassword = "hunter2"

	var buf bytes.Buffer
	require.NoError(t, writeMaskedConfig(&buf, cfg))

	out := buf.String()
	assert.Contains(t, out, "abcd...wxyz")
	assert.Contains(t, out, "***")
	assert.NotContains(t, out, "1234567890")
	assert.NotContains(t, out, "hunter2")

	// the caller's config is untouched
	assert.Equal(t, "abcd1234567890wxyz", cfg.Reddit.AccessToken)
}

func TestCheckPaths(t *testing.T) {
	cfg := config.DefaultConfig()
	warnings, problems := checkPaths(cfg)
	assert.Len(t, warnings, 2)
	assert.Empty(t, problems)

	cfg.Page.Source = "page.html"
	cfg.Reddit.AccessToken = "token"
	cfg.Page.Output = filepath.Join(t.TempDir(), "out", "page.html")
	warnings, problems = checkPaths(cfg)
	assert.Empty(t, warnings)
	assert.Empty(t, problems)
	assert.DirExists(t, filepath.Dir(cfg.Page.Output))
}

func TestValidateToken(t *testing.T) {
	tests := []struct {
		name    string
		token   string
		wantErr bool
	}{
		{"valid", "123456789-AbCdEfGhIjKlMnOpQrStUv", false},
		{"short", "abc", true},
		{"spaces", "12345678901234567890 abc", true},
		{"prefixed", "bearer12345678901234567890", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateToken(tt.token)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestPrintAccounts(t *testing.T) {
	var buf bytes.Buffer
	printAccounts(&buf, nil)
	assert.Contains(t, buf.String(), "No stored accounts")

	buf.Reset()
	printAccounts(&buf, []*auth.Account{{
		Username:     "watcher",
		AccessToken:  "abcd1234567890wxyz",
		UserAgent:    "bottagger/test",
		LastModified: time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC),
	}})
	out := buf.String()
	assert.Contains(t, out, "1. Account: watcher")
	assert.Contains(t, out, "User Agent: bottagger/test")
	assert.Contains(t, out, "2026-03-04 05:06:07")
	assert.NotContains(t, out, "1234567890")
}

func TestPrintSettings(t *testing.T) {
	var st settings.Settings
	require.NoError(t, st.Set(settings.KeyAutoFilterEnabled, true))

	var buf bytes.Buffer
	require.NoError(t, printSettings(&buf, "/tmp/settings.json", st))

	out := buf.String()
	assert.Contains(t, out, "featureEnabled       true")
	assert.Contains(t, out, "autoFilterEnabled    true")
	assert.Contains(t, out, "/tmp/settings.json")
}
