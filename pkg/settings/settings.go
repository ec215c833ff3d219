package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"sync"
	"time"

	"bottagger/pkg/logger"
)

const (
	KeyFeatureEnabled    = "featureEnabled"
	KeyAutoFilterEnabled = "autoFilterEnabled"
)

// ErrUnknownKey is returned for keys the store does not know about.
var ErrUnknownKey = errors.New("unknown settings key")

// Settings is the persisted feature state. Nil fields were never set and
// fall back to their defaults.
type Settings struct {
	FeatureEnabled    *bool     `json:"featureEnabled,omitempty"`
	AutoFilterEnabled *bool     `json:"autoFilterEnabled,omitempty"`
	UpdatedAt         time.Time `json:"updated_at,omitempty"`
}

// Feature reports whether scanning should run. Unset means enabled so a
// fresh install watches without a settings step; only an explicit false
// turns it off.
func (s Settings) Feature() bool {
	return s.FeatureEnabled == nil || *s.FeatureEnabled
}

// AutoFilter reports whether high-likelihood posts are hidden. Unset means off.
func (s Settings) AutoFilter() bool {
	return s.AutoFilterEnabled != nil && *s.AutoFilterEnabled
}

// Get returns the effective value for key.
func (s Settings) Get(key string) (bool, error) {
	switch key {
	case KeyFeatureEnabled:
		return s.Feature(), nil
	case KeyAutoFilterEnabled:
		return s.AutoFilter(), nil
	default:
		return false, fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}
}

// Set assigns key.
func (s *Settings) Set(key string, value bool) error {
	v := value
	switch key {
	case KeyFeatureEnabled:
		s.FeatureEnabled = &v
	case KeyAutoFilterEnabled:
		s.AutoFilterEnabled = &v
	default:
		return fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}
	return nil
}

// Values returns every key with its effective value.
func (s Settings) Values() map[string]bool {
	return map[string]bool{
		KeyFeatureEnabled:    s.Feature(),
		KeyAutoFilterEnabled: s.AutoFilter(),
	}
}

// Keys lists the known keys in sorted order.
func Keys() []string {
	keys := []string{KeyFeatureEnabled, KeyAutoFilterEnabled}
	sort.Strings(keys)
	return keys
}

// Store persists Settings as a JSON file.
type Store struct {
	mu     sync.Mutex
	path   string
	logger logger.Logger
}

// NewStore opens the store at path, or at the per-user data directory when
// path is empty.
func NewStore(path string) (*Store, error) {
	if path == "" {
		dataDir, err := getDataDirectory()
		if err != nil {
			return nil, fmt.Errorf("failed to get data directory: %w", err)
		}
		path = filepath.Join(dataDir, "settings.json")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create settings directory: %w", err)
	}

	return &Store{path: path, logger: logger.GetLogger()}, nil
}

// Path returns the backing file.
func (s *Store) Path() string { return s.path }

// Load reads the settings. A missing file yields zero Settings, which
// resolve to the defaults.
func (s *Store) Load() (Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

func (s *Store) load() (Settings, error) {
	var st Settings
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return st, nil
		}
		return st, fmt.Errorf("failed to read settings: %w", err)
	}
	if err := json.Unmarshal(data, &st); err != nil {
		return Settings{}, fmt.Errorf("failed to decode settings: %w", err)
	}
	return st, nil
}

// LoadOrDefault is Load for startup: a failure is logged and the defaults
// are returned so scanning still starts.
func (s *Store) LoadOrDefault() Settings {
	st, err := s.Load()
	if err != nil {
		s.logger.WithError(err).WithField("path", s.path).Warn("Failed to load settings, using defaults")
		return Settings{}
	}
	return st
}

// Save writes the settings atomically.
func (s *Store) Save(st Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(st)
}

func (s *Store) save(st Settings) error {
	st.UpdatedAt = time.Now()

	tempPath := s.path + ".tmp"
	file, err := os.Create(tempPath)
	if err != nil {
		return fmt.Errorf("failed to create temporary settings file: %w", err)
	}

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(st); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to encode settings: %w", err)
	}

	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to sync settings file: %w", err)
	}

	if err := file.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to close settings file: %w", err)
	}

	if err := os.Rename(tempPath, s.path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to replace settings file: %w", err)
	}

	s.logger.DebugWithFields("Settings saved", map[string]interface{}{
		"path":       s.path,
		"feature":    st.Feature(),
		"autoFilter": st.AutoFilter(),
	})
	return nil
}

// Set updates one key and persists the result.
func (s *Store) Set(key string, value bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.load()
	if err != nil {
		return err
	}
	if err := st.Set(key, value); err != nil {
		return err
	}
	return s.save(st)
}

// Reset removes the settings file so every key returns to its default.
func (s *Store) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete settings: %w", err)
	}
	s.logger.Info("Settings reset")
	return nil
}

// getDataDirectory returns the appropriate data directory for the current OS
func getDataDirectory() (string, error) {
	switch runtime.GOOS {
	case "linux":
		if xdgDataHome := os.Getenv("XDG_DATA_HOME"); xdgDataHome != "" {
			return filepath.Join(xdgDataHome, "bottagger"), nil
		}
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, ".local", "share", "bottagger"), nil
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, "Library", "Application Support", "bottagger"), nil
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData == "" {
			return "", fmt.Errorf("APPDATA environment variable not set")
		}
		return filepath.Join(appData, "bottagger"), nil
	default:
		return "", fmt.Errorf("unsupported operating system: %s", runtime.GOOS)
	}
}
