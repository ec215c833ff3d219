package settings

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "nested", "settings.json"))
	require.NoError(t, err)
	return s
}

func TestDefaults(t *testing.T) {
	s := newTestStore(t)

	st, err := s.Load()
	require.NoError(t, err)
	assert.True(t, st.Feature())
	assert.False(t, st.AutoFilter())
	assert.Equal(t, map[string]bool{KeyFeatureEnabled: true, KeyAutoFilterEnabled: false}, st.Values())
}

func TestSetPersists(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.Set(KeyAutoFilterEnabled, true))
	require.NoError(t, s.Set(KeyFeatureEnabled, false))

	reopened, err := NewStore(s.Path())
	require.NoError(t, err)
	st, err := reopened.Load()
	require.NoError(t, err)
	assert.False(t, st.Feature())
	assert.True(t, st.AutoFilter())
	assert.False(t, st.UpdatedAt.IsZero())

	_, err = os.Stat(s.Path() + ".tmp")
	assert.True(t, os.IsNotExist(err), "temporary file is renamed away")
}

func TestUnknownKey(t *testing.T) {
	s := newTestStore(t)
	assert.ErrorIs(t, s.Set("darkMode", true), ErrUnknownKey)

	var st Settings
	_, err := st.Get("darkMode")
	assert.ErrorIs(t, err, ErrUnknownKey)
}

func TestCorruptFile(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, os.WriteFile(s.Path(), []byte("{not json"), 0644))

	_, err := s.Load()
	assert.Error(t, err)
}

func TestExplicitFalseFeature(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, os.WriteFile(s.Path(), []byte(`{"featureEnabled": false}`), 0644))

	st, err := s.Load()
	require.NoError(t, err)
	got, err := st.Get(KeyFeatureEnabled)
	require.NoError(t, err)
	assert.False(t, got)
}

func TestMissingFeatureKeyMeansEnabled(t *testing.T) {
	tests := []struct {
		name string
		body string
		want bool
	}{
		{"key absent", `{"autoFilterEnabled": true}`, true},
		{"explicit false", `{"featureEnabled": false}`, false},
		{"explicit true", `{"featureEnabled": true}`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestStore(t)
			require.NoError(t, os.WriteFile(s.Path(), []byte(tt.body), 0o600))

			st, err := s.Load()
			require.NoError(t, err)
			assert.Equal(t, tt.want, st.Feature())
		})
	}
}

func TestReset(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Set(KeyFeatureEnabled, false))
	require.NoError(t, s.Reset())
	require.NoError(t, s.Reset())

	st, err := s.Load()
	require.NoError(t, err)
	assert.True(t, st.Feature())
}

func TestDefaultPathUsesXDG(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("XDG_DATA_HOME only applies on linux")
	}
	dir := t.TempDir()
	t.Setenv("XDG_DATA_HOME", dir)

	s, err := NewStore("")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "bottagger", "settings.json"), s.Path())
}

func TestKeys(t *testing.T) {
	assert.Equal(t, []string{KeyAutoFilterEnabled, KeyFeatureEnabled}, Keys())
}

func TestLoadOrDefaultOnCorruptFile(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, os.WriteFile(s.Path(), []byte("{not json"), 0644))

	st := s.LoadOrDefault()
	assert.True(t, st.Feature())
	assert.False(t, st.AutoFilter())
}
