package touchtrail

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettingsWatcher_Reloads(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "touch.yaml")
	require.NoError(t, os.WriteFile(path, []byte("max_history_per_finger: 8\n"), 0o644))

	sw, err := WatchSettings(path, nil)
	require.NoError(t, err)
	defer sw.Close()

	require.NoError(t, os.WriteFile(path, []byte("max_history_per_finger: 32\ndebug: true\n"), 0o644))

	select {
	case s := <-sw.Changes():
		assert.Equal(t, 32, s.MaxHistoryPerFinger)
		assert.True(t, s.Debug)
	case err := <-sw.Errors():
		t.Fatalf("unexpected reload error: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("no reload within 5s")
	}
}

func TestSettingsWatcher_ReportsInvalidFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "touch.json")

	sw, err := WatchSettings(path, nil)
	require.NoError(t, err)
	defer sw.Close()

	require.NoError(t, os.WriteFile(path, []byte(`{"max_history_per_finger": -1}`), 0o644))

	select {
	case err := <-sw.Errors():
		assert.ErrorIs(t, err, ErrInvalidSettings)
	case <-sw.Changes():
		t.Fatal("invalid settings were delivered")
	case <-time.After(5 * time.Second):
		t.Fatal("no error within 5s")
	}
}

func TestSettingsWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "touch.toml")

	sw, err := WatchSettings(path, nil)
	require.NoError(t, err)
	defer sw.Close()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.toml"), []byte("debug = true\n"), 0o644))

	select {
	case <-sw.Changes():
		t.Fatal("change delivered for an unrelated file")
	case <-time.After(3 * settingsDebounce):
	}
}

func TestSettingsWatcher_CloseTwice(t *testing.T) {
	sw, err := WatchSettings(filepath.Join(t.TempDir(), "touch.toml"), nil)
	require.NoError(t, err)
	assert.NoError(t, sw.Close())
	assert.NoError(t, sw.Close())
}

func TestWatchSettings_MissingDirectory(t *testing.T) {
	_, err := WatchSettings(filepath.Join(t.TempDir(), "nope", "touch.toml"), nil)
	assert.Error(t, err)
}

func TestSettingsWatcher_CloseStopsDelivery(t *testing.T) {
	path := filepath.Join(t.TempDir(), "touch.yaml")
	require.NoError(t, os.WriteFile(path, []byte("max_history_per_finger: 8\n"), 0o644))
	sw, err := WatchSettings(path, nil)
	require.NoError(t, err)
	require.NoError(t, sw.Close())

	// A debounced reload that fires after Close must neither send nor panic.
	require.NotPanics(t, sw.reload)
	require.NotPanics(t, func() { sw.report(ErrInvalidSettings) })

	_, ok := <-sw.Changes()
	assert.False(t, ok, "changes channel still open")
	_, ok = <-sw.Errors()
	assert.False(t, ok, "errors channel still open")
}

func TestSettingsWatcher_CloseWhileReloading(t *testing.T) {
	path := filepath.Join(t.TempDir(), "touch.yaml")
	require.NoError(t, os.WriteFile(path, []byte("debug: true\n"), 0o644))
	sw, err := WatchSettings(path, nil)
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for range 100 {
			sw.reload()
		}
	}()
	require.NoError(t, sw.Close())
	<-done

	for range sw.Changes() {
	}
	_, ok := <-sw.Errors()
	assert.False(t, ok)
}
