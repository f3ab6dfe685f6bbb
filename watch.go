package touchtrail

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// settingsDebounce coalesces bursts of writes from editors that save in
// several steps.
const settingsDebounce = 100 * time.Millisecond

// SettingsWatcher reloads a settings file whenever it changes on disk.
// Reloaded settings are delivered on a channel so the thread driving the
// update loop can apply them between steps with Context.ApplySettings and
// Simulation.ApplySettings.
type SettingsWatcher struct {
	path    string
	watcher *fsnotify.Watcher
	log     *slog.Logger

	changes chan Settings
	errs    chan error

	mu     sync.Mutex
	timer  *time.Timer
	closed bool
	done   chan struct{}
}

// WatchSettings starts watching the directory that holds path. The file
// itself need not exist yet.
func WatchSettings(path string, log *slog.Logger) (*SettingsWatcher, error) {
	if log == nil {
		log = slog.Default()
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := w.Add(filepath.Dir(path)); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("watch directory: %w", err)
	}
	sw := &SettingsWatcher{
		path:    path,
		watcher: w,
		log:     log.With("component", "touchtrail", "settings", path),
		changes: make(chan Settings, 1),
		errs:    make(chan error, 1),
		done:    make(chan struct{}),
	}
	go sw.loop()
	return sw, nil
}

// Changes delivers each successfully reloaded and validated Settings. Only
// the latest pending value is kept. The channel is closed by Close.
func (sw *SettingsWatcher) Changes() <-chan Settings { return sw.changes }

// Errors delivers reload failures. Errors are dropped when nobody reads them.
// The channel is closed by Close.
func (sw *SettingsWatcher) Errors() <-chan error { return sw.errs }

// Close stops watching and closes Changes and Errors. Nothing is delivered
// once Close has returned. It is safe to call more than once.
func (sw *SettingsWatcher) Close() error {
	sw.mu.Lock()
	if sw.closed {
		sw.mu.Unlock()
		return nil
	}
	sw.closed = true
	if sw.timer != nil {
		sw.timer.Stop()
	}
	sw.mu.Unlock()
	err := sw.watcher.Close()
	<-sw.done

	// A reload already running checks closed under mu before sending.
	sw.mu.Lock()
	close(sw.changes)
	close(sw.errs)
	sw.mu.Unlock()
	return err
}

func (sw *SettingsWatcher) loop() {
	defer close(sw.done)
	for {
		select {
		case ev, ok := <-sw.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(ev.Name) != filepath.Base(sw.path) {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			sw.schedule()
		case err, ok := <-sw.watcher.Errors:
			if !ok {
				return
			}
			sw.report(err)
		}
	}
}

func (sw *SettingsWatcher) schedule() {
	sw.mu.Lock()
	defer sw.mu.Unlock()
	if sw.closed {
		return
	}
	if sw.timer != nil {
		sw.timer.Stop()
	}
	sw.timer = time.AfterFunc(settingsDebounce, sw.reload)
}

func (sw *SettingsWatcher) reload() {
	s, err := LoadSettings(sw.path)
	if err != nil {
		sw.report(fmt.Errorf("reload settings: %w", err))
		return
	}
	sw.mu.Lock()
	defer sw.mu.Unlock()
	if sw.closed {
		return
	}
	sw.log.Debug("settings reloaded")
	// Replace any value the consumer has not picked up yet.
	select {
	case <-sw.changes:
	default:
	}
	select {
	case sw.changes <- s:
	default:
	}
}

func (sw *SettingsWatcher) report(err error) {
	sw.mu.Lock()
	defer sw.mu.Unlock()
	if sw.closed {
		return
	}
	sw.log.Warn("settings watch", "err", err)
	select {
	case sw.errs <- err:
	default:
	}
}

// ApplySettings adopts s. History depth and update mask only affect fingers
// created afterwards; debug mode applies right away.
func (c *Context) ApplySettings(s Settings) error {
	if err := s.Validate(); err != nil {
		return err
	}
	c.settings = s
	c.debug = s.Debug
	return nil
}
