// Package watcher reloads the hub configuration file when it changes on disk.
package watcher

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/automation-hub/hub/internal/config"
	"github.com/fsnotify/fsnotify"
	log "github.com/sirupsen/logrus"
)

const (
	defaultPollInterval  = 30 * time.Second
	defaultDebounceDelay = 250 * time.Millisecond
)

// ConfigWatcher watches the config file and invokes reload with each new version.
// fsnotify events trigger a debounced check; a slow poll covers filesystems that drop events.
type ConfigWatcher struct {
	configPath   string
	reload       func(config.Config)
	pollInterval time.Duration
	debounce     time.Duration

	mu      sync.Mutex
	cfgHash string
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// New constructs a ConfigWatcher. It returns nil when configPath is empty.
func New(configPath string, reload func(config.Config)) *ConfigWatcher {
	configPath = strings.TrimSpace(configPath)
	if configPath == "" || reload == nil {
		return nil
	}
	return &ConfigWatcher{
		configPath:   configPath,
		reload:       reload,
		pollInterval: defaultPollInterval,
		debounce:     defaultDebounceDelay,
	}
}

// Start records the current file version and launches the watch loop.
func (w *ConfigWatcher) Start(ctx context.Context) error {
	if w == nil {
		return nil
	}
	w.mu.Lock()
	if w.cancel != nil {
		w.mu.Unlock()
		return nil
	}
	runCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.mu.Unlock()

	if hash, ok := w.fileHash(); ok {
		w.mu.Lock()
		w.cfgHash = hash
		w.mu.Unlock()
	}

	fsw, errWatcher := fsnotify.NewWatcher()
	if errWatcher != nil {
		log.WithError(errWatcher).Warn("config watcher: fsnotify unavailable, polling only")
		fsw = nil
	} else if errAdd := fsw.Add(filepath.Dir(w.configPath)); errAdd != nil {
		log.WithError(errAdd).Warn("config watcher: watch config dir failed, polling only")
		_ = fsw.Close()
		fsw = nil
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.run(runCtx, fsw)
	}()
	log.Infof("config watcher started (path=%s poll_interval=%s)", w.configPath, w.pollInterval)
	return nil
}

// Stop cancels the watch loop and waits for it to exit.
func (w *ConfigWatcher) Stop() error {
	if w == nil {
		return nil
	}
	w.mu.Lock()
	if w.cancel != nil {
		w.cancel()
		w.cancel = nil
	}
	w.mu.Unlock()
	w.wg.Wait()
	return nil
}

func (w *ConfigWatcher) run(ctx context.Context, fsw *fsnotify.Watcher) {
	var events <-chan fsnotify.Event
	var errs <-chan error
	if fsw != nil {
		defer func() { _ = fsw.Close() }()
		events = fsw.Events
		errs = fsw.Errors
	}

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	var debounceTimer *time.Timer
	fire := make(chan struct{}, 1)
	defer func() {
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
	}()

	target := filepath.Clean(w.configPath)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.CheckNow()
		case <-fire:
			w.CheckNow()
		case event, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(w.debounce, func() {
				select {
				case fire <- struct{}{}:
				default:
				}
			})
		case errEvent, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			log.WithError(errEvent).Warn("config watcher: fsnotify error")
		}
	}
}

// CheckNow reloads the config when its contents changed since the last check.
// It reports whether reload was invoked.
func (w *ConfigWatcher) CheckNow() bool {
	if w == nil {
		return false
	}
	hash, ok := w.fileHash()
	if !ok {
		return false
	}
	w.mu.Lock()
	prevHash := w.cfgHash
	w.mu.Unlock()
	if prevHash != "" && prevHash == hash {
		return false
	}

	cfg, errLoad := config.Load(w.configPath)
	if errLoad != nil {
		log.WithError(errLoad).Warn("config watcher: load config failed")
		return false
	}

	w.mu.Lock()
	w.cfgHash = hash
	w.mu.Unlock()

	log.Infof("config watcher: %s changed, reloading", w.configPath)
	w.reload(cfg)
	return true
}

func (w *ConfigWatcher) fileHash() (string, bool) {
	data, errRead := os.ReadFile(w.configPath)
	if errRead != nil || len(data) == 0 {
		return "", false
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), true
}
