package settings

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/benjaminschreck/go-coverletter/pkg/stencil"
)

// DefaultDebounce coalesces the burst of events an editor save produces
const DefaultDebounce = 250 * time.Millisecond

// ChangeFunc receives the reloaded settings, or the error that prevented
// loading them.
type ChangeFunc func(stencil.Settings, error)

// Watcher reloads the settings file when it changes on disk
type Watcher struct {
	store    *FileStore
	watcher  *fsnotify.Watcher
	onChange ChangeFunc
	debounce time.Duration
	logger   *stencil.Logger

	reload   chan struct{}
	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewWatcher creates a watcher for store. The directory holding the file is
// watched, since editors often replace the file instead of writing it.
func NewWatcher(store *FileStore, debounce time.Duration, onChange ChangeFunc) (*Watcher, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	return &Watcher{
		store:    store,
		watcher:  w,
		onChange: onChange,
		debounce: debounce,
		logger:   stencil.WithField("settings", store.Path()),
		reload:   make(chan struct{}, 1),
		stop:     make(chan struct{}),
	}, nil
}

// Start begins watching. The settings directory must exist.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.watcher.Add(w.store.Dir()); err != nil {
		return fmt.Errorf("failed to watch settings directory %s: %w", w.store.Dir(), err)
	}
	w.logger.Debug("watching settings")

	w.wg.Add(2)
	go w.watchLoop(ctx)
	go w.reloadLoop(ctx)
	return nil
}

// Stop ends watching and waits for the loops to exit
func (w *Watcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.stop)
		err = w.watcher.Close()
		w.wg.Wait()
	})
	return err
}

func (w *Watcher) watchLoop(ctx context.Context) {
	defer w.wg.Done()
	name := filepath.Base(w.store.Path())

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stop:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != name {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				w.logger.Debug("settings change detected: %s", event.Op)
				w.triggerReload()
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("settings watcher error: %v", err)
		}
	}
}

func (w *Watcher) reloadLoop(ctx context.Context) {
	defer w.wg.Done()
	var timer *time.Timer
	fire := make(chan struct{}, 1)

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return
		case <-w.stop:
			if timer != nil {
				timer.Stop()
			}
			return
		case <-w.reload:
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(w.debounce, func() {
				select {
				case fire <- struct{}{}:
				default:
				}
			})
		case <-fire:
			settings, err := w.store.Load()
			if err != nil {
				w.logger.Warn("failed to reload settings: %v", err)
			}
			w.onChange(settings, err)
		}
	}
}

func (w *Watcher) triggerReload() {
	select {
	case w.reload <- struct{}{}:
	default:
	}
}
