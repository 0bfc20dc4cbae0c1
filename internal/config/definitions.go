package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"
)

// LoadDefinitions loads every definition file in dir, ordered by file
// name. Files that fail to load are skipped; their errors are joined into
// the returned error alongside the definitions that did load. A missing
// directory yields no definitions and no error.
func LoadDefinitions(dir string) ([]*Definition, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading definitions directory %s: %w", dir, err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() && IsDefinitionFile(e.Name()) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	var defs []*Definition
	var errs []error
	seen := make(map[string]string)
	for _, name := range names {
		path := filepath.Join(dir, name)
		def, err := LoadDefinition(path)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if prev, dup := seen[def.Name]; dup {
			errs = append(errs, &ValidationError{
				Path:     def.Name + ".name",
				Message:  "already defined in " + prev,
				Sentinel: ErrInvalidDefinition,
			})
			continue
		}
		seen[def.Name] = name
		defs = append(defs, def)
	}
	return defs, errors.Join(errs...)
}

// DefaultWatchDebounce is the quiet period WatchDefinitions waits for
// after the last change.
const DefaultWatchDebounce = 200 * time.Millisecond

// WatchDefinitions watches dir and calls fn with a fresh LoadDefinitions
// result whenever definition files are created, written, removed or
// renamed. Bursts of changes within debounce trigger one reload; zero
// means DefaultWatchDebounce. Watching stops when ctx is done. fn is
// called from a single goroutine.
func WatchDefinitions(ctx context.Context, dir string, debounce time.Duration, fn func([]*Definition, error)) error {
	if debounce <= 0 {
		debounce = DefaultWatchDebounce
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	if err := w.Add(dir); err != nil {
		_ = w.Close()
		return fmt.Errorf("watching %s: %w", dir, err)
	}

	go func() {
		defer w.Close()

		var timer *time.Timer
		var fire <-chan time.Time
		for {
			select {
			case <-ctx.Done():
				if timer != nil {
					timer.Stop()
				}
				return

			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if !IsDefinitionFile(ev.Name) || ev.Op == fsnotify.Chmod {
					continue
				}
				if timer == nil {
					timer = time.NewTimer(debounce)
				} else {
					if !timer.Stop() {
						select {
						case <-timer.C:
						default:
						}
					}
					timer.Reset(debounce)
				}
				fire = timer.C

			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				fn(nil, fmt.Errorf("watching %s: %w", dir, err))

			case <-fire:
				fire = nil
				fn(LoadDefinitions(dir))
			}
		}
	}()
	return nil
}
