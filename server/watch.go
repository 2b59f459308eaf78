package server

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/pennadev/penna/config"
)

const watchDebounce = 300 * time.Millisecond

// watcher rebuilds the site when the content, layout, or static trees
// change. Events are debounced so an editor save burst triggers one build.
type watcher struct {
	fsw      *fsnotify.Watcher
	logger   *slog.Logger
	onChange func()
}

func newWatcher(cfg *config.Config, logger *slog.Logger, onChange func()) (*watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &watcher{fsw: fsw, logger: logger, onChange: onChange}

	roots := []string{cfg.ContentDir, cfg.StaticDir, cfg.LayoutDir()}
	if themeStatic := cfg.ThemeStaticDir(); themeStatic != "" {
		roots = append(roots, themeStatic)
	}
	for _, root := range roots {
		if _, err := os.Stat(root); err != nil {
			continue
		}
		if err := w.addTree(root); err != nil {
			_ = fsw.Close()
			return nil, err
		}
	}
	return w, nil
}

// addTree registers every directory beneath root; fsnotify does not recurse.
func (w *watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") && path != root {
			return filepath.SkipDir
		}
		return w.fsw.Add(path)
	})
}

// Run pumps filesystem events until the context is cancelled.
func (w *watcher) Run(ctx context.Context) {
	defer w.fsw.Close()

	var timer *time.Timer
	fire := make(chan struct{}, 1)

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			// New directories need registering before their files emit events.
			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					_ = w.addTree(event.Name)
				}
			}
			w.logger.Debug("change detected", "path", event.Name, "op", event.Op.String())
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(watchDebounce, func() {
				select {
				case fire <- struct{}{}:
				default:
				}
			})
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watch", "error", err)
		case <-fire:
			w.onChange()
		}
	}
}
