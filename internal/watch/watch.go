// Package watch recompiles when source documents change.
package watch

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/tliron/commonlog"

	"github.com/funvibe/yjs/internal/config"
	"github.com/funvibe/yjs/internal/modules"
)

var log = commonlog.GetLogger("yjs.watch")

// DefaultDelay is how long a burst of events is collected before the
// changed units are reported.
const DefaultDelay = 100 * time.Millisecond

// ChangeFunc is called with the units changed by one burst of events.
type ChangeFunc func(ctx context.Context, units []string)

// Watcher invalidates cached modules whose documents change and reports
// the changes.
type Watcher struct {
	w      *fsnotify.Watcher
	cache  *modules.Cache
	roots  []string
	change ChangeFunc
	Delay  time.Duration
}

// New watches the source directories dirs, including their
// subdirectories.
func New(cache *modules.Cache, dirs []string, change ChangeFunc) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	watcher := &Watcher{w: w, cache: cache, change: change, Delay: DefaultDelay}
	for _, dir := range dirs {
		abs, err := filepath.Abs(dir)
		if err != nil {
			w.Close()
			return nil, err
		}
		watcher.roots = append(watcher.roots, abs)
		if err := watcher.addTree(abs); err != nil {
			w.Close()
			return nil, err
		}
	}
	return watcher, nil
}

func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		log.Debugf("watching %s", path)
		return w.w.Add(path)
	})
}

// Run handles events until ctx is done or the watcher is closed.
func (w *Watcher) Run(ctx context.Context) error {
	pending := map[string]bool{}
	scripts := false
	timer := time.NewTimer(w.Delay)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-w.w.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if ev.Op&fsnotify.Create != 0 {
				if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
					if err := w.addTree(ev.Name); err != nil {
						log.Warningf("cannot watch %s: %s", ev.Name, err)
					}
					continue
				}
			}
			switch {
			case modules.IsDocument(ev.Name):
				pending[w.unitName(ev.Name)] = true
			case filepath.Ext(ev.Name) == config.ScriptExt:
				scripts = true
			default:
				continue
			}
			timer.Reset(w.Delay)
		case err, ok := <-w.w.Errors:
			if !ok {
				return nil
			}
			log.Errorf("watch: %s", err)
		case <-timer.C:
			units := make([]string, 0, len(pending))
			for u := range pending {
				units = append(units, u)
			}
			sort.Strings(units)
			if scripts {
				// Scripts are not tracked as dependencies.
				w.cache.Clear()
			} else {
				w.cache.Invalidate(units...)
			}
			log.Infof("changed: %s", strings.Join(units, ", "))
			pending = map[string]bool{}
			scripts = false
			if w.change != nil {
				w.change(ctx, units)
			}
		}
	}
}

// unitName maps a document path under one of the roots to its unit name,
// directories becoming dotted components.
func (w *Watcher) unitName(path string) string {
	name := modules.UnitName(path)
	for _, root := range w.roots {
		rel, err := filepath.Rel(root, filepath.Dir(path))
		if err != nil || strings.HasPrefix(rel, "..") {
			continue
		}
		if rel != "." {
			name = strings.ReplaceAll(filepath.ToSlash(rel), "/", ".") + "." + name
		}
		break
	}
	return modules.Canonical(name)
}

func (w *Watcher) Close() error {
	return w.w.Close()
}
