// Package watch reports debounced changes to note files so the index can be
// rebuilt while the server runs.
package watch

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/dgallion1/notedex/internal/parser"
)

// Change is one file event.
type Change struct {
	Path string
	Op   string // create, write, remove, rename
	Time time.Time
}

// Handler receives each debounced batch, deduplicated by path.
type Handler func(ctx context.Context, changes []Change)

// Options tune a Watcher.
type Options struct {
	Debounce   time.Duration
	BufferSize int
}

func DefaultOptions() Options {
	return Options{Debounce: 500 * time.Millisecond, BufferSize: 256}
}

// Watcher follows directories recursively and individual files.
type Watcher struct {
	fsw      *fsnotify.Watcher
	handler  Handler
	debounce time.Duration
	log      *slog.Logger

	dirs  []string        // watched roots
	files map[string]bool // explicitly named files

	changes  chan Change
	done     chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once
}

// New prepares a watcher over paths. Nothing is watched until Start.
func New(paths []string, handler Handler, opts Options, log *slog.Logger) (*Watcher, error) {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultOptions().Debounce
	}
	if opts.BufferSize <= 0 {
		opts.BufferSize = DefaultOptions().BufferSize
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		fsw:      fsw,
		handler:  handler,
		debounce: opts.Debounce,
		log:      log,
		files:    make(map[string]bool),
		changes:  make(chan Change, opts.BufferSize),
		done:     make(chan struct{}),
	}
	for _, p := range paths {
		clean := filepath.Clean(p)
		info, err := os.Stat(clean)
		if err != nil {
			fsw.Close()
			return nil, err
		}
		if info.IsDir() {
			w.dirs = append(w.dirs, clean)
		} else {
			w.files[clean] = true
		}
	}
	return w, nil
}

// Start registers the watches and launches the event loops. They exit when
// ctx is cancelled or Stop is called.
// If a watch cannot be registered the underlying watcher is released and the
// error returned; Stop is still safe to call.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.register(); err != nil {
		w.fsw.Close()
		return err
	}

	w.wg.Add(2)
	go func() {
		defer w.wg.Done()
		w.processEvents(ctx)
	}()
	go func() {
		defer w.wg.Done()
		w.debounceLoop(ctx)
	}()
	return nil
}

func (w *Watcher) register() error {
	for _, d := range w.dirs {
		if err := w.addRecursive(d); err != nil {
			return err
		}
	}
	for f := range w.files {
		if err := w.fsw.Add(filepath.Dir(f)); err != nil {
			return err
		}
	}
	return nil
}

// Stop ends watching and waits for a pending batch to be handled.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.done)
		w.fsw.Close()
		w.wg.Wait()
	})
}

func (w *Watcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return w.fsw.Add(path)
	})
}

// relevant reports whether an event path is a note file we follow.
func (w *Watcher) relevant(path string) bool {
	path = filepath.Clean(path)
	if w.files[path] {
		return true
	}
	if strings.HasPrefix(filepath.Base(path), ".") || !parser.IsSupportedExtension(path) {
		return false
	}
	for _, d := range w.dirs {
		if rel, err := filepath.Rel(d, path); err == nil && !strings.HasPrefix(rel, "..") {
			return true
		}
	}
	return false
}

func (w *Watcher) processEvents(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			// New directories under a watched root are followed too.
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() && w.relevantDir(event.Name) {
					if err := w.addRecursive(event.Name); err != nil {
						w.log.Warn("watch new directory", "path", event.Name, "error", err)
					}
					continue
				}
			}
			if !w.relevant(event.Name) {
				continue
			}
			select {
			case w.changes <- Change{Path: filepath.Clean(event.Name), Op: opName(event.Op), Time: time.Now()}:
			default:
				w.log.Warn("watch buffer full, dropping event", "path", event.Name)
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.log.Warn("watch error", "error", err)
		}
	}
}

func (w *Watcher) relevantDir(path string) bool {
	if strings.HasPrefix(filepath.Base(path), ".") {
		return false
	}
	for _, d := range w.dirs {
		if rel, err := filepath.Rel(d, path); err == nil && !strings.HasPrefix(rel, "..") {
			return true
		}
	}
	return false
}

func opName(op fsnotify.Op) string {
	switch {
	case op.Has(fsnotify.Create):
		return "create"
	case op.Has(fsnotify.Remove):
		return "remove"
	case op.Has(fsnotify.Rename):
		return "rename"
	default:
		return "write"
	}
}

func (w *Watcher) debounceLoop(ctx context.Context) {
	var batch []Change
	var timer *time.Timer
	var timerC <-chan time.Time

	flush := func() {
		if timer != nil {
			timer.Stop()
			timer, timerC = nil, nil
		}
		if len(batch) == 0 {
			return
		}
		changes := dedupe(batch)
		batch = nil
		if w.handler != nil {
			w.handler(ctx, changes)
		}
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			flush()
			return
		case c := <-w.changes:
			batch = append(batch, c)
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				timerC = timer.C
			} else {
				timer.Reset(w.debounce)
			}
		case <-timerC:
			timer, timerC = nil, nil
			flush()
		}
	}
}

// dedupe keeps the last change per path, in first-seen order.
func dedupe(changes []Change) []Change {
	seen := make(map[string]int)
	out := make([]Change, 0, len(changes))
	for _, c := range changes {
		if i, ok := seen[c.Path]; ok {
			out[i] = c
			continue
		}
		seen[c.Path] = len(out)
		out = append(out, c)
	}
	return out
}
