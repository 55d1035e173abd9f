package watcher

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/ironsheep/image-lazyload/internal/logger"
)

// DefaultDebounce is how long a file must be quiet before it is processed.
const DefaultDebounce = 300 * time.Millisecond

// Watcher mirrors HTML files from srcDir into outDir through a ProcessFunc.
type Watcher struct {
	srcDir   string
	outDir   string
	process  ProcessFunc
	log      logger.Logger
	debounce time.Duration

	fsw *fsnotify.Watcher

	mu      sync.Mutex
	timers  map[string]*time.Timer
	closed  bool
	pending sync.WaitGroup
}

// New creates a Watcher. The directories must differ and neither may
// contain the other.
func New(srcDir, outDir string, process ProcessFunc, log logger.Logger) (*Watcher, error) {
	src, err := filepath.Abs(srcDir)
	if err != nil {
		return nil, fmt.Errorf("resolve source directory: %w", err)
	}
	out, err := filepath.Abs(outDir)
	if err != nil {
		return nil, fmt.Errorf("resolve output directory: %w", err)
	}
	if within(out, src) || within(src, out) {
		return nil, fmt.Errorf("output directory %s must be outside source directory %s", out, src)
	}

	info, err := os.Stat(src)
	if err != nil {
		return nil, fmt.Errorf("source directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("source %s is not a directory", src)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	return &Watcher{
		srcDir:   src,
		outDir:   out,
		process:  process,
		log:      log,
		debounce: DefaultDebounce,
		fsw:      fsw,
		timers:   make(map[string]*time.Timer),
	}, nil
}

// SetDebounce changes the quiet period; used by tests.
func (w *Watcher) SetDebounce(d time.Duration) {
	w.debounce = d
}

// ProcessAll rewrites every HTML file under the source directory and
// returns how many were written.
func (w *Watcher) ProcessAll() (int, error) {
	count := 0
	err := filepath.WalkDir(w.srcDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !IsHTML(path) {
			return nil
		}
		if err := w.ProcessFile(path); err != nil {
			return err
		}
		count++
		return nil
	})
	return count, err
}

// ProcessFile rewrites one source file into its mirror location.
func (w *Watcher) ProcessFile(path string) error {
	rel, err := filepath.Rel(w.srcDir, path)
	if err != nil {
		return fmt.Errorf("file %s is outside %s: %w", path, w.srcDir, err)
	}
	dst := filepath.Join(w.outDir, rel)
	if err := RewriteFile(path, dst, w.process); err != nil {
		return err
	}
	w.log.Debug("html rewritten", logger.String("source", path), logger.String("output", dst))
	return nil
}

// Run performs an initial full pass, then processes changes until ctx is
// cancelled. The fsnotify watcher is closed on return.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.stop()

	if err := w.addTree(w.srcDir); err != nil {
		return err
	}
	n, err := w.ProcessAll()
	if err != nil {
		return fmt.Errorf("initial pass: %w", err)
	}
	w.log.Info("initial pass complete", logger.Int("files", n), logger.String("source", w.srcDir))

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("watcher error", logger.Error(err))
		}
	}
}

// addTree watches dir and all directories below it; fsnotify is not
// recursive.
func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if err := w.fsw.Add(path); err != nil {
			return fmt.Errorf("failed to watch folder %s: %w", path, err)
		}
		return nil
	})
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return
	}

	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.addTree(event.Name); err != nil {
				w.log.Warn("failed to watch new directory", logger.String("path", event.Name), logger.Error(err))
				return
			}
			// Files may have landed before the watch was added.
			w.processDir(event.Name)
			return
		}
	}

	if IsHTML(event.Name) {
		w.schedule(event.Name)
	}
}

func (w *Watcher) processDir(dir string) {
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err == nil && !d.IsDir() && IsHTML(path) {
			w.schedule(path)
		}
		return nil
	})
}

// schedule processes path once it has been quiet for the debounce period.
// Every armed timer holds one count on w.pending until its callback ends or
// it is stopped before firing.
func (w *Watcher) schedule(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return
	}
	if prev, ok := w.timers[path]; ok && prev.Stop() {
		w.pending.Done()
	}
	w.pending.Add(1)
	var timer *time.Timer
	timer = time.AfterFunc(w.debounce, func() {
		defer w.pending.Done()

		w.mu.Lock()
		if w.timers[path] == timer {
			delete(w.timers, path)
		}
		closed := w.closed
		w.mu.Unlock()
		if closed {
			return
		}

		if err := w.ProcessFile(path); err != nil {
			w.log.Warn("failed to rewrite html", logger.String("path", path), logger.Error(err))
		}
	})
	w.timers[path] = timer
}

// stop cancels pending timers and waits for callbacks already running.
func (w *Watcher) stop() {
	w.mu.Lock()
	w.closed = true
	for _, timer := range w.timers {
		if timer.Stop() {
			w.pending.Done()
		}
	}
	w.timers = make(map[string]*time.Timer)
	w.mu.Unlock()

	w.pending.Wait()

	if err := w.fsw.Close(); err != nil {
		w.log.Warn("failed to close watcher", logger.Error(err))
	}
}
