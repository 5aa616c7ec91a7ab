// Package inbox watches a folder for dropped PDFs and hands over the ones
// that stopped changing. fsnotify reports writes, a ticker checks the settle
// time.
package inbox

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"docsum/config"

	"github.com/fsnotify/fsnotify"
)

type Watcher struct {
	cfg    config.InboxConfig
	logger *slog.Logger

	mu         sync.Mutex
	firstSeen  map[string]time.Time
	processing map[string]bool
	held       map[string]bool // could not be archived, left alone until removed
	now        func() time.Time
}

// NewWatcher creates the inbox, archive and bad directories if missing.
func NewWatcher(cfg config.InboxConfig, logger *slog.Logger) (*Watcher, error) {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Second
	}
	for _, dir := range []string{cfg.SourceDir, cfg.ArchiveDir, cfg.BadDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("error creating directory %s: %w", dir, err)
		}
	}
	return &Watcher{
		cfg:        cfg,
		logger:     logger.With(slog.String("module", "inbox")),
		firstSeen:  make(map[string]time.Time),
		processing: make(map[string]bool),
		held:       make(map[string]bool),
		now:        time.Now,
	}, nil
}

// Watch sends settled files to out until ctx is done. out is closed on
// return. Without inotify support the ticker alone drives discovery.
func (w *Watcher) Watch(ctx context.Context, out chan<- string) {
	defer close(out)
	w.logger.Info("start monitoring folder", "dir", w.cfg.SourceDir)

	var (
		events <-chan fsnotify.Event
		errs   <-chan error
	)
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		w.logger.Warn("falling back to polling", "error", err)
	} else {
		defer fsw.Close()
		if err := fsw.Add(w.cfg.SourceDir); err != nil {
			w.logger.Warn("falling back to polling", "dir", w.cfg.SourceDir, "error", err)
		} else {
			events, errs = fsw.Events, fsw.Errors
		}
	}

	ticker := time.NewTicker(w.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("file watcher stopped")
			return
		case event, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) != 0 {
				w.Touch(event.Name)
			}
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			w.logger.Error("watcher error", "error", err)
		case <-ticker.C:
			ready, err := w.Scan()
			if err != nil {
				w.logger.Error("error while reading source directory", "error", err)
				continue
			}
			for _, path := range ready {
				select {
				case out <- path:
				case <-ctx.Done():
					return
				}
			}
		}
	}
}

// Touch restarts the settle clock of a file that was created or written.
func (w *Watcher) Touch(path string) {
	if info, err := os.Stat(path); err != nil || info.IsDir() {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.processing[path] || w.held[path] {
		return
	}
	w.firstSeen[path] = w.now()
}

// Scan records newly seen files and returns those unchanged for longer than
// the settle time. Returned files are marked in flight until
// Done is called for them.
func (w *Watcher) Scan() ([]string, error) {
	entries, err := os.ReadDir(w.cfg.SourceDir)
	if err != nil {
		return nil, err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.now()
	present := make(map[string]bool, len(entries))
	var ready []string

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(w.cfg.SourceDir, entry.Name())
		present[path] = true

		if w.processing[path] || w.held[path] {
			continue
		}
		seen, ok := w.firstSeen[path]
		if !ok {
			w.firstSeen[path] = now
			w.logger.Debug("new file detected", "file", path)
			continue
		}
		if now.Sub(seen) < w.cfg.Settle {
			continue
		}
		w.processing[path] = true
		ready = append(ready, path)
	}

	for path := range w.firstSeen {
		if !present[path] {
			delete(w.firstSeen, path)
			delete(w.processing, path)
		}
	}
	for path := range w.held {
		if !present[path] {
			delete(w.held, path)
		}
	}
	return ready, nil
}

// Done forgets a file once it has been handled.
func (w *Watcher) Done(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.processing, path)
	delete(w.firstSeen, path)
}

// Hold keeps a file that is still in the inbox from being handed out again.
// It is released once the file disappears from the folder.
func (w *Watcher) Hold(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.processing, path)
	delete(w.firstSeen, path)
	w.held[path] = true
}

// Archive moves a handled file into a dated folder under the archive or
// bad directory and returns its new path. Name clashes get a numeric suffix.
func (w *Watcher) Archive(path string, failed bool) (string, error) {
	root := w.cfg.ArchiveDir
	if failed {
		root = w.cfg.BadDir
	}

	destDir := filepath.Join(root, w.now().Format("2006-01-02"))
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", fmt.Errorf("error creating directory: %w", err)
	}

	base := filepath.Base(path)
	ext := filepath.Ext(base)
	name := strings.TrimSuffix(base, ext)
	dest := filepath.Join(destDir, base)
	for i := 1; ; i++ {
		if _, err := os.Stat(dest); os.IsNotExist(err) {
			break
		}
		dest = filepath.Join(destDir, fmt.Sprintf("%s_%d%s", name, i, ext))
	}

	if err := os.Rename(path, dest); err != nil {
		// rename fails across devices
		if err := copyFile(path, dest); err != nil {
			return "", fmt.Errorf("error moving file to archive: %w", err)
		}
		if err := os.Remove(path); err != nil {
			return "", err
		}
	}
	return dest, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
