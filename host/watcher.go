package host

import (
	"context"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/go-faster/errors"
	"github.com/viant/afs"
	"go.uber.org/zap"

	"github.com/blurstudio/maxdap/logger"
)

// Watcher waits for the completion signal file that the injected run harness
// creates when the debugged script returns.
type Watcher struct {
	path    string
	watcher *fsnotify.Watcher
	fs      afs.Service
	done    chan struct{}
	once    sync.Once
}

// WatchSignal starts watching for the signal file at path. A stale file left
// over from a previous session is removed first so it cannot end the new
// session immediately.
func WatchSignal(ctx context.Context, path string) (*Watcher, error) {
	fs := afs.New()
	if ok, _ := fs.Exists(ctx, path); ok {
		if err := fs.Delete(ctx, path); err != nil {
			return nil, errors.Wrapf(err, "failed to remove stale signal file %v", path)
		}
	}
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create signal watcher")
	}
	if err := fsWatcher.Add(filepath.Dir(path)); err != nil {
		_ = fsWatcher.Close()
		return nil, errors.Wrapf(err, "failed to watch %v", filepath.Dir(path))
	}
	ret := &Watcher{
		path:    path,
		watcher: fsWatcher,
		fs:      fs,
		done:    make(chan struct{}),
	}
	go ret.watch(ctx)
	return ret, nil
}

func (w *Watcher) watch(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Name != w.path {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			_ = w.fs.Delete(ctx, w.path)
			w.once.Do(func() { close(w.done) })
			return
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logger.Get(ctx).Warn("signal watcher error", zap.Error(err))
		}
	}
}

// Done is closed once the completion signal has been observed.
func (w *Watcher) Done() <-chan struct{} {
	return w.done
}

// Close stops watching.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}
