//go:build linux || darwin

package svscan

import (
	"context"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"vawter.tech/stopper"
)

// Watch monitors the scan directory and emits a notification whenever its
// contents change, so a driver can trigger an immediate pass instead of
// waiting for the next tick. Bursts of filesystem events are coalesced
// with a debounce; the channel carries at most one pending notification.
//
// The returned cleanup function stops the watch goroutine and closes the
// channel. The watch also stops when ctx is cancelled.
func (s *Scanner) Watch(ctx context.Context) (<-chan struct{}, WatchCleanupFunc, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, nil, &OpError{Op: OpWatch, Path: s.dir, Err: err}
	}

	if err := watcher.Add(s.dir); err != nil {
		_ = watcher.Close()
		return nil, nil, &OpError{Op: OpWatch, Path: s.dir, Err: err}
	}

	ch := make(chan struct{}, 1)

	// Create stopper context for managing goroutine lifecycle
	sctx := stopper.WithContext(ctx)

	sctx.Defer(func() {
		_ = watcher.Close()
		close(ch)
	})

	var mu sync.Mutex
	var debouncer *time.Timer

	notify := func() {
		if sctx.IsStopping() {
			return
		}
		select {
		case ch <- struct{}{}:
		default:
			// a notification is already pending
		}
	}

	cleanup := func() error {
		sctx.Stop(100 * time.Millisecond)
		return sctx.Wait()
	}

	sctx.Go(func(sctx *stopper.Context) error {
		sctx.Defer(func() {
			mu.Lock()
			if debouncer != nil {
				debouncer.Stop()
			}
			mu.Unlock()
		})

		for !sctx.IsStopping() {
			select {
			case <-sctx.Stopping():
				return nil

			case _, ok := <-watcher.Events:
				if !ok {
					return nil
				}
				mu.Lock()
				if debouncer != nil {
					debouncer.Stop()
				}
				debouncer = time.AfterFunc(s.watchDebounce, notify)
				mu.Unlock()

			case err, ok := <-watcher.Errors:
				if !ok {
					return nil
				}
				if err != nil {
					s.log.Error("watch error", "dir", s.dir, "err", err)
				}
			}
		}
		return nil
	})

	return ch, cleanup, nil
}
