package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce coalesces the event bursts a file copy produces before a
// new batch starts.
const DefaultDebounce = 2 * time.Second

// Watch processes the directory once, then keeps watching it and re-runs a
// batch whenever eligible files appear or change. Each batch re-lists the
// directory, so files renamed by an earlier pass are naturally skipped.
// Blocks until ctx is cancelled; per-file failures never stop the watch.
func (p *Pipeline) Watch(ctx context.Context, debounce time.Duration) error {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	// Registered before the first batch: a file dropped in while that batch
	// runs still produces an event for the loop below.
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("start watcher: %w", err)
	}
	defer w.Close()
	if err := w.Add(p.cfg.Dir); err != nil {
		return fmt.Errorf("watch %s: %w", p.cfg.Dir, err)
	}

	if _, err := p.Run(ctx); err != nil {
		return err
	}
	p.logger.Info("watching directory", "path", p.cfg.Dir, "debounce", debounce)

	var (
		timer  *time.Timer
		timerC <-chan time.Time
	)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case e, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !eligibleName(filepath.Base(e.Name)) {
				continue
			}
			// Arrivals only. A move into the directory shows up as Create;
			// Rename means a path left, which is what our own renames emit.
			if e.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			// Restart the window; the batch runs only once writes settle.
			if timer != nil {
				timer.Stop()
			}
			timer = time.NewTimer(debounce)
			timerC = timer.C

		case <-timerC:
			timerC = nil
			if _, err := p.Run(ctx); err != nil {
				return err
			}

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			p.logger.Error("watcher error", "error", err)
		}
	}
}
