package infra

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const checkExecInterval = 5 * time.Second

// ExecutableWatcher reports when the running binary is replaced on disk, so
// that a supervisor can restart the process with the new build.
type ExecutableWatcher struct {
	interval time.Duration
	path     string
	changed  chan struct{}
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	logger   *log.Entry
}

func NewExecutableWatcher() *ExecutableWatcher {
	return &ExecutableWatcher{
		interval: checkExecInterval,
		changed:  make(chan struct{}, 1),
		logger:   log.WithField("object", "ExecutableWatcher"),
	}
}

// Changed is signalled once, on the first modification seen.
func (w *ExecutableWatcher) Changed() <-chan struct{} {
	return w.changed
}

func (w *ExecutableWatcher) Start(_ context.Context) error {
	if w.path == "" {
		path, err := os.Executable()
		if err != nil {
			return errors.Wrap(err, "resolve executable")
		}
		w.path = path
	}
	stat, err := os.Stat(w.path)
	if err != nil {
		return errors.Wrap(err, "stat executable")
	}
	original := stat.ModTime()

	ctx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				stat, err := os.Stat(w.path)
				if err != nil {
					w.logger.WithError(err).Warn("cant stat executable")
					continue
				}
				if !original.Equal(stat.ModTime()) {
					w.logger.WithField("path", w.path).Warn("executable was modified")
					w.changed <- struct{}{}
					return
				}
			}
		}
	}()
	return nil
}

func (w *ExecutableWatcher) Stop(_ context.Context) error {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
	return nil
}
