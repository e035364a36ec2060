package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/robfig/cron/v3"

	"digital.vasic.jester/pkg/logging"
	"digital.vasic.jester/pkg/runner"
)

// watchDebounce collapses bursts of file events, such as an
// editor's write-and-rename, into one run.
const watchDebounce = 300 * time.Millisecond

// watch runs once, then again after every change under the
// test directories, until ctx ends.
func (s *session) watch(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return runner.NewRuntimeError(fmt.Errorf("create watcher: %w", err))
	}
	defer w.Close()

	for _, root := range s.cfg.TestDirs {
		if err := s.watchTree(w, root); err != nil {
			return runner.NewRuntimeError(err)
		}
	}

	s.runLogged(ctx)

	var (
		timer   *time.Timer
		trigger <-chan time.Time
	)
	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Has(fsnotify.Create) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					if err := s.watchTree(w, ev.Name); err != nil {
						s.reporter.Warn("cannot watch directory",
							logging.PathField(ev.Name), logging.ErrorField(err))
					}
				}
			}
			if !ev.Has(fsnotify.Write | fsnotify.Create | fsnotify.Remove | fsnotify.Rename) {
				continue
			}
			s.reporter.Debug("change detected",
				logging.PathField(ev.Name),
				logging.StringField("op", ev.Op.String()))
			if timer == nil {
				timer = time.NewTimer(watchDebounce)
			} else {
				timer.Reset(watchDebounce)
			}
			trigger = timer.C

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			s.reporter.Error("watch error", logging.ErrorField(err))

		case <-trigger:
			trigger = nil
			s.runLogged(ctx)
		}
	}
}

// watchTree adds root and every directory below it that is
// not excluded.
func (s *session) watchTree(w *fsnotify.Watcher, root string) error {
	excluded := make(map[string]bool, len(s.cfg.Excludes))
	for _, x := range s.cfg.Excludes {
		if abs, err := filepath.Abs(x); err == nil {
			excluded[abs] = true
		}
	}
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if abs, err := filepath.Abs(path); err == nil && excluded[abs] {
			return filepath.SkipDir
		}
		if err := w.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
}

// schedule runs on the configured cron spec until ctx ends.
// A run still in progress when the next one is due is skipped.
func (s *session) schedule(ctx context.Context) error {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := c.AddFunc(s.cfg.Schedule, func() { s.runLogged(ctx) }); err != nil {
		return runner.NewRuntimeError(fmt.Errorf("schedule %q: %w", s.cfg.Schedule, err))
	}

	s.reporter.Info("scheduled", logging.StringField("spec", s.cfg.Schedule))
	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()
	return nil
}

// runLogged runs once in a long-lived mode, where a failed
// run is reported and the loop continues.
func (s *session) runLogged(ctx context.Context) {
	summary, err := s.runOnce(ctx)
	switch {
	case err != nil && !errors.Is(err, context.Canceled):
		s.reporter.Error("run failed", logging.ErrorField(err))
	case summary != nil:
		s.reporter.Debug("run finished",
			logging.StringField("run_id", summary.RunID),
			logging.IntField("failed_modules", summary.ModulesFailed))
	}
}
