// Package discovery finds test modules under a set of root
// directories. Subdirectories are walked concurrently and every
// file is offered to a chain of loaders; a file that fails to
// load is logged and skipped without aborting its siblings.
package discovery

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"digital.vasic.jester/pkg/logging"
	"digital.vasic.jester/pkg/suite"
)

// Option configures a Discoverer.
type Option func(*Discoverer)

// WithLoaders sets the loader chain. The first loader whose
// Match accepts a file loads it.
func WithLoaders(loaders ...Loader) Option {
	return func(d *Discoverer) { d.loaders = loaders }
}

// WithLogger sets the logger used for skipped entries and
// import failures.
func WithLogger(logger logging.Logger) Option {
	return func(d *Discoverer) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// Discoverer walks directory trees and loads test modules.
type Discoverer struct {
	loaders []Loader
	logger  logging.Logger
}

// New creates a Discoverer. Without WithLoaders it finds
// nothing.
func New(opts ...Option) *Discoverer {
	d := &Discoverer{logger: logging.NullLogger{}}
	for _, o := range opts {
		o(d)
	}
	return d
}

// Discover returns every module found under roots, skipping
// directories at or below any path in excludes. A root that
// does not exist or is not a directory is a fatal error;
// everything else is logged and skipped. Overlapping roots
// yield duplicate modules.
func (d *Discoverer) Discover(
	ctx context.Context,
	roots []string,
	excludes []string,
) ([]*suite.Module, error) {
	for _, root := range roots {
		info, err := os.Stat(root)
		if err != nil {
			return nil, fmt.Errorf("test directory %s: %w", root, err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("test directory %s: not a directory", root)
		}
	}

	w := &walk{
		d:        d,
		ctx:      ctx,
		excludes: absPaths(excludes),
	}
	for _, root := range roots {
		w.wg.Add(1)
		go w.dir(root)
	}
	w.wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("discovery interrupted: %w", err)
	}
	return w.modules, nil
}

// walk is the state of one Discover call.
type walk struct {
	d        *Discoverer
	ctx      context.Context
	excludes []string
	wg       sync.WaitGroup

	mu      sync.Mutex
	modules []*suite.Module
}

func (w *walk) dir(path string) {
	defer w.wg.Done()

	if w.ctx.Err() != nil {
		return
	}
	if w.excluded(path) {
		w.d.logger.Debug("excluded directory", logging.PathField(path))
		return
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		w.d.logger.Error("cannot read directory",
			logging.PathField(path), logging.ErrorField(err))
		return
	}

	for _, entry := range entries {
		full := filepath.Join(path, entry.Name())
		info, err := os.Lstat(full)
		if err != nil {
			w.d.logger.Error("cannot stat entry",
				logging.PathField(full), logging.ErrorField(err))
			continue
		}
		if info.Mode()&os.ModeSymlink != 0 {
			target, err := os.Stat(full)
			if err != nil {
				w.d.logger.Error("cannot stat entry",
					logging.PathField(full), logging.ErrorField(err))
				continue
			}
			if target.IsDir() {
				w.d.logger.Debug("not following directory symlink",
					logging.PathField(full))
				continue
			}
			info = target
		}

		if info.IsDir() {
			w.wg.Add(1)
			go w.dir(full)
			continue
		}
		w.file(full)
	}
}

func (w *walk) file(path string) {
	loader := w.d.loaderFor(path)
	if loader == nil {
		w.d.logger.Debug("ignoring file", logging.PathField(path))
		return
	}

	m, err := loader.Load(w.ctx, path)
	switch {
	case errors.Is(err, ErrNotModule):
		w.d.logger.Debug("not a test module", logging.PathField(path))
		return
	case err != nil:
		w.d.logger.Error("failed to import test module",
			logging.PathField(path), logging.ErrorField(err))
		return
	}

	m.WithPath(path)
	w.mu.Lock()
	w.modules = append(w.modules, m)
	w.mu.Unlock()
}

func (w *walk) excluded(path string) bool {
	if len(w.excludes) == 0 {
		return false
	}
	abs, err := resolvePath(path)
	if err != nil {
		return false
	}
	for _, ex := range w.excludes {
		if abs == ex || strings.HasPrefix(abs, ex+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

func (d *Discoverer) loaderFor(path string) Loader {
	for _, l := range d.loaders {
		if l.Match(path) {
			return l
		}
	}
	return nil
}

func absPaths(paths []string) []string {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if p == "" {
			continue
		}
		abs, err := resolvePath(p)
		if err != nil {
			continue
		}
		out = append(out, abs)
	}
	return out
}

// resolvePath makes path absolute and resolves symlinks when it
// can, so a linked root and its target compare equal. Paths that
// do not exist stay lexical.
func resolvePath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved, nil
	}
	return filepath.Clean(abs), nil
}
