package main

import (
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/urfave/cli/v2"

	"digital.vasic.jester/pkg/discovery"
	"digital.vasic.jester/pkg/runner"
	"digital.vasic.jester/pkg/suite"
)

func listAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return runner.NewRuntimeError(fmt.Errorf("invalid configuration: %w", err))
	}
	s, err := newSession(cfg, c.App.Writer, c.App.ErrWriter)
	if err != nil {
		return runner.NewRuntimeError(err)
	}
	defer s.Close()

	modules, err := s.discover(c.Context)
	if err != nil {
		return err
	}

	t := table.NewWriter()
	t.SetOutputMirror(c.App.Writer)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Module", "Kind", "Assertions", "Path"})
	for _, m := range modules {
		assertions := "-"
		if m.Kind == suite.KindDeclarative {
			assertions = fmt.Sprint(len(m.Assertions))
		}
		t.AppendRow(table.Row{m.ID, m.Kind.String(), assertions, m.Path})
	}
	t.AppendFooter(table.Row{fmt.Sprintf("%d modules", len(modules))})
	t.SortBy([]table.SortBy{{Name: "Module", Mode: table.Asc}})
	t.Render()
	return nil
}

func validateAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return runner.NewRuntimeError(fmt.Errorf("invalid configuration: %w", err))
	}
	s, err := newSession(cfg, c.App.Writer, c.App.ErrWriter)
	if err != nil {
		return runner.NewRuntimeError(err)
	}
	defer s.Close()

	files := c.Args().Slice()
	if len(files) == 0 {
		if files, err = s.documentFiles(); err != nil {
			return runner.NewRuntimeError(err)
		}
	}

	out := c.App.Writer
	invalid := 0
	for _, path := range files {
		errs := s.documents.Validate(path)
		if discovery.HasErrors(errs) {
			invalid++
		}
		if len(errs) == 0 {
			fmt.Fprintf(out, "%s: ok\n", path)
			continue
		}
		for _, e := range errs {
			if e.Warning {
				fmt.Fprintf(out, "%s: warning: %v\n", path, e)
			} else {
				fmt.Fprintf(out, "%s: %v\n", path, e)
			}
		}
	}
	if invalid > 0 {
		return &failuresError{failed: invalid}
	}
	return nil
}

// documentFiles lists every document under the test
// directories, skipping excluded ones.
func (s *session) documentFiles() ([]string, error) {
	excluded := make(map[string]bool, len(s.cfg.Excludes))
	for _, x := range s.cfg.Excludes {
		if abs, err := filepath.Abs(x); err == nil {
			excluded[abs] = true
		}
	}

	var files []string
	for _, root := range s.cfg.TestDirs {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if abs, absErr := filepath.Abs(path); absErr == nil && excluded[abs] {
					return filepath.SkipDir
				}
				return nil
			}
			if s.documents.Match(path) {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("test directory %s: %w", root, err)
		}
	}
	return files, nil
}
