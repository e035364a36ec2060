package discovery

import (
	"context"
	"errors"

	"digital.vasic.jester/pkg/suite"
)

// ErrNotModule is returned by a loader for a file it accepts
// but which defines neither a procedure nor assertions.
var ErrNotModule = errors.New("not a test module")

// Loader imports one kind of test file.
type Loader interface {
	// Match reports whether the loader handles path.
	Match(path string) bool

	// Load imports path. It returns ErrNotModule when the file
	// has no module shape and any other error when it cannot be
	// read or parsed.
	Load(ctx context.Context, path string) (*suite.Module, error)
}
