package coverage

import "errors"

// ErrDisabled is returned by Noop.Collect.
var ErrDisabled = errors.New("coverage disabled")

// Noop is a Collector that never produces a profile.
type Noop struct{}

// Start does nothing.
func (Noop) Start() error { return nil }

// Collect returns ErrDisabled.
func (Noop) Collect() (*Profile, error) { return nil, ErrDisabled }

// Write returns ErrDisabled.
func (Noop) Write(*Profile, string) (string, error) { return "", ErrDisabled }
