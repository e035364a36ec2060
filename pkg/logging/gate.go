package logging

import (
	"fmt"
	"strconv"
	"strings"
)

// Channel is a bit set of output channels. A message is sent
// on one or more channels; a sink enables a set of them.
type Channel uint8

const (
	// ChannelError carries failures of the runner itself.
	ChannelError Channel = 1 << iota
	// ChannelWarn carries recoverable problems.
	ChannelWarn
	// ChannelInfo carries regular output, including results.
	ChannelInfo
	// ChannelDebug carries diagnostics.
	ChannelDebug
)

// ChannelAll enables every channel.
const ChannelAll = ChannelError | ChannelWarn | ChannelInfo |
	ChannelDebug

// DefaultChannels enables everything except DEBUG.
const DefaultChannels = ChannelError | ChannelWarn | ChannelInfo

// Level is a bit set of output granularities.
type Level uint8

const (
	// LevelOverall is the run summary.
	LevelOverall Level = 1 << iota
	// LevelModule is module heads and module summaries.
	LevelModule
	// LevelAssertion is individual assertion results.
	LevelAssertion
	// LevelGeneral is free-form log messages.
	LevelGeneral
)

// LevelAll enables every level.
const LevelAll = LevelOverall | LevelModule | LevelAssertion |
	LevelGeneral

var channelNames = []struct {
	bit  Channel
	name string
}{
	{ChannelError, "ERROR"},
	{ChannelWarn, "WARN"},
	{ChannelInfo, "INFO"},
	{ChannelDebug, "DEBUG"},
}

var levelNames = []struct {
	bit  Level
	name string
}{
	{LevelOverall, "OVERALL"},
	{LevelModule, "MODULE"},
	{LevelAssertion, "ASSERTION"},
	{LevelGeneral, "GENERAL"},
}

// Has reports whether any bit of other is set in c.
func (c Channel) Has(other Channel) bool {
	return c&other != 0
}

// String returns the channel names joined by commas.
func (c Channel) String() string {
	var parts []string
	for _, n := range channelNames {
		if c&n.bit != 0 {
			parts = append(parts, n.name)
		}
	}
	if len(parts) == 0 {
		return "NONE"
	}
	return strings.Join(parts, ",")
}

// Has reports whether any bit of other is set in l.
func (l Level) Has(other Level) bool {
	return l&other != 0
}

// String returns the level names joined by commas.
func (l Level) String() string {
	var parts []string
	for _, n := range levelNames {
		if l&n.bit != 0 {
			parts = append(parts, n.name)
		}
	}
	if len(parts) == 0 {
		return "NONE"
	}
	return strings.Join(parts, ",")
}

// Gate decides whether a message is emitted. Both axes must
// intersect the enabled sets.
type Gate struct {
	Channels Channel
	Levels   Level
}

// DefaultGate returns the default gate: every level, all
// channels except DEBUG.
func DefaultGate() Gate {
	return Gate{Channels: DefaultChannels, Levels: LevelAll}
}

// Allows reports whether a message on channel ch at level lvl
// passes the gate.
func (g Gate) Allows(ch Channel, lvl Level) bool {
	return g.Channels&ch != 0 && g.Levels&lvl != 0
}

// String describes the gate for diagnostics.
func (g Gate) String() string {
	return fmt.Sprintf(
		"channels=%04b(%s) levels=%04b(%s)",
		uint8(g.Channels), g.Channels,
		uint8(g.Levels), g.Levels,
	)
}

// ParseChannels parses a channel set given either as a binary
// mask ("0111", least significant bit is ERROR) or as a comma
// separated list of names ("error,warn").
func ParseChannels(s string) (Channel, error) {
	v, err := parseMask(s, func(name string) (uint8, bool) {
		for _, n := range channelNames {
			if n.name == name {
				return uint8(n.bit), true
			}
		}
		return 0, false
	})
	if err != nil {
		return 0, fmt.Errorf("invalid channels %q: %w", s, err)
	}
	return Channel(v), nil
}

// ParseLevels parses a level set given either as a binary mask
// ("1111", least significant bit is OVERALL) or as a comma
// separated list of names ("overall,module").
func ParseLevels(s string) (Level, error) {
	v, err := parseMask(s, func(name string) (uint8, bool) {
		for _, n := range levelNames {
			if n.name == name {
				return uint8(n.bit), true
			}
		}
		return 0, false
	})
	if err != nil {
		return 0, fmt.Errorf("invalid levels %q: %w", s, err)
	}
	return Level(v), nil
}

func parseMask(
	s string, lookup func(string) (uint8, bool),
) (uint8, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty mask")
	}
	if strings.Trim(s, "01") == "" {
		v, err := strconv.ParseUint(s, 2, 8)
		if err != nil {
			return 0, err
		}
		if v > 0xF {
			return 0, fmt.Errorf("mask out of range 0..1111")
		}
		return uint8(v), nil
	}
	var mask uint8
	for _, part := range strings.Split(s, ",") {
		name := strings.ToUpper(strings.TrimSpace(part))
		if name == "ALL" {
			mask |= 0xF
			continue
		}
		bit, ok := lookup(name)
		if !ok {
			return 0, fmt.Errorf("unknown name %q", part)
		}
		mask |= bit
	}
	return mask, nil
}
