// Package probe observes the values that declarative test
// modules assert on: literals, command output, HTTP responses,
// file contents, and environment variables.
package probe

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"digital.vasic.jester/pkg/assertion"
	"digital.vasic.jester/pkg/httpclient"
	"digital.vasic.jester/pkg/logging"
)

// Source selects where a value comes from. Exactly one field
// should be set.
type Source struct {
	Literal any                 `json:"literal,omitempty" yaml:"literal,omitempty" toml:"literal"`
	Command string              `json:"command,omitempty" yaml:"command,omitempty" toml:"command"`
	HTTP    *httpclient.Request `json:"http,omitempty" yaml:"http,omitempty" toml:"http"`
	File    string              `json:"file,omitempty" yaml:"file,omitempty" toml:"file"`
	Env     string              `json:"env,omitempty" yaml:"env,omitempty" toml:"env"`
}

// Kind names the populated field of a source.
func (s Source) Kind() string {
	switch {
	case s.Command != "":
		return "command"
	case s.HTTP != nil:
		return "http"
	case s.File != "":
		return "file"
	case s.Env != "":
		return "env"
	case s.Literal != nil:
		return "literal"
	default:
		return ""
	}
}

// Validate checks that exactly one field is set.
func (s Source) Validate() error {
	set := 0
	if s.Literal != nil {
		set++
	}
	if s.Command != "" {
		set++
	}
	if s.HTTP != nil {
		set++
		if s.HTTP.URL == "" {
			return errors.New("http source has no url")
		}
	}
	if s.File != "" {
		set++
	}
	if s.Env != "" {
		set++
	}
	switch set {
	case 0:
		return errors.New("source has no literal, command, http, file, or env")
	case 1:
		return nil
	default:
		return errors.New("source sets more than one of literal, command, http, file, env")
	}
}

// DefaultTarget is the observation key used when an assertion
// names none.
func (s Source) DefaultTarget() string {
	switch s.Kind() {
	case "command":
		return "stdout"
	case "http":
		return "body"
	case "file":
		return "content"
	default:
		return "value"
	}
}

// Observation maps target names to observed values.
type Observation map[string]any

// Option configures a Prober.
type Option func(*Prober)

// Prober turns sources into observations.
type Prober struct {
	client  *httpclient.Client
	environ []string
	vars    map[string]string
	baseDir string
	shell   string
	logger  logging.Logger
}

// NewProber creates a prober. Without options it uses a
// default HTTP client, the process environment, bash, and the
// current directory.
func NewProber(opts ...Option) *Prober {
	p := &Prober{
		client: httpclient.NewClient(),
		shell:  "bash",
		logger: logging.NullLogger{},
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// WithHTTPClient sets the client used by http sources.
func WithHTTPClient(c *httpclient.Client) Option {
	return func(p *Prober) { p.client = c }
}

// WithEnviron sets the environment of command sources and the
// lookup table of env sources, in KEY=VALUE form.
func WithEnviron(environ []string) Option {
	return func(p *Prober) { p.environ = environ }
}

// WithShell sets the shell that runs command sources.
func WithShell(shell string) Option {
	return func(p *Prober) { p.shell = shell }
}

// WithLogger sets the diagnostics logger.
func WithLogger(logger logging.Logger) Option {
	return func(p *Prober) { p.logger = logger }
}

// Scoped returns a copy of p resolving relative paths against
// baseDir and adding vars to the environment.
func (p *Prober) Scoped(baseDir string, vars map[string]string) *Prober {
	cp := *p
	cp.baseDir = baseDir
	cp.vars = make(map[string]string, len(p.vars)+len(vars))
	for k, v := range p.vars {
		cp.vars[k] = v
	}
	for k, v := range vars {
		cp.vars[k] = v
	}
	return &cp
}

// Fetch returns an assertion fetch that observes src and picks
// target, or the source's default target when empty.
func (p *Prober) Fetch(src Source, target string) assertion.Fetch {
	if target == "" {
		target = src.DefaultTarget()
	}
	return func(ctx context.Context) (any, error) {
		obs, err := p.Observe(ctx, src)
		if err != nil {
			return nil, err
		}
		return obs.Lookup(target)
	}
}

// FetchTargets returns a fetch that observes src once and picks
// every target from that single observation. Empty targets use
// the source's default target.
func (p *Prober) FetchTargets(src Source, targets []string) assertion.FetchValues {
	return func(ctx context.Context) (map[string]any, error) {
		obs, err := p.Observe(ctx, src)
		if err != nil {
			return nil, err
		}
		values := make(map[string]any, len(targets))
		for _, target := range targets {
			if target == "" {
				target = src.DefaultTarget()
			}
			if v, err := obs.Lookup(target); err == nil {
				values[target] = v
			}
		}
		return values, nil
	}
}

// Observe evaluates src once.
func (p *Prober) Observe(ctx context.Context, src Source) (Observation, error) {
	if err := src.Validate(); err != nil {
		return nil, err
	}
	switch src.Kind() {
	case "command":
		return p.command(ctx, src.Command)
	case "http":
		return p.http(ctx, *src.HTTP)
	case "file":
		return p.file(src.File)
	case "env":
		v, ok := p.lookupEnv(src.Env)
		return Observation{"value": v, "set": ok}, nil
	default:
		return Observation{"value": src.Literal}, nil
	}
}

func (p *Prober) command(ctx context.Context, script string) (Observation, error) {
	cmd := exec.CommandContext(ctx, p.shell, "-c", script)
	cmd.WaitDelay = 2 * time.Second
	cmd.Dir = p.baseDir
	cmd.Env = p.commandEnv()

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	p.logger.Debug("command probe", logging.StringField("command", script))

	start := time.Now()
	err := cmd.Run()
	latency := time.Since(start)

	exitCode := 0
	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) || ctx.Err() != nil {
			return nil, fmt.Errorf("run command: %w", err)
		}
		exitCode = exitErr.ExitCode()
	}

	out := strings.TrimSpace(stdout.String())
	return Observation{
		"stdout":     out,
		"stderr":     strings.TrimSpace(stderr.String()),
		"exit_code":  exitCode,
		"latency_ms": latency.Milliseconds(),
		"lines":      splitLines(out),
	}, nil
}

func (p *Prober) http(ctx context.Context, req httpclient.Request) (Observation, error) {
	resp, err := p.client.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	obs := Observation{
		"status":     resp.Status,
		"body":       string(resp.Body),
		"latency_ms": resp.LatencyMs(),
	}
	if v, err := resp.JSON(); err == nil {
		obs["json"] = v
	}
	for k := range resp.Headers {
		obs["header."+strings.ToLower(k)] = resp.Headers.Get(k)
	}
	return obs, nil
}

func (p *Prober) file(path string) (Observation, error) {
	if !filepath.IsAbs(path) && p.baseDir != "" {
		path = filepath.Join(p.baseDir, path)
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return Observation{"exists": false, "content": "", "size": 0}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	content := string(data)
	return Observation{
		"exists":  true,
		"content": content,
		"size":    len(data),
		"lines":   splitLines(strings.TrimSpace(content)),
	}, nil
}

func (p *Prober) commandEnv() []string {
	environ := p.environ
	if environ == nil {
		environ = os.Environ()
	}
	if len(p.vars) == 0 {
		return environ
	}
	out := append([]string(nil), environ...)
	for k, v := range p.vars {
		out = append(out, k+"="+v)
	}
	return out
}

func (p *Prober) lookupEnv(key string) (string, bool) {
	if v, ok := p.vars[key]; ok {
		return v, true
	}
	if p.environ == nil {
		return os.LookupEnv(key)
	}
	prefix := key + "="
	for i := len(p.environ) - 1; i >= 0; i-- {
		if strings.HasPrefix(p.environ[i], prefix) {
			return strings.TrimPrefix(p.environ[i], prefix), true
		}
	}
	return "", false
}

// Lookup resolves target. Besides plain keys, "json.a.0.b"
// walks a decoded JSON body.
func (o Observation) Lookup(target string) (any, error) {
	if v, ok := o[target]; ok {
		return v, nil
	}
	if rest, ok := strings.CutPrefix(target, "json."); ok {
		root, ok := o["json"]
		if !ok {
			return nil, errors.New("response body is not JSON")
		}
		return walkJSON(root, rest)
	}
	if rest, ok := strings.CutPrefix(target, "header."); ok {
		if v, ok := o["header."+strings.ToLower(rest)]; ok {
			return v, nil
		}
		return "", nil
	}
	return nil, fmt.Errorf("unknown target %q", target)
}

func walkJSON(v any, path string) (any, error) {
	for _, part := range strings.Split(path, ".") {
		switch node := v.(type) {
		case map[string]any:
			next, ok := node[part]
			if !ok {
				return nil, fmt.Errorf("json key %q not found", part)
			}
			v = next
		case []any:
			i, err := strconv.Atoi(part)
			if err != nil || i < 0 || i >= len(node) {
				return nil, fmt.Errorf("json index %q out of range", part)
			}
			v = node[i]
		default:
			return nil, fmt.Errorf("json path %q descends into a scalar", part)
		}
	}
	return v, nil
}

func splitLines(s string) []any {
	if s == "" {
		return []any{}
	}
	parts := strings.Split(s, "\n")
	lines := make([]any, len(parts))
	for i, l := range parts {
		lines[i] = l
	}
	return lines
}
