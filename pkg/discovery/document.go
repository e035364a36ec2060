package discovery

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"digital.vasic.jester/pkg/assertion"
	"digital.vasic.jester/pkg/logging"
	"digital.vasic.jester/pkg/probe"
	"digital.vasic.jester/pkg/registry"
	"digital.vasic.jester/pkg/suite"
)

// Document is the on-disk form of a declarative or named
// procedural module. YAML, JSON, and TOML share the field
// names; HCL uses assertion blocks labelled by description.
type Document struct {
	ID         string            `json:"id,omitempty" yaml:"id,omitempty" toml:"id"`
	Run        string            `json:"run,omitempty" yaml:"run,omitempty" toml:"run"`
	Env        map[string]string `json:"env,omitempty" yaml:"env,omitempty" toml:"env"`
	Assertions []AssertionSpec   `json:"assertions,omitempty" yaml:"assertions,omitempty" toml:"assertions"`
}

// AssertionSpec is one entry of a document's assertion list.
// A single check is written inline with expect or type. All and
// Any group several checks against one observation of Source.
type AssertionSpec struct {
	Description string        `json:"description" yaml:"description" toml:"description"`
	Skip        bool          `json:"skip,omitempty" yaml:"skip,omitempty" toml:"skip"`
	Timeout     string        `json:"timeout,omitempty" yaml:"timeout,omitempty" toml:"timeout"`
	Expect      string        `json:"expect,omitempty" yaml:"expect,omitempty" toml:"expect"`
	Type        string        `json:"type,omitempty" yaml:"type,omitempty" toml:"type"`
	Value       any           `json:"value,omitempty" yaml:"value,omitempty" toml:"value"`
	Values      []any         `json:"values,omitempty" yaml:"values,omitempty" toml:"values"`
	Message     string        `json:"message,omitempty" yaml:"message,omitempty" toml:"message"`
	Source      *probe.Source `json:"source,omitempty" yaml:"source,omitempty" toml:"source"`
	Target      string        `json:"target,omitempty" yaml:"target,omitempty" toml:"target"`
	All         []CheckSpec   `json:"all,omitempty" yaml:"all,omitempty" toml:"all"`
	Any         []CheckSpec   `json:"any,omitempty" yaml:"any,omitempty" toml:"any"`
}

// CheckSpec is one check inside an all or any group.
type CheckSpec struct {
	Expect  string `json:"expect,omitempty" yaml:"expect,omitempty" toml:"expect"`
	Type    string `json:"type,omitempty" yaml:"type,omitempty" toml:"type"`
	Value   any    `json:"value,omitempty" yaml:"value,omitempty" toml:"value"`
	Values  []any  `json:"values,omitempty" yaml:"values,omitempty" toml:"values"`
	Message string `json:"message,omitempty" yaml:"message,omitempty" toml:"message"`
	Target  string `json:"target,omitempty" yaml:"target,omitempty" toml:"target"`
}

// Definition returns the evaluator definition of c. The compact
// expect form and the explicit type form are mutually
// exclusive.
func (c CheckSpec) Definition() (assertion.Definition, error) {
	if c.Expect != "" && c.Type != "" {
		return assertion.Definition{}, errors.New(
			"expect and type are mutually exclusive",
		)
	}
	def := assertion.Definition{
		Type:    c.Type,
		Target:  c.Target,
		Value:   c.Value,
		Values:  c.Values,
		Message: c.Message,
	}
	if c.Expect != "" {
		def = assertion.ParseDefinition(c.Expect, c.Target)
		def.Values = c.Values
		def.Message = c.Message
	}
	if def.Type == "" {
		return def, errors.New("no check type: set expect or type")
	}
	return def, nil
}

func (a AssertionSpec) inline() CheckSpec {
	return CheckSpec{
		Expect:  a.Expect,
		Type:    a.Type,
		Value:   a.Value,
		Values:  a.Values,
		Message: a.Message,
		Target:  a.Target,
	}
}

// Definition returns the evaluator definition of the inline
// check of a.
func (a AssertionSpec) Definition() (assertion.Definition, error) {
	return a.inline().Definition()
}

// Definitions returns the checks of a with the way they
// combine. The composite is empty for an inline check. Grouped
// checks without a target inherit the target of a.
func (a AssertionSpec) Definitions() (assertion.Composite, []assertion.Definition, error) {
	var (
		mode   assertion.Composite
		checks []CheckSpec
	)
	switch {
	case a.All != nil && a.Any != nil:
		return "", nil, errors.New("all and any are mutually exclusive")
	case a.All != nil:
		mode, checks = assertion.CompositeAll, a.All
	case a.Any != nil:
		mode, checks = assertion.CompositeAny, a.Any
	default:
		def, err := a.Definition()
		if err != nil {
			return "", nil, err
		}
		return "", []assertion.Definition{def}, nil
	}

	if a.Expect != "" || a.Type != "" {
		return "", nil, fmt.Errorf("%s cannot be combined with an inline check", mode)
	}
	if len(checks) == 0 {
		return "", nil, fmt.Errorf("%s needs at least one check", mode)
	}
	defs := make([]assertion.Definition, 0, len(checks))
	for i, c := range checks {
		if c.Target == "" {
			c.Target = a.Target
		}
		def, err := c.Definition()
		if err != nil {
			return "", nil, fmt.Errorf("%s[%d]: %w", mode, i, err)
		}
		defs = append(defs, def)
	}
	return mode, defs, nil
}

// TimeoutDuration parses the timeout field. Empty means zero.
func (a AssertionSpec) TimeoutDuration() (time.Duration, error) {
	if a.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(a.Timeout)
	if err != nil {
		return 0, fmt.Errorf("timeout: %w", err)
	}
	if d < 0 {
		return 0, fmt.Errorf("timeout: negative duration %s", a.Timeout)
	}
	return d, nil
}

// documentFormats maps file extensions to parsers.
var documentFormats = map[string]func([]byte) (*Document, error){
	".yaml": parseYAML,
	".yml":  parseYAML,
	".json": parseJSON,
	".toml": parseTOML,
	".hcl":  parseHCL,
}

// ParseDocument decodes data according to the extension of
// path. Unknown fields are errors.
func ParseDocument(path string, data []byte) (*Document, error) {
	parse, ok := documentFormats[strings.ToLower(filepath.Ext(path))]
	if !ok {
		return nil, fmt.Errorf("unsupported document type %s", filepath.Ext(path))
	}
	return parse(data)
}

func parseYAML(data []byte) (*Document, error) {
	var doc Document
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return &doc, nil
		}
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	return &doc, nil
}

func parseJSON(data []byte) (*Document, error) {
	var doc Document
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("parse json: %w", err)
	}
	return &doc, nil
}

func parseTOML(data []byte) (*Document, error) {
	var doc Document
	md, err := toml.Decode(string(data), &doc)
	if err != nil {
		return nil, fmt.Errorf("parse toml: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("parse toml: unknown field %s", undecoded[0])
	}
	return &doc, nil
}

// DocumentLoader imports YAML, JSON, TOML, and HCL modules.
type DocumentLoader struct {
	registry registry.Registry
	engine   assertion.Engine
	prober   *probe.Prober
	logger   logging.Logger
}

// NewDocumentLoader creates a document loader. Nil arguments
// fall back to the default registry, a fresh engine, a default
// prober, and a null logger.
func NewDocumentLoader(
	reg registry.Registry,
	engine assertion.Engine,
	prober *probe.Prober,
	logger logging.Logger,
) *DocumentLoader {
	if reg == nil {
		reg = registry.Default
	}
	if engine == nil {
		engine = assertion.NewEngine()
	}
	if prober == nil {
		prober = probe.NewProber()
	}
	if logger == nil {
		logger = logging.NullLogger{}
	}
	return &DocumentLoader{
		registry: reg,
		engine:   engine,
		prober:   prober,
		logger:   logger,
	}
}

// Match accepts the document extensions.
func (l *DocumentLoader) Match(path string) bool {
	_, ok := documentFormats[strings.ToLower(filepath.Ext(path))]
	return ok
}

// Load reads, parses, and builds the module in path.
func (l *DocumentLoader) Load(_ context.Context, path string) (*suite.Module, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	doc, err := ParseDocument(path, data)
	if err != nil {
		return nil, err
	}
	return l.Build(doc, path)
}

// Build turns a parsed document into a module. When a document
// declares both run and assertions, run wins and a warning is
// logged.
func (l *DocumentLoader) Build(doc *Document, path string) (*suite.Module, error) {
	if doc.Run != "" {
		proc, err := l.registry.Get(doc.Run)
		if err != nil {
			return nil, err
		}
		if len(doc.Assertions) > 0 {
			l.logger.Warn("run takes precedence, assertions ignored",
				logging.PathField(path),
				logging.StringField("run", doc.Run),
				logging.IntField("ignored", len(doc.Assertions)))
		}
		return suite.NewProcedural(doc.ID, proc), nil
	}

	if len(doc.Assertions) == 0 {
		return nil, ErrNotModule
	}

	prober := l.prober.Scoped(filepath.Dir(path), doc.Env)
	assertions := make([]suite.Assertion, 0, len(doc.Assertions))
	for i, spec := range doc.Assertions {
		a, err := l.buildAssertion(prober, spec)
		if err != nil {
			return nil, fmt.Errorf("assertions[%d]: %w", i, err)
		}
		assertions = append(assertions, a)
	}
	return suite.NewDeclarative(doc.ID, assertions...), nil
}

func (l *DocumentLoader) buildAssertion(
	prober *probe.Prober,
	spec AssertionSpec,
) (suite.Assertion, error) {
	if spec.Description == "" {
		return suite.Assertion{}, errors.New("description is required")
	}
	mode, defs, err := spec.Definitions()
	if err != nil {
		return suite.Assertion{}, err
	}
	for _, def := range defs {
		if !l.engine.HasEvaluator(def.Type) {
			return suite.Assertion{}, fmt.Errorf("unknown check type %q", def.Type)
		}
	}
	if spec.Source == nil {
		return suite.Assertion{}, errors.New("source is required")
	}
	if err := spec.Source.Validate(); err != nil {
		return suite.Assertion{}, err
	}
	timeout, err := spec.TimeoutDuration()
	if err != nil {
		return suite.Assertion{}, err
	}

	targets := make([]string, len(defs))
	for i := range defs {
		if defs[i].Target == "" {
			defs[i].Target = spec.Source.DefaultTarget()
		}
		targets[i] = defs[i].Target
	}
	var check suite.Check
	if mode == "" {
		check = assertion.CheckFromDefinition(
			l.engine, defs[0], prober.Fetch(*spec.Source, defs[0].Target),
		)
	} else {
		check = assertion.CompositeCheck(
			l.engine, mode, defs, prober.FetchTargets(*spec.Source, targets),
		)
	}
	return suite.Assertion{
		Description: spec.Description,
		Check:       check,
		Skip:    spec.Skip,
		Timeout: timeout,
	}, nil
}
