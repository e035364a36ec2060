package discovery

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"digital.vasic.jester/pkg/registry"
	"digital.vasic.jester/pkg/report"
	"digital.vasic.jester/pkg/suite"
)

func validate(t *testing.T, reg registry.Registry, name, content string) []ValidationError {
	t.Helper()
	path := writeFile(t, filepath.Join(t.TempDir(), name), content)
	return NewDocumentLoader(reg, nil, nil, nil).Validate(path)
}

func TestDocumentLoader_Validate_Clean(t *testing.T) {
	errs := validate(t, registry.NewRegistry(), "ok.yaml", literalDoc)
	assert.Empty(t, errs)
	assert.False(t, HasErrors(errs))
}

func TestDocumentLoader_Validate_CollectsAll(t *testing.T) {
	errs := validate(t, registry.NewRegistry(), "bad.yaml", `
assertions:
  - expect: bogus:1
  - description: dup
    expect: equals:1
    timeout: later
    source: {literal: 1, command: "true"}
  - description: dup
    expect: equals:1
    source: {literal: 1}
`)
	var fields []string
	for _, e := range errs {
		fields = append(fields, e.Error())
	}
	assert.Contains(t, fields, "assertions[0].description: description is required")
	assert.Contains(t, fields, `assertions[0].type: unknown check type "bogus"`)
	assert.Contains(t, fields, "assertions[0].source: source is required")
	assert.Contains(t, fields, "assertions[1].timeout: timeout: time: invalid duration \"later\"")
	assert.Contains(t, fields,
		"assertions[1].source: source sets more than one of literal, command, http, file, env")
	assert.Contains(t, fields,
		"assertions[2].description: duplicate of assertions[1], the later definition wins")
	assert.True(t, HasErrors(errs))
}

func TestDocumentLoader_Validate_DuplicateIsWarning(t *testing.T) {
	errs := validate(t, registry.NewRegistry(), "dup.yaml", `
assertions:
  - description: same
    expect: not_empty
    source: {literal: a}
  - description: same
    expect: not_empty
    source: {literal: b}
`)
	assert.Len(t, errs, 1)
	assert.True(t, errs[0].Warning)
	assert.False(t, HasErrors(errs))
}

func TestDocumentLoader_Validate_Run(t *testing.T) {
	errs := validate(t, registry.NewRegistry(), "run.yaml", "run: missing\n")
	assert.Len(t, errs, 1)
	assert.Equal(t, "run", errs[0].Field)

	reg := registry.NewRegistry()
	reg.MustRegister("present", func(context.Context, *suite.Status, report.Reporter) error {
		return nil
	})
	errs = validate(t, reg, "run.yaml", literalDoc+"run: present\n")
	assert.Len(t, errs, 1)
	assert.True(t, errs[0].Warning)
}

func TestDocumentLoader_Validate_ParseError(t *testing.T) {
	errs := validate(t, registry.NewRegistry(), "x.json", "{")
	assert.Len(t, errs, 1)
	assert.Equal(t, "json", errs[0].Field)
	assert.Equal(t, -1, errs[0].Index)
}

func TestDocumentLoader_Validate_Empty(t *testing.T) {
	errs := validate(t, registry.NewRegistry(), "e.yaml", "id: x\n")
	assert.Len(t, errs, 1)
	assert.Contains(t, errs[0].Message, "neither run nor assertions")
}

func TestValidateFile_Unsupported(t *testing.T) {
	errs := ValidateFile(filepath.Join(t.TempDir(), "x.txt"))
	assert.Len(t, errs, 1)
	assert.Equal(t, "file", errs[0].Field)
}
