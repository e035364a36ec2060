package discovery

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ValidationError is one problem found in a document. Warnings
// describe documents that load but probably not as intended.
type ValidationError struct {
	Field   string
	Message string
	Index   int // -1 if not applicable
	Warning bool
}

func (e ValidationError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("assertions[%d].%s: %s", e.Index, e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// HasErrors reports whether errs contains anything other than
// warnings.
func HasErrors(errs []ValidationError) bool {
	for _, e := range errs {
		if !e.Warning {
			return true
		}
	}
	return false
}

// ValidateFile checks a document with the default registry and
// evaluator set.
func ValidateFile(path string) []ValidationError {
	return NewDocumentLoader(nil, nil, nil, nil).Validate(path)
}

// Validate checks the document in path without running it and
// returns every problem found.
func (l *DocumentLoader) Validate(path string) []ValidationError {
	if !l.Match(path) {
		return []ValidationError{{
			Field:   "file",
			Message: fmt.Sprintf("unsupported document type %q", filepath.Ext(path)),
			Index:   -1,
		}}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return []ValidationError{{Field: "file", Message: err.Error(), Index: -1}}
	}
	doc, err := ParseDocument(path, data)
	if err != nil {
		format := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
		return []ValidationError{{Field: format, Message: err.Error(), Index: -1}}
	}

	var errs []ValidationError

	if doc.Run != "" {
		if !l.registry.Has(doc.Run) {
			errs = append(errs, ValidationError{
				Field:   "run",
				Message: fmt.Sprintf("unknown procedure %q", doc.Run),
				Index:   -1,
			})
		}
		if len(doc.Assertions) > 0 {
			errs = append(errs, ValidationError{
				Field: "assertions",
				Message: fmt.Sprintf(
					"run takes precedence, %d assertions ignored",
					len(doc.Assertions),
				),
				Index:   -1,
				Warning: true,
			})
		}
		return errs
	}

	if len(doc.Assertions) == 0 {
		return []ValidationError{{
			Field:   "assertions",
			Message: "document declares neither run nor assertions",
			Index:   -1,
		}}
	}

	seen := make(map[string]int)
	for i, a := range doc.Assertions {
		errs = append(errs, l.validateAssertion(i, a)...)
		if a.Description == "" {
			continue
		}
		if first, dup := seen[a.Description]; dup {
			errs = append(errs, ValidationError{
				Field: "description",
				Message: fmt.Sprintf(
					"duplicate of assertions[%d], the later definition wins",
					first,
				),
				Index:   i,
				Warning: true,
			})
			continue
		}
		seen[a.Description] = i
	}
	return errs
}

func (l *DocumentLoader) validateAssertion(i int, a AssertionSpec) []ValidationError {
	var errs []ValidationError
	add := func(field, msg string) {
		errs = append(errs, ValidationError{Field: field, Message: msg, Index: i})
	}

	if a.Description == "" {
		add("description", "description is required")
	}
	_, defs, err := a.Definitions()
	if err != nil {
		add("type", err.Error())
	}
	for _, def := range defs {
		if !l.engine.HasEvaluator(def.Type) {
			add("type", fmt.Sprintf("unknown check type %q", def.Type))
		}
	}
	if a.Source == nil {
		add("source", "source is required")
	} else if err := a.Source.Validate(); err != nil {
		add("source", err.Error())
	}
	if _, err := a.TimeoutDuration(); err != nil {
		add("timeout", err.Error())
	}
	return errs
}
