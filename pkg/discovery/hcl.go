package discovery

import (
	"fmt"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/gocty"

	"digital.vasic.jester/pkg/httpclient"
	"digital.vasic.jester/pkg/probe"
)

type hclDocument struct {
	ID         string            `hcl:"id,optional"`
	Run        string            `hcl:"run,optional"`
	Env        map[string]string `hcl:"env,optional"`
	Assertions []hclAssertion    `hcl:"assertion,block"`
}

type hclAssertion struct {
	Description string     `hcl:"description,label"`
	Skip        bool       `hcl:"skip,optional"`
	Timeout     string     `hcl:"timeout,optional"`
	Expect      string     `hcl:"expect,optional"`
	Type        string     `hcl:"type,optional"`
	Value       cty.Value  `hcl:"value,optional"`
	Values      cty.Value  `hcl:"values,optional"`
	Message     string     `hcl:"message,optional"`
	Target      string     `hcl:"target,optional"`
	Source      *hclSource `hcl:"source,block"`
	All         []hclCheck `hcl:"all,block"`
	Any         []hclCheck `hcl:"any,block"`
}

// hclCheck is one all or any block. Repeated blocks form the
// group.
type hclCheck struct {
	Expect  string    `hcl:"expect,optional"`
	Type    string    `hcl:"type,optional"`
	Value   cty.Value `hcl:"value,optional"`
	Values  cty.Value `hcl:"values,optional"`
	Message string    `hcl:"message,optional"`
	Target  string    `hcl:"target,optional"`
}

type hclSource struct {
	Literal cty.Value `hcl:"literal,optional"`
	Command string    `hcl:"command,optional"`
	File    string    `hcl:"file,optional"`
	Env     string    `hcl:"env,optional"`
	HTTP    *hclHTTP  `hcl:"http,block"`
}

type hclHTTP struct {
	URL     string            `hcl:"url"`
	Method  string            `hcl:"method,optional"`
	Headers map[string]string `hcl:"headers,optional"`
	Body    string            `hcl:"body,optional"`
}

func parseHCL(data []byte) (*Document, error) {
	file, diags := hclparse.NewParser().ParseHCL(data, "document.hcl")
	if diags.HasErrors() {
		return nil, fmt.Errorf("parse hcl: %w", diags)
	}

	var raw hclDocument
	if diags := gohcl.DecodeBody(file.Body, nil, &raw); diags.HasErrors() {
		return nil, fmt.Errorf("decode hcl: %w", diags)
	}

	doc := &Document{ID: raw.ID, Run: raw.Run, Env: raw.Env}
	for _, a := range raw.Assertions {
		spec, err := a.spec()
		if err != nil {
			return nil, fmt.Errorf("assertion %q: %w", a.Description, err)
		}
		doc.Assertions = append(doc.Assertions, spec)
	}
	return doc, nil
}

func (a hclAssertion) spec() (AssertionSpec, error) {
	spec := AssertionSpec{
		Description: a.Description,
		Skip:        a.Skip,
		Timeout:     a.Timeout,
		Expect:      a.Expect,
		Type:        a.Type,
		Message:     a.Message,
		Target:      a.Target,
	}

	var err error
	if spec.Value, spec.Values, err = ctyValues(a.Value, a.Values); err != nil {
		return spec, err
	}
	if spec.All, err = hclChecks(a.All); err != nil {
		return spec, fmt.Errorf("all: %w", err)
	}
	if spec.Any, err = hclChecks(a.Any); err != nil {
		return spec, fmt.Errorf("any: %w", err)
	}

	if a.Source != nil {
		literal, err := ctyToNative(a.Source.Literal)
		if err != nil {
			return spec, fmt.Errorf("source literal: %w", err)
		}
		spec.Source = &probe.Source{
			Literal: literal,
			Command: a.Source.Command,
			File:    a.Source.File,
			Env:     a.Source.Env,
		}
		if h := a.Source.HTTP; h != nil {
			spec.Source.HTTP = &httpclient.Request{
				URL:     h.URL,
				Method:  h.Method,
				Headers: h.Headers,
				Body:    h.Body,
			}
		}
	}
	return spec, nil
}

func hclChecks(blocks []hclCheck) ([]CheckSpec, error) {
	if len(blocks) == 0 {
		return nil, nil
	}
	checks := make([]CheckSpec, 0, len(blocks))
	for i, b := range blocks {
		value, values, err := ctyValues(b.Value, b.Values)
		if err != nil {
			return nil, fmt.Errorf("[%d]: %w", i, err)
		}
		checks = append(checks, CheckSpec{
			Expect:  b.Expect,
			Type:    b.Type,
			Value:   value,
			Values:  values,
			Message: b.Message,
			Target:  b.Target,
		})
	}
	return checks, nil
}

func ctyValues(value, values cty.Value) (any, []any, error) {
	v, err := ctyToNative(value)
	if err != nil {
		return nil, nil, fmt.Errorf("value: %w", err)
	}
	vs, err := ctyToNative(values)
	if err != nil {
		return nil, nil, fmt.Errorf("values: %w", err)
	}
	if vs == nil {
		return v, nil, nil
	}
	list, ok := vs.([]any)
	if !ok {
		return nil, nil, fmt.Errorf("values: expected a list")
	}
	return v, list, nil
}

// ctyToNative converts a cty value into plain Go values. Null
// and absent values become nil; numbers become float64.
func ctyToNative(v cty.Value) (any, error) {
	if v.IsNull() || !v.IsKnown() {
		return nil, nil
	}

	ty := v.Type()
	switch {
	case ty == cty.String:
		return v.AsString(), nil
	case ty == cty.Number:
		var f float64
		if err := gocty.FromCtyValue(v, &f); err != nil {
			return nil, err
		}
		return f, nil
	case ty == cty.Bool:
		return v.True(), nil
	case ty.IsListType() || ty.IsTupleType() || ty.IsSetType():
		out := make([]any, 0, v.LengthInt())
		for it := v.ElementIterator(); it.Next(); {
			_, el := it.Element()
			n, err := ctyToNative(el)
			if err != nil {
				return nil, err
			}
			out = append(out, n)
		}
		return out, nil
	case ty.IsObjectType() || ty.IsMapType():
		out := make(map[string]any)
		for it := v.ElementIterator(); it.Next(); {
			k, el := it.Element()
			n, err := ctyToNative(el)
			if err != nil {
				return nil, fmt.Errorf("in %s: %w", k.AsString(), err)
			}
			out[k.AsString()] = n
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported type %s", ty.FriendlyName())
	}
}
