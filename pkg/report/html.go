package report

import (
	"bytes"
	"fmt"
	"io"
	"sync"

	"github.com/gomarkdown/markdown"
	mdhtml "github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"digital.vasic.jester/pkg/logging"
)

// HTMLReporter collects markdown output in memory and renders
// it as a complete HTML page on Close. ERROR-channel messages
// still go straight to the error stream.
type HTMLReporter struct {
	*MarkdownReporter

	title string
	buf   *bytes.Buffer
	out   io.Writer
	once  *sync.Once
}

// NewHTMLReporter creates an HTML reporter writing the page to
// out when closed.
func NewHTMLReporter(
	out, errOut io.Writer,
	gate logging.Gate,
	title string,
) *HTMLReporter {
	buf := &bytes.Buffer{}
	console := logging.NewConsoleLoggerTo(buf, errOut, gate, false)
	return &HTMLReporter{
		MarkdownReporter: NewMarkdownReporter(console),
		title:            title,
		buf:              buf,
		out:              out,
		once:             &sync.Once{},
	}
}

// WithFields returns an HTML reporter sharing the same page.
func (r *HTMLReporter) WithFields(fields ...logging.Field) logging.Logger {
	child, _ := r.MarkdownReporter.WithFields(fields...).(*MarkdownReporter)
	return &HTMLReporter{
		MarkdownReporter: child,
		title:            r.title,
		buf:              r.buf,
		out:              r.out,
		once:             r.once,
	}
}

// Close renders the collected markdown and writes the page.
// Subsequent calls are no-ops.
func (r *HTMLReporter) Close() error {
	var err error
	r.once.Do(func() {
		page := RenderHTML(r.title, r.buf.Bytes())
		if _, werr := r.out.Write(page); werr != nil {
			err = fmt.Errorf("failed to write HTML report: %w", werr)
		}
	})
	return err
}

// RenderHTML converts markdown into a standalone HTML page.
func RenderHTML(title string, md []byte) []byte {
	p := parser.NewWithExtensions(
		parser.CommonExtensions | parser.AutoHeadingIDs,
	)
	renderer := mdhtml.NewRenderer(mdhtml.RendererOptions{
		Title: title,
		Flags: mdhtml.CommonFlags | mdhtml.CompletePage,
	})
	return markdown.ToHTML(md, p, renderer)
}
