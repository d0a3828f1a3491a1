// Package report renders analysis results for the command line.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/seo-optimizer/tagcheck/analyzer"
)

// Format names an output format.
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatJSON     Format = "json"
)

// ParseFormat accepts "markdown", "md" or "json", case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "markdown", "md":
		return FormatMarkdown, nil
	case "json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unsupported format %q (want markdown or json)", s)
	}
}

// Entry is the outcome of analyzing one URL. Exactly one of Result and Err is set.
type Entry struct {
	URL    string
	Result *analyzer.Result
	Err    error
}

// Writer writes a batch of entries, in order.
type Writer interface {
	Write(entries []Entry) error
}

// New returns the writer for format.
func New(format Format, output io.Writer) (Writer, error) {
	switch format {
	case FormatMarkdown:
		return NewMarkdownWriter(output), nil
	case FormatJSON:
		return NewJSONWriter(output), nil
	default:
		return nil, fmt.Errorf("unsupported format %q", format)
	}
}
