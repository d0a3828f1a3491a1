package report

import (
	"encoding/json"
	"io"

	"github.com/seo-optimizer/tagcheck/analyzer"
)

// JSONWriter writes entries as an indented JSON array.
type JSONWriter struct {
	output io.Writer
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer) *JSONWriter {
	return &JSONWriter{output: output}
}

type jsonEntry struct {
	URL    string           `json:"url"`
	Result *analyzer.Result `json:"result,omitempty"`
	Error  string           `json:"error,omitempty"`
	Kind   string           `json:"kind,omitempty"`
}

// Write encodes entries. Failed entries carry the error message and kind.
func (w *JSONWriter) Write(entries []Entry) error {
	out := make([]jsonEntry, len(entries))
	for i, e := range entries {
		out[i] = jsonEntry{URL: e.URL, Result: e.Result}
		if e.Err != nil {
			out[i].Error = e.Err.Error()
			out[i].Kind = analyzer.KindOf(e.Err).String()
		}
	}

	enc := json.NewEncoder(w.output)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
