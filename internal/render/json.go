package render

import (
	"encoding/json"
	"io"
)

// JSONRenderer writes results as JSON documents.
type JSONRenderer struct {
	writer io.Writer
	pretty bool
}

// NewJSONRenderer creates a new JSON renderer.
func NewJSONRenderer(w io.Writer, pretty bool) *JSONRenderer {
	return &JSONRenderer{
		writer: w,
		pretty: pretty,
	}
}

// Render encodes v to the underlying writer, newline-terminated.
func (r *JSONRenderer) Render(v any) error {
	var output []byte
	var err error

	if r.pretty {
		output, err = json.MarshalIndent(v, "", "  ")
	} else {
		output, err = json.Marshal(v)
	}
	if err != nil {
		return err
	}

	if _, err = r.writer.Write(output); err != nil {
		return err
	}
	_, err = r.writer.Write([]byte("\n"))
	return err
}
