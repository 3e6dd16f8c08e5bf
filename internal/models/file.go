// Package models contains domain types for the Brickify web client.
package models

import (
	"bytes"
	"encoding/json"
	"io"
)

// SelectedFile is a user-chosen file between selection and handoff to the
// submission handler. It is never persisted.
type SelectedFile struct {
	Name        string
	ContentType string // declared media type, e.g. "image/png"
	Size        int64
	Content     io.Reader
}

// NewSelectedFile wraps an in-memory payload.
func NewSelectedFile(name, contentType string, data []byte) SelectedFile {
	return SelectedFile{
		Name:        name,
		ContentType: contentType,
		Size:        int64(len(data)),
		Content:     bytes.NewReader(data),
	}
}

// AnalysisResult is the backend's analysis payload. Its shape is owned by
// the backend and is displayed verbatim.
type AnalysisResult json.RawMessage

// MarshalJSON returns the raw payload.
func (r AnalysisResult) MarshalJSON() ([]byte, error) {
	if len(r) == 0 {
		return []byte("null"), nil
	}
	return r, nil
}

// Pretty returns the payload indented with two spaces, or the raw text if
// it is not valid JSON.
func (r AnalysisResult) Pretty() string {
	var buf bytes.Buffer
	if err := json.Indent(&buf, r, "", "  "); err != nil {
		return string(r)
	}
	return buf.String()
}

// Decode unmarshals the payload into a generic value, used for encodings
// other than JSON.
func (r AnalysisResult) Decode() (interface{}, error) {
	var v interface{}
	if err := json.Unmarshal(r, &v); err != nil {
		return nil, err
	}
	return v, nil
}
