package graph

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// =============================================================================
// Model Serialization API
// =============================================================================

// MarshalModel converts a Model to indented JSON bytes.
func MarshalModel(m *Model) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeModelTo(m, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteModel writes a Model as JSON to an io.Writer.
func WriteModel(m *Model, w io.Writer) error {
	return writeModelTo(m, w)
}

// WriteModelFile writes a Model to a JSON file.
func WriteModelFile(m *Model, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return writeModelTo(m, f)
}

// ReadModel decodes a JSON model. Edges whose endpoints are missing are
// dropped and counted, as Build would.
func ReadModel(r io.Reader) (*Model, error) {
	return readModelFrom(r)
}

// ReadModelFile reads a JSON model file.
func ReadModelFile(path string) (*Model, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return readModelFrom(f)
}

// =============================================================================
// Internal Implementation
// =============================================================================

func writeModelTo(m *Model, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(m); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

func readModelFrom(r io.Reader) (*Model, error) {
	var m Model
	if err := json.NewDecoder(r).Decode(&m); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	m.reindex()

	kept := m.Edges[:0]
	for _, e := range m.Edges {
		_, srcOK := m.index[e.Source]
		_, dstOK := m.index[e.Target]
		if !srcOK || !dstOK {
			m.DroppedEdges++
			continue
		}
		kept = append(kept, e)
	}
	m.Edges = kept
	return &m, nil
}
