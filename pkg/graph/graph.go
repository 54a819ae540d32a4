package graph

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	techerrors "github.com/matzehuels/techtree/pkg/errors"
)

// =============================================================================
// Tree Serialization API
// =============================================================================

// FormatFromPath picks the tree format from a file extension. Anything other
// than .toml, .yaml or .yml is read as JSON.
func FormatFromPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML
	case ".yaml", ".yml":
		return FormatYAML
	}
	return FormatJSON
}

// ReadTreeFile reads a tree file, detecting the format from its extension.
func ReadTreeFile(path string) (*Tree, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, techerrors.Wrap(techerrors.ErrCodeFileNotFound, err, "tree file %s", path)
		}
		return nil, techerrors.Wrap(techerrors.ErrCodeInternal, err, "open %s", path)
	}
	defer f.Close()
	return ReadTree(f, FormatFromPath(path))
}

// WriteTreeFile writes t to path in the format its extension names.
func WriteTreeFile(path string, t *Tree) error {
	data, err := MarshalTree(t, FormatFromPath(path))
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return techerrors.Wrap(techerrors.ErrCodeInternal, err, "write %s", path)
	}
	return nil
}

// ReadTree decodes a tree in the given format. Unknown fields are rejected
// in every format.
func ReadTree(r io.Reader, format string) (*Tree, error) {
	var t Tree
	switch format {
	case FormatJSON:
		dec := json.NewDecoder(r)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&t); err != nil {
			return nil, techerrors.Wrap(techerrors.ErrCodeInvalidFormat, err, "decode json")
		}
	case FormatTOML:
		md, err := toml.NewDecoder(r).Decode(&t)
		if err != nil {
			return nil, techerrors.Wrap(techerrors.ErrCodeInvalidFormat, err, "decode toml")
		}
		if und := md.Undecoded(); len(und) > 0 {
			return nil, techerrors.New(techerrors.ErrCodeInvalidFormat, "decode toml: unknown field %q", und[0].String())
		}
	case FormatYAML:
		dec := yaml.NewDecoder(r)
		dec.KnownFields(true)
		if err := dec.Decode(&t); err != nil && !errors.Is(err, io.EOF) {
			return nil, techerrors.Wrap(techerrors.ErrCodeInvalidFormat, err, "decode yaml")
		}
	default:
		return nil, techerrors.New(techerrors.ErrCodeUnsupported, "tree format %q", format)
	}
	return &t, nil
}

// WriteTree encodes t in the given format. JSON output is indented.
func WriteTree(w io.Writer, t *Tree, format string) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, t)
	case FormatTOML:
		if err := toml.NewEncoder(w).Encode(t); err != nil {
			return techerrors.Wrap(techerrors.ErrCodeInternal, err, "encode toml")
		}
		return nil
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(t); err != nil {
			return techerrors.Wrap(techerrors.ErrCodeInternal, err, "encode yaml")
		}
		return enc.Close()
	}
	return techerrors.New(techerrors.ErrCodeUnsupported, "tree format %q", format)
}

// MarshalTree is WriteTree into a byte slice.
func MarshalTree(t *Tree, format string) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteTree(&buf, t, format); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteJSON writes v as indented JSON. Used for snapshots and layouts.
func WriteJSON(w io.Writer, v any) error {
	return writeJSON(w, v)
}

// =============================================================================
// Internal Implementation
// =============================================================================

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return techerrors.Wrap(techerrors.ErrCodeInternal, err, "encode json")
	}
	return nil
}
