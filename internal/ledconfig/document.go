package ledconfig

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Format is the encoding of a configuration document.
type Format int

const (
	// FormatAuto detects JSON by a leading '{' or '[' and falls back to YAML.
	FormatAuto Format = iota
	// FormatJSON is a JSON document.
	FormatJSON
	// FormatYAML is a YAML document.
	FormatYAML
	// FormatTOML is a TOML document.
	FormatTOML
)

// String returns the format name.
func (f Format) String() string {
	switch f {
	case FormatJSON:
		return "json"
	case FormatYAML:
		return "yaml"
	case FormatTOML:
		return "toml"
	default:
		return "auto"
	}
}

// ParseFormat maps a format name to a Format. An empty name or "auto" is FormatAuto.
func ParseFormat(name string) (Format, bool) {
	switch strings.ToLower(name) {
	case "", "auto":
		return FormatAuto, true
	case "json":
		return FormatJSON, true
	case "yaml", "yml":
		return FormatYAML, true
	case "toml":
		return FormatTOML, true
	default:
		return FormatAuto, false
	}
}

// FormatFromPath picks a format from the file extension.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON
	case ".yaml", ".yml":
		return FormatYAML
	case ".toml":
		return FormatTOML
	default:
		return FormatAuto
	}
}

// Document is a well-formed configuration document awaiting schema decoding.
//
// Every format is normalised into one YAML node tree, so schema keys are
// matched exactly regardless of the source encoding.
type Document struct {
	Source string
	Format Format
	tree   yaml.Node
}

// ReadDocument reads the configuration at path.
func ReadDocument(path string) (*Document, error) {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() || info.Size() == 0 {
		return nil, ErrNotFound
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParse, err)
	}

	return ParseDocument(data, FormatFromPath(path), path)
}

// ParseDocument checks that data is a well-formed mapping in the given format.
func ParseDocument(data []byte, format Format, source string) (*Document, error) {
	if len(data) == 0 {
		return nil, ErrNotFound
	}

	if format == FormatAuto {
		format = sniffFormat(data)
	}

	doc := &Document{Source: source, Format: format}
	if err := doc.build(data); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParse, err)
	}

	var probe map[string]any
	if err := doc.Decode(&probe); err != nil {
		return nil, err
	}
	if probe == nil {
		// "null" or a YAML document with no content
		return nil, fmt.Errorf("%w: document is not an object", ErrParse)
	}

	return doc, nil
}

// build parses data in the document's format into the node tree.
func (d *Document) build(data []byte) error {
	var value any
	switch d.Format {
	case FormatYAML:
		return yaml.Unmarshal(data, &d.tree)
	case FormatTOML:
		var table map[string]any
		if err := toml.Unmarshal(data, &table); err != nil {
			return err
		}
		value = table
	default:
		v, err := decodeJSON(data)
		if err != nil {
			return err
		}
		value = v
	}
	return d.tree.Encode(value)
}

// Decode unmarshals the document into v. Decoder failures are ErrParse.
func (d *Document) Decode(v any) error {
	if err := d.tree.Decode(v); err != nil {
		return fmt.Errorf("%w: %w", ErrParse, err)
	}
	return nil
}

// decodeJSON decodes a single JSON value, keeping integers as int64.
func decodeJSON(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("unexpected data after top-level JSON value")
	}
	return normalizeJSON(v), nil
}

func normalizeJSON(v any) any {
	switch val := v.(type) {
	case json.Number:
		if i, err := val.Int64(); err == nil {
			return i
		}
		if f, err := val.Float64(); err == nil {
			return f
		}
		return val.String()
	case map[string]any:
		for k, item := range val {
			val[k] = normalizeJSON(item)
		}
	case []any:
		for i, item := range val {
			val[i] = normalizeJSON(item)
		}
	}
	return v
}

func sniffFormat(data []byte) Format {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[') {
		return FormatJSON
	}
	return FormatYAML
}
