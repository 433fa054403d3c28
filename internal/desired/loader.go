package desired

import (
	"bytes"
	"compress/bzip2"
	"compress/gzip"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ulikunitz/xz"
	"gopkg.in/yaml.v3"

	"github.com/netzarbeiter/pluginmgmt/internal/security"
)

// maxPluginListSize caps the decompressed size of a plugin list.
const maxPluginListSize = 16 * 1024 * 1024

// Format is the serialisation of a plugin list.
type Format int

const (
	// FormatJSON is a JSON object of plugin objects.
	FormatJSON Format = iota

	// FormatYAML is a YAML mapping of plugin mappings.
	FormatYAML
)

func (f Format) String() string {
	if f == FormatYAML {
		return "yaml"
	}
	return "json"
}

// Compression is the compression wrapped around a plugin list file.
type Compression int

const (
	CompressionNone Compression = iota
	CompressionGzip
	CompressionXz
	CompressionBzip2
)

// DetectFormat derives format and compression from the file name.
// Unknown extensions are read as uncompressed JSON.
func DetectFormat(path string) (Format, Compression) {
	name := strings.ToLower(filepath.Base(path))

	compression := CompressionNone
	switch {
	case strings.HasSuffix(name, ".gz"):
		compression = CompressionGzip
		name = strings.TrimSuffix(name, ".gz")
	case strings.HasSuffix(name, ".xz"):
		compression = CompressionXz
		name = strings.TrimSuffix(name, ".xz")
	case strings.HasSuffix(name, ".bz2"):
		compression = CompressionBzip2
		name = strings.TrimSuffix(name, ".bz2")
	}

	switch filepath.Ext(name) {
	case ".yaml", ".yml":
		return FormatYAML, compression
	default:
		return FormatJSON, compression
	}
}

// Load reads, decompresses, parses and validates the plugin list at path.
func Load(path string) (*State, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", ErrFileNotFound, path)
	}

	data, err := os.ReadFile(path) // #nosec G304 - plugin list path is supplied by the operator
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrFileNotFound, path, err)
	}

	format, compression := DetectFormat(path)

	data, err = decompress(data, compression)
	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}

	return parse(path, data, format)
}

// Parse parses and validates an in-memory plugin list.
func Parse(data []byte, format Format) (*State, error) {
	return parse("", data, format)
}

func parse(path string, data []byte, format Format) (*State, error) {
	var (
		doc   []byte
		order []string
		err   error
	)

	switch format {
	case FormatYAML:
		doc, order, err = yamlDocument(data)
	default:
		doc = data
		order, err = jsonKeyOrder(data)
	}
	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}

	if err := validate(path, doc); err != nil {
		return nil, err
	}

	var entries map[string]Spec
	if err := json.Unmarshal(doc, &entries); err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}

	if len(entries) != len(order) {
		return nil, &ParseError{Path: path, Err: fmt.Errorf("found %d plugins, expected %d", len(entries), len(order))}
	}

	specs := make([]Spec, 0, len(order))
	for _, name := range order {
		spec, ok := entries[name]
		if !ok {
			return nil, &ParseError{Path: path, Err: fmt.Errorf("plugin %q has no entry", name)}
		}
		spec.Name = name
		specs = append(specs, spec)
	}

	state, err := NewState(specs...)
	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	return state, nil
}

// jsonKeyOrder returns the keys of the top-level JSON object in document order.
func jsonKeyOrder(data []byte) ([]string, error) {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("empty document")
		}
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("top level must be an object of plugins")
	}

	var keys []string
	seen := make(map[string]bool)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected token %v", tok)
		}
		if seen[key] {
			return nil, fmt.Errorf("duplicate plugin %q", key)
		}
		seen[key] = true
		keys = append(keys, key)

		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, err
		}
	}

	// Closing brace.
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("unexpected data after top-level object")
	}

	return keys, nil
}

// yamlDocument converts a YAML plugin list to JSON and returns its keys in document order.
func yamlDocument(data []byte) ([]byte, []string, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, nil, err
	}
	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 {
		return nil, nil, fmt.Errorf("empty document")
	}

	top := root.Content[0]
	if top.Kind != yaml.MappingNode {
		return nil, nil, fmt.Errorf("top level must be a mapping of plugins")
	}

	var keys []string
	seen := make(map[string]bool)
	for i := 0; i < len(top.Content); i += 2 {
		node := top.Content[i]
		if node.Kind != yaml.ScalarNode {
			return nil, nil, fmt.Errorf("line %d: plugin name must be a scalar", node.Line)
		}
		if node.ShortTag() == "!!merge" {
			return nil, nil, fmt.Errorf("line %d: merge keys are not supported at the top level", node.Line)
		}
		key := node.Value
		if seen[key] {
			return nil, nil, fmt.Errorf("line %d: duplicate plugin %q", node.Line, key)
		}
		seen[key] = true
		keys = append(keys, key)
	}

	var v map[string]any
	if err := top.Decode(&v); err != nil {
		return nil, nil, err
	}
	doc, err := json.Marshal(v)
	if err != nil {
		return nil, nil, err
	}
	return doc, keys, nil
}

func decompress(data []byte, compression Compression) ([]byte, error) {
	var r io.Reader
	switch compression {
	case CompressionGzip:
		gzr, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("failed to create gzip reader: %w", err)
		}
		defer gzr.Close()
		r = gzr
	case CompressionXz:
		xzr, err := xz.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("failed to create xz reader: %w", err)
		}
		r = xzr
	case CompressionBzip2:
		r = bzip2.NewReader(bytes.NewReader(data))
	default:
		return data, nil
	}

	out, err := io.ReadAll(security.NewLimitedReader(r, maxPluginListSize))
	if err != nil {
		return nil, fmt.Errorf("failed to decompress plugin list: %w", err)
	}
	return out, nil
}
