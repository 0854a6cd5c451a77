// Package document provides load and store of structured configuration documents.
// Documents are accessed by key paths and keep the original key order, so a
// load-modify-save round trip only changes the touched fields.
package document

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// ErrInvalid is returned when a document has an unexpected structure.
var ErrInvalid = errors.New("invalid document")

// Format is a document serialization format.
type Format string

// supported formats
const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// Document is a mutable structured document addressed by key paths.
// path elements are object keys, starting from the document root.
type Document interface {
	Format() Format
	Keys(path ...string) ([]string, bool) // ordered keys of the object at path, false if not an object
	Get(path ...string) (Value, bool)
	SetString(val string, path ...string) error
	SetBool(val bool, path ...string) error
	Delete(path ...string) error
	Bytes() ([]byte, error)
}

// Kind is a value type.
type Kind int

// value kinds
const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindObject
	KindArray
)

// Value is a read-only snapshot of a document value.
type Value struct {
	Kind Kind
	Str  string  // string value for KindString
	Bool bool    // boolean value for KindBool
	Num  float64 // numeric value for KindNumber
	Len  int     // number of elements for KindObject and KindArray
	Raw  string  // source text of the value
}

// Truthy reports whether the value counts as set: true, non-zero numbers,
// non-empty strings and non-empty collections.
func (v Value) Truthy() bool {
	switch v.Kind {
	case KindBool:
		return v.Bool
	case KindNumber:
		return v.Num != 0
	case KindString:
		return v.Str != ""
	case KindObject, KindArray:
		return v.Len > 0
	default:
		return false
	}
}

// String returns the string value, or the raw text for non-string values.
func (v Value) String() string {
	if v.Kind == KindString {
		return v.Str
	}
	return v.Raw
}

// LoadOptions control document parsing.
type LoadOptions struct {
	Format Format // forced format, detected from the path extension if empty
	Repair bool   // repair malformed json (comments, trailing commas) before parsing
}

// FormatFromPath returns the format implied by the file extension, json by default.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// ParseFormat converts a format name to Format. empty name returns empty Format.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "":
		return "", nil
	case "json", "jsonc":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unknown document format %q", name)
	}
}

// Load reads and parses the document at path.
func Load(path string, opts LoadOptions) (Document, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is supplied by the user
	if err != nil {
		return nil, fmt.Errorf("read document %s: %w", path, err)
	}

	format := opts.Format
	if format == "" {
		format = FormatFromPath(path)
	}

	doc, err := Parse(data, format, opts.Repair)
	if err != nil {
		return nil, fmt.Errorf("parse document %s: %w", path, err)
	}
	return doc, nil
}

// Parse parses data in the given format.
func Parse(data []byte, format Format, repair bool) (Document, error) {
	switch format {
	case FormatJSON, "":
		return parseJSON(data, repair)
	case FormatYAML:
		return parseYAML(data)
	default:
		return nil, fmt.Errorf("unknown document format %q", format)
	}
}

// Save serializes doc and writes it to path atomically.
// the file mode of an existing file is kept.
func Save(path string, doc Document) error {
	data, err := doc.Bytes()
	if err != nil {
		return fmt.Errorf("serialize document: %w", err)
	}

	perm := os.FileMode(0o600)
	if fi, statErr := os.Stat(path); statErr == nil {
		perm = fi.Mode().Perm()
	}

	if err := writeFileAtomic(path, data, perm); err != nil {
		return fmt.Errorf("write document %s: %w", path, err)
	}
	return nil
}

// pathString formats a key path for error messages.
func duplicateKeyError(key string, path []string) error {
	if len(path) == 0 {
		return fmt.Errorf("%w: duplicate key %q", ErrInvalid, key)
	}
	return fmt.Errorf("%w: duplicate key %q in %s", ErrInvalid, key, pathString(path))
}

func pathString(path []string) string {
	quoted := make([]string, len(path))
	for i, p := range path {
		quoted[i] = strconv.Quote(p)
	}
	return strings.Join(quoted, ".")
}
