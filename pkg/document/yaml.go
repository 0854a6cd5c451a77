package document

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"
)

// yamlIndent is the nesting indentation of serialized yaml documents.
const yamlIndent = 2

// yamlDoc edits a yaml node tree, which keeps key order and comments.
type yamlDoc struct {
	root yaml.Node
}

func parseYAML(data []byte) (Document, error) {
	d := &yamlDoc{}
	if err := yaml.Unmarshal(data, &d.root); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if d.root.Kind != yaml.DocumentNode || len(d.root.Content) == 0 {
		return nil, fmt.Errorf("%w: empty yaml document", ErrInvalid)
	}
	if resolve(d.root.Content[0]).Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: root is not a mapping", ErrInvalid)
	}
	if err := checkYAMLKeys(d.root.Content[0], nil); err != nil {
		return nil, err
	}
	return d, nil
}

// Format returns FormatYAML.
func (d *yamlDoc) Format() Format { return FormatYAML }

// Keys returns mapping keys at path in document order.
func (d *yamlDoc) Keys(path ...string) ([]string, bool) {
	n := d.lookup(path)
	if n == nil || n.Kind != yaml.MappingNode {
		return nil, false
	}
	keys := make([]string, 0, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		keys = append(keys, n.Content[i].Value)
	}
	return keys, true
}

// Get returns the value at path.
func (d *yamlDoc) Get(path ...string) (Value, bool) {
	n := d.lookup(path)
	if n == nil {
		return Value{}, false
	}

	v := Value{Raw: n.Value}
	switch n.Kind {
	case yaml.MappingNode:
		v.Kind = KindObject
		v.Len = len(n.Content) / 2
		v.Raw = "{...}"
	case yaml.SequenceNode:
		v.Kind = KindArray
		v.Len = len(n.Content)
		v.Raw = "[...]"
	case yaml.ScalarNode:
		switch n.ShortTag() {
		case "!!null":
			v.Kind = KindNull
		case "!!bool":
			v.Kind = KindBool
			_ = n.Decode(&v.Bool)
		case "!!int", "!!float":
			v.Kind = KindNumber
			if err := n.Decode(&v.Num); err != nil {
				v.Num, _ = strconv.ParseFloat(n.Value, 64)
			}
		default:
			v.Kind = KindString
			v.Str = n.Value
		}
	default:
		v.Kind = KindNull
	}
	return v, true
}

// SetString sets a string value at path, creating missing parent mappings.
func (d *yamlDoc) SetString(val string, path ...string) error {
	return d.set(&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: val}, path)
}

// SetBool sets a boolean value at path, creating missing parent mappings.
func (d *yamlDoc) SetBool(val bool, path ...string) error {
	return d.set(&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: strconv.FormatBool(val)}, path)
}

// Delete removes the key at path. missing paths are ignored.
func (d *yamlDoc) Delete(path ...string) error {
	if len(path) == 0 {
		return errors.New("delete: empty path")
	}
	parent := d.lookup(path[:len(path)-1])
	if parent == nil || parent.Kind != yaml.MappingNode {
		return nil
	}
	key := path[len(path)-1]
	for i := 0; i+1 < len(parent.Content); i += 2 {
		if parent.Content[i].Value == key {
			parent.Content = append(parent.Content[:i], parent.Content[i+2:]...)
			return nil
		}
	}
	return nil
}

// Bytes encodes the node tree with two-space indentation.
func (d *yamlDoc) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(yamlIndent)
	if err := enc.Encode(&d.root); err != nil {
		return nil, fmt.Errorf("encode yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("close yaml encoder: %w", err)
	}
	return buf.Bytes(), nil
}

func (d *yamlDoc) set(val *yaml.Node, path []string) error {
	if len(path) == 0 {
		return errors.New("set: empty path")
	}

	n := resolve(d.root.Content[0])
	for i, key := range path {
		if n.Kind != yaml.MappingNode {
			return fmt.Errorf("%w: %s is not an object", ErrInvalid, pathString(path[:i]))
		}
		last := i == len(path)-1
		idx := mappingIndex(n, key)

		if idx < 0 {
			next := val
			if !last {
				next = &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
			}
			n.Content = append(n.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key}, next)
			n = next
			continue
		}

		old := n.Content[idx+1]
		if last {
			val.HeadComment, val.LineComment, val.FootComment = old.HeadComment, old.LineComment, old.FootComment
			n.Content[idx+1] = val
			return nil
		}
		if isNull(resolve(old)) {
			n.Content[idx+1] = &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map",
				HeadComment: old.HeadComment, LineComment: old.LineComment, FootComment: old.FootComment}
		}
		n = resolve(n.Content[idx+1])
	}
	return nil
}

// lookup finds the node at path, following aliases. returns nil if missing.
func (d *yamlDoc) lookup(path []string) *yaml.Node {
	n := resolve(d.root.Content[0])
	for _, key := range path {
		if n.Kind != yaml.MappingNode {
			return nil
		}
		idx := mappingIndex(n, key)
		if idx < 0 {
			return nil
		}
		n = resolve(n.Content[idx+1])
	}
	return n
}

// mappingIndex returns the content index of key in mapping n, or -1.
func mappingIndex(n *yaml.Node, key string) int {
	for i := 0; i+1 < len(n.Content); i += 2 {
		if n.Content[i].Value == key {
			return i
		}
	}
	return -1
}

// checkYAMLKeys rejects mappings with repeated keys, aliases are not followed.
func checkYAMLKeys(n *yaml.Node, path []string) error {
	switch n.Kind {
	case yaml.MappingNode:
		seen := map[string]bool{}
		for i := 0; i+1 < len(n.Content); i += 2 {
			key := n.Content[i].Value
			if seen[key] {
				return duplicateKeyError(key, path)
			}
			seen[key] = true
			if err := checkYAMLKeys(n.Content[i+1], append(path[:len(path):len(path)], key)); err != nil {
				return err
			}
		}
	case yaml.SequenceNode:
		for i, c := range n.Content {
			if err := checkYAMLKeys(c, append(path[:len(path):len(path)], strconv.Itoa(i))); err != nil {
				return err
			}
		}
	}
	return nil
}

func isNull(n *yaml.Node) bool {
	return n != nil && n.Kind == yaml.ScalarNode && n.ShortTag() == "!!null"
}

func resolve(n *yaml.Node) *yaml.Node {
	for n != nil && n.Kind == yaml.AliasNode && n.Alias != nil {
		n = n.Alias
	}
	return n
}
