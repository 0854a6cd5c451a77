package document

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/kaptinlin/jsonrepair"
	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"
)

// jsonIndent is the nesting indentation of serialized json documents.
const jsonIndent = "  "

// jsonDoc keeps the raw json text and edits it in place, so untouched keys keep their order.
type jsonDoc struct {
	data []byte
}

// parseJSON validates data and wraps it as a Document.
// with repair set, malformed input is passed through jsonrepair first.
func parseJSON(data []byte, repair bool) (Document, error) {
	if repair && !gjson.ValidBytes(data) {
		fixed, err := jsonrepair.JSONRepair(string(data))
		if err != nil {
			return nil, fmt.Errorf("repair json: %w", err)
		}
		data = []byte(fixed)
	}

	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%w: malformed json", ErrInvalid)
	}
	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return nil, fmt.Errorf("%w: root is not an object", ErrInvalid)
	}
	if err := checkJSONKeys(root, nil); err != nil {
		return nil, err
	}

	buf := make([]byte, len(data))
	copy(buf, data)
	return &jsonDoc{data: buf}, nil
}

// Format returns FormatJSON.
func (d *jsonDoc) Format() Format { return FormatJSON }

// Keys returns object keys at path in document order.
func (d *jsonDoc) Keys(path ...string) ([]string, bool) {
	res := d.result(path)
	if !res.IsObject() {
		return nil, false
	}
	keys := []string{}
	res.ForEach(func(key, _ gjson.Result) bool {
		keys = append(keys, key.String())
		return true
	})
	return keys, true
}

// Get returns the value at path.
func (d *jsonDoc) Get(path ...string) (Value, bool) {
	res := d.result(path)
	if !res.Exists() {
		return Value{}, false
	}

	v := Value{Raw: res.Raw}
	switch res.Type {
	case gjson.Null:
		v.Kind = KindNull
	case gjson.True, gjson.False:
		v.Kind = KindBool
		v.Bool = res.Bool()
	case gjson.Number:
		v.Kind = KindNumber
		v.Num = res.Num
	case gjson.String:
		v.Kind = KindString
		v.Str = res.Str
	case gjson.JSON:
		if res.IsArray() {
			v.Kind = KindArray
			v.Len = len(res.Array())
			break
		}
		v.Kind = KindObject
		res.ForEach(func(_, _ gjson.Result) bool {
			v.Len++
			return true
		})
	}
	return v, true
}

// SetString sets a string value at path, creating missing parent objects.
func (d *jsonDoc) SetString(val string, path ...string) error {
	return d.set(val, path)
}

// SetBool sets a boolean value at path, creating missing parent objects.
func (d *jsonDoc) SetBool(val bool, path ...string) error {
	return d.set(val, path)
}

// Delete removes the value at path. missing paths are ignored.
func (d *jsonDoc) Delete(path ...string) error {
	if len(path) == 0 {
		return errors.New("delete: empty path")
	}
	if !d.result(path).Exists() {
		return nil
	}
	data, err := sjson.DeleteBytes(d.data, jsonPath(path))
	if err != nil {
		return fmt.Errorf("delete %s: %w", pathString(path), err)
	}
	d.data = data
	return nil
}

// Bytes returns the document indented with two spaces, keys in document order.
func (d *jsonDoc) Bytes() ([]byte, error) {
	return pretty.PrettyOptions(d.data, &pretty.Options{Indent: jsonIndent}), nil
}

func (d *jsonDoc) set(val any, path []string) error {
	if len(path) == 0 {
		return errors.New("set: empty path")
	}
	for i := 1; i < len(path); i++ {
		parent := d.result(path[:i])
		if parent.Type == gjson.Null && parent.Exists() {
			data, err := sjson.SetRawBytes(d.data, jsonPath(path[:i]), []byte("{}"))
			if err != nil {
				return fmt.Errorf("set %s: %w", pathString(path[:i]), err)
			}
			d.data = data
			continue
		}
		if parent.Exists() && !parent.IsObject() {
			return fmt.Errorf("%w: %s is not an object", ErrInvalid, pathString(path[:i]))
		}
	}

	data, err := sjson.SetBytes(d.data, jsonPath(path), val)
	if err != nil {
		return fmt.Errorf("set %s: %w", pathString(path), err)
	}
	d.data = data
	return nil
}

// checkJSONKeys rejects objects with repeated keys. lookups and edits only see
// the first copy while most json readers keep the last one.
func checkJSONKeys(res gjson.Result, path []string) error {
	var err error
	switch {
	case res.IsObject():
		seen := map[string]bool{}
		res.ForEach(func(k, v gjson.Result) bool {
			key := k.String()
			if seen[key] {
				err = duplicateKeyError(key, path)
				return false
			}
			seen[key] = true
			err = checkJSONKeys(v, append(path[:len(path):len(path)], key))
			return err == nil
		})
	case res.IsArray():
		for i, v := range res.Array() {
			if err = checkJSONKeys(v, append(path[:len(path):len(path)], strconv.Itoa(i))); err != nil {
				break
			}
		}
	}
	return err
}

func (d *jsonDoc) result(path []string) gjson.Result {
	if len(path) == 0 {
		return gjson.ParseBytes(d.data)
	}
	return gjson.GetBytes(d.data, jsonPath(path))
}

// jsonPath builds a gjson/sjson path with every key escaped, so agent names
// containing dots or wildcard characters address a single key.
func jsonPath(path []string) string {
	var b strings.Builder
	for i, key := range path {
		if i > 0 {
			b.WriteByte('.')
		}
		for j := 0; j < len(key); j++ {
			c := key[j]
			if !isPlainPathChar(c) {
				b.WriteByte('\\')
			}
			b.WriteByte(c)
		}
	}
	return b.String()
}

func isPlainPathChar(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '_' || c == '-' || c >= 0x80
}
