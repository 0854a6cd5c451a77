package document

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleJSON = `{
  "$schema": "https://opencode.ai/config.json",
  "theme": "dark",
  "agent": {
    "_base": {"model": "gpt-4", "temperature": 0.2},
    "coordinator": {"model": "claude-opus-4-20250514"},
    "code.reviewer": {"model": "gpt-4", "fallback_model": "gemini-1.5", "options": {"thinking": false, "tools": ["read"]}}
  },
  "share": "manual"
}`

const sampleYAML = `# agent configuration
agent:
  _base:
    model: gpt-4
  coordinator:
    model: claude-opus-4-20250514
  tester:
    model: gpt-4 # old model
    fallback_model: gemini-1.5
    options:
      thinking: false
      depth: 3
share: manual
`

func TestFormatFromPath(t *testing.T) {
	tests := []struct {
		path string
		want Format
	}{
		{path: "opencode.json", want: FormatJSON},
		{path: "opencode.jsonc", want: FormatJSON},
		{path: "/etc/agents.YAML", want: FormatYAML},
		{path: "agents.yml", want: FormatYAML},
		{path: "config", want: FormatJSON},
	}
	for _, tc := range tests {
		t.Run(tc.path, func(t *testing.T) {
			assert.Equal(t, tc.want, FormatFromPath(tc.path))
		})
	}
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("")
	require.NoError(t, err)
	assert.Empty(t, f)

	f, err = ParseFormat(" YML ")
	require.NoError(t, err)
	assert.Equal(t, FormatYAML, f)

	f, err = ParseFormat("jsonc")
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, f)

	_, err = ParseFormat("toml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown document format")
}

func TestValue_Truthy(t *testing.T) {
	tests := []struct {
		name string
		v    Value
		want bool
	}{
		{name: "null", v: Value{Kind: KindNull}, want: false},
		{name: "true", v: Value{Kind: KindBool, Bool: true}, want: true},
		{name: "false", v: Value{Kind: KindBool}, want: false},
		{name: "zero", v: Value{Kind: KindNumber}, want: false},
		{name: "one", v: Value{Kind: KindNumber, Num: 1}, want: true},
		{name: "empty string", v: Value{Kind: KindString}, want: false},
		{name: "string", v: Value{Kind: KindString, Str: "false"}, want: true},
		{name: "empty object", v: Value{Kind: KindObject}, want: false},
		{name: "array", v: Value{Kind: KindArray, Len: 2}, want: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.v.Truthy())
		})
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		data   string
		format Format
	}{
		{name: "malformed json", data: `{"agent": {`, format: FormatJSON},
		{name: "json array root", data: `[1, 2]`, format: FormatJSON},
		{name: "json with comments", data: "{\n// comment\n\"agent\": {}}", format: FormatJSON},
		{name: "yaml scalar root", data: "just text", format: FormatYAML},
		{name: "empty yaml", data: "", format: FormatYAML},
		{name: "broken yaml", data: "agent: [", format: FormatYAML},
		{name: "duplicate json agent", data: `{"agent": {"w": {"model": "x"}, "w": {"model": "y"}}}`, format: FormatJSON},
		{name: "duplicate json field", data: `{"agent": {"w": {"model": "x", "model": "y"}}}`, format: FormatJSON},
		{name: "duplicate json key in array", data: `{"list": [{"a": 1, "a": 2}]}`, format: FormatJSON},
		{name: "duplicate yaml agent", data: "agent:\n  w:\n    model: x\n  w:\n    model: y\n", format: FormatYAML},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.data), tc.format, false)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalid)
		})
	}

	_, err := Parse([]byte(`{}`), Format("toml"), false)
	require.Error(t, err)
}

func TestParse_RepairJSON(t *testing.T) {
	data := "{\n  // coordinator first\n  \"agent\": {\"coordinator\": {\"model\": \"gpt-4\",},},\n}"
	doc, err := Parse([]byte(data), FormatJSON, true)
	require.NoError(t, err)

	v, ok := doc.Get("agent", "coordinator", "model")
	require.True(t, ok)
	assert.Equal(t, "gpt-4", v.Str)
}

// backends runs fn against the same content loaded by every backend.
func backends(t *testing.T, fn func(t *testing.T, doc Document)) {
	t.Helper()
	for _, tc := range []struct {
		format Format
		data   string
	}{{FormatJSON, sampleJSON}, {FormatYAML, sampleYAML}} {
		t.Run(string(tc.format), func(t *testing.T) {
			doc, err := Parse([]byte(tc.data), tc.format, false)
			require.NoError(t, err)
			assert.Equal(t, tc.format, doc.Format())
			fn(t, doc)
		})
	}
}

func TestDocument_Keys(t *testing.T) {
	backends(t, func(t *testing.T, doc Document) {
		keys, ok := doc.Keys("agent")
		require.True(t, ok)
		assert.Len(t, keys, 3)
		assert.Equal(t, []string{"_base", "coordinator"}, keys[:2])

		_, ok = doc.Keys("agent", "coordinator", "model")
		assert.False(t, ok, "scalar has no keys")
		_, ok = doc.Keys("missing")
		assert.False(t, ok)
	})
}

func TestDocument_Get(t *testing.T) {
	backends(t, func(t *testing.T, doc Document) {
		keys, _ := doc.Keys("agent")
		worker := keys[2]

		v, ok := doc.Get("agent", "coordinator", "model")
		require.True(t, ok)
		assert.Equal(t, KindString, v.Kind)
		assert.Equal(t, "claude-opus-4-20250514", v.String())

		v, ok = doc.Get("agent", worker, "options", "thinking")
		require.True(t, ok)
		assert.Equal(t, KindBool, v.Kind)
		assert.False(t, v.Truthy())

		v, ok = doc.Get("agent", worker, "options")
		require.True(t, ok)
		assert.Equal(t, KindObject, v.Kind)
		assert.Equal(t, 2, v.Len)

		_, ok = doc.Get("agent", worker, "missing")
		assert.False(t, ok)
		_, ok = doc.Get("agent", "coordinator", "model", "deeper")
		assert.False(t, ok)
	})
}

func TestDocument_SetAndDelete(t *testing.T) {
	backends(t, func(t *testing.T, doc Document) {
		keys, _ := doc.Keys("agent")
		worker := keys[2]

		require.NoError(t, doc.SetString("claude-sonnet-4", "agent", worker, "model"))
		v, _ := doc.Get("agent", worker, "model")
		assert.Equal(t, "claude-sonnet-4", v.Str)

		require.NoError(t, doc.SetBool(true, "agent", worker, "options", "thinking"))
		v, _ = doc.Get("agent", worker, "options", "thinking")
		assert.True(t, v.Truthy())

		// missing parents are created
		require.NoError(t, doc.SetBool(true, "agent", "_base", "options", "thinking"))
		v, ok := doc.Get("agent", "_base", "options", "thinking")
		require.True(t, ok)
		assert.True(t, v.Bool)

		require.NoError(t, doc.Delete("agent", worker, "fallback_model"))
		_, ok = doc.Get("agent", worker, "fallback_model")
		assert.False(t, ok)
		require.NoError(t, doc.Delete("agent", worker, "fallback_model"), "deleting missing key is a no-op")

		// worker keeps its other keys and order
		wkeys, _ := doc.Keys("agent", worker)
		assert.Equal(t, []string{"model", "options"}, wkeys)
		okeys, _ := doc.Keys("agent", worker, "options")
		assert.Equal(t, "thinking", okeys[0])

		err := doc.SetBool(true, "agent", "coordinator", "model", "thinking")
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalid)

		require.Error(t, doc.SetString("x"))
		require.Error(t, doc.Delete())
	})
}

func TestParse_DuplicateKeyMessage(t *testing.T) {
	_, err := Parse([]byte(`{"agent": {"w": {}, "w": {}}}`), FormatJSON, false)
	require.ErrorIs(t, err, ErrInvalid)
	assert.Contains(t, err.Error(), `duplicate key "w" in "agent"`)

	_, err = Parse([]byte("a: 1\na: 2\n"), FormatYAML, false)
	require.ErrorIs(t, err, ErrInvalid)

	_, err = Parse([]byte(`{"agent": {"w": {}, "x": {"w": {}}}}`), FormatJSON, false)
	require.NoError(t, err, "same key in different objects is fine")
}

func TestDocument_SetReplacesNullParent(t *testing.T) {
	for _, tc := range []struct {
		format Format
		data   string
	}{
		{FormatJSON, `{"agent": {"w": {"model": "x", "options": null}}}`},
		{FormatYAML, "agent:\n  w:\n    model: x\n    options:\n"},
	} {
		t.Run(string(tc.format), func(t *testing.T) {
			doc, err := Parse([]byte(tc.data), tc.format, false)
			require.NoError(t, err)

			require.NoError(t, doc.SetBool(true, "agent", "w", "options", "thinking"))
			v, ok := doc.Get("agent", "w", "options", "thinking")
			require.True(t, ok)
			assert.True(t, v.Bool)
			keys, _ := doc.Keys("agent", "w")
			assert.Equal(t, []string{"model", "options"}, keys)

			out, err := doc.Bytes()
			require.NoError(t, err)
			back, err := Parse(out, tc.format, false)
			require.NoError(t, err)
			v, ok = back.Get("agent", "w", "options", "thinking")
			require.True(t, ok)
			assert.True(t, v.Bool)
		})
	}
}

func TestJSON_BytesKeepOrderAndIndent(t *testing.T) {
	doc, err := Parse([]byte(sampleJSON), FormatJSON, false)
	require.NoError(t, err)
	require.NoError(t, doc.SetString("claude-opus-4-20250514", "agent", "code.reviewer", "model"))
	require.NoError(t, doc.SetBool(true, "agent", "_base", "options", "thinking"))

	out, err := doc.Bytes()
	require.NoError(t, err)
	text := string(out)

	assert.Contains(t, text, "\n  \"agent\": {\n    \"_base\": {\n      \"model\": \"gpt-4\",")
	assert.Contains(t, text, "\"options\": {\n        \"thinking\": true\n      }")
	assert.Less(t, strings.Index(text, `"$schema"`), strings.Index(text, `"theme"`))
	assert.Less(t, strings.Index(text, `"theme"`), strings.Index(text, `"agent"`))
	assert.Less(t, strings.Index(text, `"agent"`), strings.Index(text, `"share"`))
	assert.Less(t, strings.Index(text, `"temperature"`), strings.Index(text, `"options"`), "new keys append at the end")

	// dotted agent name is addressed as a single key
	reparsed, err := Parse(out, FormatJSON, false)
	require.NoError(t, err)
	v, ok := reparsed.Get("agent", "code.reviewer", "model")
	require.True(t, ok)
	assert.Equal(t, "claude-opus-4-20250514", v.Str)
}

func TestYAML_BytesKeepComments(t *testing.T) {
	doc, err := Parse([]byte(sampleYAML), FormatYAML, false)
	require.NoError(t, err)
	require.NoError(t, doc.SetString("claude-opus-4-20250514", "agent", "tester", "model"))

	out, err := doc.Bytes()
	require.NoError(t, err)
	text := string(out)
	assert.Contains(t, text, "# agent configuration")
	assert.Contains(t, text, "model: claude-opus-4-20250514")
	assert.Contains(t, text, "\n  tester:\n    model:")
	assert.Less(t, strings.Index(text, "agent:"), strings.Index(text, "share:"))
}

func TestLoadAndSave(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "opencode.json")
	require.NoError(t, os.WriteFile(path, []byte(sampleJSON), 0o640))

	doc, err := Load(path, LoadOptions{})
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, doc.Format())
	require.NoError(t, doc.SetString("gemini-1.5-pro", "agent", "_base", "model"))
	require.NoError(t, Save(path, doc))

	fi, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o640), fi.Mode().Perm(), "file mode is kept")

	loaded, err := Load(path, LoadOptions{})
	require.NoError(t, err)
	v, _ := loaded.Get("agent", "_base", "model")
	assert.Equal(t, "gemini-1.5-pro", v.Str)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}

func TestLoad_ForcedFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agents.conf")
	require.NoError(t, os.WriteFile(path, []byte(sampleYAML), 0o600))

	_, err := Load(path, LoadOptions{})
	require.Error(t, err, "json parser rejects yaml")

	doc, err := Load(path, LoadOptions{Format: FormatYAML})
	require.NoError(t, err)
	assert.Equal(t, FormatYAML, doc.Format())
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"), LoadOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read document")
	assert.ErrorIs(t, err, os.ErrNotExist)

	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))
	_, err = Load(path, LoadOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse document")
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestSave_FailureKeepsOriginal(t *testing.T) {
	if os.Getuid() == 0 {
		t.Skip("permission checks do not apply to root")
	}
	dir := t.TempDir()
	path := filepath.Join(dir, "opencode.json")
	require.NoError(t, os.WriteFile(path, []byte(sampleJSON), 0o600))

	doc, err := Load(path, LoadOptions{})
	require.NoError(t, err)
	require.NoError(t, doc.SetString("changed", "agent", "_base", "model"))

	require.NoError(t, os.Chmod(dir, 0o500))    //nolint:gosec // read-only dir for the test
	defer func() { _ = os.Chmod(dir, 0o700) }() //nolint:gosec // restore for cleanup

	err = Save(path, doc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "write document")

	data, err := os.ReadFile(path) //nolint:gosec // test file
	require.NoError(t, err)
	assert.Equal(t, sampleJSON, string(data))
}
