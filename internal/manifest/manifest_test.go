package manifest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/unixpickle/essentials"

	"github.com/unixpickle/treetar"
)

type file struct {
	Path string
	Data string
}

func files(t *testing.T, tree *treetar.Tree[string]) []file {
	t.Helper()
	var res []file
	err := tree.Walk(treetar.Slash[string]{}, "", func(path string, data []byte) error {
		res = append(res, file{path, string(data)})
		return nil
	})
	require.NoError(t, err)
	return res
}

const yamlManifest = `
README.md: "# Example"
src:
  main.rs: fn main() {}
  lib: &lib
    mod.rs: ""
shared: *lib
version: 1.0
`

const jsonManifest = `{
	// Top-level readme.
	"README.md": "# Example",
	"src": {
		"main.rs": "fn main() {}",
		/* empty directory */
		"empty": {},
	},
}`

func TestDecodeYAML(t *testing.T) {
	tree, err := Decode(YAML, []byte(yamlManifest))
	require.NoError(t, err)
	assert.Equal(t, []file{
		{"README.md", "# Example"},
		{"shared/mod.rs", ""},
		{"src/lib/mod.rs", ""},
		{"src/main.rs", "fn main() {}"},
		{"version", "1.0"},
	}, files(t, tree))
}

func TestDecodeJSON(t *testing.T) {
	tree, err := Decode(JSON, []byte(jsonManifest))
	require.NoError(t, err)
	assert.Equal(t, []file{
		{"README.md", "# Example"},
		{"src/main.rs", "fn main() {}"},
	}, files(t, tree))

	src, ok := tree.Get("src")
	require.True(t, ok)
	empty, ok := src.Get("empty")
	require.True(t, ok)
	assert.True(t, empty.IsDir())
}

func TestDecodeJSONTrailingComment(t *testing.T) {
	tree, err := Decode(JSON, []byte("{\"a\": \"b\"}\n// done\n"))
	require.NoError(t, err)
	assert.Equal(t, []file{{"a", "b"}}, files(t, tree))
}

func TestDecodeEmpty(t *testing.T) {
	tree, err := Decode(YAML, nil)
	require.NoError(t, err)
	assert.True(t, tree.IsDir())
	assert.Zero(t, tree.Len())
}

func TestDecodeErrors(t *testing.T) {
	for _, c := range []struct {
		name   string
		format Format
		data   string
	}{
		{"yaml scalar root", YAML, "hello"},
		{"yaml sequence", YAML, "src:\n  - a\n  - b\n"},
		{"json array root", JSON, `["a"]`},
		{"json number", JSON, `{"a": 1}`},
		{"json null", JSON, `{"a": {"b": null}}`},
		{"json second value", JSON, `{"a": "b"} {"c": "d"}`},
		{"json trailing garbage", JSON, "{\"a\": \"b\"}\n]"},
	} {
		t.Run(c.name, func(t *testing.T) {
			_, err := Decode(c.format, []byte(c.data))
			require.ErrorIs(t, err, ErrValue)
		})
	}

	t.Run("syntax", func(t *testing.T) {
		_, err := Decode(JSON, []byte(`{"a": `))
		require.Error(t, err)
		_, err = Decode(YAML, []byte("a: [b"))
		require.Error(t, err)
	})

	t.Run("unknown format", func(t *testing.T) {
		_, err := Decode(Format(7), []byte("{}"))
		require.ErrorIs(t, err, ErrFormat)
	})
}

func TestFormatOf(t *testing.T) {
	for path, expected := range map[string]Format{
		"tree.yaml":      YAML,
		"tree.YML":       YAML,
		"dir/tree.json":  JSON,
		"dir/tree.jsonc": JSON,
	} {
		format, err := FormatOf(path)
		require.NoError(t, err, path)
		assert.Equal(t, expected, format, path)
	}

	_, err := FormatOf("tree.toml")
	require.ErrorIs(t, err, ErrFormat)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tree.jsonc")
	essentials.Must(os.WriteFile(path, []byte(jsonManifest), 0600))

	tree, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2, tree.Len())

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)

	bad := filepath.Join(dir, "bad.yaml")
	essentials.Must(os.WriteFile(bad, []byte("- a\n"), 0600))
	_, err = Load(bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad.yaml")
}
