// Package manifest decodes file tree descriptions.
//
// A manifest is a nested mapping. Mapping values become
// directories and scalar values become files holding the
// scalar text:
//
//	README.md: "# Example"
//	src:
//	  main.go: |
//	    package main
//
// Manifests are read as YAML or as JSON with comments,
// depending on the file extension.
package manifest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/jsonc"
	"github.com/unixpickle/essentials"
	"gopkg.in/yaml.v3"

	"github.com/unixpickle/treetar"
)

var (
	// ErrFormat is returned for manifests with an unknown
	// file extension.
	ErrFormat = errors.New("unknown manifest format")

	// ErrValue is returned for values that are neither a
	// mapping nor text.
	ErrValue = errors.New("invalid manifest value")
)

type Format int

const (
	YAML Format = iota
	JSON
)

func (f Format) String() string {
	switch f {
	case YAML:
		return "yaml"
	case JSON:
		return "json"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}

// FormatOf picks the Format for a manifest path.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return YAML, nil
	case ".json", ".jsonc":
		return JSON, nil
	default:
		return 0, fmt.Errorf("%w: %s", ErrFormat, path)
	}
}

// Load reads and decodes the manifest at path.
func Load(path string) (*treetar.Tree[string], error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, essentials.AddCtx("load manifest", err)
	}
	tree, err := Decode(format, data)
	if err != nil {
		return nil, essentials.AddCtx("load manifest "+path, err)
	}
	return tree, nil
}

// Decode builds a tree from manifest data.
// The top level must be a mapping.
func Decode(format Format, data []byte) (*treetar.Tree[string], error) {
	switch format {
	case YAML:
		return decodeYAML(data)
	case JSON:
		return decodeJSON(data)
	default:
		return nil, fmt.Errorf("%w: %s", ErrFormat, format)
	}
}

func decodeYAML(data []byte) (*treetar.Tree[string], error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, essentials.AddCtx("decode yaml", err)
	}
	root := &doc
	if root.Kind == yaml.DocumentNode && len(root.Content) > 0 {
		root = root.Content[0]
	}
	if root.Kind == 0 || root.Kind == yaml.DocumentNode {
		// Empty document.
		return treetar.Dir[string](nil), nil
	}
	if resolveAlias(root).Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: top level must be a mapping", ErrValue)
	}
	return yamlTree(root, "")
}

func resolveAlias(node *yaml.Node) *yaml.Node {
	for node.Kind == yaml.AliasNode && node.Alias != nil {
		node = node.Alias
	}
	return node
}

func yamlTree(node *yaml.Node, path string) (*treetar.Tree[string], error) {
	node = resolveAlias(node)
	switch node.Kind {
	case yaml.ScalarNode:
		return treetar.File[string](node.Value), nil
	case yaml.MappingNode:
		dir := treetar.Dir[string](nil)
		for i := 0; i+1 < len(node.Content); i += 2 {
			key := resolveAlias(node.Content[i])
			if key.Kind != yaml.ScalarNode {
				return nil, fmt.Errorf("%w: non-scalar key at line %d", ErrValue, key.Line)
			}
			child, err := yamlTree(node.Content[i+1], path+"/"+key.Value)
			if err != nil {
				return nil, err
			}
			if err := dir.Insert(key.Value, child); err != nil {
				return nil, essentials.AddCtx(path+"/"+key.Value, err)
			}
		}
		return dir, nil
	default:
		return nil, fmt.Errorf("%w: %s at line %d", ErrValue, strings.TrimPrefix(path, "/"), node.Line)
	}
}

func decodeJSON(data []byte) (*treetar.Tree[string], error) {
	decoder := json.NewDecoder(bytes.NewReader(jsonc.ToJSON(data)))
	var value any
	if err := decoder.Decode(&value); err != nil {
		return nil, essentials.AddCtx("decode json", err)
	}
	if _, err := decoder.Token(); err != io.EOF {
		return nil, fmt.Errorf("%w: trailing data after top-level object", ErrValue)
	}
	if _, ok := value.(map[string]any); !ok {
		return nil, fmt.Errorf("%w: top level must be an object", ErrValue)
	}
	return jsonTree(value, "")
}

func jsonTree(value any, path string) (*treetar.Tree[string], error) {
	switch value := value.(type) {
	case string:
		return treetar.File[string](value), nil
	case map[string]any:
		children := make(treetar.Children[string], len(value))
		for key, v := range value {
			child, err := jsonTree(v, path+"/"+key)
			if err != nil {
				return nil, err
			}
			children[key] = child
		}
		return treetar.Dir(children), nil
	default:
		return nil, fmt.Errorf("%w: %s has type %T", ErrValue, strings.TrimPrefix(path, "/"), value)
	}
}
