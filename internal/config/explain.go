package config

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Explain returns the effective value at a dotted YAML path and where it came
// from. List entries are addressed as key[i], for example
//
//	layout.gap
//	animations.view_offset.curve
//	bindings.Mod4-l
//	window_rules[0].app_id
func Explain(res *LoadResult, path string) (any, Source, error) {
	if res == nil || res.Config == nil {
		return nil, Source{}, fmt.Errorf("no config loaded")
	}
	if path == "" {
		return nil, Source{}, fmt.Errorf("path is empty")
	}

	value, err := lookupValue(res.Config, path)
	if err != nil {
		return nil, Source{}, err
	}
	if src, ok := lookupSource(res.Sources, path); ok {
		return value, src, nil
	}
	return value, Source{Kind: SourceDefault, Name: "defaults"}, nil
}

func lookupValue(cfg *Config, path string) (any, error) {
	var root yaml.Node
	if err := root.Encode(cfg); err != nil {
		return nil, err
	}
	node := &root
	for _, part := range splitPath(path) {
		next, err := descend(node, part)
		if err != nil {
			return nil, fmt.Errorf("unknown path: %s", path)
		}
		node = next
	}
	var out any
	if err := node.Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}

// splitPath turns "a.b[2].c" into ["a", "b", "[2]", "c"].
func splitPath(path string) []string {
	var parts []string
	for _, seg := range strings.Split(path, ".") {
		for {
			i := strings.IndexByte(seg, '[')
			if i < 0 {
				break
			}
			if i > 0 {
				parts = append(parts, seg[:i])
			}
			j := strings.IndexByte(seg[i:], ']')
			if j < 0 {
				break
			}
			parts = append(parts, seg[i:i+j+1])
			seg = seg[i+j+1:]
		}
		if seg != "" {
			parts = append(parts, seg)
		}
	}
	return parts
}

func descend(node *yaml.Node, part string) (*yaml.Node, error) {
	if strings.HasPrefix(part, "[") {
		idx, err := strconv.Atoi(strings.Trim(part, "[]"))
		if err != nil || node.Kind != yaml.SequenceNode || idx < 0 || idx >= len(node.Content) {
			return nil, fmt.Errorf("bad index %s", part)
		}
		return node.Content[idx], nil
	}
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("not a mapping")
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == part {
			return node.Content[i+1], nil
		}
	}
	return nil, fmt.Errorf("no key %s", part)
}

// lookupSource finds the file that last set path, falling back to the
// closest parent that was set as a whole.
func lookupSource(sources map[string]Source, path string) (Source, bool) {
	for path != "" {
		if src, ok := sources[path]; ok {
			return src, true
		}
		cut := strings.LastIndexAny(path, ".[")
		if cut < 0 {
			break
		}
		path = path[:cut]
	}
	return Source{}, false
}
