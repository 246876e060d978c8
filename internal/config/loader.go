package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type SourceKind string

const (
	SourceDefault SourceKind = "default"
	SourceFile    SourceKind = "file"
)

// Source records where a config value came from.
type Source struct {
	Kind   SourceKind
	Name   string // default key
	File   string
	Line   int
	Column int
}

func (s Source) position() string {
	return s.File + ":" + strconv.Itoa(s.Line) + ":" + strconv.Itoa(s.Column)
}

type LoadResult struct {
	Config *Config
	// Sources maps a dotted YAML path to the file position that set it last.
	Sources map[string]Source
	// Files lists every file read, includes before their includer.
	Files []string
}

// LoadWithSources loads the config at the default location.
func LoadWithSources() (*LoadResult, error) {
	path, err := DefaultConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFromPath(path)
}

// LoadFromPath loads path and everything it includes. A missing file yields
// the defaults.
func LoadFromPath(path string) (*LoadResult, error) {
	ld := &fileLoader{
		merged:  map[string]bool{},
		sources: map[string]Source{},
	}
	switch _, err := os.Stat(path); {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, err
	default:
		if err := ld.load(path); err != nil {
			return nil, err
		}
	}

	cfg := BuildEffectiveConfig(ld.raw)
	if err := cfg.Validate(); err != nil {
		return nil, withSource(err, ld.sources)
	}
	return &LoadResult{Config: cfg, Sources: ld.sources, Files: ld.files}, nil
}

// LoadOrDefault loads path and falls back to the defaults when it cannot be
// loaded. The returned error reports why the fallback happened.
func LoadOrDefault(path string) (*LoadResult, error) {
	res, err := LoadFromPath(path)
	if err != nil {
		return &LoadResult{Config: DefaultConfig(), Sources: map[string]Source{}}, err
	}
	return res, nil
}

// fileLoader folds a file and its includes into one RawConfig. Includes are
// applied before the file that names them so the includer wins.
type fileLoader struct {
	raw     RawConfig
	sources map[string]Source
	files   []string

	merged map[string]bool
	chain  []string
}

func (ld *fileLoader) load(path string) error {
	file := resolveFile(path)
	if slices.Contains(ld.chain, file) {
		return fmt.Errorf("include cycle detected: %s -> %s", strings.Join(ld.chain, " -> "), file)
	}
	if ld.merged[file] {
		return nil
	}
	ld.merged[file] = true

	data, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("%s: failed to read: %w", file, err)
	}
	var own RawConfig
	if err := strictDecode(data, &own); err != nil {
		return fmt.Errorf("%s: %w", file, err)
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("%s: failed to parse yaml: %w", file, err)
	}
	root := documentRoot(&doc)

	ld.chain = append(ld.chain, file)
	for _, inc := range includeEntries(root, file) {
		targets, err := includeTargets(file, inc.Name)
		if err != nil {
			return fmt.Errorf("%s: include %q: %w", inc.position(), inc.Name, err)
		}
		for _, t := range targets {
			if err := ld.load(t); err != nil {
				return err
			}
		}
	}
	ld.chain = ld.chain[:len(ld.chain)-1]

	ld.raw = ld.raw.merge(own)
	recordSources(root, file, "", ld.sources)
	ld.files = append(ld.files, file)
	return nil
}

func strictDecode(data []byte, out any) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// resolveFile makes path absolute and follows symlinks when it can, so one
// file reached by two names is merged once.
func resolveFile(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	if real, err := filepath.EvalSymlinks(path); err == nil {
		return real
	}
	return path
}

// includeTargets expands an include entry relative to the including file. A
// directory contributes its *.yaml and *.yml files in name order.
func includeTargets(from, entry string) ([]string, error) {
	if entry == "" {
		return nil, errors.New("path is empty")
	}
	if entry == "~" || strings.HasPrefix(entry, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		entry = filepath.Join(home, strings.TrimPrefix(entry, "~"))
	}
	if !filepath.IsAbs(entry) {
		entry = filepath.Join(filepath.Dir(from), entry)
	}

	info, err := os.Stat(entry)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{entry}, nil
	}
	dirents, err := os.ReadDir(entry)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, d := range dirents {
		switch strings.ToLower(filepath.Ext(d.Name())) {
		case ".yaml", ".yml":
			if !d.IsDir() {
				out = append(out, filepath.Join(entry, d.Name()))
			}
		}
	}
	slices.Sort(out)
	return out, nil
}

func documentRoot(doc *yaml.Node) *yaml.Node {
	if doc.Kind == yaml.DocumentNode && len(doc.Content) > 0 {
		return doc.Content[0]
	}
	return doc
}

func nodeSource(file string, n *yaml.Node) Source {
	return Source{Kind: SourceFile, File: file, Line: n.Line, Column: n.Column}
}

// recordSources stores the position of every mapping value and sequence
// item under its dotted path, e.g. layout.gap or window_rules[2].match.
func recordSources(n *yaml.Node, file, prefix string, into map[string]Source) {
	switch n.Kind {
	case yaml.MappingNode:
		for i := 0; i+1 < len(n.Content); i += 2 {
			path := n.Content[i].Value
			if prefix != "" {
				path = prefix + "." + path
			}
			val := n.Content[i+1]
			into[path] = nodeSource(file, val)
			recordSources(val, file, path, into)
		}
	case yaml.SequenceNode:
		if prefix != "" {
			into[prefix] = nodeSource(file, n)
		}
		for i, item := range n.Content {
			path := prefix + "[" + strconv.Itoa(i) + "]"
			into[path] = nodeSource(file, item)
			recordSources(item, file, path, into)
		}
	}
}

// includeEntries returns the top-level include values with their positions.
// Name holds the include path.
func includeEntries(root *yaml.Node, file string) []Source {
	if root.Kind != yaml.MappingNode {
		return nil
	}
	var val *yaml.Node
	for i := 0; i+1 < len(root.Content); i += 2 {
		if root.Content[i].Value == "include" {
			val = root.Content[i+1]
			break
		}
	}
	if val == nil {
		return nil
	}
	items := []*yaml.Node{val}
	if val.Kind == yaml.SequenceNode {
		items = val.Content
	}
	var out []Source
	for _, it := range items {
		if it.Kind != yaml.ScalarNode {
			continue
		}
		src := nodeSource(file, it)
		src.Name = it.Value
		out = append(out, src)
	}
	return out
}

// withSource attaches the file position of a failing key to a
// ValidationError.
func withSource(err error, sources map[string]Source) error {
	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Path == "" {
		return err
	}
	if src, ok := lookupSource(sources, verr.Path); ok {
		verr.Source = src
	}
	return verr
}
