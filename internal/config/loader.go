package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
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
	Name   string // defaults only
	File   string
	Line   int
	Column int
}

func (s Source) String() string {
	switch {
	case s.Kind == SourceFile && s.File != "":
		return s.File + ":" + strconv.Itoa(s.Line) + ":" + strconv.Itoa(s.Column)
	case s.Name != "":
		return fmt.Sprintf("%s (%s)", s.Kind, s.Name)
	default:
		return string(s.Kind)
	}
}

// LoadResult is a loaded config together with where each key was set.
type LoadResult struct {
	Config *Config
	// Sources maps dotted key paths to the file position that set them last.
	Sources map[string]Source
	// Files lists every file read, includes first.
	Files []string
}

// DefaultConfigPath returns ~/.config/glaze/config.yaml.
func DefaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("no home directory: %w", err)
	}
	return filepath.Join(home, ".config", "glaze", "config.yaml"), nil
}

// Load returns the validated config from DefaultConfigPath.
func Load() (*Config, error) {
	res, err := LoadWithSources()
	if err != nil {
		return nil, err
	}
	return res.Config, nil
}

func LoadWithSources() (*LoadResult, error) {
	path, err := DefaultConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFromPath(path)
}

// LoadFromPath loads path and everything it includes. A missing file
// yields the defaults.
func LoadFromPath(path string) (*LoadResult, error) {
	top := layer{sources: map[string]Source{}}
	var files []string

	ok, err := fileExists(path)
	if err != nil {
		return nil, err
	}
	if ok {
		l := &loader{seen: map[string]bool{}}
		if top, err = l.load(path); err != nil {
			return nil, err
		}
		files = l.files
	}

	cfg := BuildEffectiveConfig(top.raw)
	if src, set := top.sources["window_shader"]; set && cfg.WindowShader != "" {
		shader, err := resolveRelative(src.File, cfg.WindowShader)
		if err != nil {
			return nil, attachSourceContext(&ValidationError{Path: "window_shader", Err: err}, top.sources)
		}
		cfg.WindowShader = shader
	}
	if err := cfg.Validate(); err != nil {
		return nil, attachSourceContext(err, top.sources)
	}
	return &LoadResult{Config: cfg, Sources: top.sources, Files: files}, nil
}

// layer is one file merged with its includes.
type layer struct {
	raw     RawConfig
	sources map[string]Source
}

// over applies o on top of l.
func (l *layer) over(o layer) {
	if o.raw.BlurKernels != nil {
		// Positions of a replaced kernel list are stale.
		for p := range l.sources {
			if strings.HasPrefix(p, "blur_kernels.") {
				delete(l.sources, p)
			}
		}
	}
	l.raw = l.raw.merge(o.raw)
	for p, src := range o.sources {
		l.sources[p] = src
	}
}

// loader walks an include tree. Each file is merged at most once; a file
// reached again while it is still being loaded is a cycle.
type loader struct {
	seen  map[string]bool
	chain []string
	files []string
}

func (l *loader) load(path string) (layer, error) {
	out := layer{sources: map[string]Source{}}

	name, err := canonicalPath(path)
	if err != nil {
		return out, err
	}
	for _, open := range l.chain {
		if open == name {
			return out, fmt.Errorf("include cycle detected: %s -> %s", strings.Join(l.chain, " -> "), name)
		}
	}
	if l.seen[name] {
		return out, nil
	}
	l.seen[name] = true

	own, includes, err := readLayer(name)
	if err != nil {
		return out, err
	}

	l.chain = append(l.chain, name)
	for _, inc := range includes {
		targets, err := includeTargets(name, inc.value)
		if err != nil {
			return out, fmt.Errorf("%s: include %q: %w", inc.pos, inc.value, err)
		}
		for _, target := range targets {
			sub, err := l.load(target)
			if err != nil {
				return out, err
			}
			out.over(sub)
		}
	}
	l.chain = l.chain[:len(l.chain)-1]

	out.over(own)
	l.files = append(l.files, name)
	return out, nil
}

type includeRef struct {
	value string
	pos   Source
}

// readLayer decodes one file strictly and records key positions and
// include entries.
func readLayer(name string) (layer, []includeRef, error) {
	data, err := os.ReadFile(name)
	if err != nil {
		return layer{}, nil, fmt.Errorf("%s: failed to read: %w", name, err)
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return layer{}, nil, fmt.Errorf("%s: failed to parse yaml: %w", name, err)
	}
	var raw RawConfig
	if err := decodeStrict(data, &raw); err != nil {
		return layer{}, nil, fmt.Errorf("%s: %w", name, err)
	}

	w := docWalker{file: name, sources: map[string]Source{}}
	w.document(&doc)
	return layer{raw: raw, sources: w.sources}, w.includes, nil
}

func decodeStrict(data []byte, out any) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// docWalker collects the position of every key in a document. Sequence
// items are addressed by index, e.g. blur_kernels.1.width.
type docWalker struct {
	file     string
	sources  map[string]Source
	includes []includeRef
}

func (w *docWalker) pos(n *yaml.Node) Source {
	return Source{Kind: SourceFile, File: w.file, Line: n.Line, Column: n.Column}
}

func (w *docWalker) document(doc *yaml.Node) {
	root := doc
	if root.Kind == yaml.DocumentNode {
		if len(root.Content) == 0 {
			return
		}
		root = root.Content[0]
	}
	w.visit(root, "")
}

func (w *docWalker) visit(n *yaml.Node, prefix string) {
	join := func(key string) string {
		if prefix == "" {
			return key
		}
		return prefix + "." + key
	}

	switch n.Kind {
	case yaml.MappingNode:
		for i := 0; i+1 < len(n.Content); i += 2 {
			key, val := n.Content[i].Value, n.Content[i+1]
			if prefix == "" && key == "include" {
				w.include(val)
			}
			p := join(key)
			w.sources[p] = w.pos(val)
			w.visit(val, p)
		}
	case yaml.SequenceNode:
		for i, item := range n.Content {
			p := join(strconv.Itoa(i))
			w.sources[p] = w.pos(item)
			if item.Kind == yaml.MappingNode {
				w.visit(item, p)
			}
		}
	}
}

func (w *docWalker) include(val *yaml.Node) {
	items := []*yaml.Node{val}
	if val.Kind == yaml.SequenceNode {
		items = val.Content
	}
	for _, item := range items {
		if item.Kind == yaml.ScalarNode {
			w.includes = append(w.includes, includeRef{value: item.Value, pos: w.pos(item)})
		}
	}
}

func canonicalPath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %q: %w", path, err)
	}
	if real, err := filepath.EvalSymlinks(abs); err == nil {
		return real, nil
	}
	return abs, nil
}

// includeTargets returns the file an include names, or the .yaml and .yml
// files of a directory in lexical order.
func includeTargets(from, include string) ([]string, error) {
	path, err := resolveRelative(from, include)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".yaml", ".yml":
			if !e.IsDir() {
				out = append(out, filepath.Join(path, e.Name()))
			}
		}
	}
	return out, nil
}

// resolveRelative expands a leading ~ and resolves p against the directory
// of the file that named it.
func resolveRelative(from, p string) (string, error) {
	if p == "" {
		return "", errors.New("path is empty")
	}
	if p == "~" || strings.HasPrefix(p, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		p = filepath.Join(home, strings.TrimPrefix(p, "~"))
	}
	if filepath.IsAbs(p) {
		return p, nil
	}
	return filepath.Join(filepath.Dir(from), p), nil
}

func fileExists(path string) (bool, error) {
	_, err := os.Stat(path)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, os.ErrNotExist):
		return false, nil
	default:
		return false, err
	}
}
