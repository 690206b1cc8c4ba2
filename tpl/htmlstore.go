package tpl

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"log"
	"os"
	"path"
	"strings"
	"sync"
	"unicode/utf8"
)

const FileSuffix = ".gohtml"

type HTMLTemplateStore struct {
	Funcs template.FuncMap

	mu       sync.RWMutex
	Base     map[string]*template.Template // each file → one template
	Combined map[string]*template.Template // composed templates
	combos   map[string][]string
}

func NewHTMLTemplateStore() *HTMLTemplateStore {
	return &HTMLTemplateStore{
		Funcs:    template.FuncMap{},
		Base:     make(map[string]*template.Template),
		Combined: make(map[string]*template.Template),
		combos:   make(map[string][]string),
	}
}

// LoadBaseTemplates loads every *.gohtml under tplRoot on disk
func (s *HTMLTemplateStore) LoadBaseTemplates(tplRoot string) error {
	return s.LoadFS(os.DirFS(tplRoot), ".")
}

// LoadFS loads every *.gohtml under root in fsys. Keys are slash paths relative to root
// without the suffix; a key loaded again replaces the earlier template, so a disk
// directory loaded after the embedded set overrides single pages.
func (s *HTMLTemplateStore) LoadFS(fsys fs.FS, root string) error {
	loaded := make(map[string]*template.Template)
	err := fs.WalkDir( // Pre-order Depth-first Traversal
		fsys,
		root,
		func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			name := d.Name()
			// Skip Hidden Files & Hidden Directories
			if strings.HasPrefix(name, ".") && p != root {
				if d.IsDir() {
					return fs.SkipDir
				}
				return nil
			}
			if d.IsDir() || !strings.HasSuffix(p, FileSuffix) {
				return nil
			}
			data, err := fs.ReadFile(fsys, p)
			if err != nil {
				return err
			}
			if !utf8.Valid(data) {
				return fmt.Errorf("file %s is not valid UTF-8", p)
			}
			rel := strings.TrimPrefix(p, strings.TrimSuffix(root, "/")+"/")
			if root == "." {
				rel = p
			}
			key := strings.TrimSuffix(path.Clean(rel), FileSuffix)
			if _, exists := loaded[key]; exists {
				return fmt.Errorf("duplicate template key detected: %s (file=%s)", key, p)
			}
			t, err := template.New(key).Funcs(s.Funcs).Parse(string(data))
			if err != nil {
				return fmt.Errorf("parse error in %s: %w", p, err)
			}
			loaded[key] = t
			return nil
		},
	)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for key, t := range loaded {
		s.Base[key] = t
	}
	// Rebuild compositions so they pick up replaced parts
	for name, keys := range s.combos {
		t, err := s.combine(keys)
		if err != nil {
			return fmt.Errorf("recombining %q: %w", name, err)
		}
		s.Combined[name] = t
	}
	log.Printf("[INFO][TEMPLATE] Loaded %d templates from %s", len(loaded), root)
	return nil
}

// Combine composes base templates under name; the first key is the entry point
// and the others contribute their {{define}} blocks
func (s *HTMLTemplateStore) Combine(name string, keys ...string) error {
	if len(keys) == 0 {
		return fmt.Errorf("combination %q has no templates", name)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t, err := s.combine(keys)
	if err != nil {
		return err
	}
	s.Combined[name] = t
	s.combos[name] = append([]string(nil), keys...)
	return nil
}

// combine must hold mu
func (s *HTMLTemplateStore) combine(keys []string) (*template.Template, error) {
	entry, ok := s.Base[keys[0]]
	if !ok {
		return nil, fmt.Errorf("template %q not loaded", keys[0])
	}
	t, err := entry.Clone()
	if err != nil {
		return nil, err
	}
	for _, key := range keys[1:] {
		part, ok := s.Base[key]
		if !ok {
			return nil, fmt.Errorf("template %q not loaded", key)
		}
		for _, sub := range part.Templates() {
			if sub.Tree == nil {
				continue
			}
			if _, err = t.AddParseTree(sub.Name(), sub.Tree); err != nil {
				return nil, fmt.Errorf("adding %q from %q: %w", sub.Name(), key, err)
			}
		}
	}
	return t, nil
}

// Render executes a combined (or else base) template into w.
// The output is buffered so a failing template never sends a partial page.
func (s *HTMLTemplateStore) Render(w io.Writer, name string, data any) error {
	s.mu.RLock()
	t, ok := s.Combined[name]
	if !ok {
		t, ok = s.Base[name]
	}
	s.mu.RUnlock()
	if !ok {
		return fmt.Errorf("template %q not found", name)
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return err
	}
	_, err := buf.WriteTo(w)
	return err
}
