package coderunner

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed languages.yaml
var defaultLanguages []byte

// Language describes how to build and run one source language.
type Language struct {
	ID      string   `yaml:"id" json:"id"`
	Name    string   `yaml:"name" json:"name"`
	Source  string   `yaml:"source" json:"-"`
	Compile []string `yaml:"compile,omitempty" json:"-"`
	Run     []string `yaml:"run" json:"-"`
}

type catalog struct {
	Languages []Language `yaml:"languages"`
}

// DefaultLanguages returns the built-in toolchain catalog.
func DefaultLanguages() (map[string]Language, error) {
	return parseLanguages(defaultLanguages)
}

// LoadLanguages reads a catalog from path. An empty path yields the defaults.
func LoadLanguages(path string) (map[string]Language, error) {
	if path == "" {
		return DefaultLanguages()
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read languages file: %w", err)
	}
	return parseLanguages(b)
}

func parseLanguages(b []byte) (map[string]Language, error) {
	var c catalog
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse languages: %w", err)
	}
	out := make(map[string]Language, len(c.Languages))
	for _, l := range c.Languages {
		l.ID = strings.ToLower(strings.TrimSpace(l.ID))
		if err := l.validate(); err != nil {
			return nil, err
		}
		if _, dup := out[l.ID]; dup {
			return nil, fmt.Errorf("language %q defined twice", l.ID)
		}
		out[l.ID] = l
	}
	if len(out) == 0 {
		return nil, errors.New("no languages defined")
	}
	return out, nil
}

func (l Language) validate() error {
	switch {
	case l.ID == "":
		return errors.New("language with empty id")
	case l.Source == "" || strings.ContainsAny(l.Source, `/\`):
		return fmt.Errorf("language %q: source must be a bare file name", l.ID)
	case len(l.Run) == 0:
		return fmt.Errorf("language %q: run command is empty", l.ID)
	}
	return nil
}

// SortedIDs lists the catalog's language IDs alphabetically.
func SortedIDs(langs map[string]Language) []string {
	ids := make([]string, 0, len(langs))
	for id := range langs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func expand(args []string, dir, file string) []string {
	out := make([]string, len(args))
	r := strings.NewReplacer("{{dir}}", dir, "{{file}}", file)
	for i, a := range args {
		out[i] = r.Replace(a)
	}
	return out
}
