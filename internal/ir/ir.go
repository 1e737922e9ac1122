package ir

// Package ir defines the provider program: the persisted artifact produced by
// the compiler and linked into executable providers. This package is internal
// and not part of the public API.

import (
	"fmt"
	"slices"

	json "github.com/goccy/go-json"
)

// Version identifies the program format. It is part of every cache key, so
// bumping it invalidates all stored artifacts.
const Version = 1

// Op identifies a provider kind.
type Op string

const (
	OpScalar   Op = "scalar"
	OpNullable Op = "nullable"
	OpUnion    Op = "union"
	OpList     Op = "list"
	OpMap      Op = "map"
	OpEnum     Op = "enum"
	OpObject   Op = "object"
)

// Program is a complete set of providers keyed by canonical type key.
type Program struct {
	Version   int                  `json:"version"`
	Root      string               `json:"root"`
	Providers map[string]*Provider `json:"providers"`
}

// Provider describes how to decode one type. Fields are populated per Op.
type Provider struct {
	Op Op `json:"op"`
	// Scalar is the scalar kind of OpScalar providers.
	Scalar string `json:"scalar,omitempty"`
	// Inner is the key of the wrapped type (nullable) or element type (list, map).
	Inner string `json:"inner,omitempty"`
	// KeyKind is "string" or "int" for OpMap.
	KeyKind string `json:"key_kind,omitempty"`
	Lazy    bool   `json:"lazy,omitempty"`
	// Dispatch maps an observed JSON kind to the ordered candidate keys of a union.
	Dispatch map[string][]string `json:"dispatch,omitempty"`
	Enum     string              `json:"enum,omitempty"`
	Backing  string              `json:"backing,omitempty"`
	Class    string              `json:"class,omitempty"`
	Fields   []Field             `json:"fields,omitempty"`
}

// Field maps a JSON member name to a class property.
type Field struct {
	Source       string   `json:"source"`
	Property     string   `json:"property"`
	Provider     string   `json:"provider"`
	Transformers []string `json:"transformers,omitempty"`
}

// New returns an empty program rooted at root.
func New(root string) *Program {
	return &Program{Version: Version, Root: root, Providers: map[string]*Provider{}}
}

// Marshal encodes the program. Map keys are sorted, so equal programs
// encode to equal bytes.
func (p *Program) Marshal() ([]byte, error) {
	return json.MarshalIndent(p, "", "  ")
}

// Unmarshal decodes and validates a program.
func Unmarshal(data []byte) (*Program, error) {
	var p Program
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, err
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// Validate checks the format version and that every referenced provider exists.
func (p *Program) Validate() error {
	if p.Version != Version {
		return fmt.Errorf("ir: program version %d, want %d", p.Version, Version)
	}
	if _, ok := p.Providers[p.Root]; !ok {
		return fmt.Errorf("ir: root provider %q is missing", p.Root)
	}
	for _, key := range p.Keys() {
		for _, ref := range p.Providers[key].refs() {
			if _, ok := p.Providers[ref]; !ok {
				return fmt.Errorf("ir: provider %q references missing %q", key, ref)
			}
		}
	}
	return nil
}

// Keys returns the provider keys in sorted order.
func (p *Program) Keys() []string {
	keys := make([]string, 0, len(p.Providers))
	for k := range p.Providers {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

func (pr *Provider) refs() []string {
	var out []string
	if pr.Inner != "" {
		out = append(out, pr.Inner)
	}
	for _, cands := range pr.Dispatch {
		out = append(out, cands...)
	}
	for _, f := range pr.Fields {
		out = append(out, f.Provider)
	}
	return out
}
