package typedesc

import (
	"fmt"
	"sort"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// Document is the serializable form of a descriptor graph: a root
// expression plus the enum and object definitions it references.
type Document struct {
	Enums   map[string]ScalarKind     `yaml:"enums,omitempty" json:"enums,omitempty"`
	Objects map[string][]PropertySpec `yaml:"objects,omitempty" json:"objects,omitempty"`
	Root    string                    `yaml:"root" json:"root"`
}

// PropertySpec is the document form of a Property.
type PropertySpec struct {
	Name         string   `yaml:"name" json:"name"`
	Source       string   `yaml:"source,omitempty" json:"source,omitempty"`
	Type         string   `yaml:"type" json:"type"`
	Transformers []string `yaml:"transformers,omitempty" json:"transformers,omitempty"`
}

// LoadYAML parses a YAML document and builds its root type.
func LoadYAML(data []byte) (Type, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("typedesc: yaml: %w", err)
	}
	return doc.Build()
}

// LoadJSON parses a JSON document and builds its root type.
func LoadJSON(data []byte) (Type, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("typedesc: json: %w", err)
	}
	return doc.Build()
}

// Build resolves the document into a Type. Objects are declared first and
// filled afterwards, so definitions may reference each other in any order,
// including themselves.
func (d *Document) Build() (Type, error) {
	types, err := d.Definitions()
	if err != nil {
		return nil, err
	}
	if d.Root == "" {
		return nil, fmt.Errorf("typedesc: document has no root")
	}
	return Parse(d.Root, lookup(types))
}

// Definitions builds every enum and object of the document, keyed by name.
func (d *Document) Definitions() (map[string]Type, error) {
	types := make(map[string]Type, len(d.Enums)+len(d.Objects))
	for name, backing := range d.Enums {
		if backing != ScalarInt && backing != ScalarString {
			return nil, fmt.Errorf("typedesc: enum %q: backing must be int or string, got %q", name, backing)
		}
		types[name] = EnumOf(name, backing)
	}
	objects := make(map[string]*Object, len(d.Objects))
	for name := range d.Objects {
		if _, dup := types[name]; dup {
			return nil, fmt.Errorf("typedesc: %q is defined as both enum and object", name)
		}
		o := &Object{Name: name}
		objects[name] = o
		types[name] = o
	}
	resolve := lookup(types)
	for name, specs := range d.Objects {
		o := objects[name]
		for _, ps := range specs {
			t, err := Parse(ps.Type, resolve)
			if err != nil {
				return nil, fmt.Errorf("typedesc: %s.%s: %w", name, ps.Name, err)
			}
			o.Properties = append(o.Properties, Property{
				Name:         ps.Name,
				Source:       ps.Source,
				Type:         t,
				Transformers: ps.Transformers,
			})
		}
	}
	return types, nil
}

func lookup(types map[string]Type) Resolver {
	return func(name string) (Type, bool) {
		t, ok := types[name]
		return t, ok
	}
}

// DocumentOf collects t and every enum and object reachable from it.
func DocumentOf(t Type) *Document {
	doc := &Document{Root: t.String()}
	var walk func(t Type)
	walk = func(t Type) {
		switch v := t.(type) {
		case Nullable:
			walk(v.Inner)
		case Union:
			for _, m := range v.Members {
				walk(m)
			}
		case Collection:
			walk(v.Value)
		case Enum:
			if doc.Enums == nil {
				doc.Enums = make(map[string]ScalarKind)
			}
			doc.Enums[v.Name] = v.Backing
		case *Object:
			if _, seen := doc.Objects[v.Name]; seen {
				return
			}
			if doc.Objects == nil {
				doc.Objects = make(map[string][]PropertySpec)
			}
			specs := make([]PropertySpec, 0, len(v.Properties))
			for _, p := range v.Properties {
				specs = append(specs, PropertySpec{
					Name:         p.Name,
					Source:       p.Source,
					Type:         p.Type.String(),
					Transformers: p.Transformers,
				})
			}
			// registered before descending so cycles terminate
			doc.Objects[v.Name] = specs
			for _, p := range v.Properties {
				walk(p.Type)
			}
		}
	}
	walk(t)
	return doc
}

// Marshal serializes t deterministically (map keys sorted). The output is
// stable for equal descriptors and is what cache keys hash.
func Marshal(t Type) ([]byte, error) {
	return json.Marshal(DocumentOf(t))
}

// MarshalYAML renders the document of t as YAML.
func MarshalYAML(t Type) ([]byte, error) {
	return yaml.Marshal(DocumentOf(t))
}

// Names returns the sorted names of all enums and objects in d.
func (d *Document) Names() []string {
	out := make([]string, 0, len(d.Enums)+len(d.Objects))
	for n := range d.Enums {
		out = append(out, n)
	}
	for n := range d.Objects {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
