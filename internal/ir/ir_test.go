package ir

import (
	"bytes"
	"strings"
	"testing"
)

func sample() *Program {
	p := New("list<Line>")
	p.Providers["list<Line>"] = &Provider{Op: OpList, Inner: "Line"}
	p.Providers["Line"] = &Provider{Op: OpObject, Class: "Line", Fields: []Field{
		{Source: "sku", Property: "sku", Provider: "string", Transformers: []string{"uppercase"}},
	}}
	p.Providers["string"] = &Provider{Op: OpScalar, Scalar: "string"}
	return p
}

func TestMarshal_Deterministic(t *testing.T) {
	a, err := sample().Marshal()
	if err != nil {
		t.Fatal(err)
	}
	b, err := sample().Marshal()
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(a, b) {
		t.Fatalf("equal programs must encode equally:\n%s\n%s", a, b)
	}
	if strings.Index(string(a), `"Line"`) > strings.Index(string(a), `"list<Line>"`) {
		t.Fatalf("provider keys must be sorted:\n%s", a)
	}

	p, err := Unmarshal(a)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got := p.Keys(); strings.Join(got, " ") != "Line list<Line> string" {
		t.Fatalf("unexpected keys %v", got)
	}
	if p.Providers["Line"].Fields[0].Transformers[0] != "uppercase" {
		t.Fatalf("fields must survive a round trip: %+v", p.Providers["Line"])
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Program)
		want   string
	}{
		{"version", func(p *Program) { p.Version = Version + 1 }, "version"},
		{"root", func(p *Program) { p.Root = "Order" }, `root provider "Order"`},
		{"inner", func(p *Program) { delete(p.Providers, "Line") }, `references missing "Line"`},
		{"field", func(p *Program) { delete(p.Providers, "string") }, `references missing "string"`},
		{"dispatch", func(p *Program) {
			p.Providers["u"] = &Provider{Op: OpUnion, Dispatch: map[string][]string{"int": {"int"}}}
		}, `references missing "int"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := sample()
			tt.mutate(p)
			err := p.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("want error containing %q, got %v", tt.want, err)
			}
		})
	}
	if _, err := Unmarshal([]byte(`{"version":`)); err == nil {
		t.Fatalf("expected error for truncated artifact")
	}
}
