package source

import (
	stderrors "errors"
	"math"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/reoring/jsondecode/errors"
)

func streams(t *testing.T, doc string) map[string]Stream {
	t.Helper()
	path := filepath.Join(t.TempDir(), "doc.json")
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = f.Close() })
	return map[string]Stream{
		"bytes":    Bytes(doc),
		"seeker":   NewSeeker(strings.NewReader(doc)),
		"readerat": NewReaderAt(f, int64(len(doc))),
	}
}

func TestDecode_NativeValues(t *testing.T) {
	tests := []struct {
		in   string
		want any
	}{
		{`null`, nil},
		{` true `, true},
		{`false`, false},
		{`42`, int64(42)},
		{`-7`, int64(-7)},
		{`1.5`, 1.5},
		{`1e2`, 100.0},
		{`123456789012345678901234`, 1.2345678901234568e+23},
		{`1e400`, math.Inf(1)},
		{`[-1e400]`, []any{math.Inf(-1)}},
		{`"a\"b"`, `a"b`},
		{`[1,"x",null]`, []any{int64(1), "x", nil}},
		{`[]`, []any{}},
	}
	for _, tt := range tests {
		for name, s := range streams(t, tt.in) {
			got, err := Decode(s, 0, -1)
			if err != nil {
				t.Fatalf("%s %s: %v", name, tt.in, err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("%s %s: want %#v, got %#v", name, tt.in, tt.want, got)
			}
		}
	}
}

func TestDecode_ObjectKeepsOrder(t *testing.T) {
	got, err := Decode(Bytes(`{"b":1,"a":{"z":true,"y":[]},"b":2}`), 0, -1)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	m := got.(*OrderedMap)
	if !reflect.DeepEqual(m.Keys(), []string{"b", "a"}) {
		t.Fatalf("unexpected keys %v", m.Keys())
	}
	if v, _ := m.Get("b"); v != int64(2) {
		t.Fatalf("last duplicate should win, got %v", v)
	}
	inner, _ := m.Get("a")
	if keys := inner.(*OrderedMap).Keys(); !reflect.DeepEqual(keys, []string{"z", "y"}) {
		t.Fatalf("unexpected nested keys %v", keys)
	}
	out, err := m.MarshalJSON()
	if err != nil || string(out) != `{"b":2,"a":{"z":true,"y":[]}}` {
		t.Fatalf("ordered marshal: %s %v", out, err)
	}
}

func TestDecode_Window(t *testing.T) {
	doc := `{"id": 10, "name": "dummy"}`
	for name, s := range streams(t, doc) {
		got, err := Decode(s, 7, 2)
		if err != nil || got != int64(10) {
			t.Fatalf("%s: want 10, got %v (%v)", name, got, err)
		}
	}
}

func TestDecode_Malformed(t *testing.T) {
	for _, in := range []string{``, `tru`, `{"a":}`, `[1,]`, `1 2`, `"unterminated`, "\"\xff\"", `nope`, `null garbage`} {
		_, err := Decode(Bytes(in), 0, -1)
		if !stderrors.Is(err, errors.ErrMalformedInput) {
			t.Fatalf("%q: expected malformed input, got %v", in, err)
		}
	}
	if _, err := Decode(Bytes(`true`), 2, 10); !stderrors.Is(err, errors.ErrMalformedInput) {
		t.Fatalf("window past end must fail, got %v", err)
	}
}

func TestSplitList(t *testing.T) {
	doc := ` [true, {"a": [1, 2]}, "x,]" ] `
	for name, s := range streams(t, doc) {
		spans, err := SplitList(s, 0, -1, Limits{})
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		var parts []string
		for _, sp := range spans {
			parts = append(parts, doc[sp.Offset:sp.Offset+sp.Length])
		}
		want := []string{`true`, `{"a": [1, 2]}`, `"x,]"`}
		if !reflect.DeepEqual(parts, want) {
			t.Fatalf("%s: want %v, got %v", name, want, parts)
		}
	}
	if spans, err := SplitList(Bytes(`[]`), 0, -1, Limits{}); err != nil || len(spans) != 0 {
		t.Fatalf("empty array: %v %v", spans, err)
	}
}

func TestSplitDict(t *testing.T) {
	doc := `{"@id": 10, "name": "dummy", "skip": {"deep": [1]}}`
	members, err := SplitDict(Bytes(doc), 0, -1, Limits{})
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	if len(members) != 3 {
		t.Fatalf("want 3 members, got %d", len(members))
	}
	if members[0].Key != "@id" || doc[members[0].Offset:members[0].Offset+members[0].Length] != "10" {
		t.Fatalf("unexpected first member %+v", members[0])
	}
	if members[1].Key != "name" {
		t.Fatalf("escaped key must be decoded, got %q", members[1].Key)
	}
}

func TestSplit_UnexpectedKindAndMalformed(t *testing.T) {
	_, err := SplitDict(Bytes(`[1]`), 0, -1, Limits{})
	var e *errors.Error
	if !stderrors.As(err, &e) || e.Kind != errors.KindUnexpectedValue || e.Got != "list" {
		t.Fatalf("expected unexpected list, got %v", err)
	}
	_, err = SplitList(Bytes(`1.5`), 0, -1, Limits{})
	if !stderrors.As(err, &e) || e.Got != "float" {
		t.Fatalf("expected unexpected float, got %v", err)
	}
	for _, in := range []string{`{"a" 1}`, `{"a":1,}`, `[1 2]`, `[1]x`, `{"a":tru}`, `[`} {
		if _, err := SplitDict(Bytes(in), 0, -1, Limits{}); err != nil && stderrors.Is(err, errors.ErrMalformedInput) {
			continue
		}
		if _, err := SplitList(Bytes(in), 0, -1, Limits{}); !stderrors.Is(err, errors.ErrMalformedInput) {
			t.Fatalf("%q: expected malformed input, got %v", in, err)
		}
	}
}

func TestSplit_MaxDepth(t *testing.T) {
	if _, err := SplitList(Bytes(`[[[1]]]`), 0, -1, Limits{MaxDepth: 2}); !stderrors.Is(err, errors.ErrMalformedInput) {
		t.Fatalf("expected depth error, got %v", err)
	}
	if _, err := SplitList(Bytes(`[[1]]`), 0, -1, Limits{MaxDepth: 2}); err != nil {
		t.Fatalf("depth 2 must pass: %v", err)
	}
}

func TestPeek(t *testing.T) {
	tests := map[string]ValueKind{
		` null`:   KindNull,
		`true`:    KindBool,
		`-12`:     KindInt,
		`3.25`:    KindFloat,
		`1E3`:     KindFloat,
		`"s"`:     KindString,
		` [1]`:    KindList,
		`{"a":1}`: KindObject,
	}
	for in, want := range tests {
		for name, s := range streams(t, in) {
			got, err := Peek(s, 0, -1)
			if err != nil || got != want {
				t.Fatalf("%s %q: want %s, got %s (%v)", name, in, want, got, err)
			}
		}
	}
	if _, err := Peek(Bytes(`   `), 0, -1); !stderrors.Is(err, errors.ErrMalformedInput) {
		t.Fatalf("expected malformed for blank input, got %v", err)
	}
	for _, in := range []string{`n`, `nul`, `nope`, `nullx`, `tru`, `falsey`} {
		for name, s := range streams(t, in) {
			if k, err := Peek(s, 0, -1); !stderrors.Is(err, errors.ErrMalformedInput) {
				t.Fatalf("%s %q: expected malformed literal, got %s (%v)", name, in, k, err)
			}
		}
	}
	if k, err := Peek(Bytes(`null garbage`), 0, -1); err != nil || k != KindNull {
		t.Fatalf("peek reads the first token only, got %s (%v)", k, err)
	}
}

func TestSplit_InvalidStrings(t *testing.T) {
	for _, in := range []string{
		`{"id":1,"junk":"\q"}`,
		`{"id":1,"junk":{"a":"\u12"}}`,
		`{"id":1,"junk":"\u12G4"}`,
		"{\"id\":1,\"junk\":\"\xff\"}",
		"{\"\xff\":1}",
		`{"id":1,"junk":"\`,
	} {
		if _, err := SplitDict(Bytes(in), 0, -1, Limits{}); !stderrors.Is(err, errors.ErrMalformedInput) {
			t.Fatalf("%q: expected malformed input, got %v", in, err)
		}
	}
	members, err := SplitDict(Bytes(`{"\u00e9t\u00E9":"\/\b\f\n\r\t\"\\","日本":1}`), 0, -1, Limits{})
	if err != nil {
		t.Fatalf("valid escapes and UTF-8 must split: %v", err)
	}
	if members[0].Key != "été" || members[1].Key != "日本" {
		t.Fatalf("unexpected keys %q %q", members[0].Key, members[1].Key)
	}
}

func TestSequence_RestartsAndReportsErrors(t *testing.T) {
	calls := 0
	seq := NewSequence(false, func(yield func(key, value any) bool) error {
		calls++
		for i, v := range []any{true, false} {
			if !yield(i, v) {
				return nil
			}
		}
		return nil
	})
	a, err := seq.Values()
	if err != nil || !reflect.DeepEqual(a, []any{true, false}) {
		t.Fatalf("values: %v %v", a, err)
	}
	b, _ := seq.Values()
	if !reflect.DeepEqual(a, b) || calls != 2 {
		t.Fatalf("sequence must restart, calls=%d", calls)
	}

	boom := stderrors.New("boom")
	failing := NewSequence(true, func(yield func(key, value any) bool) error {
		yield("a", 1)
		return boom
	})
	if _, err := failing.Map(); !stderrors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
}
