package instantiator

import (
	stderrors "errors"
	"reflect"
	"testing"
	"time"

	"github.com/reoring/jsondecode/errors"
	"github.com/reoring/jsondecode/source"
	"github.com/reoring/jsondecode/typedesc"
)

type status int

const (
	statusOpen   status = 1
	statusClosed status = 2
)

type color string

type line struct {
	SKU string `json:"sku"`
	Qty uint8
}

type order struct {
	ID       int64 `jsondecode:"id" json:"order_id"`
	Name     string
	Status   status
	Color    *color
	Lines    []line
	Tags     map[string]int32
	ByNumber map[int]string
	Range    [2]int
	At       time.Time
	Parent   *order
	Extra    any
	Skipped  string `json:"-"`
	internal string
}

func newOrders(t *testing.T) *Instantiator {
	t.Helper()
	in := New()
	in.MustRegister("Order", &order{})
	if err := RegisterType[line](in, "Line"); err != nil {
		t.Fatalf("register line: %v", err)
	}
	if err := in.RegisterEnum("Status", statusOpen, statusClosed); err != nil {
		t.Fatalf("register enum: %v", err)
	}
	return in
}

func TestRegister_RejectsNonStructs(t *testing.T) {
	if err := New().Register("X", 42); err == nil {
		t.Fatalf("expected error for non-struct sample")
	}
	if err := New().RegisterEnum("E", 1.5); err == nil {
		t.Fatalf("expected error for float enum")
	}
	if err := New().RegisterEnum("E", statusOpen, color("x")); err == nil {
		t.Fatalf("expected error for mixed case types")
	}
}

func TestHasProperty_Resolution(t *testing.T) {
	in := newOrders(t)
	for _, p := range []string{"id", "name", "NAME", "status", "lines", "parent"} {
		if !in.HasProperty("Order", p) {
			t.Fatalf("expected property %q", p)
		}
	}
	for _, p := range []string{"order_id", "Skipped", "internal", "missing"} {
		if in.HasProperty("Order", p) {
			t.Fatalf("unexpected property %q", p)
		}
	}
	if !in.HasProperty("Line", "sku") || !in.HasProperty("Line", "qty") {
		t.Fatalf("line properties not resolved")
	}
	if in.HasClass("Nope") || in.HasProperty("Nope", "x") {
		t.Fatalf("unknown class must not resolve")
	}
}

func TestInstantiate_AssignsInAnyOrder(t *testing.T) {
	in := newOrders(t)
	parent := &order{ID: 1}
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	tags := source.NewOrderedMap(2)
	tags.Set("a", int64(1))
	tags.Set("b", int64(2))
	byNumber := source.NewOrderedMap(1)
	byNumber.Set("7", "seven")
	lines := source.NewSequence(false, func(yield func(key, value any) bool) error {
		yield(0, &line{SKU: "x", Qty: 3})
		return nil
	})
	v, err := in.Instantiate("Order", func(h *Handle) error {
		h.Set("status", statusClosed)
		h.Set("id", int64(10))
		h.Set("name", "first")
		h.Set("name", "dummy")
		h.Set("color", "red")
		h.Set("lines", lines)
		h.Set("tags", tags)
		h.Set("bynumber", byNumber)
		h.Set("range", []int64{1, 10})
		h.Set("at", at)
		h.Set("parent", parent)
		h.Set("extra", []any{true})
		if h.Len() != 11 || !h.Has("id") || h.Identity() != "Order" {
			t.Fatalf("handle state: len=%d", h.Len())
		}
		return nil
	})
	if err != nil {
		t.Fatalf("instantiate: %v", err)
	}
	got := v.(*order)
	red := color("red")
	want := &order{
		ID:       10,
		Name:     "dummy",
		Status:   statusClosed,
		Color:    &red,
		Lines:    []line{{SKU: "x", Qty: 3}},
		Tags:     map[string]int32{"a": 1, "b": 2},
		ByNumber: map[int]string{7: "seven"},
		Range:    [2]int{1, 10},
		At:       at,
		Parent:   parent,
		Extra:    []any{true},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("want %+v, got %+v", want, got)
	}
}

func TestInstantiate_UnsetFieldsKeepZeroValues(t *testing.T) {
	in := newOrders(t)
	v, err := in.Instantiate("Order", func(h *Handle) error {
		h.Set("name", "only")
		h.Set("parent", nil)
		return nil
	})
	if err != nil {
		t.Fatalf("instantiate: %v", err)
	}
	if o := v.(*order); o.ID != 0 || o.Parent != nil || o.Name != "only" {
		t.Fatalf("unexpected %+v", o)
	}
}

func TestInstantiate_Errors(t *testing.T) {
	in := newOrders(t)
	boom := stderrors.New("boom")
	if _, err := in.Instantiate("Order", func(*Handle) error { return boom }); !stderrors.Is(err, boom) {
		t.Fatalf("populate error must propagate, got %v", err)
	}
	if _, err := in.Instantiate("Nope", func(*Handle) error { return nil }); !stderrors.Is(err, errors.ErrCompilation) {
		t.Fatalf("expected compilation error, got %v", err)
	}
	_, err := in.Instantiate("Line", func(h *Handle) error {
		h.Set("qty", int64(300))
		return nil
	})
	var e *errors.Error
	if !stderrors.As(err, &e) || e.Kind != errors.KindUnexpectedValue || len(e.Path) != 1 || e.Path[0] != "qty" {
		t.Fatalf("expected overflow error at qty, got %v", err)
	}
	_, err = in.Instantiate("Order", func(h *Handle) error {
		h.Set("name", int64(1))
		return nil
	})
	if !stderrors.Is(err, errors.ErrUnexpectedValue) {
		t.Fatalf("expected type mismatch, got %v", err)
	}
}

func TestEnumCase(t *testing.T) {
	in := newOrders(t)
	if !in.HasEnum("Status", typedesc.ScalarInt) || in.HasEnum("Status", typedesc.ScalarString) {
		t.Fatalf("unexpected HasEnum result")
	}
	c, err := in.EnumCase("Status", int64(2))
	if err != nil || c != statusClosed {
		t.Fatalf("want statusClosed, got %v (%v)", c, err)
	}
	_, err = in.EnumCase("Status", int64(9))
	if !stderrors.Is(err, errors.ErrUnexpectedValue) || err.Error() != `unexpected "9" value for "Status"` {
		t.Fatalf("unexpected error %v", err)
	}
	if _, err := in.EnumCase("Other", int64(1)); !stderrors.Is(err, errors.ErrCompilation) {
		t.Fatalf("expected compilation error for unknown enum, got %v", err)
	}
}

func TestDynamicClasses(t *testing.T) {
	in := New(WithDynamicClasses())
	if !in.HasClass("Any") || !in.HasProperty("Any", "x") || !in.HasEnum("E", typedesc.ScalarString) {
		t.Fatalf("dynamic instantiator must accept unknown identities")
	}
	v, err := in.Instantiate("Any", func(h *Handle) error {
		h.Set("b", int64(1))
		h.Set("a", "x")
		return nil
	})
	if err != nil {
		t.Fatalf("instantiate: %v", err)
	}
	obj := v.(*Object)
	if obj.Class != "Any" || !reflect.DeepEqual(obj.Keys(), []string{"b", "a"}) {
		t.Fatalf("unexpected object %+v", obj)
	}
	out, err := obj.MarshalJSON()
	if err != nil || string(out) != `{"b":1,"a":"x"}` {
		t.Fatalf("marshal: %s %v", out, err)
	}
	if c, err := in.EnumCase("E", "raw"); err != nil || c != "raw" {
		t.Fatalf("dynamic enum must return backing value, got %v %v", c, err)
	}
}
