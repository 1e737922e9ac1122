// Package transform holds the value transformer registry.
//
// A property may name transformers by id; the compiler checks that every id
// is registered and the provider applies them, in declared order, to the
// decoded value before assignment. Builtins returns the stock set.
package transform
