// Package typedesc describes decode targets.
//
// A Type is a tagged variant over scalars, nullables, unions, collections,
// enums and objects. Descriptors are produced outside the decoder (by hand,
// by code generation, or from a YAML/JSON Document) and are the single
// source of truth for compilation.
//
// Every Type has a canonical key (String) that identifies its shape:
//
//	int  ?int  Status|null|string  list<bool>  map<string,Item>  iterable<list<bool>>  Order
//
// Keys are what the compiler de-duplicates providers by, and they parse
// back through Parse, which is also the syntax of Document property types.
package typedesc
