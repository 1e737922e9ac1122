// Package instantiator builds decoded objects without running constructors.
//
// Classes are Go struct types registered under the identity a descriptor
// names. Providers never touch the struct directly: they record property
// values on a Handle, and the object is materialized once population ends.
// Property names resolve to fields through the `jsondecode` tag, the `json`
// tag name, then a case-insensitive match on the field name.
//
//	in := instantiator.New()
//	in.MustRegister("Order", Order{})
//	_ = in.RegisterEnum("Status", StatusOpen, StatusClosed)
//
// Enums are registered by listing their cases; a case's own value is its
// backing value.
package instantiator
