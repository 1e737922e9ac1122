// Package compiler translates type descriptors into provider programs.
//
// The compiler validates a descriptor against its Env (registered classes,
// properties, enums and transformers) and emits one ir.Provider per
// canonical key. A key is declared before its children are compiled, so
// self-referential descriptors compile to a finite program. Unions get a
// dispatch table keyed by the observed JSON kind.
package compiler
