// Package provider links provider programs into executable decoders.
//
// Link declares one slot per canonical key, then builds every provider as a
// closure that calls its children through their slots. The resulting Set
// runs over a source.Stream: scalars decode their window, containers split
// it and hand each element window to the element provider.
package provider
