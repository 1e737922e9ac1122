// Package source is the token stream reader of jsondecode.
//
// A Stream is addressed by windows rather than read sequentially: providers
// ask for [offset, offset+length) and decode exactly that range. Bytes keeps
// the document in memory; Seeker and ReaderAt read only the requested
// window from a file-like handle.
//
// Decode turns a window into a native value. SplitList and SplitDict locate
// element windows of a container without decoding them, and Peek reports the
// kind of a value from its first token. OrderedMap and Sequence are the
// native forms of JSON objects and lazily decoded collections.
package source
