package jsondecode

import (
	"crypto/sha256"
	"encoding/hex"
	"maps"
	"slices"
	"strconv"

	"github.com/reoring/jsondecode/errors"
	"github.com/reoring/jsondecode/internal/ir"
	"github.com/reoring/jsondecode/typedesc"
)

// CacheKey returns the key under which the provider program for t is
// stored when decoding with opts. Only the option names matter, not their
// values.
func (d *Decoder) CacheKey(t typedesc.Type, opts Options) (string, error) {
	return d.cacheKey(t, slices.Sorted(maps.Keys(opts)))
}

// cacheKey hashes the program format version, the descriptor document, the
// transformer set and the sorted option names.
func (d *Decoder) cacheKey(t typedesc.Type, optionNames []string) (string, error) {
	if t == nil {
		return "", errors.Compilation("", "nil type")
	}
	doc, err := typedesc.Marshal(t)
	if err != nil {
		return "", errors.Compilation(t.String(), "serialize descriptor: %v", err)
	}
	names := slices.Clone(optionNames)
	slices.Sort(names)
	names = slices.Compact(names)

	h := sha256.New()
	h.Write([]byte("jsondecode/" + strconv.Itoa(ir.Version) + "\n"))
	h.Write(doc)
	h.Write([]byte("\n"))
	for _, id := range d.transformers.IDs() {
		h.Write([]byte(strconv.Quote(id)))
	}
	h.Write([]byte("\n"))
	for _, n := range names {
		h.Write([]byte(strconv.Quote(n)))
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
