package jsondecode

import (
	"io"
	"os"

	"github.com/reoring/jsondecode/errors"
	"github.com/reoring/jsondecode/source"
)

// sizedReaderAt is implemented by *bytes.Reader, *strings.Reader and
// *io.SectionReader.
type sizedReaderAt interface {
	io.ReaderAt
	Size() int64
}

// Stream adapts a decode input to a source.Stream:
//
//   - []byte, string and source.Bytes decode from memory;
//   - source.Stream is used as is;
//   - *os.File and readers with ReadAt and Size read only the windows providers ask for;
//   - other io.ReadSeeker values are read by seeking;
//   - any other io.Reader is buffered into memory first.
func Stream(input any) (source.Stream, error) {
	switch v := input.(type) {
	case source.Stream:
		return v, nil
	case []byte:
		return source.Bytes(v), nil
	case string:
		return source.Bytes(v), nil
	case *os.File:
		fi, err := v.Stat()
		if err != nil {
			return nil, errors.MalformedInput(0, err)
		}
		if fi.Mode().IsRegular() {
			return source.NewReaderAt(v, fi.Size()), nil
		}
		return buffer(v)
	case sizedReaderAt:
		return source.NewReaderAt(v, v.Size()), nil
	case io.ReadSeeker:
		return source.NewSeeker(v), nil
	case io.Reader:
		return buffer(v)
	case nil:
		return nil, errors.Malformedf(0, "nil input")
	}
	return nil, errors.Malformedf(0, "unsupported input type %T", input)
}

func buffer(r io.Reader) (source.Stream, error) {
	b, err := source.Buffer(r)
	if err != nil {
		return nil, errors.MalformedInput(0, err)
	}
	return b, nil
}
