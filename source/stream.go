package source

import (
	"bytes"
	"fmt"
	"io"

	"github.com/reoring/jsondecode/errors"
)

// Stream is a byte source addressed by windows. Providers never read a
// stream sequentially; they ask for the exact [offset, offset+length) range
// they decode. A negative length means "to the end of the source".
//
// A reader returned by Window must be drained before the next call on the
// same stream. Streams are not safe for concurrent use.
type Stream interface {
	Window(offset, length int64) (io.Reader, error)
}

// Bytes is a fully buffered, re-readable source.
type Bytes []byte

// Window implements Stream.
func (b Bytes) Window(offset, length int64) (io.Reader, error) {
	w, err := b.slice(offset, length)
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(w), nil
}

func (b Bytes) slice(offset, length int64) ([]byte, error) {
	if offset < 0 || offset > int64(len(b)) {
		return nil, fmt.Errorf("source: offset %d outside [0,%d]", offset, len(b))
	}
	end := int64(len(b))
	if length >= 0 {
		if offset+length > end {
			return nil, io.ErrUnexpectedEOF
		}
		end = offset + length
	}
	return b[offset:end], nil
}

// Seeker reads windows from an io.ReadSeeker by seeking to the window start
// and reading no further than its end. The handle's cursor moves as a side
// effect.
type Seeker struct{ rs io.ReadSeeker }

// NewSeeker wraps rs.
func NewSeeker(rs io.ReadSeeker) *Seeker { return &Seeker{rs: rs} }

// Window implements Stream.
func (s *Seeker) Window(offset, length int64) (io.Reader, error) {
	if _, err := s.rs.Seek(offset, io.SeekStart); err != nil {
		return nil, err
	}
	if length < 0 {
		return s.rs, nil
	}
	return io.LimitReader(s.rs, length), nil
}

// ReaderAt reads windows from an io.ReaderAt of known size.
type ReaderAt struct {
	ra   io.ReaderAt
	size int64
}

// NewReaderAt wraps ra, whose content is size bytes long.
func NewReaderAt(ra io.ReaderAt, size int64) *ReaderAt { return &ReaderAt{ra: ra, size: size} }

// Window implements Stream.
func (s *ReaderAt) Window(offset, length int64) (io.Reader, error) {
	if length < 0 {
		length = s.size - offset
	}
	return io.NewSectionReader(s.ra, offset, length), nil
}

// Buffer drains a forward-only reader into memory. It is the fallback for
// inputs that can neither seek nor read at offsets.
func Buffer(r io.Reader) (Bytes, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return Bytes(data), nil
}

// ReadWindow returns the bytes of a window. Short reads of a bounded window
// are reported as malformed input.
func ReadWindow(s Stream, offset, length int64) ([]byte, error) {
	if b, ok := s.(Bytes); ok {
		w, err := b.slice(offset, length)
		if err != nil {
			return nil, errors.MalformedInput(offset, err)
		}
		return w, nil
	}
	r, err := s.Window(offset, length)
	if err != nil {
		return nil, errors.MalformedInput(offset, err)
	}
	var data []byte
	if length >= 0 {
		data = make([]byte, length)
		if _, err := io.ReadFull(r, data); err != nil {
			return nil, errors.MalformedInput(offset, err)
		}
		return data, nil
	}
	data, err = io.ReadAll(r)
	if err != nil {
		return nil, errors.MalformedInput(offset, err)
	}
	return data, nil
}
