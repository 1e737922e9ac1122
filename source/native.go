package source

import (
	"bytes"
	stderrors "errors"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	json "github.com/goccy/go-json"

	"github.com/reoring/jsondecode/errors"
)

// Decode reads the window [offset, offset+length) and decodes it into a
// native value: nil, bool, int64, float64, string, []any or *OrderedMap.
// Integers that overflow int64 decode as float64. Numbers beyond the
// float64 range decode as ±Inf.
func Decode(s Stream, offset, length int64) (any, error) {
	data, err := ReadWindow(s, offset, length)
	if err != nil {
		return nil, err
	}
	return DecodeBytes(data, offset)
}

// DecodeBytes decodes a complete JSON value held in data. base is the
// absolute offset of data, used in error reports.
func DecodeBytes(data []byte, base int64) (any, error) {
	if !json.Valid(data) || !utf8.Valid(data) {
		return nil, errors.Malformedf(base, "invalid JSON %s", preview(data))
	}
	t := bytes.TrimSpace(data)
	switch t[0] {
	case 'n':
		return nil, nil
	case 't':
		return true, nil
	case 'f':
		return false, nil
	case '"':
		var s string
		if err := json.Unmarshal(t, &s); err != nil {
			return nil, errors.MalformedInput(base, err)
		}
		return s, nil
	case '{', '[':
		dec := json.NewDecoder(bytes.NewReader(t))
		dec.UseNumber()
		tok, err := dec.Token()
		if err != nil {
			return nil, errors.MalformedInput(base, err)
		}
		v, err := decodeValue(dec, tok)
		if err != nil {
			return nil, errors.MalformedInput(base, err)
		}
		return v, nil
	}
	v, err := number(string(t))
	if err != nil {
		return nil, errors.MalformedInput(base, err)
	}
	return v, nil
}

func decodeValue(dec *json.Decoder, tok any) (any, error) {
	switch v := tok.(type) {
	case json.Delim:
		switch v {
		case '{':
			return decodeObject(dec)
		case '[':
			return decodeArray(dec)
		}
	case string:
		return v, nil
	case json.Number:
		return number(string(v))
	case float64:
		return v, nil
	case bool:
		return v, nil
	case nil:
		return nil, nil
	}
	return nil, io.ErrUnexpectedEOF
}

func decodeObject(dec *json.Decoder) (any, error) {
	m := NewOrderedMap(0)
	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		if d, ok := tok.(json.Delim); ok && d == '}' {
			return m, nil
		}
		key, ok := tok.(string)
		if !ok {
			return nil, io.ErrUnexpectedEOF
		}
		vt, err := dec.Token()
		if err != nil {
			return nil, err
		}
		v, err := decodeValue(dec, vt)
		if err != nil {
			return nil, err
		}
		m.Set(key, v)
	}
}

func decodeArray(dec *json.Decoder) (any, error) {
	arr := []any{}
	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		if d, ok := tok.(json.Delim); ok && d == ']' {
			return arr, nil
		}
		v, err := decodeValue(dec, tok)
		if err != nil {
			return nil, err
		}
		arr = append(arr, v)
	}
}

func number(s string) (any, error) {
	if !strings.ContainsAny(s, ".eE") {
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return i, nil
		}
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil && !stderrors.Is(err, strconv.ErrRange) {
		return nil, err
	}
	return f, nil
}

func preview(data []byte) string {
	const limit = 32
	t := bytes.TrimSpace(data)
	if len(t) > limit {
		return strconv.Quote(string(t[:limit])) + "..."
	}
	return strconv.Quote(string(t))
}
