package source

import (
	"bufio"
	"bytes"
	"unicode/utf8"

	json "github.com/goccy/go-json"

	"github.com/reoring/jsondecode/errors"
)

// Span addresses one value inside a stream.
type Span struct {
	Offset int64
	Length int64
}

// Member is one key/value pair located by SplitDict.
type Member struct {
	Key string
	Span
}

// Limits bounds the structures the splitter accepts.
type Limits struct {
	// MaxDepth caps container nesting inside a split window; 0 disables the check.
	MaxDepth int
}

// SplitList locates the elements of the JSON array held in the window
// without decoding them. A well-formed non-array value yields an
// UnexpectedValue error naming its observed kind (the caller fills Type).
func SplitList(s Stream, offset, length int64, lim Limits) ([]Span, error) {
	sc, err := newScanner(s, offset, length, lim)
	if err != nil {
		return nil, err
	}
	if err := sc.open('['); err != nil {
		return nil, err
	}
	var out []Span
	sc.ws()
	if sc.peek() == ']' {
		sc.pos++
		return out, sc.end()
	}
	for {
		sc.ws()
		start, end, err := sc.value(1)
		if err != nil {
			return nil, err
		}
		out = append(out, sc.span(start, end))
		sc.ws()
		switch sc.peek() {
		case ',':
			sc.pos++
		case ']':
			sc.pos++
			return out, sc.end()
		default:
			return nil, sc.errorf("expected ',' or ']' in array")
		}
	}
}

// SplitDict locates the members of the JSON object held in the window.
// Keys are decoded, values are not. Repeated keys are reported in order.
func SplitDict(s Stream, offset, length int64, lim Limits) ([]Member, error) {
	sc, err := newScanner(s, offset, length, lim)
	if err != nil {
		return nil, err
	}
	if err := sc.open('{'); err != nil {
		return nil, err
	}
	var out []Member
	sc.ws()
	if sc.peek() == '}' {
		sc.pos++
		return out, sc.end()
	}
	for {
		sc.ws()
		if sc.peek() != '"' {
			return nil, sc.errorf("expected object key")
		}
		kstart := sc.pos
		if err := sc.str(); err != nil {
			return nil, err
		}
		key, err := sc.key(kstart, sc.pos)
		if err != nil {
			return nil, err
		}
		sc.ws()
		if sc.peek() != ':' {
			return nil, sc.errorf("expected ':' after object key")
		}
		sc.pos++
		sc.ws()
		start, end, err := sc.value(1)
		if err != nil {
			return nil, err
		}
		out = append(out, Member{Key: key, Span: sc.span(start, end)})
		sc.ws()
		switch sc.peek() {
		case ',':
			sc.pos++
		case '}':
			sc.pos++
			return out, sc.end()
		default:
			return nil, sc.errorf("expected ',' or '}' in object")
		}
	}
}

// Peek reports the kind of the value in the window from its first token,
// reading only as many bytes as the token needs.
func Peek(s Stream, offset, length int64) (ValueKind, error) {
	if b, ok := s.(Bytes); ok {
		w, err := b.slice(offset, length)
		if err != nil {
			return "", errors.MalformedInput(offset, err)
		}
		return peekReader(bufio.NewReader(bytes.NewReader(w)), offset)
	}
	r, err := s.Window(offset, length)
	if err != nil {
		return "", errors.MalformedInput(offset, err)
	}
	return peekReader(bufio.NewReaderSize(r, 64), offset)
}

func peekReader(br *bufio.Reader, offset int64) (ValueKind, error) {
	for {
		c, err := br.ReadByte()
		if err != nil {
			return "", errors.Malformedf(offset, "empty input")
		}
		if isSpace(c) {
			continue
		}
		if c != '-' && (c < '0' || c > '9') {
			k, ok := startKind(c)
			if !ok {
				return "", errors.Malformedf(offset, "unexpected character %q", c)
			}
			if k == KindNull || k == KindBool {
				if err := peekLiteral(br, c, offset); err != nil {
					return "", err
				}
			}
			return k, nil
		}
		for {
			c, err = br.ReadByte()
			if err != nil || !isLiteral(c) {
				return KindInt, nil
			}
			if c == '.' || c == 'e' || c == 'E' {
				return KindFloat, nil
			}
		}
	}
}

// peekLiteral reads the rest of a true/false/null token.
func peekLiteral(br *bufio.Reader, first byte, offset int64) error {
	word := []byte{first}
	for len(word) <= len("false") {
		c, err := br.ReadByte()
		if err != nil || !isLiteral(c) {
			break
		}
		word = append(word, c)
	}
	switch string(word) {
	case "null", "true", "false":
		return nil
	}
	return errors.Malformedf(offset, "invalid literal %q", word)
}

func startKind(c byte) (ValueKind, bool) {
	switch c {
	case '{':
		return KindObject, true
	case '[':
		return KindList, true
	case '"':
		return KindString, true
	case 't', 'f':
		return KindBool, true
	case 'n':
		return KindNull, true
	}
	return "", false
}

type scanner struct {
	data []byte
	base int64
	pos  int
	lim  Limits
}

func newScanner(s Stream, offset, length int64, lim Limits) (*scanner, error) {
	data, err := ReadWindow(s, offset, length)
	if err != nil {
		return nil, err
	}
	return &scanner{data: data, base: offset, lim: lim}, nil
}

func (sc *scanner) errorf(format string, args ...any) *errors.Error {
	return errors.Malformedf(sc.base+int64(sc.pos), format, args...)
}

func (sc *scanner) span(start, end int) Span {
	return Span{Offset: sc.base + int64(start), Length: int64(end - start)}
}

func (sc *scanner) peek() byte {
	if sc.pos < len(sc.data) {
		return sc.data[sc.pos]
	}
	return 0
}

func (sc *scanner) ws() {
	for sc.pos < len(sc.data) && isSpace(sc.data[sc.pos]) {
		sc.pos++
	}
}

// open consumes the opening delimiter of the expected container.
func (sc *scanner) open(delim byte) error {
	sc.ws()
	if sc.pos >= len(sc.data) {
		return sc.errorf("empty input")
	}
	c := sc.data[sc.pos]
	if c == delim {
		sc.pos++
		return nil
	}
	if k, ok := startKind(c); ok {
		return errors.UnexpectedValue("", string(k))
	}
	if c == '-' || (c >= '0' && c <= '9') {
		if bytes.ContainsAny(sc.literal(), ".eE") {
			return errors.UnexpectedValue("", string(KindFloat))
		}
		return errors.UnexpectedValue("", string(KindInt))
	}
	return sc.errorf("unexpected character %q", c)
}

// end checks that only whitespace follows the container.
func (sc *scanner) end() error {
	sc.ws()
	if sc.pos != len(sc.data) {
		return sc.errorf("unexpected data after value")
	}
	return nil
}

// value skips one value and returns its bounds. depth counts the
// containers opened so far inside the window.
func (sc *scanner) value(depth int) (int, int, error) {
	start := sc.pos
	switch c := sc.peek(); {
	case c == '"':
		if err := sc.str(); err != nil {
			return 0, 0, err
		}
	case c == '{' || c == '[':
		if err := sc.container(depth + 1); err != nil {
			return 0, 0, err
		}
	case c == '-' || (c >= '0' && c <= '9') || c == 't' || c == 'f' || c == 'n':
		if lit := sc.literal(); !json.Valid(lit) {
			return 0, 0, sc.errorf("invalid literal %q", lit)
		}
	case c == 0 && sc.pos >= len(sc.data):
		return 0, 0, sc.errorf("unexpected end of input")
	default:
		return 0, 0, sc.errorf("unexpected character %q", c)
	}
	return start, sc.pos, nil
}

func (sc *scanner) container(depth int) error {
	if sc.lim.MaxDepth > 0 && depth > sc.lim.MaxDepth {
		return sc.errorf("max depth %d exceeded", sc.lim.MaxDepth)
	}
	closing := byte(']')
	object := sc.data[sc.pos] == '{'
	if object {
		closing = '}'
	}
	sc.pos++
	sc.ws()
	if sc.peek() == closing {
		sc.pos++
		return nil
	}
	for {
		sc.ws()
		if object {
			if sc.peek() != '"' {
				return sc.errorf("expected object key")
			}
			if err := sc.str(); err != nil {
				return err
			}
			sc.ws()
			if sc.peek() != ':' {
				return sc.errorf("expected ':' after object key")
			}
			sc.pos++
			sc.ws()
		}
		if _, _, err := sc.value(depth); err != nil {
			return err
		}
		sc.ws()
		switch sc.peek() {
		case ',':
			sc.pos++
		case closing:
			sc.pos++
			return nil
		default:
			return sc.errorf("expected ',' or %q", closing)
		}
	}
}

// str skips a string literal starting at the opening quote.
func (sc *scanner) str() error {
	sc.pos++
	for sc.pos < len(sc.data) {
		c := sc.data[sc.pos]
		switch {
		case c == '\\':
			if err := sc.escape(); err != nil {
				return err
			}
			continue
		case c >= utf8.RuneSelf:
			r, n := utf8.DecodeRune(sc.data[sc.pos:])
			if r == utf8.RuneError && n == 1 {
				return sc.errorf("invalid UTF-8 in string")
			}
			sc.pos += n
			continue
		case c == '"':
			sc.pos++
			return nil
		case c < 0x20:
			return sc.errorf("control character in string")
		}
		sc.pos++
	}
	return sc.errorf("unterminated string")
}

// escape checks the escape sequence at pos and skips it.
func (sc *scanner) escape() error {
	if sc.pos+1 >= len(sc.data) {
		return sc.errorf("unterminated string")
	}
	switch sc.data[sc.pos+1] {
	case '"', '\\', '/', 'b', 'f', 'n', 'r', 't':
		sc.pos += 2
		return nil
	case 'u':
		if sc.pos+6 > len(sc.data) {
			return sc.errorf("short unicode escape")
		}
		for _, h := range sc.data[sc.pos+2 : sc.pos+6] {
			if !isHex(h) {
				return sc.errorf("invalid unicode escape %q", sc.data[sc.pos:sc.pos+6])
			}
		}
		sc.pos += 6
		return nil
	}
	return sc.errorf("invalid escape %q", sc.data[sc.pos+1])
}

func (sc *scanner) literal() []byte {
	start := sc.pos
	for sc.pos < len(sc.data) && isLiteral(sc.data[sc.pos]) {
		sc.pos++
	}
	return sc.data[start:sc.pos]
}

func (sc *scanner) key(start, end int) (string, error) {
	raw := sc.data[start:end]
	if bytes.IndexByte(raw, '\\') < 0 {
		return string(raw[1 : len(raw)-1]), nil
	}
	var k string
	if err := json.Unmarshal(raw, &k); err != nil {
		return "", errors.MalformedInput(sc.base+int64(start), err)
	}
	return k, nil
}

func isSpace(c byte) bool { return c == ' ' || c == '\t' || c == '\n' || c == '\r' }

func isHex(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func isLiteral(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '-' || c == '+' || c == '.'
}
