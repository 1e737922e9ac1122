package errors

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/reoring/jsondecode/i18n"
)

// Kind categorizes the error
type Kind string

const (
	KindMalformedInput     Kind = "malformed_input"
	KindUnexpectedValue    Kind = "unexpected_value"
	KindUnknownTransformer Kind = "unknown_transformer"
	KindTransform          Kind = "transform"
	KindCompilation        Kind = "compilation"
	KindCache              Kind = "cache"
)

// Sentinels for errors.Is. They match any *Error of the same Kind.
var (
	ErrMalformedInput     = &Error{Kind: KindMalformedInput}
	ErrUnexpectedValue    = &Error{Kind: KindUnexpectedValue}
	ErrUnknownTransformer = &Error{Kind: KindUnknownTransformer}
	ErrTransform          = &Error{Kind: KindTransform}
	ErrCompilation        = &Error{Kind: KindCompilation}
	ErrCache              = &Error{Kind: KindCache}
)

// Error is the structured error used throughout the decoder.
type Error struct {
	Cause error
	Kind  Kind
	// Type is the canonical key of the descriptor being decoded or compiled.
	Type string
	// Got is the observed kind of the offending JSON value ("int", "object", ...).
	Got string
	// ID names the transformer for transformer errors.
	ID     string
	Detail string
	// Path locates the value inside the document (property names and indexes).
	Path []string
	// Offset is the byte offset of the decoded range, -1 when unknown.
	Offset int64
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(i18n.T(string(e.Kind), map[string]string{"type": e.Type, "got": e.Got, "id": e.ID}))
	if len(e.Path) > 0 {
		b.WriteString(" at /")
		b.WriteString(strings.Join(e.Path, "/"))
	}
	if e.Offset >= 0 && e.Kind == KindMalformedInput {
		b.WriteString(" (offset ")
		b.WriteString(strconv.FormatInt(e.Offset, 10))
		b.WriteByte(')')
	}
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}
	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error { return e.Cause }

// Is reports whether target is an *Error of the same Kind.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Kind == t.Kind
	}
	return false
}

// At returns e with seg prepended to its path. Providers call it while
// unwinding so the final path reads from the document root.
func (e *Error) At(seg string) *Error {
	e.Path = append([]string{seg}, e.Path...)
	return e
}

// MalformedInput reports invalid JSON in the range starting at offset.
func MalformedInput(offset int64, cause error) *Error {
	return &Error{Kind: KindMalformedInput, Offset: offset, Cause: cause}
}

// Malformedf reports invalid JSON with a formatted detail.
func Malformedf(offset int64, format string, args ...any) *Error {
	return &Error{Kind: KindMalformedInput, Offset: offset, Detail: fmt.Sprintf(format, args...)}
}

// UnexpectedValue reports a well-formed value of kind got that typ does not accept.
func UnexpectedValue(typ, got string) *Error {
	return &Error{Kind: KindUnexpectedValue, Type: typ, Got: got, Offset: -1}
}

// UnknownTransformer reports an unregistered transformer id.
func UnknownTransformer(id string) *Error {
	return &Error{Kind: KindUnknownTransformer, ID: id, Offset: -1}
}

// Transform wraps a transformer failure.
func Transform(id string, cause error) *Error {
	return &Error{Kind: KindTransform, ID: id, Cause: cause, Offset: -1}
}

// Compilation reports a descriptor that cannot be compiled.
func Compilation(typ string, format string, args ...any) *Error {
	return &Error{Kind: KindCompilation, Type: typ, Detail: fmt.Sprintf(format, args...), Offset: -1}
}

// Cache wraps a store failure.
func Cache(cause error, detail string) *Error {
	return &Error{Kind: KindCache, Cause: cause, Detail: detail, Offset: -1}
}

// KindOf returns the Kind of err when it is (or wraps) an *Error.
func KindOf(err error) (Kind, bool) {
	for err != nil {
		if e, ok := err.(*Error); ok {
			return e.Kind, true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return "", false
		}
		err = u.Unwrap()
	}
	return "", false
}

// DebugType names the JSON kind of a native decoded value the way error
// messages report it.
func DebugType(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "bool"
	case int64, int, int32:
		return "int"
	case float64, float32:
		return "float"
	case string:
		return "string"
	case []any:
		return "list"
	}
	if k, ok := v.(interface{ JSONKind() string }); ok {
		return k.JSONKind()
	}
	return fmt.Sprintf("%T", v)
}
