// Package errors provides the structured error taxonomy of jsondecode.
//
// Every failure raised by a decode call is an *Error whose Kind places it in
// one of the categories below. Errors compare with errors.Is against the
// package sentinels, so callers do not need to type-assert:
//
//	v, err := dec.Decode(ctx, input, typ, nil)
//	if errors.Is(err, jderrors.ErrUnexpectedValue) {
//		// the JSON was well-formed but did not match the descriptor
//	}
//
// Kinds:
//   - KindMalformedInput: bytes in a decoded range are not valid JSON.
//   - KindUnexpectedValue: valid JSON that matches no union member, enum case or target field.
//   - KindUnknownTransformer: a descriptor names a transformer that is not registered.
//   - KindTransform: a transformer failed while decoding.
//   - KindCompilation: a descriptor cannot be compiled (unknown class, property, enum ...).
//   - KindCache: the provider cache store failed.
package errors
