package types

import (
	"errors"
	"fmt"
	"math"
)

// ErrKind classifies errors so callers can branch on intent rather than text.
type ErrKind int

const (
	ErrKindStore       ErrKind = iota + 1 // a store primitive reported a non-success status
	ErrKindUnsupported                    // value kind outside the supported set
	ErrKindType                           // typed accessor used against a different kind
	ErrKindOverflow                       // a size does not fit the 32-bit length field
	ErrKindFormat                         // malformed value bytes or .reg text
	ErrKindState                          // invalid operation for current state (e.g., closed key)
)

func (k ErrKind) String() string {
	switch k {
	case ErrKindStore:
		return "store"
	case ErrKindUnsupported:
		return "unsupported"
	case ErrKindType:
		return "type"
	case ErrKindOverflow:
		return "overflow"
	case ErrKindFormat:
		return "format"
	case ErrKindState:
		return "state"
	}
	return "unknown"
}

// Error is a typed error with an optional native status and underlying cause.
type Error struct {
	Kind ErrKind
	Op   string // primitive or function that failed, e.g. "RegOpenKeyEx"
	Msg  string
	Code Status // native status, meaningful for ErrKindStore
	Err  error  // optional underlying cause
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	msg := e.Msg
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Kind == ErrKindStore && e.Code != StatusSuccess {
		msg = fmt.Sprintf("%s (code %d: %s)", msg, uint32(e.Code), e.Code.Error())
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches on Kind, and on Code too when the target carries one.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || e == nil {
		return false
	}
	if t.Kind != e.Kind {
		return false
	}
	return t.Code == StatusSuccess || t.Code == e.Code
}

// Sentinels for errors.Is.
var (
	// ErrStoreFailed matches any failed store primitive.
	ErrStoreFailed = &Error{Kind: ErrKindStore, Msg: "store operation failed"}
	// ErrNotFound matches a store failure carrying StatusFileNotFound.
	ErrNotFound = &Error{Kind: ErrKindStore, Msg: "not found", Code: StatusFileNotFound}
	// ErrUnsupportedKind indicates a value kind outside the supported set.
	ErrUnsupportedKind = &Error{Kind: ErrKindUnsupported, Msg: "unsupported registry value type"}
	// ErrTypeMismatch indicates a typed accessor was used on a value of a different kind.
	ErrTypeMismatch = &Error{Kind: ErrKindType, Msg: "registry value has different type"}
	// ErrOverflow indicates a size that does not fit the wire length field.
	ErrOverflow = &Error{Kind: ErrKindOverflow, Msg: "size exceeds 32-bit length field"}
	// ErrMalformed indicates bytes or text that cannot be decoded.
	ErrMalformed = &Error{Kind: ErrKindFormat, Msg: "malformed data"}
	// ErrInvalidHandle indicates use of an empty or closed key.
	ErrInvalidHandle = &Error{Kind: ErrKindState, Msg: "key handle is not valid"}
)

// StoreError wraps a backend failure for op. Non-Status errors are kept as
// the cause with StatusSuccess as code.
func StoreError(op, msg string, err error) error {
	if err == nil {
		return nil
	}
	e := &Error{Kind: ErrKindStore, Op: op, Msg: msg}
	var st Status
	if errors.As(err, &st) {
		e.Code = st
	} else {
		e.Err = err
	}
	return e
}

// StatusOf extracts the native status carried by err, if any.
func StatusOf(err error) (Status, bool) {
	var e *Error
	if errors.As(err, &e) && e.Kind == ErrKindStore && e.Code != StatusSuccess {
		return e.Code, true
	}
	var st Status
	if errors.As(err, &st) {
		return st, true
	}
	return StatusSuccess, false
}

// Limits of the store's wire format and name lengths.
const (
	// MaxDataLength is the largest byte count a value's length field can carry.
	MaxDataLength = math.MaxUint32

	// MaxKeyNameLen is the hard limit for key names, in text units.
	MaxKeyNameLen = 255

	// MaxValueNameLen is the hard limit for value names, in text units.
	MaxValueNameLen = 16383
)
