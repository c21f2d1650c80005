// Package value implements the "variant-style" registry value: a tagged union
// over the five kinds the store layer supports.
//
//	Registry type    Go payload
//	-------------    ----------
//	REG_DWORD        uint32
//	REG_SZ           string
//	REG_EXPAND_SZ    string
//	REG_MULTI_SZ     []string
//	REG_BINARY       []byte
//
// Exactly one payload slot is meaningful at a time, selected by Kind. Typed
// accessors called against another kind return types.ErrTypeMismatch; with
// the winregdebug build tag they panic first, since correct callers never
// rely on that error for control flow.
//
// A zero Value has kind REG_NONE. By convention REG_NONE also stands for
// "no value" at call sites that return a Value alongside an error.
package value

import (
	"bytes"
	"fmt"
	"slices"
	"strings"

	"github.com/joshuapare/winreg/internal/assert"
	"github.com/joshuapare/winreg/pkg/types"
)

// Value is a registry value. It is plain data: copy it with Clone when the
// copy must not share the list or byte slices.
type Value struct {
	kind types.RegType

	dword      uint32   // REG_DWORD
	text       string   // REG_SZ
	expandText string   // REG_EXPAND_SZ
	multi      []string // REG_MULTI_SZ
	binary     []byte   // REG_BINARY
}

// New returns an empty value of the given kind. Use the matching setter to
// fill it in.
func New(kind types.RegType) Value {
	return Value{kind: kind}
}

// FromDword returns a REG_DWORD value.
func FromDword(v uint32) Value {
	return Value{kind: types.REG_DWORD, dword: v}
}

// FromText returns a REG_SZ value.
func FromText(s string) Value {
	return Value{kind: types.REG_SZ, text: s}
}

// FromExpandText returns a REG_EXPAND_SZ value. Placeholders are stored raw.
func FromExpandText(s string) Value {
	return Value{kind: types.REG_EXPAND_SZ, expandText: s}
}

// FromMultiText returns a REG_MULTI_SZ value holding a copy of list.
// Entries must be non-empty and free of NUL: the stored form ends the list
// at the first empty entry, so encoding such a list fails with
// types.ErrMalformed. An empty list is fine.
func FromMultiText(list ...string) Value {
	return Value{kind: types.REG_MULTI_SZ, multi: slices.Clone(list)}
}

// FromBinary returns a REG_BINARY value holding a copy of data.
func FromBinary(data []byte) Value {
	return Value{kind: types.REG_BINARY, binary: bytes.Clone(data)}
}

// Kind returns the registry type the value currently holds.
func (v Value) Kind() types.RegType { return v.kind }

// IsEmpty reports whether the value is REG_NONE.
func (v Value) IsEmpty() bool { return v.kind == types.REG_NONE }

// Reset discards every payload and switches the value to kind.
func (v *Value) Reset(kind types.RegType) {
	*v = Value{kind: kind}
}

func (v Value) check(accessor string, want types.RegType) error {
	assert.That(v.kind == want, "value.%s called on a %s value", accessor, v.kind)
	if v.kind != want {
		return &types.Error{
			Kind: types.ErrKindType,
			Op:   "value." + accessor,
			Msg:  fmt.Sprintf("called on a %s value, want %s", v.kind, want),
		}
	}
	return nil
}

// Dword returns the REG_DWORD payload.
func (v Value) Dword() (uint32, error) {
	if err := v.check("Dword", types.REG_DWORD); err != nil {
		return 0, err
	}
	return v.dword, nil
}

// SetDword replaces the REG_DWORD payload.
func (v *Value) SetDword(d uint32) error {
	if err := v.check("SetDword", types.REG_DWORD); err != nil {
		return err
	}
	v.dword = d
	return nil
}

// Text returns the REG_SZ payload.
func (v Value) Text() (string, error) {
	if err := v.check("Text", types.REG_SZ); err != nil {
		return "", err
	}
	return v.text, nil
}

// SetText replaces the REG_SZ payload.
func (v *Value) SetText(s string) error {
	if err := v.check("SetText", types.REG_SZ); err != nil {
		return err
	}
	v.text = s
	return nil
}

// ExpandText returns the raw REG_EXPAND_SZ payload, placeholders unexpanded.
func (v Value) ExpandText() (string, error) {
	if err := v.check("ExpandText", types.REG_EXPAND_SZ); err != nil {
		return "", err
	}
	return v.expandText, nil
}

// SetExpandText replaces the REG_EXPAND_SZ payload.
func (v *Value) SetExpandText(s string) error {
	if err := v.check("SetExpandText", types.REG_EXPAND_SZ); err != nil {
		return err
	}
	v.expandText = s
	return nil
}

// MultiText returns a copy of the REG_MULTI_SZ payload.
func (v Value) MultiText() ([]string, error) {
	if err := v.check("MultiText", types.REG_MULTI_SZ); err != nil {
		return nil, err
	}
	return slices.Clone(v.multi), nil
}

// SetMultiText replaces the REG_MULTI_SZ payload with a copy of list.
func (v *Value) SetMultiText(list []string) error {
	if err := v.check("SetMultiText", types.REG_MULTI_SZ); err != nil {
		return err
	}
	v.multi = slices.Clone(list)
	return nil
}

// AppendMultiText appends strings to the REG_MULTI_SZ payload.
func (v *Value) AppendMultiText(s ...string) error {
	if err := v.check("AppendMultiText", types.REG_MULTI_SZ); err != nil {
		return err
	}
	v.multi = append(v.multi, s...)
	return nil
}

// Binary returns a copy of the REG_BINARY payload.
func (v Value) Binary() ([]byte, error) {
	if err := v.check("Binary", types.REG_BINARY); err != nil {
		return nil, err
	}
	return bytes.Clone(v.binary), nil
}

// SetBinary replaces the REG_BINARY payload with a copy of data.
func (v *Value) SetBinary(data []byte) error {
	if err := v.check("SetBinary", types.REG_BINARY); err != nil {
		return err
	}
	v.binary = bytes.Clone(data)
	return nil
}

// AppendBinary appends bytes to the REG_BINARY payload.
func (v *Value) AppendBinary(b ...byte) error {
	if err := v.check("AppendBinary", types.REG_BINARY); err != nil {
		return err
	}
	v.binary = append(v.binary, b...)
	return nil
}

// Equal reports whether v and o hold the same kind and payload. Nil and
// empty slices compare equal.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case types.REG_DWORD:
		return v.dword == o.dword
	case types.REG_SZ:
		return v.text == o.text
	case types.REG_EXPAND_SZ:
		return v.expandText == o.expandText
	case types.REG_MULTI_SZ:
		return slices.Equal(v.multi, o.multi)
	case types.REG_BINARY:
		return bytes.Equal(v.binary, o.binary)
	}
	return true
}

// Clone returns a deep copy of v.
func (v Value) Clone() Value {
	c := v
	c.multi = slices.Clone(v.multi)
	c.binary = bytes.Clone(v.binary)
	return c
}

// String renders the payload for display: hex for numbers and bytes,
// bracketed text for strings, one bracketed line per list entry.
func (v Value) String() string {
	switch v.kind {
	case types.REG_NONE:
		return "None"
	case types.REG_DWORD:
		return fmt.Sprintf("0x%08X", v.dword)
	case types.REG_SZ:
		return "[" + v.text + "]"
	case types.REG_EXPAND_SZ:
		return "[" + v.expandText + "]"
	case types.REG_MULTI_SZ:
		var b strings.Builder
		for i, s := range v.multi {
			if i > 0 {
				b.WriteByte('\n')
			}
			b.WriteString("[" + s + "]")
		}
		return b.String()
	case types.REG_BINARY:
		parts := make([]string, len(v.binary))
		for i, c := range v.binary {
			parts[i] = fmt.Sprintf("0x%02X", c)
		}
		return strings.Join(parts, " ")
	}
	return types.UnknownKindName
}
