// Package codec converts registry values to and from the flat byte buffers
// the store reads and writes.
//
// # Wire Format
//
//	REG_DWORD      4 bytes, little-endian
//	REG_SZ         UTF-16LE units + one zero unit
//	REG_EXPAND_SZ  same as REG_SZ; placeholders are not expanded here
//	REG_MULTI_SZ   each string + zero unit, then one more zero unit
//	REG_BINARY     bytes verbatim, length carried out of band
//
// An empty REG_MULTI_SZ list is exactly two zero units. Decoders tolerate
// string data without a trailing terminator because the store may return it
// that way, and never read before the start or past the end of the input.
//
// Every encoded length is checked against the store's 32-bit length field;
// payloads that do not fit fail with types.ErrOverflow.
package codec

import (
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/text/encoding/unicode"

	"github.com/joshuapare/winreg/internal/buf"
	"github.com/joshuapare/winreg/pkg/types"
	"github.com/joshuapare/winreg/pkg/value"
)

// utf16le transcodes without adding or stripping byte order marks, so a
// leading U+FEFF in a value survives a round trip.
var utf16le = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)

// DwordSize is the encoded size of a REG_DWORD.
const DwordSize = 4

// zeroUnit is one encoded string terminator.
var zeroUnit = []byte{0x00, 0x00}

// Encode serializes v into its registry type and data buffer.
func Encode(v value.Value) (types.RegType, []byte, error) {
	var (
		data []byte
		err  error
	)
	switch v.Kind() {
	case types.REG_DWORD:
		d, _ := v.Dword()
		data = EncodeDword(d)
	case types.REG_SZ:
		s, _ := v.Text()
		data, err = EncodeText(s)
	case types.REG_EXPAND_SZ:
		s, _ := v.ExpandText()
		data, err = EncodeText(s)
	case types.REG_MULTI_SZ:
		list, _ := v.MultiText()
		data, err = EncodeMultiText(list)
	case types.REG_BINARY:
		b, _ := v.Binary()
		data, err = EncodeBinary(b)
	default:
		return v.Kind(), nil, unsupported("Encode", v.Kind())
	}
	if err != nil {
		return v.Kind(), nil, err
	}
	return v.Kind(), data, nil
}

// Decode builds a Value of kind t from data.
func Decode(t types.RegType, data []byte) (value.Value, error) {
	switch t {
	case types.REG_DWORD:
		d, err := DecodeDword(data)
		if err != nil {
			return value.Value{}, err
		}
		return value.FromDword(d), nil
	case types.REG_SZ:
		s, err := DecodeText(data)
		if err != nil {
			return value.Value{}, err
		}
		return value.FromText(s), nil
	case types.REG_EXPAND_SZ:
		s, err := DecodeText(data)
		if err != nil {
			return value.Value{}, err
		}
		return value.FromExpandText(s), nil
	case types.REG_MULTI_SZ:
		list, err := DecodeMultiText(data)
		if err != nil {
			return value.Value{}, err
		}
		return value.FromMultiText(list...), nil
	case types.REG_BINARY:
		return value.FromBinary(DecodeBinary(data)), nil
	}
	return value.Value{}, unsupported("Decode", t)
}

// EncodeDword returns d as four little-endian bytes.
func EncodeDword(d uint32) []byte {
	return buf.PutU32LE(d)
}

// DecodeDword reads a little-endian uint32. Bytes past the fourth are ignored.
func DecodeDword(data []byte) (uint32, error) {
	if len(data) < DwordSize {
		return 0, malformed("DecodeDword", fmt.Sprintf("need %d bytes, have %d", DwordSize, len(data)))
	}
	return buf.U32LE(data), nil
}

// EncodeText returns s as UTF-16LE followed by exactly one zero unit.
func EncodeText(s string) ([]byte, error) {
	units, err := encodeUnits(s)
	if err != nil {
		return nil, err
	}
	if _, err := UnitsToBytes(uint64(len(units)/TextUnitWidth) + 1); err != nil {
		return nil, err
	}
	return append(units, zeroUnit...), nil
}

// DecodeText reads len(data)/2 text units and drops the last one if it is a
// terminator. Terminated and unterminated buffers decode identically.
func DecodeText(data []byte) (string, error) {
	end := len(data) - len(data)%TextUnitWidth
	if end >= TextUnitWidth && isZeroUnit(data, end-TextUnitWidth) {
		end -= TextUnitWidth
	}
	return decodeUnits(data[:end])
}

// EncodeMultiText packs list with double-zero framing. Elements that are
// empty or contain NUL cannot be told apart from the framing and are rejected.
func EncodeMultiText(list []string) ([]byte, error) {
	encoded := make([][]byte, len(list))
	var total uint64 = 1 // final list terminator
	for i, s := range list {
		if s == "" {
			return nil, malformed("EncodeMultiText", fmt.Sprintf("element %d is empty", i))
		}
		if strings.IndexByte(s, 0) >= 0 {
			return nil, malformed("EncodeMultiText", fmt.Sprintf("element %d contains NUL", i))
		}
		units, err := encodeUnits(s)
		if err != nil {
			return nil, err
		}
		encoded[i] = units
		var ok bool
		if total, ok = buf.AddOverflowSafe(total, uint64(len(units)/TextUnitWidth)+1); !ok {
			return nil, overflow(total)
		}
	}
	size, err := UnitsToBytes(total)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		// Empty list: an empty first string plus the list terminator.
		size = 2 * TextUnitWidth
	}

	var out bytes.Buffer
	out.Grow(int(size))
	for _, units := range encoded {
		out.Write(units)
		out.Write(zeroUnit)
	}
	if len(list) == 0 {
		out.Write(zeroUnit)
	}
	out.Write(zeroUnit)
	return out.Bytes(), nil
}

// DecodeMultiText scans zero-terminated strings until it meets an empty one
// or runs out of units. A final string missing its terminator is kept.
func DecodeMultiText(data []byte) ([]string, error) {
	units := len(data) / TextUnitWidth
	var out []string
	start := 0
	for i := 0; i < units; i++ {
		if !isZeroUnit(data, i*TextUnitWidth) {
			continue
		}
		if i == start {
			return out, nil
		}
		s, err := decodeUnits(data[start*TextUnitWidth : i*TextUnitWidth])
		if err != nil {
			return nil, err
		}
		out = append(out, s)
		start = i + 1
	}
	if start < units {
		s, err := decodeUnits(data[start*TextUnitWidth : units*TextUnitWidth])
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// EncodeBinary returns a copy of data after checking its length.
func EncodeBinary(data []byte) ([]byte, error) {
	if _, err := checkLength(uint64(len(data))); err != nil {
		return nil, err
	}
	return bytes.Clone(data), nil
}

// DecodeBinary returns a copy of data.
func DecodeBinary(data []byte) []byte {
	out := make([]byte, len(data))
	copy(out, data)
	return out
}

// EncodeUTF16 returns s as UTF-16LE units without any terminator.
func EncodeUTF16(s string) ([]byte, error) {
	return encodeUnits(s)
}

// DecodeUTF16 decodes UTF-16LE units with no terminator handling.
func DecodeUTF16(data []byte) (string, error) {
	return decodeUnits(data[:len(data)-len(data)%TextUnitWidth])
}

func encodeUnits(s string) ([]byte, error) {
	if s == "" {
		return []byte{}, nil
	}
	out, err := utf16le.NewEncoder().Bytes([]byte(s))
	if err != nil {
		return nil, &types.Error{Kind: types.ErrKindFormat, Op: "codec", Msg: "encode UTF-16LE", Err: err}
	}
	return out, nil
}

func decodeUnits(data []byte) (string, error) {
	if len(data) == 0 {
		return "", nil
	}
	out, err := utf16le.NewDecoder().Bytes(data)
	if err != nil {
		return "", &types.Error{Kind: types.ErrKindFormat, Op: "codec", Msg: "decode UTF-16LE", Err: err}
	}
	return string(out), nil
}

func isZeroUnit(data []byte, off int) bool {
	return data[off] == 0 && data[off+1] == 0
}

func unsupported(op string, t types.RegType) error {
	return &types.Error{Kind: types.ErrKindUnsupported, Op: "codec." + op, Msg: fmt.Sprintf("unsupported registry value type %s", t)}
}

func malformed(op, msg string) error {
	return &types.Error{Kind: types.ErrKindFormat, Op: "codec." + op, Msg: msg}
}
