package regfile

import (
	"strings"

	"golang.org/x/text/encoding/charmap"

	"github.com/joshuapare/winreg/pkg/codec"
	"github.com/joshuapare/winreg/pkg/types"
)

// REGEDIT4 files carry hex(1), hex(2) and hex(7) payloads as single-byte
// Windows-1252 text instead of UTF-16LE.

func isTextKind(k types.RegType) bool {
	return k == types.REG_SZ || k == types.REG_EXPAND_SZ || k == types.REG_MULTI_SZ
}

// ansiToUnits converts an ANSI text payload read from a REGEDIT4 file to
// the store's UTF-16LE form.
func ansiToUnits(kind types.RegType, data []byte) ([]byte, error) {
	if !isTextKind(kind) {
		return data, nil
	}
	text, err := charmap.Windows1252.NewDecoder().Bytes(data)
	if err != nil {
		return nil, formatError("Parse", "invalid ANSI text", err)
	}
	if kind == types.REG_MULTI_SZ {
		var list []string
		for _, s := range strings.Split(string(text), "\x00") {
			if s == "" {
				break
			}
			list = append(list, s)
		}
		return codec.EncodeMultiText(list)
	}
	s, _, _ := strings.Cut(string(text), "\x00")
	return codec.EncodeText(s)
}

// unitsToANSI is the inverse of ansiToUnits.
func unitsToANSI(kind types.RegType, data []byte) ([]byte, error) {
	if !isTextKind(kind) {
		return data, nil
	}
	var text string
	if kind == types.REG_MULTI_SZ {
		list, err := codec.DecodeMultiText(data)
		if err != nil {
			return nil, err
		}
		text = strings.Join(list, "\x00") + "\x00\x00"
		if len(list) == 0 {
			text = "\x00"
		}
	} else {
		s, err := codec.DecodeText(data)
		if err != nil {
			return nil, err
		}
		text = s + "\x00"
	}
	out, err := charmap.Windows1252.NewEncoder().Bytes([]byte(text))
	if err != nil {
		return nil, formatError("Export", "text not representable in ANSI", err)
	}
	return out, nil
}
