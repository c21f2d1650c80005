package regfile

import (
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"

	"github.com/joshuapare/winreg/pkg/types"
)

// decodeInput turns raw file bytes into UTF-8 text. A UTF-16LE or UTF-8
// byte order mark decides the encoding; otherwise a REGEDIT4 header means
// Windows-1252 and anything else is taken as UTF-8.
func decodeInput(data []byte) (string, error) {
	switch {
	case bytes.HasPrefix(data, utf16LEBOM):
		dec := unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM).NewDecoder()
		out, err := dec.Bytes(data)
		if err != nil {
			return "", formatError("decode", "invalid UTF-16LE input", err)
		}
		return string(out), nil
	case bytes.HasPrefix(data, utf8BOM):
		return string(data[len(utf8BOM):]), nil
	case bytes.HasPrefix(data, []byte(Header4)):
		out, err := charmap.Windows1252.NewDecoder().Bytes(data)
		if err != nil {
			return "", formatError("decode", "invalid Windows-1252 input", err)
		}
		return string(out), nil
	}
	return string(data), nil
}

// encoderFor returns the header and text encoder for an output encoding.
func encoderFor(name string) (string, *encoding.Encoder, error) {
	switch strings.ToUpper(name) {
	case "", EncodingUTF16LE:
		return Header5, unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder(), nil
	case EncodingUTF8:
		return Header5, nil, nil
	case EncodingANSI:
		return Header4, charmap.Windows1252.NewEncoder(), nil
	}
	return "", nil, formatError("Export", fmt.Sprintf("unsupported encoding %q", name), nil)
}

func formatError(op, msg string, err error) error {
	return &types.Error{Kind: types.ErrKindFormat, Op: "regfile." + op, Msg: msg, Err: err}
}
