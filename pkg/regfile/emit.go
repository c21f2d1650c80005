package regfile

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/joshuapare/winreg/pkg/codec"
	"github.com/joshuapare/winreg/pkg/types"
)

// Entry is one value as the store holds it: raw data plus its kind.
type Entry struct {
	Name string
	Kind types.RegType
	Data []byte
}

// Section is one key and its values. Path is the full key path, e.g.
// `HKEY_CURRENT_USER\Software\Example`.
type Section struct {
	Path   string
	Values []Entry
}

// Options configures Export.
type Options struct {
	// Encoding is EncodingUTF16LE (default), EncodingUTF8 or EncodingANSI.
	Encoding string
}

// Export writes sections as a .reg file. Sections are written in the given
// order; callers emit a parent before its children.
func Export(w io.Writer, sections []Section, opts Options) error {
	header, enc, err := encoderFor(opts.Encoding)
	if err != nil {
		return err
	}
	ansi := header == Header4

	var buf bytes.Buffer
	buf.WriteString(header + crlf + crlf)
	for _, s := range sections {
		buf.WriteString(keyOpenBracket + s.Path + keyCloseBracket + crlf)
		for _, e := range s.Values {
			if err := emitValue(&buf, e, ansi); err != nil {
				return fmt.Errorf("key %q: %w", s.Path, err)
			}
		}
		buf.WriteString(crlf)
	}

	out := buf.Bytes()
	if enc != nil {
		if out, err = enc.Bytes(out); err != nil {
			return formatError("Export", "text not representable in "+opts.Encoding, err)
		}
	}
	_, err = w.Write(out)
	return err
}

func emitValue(buf *bytes.Buffer, e Entry, ansi bool) error {
	if strings.ContainsAny(e.Name, "\x00\r\n") {
		return formatError("Export", fmt.Sprintf("value name %q cannot be written to a .reg file", e.Name), nil)
	}
	var line strings.Builder
	if e.Name == "" {
		line.WriteString(defaultValuePrefix)
	} else {
		line.WriteString(quote + escapeString(e.Name) + quote + valueAssignment)
	}

	switch {
	case e.Kind == types.REG_SZ && quotable(e.Data):
		s, _ := codec.DecodeText(e.Data)
		line.WriteString(quote + escapeString(s) + quote)
		buf.WriteString(line.String())
	case e.Kind == types.REG_DWORD && len(e.Data) == codec.DwordSize:
		d, _ := codec.DecodeDword(e.Data)
		line.WriteString(dwordPrefix)
		fmt.Fprintf(&line, dwordHexFormat, d)
		buf.WriteString(line.String())
	default:
		data := e.Data
		if ansi {
			var err error
			if data, err = unitsToANSI(e.Kind, data); err != nil {
				return err
			}
		}
		if e.Kind == types.REG_BINARY {
			line.WriteString(hexPrefix)
		} else {
			fmt.Fprintf(&line, hexTypeFormat, uint32(e.Kind))
		}
		writeHex(buf, line.String(), data)
	}
	buf.WriteString(crlf)
	return nil
}

// quotable reports whether REG_SZ data survives a round trip through the
// quoted string form: exactly one terminator, no embedded NUL and no line
// breaks.
func quotable(data []byte) bool {
	s, err := codec.DecodeText(data)
	if err != nil || strings.ContainsAny(s, "\x00\r\n") {
		return false
	}
	enc, err := codec.EncodeText(s)
	return err == nil && bytes.Equal(enc, data)
}

// writeHex writes prefix followed by comma-separated bytes, wrapping with
// a trailing backslash before hexLineWidth.
func writeHex(buf *bytes.Buffer, prefix string, data []byte) {
	buf.WriteString(prefix)
	col := len(prefix)
	for i, b := range data {
		fmt.Fprintf(buf, hexByteFormat, b)
		col += 2
		if i == len(data)-1 {
			break
		}
		buf.WriteString(hexByteSeparator)
		col++
		if col+3 >= hexLineWidth-1 {
			buf.WriteString(hexContinuation)
			col = 2
		}
	}
}

func escapeString(s string) string {
	s = strings.ReplaceAll(s, backslash, escapedBackslash)
	s = strings.ReplaceAll(s, quote, escapedQuote)
	return s
}
