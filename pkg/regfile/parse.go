package regfile

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/joshuapare/winreg/pkg/codec"
	"github.com/joshuapare/winreg/pkg/types"
)

// OpKind identifies the change an Op describes.
type OpKind int

const (
	OpCreateKey   OpKind = iota + 1 // [Path]
	OpDeleteKey                     // [-Path], recursive
	OpSetValue                      // "Name"=data
	OpDeleteValue                   // "Name"=-
)

func (k OpKind) String() string {
	switch k {
	case OpCreateKey:
		return "create-key"
	case OpDeleteKey:
		return "delete-key"
	case OpSetValue:
		return "set-value"
	case OpDeleteValue:
		return "delete-value"
	}
	return "unknown"
}

// Op is one change read from a .reg file. Name, Type and Data are set only
// for value operations; Data is in the store's wire format.
type Op struct {
	Kind OpKind
	Path string
	Name string
	Type types.RegType
	Data []byte
}

// Parse reads a .reg file into the operations it describes, in file order.
func Parse(data []byte) ([]Op, error) {
	text, err := decodeInput(data)
	if err != nil {
		return nil, err
	}
	lines := strings.Split(strings.ReplaceAll(text, crlf, "\n"), "\n")

	var (
		ops     []Op
		current string
		header  string
	)
	for i := 0; i < len(lines); i++ {
		lineNo := i + 1
		trim := strings.TrimSpace(lines[i])
		if trim == "" || strings.HasPrefix(trim, commentPrefix) {
			continue
		}
		if header == "" {
			if trim != Header5 && trim != Header4 {
				return nil, parseError(lineNo, "missing header")
			}
			header = trim
			continue
		}

		if strings.HasPrefix(trim, keyOpenBracket) {
			if !strings.HasSuffix(trim, keyCloseBracket) {
				return nil, parseError(lineNo, fmt.Sprintf("malformed section %q", trim))
			}
			section := strings.TrimSuffix(strings.TrimPrefix(trim, keyOpenBracket), keyCloseBracket)
			if strings.HasPrefix(section, deleteKeyPrefix) {
				ops = append(ops, Op{Kind: OpDeleteKey, Path: cleanPath(section[1:])})
				current = ""
				continue
			}
			current = cleanPath(section)
			if current == "" {
				return nil, parseError(lineNo, "empty key path")
			}
			ops = append(ops, Op{Kind: OpCreateKey, Path: current})
			continue
		}

		if current == "" {
			return nil, parseError(lineNo, fmt.Sprintf("value without section: %q", trim))
		}
		name, payload, err := splitValueLine(trim)
		if err != nil {
			return nil, parseError(lineNo, err.Error())
		}
		// Hex payloads may continue over following lines.
		if strings.HasPrefix(payload, hexWord) {
			for strings.HasSuffix(payload, string(continuationMark)) && i+1 < len(lines) {
				i++
				payload = payload[:len(payload)-1] + strings.TrimSpace(lines[i])
			}
		}
		op, err := parseValue(current, name, payload, header == Header4)
		if err != nil {
			return nil, parseError(lineNo, err.Error())
		}
		ops = append(ops, op)
	}
	if header == "" {
		return nil, parseError(0, "missing header")
	}
	return ops, nil
}

// splitValueLine separates `"name"=payload` or `@=payload`.
func splitValueLine(line string) (string, string, error) {
	if strings.HasPrefix(line, defaultValuePrefix) {
		return "", strings.TrimSpace(line[len(defaultValuePrefix):]), nil
	}
	if !strings.HasPrefix(line, quote) {
		return "", "", fmt.Errorf("malformed value line %q", line)
	}
	end := findClosingQuote(line)
	if end < 0 {
		return "", "", fmt.Errorf("unterminated value name in %q", line)
	}
	rest := strings.TrimSpace(line[end+1:])
	if !strings.HasPrefix(rest, valueAssignment) {
		return "", "", fmt.Errorf("missing '=' in %q", line)
	}
	return unescapeString(line[1:end]), strings.TrimSpace(rest[1:]), nil
}

func parseValue(path, name, payload string, ansi bool) (Op, error) {
	if payload == deleteValueToken {
		return Op{Kind: OpDeleteValue, Path: path, Name: name}, nil
	}
	op := Op{Kind: OpSetValue, Path: path, Name: name}

	switch {
	case strings.HasPrefix(payload, quote):
		if len(payload) < 2 || findClosingQuote(payload) != len(payload)-1 {
			return Op{}, fmt.Errorf("unterminated string %q", payload)
		}
		data, err := codec.EncodeText(unescapeString(payload[1 : len(payload)-1]))
		if err != nil {
			return Op{}, err
		}
		op.Type, op.Data = types.REG_SZ, data
	case strings.HasPrefix(payload, dwordPrefix):
		hexPart := payload[len(dwordPrefix):]
		if len(hexPart) != dwordHexLength {
			return Op{}, fmt.Errorf("invalid dword %q", payload)
		}
		n, err := strconv.ParseUint(hexPart, 16, 32)
		if err != nil {
			return Op{}, fmt.Errorf("invalid dword %q: %w", payload, err)
		}
		op.Type, op.Data = types.REG_DWORD, codec.EncodeDword(uint32(n))
	case strings.HasPrefix(payload, hexWord):
		kind, data, err := parseHexPayload(payload)
		if err != nil {
			return Op{}, err
		}
		if ansi {
			if data, err = ansiToUnits(kind, data); err != nil {
				return Op{}, err
			}
		}
		op.Type, op.Data = kind, data
	default:
		return Op{}, fmt.Errorf("unsupported value %q", payload)
	}
	return op, nil
}

// parseHexPayload reads `hex:..` as REG_BINARY and `hex(n):..` as kind n,
// with n in hexadecimal as regedit writes it.
func parseHexPayload(payload string) (types.RegType, []byte, error) {
	kind := types.REG_BINARY
	rest := payload[len(hexWord):]
	if strings.HasPrefix(rest, "(") {
		closeParen := strings.IndexByte(rest, ')')
		if closeParen < 0 {
			return 0, nil, fmt.Errorf("malformed hex type in %q", payload)
		}
		n, err := strconv.ParseUint(rest[1:closeParen], 16, 32)
		if err != nil {
			return 0, nil, fmt.Errorf("malformed hex type in %q: %w", payload, err)
		}
		kind = types.RegType(n)
		rest = rest[closeParen+1:]
	}
	if !strings.HasPrefix(rest, ":") {
		return 0, nil, fmt.Errorf("missing ':' in %q", payload)
	}
	data, err := parseHexBytes(rest[1:])
	if err != nil {
		return 0, nil, err
	}
	return kind, data, nil
}

// parseHexBytes reads comma-separated two-digit hex bytes. Whitespace is
// ignored and single-digit bytes are zero-padded.
func parseHexBytes(s string) ([]byte, error) {
	parts := strings.Split(s, hexByteSeparator)
	out := make([]byte, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		b, err := strconv.ParseUint(p, 16, 8)
		if err != nil {
			return nil, fmt.Errorf("invalid hex byte %q", p)
		}
		out = append(out, byte(b))
	}
	return out, nil
}

// findClosingQuote finds the closing quote of a string starting at index 0,
// skipping quotes preceded by an odd number of backslashes.
func findClosingQuote(line string) int {
	for i := 1; i < len(line); i++ {
		if line[i] != '"' {
			continue
		}
		n := 0
		for j := i - 1; j >= 0 && line[j] == '\\'; j-- {
			n++
		}
		if n%2 == 0 {
			return i
		}
	}
	return -1
}

func unescapeString(s string) string {
	if strings.IndexByte(s, '\\') == -1 {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) && (s[i+1] == '\\' || s[i+1] == '"') {
			i++
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

// cleanPath trims whitespace and surplus separators from a section path.
func cleanPath(p string) string {
	return strings.Trim(strings.TrimSpace(p), backslash)
}

func parseError(line int, msg string) error {
	if line > 0 {
		msg = fmt.Sprintf("line %d: %s", line, msg)
	}
	return formatError("Parse", msg, nil)
}
