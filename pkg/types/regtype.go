package types

import "fmt"

// RegType enumerates Windows registry value types.
// (The numbers align with Windows definitions.)
type RegType uint32

const (
	REG_NONE                       RegType = 0
	REG_SZ                         RegType = 1
	REG_EXPAND_SZ                  RegType = 2
	REG_BINARY                     RegType = 3
	REG_DWORD                      RegType = 4
	REG_DWORD_LE                   RegType = 4 // alias for clarity
	REG_DWORD_BE                   RegType = 5
	REG_LINK                       RegType = 6
	REG_MULTI_SZ                   RegType = 7
	REG_RESOURCE_LIST              RegType = 8
	REG_FULL_RESOURCE_DESCRIPTOR   RegType = 9
	REG_RESOURCE_REQUIREMENTS_LIST RegType = 10
	REG_QWORD                      RegType = 11
)

// UnknownKindName is returned by KindName for kinds outside the supported set.
const UnknownKindName = "Unsupported/Unknown registry value type"

// String implements the Stringer interface for RegType
func (t RegType) String() string {
	switch t {
	case REG_NONE:
		return "REG_NONE"
	case REG_SZ:
		return "REG_SZ"
	case REG_EXPAND_SZ:
		return "REG_EXPAND_SZ"
	case REG_BINARY:
		return "REG_BINARY"
	case REG_DWORD:
		return "REG_DWORD"
	case REG_DWORD_BE:
		return "REG_DWORD_BE"
	case REG_LINK:
		return "REG_LINK"
	case REG_MULTI_SZ:
		return "REG_MULTI_SZ"
	case REG_RESOURCE_LIST:
		return "REG_RESOURCE_LIST"
	case REG_FULL_RESOURCE_DESCRIPTOR:
		return "REG_FULL_RESOURCE_DESCRIPTOR"
	case REG_RESOURCE_REQUIREMENTS_LIST:
		return "REG_RESOURCE_REQUIREMENTS_LIST"
	case REG_QWORD:
		return "REG_QWORD"
	default:
		// Signed so corrupt 0xFFFFxxxx types read as small negatives.
		return fmt.Sprintf("UNKNOWN_TYPE_%d", int32(t))
	}
}

// Supported reports whether t is one of the five kinds the value model carries.
func Supported(t RegType) bool {
	switch t {
	case REG_DWORD, REG_SZ, REG_EXPAND_SZ, REG_MULTI_SZ, REG_BINARY:
		return true
	}
	return false
}

// KindName maps a supported kind to its canonical display name. Everything
// else, REG_NONE included, maps to UnknownKindName.
func KindName(t RegType) string {
	if !Supported(t) {
		return UnknownKindName
	}
	return t.String()
}

// ParseRegType accepts the canonical names ("REG_SZ") and the short forms
// used on the command line ("sz", "dword", "multi_sz", ...).
func ParseRegType(s string) (RegType, error) {
	switch s {
	case "REG_SZ", "sz", "string":
		return REG_SZ, nil
	case "REG_EXPAND_SZ", "expand_sz", "expand":
		return REG_EXPAND_SZ, nil
	case "REG_BINARY", "binary", "hex":
		return REG_BINARY, nil
	case "REG_DWORD", "dword":
		return REG_DWORD, nil
	case "REG_MULTI_SZ", "multi_sz", "multi":
		return REG_MULTI_SZ, nil
	}
	return REG_NONE, &Error{Kind: ErrKindUnsupported, Msg: fmt.Sprintf("unknown value type %q", s)}
}
