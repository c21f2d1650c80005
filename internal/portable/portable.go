// Package portable holds the registry rules shared by the backends that do
// not call into the native store: name validation and folding, enumeration
// buffer filling, access checks and the restrictions on load and connect.
package portable

import (
	"strings"

	"github.com/joshuapare/winreg/pkg/codec"
	"github.com/joshuapare/winreg/pkg/types"
)

// RootAccess is the access granted through a predefined root handle.
const RootAccess = types.KEY_ALL_ACCESS

// Fold returns the lookup key for a node or value name. Registry names
// compare case-insensitively and keep the case they were created with.
func Fold(name string) string {
	return strings.ToUpper(name)
}

// SplitPath breaks a relative key path into its names. Empty segments from
// doubled or trailing separators are dropped; an empty path yields no names.
func SplitPath(sub string) ([]string, error) {
	if strings.HasPrefix(sub, `\`) {
		return nil, types.StatusInvalidParameter
	}
	var names []string
	for _, name := range strings.Split(sub, `\`) {
		if name == "" {
			continue
		}
		if UnitLen(name) > types.MaxKeyNameLen {
			return nil, types.StatusInvalidParameter
		}
		names = append(names, name)
	}
	return names, nil
}

// UnitLen is the length of s in UTF-16 text units.
func UnitLen(s string) uint32 {
	n := 0
	for _, r := range s {
		if r >= 0x10000 {
			n += 2
		} else {
			n++
		}
	}
	return uint32(n)
}

// PutName writes name as UTF-16LE into buf and returns its length in text
// units. Like the native call, it needs room for a terminator and fails
// with StatusMoreData otherwise.
func PutName(buf []byte, name string) (uint32, error) {
	units, err := codec.EncodeUTF16(name)
	if err != nil {
		return 0, types.StatusInvalidParameter
	}
	if len(units)+codec.TextUnitWidth > len(buf) {
		return 0, types.StatusMoreData
	}
	n := copy(buf, units)
	buf[n], buf[n+1] = 0, 0
	return uint32(len(units) / codec.TextUnitWidth), nil
}

// PutData copies value data into buf for a QueryValue call. A nil buf asks
// only for the size.
func PutData(buf, data []byte) (uint32, error) {
	size := uint32(len(data))
	if buf == nil {
		return size, nil
	}
	if len(buf) < len(data) {
		return size, types.StatusMoreData
	}
	copy(buf, data)
	return size, nil
}

// Require fails with StatusAccessDenied unless granted includes want.
func Require(granted, want types.Access) error {
	if !granted.Has(want) {
		return types.StatusAccessDenied
	}
	return nil
}

// CheckValueName validates a value name. Names with line breaks or NUL are
// refused since the .reg form the portable stores save to cannot carry them.
func CheckValueName(name string) error {
	if UnitLen(name) > types.MaxValueNameLen || strings.ContainsAny(name, "\x00\r\n") {
		return types.StatusInvalidParameter
	}
	return nil
}

// CheckOpen validates the access mask passed to OpenKey and CreateKey.
func CheckOpen(access types.Access) error {
	if !access.ValidView() {
		return types.StatusInvalidParameter
	}
	return nil
}

// CheckLoad validates the target of LoadKey: only HKEY_LOCAL_MACHINE and
// HKEY_USERS accept mounted subtrees, and sub names exactly one new key.
func CheckLoad(parent types.Handle, sub string) error {
	if parent != types.HKEY_LOCAL_MACHINE && parent != types.HKEY_USERS {
		return types.StatusInvalidParameter
	}
	names, err := SplitPath(sub)
	if err != nil {
		return err
	}
	if len(names) != 1 {
		return types.StatusInvalidParameter
	}
	return nil
}

// RemoteRoot reports whether root can be opened on another machine.
func RemoteRoot(root types.Handle) bool {
	return root == types.HKEY_LOCAL_MACHINE || root == types.HKEY_USERS
}

// MachineKey normalizes a machine name for lookup: leading backslashes are
// dropped and case is folded. "" and "." name the local machine.
func MachineKey(machine string) string {
	m := Fold(strings.TrimLeft(machine, `\`))
	if m == "." {
		return ""
	}
	return m
}
