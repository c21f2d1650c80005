package types

import (
	"strings"
	"time"
)

// Handle is an opaque reference to an open node in a store. Zero is never a
// valid handle.
type Handle uintptr

// Predefined root handles. Values match the Windows HKEY_* constants.
const (
	HKEY_CLASSES_ROOT   Handle = 0x80000000
	HKEY_CURRENT_USER   Handle = 0x80000001
	HKEY_LOCAL_MACHINE  Handle = 0x80000002
	HKEY_USERS          Handle = 0x80000003
	HKEY_CURRENT_CONFIG Handle = 0x80000005
)

// Roots lists the predefined roots in a stable order.
var Roots = []Handle{
	HKEY_CLASSES_ROOT,
	HKEY_CURRENT_USER,
	HKEY_LOCAL_MACHINE,
	HKEY_USERS,
	HKEY_CURRENT_CONFIG,
}

var rootNames = map[Handle][2]string{
	HKEY_CLASSES_ROOT:   {"HKEY_CLASSES_ROOT", "HKCR"},
	HKEY_CURRENT_USER:   {"HKEY_CURRENT_USER", "HKCU"},
	HKEY_LOCAL_MACHINE:  {"HKEY_LOCAL_MACHINE", "HKLM"},
	HKEY_USERS:          {"HKEY_USERS", "HKU"},
	HKEY_CURRENT_CONFIG: {"HKEY_CURRENT_CONFIG", "HKCC"},
}

// IsPredefined reports whether h is one of the predefined roots.
func (h Handle) IsPredefined() bool {
	_, ok := rootNames[h]
	return ok
}

// RootName returns the long name of a predefined root, or "" otherwise.
func (h Handle) RootName() string {
	return rootNames[h][0]
}

// ParseRoot resolves a long ("HKEY_LOCAL_MACHINE") or short ("HKLM") root
// name, case-insensitively.
func ParseRoot(name string) (Handle, bool) {
	for h, names := range rootNames {
		if strings.EqualFold(name, names[0]) || strings.EqualFold(name, names[1]) {
			return h, true
		}
	}
	return 0, false
}

// Access is a REGSAM access mask.
type Access uint32

const (
	KEY_QUERY_VALUE        Access = 0x0001
	KEY_SET_VALUE          Access = 0x0002
	KEY_CREATE_SUB_KEY     Access = 0x0004
	KEY_ENUMERATE_SUB_KEYS Access = 0x0008
	KEY_NOTIFY             Access = 0x0010
	KEY_CREATE_LINK        Access = 0x0020
	KEY_WOW64_64KEY        Access = 0x0100
	KEY_WOW64_32KEY        Access = 0x0200

	READ_CONTROL Access = 0x00020000

	KEY_READ       = READ_CONTROL | KEY_QUERY_VALUE | KEY_ENUMERATE_SUB_KEYS | KEY_NOTIFY
	KEY_WRITE      = READ_CONTROL | KEY_SET_VALUE | KEY_CREATE_SUB_KEY
	KEY_ALL_ACCESS Access = 0x000F003F

	viewMask = KEY_WOW64_64KEY | KEY_WOW64_32KEY
)

// View returns only the WOW64 view selector bits of a.
func (a Access) View() Access { return a & viewMask }

// Has reports whether every bit of want is granted by a.
func (a Access) Has(want Access) bool { return a&want == want }

// ValidView reports whether a selects at most one registry view.
func (a Access) ValidView() bool { return a.View() != viewMask }

// CreateOption mirrors the dwOptions parameter of RegCreateKeyEx.
type CreateOption uint32

const (
	REG_OPTION_NON_VOLATILE CreateOption = 0x0000
	REG_OPTION_VOLATILE     CreateOption = 0x0001
)

// Disposition reports whether CreateKey made a new node or opened one.
type Disposition uint32

const (
	REG_CREATED_NEW_KEY     Disposition = 1
	REG_OPENED_EXISTING_KEY Disposition = 2
)

func (d Disposition) String() string {
	switch d {
	case REG_CREATED_NEW_KEY:
		return "created"
	case REG_OPENED_EXISTING_KEY:
		return "opened"
	}
	return "unknown"
}

// SecurityAttributes carries an optional security descriptor in SDDL form.
// Stores without a security model ignore it.
type SecurityAttributes struct {
	SDDL          string
	InheritHandle bool
}

// KeyInfo is the subset of RegQueryInfoKey results the facade needs.
// Lengths are in text units, excluding the terminator.
type KeyInfo struct {
	SubKeys         uint32
	MaxSubKeyLen    uint32
	Values          uint32
	MaxValueNameLen uint32
	MaxValueLen     uint32 // bytes
	LastWrite       time.Time
}
