package registry

import "github.com/joshuapare/winreg/pkg/types"

// Backend is the set of store primitives the facade drives. Each method maps
// onto exactly one native registry call and reports failure as a
// types.Status error, the way the native API returns a status code.
//
// Name and data buffers are sized by the caller. A buffer that is too small
// fails with types.StatusMoreData; a nil data buffer passed to QueryValue
// asks only for the kind and size.
type Backend interface {
	// OpenKey opens sub below parent (RegOpenKeyEx).
	OpenKey(parent types.Handle, sub string, access types.Access) (types.Handle, error)

	// CreateKey opens sub below parent, creating every missing node on the
	// way (RegCreateKeyEx).
	CreateKey(parent types.Handle, sub string, options types.CreateOption, access types.Access,
		sa *types.SecurityAttributes) (types.Handle, types.Disposition, error)

	// CloseKey releases h (RegCloseKey). Closing a predefined root succeeds
	// and does nothing.
	CloseKey(h types.Handle) error

	// QueryInfoKey reports counts and maximum lengths for h (RegQueryInfoKey).
	QueryInfoKey(h types.Handle) (types.KeyInfo, error)

	// EnumKey writes the UTF-16LE name of subkey index into name, without a
	// terminator, and returns its length in text units (RegEnumKeyEx).
	// Indexes past the end fail with types.StatusNoMoreItems.
	EnumKey(h types.Handle, index uint32, name []byte) (uint32, error)

	// EnumValue is EnumKey for value names, also reporting the value kind
	// (RegEnumValue).
	EnumValue(h types.Handle, index uint32, name []byte) (uint32, types.RegType, error)

	// QueryValue reads the kind and data of one value into data and returns
	// the number of bytes the data occupies (RegQueryValueEx).
	QueryValue(h types.Handle, name string, data []byte) (types.RegType, uint32, error)

	// SetValue writes data under name with the given kind (RegSetValueEx).
	SetValue(h types.Handle, name string, kind types.RegType, data []byte) error

	// DeleteValue removes one value (RegDeleteValue).
	DeleteValue(h types.Handle, name string) error

	// DeleteKey removes sub, which must have no subkeys, from the registry
	// view selected by view (RegDeleteKeyEx).
	DeleteKey(parent types.Handle, sub string, view types.Access) error

	// DeleteTree removes sub and everything below it (RegDeleteTree).
	DeleteTree(parent types.Handle, sub string) error

	// LoadKey mounts the saved subtree in file as a new subkey sub of
	// parent (RegLoadKey).
	LoadKey(parent types.Handle, sub, file string) error

	// SaveKey writes the subtree at h to a new file (RegSaveKey).
	SaveKey(h types.Handle, file string, sa *types.SecurityAttributes) error

	// Connect opens the predefined root on machine and returns the backend
	// that serves the returned handle (RegConnectRegistry). An empty machine
	// names the local store.
	Connect(machine string, root types.Handle) (Backend, types.Handle, error)
}
