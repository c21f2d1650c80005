// Package registry is a thin facade over a hierarchical registry store.
//
// Every function performs one store primitive through the Backend serving
// its Key (enumeration adds a size query first) and reports failures as
// *types.Error values carrying the native status code:
//
//	k, _, err := registry.CreateKey(root, `Software\Example`, nil)
//	if err != nil {
//		return err
//	}
//	defer k.Close()
//	err = registry.SetValue(k, "Count", value.FromDword(0x64))
//
// There is no caching, batching or retry. A failure anywhere in an
// enumeration abandons the whole enumeration.
package registry

import (
	"fmt"

	"github.com/joshuapare/winreg/internal/logger"
	"github.com/joshuapare/winreg/pkg/codec"
	"github.com/joshuapare/winreg/pkg/types"
	"github.com/joshuapare/winreg/pkg/value"
)

// DefaultView is the registry view DeleteKey callers normally pass.
const DefaultView = types.KEY_WOW64_64KEY

// CreateOptions tunes CreateKey. The zero value creates a non-volatile key
// opened for reading and writing.
type CreateOptions struct {
	Options  types.CreateOption
	Access   types.Access // 0 means KEY_READ | KEY_WRITE
	Security *types.SecurityAttributes
}

// OpenKey opens sub below parent with the requested access.
func OpenKey(parent *Key, sub string, access types.Access) (*Key, error) {
	b, h, err := use(parent, "OpenKey")
	if err != nil {
		return nil, err
	}
	child, err := b.OpenKey(h, sub, access)
	if err != nil {
		return nil, storeError("RegOpenKeyEx", fmt.Sprintf("open key %q", sub), err)
	}
	return NewKey(b, child), nil
}

// CreateKey creates or opens sub below parent and reports which happened.
func CreateKey(parent *Key, sub string, opts *CreateOptions) (*Key, types.Disposition, error) {
	b, h, err := use(parent, "CreateKey")
	if err != nil {
		return nil, 0, err
	}
	var o CreateOptions
	if opts != nil {
		o = *opts
	}
	if o.Access == 0 {
		o.Access = types.KEY_READ | types.KEY_WRITE
	}
	child, disp, err := b.CreateKey(h, sub, o.Options, o.Access, o.Security)
	if err != nil {
		return nil, 0, storeError("RegCreateKeyEx", fmt.Sprintf("create key %q", sub), err)
	}
	return NewKey(b, child), disp, nil
}

// QueryInfo reports the counts and maximum lengths of k.
func QueryInfo(k *Key) (types.KeyInfo, error) {
	b, h, err := use(k, "QueryInfo")
	if err != nil {
		return types.KeyInfo{}, err
	}
	info, err := b.QueryInfoKey(h)
	if err != nil {
		return types.KeyInfo{}, storeError("RegQueryInfoKey", "query key info", err)
	}
	return info, nil
}

// EnumerateSubKeyNames lists the names of the direct subkeys of k.
func EnumerateSubKeyNames(k *Key) ([]string, error) {
	b, h, err := use(k, "EnumerateSubKeyNames")
	if err != nil {
		return nil, err
	}
	info, err := b.QueryInfoKey(h)
	if err != nil {
		return nil, storeError("RegQueryInfoKey", "query sub-key info", err)
	}
	name, err := nameBuffer(info.MaxSubKeyLen)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, info.SubKeys)
	for i := uint32(0); i < info.SubKeys; i++ {
		n, err := b.EnumKey(h, i, name)
		if err != nil {
			return nil, storeError("RegEnumKeyEx", fmt.Sprintf("enumerate sub-key %d", i), err)
		}
		s, err := decodeName(name, n)
		if err != nil {
			return nil, err
		}
		names = append(names, s)
	}
	return names, nil
}

// ValueEntry is one enumerated value name with its kind.
type ValueEntry struct {
	Name string
	Kind types.RegType
}

// EnumerateValueNames lists the value names of k.
func EnumerateValueNames(k *Key) ([]string, error) {
	entries, err := EnumerateValues(k)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name
	}
	return names, nil
}

// EnumerateValues lists the value names of k together with their kinds.
// Kinds outside the supported set are reported as they are, not rejected.
func EnumerateValues(k *Key) ([]ValueEntry, error) {
	b, h, err := use(k, "EnumerateValues")
	if err != nil {
		return nil, err
	}
	info, err := b.QueryInfoKey(h)
	if err != nil {
		return nil, storeError("RegQueryInfoKey", "query value info", err)
	}
	name, err := nameBuffer(info.MaxValueNameLen)
	if err != nil {
		return nil, err
	}

	entries := make([]ValueEntry, 0, info.Values)
	for i := uint32(0); i < info.Values; i++ {
		n, kind, err := b.EnumValue(h, i, name)
		if err != nil {
			return nil, storeError("RegEnumValue", fmt.Sprintf("enumerate value %d", i), err)
		}
		s, err := decodeName(name, n)
		if err != nil {
			return nil, err
		}
		entries = append(entries, ValueEntry{Name: s, Kind: kind})
	}
	return entries, nil
}

// QueryValueKind returns the kind and data size in bytes of one value
// without reading it.
func QueryValueKind(k *Key, name string) (types.RegType, uint32, error) {
	b, h, err := use(k, "QueryValueKind")
	if err != nil {
		return types.REG_NONE, 0, err
	}
	kind, size, err := b.QueryValue(h, name, nil)
	if err != nil {
		return types.REG_NONE, 0, storeError("RegQueryValueEx", fmt.Sprintf("query value %q info", name), err)
	}
	return kind, size, nil
}

// QueryValue reads and decodes one value. Values of a kind outside the
// supported set fail with types.ErrUnsupportedKind.
func QueryValue(k *Key, name string) (value.Value, error) {
	b, h, err := use(k, "QueryValue")
	if err != nil {
		return value.Value{}, err
	}
	kind, size, err := b.QueryValue(h, name, nil)
	if err != nil {
		return value.Value{}, storeError("RegQueryValueEx", fmt.Sprintf("query value %q info", name), err)
	}
	if !types.Supported(kind) {
		return value.Value{}, &types.Error{
			Kind: types.ErrKindUnsupported,
			Op:   "QueryValue",
			Msg:  fmt.Sprintf("value %q has unsupported type %s", name, kind),
		}
	}

	data := make([]byte, size)
	kind, n, err := b.QueryValue(h, name, data)
	if err != nil {
		return value.Value{}, storeError("RegQueryValueEx", fmt.Sprintf("read %s value %q", kind, name), err)
	}
	return codec.Decode(kind, data[:min(n, size)])
}

// SetValue encodes v and writes it under name.
func SetValue(k *Key, name string, v value.Value) error {
	b, h, err := use(k, "SetValue")
	if err != nil {
		return err
	}
	kind, data, err := codec.Encode(v)
	if err != nil {
		return err
	}
	return storeError("RegSetValueEx", fmt.Sprintf("write %s value %q", kind, name), b.SetValue(h, name, kind, data))
}

// DeleteValue removes one value of k.
func DeleteValue(k *Key, name string) error {
	b, h, err := use(k, "DeleteValue")
	if err != nil {
		return err
	}
	return storeError("RegDeleteValue", fmt.Sprintf("delete value %q", name), b.DeleteValue(h, name))
}

// DeleteKey removes sub from the given registry view. The key must not
// have subkeys; use DeleteTree to remove a whole subtree.
func DeleteKey(parent *Key, sub string, view types.Access) error {
	b, h, err := use(parent, "DeleteKey")
	if err != nil {
		return err
	}
	return storeError("RegDeleteKeyEx", fmt.Sprintf("delete key %q", sub), b.DeleteKey(h, sub, view))
}

// DeleteTree removes sub with all of its subkeys and values.
func DeleteTree(parent *Key, sub string) error {
	b, h, err := use(parent, "DeleteTree")
	if err != nil {
		return err
	}
	return storeError("RegDeleteTree", fmt.Sprintf("delete tree %q", sub), b.DeleteTree(h, sub))
}

// LoadKey mounts the subtree saved in file as subkey sub of parent.
func LoadKey(parent *Key, sub, file string) error {
	b, h, err := use(parent, "LoadKey")
	if err != nil {
		return err
	}
	return storeError("RegLoadKey", fmt.Sprintf("load %q into %q", file, sub), b.LoadKey(h, sub, file))
}

// SaveKey writes the subtree at k to file, which must not exist.
func SaveKey(k *Key, file string, sa *types.SecurityAttributes) error {
	b, h, err := use(k, "SaveKey")
	if err != nil {
		return err
	}
	return storeError("RegSaveKey", fmt.Sprintf("save to %q", file), b.SaveKey(h, file, sa))
}

// ConnectRegistry opens a predefined root of the store on machine. An empty
// machine name connects to the store b itself.
func ConnectRegistry(b Backend, machine string, root types.Handle) (*Key, error) {
	if b == nil {
		return nil, invalidKey("ConnectRegistry")
	}
	remote, h, err := b.Connect(machine, root)
	if err != nil {
		return nil, storeError("RegConnectRegistry", fmt.Sprintf("connect to %q", machine), err)
	}
	return NewKey(remote, h), nil
}

func use(k *Key, op string) (Backend, types.Handle, error) {
	if !k.IsValid() {
		return nil, 0, invalidKey(op)
	}
	return k.backend, k.handle, nil
}

func invalidKey(op string) error {
	return &types.Error{Kind: types.ErrKindState, Op: op, Msg: "key handle is not valid"}
}

// storeError wraps a failed primitive and logs it at debug level.
func storeError(op, msg string, err error) error {
	if err == nil {
		return nil
	}
	wrapped := types.StoreError(op, msg+" failed", err)
	logger.Debug("store primitive failed", "op", op, "msg", msg, "err", err)
	return wrapped
}

// nameBuffer sizes an enumeration buffer for names of up to maxLen units
// plus a terminator.
func nameBuffer(maxLen uint32) ([]byte, error) {
	size, err := codec.UnitsToBytes(uint64(maxLen) + 1)
	if err != nil {
		return nil, err
	}
	return make([]byte, size), nil
}

func decodeName(name []byte, units uint32) (string, error) {
	n := min(uint64(units)*codec.TextUnitWidth, uint64(len(name)))
	return codec.DecodeUTF16(name[:n])
}
