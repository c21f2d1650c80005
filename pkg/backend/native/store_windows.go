//go:build windows

package native

import (
	"encoding/binary"
	"errors"
	"time"
	"unsafe"

	"golang.org/x/sys/windows"
	sysreg "golang.org/x/sys/windows/registry"

	"github.com/joshuapare/winreg/internal/portable"
	"github.com/joshuapare/winreg/pkg/registry"
	"github.com/joshuapare/winreg/pkg/types"
)

// x/sys/windows exports only part of the registry surface; the rest is
// called through advapi32 directly.
var (
	modadvapi32 = windows.NewLazySystemDLL("advapi32.dll")

	procRegCreateKeyExW = modadvapi32.NewProc("RegCreateKeyExW")
	procRegEnumValueW   = modadvapi32.NewProc("RegEnumValueW")
	procRegSetValueExW  = modadvapi32.NewProc("RegSetValueExW")
	procRegDeleteValueW = modadvapi32.NewProc("RegDeleteValueW")
	procRegDeleteKeyExW = modadvapi32.NewProc("RegDeleteKeyExW")
	procRegDeleteTreeW  = modadvapi32.NewProc("RegDeleteTreeW")
	procRegLoadKeyW     = modadvapi32.NewProc("RegLoadKeyW")
	procRegSaveKeyW     = modadvapi32.NewProc("RegSaveKeyW")
)

// Store forwards every primitive to the Windows registry. It holds no
// state; handles are real HKEYs.
type Store struct{}

var _ registry.Backend = (*Store)(nil)

// Open returns the native store.
func Open() (registry.Backend, error) {
	return &Store{}, nil
}

// status converts the return code of a raw advapi32 call.
func status(r1 uintptr) error {
	if r1 == 0 {
		return nil
	}
	return types.Status(r1)
}

// errnoStatus converts an error from x/sys/windows to a native status.
func errnoStatus(err error) error {
	var errno windows.Errno
	if errors.As(err, &errno) {
		return types.Status(errno)
	}
	return err
}

// utf16Ptr returns nil for "" when nullable, so the call sees NULL rather
// than an empty string.
func utf16Ptr(s string, nullable bool) (*uint16, error) {
	if s == "" && nullable {
		return nil, nil
	}
	p, err := windows.UTF16PtrFromString(s)
	if err != nil {
		return nil, types.StatusInvalidParameter
	}
	return p, nil
}

func securityAttributes(attrs *types.SecurityAttributes) (*windows.SecurityAttributes, error) {
	if attrs == nil {
		return nil, nil
	}
	sa := &windows.SecurityAttributes{Length: uint32(unsafe.Sizeof(windows.SecurityAttributes{}))}
	if attrs.InheritHandle {
		sa.InheritHandle = 1
	}
	if attrs.SDDL != "" {
		sd, err := windows.SecurityDescriptorFromString(attrs.SDDL)
		if err != nil {
			return nil, errnoStatus(err)
		}
		sa.SecurityDescriptor = sd
	}
	return sa, nil
}

// unitBuffer allocates the UTF-16 buffer a W call fills on behalf of the
// caller's byte buffer.
func unitBuffer(name []byte) ([]uint16, *uint16) {
	units := make([]uint16, len(name)/2)
	if len(units) == 0 {
		return units, nil
	}
	return units, &units[0]
}

// copyUnits writes n units and, when it fits, their terminator into dst.
func copyUnits(dst []byte, units []uint16, n uint32) {
	end := min(int(n)+1, len(units))
	for i, u := range units[:end] {
		binary.LittleEndian.PutUint16(dst[2*i:], u)
	}
}

func bytePtr(b []byte) *byte {
	if len(b) == 0 {
		return nil
	}
	return &b[0]
}

func (s *Store) OpenKey(parent types.Handle, sub string, access types.Access) (types.Handle, error) {
	p, err := utf16Ptr(sub, false)
	if err != nil {
		return 0, err
	}
	var h windows.Handle
	if err := windows.RegOpenKeyEx(windows.Handle(parent), p, 0, uint32(access), &h); err != nil {
		return 0, errnoStatus(err)
	}
	return types.Handle(h), nil
}

func (s *Store) CreateKey(parent types.Handle, sub string, options types.CreateOption, access types.Access,
	attrs *types.SecurityAttributes) (types.Handle, types.Disposition, error) {
	p, err := utf16Ptr(sub, false)
	if err != nil {
		return 0, 0, err
	}
	sa, err := securityAttributes(attrs)
	if err != nil {
		return 0, 0, err
	}
	var (
		h    windows.Handle
		disp uint32
	)
	r1, _, _ := procRegCreateKeyExW.Call(
		uintptr(parent),
		uintptr(unsafe.Pointer(p)),
		0, 0,
		uintptr(options),
		uintptr(access),
		uintptr(unsafe.Pointer(sa)),
		uintptr(unsafe.Pointer(&h)),
		uintptr(unsafe.Pointer(&disp)),
	)
	if err := status(r1); err != nil {
		return 0, 0, err
	}
	return types.Handle(h), types.Disposition(disp), nil
}

func (s *Store) CloseKey(h types.Handle) error {
	if h.IsPredefined() {
		return nil
	}
	return errnoStatus(windows.RegCloseKey(windows.Handle(h)))
}

func (s *Store) QueryInfoKey(h types.Handle) (types.KeyInfo, error) {
	var (
		info types.KeyInfo
		ft   windows.Filetime
	)
	err := windows.RegQueryInfoKey(windows.Handle(h), nil, nil, nil,
		&info.SubKeys, &info.MaxSubKeyLen, nil,
		&info.Values, &info.MaxValueNameLen, &info.MaxValueLen,
		nil, &ft)
	if err != nil {
		return types.KeyInfo{}, errnoStatus(err)
	}
	info.LastWrite = time.Unix(0, ft.Nanoseconds()).UTC()
	return info, nil
}

func (s *Store) EnumKey(h types.Handle, index uint32, name []byte) (uint32, error) {
	units, p := unitBuffer(name)
	n := uint32(len(units))
	if err := windows.RegEnumKeyEx(windows.Handle(h), index, p, &n, nil, nil, nil, nil); err != nil {
		return 0, errnoStatus(err)
	}
	copyUnits(name, units, n)
	return n, nil
}

func (s *Store) EnumValue(h types.Handle, index uint32, name []byte) (uint32, types.RegType, error) {
	units, p := unitBuffer(name)
	var (
		n    = uint32(len(units))
		kind uint32
	)
	r1, _, _ := procRegEnumValueW.Call(
		uintptr(h),
		uintptr(index),
		uintptr(unsafe.Pointer(p)),
		uintptr(unsafe.Pointer(&n)),
		0,
		uintptr(unsafe.Pointer(&kind)),
		0, 0,
	)
	if err := status(r1); err != nil {
		return 0, 0, err
	}
	copyUnits(name, units, n)
	return n, types.RegType(kind), nil
}

func (s *Store) QueryValue(h types.Handle, name string, data []byte) (types.RegType, uint32, error) {
	p, err := utf16Ptr(name, false)
	if err != nil {
		return 0, 0, err
	}
	var (
		kind uint32
		size = uint32(len(data))
	)
	err = windows.RegQueryValueEx(windows.Handle(h), p, nil, &kind, bytePtr(data), &size)
	return types.RegType(kind), size, errnoStatus(err)
}

func (s *Store) SetValue(h types.Handle, name string, kind types.RegType, data []byte) error {
	p, err := utf16Ptr(name, false)
	if err != nil {
		return err
	}
	r1, _, _ := procRegSetValueExW.Call(
		uintptr(h),
		uintptr(unsafe.Pointer(p)),
		0,
		uintptr(kind),
		uintptr(unsafe.Pointer(bytePtr(data))),
		uintptr(len(data)),
	)
	return status(r1)
}

func (s *Store) DeleteValue(h types.Handle, name string) error {
	p, err := utf16Ptr(name, false)
	if err != nil {
		return err
	}
	r1, _, _ := procRegDeleteValueW.Call(uintptr(h), uintptr(unsafe.Pointer(p)))
	return status(r1)
}

func (s *Store) DeleteKey(parent types.Handle, sub string, view types.Access) error {
	p, err := utf16Ptr(sub, false)
	if err != nil {
		return err
	}
	r1, _, _ := procRegDeleteKeyExW.Call(uintptr(parent), uintptr(unsafe.Pointer(p)), uintptr(view), 0)
	return status(r1)
}

func (s *Store) DeleteTree(parent types.Handle, sub string) error {
	p, err := utf16Ptr(sub, true)
	if err != nil {
		return err
	}
	r1, _, _ := procRegDeleteTreeW.Call(uintptr(parent), uintptr(unsafe.Pointer(p)))
	return status(r1)
}

// LoadKey mounts a hive file. The caller needs the restore privilege.
func (s *Store) LoadKey(parent types.Handle, sub, file string) error {
	p, err := utf16Ptr(sub, false)
	if err != nil {
		return err
	}
	f, err := utf16Ptr(file, false)
	if err != nil {
		return err
	}
	r1, _, _ := procRegLoadKeyW.Call(uintptr(parent), uintptr(unsafe.Pointer(p)), uintptr(unsafe.Pointer(f)))
	return status(r1)
}

// SaveKey writes a hive file. The caller needs the backup privilege.
func (s *Store) SaveKey(h types.Handle, file string, attrs *types.SecurityAttributes) error {
	f, err := utf16Ptr(file, false)
	if err != nil {
		return err
	}
	sa, err := securityAttributes(attrs)
	if err != nil {
		return err
	}
	r1, _, _ := procRegSaveKeyW.Call(uintptr(h), uintptr(unsafe.Pointer(f)), uintptr(unsafe.Pointer(sa)))
	return status(r1)
}

func (s *Store) Connect(machine string, root types.Handle) (registry.Backend, types.Handle, error) {
	if !root.IsPredefined() {
		return nil, 0, types.StatusInvalidHandle
	}
	if portable.MachineKey(machine) == "" {
		return s, root, nil
	}
	k, err := sysreg.OpenRemoteKey(machine, sysreg.Key(root))
	if err != nil {
		return nil, 0, errnoStatus(err)
	}
	return s, types.Handle(k), nil
}
