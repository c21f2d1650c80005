package memory

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/winreg/pkg/regfile"
	"github.com/joshuapare/winreg/pkg/types"
)

func TestOpenKey_Errors(t *testing.T) {
	s := New()

	_, err := s.OpenKey(types.HKEY_CURRENT_USER, "Missing", types.KEY_READ)
	assert.Equal(t, types.StatusFileNotFound, err)

	_, err = s.OpenKey(0x1234, "", types.KEY_READ)
	assert.Equal(t, types.StatusInvalidHandle, err)

	_, err = s.OpenKey(types.HKEY_CURRENT_USER, "", types.KEY_WOW64_32KEY|types.KEY_WOW64_64KEY)
	assert.Equal(t, types.StatusInvalidParameter, err)

	h, err := s.OpenKey(types.HKEY_CURRENT_USER, "", types.KEY_READ|types.KEY_WOW64_64KEY)
	require.NoError(t, err, "an empty sub opens the parent again")
	require.NoError(t, s.CloseKey(h))
	assert.Equal(t, types.StatusInvalidHandle, s.CloseKey(h))
}

func TestCreateKey_AccessAndVolatile(t *testing.T) {
	s := New()

	ro, _, err := s.CreateKey(types.HKEY_CURRENT_USER, "Parent", 0, types.KEY_READ, nil)
	require.NoError(t, err)
	_, _, err = s.CreateKey(ro, "Child", 0, types.KEY_READ, nil)
	assert.Equal(t, types.StatusAccessDenied, err, "creating needs KEY_CREATE_SUB_KEY")

	vol, disp, err := s.CreateKey(types.HKEY_CURRENT_USER, "Volatile", types.REG_OPTION_VOLATILE, types.KEY_ALL_ACCESS, nil)
	require.NoError(t, err)
	assert.Equal(t, types.REG_CREATED_NEW_KEY, disp)
	_, _, err = s.CreateKey(vol, "Stable", types.REG_OPTION_NON_VOLATILE, types.KEY_ALL_ACCESS, nil)
	assert.Equal(t, types.StatusChildMustBeVolatile, err)
	_, _, err = s.CreateKey(vol, "AlsoVolatile", types.REG_OPTION_VOLATILE, types.KEY_ALL_ACCESS, nil)
	assert.NoError(t, err)

	_, _, err = s.CreateKey(types.HKEY_CURRENT_USER, "", 0, types.KEY_ALL_ACCESS, nil)
	assert.Equal(t, types.StatusInvalidParameter, err)
}

func TestEnumKey_BufferSizing(t *testing.T) {
	s := New()
	h, _, err := s.CreateKey(types.HKEY_CURRENT_USER, `Root\abcd`, 0, types.KEY_ALL_ACCESS, nil)
	require.NoError(t, err)
	require.NoError(t, s.CloseKey(h))

	root, err := s.OpenKey(types.HKEY_CURRENT_USER, "Root", types.KEY_READ)
	require.NoError(t, err)

	info, err := s.QueryInfoKey(root)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), info.SubKeys)
	assert.Equal(t, uint32(4), info.MaxSubKeyLen)

	_, err = s.EnumKey(root, 0, make([]byte, 8))
	assert.Equal(t, types.StatusMoreData, err, "4 units need room for a terminator")

	buf := make([]byte, 10)
	n, err := s.EnumKey(root, 0, buf)
	require.NoError(t, err)
	assert.Equal(t, uint32(4), n)
	assert.Equal(t, []byte{'a', 0, 'b', 0, 'c', 0, 'd', 0, 0, 0}, buf)

	_, err = s.EnumKey(root, 1, buf)
	assert.Equal(t, types.StatusNoMoreItems, err)
}

func TestQueryValue_SizeThenFill(t *testing.T) {
	s := New()
	h, _, err := s.CreateKey(types.HKEY_CURRENT_USER, "V", 0, types.KEY_ALL_ACCESS, nil)
	require.NoError(t, err)
	require.NoError(t, s.SetValue(h, "Blob", types.REG_BINARY, []byte{1, 2, 3}))

	kind, size, err := s.QueryValue(h, "blob", nil)
	require.NoError(t, err)
	assert.Equal(t, types.REG_BINARY, kind)
	assert.Equal(t, uint32(3), size)

	_, size, err = s.QueryValue(h, "Blob", make([]byte, 2))
	assert.Equal(t, types.StatusMoreData, err)
	assert.Equal(t, uint32(3), size)

	buf := make([]byte, 3)
	_, _, err = s.QueryValue(h, "Blob", buf)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, buf)

	// Overwriting keeps the value's position and original name.
	require.NoError(t, s.SetValue(h, "Other", types.REG_DWORD, []byte{0, 0, 0, 0}))
	require.NoError(t, s.SetValue(h, "BLOB", types.REG_DWORD, []byte{9, 0, 0, 0}))
	name := make([]byte, 16)
	n, kind, err := s.EnumValue(h, 0, name)
	require.NoError(t, err)
	assert.Equal(t, types.REG_DWORD, kind)
	assert.Equal(t, []byte{'B', 0, 'l', 0, 'o', 0, 'b', 0}, name[:n*2])

	assert.Equal(t, types.StatusFileNotFound, s.DeleteValue(h, "nope"))
}

func TestLastWrite(t *testing.T) {
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	s := New(WithClock(func() time.Time { return now }))
	h, _, err := s.CreateKey(types.HKEY_LOCAL_MACHINE, "T", 0, types.KEY_ALL_ACCESS, nil)
	require.NoError(t, err)

	now = now.Add(time.Hour)
	require.NoError(t, s.SetValue(h, "x", types.REG_DWORD, []byte{1, 0, 0, 0}))
	info, err := s.QueryInfoKey(h)
	require.NoError(t, err)
	assert.Equal(t, now, info.LastWrite)
	assert.Equal(t, uint32(1), info.MaxValueNameLen)
	assert.Equal(t, uint32(4), info.MaxValueLen)
}

func TestDeleteTree_EmptySubClearsKey(t *testing.T) {
	s := New()
	h, _, err := s.CreateKey(types.HKEY_CURRENT_USER, `Clear\Child`, 0, types.KEY_ALL_ACCESS, nil)
	require.NoError(t, err)
	parent, err := s.OpenKey(types.HKEY_CURRENT_USER, "Clear", types.KEY_ALL_ACCESS)
	require.NoError(t, err)
	require.NoError(t, s.SetValue(parent, "v", types.REG_DWORD, []byte{1, 0, 0, 0}))

	require.NoError(t, s.DeleteTree(parent, ""))
	info, err := s.QueryInfoKey(parent)
	require.NoError(t, err)
	assert.Zero(t, info.SubKeys)
	assert.Zero(t, info.Values)

	_, err = s.QueryInfoKey(h)
	assert.Equal(t, types.StatusKeyDeleted, err, "handles below the cleared key are stale")

	assert.Equal(t, types.StatusAccessDenied, s.DeleteKey(types.HKEY_CURRENT_USER, "", 0))
	assert.Equal(t, types.StatusInvalidParameter, s.DeleteKey(types.HKEY_CURRENT_USER, "Clear", types.KEY_READ))
}

func TestSaveKey_SkipsVolatile(t *testing.T) {
	s := New(WithSaveEncoding(regfile.EncodingUTF8))
	h, _, err := s.CreateKey(types.HKEY_CURRENT_USER, "Save", 0, types.KEY_ALL_ACCESS, nil)
	require.NoError(t, err)
	_, _, err = s.CreateKey(h, "Temp", types.REG_OPTION_VOLATILE, types.KEY_ALL_ACCESS, nil)
	require.NoError(t, err)
	_, _, err = s.CreateKey(h, "Kept", 0, types.KEY_ALL_ACCESS, nil)
	require.NoError(t, err)

	file := filepath.Join(t.TempDir(), "save.reg")
	require.NoError(t, s.SaveKey(h, file, nil))
	raw, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `[HKEY_CURRENT_USER\Save\Kept]`)
	assert.NotContains(t, string(raw), "Temp")
}

func TestLoadKey_RejectsBadFile(t *testing.T) {
	s := New()
	file := filepath.Join(t.TempDir(), "bad.reg")
	require.NoError(t, os.WriteFile(file, []byte("not a reg file"), 0o644))

	err := s.LoadKey(types.HKEY_USERS, "Bad", file)
	require.Error(t, err)
	_, err = s.OpenKey(types.HKEY_USERS, "Bad", types.KEY_READ)
	assert.Equal(t, types.StatusFileNotFound, err, "nothing is mounted on failure")
}

func TestConnect(t *testing.T) {
	remote := New()
	s := New(WithRemote("box", remote))

	b, h, err := s.Connect(`\\BOX`, types.HKEY_USERS)
	require.NoError(t, err)
	assert.Same(t, remote, b)
	assert.Equal(t, types.HKEY_USERS, h)

	_, _, err = s.Connect("box", types.HKEY_CURRENT_USER)
	assert.Equal(t, types.StatusInvalidParameter, err)

	_, _, err = s.Connect(".", 0x100)
	assert.Equal(t, types.StatusInvalidHandle, err)
}
