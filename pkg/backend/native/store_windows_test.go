//go:build windows

package native_test

import (
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/winreg/pkg/backend/native"
	"github.com/joshuapare/winreg/pkg/registry"
	"github.com/joshuapare/winreg/pkg/types"
	"github.com/joshuapare/winreg/pkg/value"
)

// scratch creates an empty key under HKCU\Software and removes it when the
// test ends.
func scratch(t *testing.T) (*registry.Key, *registry.Key) {
	t.Helper()
	b, err := native.Open()
	require.NoError(t, err)

	hkcu := registry.Predefined(b, types.HKEY_CURRENT_USER)
	software, err := registry.OpenKey(hkcu, "Software", types.KEY_ALL_ACCESS)
	require.NoError(t, err)

	name := fmt.Sprintf("winreg-test-%d", os.Getpid())
	k, disp, err := registry.CreateKey(software, name, &registry.CreateOptions{Access: types.KEY_ALL_ACCESS})
	require.NoError(t, err)
	require.Equal(t, types.REG_CREATED_NEW_KEY, disp, "leftover scratch key %s", name)

	t.Cleanup(func() {
		k.Close()
		assert.NoError(t, registry.DeleteTree(software, name))
		software.Close()
	})
	return software, k
}

func TestNativeRoundTrip(t *testing.T) {
	_, k := scratch(t)

	values := map[string]value.Value{
		"dword":  value.FromDword(0xdeadbeef),
		"text":   value.FromText("héllo"),
		"expand": value.FromExpandText(`%SystemRoot%\system32`),
		"multi":  value.FromMultiText("a", "b"),
		"binary": value.FromBinary([]byte{0, 1, 2}),
	}
	for name, v := range values {
		require.NoError(t, registry.SetValue(k, name, v))
	}
	for name, want := range values {
		got, err := registry.QueryValue(k, name)
		require.NoError(t, err)
		assert.True(t, want.Equal(got), "%s: got %v", name, got)
	}

	names, err := registry.EnumerateValueNames(k)
	require.NoError(t, err)
	assert.Len(t, names, len(values))

	require.NoError(t, registry.DeleteValue(k, "dword"))
	_, err = registry.QueryValue(k, "dword")
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestNativeSubKeys(t *testing.T) {
	_, k := scratch(t)

	for _, name := range []string{"b", "A", "c"} {
		child, _, err := registry.CreateKey(k, name, nil)
		require.NoError(t, err)
		require.NoError(t, child.Close())
	}
	names, err := registry.EnumerateSubKeyNames(k)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"A", "b", "c"}, names)

	require.NoError(t, registry.DeleteKey(k, "b", registry.DefaultView))
	err = registry.DeleteKey(k, "b", registry.DefaultView)
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestNativeConnectLocal(t *testing.T) {
	b, err := native.Open()
	require.NoError(t, err)
	k, err := registry.ConnectRegistry(b, "", types.HKEY_LOCAL_MACHINE)
	require.NoError(t, err)
	assert.Equal(t, types.HKEY_LOCAL_MACHINE, k.Handle())
	assert.NoError(t, k.Close())
}
