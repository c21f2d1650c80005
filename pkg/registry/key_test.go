package registry_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/winreg/pkg/registry"
	"github.com/joshuapare/winreg/pkg/types"
)

// fakeBackend counts CloseKey calls and fails enumeration on demand. Only
// the methods the tests reach are implemented.
type fakeBackend struct {
	registry.Backend
	closed    map[types.Handle]int
	subKeys   uint32
	failIndex uint32
}

func newFake() *fakeBackend {
	return &fakeBackend{closed: make(map[types.Handle]int), failIndex: ^uint32(0)}
}

func (f *fakeBackend) CloseKey(h types.Handle) error {
	f.closed[h]++
	return nil
}

func (f *fakeBackend) QueryInfoKey(types.Handle) (types.KeyInfo, error) {
	return types.KeyInfo{SubKeys: f.subKeys, MaxSubKeyLen: 1}, nil
}

func (f *fakeBackend) EnumKey(_ types.Handle, index uint32, name []byte) (uint32, error) {
	if index == f.failIndex {
		return 0, types.StatusKeyDeleted
	}
	name[0], name[1] = byte('a'+index), 0
	return 1, nil
}

func TestKey_CloseIsIdempotent(t *testing.T) {
	f := newFake()
	k := registry.NewKey(f, 0x100)
	require.True(t, k.IsValid())

	require.NoError(t, k.Close())
	require.NoError(t, k.Close())
	assert.False(t, k.IsValid())
	assert.Equal(t, 1, f.closed[0x100], "released exactly once")
}

func TestKey_Move(t *testing.T) {
	f := newFake()
	src := registry.NewKey(f, 0x104)
	dst := src.Move()

	assert.False(t, src.IsValid())
	assert.Zero(t, src.Handle())
	require.NoError(t, src.Close(), "closing the moved-from key is a no-op")
	assert.Zero(t, f.closed[0x104])

	assert.Equal(t, types.Handle(0x104), dst.Handle())
	require.NoError(t, dst.Close())
	assert.Equal(t, 1, f.closed[0x104])
}

func TestKey_Detach(t *testing.T) {
	f := newFake()
	k := registry.NewKey(f, 0x108)
	h := k.Detach()

	assert.Equal(t, types.Handle(0x108), h)
	assert.False(t, k.IsValid())
	require.NoError(t, k.Close())
	assert.Empty(t, f.closed)
}

func TestKey_AttachClosesPrevious(t *testing.T) {
	f := newFake()
	k := registry.NewKey(f, 0x10c)

	require.NoError(t, k.Attach(f, 0x110))
	assert.Equal(t, 1, f.closed[0x10c])
	assert.Equal(t, types.Handle(0x110), k.Handle())

	require.NoError(t, k.Attach(f, 0x110), "re-attaching the same handle keeps it open")
	assert.Zero(t, f.closed[0x110])
	require.NoError(t, k.Close())
	assert.Equal(t, 1, f.closed[0x110])
}

func TestKey_Swap(t *testing.T) {
	f := newFake()
	a := registry.NewKey(f, 0x114)
	b := registry.NewKey(f, 0x118)
	a.Swap(b)
	assert.Equal(t, types.Handle(0x118), a.Handle())
	assert.Equal(t, types.Handle(0x114), b.Handle())
}

func TestKey_PredefinedIsBorrowed(t *testing.T) {
	f := newFake()
	root := registry.Predefined(f, types.HKEY_LOCAL_MACHINE)
	assert.Equal(t, "Key(HKEY_LOCAL_MACHINE)", root.String())
	require.NoError(t, root.Close())
	assert.Empty(t, f.closed)
	assert.Equal(t, "Key(empty)", root.String())
}

func TestKey_NilAndZero(t *testing.T) {
	var nilKey *registry.Key
	assert.False(t, nilKey.IsValid())
	assert.NoError(t, nilKey.Close())
	assert.Zero(t, nilKey.Handle())
	assert.Nil(t, nilKey.Backend())

	var zero registry.Key
	assert.False(t, zero.IsValid())
	assert.NoError(t, zero.Close())
}

func TestEnumeration_AbortsOnFailure(t *testing.T) {
	f := newFake()
	f.subKeys = 3
	k := registry.NewKey(f, 0x11c)

	names, err := registry.EnumerateSubKeyNames(k)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, names)

	f.failIndex = 1
	names, err = registry.EnumerateSubKeyNames(k)
	assert.Nil(t, names, "no partial result")
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrStoreFailed))
	var e *types.Error
	require.True(t, errors.As(err, &e))
	assert.Equal(t, "RegEnumKeyEx", e.Op)
	assert.Equal(t, types.StatusKeyDeleted, e.Code)
}
