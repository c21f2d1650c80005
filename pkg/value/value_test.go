//go:build !winregdebug

package value

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/winreg/pkg/types"
)

func TestZeroValueIsEmpty(t *testing.T) {
	var v Value
	assert.True(t, v.IsEmpty())
	assert.Equal(t, types.REG_NONE, v.Kind())
	assert.Equal(t, "None", v.String())
}

func TestReset_DiscardsPayload(t *testing.T) {
	v := FromText("Hello World")
	v.Reset(types.REG_DWORD)
	assert.Equal(t, types.REG_DWORD, v.Kind())
	d, err := v.Dword()
	require.NoError(t, err)
	assert.Zero(t, d)

	// Switching back must not resurrect the old text.
	v.Reset(types.REG_SZ)
	s, err := v.Text()
	require.NoError(t, err)
	assert.Empty(t, s)

	v.Reset(types.REG_NONE)
	assert.True(t, v.IsEmpty())
}

func TestAccessors_MatchingKind(t *testing.T) {
	v := New(types.REG_DWORD)
	require.NoError(t, v.SetDword(0x64))
	d, err := v.Dword()
	require.NoError(t, err)
	assert.Equal(t, uint32(0x64), d)

	v.Reset(types.REG_SZ)
	require.NoError(t, v.SetText("Hello World"))
	s, err := v.Text()
	require.NoError(t, err)
	assert.Equal(t, "Hello World", s)

	v.Reset(types.REG_EXPAND_SZ)
	require.NoError(t, v.SetExpandText("%WinDir%"))
	s, err = v.ExpandText()
	require.NoError(t, err)
	assert.Equal(t, "%WinDir%", s)

	v.Reset(types.REG_MULTI_SZ)
	require.NoError(t, v.AppendMultiText("Ciao", "Hi"))
	require.NoError(t, v.AppendMultiText("Connie"))
	list, err := v.MultiText()
	require.NoError(t, err)
	assert.Equal(t, []string{"Ciao", "Hi", "Connie"}, list)

	v.Reset(types.REG_BINARY)
	require.NoError(t, v.AppendBinary(0x22, 0x33, 0x44))
	data, err := v.Binary()
	require.NoError(t, err)
	assert.Equal(t, []byte{0x22, 0x33, 0x44}, data)
}

func TestAccessors_TypeMismatch(t *testing.T) {
	values := []Value{
		{},
		FromDword(7),
		FromText("a"),
		FromExpandText("%A%"),
		FromMultiText("a", "b"),
		FromBinary([]byte{1}),
	}

	for _, v := range values {
		t.Run(v.Kind().String(), func(t *testing.T) {
			if v.Kind() != types.REG_DWORD {
				d, err := v.Dword()
				assert.True(t, errors.Is(err, types.ErrTypeMismatch))
				assert.Zero(t, d)
				assert.True(t, errors.Is(v.SetDword(1), types.ErrTypeMismatch))
			}
			if v.Kind() != types.REG_SZ {
				s, err := v.Text()
				assert.True(t, errors.Is(err, types.ErrTypeMismatch))
				assert.Empty(t, s)
				assert.True(t, errors.Is(v.SetText("x"), types.ErrTypeMismatch))
			}
			if v.Kind() != types.REG_EXPAND_SZ {
				s, err := v.ExpandText()
				assert.True(t, errors.Is(err, types.ErrTypeMismatch))
				assert.Empty(t, s)
				assert.True(t, errors.Is(v.SetExpandText("x"), types.ErrTypeMismatch))
			}
			if v.Kind() != types.REG_MULTI_SZ {
				l, err := v.MultiText()
				assert.True(t, errors.Is(err, types.ErrTypeMismatch))
				assert.Nil(t, l)
				assert.True(t, errors.Is(v.SetMultiText([]string{"x"}), types.ErrTypeMismatch))
				assert.True(t, errors.Is(v.AppendMultiText("x"), types.ErrTypeMismatch))
			}
			if v.Kind() != types.REG_BINARY {
				b, err := v.Binary()
				assert.True(t, errors.Is(err, types.ErrTypeMismatch))
				assert.Nil(t, b)
				assert.True(t, errors.Is(v.SetBinary([]byte{1}), types.ErrTypeMismatch))
				assert.True(t, errors.Is(v.AppendBinary(1), types.ErrTypeMismatch))
			}
		})
	}
}

func TestMismatchLeavesValueUntouched(t *testing.T) {
	v := FromText("keep")
	require.Error(t, v.SetDword(9))
	s, err := v.Text()
	require.NoError(t, err)
	assert.Equal(t, "keep", s)
}

func TestConstructorsCopyInput(t *testing.T) {
	list := []string{"a", "b"}
	v := FromMultiText(list...)
	list[0] = "mutated"
	got, _ := v.MultiText()
	assert.Equal(t, []string{"a", "b"}, got)

	data := []byte{1, 2}
	b := FromBinary(data)
	data[0] = 9
	gotb, _ := b.Binary()
	assert.Equal(t, []byte{1, 2}, gotb)

	// Returned slices are copies too.
	gotb[1] = 7
	again, _ := b.Binary()
	assert.Equal(t, []byte{1, 2}, again)
}

func TestEqualAndClone(t *testing.T) {
	a := FromMultiText("x", "y")
	c := a.Clone()
	assert.True(t, a.Equal(c))
	require.NoError(t, c.AppendMultiText("z"))
	assert.False(t, a.Equal(c))

	assert.True(t, FromBinary(nil).Equal(FromBinary([]byte{})))
	assert.False(t, FromText("1").Equal(FromExpandText("1")))
	assert.True(t, Value{}.Equal(New(types.REG_NONE)))
}

func TestString(t *testing.T) {
	assert.Equal(t, "0x00000064", FromDword(0x64).String())
	assert.Equal(t, "[Hello World]", FromText("Hello World").String())
	assert.Equal(t, "[%WinDir%]", FromExpandText("%WinDir%").String())
	assert.Equal(t, "[Ciao]\n[Hi]", FromMultiText("Ciao", "Hi").String())
	assert.Equal(t, "0x22 0x33 0x44", FromBinary([]byte{0x22, 0x33, 0x44}).String())
	assert.Equal(t, types.UnknownKindName, New(types.REG_QWORD).String())
}
