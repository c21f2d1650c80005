package codec

import (
	"fmt"

	"github.com/joshuapare/winreg/internal/buf"
	"github.com/joshuapare/winreg/pkg/types"
)

// TextUnitWidth is the width in bytes of one UTF-16 code unit, the store's
// native text unit. Every text-units <-> bytes conversion goes through the
// helpers below.
const TextUnitWidth = 2

// UnitsToBytes converts a count of text units to a byte count that fits the
// store's 32-bit length field. It fails with types.ErrOverflow rather than
// truncating.
func UnitsToBytes(units uint64) (uint32, error) {
	n, ok := buf.MulOverflowSafe(units, TextUnitWidth)
	if !ok {
		return 0, overflow(units)
	}
	return checkLength(n)
}

// BytesToUnits converts a byte count to whole text units. A trailing odd
// byte does not form a unit and is dropped.
func BytesToUnits(n uint32) uint32 {
	return n / TextUnitWidth
}

// checkLength validates a byte length against the wire length field.
func checkLength(n uint64) (uint32, error) {
	l, ok := buf.Length32(n)
	if !ok {
		return 0, &types.Error{
			Kind: types.ErrKindOverflow,
			Op:   "codec",
			Msg:  fmt.Sprintf("%d bytes do not fit a 32-bit length field", n),
		}
	}
	return l, nil
}

func overflow(units uint64) error {
	return &types.Error{
		Kind: types.ErrKindOverflow,
		Op:   "codec",
		Msg:  fmt.Sprintf("%d text units overflow the byte count", units),
	}
}
