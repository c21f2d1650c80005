//go:build windows

package registry

import (
	"golang.org/x/sys/windows"

	"github.com/joshuapare/winreg/pkg/types"
)

// ExpandEnvironmentStrings replaces %NAME% placeholders with the values of
// the named environment variables. Values read from the store are never
// expanded implicitly.
func ExpandEnvironmentStrings(s string) (string, error) {
	src, err := windows.UTF16PtrFromString(s)
	if err != nil {
		return "", &types.Error{Kind: types.ErrKindFormat, Op: "ExpandEnvironmentStrings", Msg: "text contains NUL", Err: err}
	}
	n, err := windows.ExpandEnvironmentStrings(src, nil, 0)
	if err != nil {
		return "", storeError("ExpandEnvironmentStrings", "size expansion", errnoStatus(err))
	}
	for {
		out := make([]uint16, n)
		m, err := windows.ExpandEnvironmentStrings(src, &out[0], n)
		if err != nil {
			return "", storeError("ExpandEnvironmentStrings", "expand", errnoStatus(err))
		}
		if m <= n {
			return windows.UTF16ToString(out[:m]), nil
		}
		// The environment grew between calls.
		n = m
	}
}

func errnoStatus(err error) error {
	if errno, ok := err.(windows.Errno); ok {
		return types.Status(errno)
	}
	return err
}
