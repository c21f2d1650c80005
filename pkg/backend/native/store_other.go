//go:build !windows

package native

import (
	"runtime"

	"github.com/joshuapare/winreg/pkg/registry"
	"github.com/joshuapare/winreg/pkg/types"
)

// Open reports that the native store does not exist on this platform.
func Open() (registry.Backend, error) {
	return nil, &types.Error{
		Kind: types.ErrKindState,
		Op:   "native.Open",
		Msg:  "the native registry is not available on " + runtime.GOOS,
	}
}
