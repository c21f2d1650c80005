//go:build !windows

package registry_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/winreg/pkg/registry"
)

func TestExpandEnvironmentStrings(t *testing.T) {
	t.Setenv("WINREG_TEST_DIR", `C:\Windows`)
	t.Setenv("WINREG_TEST_EMPTY", "")

	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"plain", "plain"},
		{"%WINREG_TEST_DIR%", `C:\Windows`},
		{`%WINREG_TEST_DIR%\system32`, `C:\Windows\system32`},
		{"%WINREG_TEST_UNSET%", "%WINREG_TEST_UNSET%"},
		{"%WINREG_TEST_UNSET%%WINREG_TEST_DIR%", `%WINREG_TEST_UNSET%C:\Windows`},
		{"100%", "100%"},
		{"%%", "%%"},
		{"[%WINREG_TEST_EMPTY%]", "[]"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := registry.ExpandEnvironmentStrings(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
