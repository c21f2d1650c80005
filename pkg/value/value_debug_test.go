//go:build winregdebug

package value

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAccessors_PanicInDebugBuilds(t *testing.T) {
	v := FromText("x")
	assert.Panics(t, func() { _, _ = v.Dword() })
	assert.Panics(t, func() { _ = v.SetBinary(nil) })
	assert.NotPanics(t, func() { _, _ = v.Text() })
}
