// Package assert provides debug-only invariant checks. They are compiled in
// only with the winregdebug build tag and panic on violation; release builds
// rely on the ordinary error returns instead.
package assert

import "fmt"

// That panics with the formatted message when cond is false and debug
// assertions are enabled.
func That(cond bool, format string, args ...any) {
	if Enabled && !cond {
		panic(fmt.Sprintf("winreg: assertion failed: "+format, args...))
	}
}
