//go:build !windows

package registry

import (
	"os"
	"strings"
)

// ExpandEnvironmentStrings replaces %NAME% placeholders with the values of
// the named environment variables. Unknown names and a lone % are left as
// written, matching the native call. Values read from the store are never
// expanded implicitly.
func ExpandEnvironmentStrings(s string) (string, error) {
	var out strings.Builder
	out.Grow(len(s))
	for {
		start := strings.IndexByte(s, '%')
		if start < 0 {
			out.WriteString(s)
			return out.String(), nil
		}
		end := strings.IndexByte(s[start+1:], '%')
		if end < 0 {
			out.WriteString(s)
			return out.String(), nil
		}
		end += start + 1

		name := s[start+1 : end]
		if v, ok := os.LookupEnv(name); ok && name != "" {
			out.WriteString(s[:start])
			out.WriteString(v)
			s = s[end+1:]
			continue
		}
		// Keep the opening % and rescan from the closing one, which may
		// start the next placeholder.
		out.WriteString(s[:end])
		s = s[end:]
	}
}
