package regfile

import (
	"fmt"
	"strings"
)

// Subtree treats ops as a saved subtree: the first key section is its root
// and every other section must lie below it. The returned ops carry paths
// relative to that root ("" for the root itself). Deletions are rejected
// because a saved subtree only adds.
func Subtree(ops []Op) (string, []Op, error) {
	if len(ops) == 0 || ops[0].Kind != OpCreateKey {
		return "", nil, formatError("Subtree", "file does not start with a key section", nil)
	}
	base := ops[0].Path
	out := make([]Op, 0, len(ops))
	for _, op := range ops {
		if op.Kind == OpDeleteKey || op.Kind == OpDeleteValue {
			return "", nil, formatError("Subtree", fmt.Sprintf("%s of %q in a saved subtree", op.Kind, op.Path), nil)
		}
		rel, ok := relative(base, op.Path)
		if !ok {
			return "", nil, formatError("Subtree", fmt.Sprintf("key %q is outside %q", op.Path, base), nil)
		}
		op.Path = rel
		out = append(out, op)
	}
	return base, out, nil
}

// relative strips base from path, comparing names case-insensitively.
func relative(base, path string) (string, bool) {
	if strings.EqualFold(base, path) {
		return "", true
	}
	if len(path) > len(base) && strings.EqualFold(path[:len(base)], base) && path[len(base)] == '\\' {
		return path[len(base)+1:], true
	}
	return "", false
}
