package registry

import (
	"fmt"
	"strings"

	"github.com/joshuapare/winreg/pkg/types"
)

// ParsePath splits a path such as `HKCU\Software\Example` into its
// predefined root and the subkey below it. Long and short root names are
// accepted in any case; forward slashes are treated as separators.
func ParsePath(path string) (types.Handle, string, error) {
	path = strings.Trim(strings.ReplaceAll(path, "/", `\`), `\`)
	rootName, sub, _ := strings.Cut(path, `\`)
	root, ok := types.ParseRoot(rootName)
	if !ok {
		return 0, "", &types.Error{
			Kind: types.ErrKindFormat,
			Op:   "ParsePath",
			Msg:  fmt.Sprintf("unknown root key %q", rootName),
		}
	}
	return root, strings.Trim(sub, `\`), nil
}

// JoinPath builds a display path from a root and a subkey.
func JoinPath(root types.Handle, sub string) string {
	if sub == "" {
		return root.RootName()
	}
	return root.RootName() + `\` + sub
}

// OpenPath opens a full path in b. A path naming only a root returns the
// borrowed predefined Key.
func OpenPath(b Backend, path string, access types.Access) (*Key, error) {
	root, sub, err := ParsePath(path)
	if err != nil {
		return nil, err
	}
	if sub == "" {
		return Predefined(b, root), nil
	}
	return OpenKey(Predefined(b, root), sub, access)
}

// CreatePath creates or opens a full path in b.
func CreatePath(b Backend, path string, opts *CreateOptions) (*Key, types.Disposition, error) {
	root, sub, err := ParsePath(path)
	if err != nil {
		return nil, 0, err
	}
	if sub == "" {
		return Predefined(b, root), types.REG_OPENED_EXISTING_KEY, nil
	}
	return CreateKey(Predefined(b, root), sub, opts)
}
