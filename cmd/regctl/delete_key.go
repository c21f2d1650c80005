package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joshuapare/winreg/pkg/registry"
	"github.com/joshuapare/winreg/pkg/types"
)

var (
	deleteKeyRecursive bool
	deleteKeyView      int
)

func init() {
	cmd := newDeleteKeyCmd()
	cmd.Flags().BoolVarP(&deleteKeyRecursive, "recursive", "r", false, "Delete the key with all its subkeys")
	cmd.Flags().IntVar(&deleteKeyView, "view", 64, "Registry view to delete from (32 or 64)")
	rootCmd.AddCommand(cmd)
}

func newDeleteKeyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete-key <path>",
		Short: "Delete a registry key",
		Long: `The delete-key command removes a key. Without --recursive the key must
have no subkeys; its values are removed with it.

Example:
  regctl delete-key HKCU\Software\Example\Cache
  regctl delete-key HKCU\Software\Example --recursive
  regctl delete-key HKLM\Software\Example --view 32`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDeleteKey(args)
		},
	}
	return cmd
}

func viewAccess(bits int) (types.Access, error) {
	switch bits {
	case 64:
		return types.KEY_WOW64_64KEY, nil
	case 32:
		return types.KEY_WOW64_32KEY, nil
	}
	return 0, fmt.Errorf("invalid view %d (use 32 or 64)", bits)
}

func runDeleteKey(args []string) error {
	path := args[0]
	view, err := viewAccess(deleteKeyView)
	if err != nil {
		return err
	}
	parentPath, name, err := splitParent(path)
	if err != nil {
		return err
	}

	return withStore(func(b registry.Backend) error {
		parent, err := registry.OpenPath(b, parentPath, types.KEY_ALL_ACCESS|view)
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", parentPath, err)
		}
		defer parent.Close()

		if deleteKeyRecursive {
			err = registry.DeleteTree(parent, name)
		} else {
			err = registry.DeleteKey(parent, name, view)
		}
		if err != nil {
			return fmt.Errorf("failed to delete %s: %w", path, err)
		}

		if jsonOut {
			return printJSON(map[string]any{"path": path, "recursive": deleteKeyRecursive, "success": true})
		}
		printInfo("%s deleted %s\n", styleSuccess.Render("✓"), path)
		return nil
	})
}
