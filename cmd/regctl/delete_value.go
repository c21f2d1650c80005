package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joshuapare/winreg/pkg/registry"
	"github.com/joshuapare/winreg/pkg/types"
)

func init() {
	rootCmd.AddCommand(newDeleteValueCmd())
}

func newDeleteValueCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete-value <path> <name>",
		Short: "Delete a registry value",
		Long: `The delete-value command removes one value from a key.

Example:
  regctl delete-value HKCU\Software\Example Version`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDeleteValue(args)
		},
	}
	return cmd
}

func runDeleteValue(args []string) error {
	path, name := args[0], args[1]
	return withStore(func(b registry.Backend) error {
		k, err := registry.OpenPath(b, path, types.KEY_SET_VALUE)
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", path, err)
		}
		defer k.Close()

		if err := registry.DeleteValue(k, name); err != nil {
			return fmt.Errorf("failed to delete value: %w", err)
		}

		if jsonOut {
			return printJSON(map[string]any{"path": path, "name": name, "success": true})
		}
		printInfo("%s deleted %s\\%s\n", styleSuccess.Render("✓"), path, displayName(name))
		return nil
	})
}
