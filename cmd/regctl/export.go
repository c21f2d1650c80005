package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joshuapare/winreg/pkg/registry"
	"github.com/joshuapare/winreg/pkg/types"
)

func init() {
	rootCmd.AddCommand(newExportCmd())
}

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export <path> <file>",
		Short: "Save a key and its subtree to a file",
		Long: `The export command saves a key with all its subkeys and values. The
portable stores write a .reg file in the configured export.encoding; the
native store writes a binary hive file and needs the backup privilege.
The file must not exist.

Example:
  regctl export HKCU\Software\Example example.reg`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(args)
		},
	}
	return cmd
}

func runExport(args []string) error {
	path, file := args[0], args[1]
	return withStore(func(b registry.Backend) error {
		k, err := registry.OpenPath(b, path, types.KEY_READ)
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", path, err)
		}
		defer k.Close()

		if err := registry.SaveKey(k, file, nil); err != nil {
			return fmt.Errorf("failed to export: %w", err)
		}

		if jsonOut {
			return printJSON(map[string]any{"path": path, "file": file, "success": true})
		}
		printInfo("%s exported %s to %s\n", styleSuccess.Render("✓"), path, file)
		return nil
	})
}
