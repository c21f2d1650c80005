package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joshuapare/winreg/pkg/registry"
)

func init() {
	rootCmd.AddCommand(newImportCmd())
}

func newImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <root\\name> <file>",
		Short: "Mount a saved subtree as a new key",
		Long: `The import command loads a file written by export as a new key directly
below HKEY_LOCAL_MACHINE or HKEY_USERS. The key must not exist yet.

Example:
  regctl import HKU\Restored example.reg`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(args)
		},
	}
	return cmd
}

func runImport(args []string) error {
	path, file := args[0], args[1]
	root, sub, err := registry.ParsePath(path)
	if err != nil {
		return err
	}

	return withStore(func(b registry.Backend) error {
		if err := registry.LoadKey(registry.Predefined(b, root), sub, file); err != nil {
			return fmt.Errorf("failed to import %s: %w", file, err)
		}

		if jsonOut {
			return printJSON(map[string]any{"path": path, "file": file, "success": true})
		}
		printInfo("%s imported %s as %s\n", styleSuccess.Render("✓"), file, registry.JoinPath(root, sub))
		return nil
	})
}
