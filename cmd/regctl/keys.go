package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joshuapare/winreg/pkg/registry"
	"github.com/joshuapare/winreg/pkg/types"
)

var (
	keysRecursive bool
	keysDepth     int
)

func init() {
	cmd := newKeysCmd()
	cmd.Flags().BoolVarP(&keysRecursive, "recursive", "r", false, "List all subkeys recursively")
	cmd.Flags().IntVar(&keysDepth, "depth", 0, "Maximum recursion depth (0 = unlimited)")
	rootCmd.AddCommand(cmd)
}

func newKeysCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keys <path>",
		Short: "List the subkeys of a key",
		Long: `The keys command lists the subkeys of a key in enumeration order.

Example:
  regctl keys HKLM\Software
  regctl keys HKCU\Software\Example --recursive --depth 2
  regctl keys HKCU --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runKeys(args)
		},
	}
	return cmd
}

type keyEntry struct {
	Name  string `json:"name"`
	Path  string `json:"path"`
	Depth int    `json:"depth"`
}

func runKeys(args []string) error {
	path := args[0]
	return withStore(func(b registry.Backend) error {
		k, err := registry.OpenPath(b, path, types.KEY_READ)
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", path, err)
		}
		defer k.Close()

		var keys []keyEntry
		if err := collectKeys(k, path, 1, &keys); err != nil {
			return fmt.Errorf("failed to list keys: %w", err)
		}

		if jsonOut {
			return printJSON(map[string]any{
				"path":  path,
				"keys":  keys,
				"count": len(keys),
			})
		}
		for _, key := range keys {
			if keysRecursive {
				printInfo("%s\n", key.Path)
			} else {
				printInfo("%s\n", key.Name)
			}
		}
		printVerbose("\nTotal: %d keys\n", len(keys))
		return nil
	})
}

func collectKeys(k *registry.Key, path string, depth int, out *[]keyEntry) error {
	names, err := registry.EnumerateSubKeyNames(k)
	if err != nil {
		return err
	}
	for _, name := range names {
		childPath := path + `\` + name
		*out = append(*out, keyEntry{Name: name, Path: childPath, Depth: depth})
		if !keysRecursive || (keysDepth > 0 && depth >= keysDepth) {
			continue
		}
		child, err := registry.OpenKey(k, name, types.KEY_READ)
		if err != nil {
			return err
		}
		err = collectKeys(child, childPath, depth+1, out)
		child.Close()
		if err != nil {
			return err
		}
	}
	return nil
}
