package main

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/joshuapare/winreg/pkg/registry"
	"github.com/joshuapare/winreg/pkg/types"
	"github.com/joshuapare/winreg/pkg/value"
)

var (
	setType     string
	setVolatile bool
)

func init() {
	cmd := newSetCmd()
	cmd.Flags().StringVar(&setType, "type", "sz", "Value type (sz, expand_sz, multi_sz, dword, binary)")
	cmd.Flags().BoolVar(&setVolatile, "volatile", false, "Create missing keys as volatile")
	rootCmd.AddCommand(cmd)
}

func newSetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set <path> <name> <data>...",
		Short: "Set a registry value",
		Long: `The set command writes a value, creating the key when it is missing.
Each extra argument is one entry of a multi_sz list. dword data accepts
decimal or 0x-prefixed hex; binary data is a hex string.

Example:
  regctl set HKCU\Software\Example Version 1.0.0
  regctl set HKCU\Software\Example Enabled 0x1 --type dword
  regctl set HKCU\Software\Example Data 0102ff --type binary
  regctl set HKCU\Software\Example Hosts alpha beta --type multi_sz`,
		Args: cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSet(args)
		},
	}
	return cmd
}

func runSet(args []string) error {
	path, name := args[0], args[1]

	kind, err := types.ParseRegType(setType)
	if err != nil {
		return err
	}
	v, err := parseValue(kind, args[2:])
	if err != nil {
		return fmt.Errorf("failed to parse value: %w", err)
	}

	return withStore(func(b registry.Backend) error {
		opts := &registry.CreateOptions{Access: types.KEY_SET_VALUE}
		if setVolatile {
			opts.Options = types.REG_OPTION_VOLATILE
		}
		k, disp, err := registry.CreatePath(b, path, opts)
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", path, err)
		}
		defer k.Close()
		if disp == types.REG_CREATED_NEW_KEY {
			printVerbose("Created key %s\n", path)
		}

		if err := registry.SetValue(k, name, v); err != nil {
			return fmt.Errorf("failed to set value: %w", err)
		}

		if jsonOut {
			return printJSON(map[string]any{
				"path":    path,
				"name":    name,
				"type":    kind.String(),
				"success": true,
			})
		}
		printInfo("%s %s\\%s = %s\n", styleSuccess.Render("✓"), path, displayName(name), v)
		return nil
	})
}

// parseValue builds a value of kind from command-line arguments.
func parseValue(kind types.RegType, args []string) (value.Value, error) {
	if kind != types.REG_MULTI_SZ && len(args) != 1 {
		return value.Value{}, fmt.Errorf("%s takes exactly one data argument, got %d", kind, len(args))
	}
	switch kind {
	case types.REG_SZ:
		return value.FromText(args[0]), nil
	case types.REG_EXPAND_SZ:
		return value.FromExpandText(args[0]), nil
	case types.REG_MULTI_SZ:
		return value.FromMultiText(args...), nil
	case types.REG_DWORD:
		d, err := strconv.ParseUint(args[0], 0, 32)
		if err != nil {
			return value.Value{}, fmt.Errorf("invalid dword %q: %w", args[0], err)
		}
		return value.FromDword(uint32(d)), nil
	case types.REG_BINARY:
		s := strings.NewReplacer(" ", "", ",", "", ":", "").Replace(args[0])
		data, err := hex.DecodeString(s)
		if err != nil {
			return value.Value{}, fmt.Errorf("invalid hex data %q: %w", args[0], err)
		}
		return value.FromBinary(data), nil
	}
	return value.Value{}, fmt.Errorf("unsupported type %s", kind)
}
