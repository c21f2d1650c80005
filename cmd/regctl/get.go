package main

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/joshuapare/winreg/pkg/registry"
	"github.com/joshuapare/winreg/pkg/types"
	"github.com/joshuapare/winreg/pkg/value"
)

var (
	getShowType bool
	getExpand   bool
)

func init() {
	cmd := newGetCmd()
	cmd.Flags().BoolVar(&getShowType, "type", false, "Show type information")
	cmd.Flags().BoolVar(&getExpand, "expand", false, "Expand %VAR% placeholders in REG_EXPAND_SZ data")
	rootCmd.AddCommand(cmd)
}

func newGetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get <path> <name>",
		Short: "Get a specific registry value",
		Long: `The get command reads one value of a key. Use "" for the default value.

Example:
  regctl get HKCU\Software\Example Version
  regctl get HKCU\Software\Example Path --expand
  regctl get HKCU\Software\Example "" --type`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGet(args)
		},
	}
	return cmd
}

func runGet(args []string) error {
	path, name := args[0], args[1]
	return withStore(func(b registry.Backend) error {
		k, err := registry.OpenPath(b, path, types.KEY_QUERY_VALUE)
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", path, err)
		}
		defer k.Close()

		v, err := registry.QueryValue(k, name)
		if err != nil {
			return fmt.Errorf("failed to get value %q: %w", name, err)
		}
		if getExpand && v.Kind() == types.REG_EXPAND_SZ {
			raw, _ := v.ExpandText()
			expanded, err := registry.ExpandEnvironmentStrings(raw)
			if err != nil {
				return fmt.Errorf("failed to expand %q: %w", raw, err)
			}
			v = value.FromExpandText(expanded)
		}

		if jsonOut {
			return printJSON(map[string]any{
				"path": path,
				"name": name,
				"type": v.Kind().String(),
				"data": jsonData(v),
			})
		}
		if getShowType {
			printInfo("%s\n", styleFaint.Render(v.Kind().String()))
		}
		printInfo("%s\n", plainData(v))
		return nil
	})
}

// plainData renders v for a terminal without the display brackets: strings
// as-is, lists one entry per line, numbers in hex and decimal.
func plainData(v value.Value) string {
	switch v.Kind() {
	case types.REG_DWORD:
		d, _ := v.Dword()
		return fmt.Sprintf("0x%08x (%d)", d, d)
	case types.REG_SZ:
		s, _ := v.Text()
		return s
	case types.REG_EXPAND_SZ:
		s, _ := v.ExpandText()
		return s
	case types.REG_MULTI_SZ:
		list, _ := v.MultiText()
		return strings.Join(list, "\n")
	case types.REG_BINARY:
		data, _ := v.Binary()
		return hex.EncodeToString(data)
	}
	return v.String()
}

// jsonData returns the payload in its natural JSON shape.
func jsonData(v value.Value) any {
	switch v.Kind() {
	case types.REG_DWORD:
		d, _ := v.Dword()
		return d
	case types.REG_MULTI_SZ:
		list, _ := v.MultiText()
		if list == nil {
			list = []string{}
		}
		return list
	}
	return plainData(v)
}
