package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/joshuapare/winreg/pkg/registry"
	"github.com/joshuapare/winreg/pkg/types"
)

func init() {
	rootCmd.AddCommand(newValuesCmd())
}

func newValuesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "values <path>",
		Short: "List the values of a key",
		Long: `The values command lists every value of a key with its type and data.
Values of types outside REG_SZ, REG_EXPAND_SZ, REG_MULTI_SZ, REG_DWORD and
REG_BINARY are listed with their type only.

Example:
  regctl values HKCU\Software\Example
  regctl values HKLM\Software\Example --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValues(args)
		},
	}
	return cmd
}

type valueRow struct {
	Name string `json:"name"`
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

func runValues(args []string) error {
	path := args[0]
	return withStore(func(b registry.Backend) error {
		k, err := registry.OpenPath(b, path, types.KEY_READ)
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", path, err)
		}
		defer k.Close()

		entries, err := registry.EnumerateValues(k)
		if err != nil {
			return fmt.Errorf("failed to list values: %w", err)
		}

		rows := make([]valueRow, 0, len(entries))
		for _, e := range entries {
			row := valueRow{Name: e.Name, Type: e.Kind.String()}
			if types.Supported(e.Kind) {
				v, err := registry.QueryValue(k, e.Name)
				if err != nil {
					return fmt.Errorf("failed to read %q: %w", e.Name, err)
				}
				if jsonOut {
					row.Data = jsonData(v)
				} else {
					row.Data = strings.ReplaceAll(v.String(), "\n", " ")
				}
			}
			rows = append(rows, row)
		}

		if jsonOut {
			return printJSON(map[string]any{
				"path":   path,
				"values": rows,
				"count":  len(rows),
			})
		}
		table := make([][]string, len(rows))
		for i, r := range rows {
			data := ""
			if r.Data != nil {
				data = r.Data.(string)
			}
			table[i] = []string{displayName(r.Name), r.Type, data}
		}
		printTable([]string{"NAME", "TYPE", "DATA"}, table)
		return nil
	})
}

// displayName shows the unnamed default value the way regedit does.
func displayName(name string) string {
	if name == "" {
		return "(Default)"
	}
	return name
}
