package main

import (
	"github.com/spf13/cobra"

	"github.com/joshuapare/winreg/pkg/registry"
)

func init() {
	rootCmd.AddCommand(newExpandCmd())
}

func newExpandCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "expand <text>",
		Short: "Expand %VAR% placeholders",
		Long: `The expand command replaces %NAME% placeholders with environment
variables, the way REG_EXPAND_SZ data is expanded. Unknown names are kept.

Example:
  regctl expand "%SystemRoot%\system32"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExpand(args)
		},
	}
	return cmd
}

func runExpand(args []string) error {
	out, err := registry.ExpandEnvironmentStrings(args[0])
	if err != nil {
		return err
	}
	if jsonOut {
		return printJSON(map[string]any{"input": args[0], "output": out})
	}
	printInfo("%s\n", out)
	return nil
}
