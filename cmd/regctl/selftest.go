package main

import (
	"errors"
	"fmt"
	"os"
	"slices"

	"github.com/spf13/cobra"

	"github.com/joshuapare/winreg/internal/logger"
	"github.com/joshuapare/winreg/pkg/registry"
	"github.com/joshuapare/winreg/pkg/types"
	"github.com/joshuapare/winreg/pkg/value"
)

func init() {
	rootCmd.AddCommand(newSelftestCmd())
}

func newSelftestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "selftest",
		Short: "Exercise the store end to end",
		Long: `The selftest command creates a scratch key below HKCU\Software, writes one
value of every supported type, reads them back, deletes them and removes the
key again. It fails on the first step that does not behave.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSelftest()
		},
	}
	return cmd
}

type selftestStep struct {
	Name string `json:"name"`
	OK   bool   `json:"ok"`
	Err  string `json:"error,omitempty"`
}

var selftestValues = []struct {
	name string
	v    value.Value
}{
	{"TestValueDword", value.FromDword(0x64)},
	{"TestValueString", value.FromText("Hello World")},
	{"TestValueExpandString", value.FromExpandText("%WinDir%")},
	{"TestValueMultiString", value.FromMultiText("Ciao", "Hi", "Connie")},
	{"TestValueBinary", value.FromBinary([]byte{0x22, 0x33, 0x44})},
}

func runSelftest() error {
	path := fmt.Sprintf(`HKCU\Software\regctl-selftest-%d`, os.Getpid())

	return withStore(func(b registry.Backend) error {
		var steps []selftestStep
		step := func(name string, fn func() error) bool {
			err := fn()
			s := selftestStep{Name: name, OK: err == nil}
			if err != nil {
				s.Err = describe(err)
				logger.Debug("selftest step failed", "step", name, "err", err)
			}
			steps = append(steps, s)
			return err == nil
		}

		var k *registry.Key
		defer func() {
			if k != nil {
				k.Close()
			}
		}()

		ok := step("create "+path, func() error {
			var err error
			k, _, err = registry.CreatePath(b, path, nil)
			return err
		})
		ok = ok && step("write values", func() error {
			for _, tv := range selftestValues {
				if err := registry.SetValue(k, tv.name, tv.v); err != nil {
					return fmt.Errorf("%s: %w", tv.name, err)
				}
			}
			return nil
		})
		ok = ok && step("read values back", func() error {
			for _, tv := range selftestValues {
				got, err := registry.QueryValue(k, tv.name)
				if err != nil {
					return fmt.Errorf("%s: %w", tv.name, err)
				}
				if !got.Equal(tv.v) {
					return fmt.Errorf("%s: got %s, want %s", tv.name, got, tv.v)
				}
			}
			return nil
		})
		ok = ok && step("enumerate values", func() error {
			entries, err := registry.EnumerateValues(k)
			if err != nil {
				return err
			}
			if len(entries) != len(selftestValues) {
				return fmt.Errorf("got %d values, want %d", len(entries), len(selftestValues))
			}
			for _, tv := range selftestValues {
				i := slices.IndexFunc(entries, func(e registry.ValueEntry) bool { return e.Name == tv.name })
				if i < 0 {
					return fmt.Errorf("%s missing from enumeration", tv.name)
				}
				if entries[i].Kind != tv.v.Kind() {
					return fmt.Errorf("%s: enumerated as %s, want %s", tv.name, entries[i].Kind, tv.v.Kind())
				}
			}
			return nil
		})
		ok = ok && step("delete value", func() error {
			if err := registry.DeleteValue(k, "TestValueDword"); err != nil {
				return err
			}
			if _, err := registry.QueryValue(k, "TestValueDword"); !errors.Is(err, types.ErrNotFound) {
				return fmt.Errorf("deleted value still readable: %v", err)
			}
			return nil
		})
		ok = ok && step("delete key", func() error {
			k.Close()
			k = nil
			parentPath, name, err := splitParent(path)
			if err != nil {
				return err
			}
			parent, err := registry.OpenPath(b, parentPath, types.KEY_ALL_ACCESS)
			if err != nil {
				return err
			}
			defer parent.Close()
			if err := registry.DeleteTree(parent, name); err != nil {
				return err
			}
			if _, err := registry.OpenKey(parent, name, types.KEY_READ); !errors.Is(err, types.ErrNotFound) {
				return fmt.Errorf("deleted key still opens: %v", err)
			}
			return nil
		})

		if jsonOut {
			if err := printJSON(map[string]any{"path": path, "steps": steps, "success": ok}); err != nil {
				return err
			}
		} else {
			for _, s := range steps {
				if s.OK {
					printInfo("%s %s\n", styleSuccess.Render("✓"), s.Name)
				} else {
					printInfo("%s %s: %s\n", styleError.Render("✗"), s.Name, s.Err)
				}
			}
		}
		if !ok {
			return errors.New("selftest failed")
		}
		return nil
	})
}
