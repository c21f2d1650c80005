package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/joshuapare/winreg/internal/config"
	"github.com/joshuapare/winreg/internal/logger"
	"github.com/joshuapare/winreg/pkg/backend/boltstore"
	"github.com/joshuapare/winreg/pkg/backend/memory"
	"github.com/joshuapare/winreg/pkg/backend/native"
	"github.com/joshuapare/winreg/pkg/registry"
	"github.com/joshuapare/winreg/pkg/types"
)

var (
	// Global flags
	verbose     bool
	quiet       bool
	jsonOut     bool
	configPath  string
	backendName string
	storePath   string

	// cfg is loaded before every command runs.
	cfg config.Config
)

var rootCmd = &cobra.Command{
	Use:   "regctl",
	Short: "Read and modify a Windows-style registry store",
	Long: `regctl lists, reads, writes and deletes registry keys and values,
and moves subtrees in and out of .reg files. It drives the native registry on
Windows, or a portable store (a bbolt file or an in-memory tree) anywhere.

Paths start with a root key in long or short form, e.g. HKCU\Software\Example.`,
	Version:           "0.1.0",
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output and debug logging")
	rootCmd.PersistentFlags().
		BoolVarP(&quiet, "quiet", "q", false, "Suppress all output except errors")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default $REGCTL_CONFIG or ~/.regctl/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&backendName, "backend", "", "Store backend: native, bolt or memory")
	rootCmd.PersistentFlags().StringVar(&storePath, "store", "", "Database file for the bolt backend")
}

func execute() {
	if err := rootCmd.Execute(); err != nil {
		printError("%v\n", err)
		os.Exit(1)
	}
}

// setup loads the config, applies flag overrides and starts logging.
func setup(_ *cobra.Command, _ []string) error {
	path := configPath
	if path == "" {
		path = config.Path()
	}
	c, err := config.Load(path)
	if err != nil {
		return err
	}
	if backendName != "" {
		c.Store.Backend = backendName
	}
	if storePath != "" {
		c.Store.Path = storePath
	}
	if err := c.Validate(); err != nil {
		return err
	}
	cfg = c

	opts := logger.Options{Level: logger.ParseLevel(cfg.Log.Level)}
	switch {
	case verbose:
		opts.Enabled, opts.Writer, opts.Level = true, os.Stderr, slog.LevelDebug
	case cfg.Log.Dir != "":
		opts.Enabled, opts.LogDir = true, cfg.Log.Dir
	}
	return logger.Init(opts)
}

// openStore opens the configured backend. The returned func releases it.
func openStore() (registry.Backend, func(), error) {
	switch cfg.Store.Backend {
	case config.BackendNative:
		b, err := native.Open()
		return b, func() {}, err
	case config.BackendMemory:
		printVerbose("Using an in-memory store; changes are discarded on exit\n")
		return memory.New(memory.WithSaveEncoding(cfg.Export.Encoding)), func() {}, nil
	default:
		if err := os.MkdirAll(filepath.Dir(cfg.Store.Path), 0o700); err != nil {
			return nil, nil, fmt.Errorf("create store directory: %w", err)
		}
		printVerbose("Opening store: %s\n", cfg.Store.Path)
		s, err := boltstore.Open(cfg.Store.Path, boltstore.WithSaveEncoding(cfg.Export.Encoding))
		if err != nil {
			return nil, nil, err
		}
		return s, func() {
			if err := s.Close(); err != nil {
				logger.Warn("closing store", "path", cfg.Store.Path, "err", err)
			}
		}, nil
	}
}

// withStore runs fn against a freshly opened store.
func withStore(fn func(b registry.Backend) error) error {
	b, release, err := openStore()
	if err != nil {
		return err
	}
	defer release()
	return fn(b)
}

// splitParent splits a key path into its parent path and last name.
func splitParent(path string) (string, string, error) {
	root, sub, err := registry.ParsePath(path)
	if err != nil {
		return "", "", err
	}
	if sub == "" {
		return "", "", fmt.Errorf("%s is a root key", root.RootName())
	}
	i := strings.LastIndex(sub, `\`)
	if i < 0 {
		return root.RootName(), sub, nil
	}
	return registry.JoinPath(root, sub[:i]), sub[i+1:], nil
}

// Helper functions for output

// printInfo prints an info message if not in quiet mode
func printInfo(format string, args ...any) {
	if !quiet {
		fmt.Fprintf(os.Stdout, format, args...)
	}
}

// printError prints an error message
func printError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, styleError.Render("Error:")+" "+format, args...)
}

// printVerbose prints a verbose message if verbose mode is enabled
func printVerbose(format string, args ...any) {
	if verbose && !quiet {
		fmt.Fprintf(os.Stdout, format, args...)
	}
}

// printJSON outputs data as JSON
func printJSON(v any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// describe renders a store error for humans, naming the native code.
func describe(err error) string {
	if st, ok := types.StatusOf(err); ok {
		return fmt.Sprintf("%v [%d]", st, uint32(st))
	}
	return err.Error()
}
