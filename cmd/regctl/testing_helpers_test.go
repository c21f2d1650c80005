package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// useTestStore points the commands at a fresh bolt database in a temp dir
// and resets every global flag.
func useTestStore(t *testing.T) {
	t.Helper()
	dir := t.TempDir()

	verbose, quiet, jsonOut = false, false, false
	configPath = filepath.Join(dir, "config.yaml")
	backendName = "bolt"
	storePath = filepath.Join(dir, "registry.db")

	getShowType, getExpand = false, false
	keysRecursive, keysDepth = false, 0
	setType, setVolatile = "sz", false
	deleteKeyRecursive, deleteKeyView = false, 64

	require.NoError(t, setup(nil, nil))
}

// run executes a command function and fails the test on error.
func run(t *testing.T, fn func([]string) error, args ...string) string {
	t.Helper()
	out, err := captureOutput(t, func() error { return fn(args) })
	require.NoError(t, err, "output: %s", out)
	return out
}

// captureOutput captures stdout while running a function
func captureOutput(t *testing.T, fn func() error) (string, error) {
	t.Helper()

	origStdout := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("failed to create pipe: %v", err)
	}
	os.Stdout = w

	fnErr := fn()

	w.Close()
	os.Stdout = origStdout

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(r); err != nil {
		t.Fatalf("failed to read output: %v", err)
	}
	return buf.String(), fnErr
}

// decodeJSON checks that output is valid JSON and returns it
func decodeJSON(t *testing.T, output string) map[string]any {
	t.Helper()
	var result map[string]any
	if err := json.Unmarshal([]byte(output), &result); err != nil {
		t.Fatalf("invalid JSON output: %v\nOutput: %s", err, output)
	}
	return result
}

// assertContains checks that output contains all expected strings
func assertContains(t *testing.T, output string, expected []string) {
	t.Helper()
	for _, want := range expected {
		if !strings.Contains(output, want) {
			t.Errorf("output missing expected string %q\nGot: %s", want, output)
		}
	}
}
