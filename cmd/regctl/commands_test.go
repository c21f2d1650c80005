package main

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/winreg/pkg/types"
	"github.com/joshuapare/winreg/pkg/value"
)

const appPath = `HKCU\Software\App`

func setAs(t *testing.T, kind, name string, data ...string) {
	t.Helper()
	setType = kind
	defer func() { setType = "sz" }()
	run(t, runSet, append([]string{appPath, name}, data...)...)
}

func TestSetThenGet(t *testing.T) {
	tests := []struct {
		name     string
		kind     string
		data     []string
		showType bool
		want     []string
	}{
		{name: "string", kind: "sz", data: []string{"Hello World"}, want: []string{"Hello World"}},
		{name: "dword hex", kind: "dword", data: []string{"0x64"}, want: []string{"0x00000064 (100)"}},
		{name: "dword decimal", kind: "REG_DWORD", data: []string{"100"}, want: []string{"0x00000064 (100)"}},
		{name: "multi", kind: "multi_sz", data: []string{"Ciao", "Hi", "Connie"}, want: []string{"Ciao\nHi\nConnie\n"}},
		{name: "binary", kind: "binary", data: []string{"22 33 44"}, want: []string{"223344"}},
		{name: "expand with type", kind: "expand_sz", data: []string{"%WinDir%"}, showType: true, want: []string{"REG_EXPAND_SZ", "%WinDir%"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			useTestStore(t)
			setAs(t, tt.kind, "Item", tt.data...)

			getShowType = tt.showType
			out := run(t, runGet, appPath, "Item")
			assertContains(t, out, tt.want)
		})
	}
}

func TestGetJSON(t *testing.T) {
	useTestStore(t)
	setAs(t, "dword", "Count", "100")
	setAs(t, "multi", "List", "a", "b")

	jsonOut = true
	got := decodeJSON(t, run(t, runGet, appPath, "Count"))
	assert.Equal(t, "REG_DWORD", got["type"])
	assert.EqualValues(t, 100, got["data"])

	got = decodeJSON(t, run(t, runGet, appPath, "List"))
	assert.Equal(t, []any{"a", "b"}, got["data"])
}

func TestGetExpand(t *testing.T) {
	useTestStore(t)
	t.Setenv("REGCTL_TEST_HOME", "/opt/app")
	setAs(t, "expand", "Path", `%REGCTL_TEST_HOME%\bin`)

	getExpand = true
	out := run(t, runGet, appPath, "Path")
	assert.Equal(t, "/opt/app\\bin\n", out)
}

func TestGetErrors(t *testing.T) {
	useTestStore(t)
	setAs(t, "sz", "Name", "x")

	_, err := captureOutput(t, func() error { return runGet([]string{appPath, "Missing"}) })
	assert.ErrorIs(t, err, types.ErrNotFound)

	_, err = captureOutput(t, func() error { return runGet([]string{`HKCU\Software\Nope`, "Name"}) })
	assert.ErrorIs(t, err, types.ErrNotFound)

	_, err = captureOutput(t, func() error { return runGet([]string{`HKXX\Software`, "Name"}) })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown root key")
}

func TestSetRejectsBadData(t *testing.T) {
	useTestStore(t)
	setType = "dword"
	_, err := captureOutput(t, func() error { return runSet([]string{appPath, "Count", "many"}) })
	require.Error(t, err)

	setType = "qword"
	_, err = captureOutput(t, func() error { return runSet([]string{appPath, "Count", "1"}) })
	require.Error(t, err)
}

func TestValues(t *testing.T) {
	useTestStore(t)
	setAs(t, "sz", "", "default")
	setAs(t, "dword", "Count", "0x64")
	setAs(t, "multi", "List", "a", "b")

	out := run(t, runValues, appPath)
	assert.Equal(t,
		"NAME\tTYPE\tDATA\n"+
			"(Default)\tREG_SZ\t[default]\n"+
			"Count\tREG_DWORD\t0x00000064\n"+
			"List\tREG_MULTI_SZ\t[a] [b]\n",
		out)

	jsonOut = true
	got := decodeJSON(t, run(t, runValues, appPath))
	assert.EqualValues(t, 3, got["count"])
	rows := got["values"].([]any)
	require.Len(t, rows, 3)
	assert.Equal(t, map[string]any{"name": "Count", "type": "REG_DWORD", "data": float64(100)}, rows[1])
}

func TestKeys(t *testing.T) {
	useTestStore(t)
	for _, p := range []string{`HKCU\Software\App\b`, `HKCU\Software\App\A\Deep\Deeper`} {
		run(t, runSet, p, "x", "1")
	}

	tests := []struct {
		name      string
		recursive bool
		depth     int
		want      string
	}{
		{name: "direct children", want: "A\nb\n"},
		{
			name:      "recursive",
			recursive: true,
			want:      appPath + "\\A\n" + appPath + "\\A\\Deep\n" + appPath + "\\A\\Deep\\Deeper\n" + appPath + "\\b\n",
		},
		{
			name:      "recursive with depth",
			recursive: true,
			depth:     2,
			want:      appPath + "\\A\n" + appPath + "\\A\\Deep\n" + appPath + "\\b\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			keysRecursive, keysDepth = tt.recursive, tt.depth
			assert.Equal(t, tt.want, run(t, runKeys, appPath))
		})
	}
}

func TestDeleteValue(t *testing.T) {
	useTestStore(t)
	setAs(t, "sz", "Name", "x")

	run(t, runDeleteValue, appPath, "Name")

	_, err := captureOutput(t, func() error { return runGet([]string{appPath, "Name"}) })
	assert.ErrorIs(t, err, types.ErrNotFound)
	_, err = captureOutput(t, func() error { return runDeleteValue([]string{appPath, "Name"}) })
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestDeleteKey(t *testing.T) {
	useTestStore(t)
	run(t, runSet, appPath+`\Child`, "x", "1")

	_, err := captureOutput(t, func() error { return runDeleteKey([]string{appPath}) })
	st, ok := types.StatusOf(err)
	require.True(t, ok, "err = %v", err)
	assert.Equal(t, types.StatusAccessDenied, st)

	deleteKeyView = 16
	_, err = captureOutput(t, func() error { return runDeleteKey([]string{appPath}) })
	assert.ErrorContains(t, err, "invalid view")

	deleteKeyView, deleteKeyRecursive = 32, true
	run(t, runDeleteKey, appPath)

	_, err = captureOutput(t, func() error { return runKeys([]string{appPath}) })
	assert.ErrorIs(t, err, types.ErrNotFound)

	_, err = captureOutput(t, func() error { return runDeleteKey([]string{"HKCU"}) })
	assert.ErrorContains(t, err, "is a root key")
}

func TestExportImport(t *testing.T) {
	useTestStore(t)
	setAs(t, "dword", "Count", "7")
	run(t, runSet, appPath+`\Child`, "Name", "child")

	file := filepath.Join(t.TempDir(), "app.reg")
	run(t, runExport, appPath, file)
	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.NotEmpty(t, data)

	_, err = captureOutput(t, func() error { return runExport([]string{appPath, file}) })
	st, _ := types.StatusOf(err)
	assert.Equal(t, types.StatusAlreadyExists, st)

	run(t, runImport, `HKU\Restored`, file)
	assertContains(t, run(t, runGet, `HKU\Restored`, "Count"), []string{"0x00000007 (7)"})
	assertContains(t, run(t, runGet, `HKU\Restored\Child`, "Name"), []string{"child"})

	_, err = captureOutput(t, func() error { return runImport([]string{`HKCU\Restored`, file}) })
	require.Error(t, err)
}

func TestExpandCommand(t *testing.T) {
	useTestStore(t)
	t.Setenv("REGCTL_TEST_NAME", "world")

	assert.Equal(t, "hello world %UNSET_REGCTL_VAR%\n",
		run(t, runExpand, "hello %REGCTL_TEST_NAME% %UNSET_REGCTL_VAR%"))

	jsonOut = true
	got := decodeJSON(t, run(t, runExpand, "%REGCTL_TEST_NAME%"))
	assert.Equal(t, "world", got["output"])
}

func TestSelftest(t *testing.T) {
	useTestStore(t)
	out, err := captureOutput(t, runSelftest)
	require.NoError(t, err, "output: %s", out)
	assertContains(t, out, []string{"✓ write values", "✓ enumerate values", "✓ delete key"})

	jsonOut = true
	out, err = captureOutput(t, runSelftest)
	require.NoError(t, err)
	got := decodeJSON(t, out)
	assert.Equal(t, true, got["success"])
	assert.Len(t, got["steps"], 6)
}

func TestParseValue(t *testing.T) {
	tests := []struct {
		name    string
		kind    types.RegType
		args    []string
		want    value.Value
		wantErr bool
	}{
		{name: "text", kind: types.REG_SZ, args: []string{"x"}, want: value.FromText("x")},
		{name: "dword max", kind: types.REG_DWORD, args: []string{"0xFFFFFFFF"}, want: value.FromDword(0xFFFFFFFF)},
		{name: "dword overflow", kind: types.REG_DWORD, args: []string{"0x100000000"}, wantErr: true},
		{name: "dword negative", kind: types.REG_DWORD, args: []string{"-1"}, wantErr: true},
		{name: "binary separators", kind: types.REG_BINARY, args: []string{"01:02,ff"}, want: value.FromBinary([]byte{1, 2, 0xff})},
		{name: "binary odd length", kind: types.REG_BINARY, args: []string{"abc"}, wantErr: true},
		{name: "multi", kind: types.REG_MULTI_SZ, args: []string{"a", "b"}, want: value.FromMultiText("a", "b")},
		{name: "text takes one argument", kind: types.REG_SZ, args: []string{"a", "b"}, wantErr: true},
		{name: "unsupported", kind: types.REG_QWORD, args: []string{"1"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseValue(tt.kind, tt.args)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %v, want %v", got, tt.want)
		})
	}
}

func TestSplitParent(t *testing.T) {
	tests := []struct {
		path, parent, name string
		wantErr            bool
	}{
		{path: `HKCU\Software`, parent: "HKEY_CURRENT_USER", name: "Software"},
		{path: `hklm/Software/App/`, parent: `HKEY_LOCAL_MACHINE\Software`, name: "App"},
		{path: `HKU`, wantErr: true},
		{path: `Nowhere\App`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			parent, name, err := splitParent(tt.path)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.parent, parent)
			assert.Equal(t, tt.name, name)
		})
	}
}

func TestSetupRejectsUnknownBackend(t *testing.T) {
	useTestStore(t)
	backendName = "etcd"
	err := setup(nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown backend")
	assert.False(t, errors.Is(err, types.ErrNotFound))
}
