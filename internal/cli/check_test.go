package cli

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	rrepr "github.com/qri-io/rrepr-go"
)

func TestCheckCommand(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "air.json"), airDocument)
	writeFile(t, filepath.Join(dir, "point.yaml"), pointDocument)
	writeFile(t, filepath.Join(dir, "stamps.yaml"), `
coords:
  t: {dims: [t], data: ["2021-03-04T05:06:07.000008Z", "2021-03-05"], dtype: datetime64[ns]}
data_vars:
  v: {dims: [t], data: [a, null]}
`)

	out, err := execute(t, "check", dir, "--seed", "9")
	require.NoError(t, err)
	assert.Equal(t, "air.json: ok (time: 2, x: 2)\npoint.yaml: ok (x: 2)\nstamps.yaml: ok (t: 2)\n", out)
}

func TestCheckCommandStdin(t *testing.T) {
	out, err := executeInput(t, pointDocument, "check", "-")
	require.NoError(t, err)
	assert.Equal(t, "stdin: ok (x: 2)\n", out)
}

func TestCheckCommandNarrowTypes(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "u.yaml"), `
coords:
  d: {dims: [d], data: ["2020-01-01T12:30:00Z", "2020-03-04"], dtype: "datetime64[D]"}
data_vars:
  u: {dims: [d], data: [0, 7], dtype: uint64}
  b: {dims: [d], data: [-128, 127], dtype: int8}
`)
	out, err := execute(t, "check", dir)
	require.NoError(t, err)
	assert.Equal(t, "u.yaml: ok (d: 2)\n", out)

	writeFile(t, filepath.Join(dir, "u.yaml"), "dims: [x]\ndata: [300]\ndtype: int8\n")
	_, err = execute(t, "check", dir)
	assert.ErrorIs(t, err, rrepr.ErrUnsupportedValueKind)
}

func TestCheckCommandPrecision(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "v.yaml")
	writeFile(t, path, "dims: [x]\ndata: [1.23456, 2.5, 3.75]\ndtype: float32\n")

	out, err := execute(t, "check", path, "--precision", "1", "--size", "2")
	require.NoError(t, err)
	assert.Equal(t, "v.yaml: ok (x: 2)\n", out)
}

func TestCheckCommandErrors(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	writeFile(t, path, "dims: [t]\ndtype: datetime64[ns]\ndata: [\"2021-03-04T05:06:07.000000001Z\"]\n")

	_, err := execute(t, "check", path)
	assert.Error(t, err)

	_, err = execute(t, "check")
	assert.Error(t, err)
}

func TestFormatSizes(t *testing.T) {
	tests := []struct {
		sizes map[string]int
		want  string
	}{
		{map[string]int{}, "()"},
		{map[string]int{"x": 1}, "(x: 1)"},
		{map[string]int{"y": 0, "x": 3}, "(x: 3, y: 0)"},
	}
	for _, tt := range tests {
		if got := formatSizes(tt.sizes); got != tt.want {
			t.Errorf("formatSizes(%v) = %q, want %q", tt.sizes, got, tt.want)
		}
	}
}
