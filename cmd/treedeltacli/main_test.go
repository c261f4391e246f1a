package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSniffFamilyByExtension(t *testing.T) {
	assert.Equal(t, "json", sniffFamily("doc.json", nil))
	assert.Equal(t, "jsonml", sniffFamily("doc.xml", nil))
	assert.Equal(t, "", sniffFamily("doc.bin", []byte{0x00, 0x01, 0x02}))
}

func TestSniffFamilyFallsBackToContentSniffing(t *testing.T) {
	got := sniffFamily("noext", []byte(`<?xml version="1.0"?><root/>`))
	assert.Equal(t, "jsonml", got)
}

func TestResolveFamilyUnknown(t *testing.T) {
	_, err := resolveFamily("yaml")
	require.Error(t, err)
}

func TestComputePatchJSON(t *testing.T) {
	ops, err := computePatch("json", []byte(`{"tags":["a","c"]}`), []byte(`{"tags":["a","b","c"]}`))
	require.NoError(t, err)
	assert.NotEmpty(t, ops)
}

func TestComputePatchJsonML(t *testing.T) {
	ops, err := computePatch("jsonml", []byte(`["ul",["li","a"],["li","c"]]`), []byte(`["ul",["li","a"],["li","b"],["li","c"]]`))
	require.NoError(t, err)
	require.Len(t, ops, 1)
}

func TestComputePatchNoChangesYieldsNoOps(t *testing.T) {
	ops, err := computePatch("json", []byte(`{"a":1}`), []byte(`{"a":1}`))
	require.NoError(t, err)
	assert.Empty(t, ops)
}

func writeTemp(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestRunHelp(t *testing.T) {
	var out, errOut bytes.Buffer
	code := run([]string{"-h"}, &out, &errOut)
	assert.Equal(t, 0, code)
	assert.Contains(t, errOut.String(), "usage:")
}

func TestRunWrongArgCount(t *testing.T) {
	var out, errOut bytes.Buffer
	code := run([]string{"onlyone.json"}, &out, &errOut)
	assert.Equal(t, 1, code)
}

func TestRunMissingFile(t *testing.T) {
	var out, errOut bytes.Buffer
	code := run([]string{"/nonexistent/a.json", "/nonexistent/b.json"}, &out, &errOut)
	assert.Equal(t, 1, code)
}

func TestRunEndToEndJSON(t *testing.T) {
	dir := t.TempDir()
	a := writeTemp(t, dir, "a.json", `{"tags":["a","c"]}`)
	b := writeTemp(t, dir, "b.json", `{"tags":["a","b","c"]}`)

	var out, errOut bytes.Buffer
	code := run([]string{"-j", a, b}, &out, &errOut)
	require.Equal(t, 0, code, "stderr: %s", errOut.String())
	assert.NotEmpty(t, out.String())
}

func TestRunEndToEndJsonMLDefaultFormat(t *testing.T) {
	dir := t.TempDir()
	a := writeTemp(t, dir, "a.xml", `["ul",["li","a"],["li","c"]]`)
	b := writeTemp(t, dir, "b.xml", `["ul",["li","a"],["li","b"],["li","c"]]`)

	var out, errOut bytes.Buffer
	code := run([]string{a, b}, &out, &errOut)
	require.Equal(t, 0, code, "stderr: %s", errOut.String())
	assert.NotEmpty(t, out.String())
}

func TestRunDebugDumpWritesToStderr(t *testing.T) {
	dir := t.TempDir()
	a := writeTemp(t, dir, "a.json", `{"tags":["a","c"]}`)
	b := writeTemp(t, dir, "b.json", `{"tags":["a","b","c"]}`)

	var out, errOut bytes.Buffer
	code := run([]string{"-d", "-j", a, b}, &out, &errOut)
	require.Equal(t, 0, code)
	assert.Contains(t, errOut.String(), "computed operations")
}
