package maincmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/mna/mainer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTemp(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "in.c")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestTokenizeFilesPrintsTokenStream(t *testing.T) {
	path := writeTemp(t, "int x;")
	var out, errOut bytes.Buffer
	stdio := mainer.Stdio{Stdout: &out, Stderr: &errOut}

	err := TokenizeFiles(stdio, path)
	require.NoError(t, err)
	assert.Empty(t, errOut.String())
	assert.Contains(t, out.String(), `"int"`)
	assert.Contains(t, out.String(), `"x"`)
}

func TestTokenizeFilesReportsMissingFile(t *testing.T) {
	var out, errOut bytes.Buffer
	stdio := mainer.Stdio{Stdout: &out, Stderr: &errOut}

	err := TokenizeFiles(stdio, filepath.Join(t.TempDir(), "missing.c"))
	assert.Error(t, err)
	assert.NotEmpty(t, errOut.String())
}

func TestPreprocessFilesExpandsMacros(t *testing.T) {
	path := writeTemp(t, "#define FOO 42\nint x = FOO;")
	var out, errOut bytes.Buffer
	stdio := mainer.Stdio{Stdout: &out, Stderr: &errOut}

	require.NoError(t, PreprocessFiles(stdio, path))
	assert.Empty(t, errOut.String())
	assert.Contains(t, out.String(), `"42"`)
	assert.NotContains(t, out.String(), `"FOO"`)
}

func TestParseFilesDumpsFunctionBody(t *testing.T) {
	path := writeTemp(t, "int main() { return 1; }")
	var out, errOut bytes.Buffer
	stdio := mainer.Stdio{Stdout: &out, Stderr: &errOut}

	require.NoError(t, ParseFiles(stdio, path))
	assert.Empty(t, errOut.String())
	assert.Contains(t, out.String(), "func main")
	assert.Contains(t, out.String(), "return")
}

func TestCompileFilesWritesAssemblyToStdout(t *testing.T) {
	path := writeTemp(t, "int main() { return 0; }")
	var out, errOut bytes.Buffer
	stdio := mainer.Stdio{Stdout: &out, Stderr: &errOut}

	require.NoError(t, CompileFiles(stdio, "", path))
	assert.Empty(t, errOut.String())
	assert.Contains(t, out.String(), "main:")
}

func TestCompileFilesWritesAssemblyToOutputPath(t *testing.T) {
	path := writeTemp(t, "int main() { return 0; }")
	outPath := filepath.Join(t.TempDir(), "out.s")
	var out, errOut bytes.Buffer
	stdio := mainer.Stdio{Stdout: &out, Stderr: &errOut}

	require.NoError(t, CompileFiles(stdio, outPath, path))
	assert.Empty(t, out.String())

	got, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Contains(t, string(got), "main:")
}

func TestValidateRejectsUnknownCommand(t *testing.T) {
	c := &Cmd{args: []string{"frobnicate", "a.c"}, flags: map[string]bool{}}
	err := c.Validate()
	assert.ErrorContains(t, err, "unknown command")
}

func TestValidateRequiresAtLeastOneFile(t *testing.T) {
	c := &Cmd{args: []string{"tokenize"}, flags: map[string]bool{}}
	err := c.Validate()
	assert.ErrorContains(t, err, "at least one file")
}

func TestValidateRejectsOutputFlagOutsideCompile(t *testing.T) {
	c := &Cmd{args: []string{"tokenize", "a.c"}, flags: map[string]bool{"output": true}}
	err := c.Validate()
	assert.ErrorContains(t, err, "invalid flag")
}

func TestValidateAcceptsOutputFlagForCompile(t *testing.T) {
	c := &Cmd{args: []string{"compile", "a.c"}, flags: map[string]bool{"output": true}}
	assert.NoError(t, c.Validate())
}
