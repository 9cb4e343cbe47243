package maincmd

import (
	"bytes"
	"flag"
	"path/filepath"
	"testing"

	"github.com/mna/mainer"
	"github.com/stretchr/testify/require"

	"github.com/rv64c/toycc/internal/filetest"
)

var testUpdateTokenizeTests = flag.Bool("test.update-tokenize-tests", false, "If set, replace expected tokenize test results with actual results.")

// TestTokenizeFilesGolden exercises internal/filetest (and, through it,
// kylelemons/godebug/diff) the same way the teacher's maincmd tests do:
// one golden ".want" file per testdata/in source, diffed against the
// token stream TokenizeFiles prints.
func TestTokenizeFilesGolden(t *testing.T) {
	srcDir, resultDir := filepath.Join("testdata", "in"), filepath.Join("testdata", "out")

	for _, fi := range filetest.SourceFiles(t, srcDir, ".c") {
		t.Run(fi.Name(), func(t *testing.T) {
			var out, errOut bytes.Buffer
			stdio := mainer.Stdio{Stdout: &out, Stderr: &errOut}

			err := TokenizeFiles(stdio, filepath.Join(srcDir, fi.Name()))
			require.NoError(t, err)
			filetest.DiffOutput(t, fi, out.String(), resultDir, testUpdateTokenizeTests)
		})
	}
}
