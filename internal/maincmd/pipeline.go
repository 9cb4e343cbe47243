package maincmd

import (
	"fmt"
	"os"

	"github.com/rv64c/toycc/lang/diag"
	"github.com/rv64c/toycc/lang/pp"
	"github.com/rv64c/toycc/lang/scanner"
	"github.com/rv64c/toycc/lang/source"
	"github.com/rv64c/toycc/lang/token"
)

// readSource registers path's contents into fs, mirroring the way
// original_source's must_tokenize_file pairs a single os.ReadFile with one
// FileSet slot per translation unit.
func readSource(fs *source.FileSet, path string) (*source.File, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return fs.AddFile(path, b), nil
}

// runPreprocess tokenizes and preprocesses file, wiring os.ReadFile as the
// #include resolver the same way cmd/toycc's real pipeline would.
func runPreprocess(fs *source.FileSet, file *source.File, errs *diag.List) *token.Token {
	tok := scanner.Tokenize(file, errs)
	if errs.Len() > 0 {
		return tok
	}

	p := pp.NewPreprocessor(fs, errs)
	p.ReadFile = func(path string) ([]byte, bool) {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, false
		}
		return b, true
	}
	return p.Run(tok)
}
