package maincmd

import (
	"context"
	"fmt"

	"github.com/mna/mainer"
	"github.com/rv64c/toycc/lang/diag"
	"github.com/rv64c/toycc/lang/source"
	"github.com/rv64c/toycc/lang/token"
)

func (c *Cmd) Preprocess(ctx context.Context, stdio mainer.Stdio, args []string) error {
	return PreprocessFiles(stdio, args...)
}

// PreprocessFiles runs the scanner and preprocessor phases over each file
// and prints the macro-expanded token stream, one token's spelling per
// line prefixed by its post-expansion position, the cheapest way to make
// macro expansion and conditional inclusion observable without a full
// re-lexed "-E" source reconstruction.
func PreprocessFiles(stdio mainer.Stdio, files ...string) error {
	fs := source.NewFileSet()
	var errs diag.List

	for _, path := range files {
		file, err := readSource(fs, path)
		if err != nil {
			fmt.Fprintln(stdio.Stderr, err)
			return err
		}

		out := runPreprocess(fs, file, &errs)
		if errs.Len() > 0 {
			continue
		}

		for tok := out; tok != nil; tok = tok.Next {
			printToken(stdio, originFile(file, tok), tok)
			if tok.Kind == token.EOF {
				break
			}
		}
	}

	if err := errs.Err(); err != nil {
		diag.PrintError(stdio.Stderr, err)
		return err
	}
	return nil
}

// originFile returns the file a (possibly macro-expanded or #include'd)
// token actually belongs to, falling back to the translation unit's root
// file for synthesized tokens that carry no File of their own.
func originFile(root *source.File, tok *token.Token) *source.File {
	if tok.File != nil {
		return tok.File
	}
	return root
}
