package maincmd

import (
	"context"
	"fmt"

	"github.com/mna/mainer"
	"github.com/rv64c/toycc/lang/diag"
	"github.com/rv64c/toycc/lang/scanner"
	"github.com/rv64c/toycc/lang/source"
	"github.com/rv64c/toycc/lang/token"
)

func (c *Cmd) Tokenize(ctx context.Context, stdio mainer.Stdio, args []string) error {
	return TokenizeFiles(stdio, args...)
}

// TokenizeFiles runs only the scanner phase over each file and prints its
// token stream, one token per line, mirroring the teacher's
// maincmd.TokenizeFiles shape but reporting toycc's richer token payload
// (numeric/string literal values alongside the raw spelling).
func TokenizeFiles(stdio mainer.Stdio, files ...string) error {
	fs := source.NewFileSet()
	var errs diag.List

	for _, path := range files {
		file, err := readSource(fs, path)
		if err != nil {
			fmt.Fprintln(stdio.Stderr, err)
			return err
		}

		for tok := scanner.Tokenize(file, &errs); tok != nil; tok = tok.Next {
			printToken(stdio, file, tok)
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

// printToken writes one token's position, kind and spelling, the same
// shape the teacher's tokenize.go prints but keyed on toycc's own
// file.Position/token.Kind.
func printToken(stdio mainer.Stdio, file *source.File, tok *token.Token) {
	pos := file.Position(tok.Offset)
	fmt.Fprintf(stdio.Stdout, "%s:%d:%d: %s", pos.Filename, pos.Line, pos.Column, tok.Kind)
	if lit := tok.Text(); lit != "" {
		fmt.Fprintf(stdio.Stdout, " %q", lit)
	}
	fmt.Fprintln(stdio.Stdout)
}
