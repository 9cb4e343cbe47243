package maincmd

import (
	"context"
	"fmt"

	"github.com/mna/mainer"
	"github.com/rv64c/toycc/lang/ast"
	"github.com/rv64c/toycc/lang/diag"
	"github.com/rv64c/toycc/lang/parser"
	"github.com/rv64c/toycc/lang/source"
)

func (c *Cmd) Parse(ctx context.Context, stdio mainer.Stdio, args []string) error {
	return ParseFiles(stdio, args...)
}

// ParseFiles runs the scanner, preprocessor and parser phases over each
// file and dumps the resulting Obj/Node tree with lang/ast.Printer, the
// toycc analogue of the teacher's ParseFiles (which uses its own
// lang/ast.Printer over chunks rather than a flat Obj list, since
// original_source's translation unit is a slice of top-level
// functions/globals rather than statements).
func ParseFiles(stdio mainer.Stdio, files ...string) error {
	fs := source.NewFileSet()
	var errs diag.List
	printer := ast.Printer{Output: stdio.Stdout}

	for _, path := range files {
		file, err := readSource(fs, path)
		if err != nil {
			fmt.Fprintln(stdio.Stderr, err)
			return err
		}

		tok := runPreprocess(fs, file, &errs)
		if errs.Len() > 0 {
			continue
		}

		prog := parser.Parse(tok, &errs)
		if errs.Len() > 0 {
			continue
		}

		for _, obj := range prog {
			if obj.IsFunction {
				if !obj.IsDefinition {
					continue
				}
				fmt.Fprintf(stdio.Stdout, "func %s\n", obj.Name)
				if err := printer.Print(obj.Body); err != nil {
					fmt.Fprintln(stdio.Stderr, err)
					return err
				}
				continue
			}
			fmt.Fprintf(stdio.Stdout, "var %s %s\n", obj.Name, obj.Ty.Kind)
		}
	}

	if err := errs.Err(); err != nil {
		diag.PrintError(stdio.Stderr, err)
		return err
	}
	return nil
}
