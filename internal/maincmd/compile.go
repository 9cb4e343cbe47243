package maincmd

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"github.com/mna/mainer"
	"github.com/rv64c/toycc/lang/codegen"
	"github.com/rv64c/toycc/lang/diag"
	"github.com/rv64c/toycc/lang/parser"
	"github.com/rv64c/toycc/lang/source"
)

func (c *Cmd) Compile(ctx context.Context, stdio mainer.Stdio, args []string) error {
	if c.Output != "" && len(args) > 1 {
		err := fmt.Errorf("compile: -o/--output requires a single input file")
		fmt.Fprintln(stdio.Stderr, err)
		return err
	}
	return CompileFiles(stdio, c.Output, args...)
}

// CompileFiles runs the full tokenize/preprocess/parse/codegen pipeline
// over each file in turn and writes the resulting RISC-V64 assembly either
// to stdout (the default, like original_source's "-o -") or to output when
// non-empty.
func CompileFiles(stdio mainer.Stdio, output string, files ...string) error {
	fs := source.NewFileSet()
	var errs diag.List
	var buf bytes.Buffer

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

		codegen.Generate(prog, &buf, &errs)
	}

	if err := errs.Err(); err != nil {
		diag.PrintError(stdio.Stderr, err)
		return err
	}

	if output == "" || output == "-" {
		_, err := stdio.Stdout.Write(buf.Bytes())
		return err
	}
	return os.WriteFile(output, buf.Bytes(), 0o644)
}
