// Package diag renders compiler diagnostics using the same approach as the
// teacher's lang/scanner package: rather than hand-rolling a position+message
// error type, it reuses the standard library's go/scanner.Error and
// go/scanner.ErrorList for the positioned "file:line:col: message" part; the
// source line and caret excerpt are appended to each message by List.Add.
package diag

import (
	"fmt"
	"go/scanner"
	"go/token"
	"io"

	"github.com/rv64c/toycc/lang/source"
)

type (
	// Error is a single positioned diagnostic.
	Error = scanner.Error
	// ErrorList collects diagnostics across one or more files. List.Err
	// returns either nil or a non-empty ErrorList.
	ErrorList = scanner.ErrorList
)

// PrintError writes err to w via go/scanner.PrintError: one entry per line
// when err is an ErrorList, otherwise err's own text.
func PrintError(w io.Writer, err error) {
	scanner.PrintError(w, err)
}

// List accumulates diagnostics for one compile. Each entry renders as
//
//	<filename>:<line>:<column>: <message>
//	<source line contents>
//	     ^
type List struct {
	errs scanner.ErrorList
}

// Add appends a diagnostic at the given file and byte offset. With a nil
// file the message is recorded without a position or source excerpt.
func (l *List) Add(f *source.File, offset int, format string, args ...any) {
	if f == nil {
		l.errs.Add(token.Position{}, fmt.Sprintf(format, args...))
		return
	}
	pos := f.Position(offset)
	l.errs.Add(pos, renderf(f, offset, format, args...))
}

// Err returns nil if no diagnostics were added, else the accumulated
// ErrorList, sorted by position.
func (l *List) Err() error {
	if len(l.errs) == 0 {
		return nil
	}
	l.errs.Sort()
	return l.errs
}

// Len reports how many diagnostics have been added.
func (l *List) Len() int { return len(l.errs) }

func renderf(f *source.File, offset int, format string, args ...any) string {
	msg := fmt.Sprintf(format, args...)
	return msg + "\n" + f.Caret(offset)
}

// Position is a convenience re-export so callers that only have a
// go/token.Position (e.g. from an already-rendered scanner.Error) don't need
// to import go/token directly.
type Position = token.Position
