// Package source models the input files fed to the compiler: their name,
// their monotonically assigned file number, the raw contents used by the
// scanner, and the bookkeeping (line starts, #line remaps) needed to turn a
// byte offset into a rendered diagnostic location.
package source

import (
	"fmt"
	"go/token"
	"sort"
	"strings"
)

// File holds one translation unit's source buffer plus the metadata needed
// to report positions against it. Contents always end with "\n\x00": the
// trailing newline lets line-oriented scanning treat the last line like any
// other, and the NUL simplifies one-byte lookahead at end of buffer.
type File struct {
	name     string // the name used to open/resolve this file
	number   int    // monotonic, assigned by FileSet.AddFile
	contents []byte // raw bytes, always ending in "\n\x00"

	// display overrides installed by a GNU-style line marker
	// (# <num> "<file>" <flags>). displayName is what diagnostics print
	// instead of name; lineDelta is added to the physical line number to
	// compute the displayed line.
	displayName string
	lineDelta   int

	lineStarts []int // byte offsets of the start of each line, ascending
}

// NewFile wraps contents (not yet NUL/newline terminated) into a File ready
// for scanning. The scanner never looks past len(Contents())-2, so callers
// that need to peek one byte past the true end of the source always read a
// '\n' there and '\x00' immediately after.
func NewFile(name string, number int, contents []byte) *File {
	buf := make([]byte, 0, len(contents)+2)
	buf = append(buf, contents...)
	if len(buf) == 0 || buf[len(buf)-1] != '\n' {
		buf = append(buf, '\n')
	}
	buf = append(buf, 0)

	f := &File{
		name:        name,
		number:      number,
		contents:    buf,
		displayName: name,
		lineStarts:  []int{0},
	}
	return f
}

// Name returns the name this file was opened with.
func (f *File) Name() string { return f.name }

// Number returns the monotonic file number assigned at registration time.
func (f *File) Number() int { return f.number }

// Contents returns the raw, "\n\x00"-terminated buffer.
func (f *File) Contents() []byte { return f.contents }

// SetDisplay installs a GNU line-marker override: subsequent positions at or
// after atOffset report displayName as their filename, and physicalLine
// (the 1-based physical line number of atOffset) is treated as if it were
// newLine, i.e. lineDelta = newLine - physicalLine.
func (f *File) SetDisplay(displayName string, physicalLine, newLine int) {
	f.displayName = displayName
	f.lineDelta = newLine - physicalLine
}

// AddLine records that a new line begins at the given byte offset. Offsets
// must be added in increasing order; duplicate or out-of-order offsets are
// ignored.
func (f *File) AddLine(offset int) {
	if n := len(f.lineStarts); n == 0 || f.lineStarts[n-1] < offset {
		f.lineStarts = append(f.lineStarts, offset)
	}
}

// LineOf returns the 1-based physical line number containing offset.
func (f *File) LineOf(offset int) int {
	i := sort.Search(len(f.lineStarts), func(i int) bool { return f.lineStarts[i] > offset })
	return i // lineStarts[0] == 0 so i is already 1-based
}

// DisplayLineOf returns the line number to show in diagnostics, honoring any
// #line remap in effect at offset.
func (f *File) DisplayLineOf(offset int) int {
	return f.LineOf(offset) + f.lineDelta
}

// ColOf returns the 1-based column (in bytes, tabs counted as 1) of offset
// on its line.
func (f *File) ColOf(offset int) int {
	line := f.LineOf(offset)
	start := f.lineStarts[line-1]
	return offset - start + 1
}

// LineText returns the raw text of the physical line containing offset,
// without its trailing newline.
func (f *File) LineText(offset int) string {
	line := f.LineOf(offset)
	start := f.lineStarts[line-1]
	end := len(f.contents)
	if line < len(f.lineStarts) {
		end = f.lineStarts[line]
	}
	text := f.contents[start:end]
	return strings.TrimRight(string(text), "\n\x00")
}

// Position renders offset as a go/token.Position suitable for
// go/scanner.Error, honoring #line overrides for Filename/Line.
func (f *File) Position(offset int) token.Position {
	return token.Position{
		Filename: f.displayName,
		Offset:   offset,
		Line:     f.DisplayLineOf(offset),
		Column:   f.ColOf(offset),
	}
}

// Caret renders a two-line "<source>\n<spaces>^" excerpt for offset, with
// tabs expanded to 8 columns as spec §7 requires.
func (f *File) Caret(offset int) string {
	line := f.LineText(offset)
	col := f.ColOf(offset)

	var pad strings.Builder
	for i := 0; i < col-1 && i < len(line); i++ {
		if line[i] == '\t' {
			pad.WriteString(strings.Repeat(" ", 8-pad.Len()%8))
		} else {
			pad.WriteByte(' ')
		}
	}
	for i := len(line); i < col-1; i++ {
		pad.WriteByte(' ')
	}
	return fmt.Sprintf("%s\n%s^", line, pad.String())
}

// FileSet is the append-only registry of input files, assigning each a
// monotonically increasing file number as it is added.
type FileSet struct {
	files []*File
}

// NewFileSet returns an empty file registry.
func NewFileSet() *FileSet { return &FileSet{} }

// AddFile registers contents under name and returns the new File, numbered
// one past the previous highest file number in this set.
func (fs *FileSet) AddFile(name string, contents []byte) *File {
	f := NewFile(name, len(fs.files)+1, contents)
	fs.files = append(fs.files, f)
	return f
}

// File returns the file with the given 1-based number, or nil.
func (fs *FileSet) File(number int) *File {
	if number < 1 || number > len(fs.files) {
		return nil
	}
	return fs.files[number-1]
}

// Files returns every registered file, in registration order.
func (fs *FileSet) Files() []*File { return fs.files }
