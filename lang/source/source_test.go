package source

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewFileAppendsNewlineAndNUL(t *testing.T) {
	f := NewFile("a.c", 1, []byte("int x;"))
	assert.Equal(t, "int x;\n\x00", string(f.Contents()))

	// a source already ending in '\n' does not get a second one.
	f2 := NewFile("b.c", 2, []byte("int x;\n"))
	assert.Equal(t, "int x;\n\x00", string(f2.Contents()))
}

func TestLineAndColTracking(t *testing.T) {
	src := "int a;\nint b;\n"
	f := NewFile("a.c", 1, []byte(src))
	f.AddLine(7) // offset of "int b;" after the first '\n'

	assert.Equal(t, 1, f.LineOf(0))
	assert.Equal(t, 1, f.ColOf(0))
	assert.Equal(t, 2, f.LineOf(7))
	assert.Equal(t, 1, f.ColOf(7))
	assert.Equal(t, 5, f.ColOf(11)) // "int b;"[4] == 'b'
}

func TestLineText(t *testing.T) {
	f := NewFile("a.c", 1, []byte("int a;\nint b;\n"))
	f.AddLine(7)

	assert.Equal(t, "int a;", f.LineText(0))
	assert.Equal(t, "int b;", f.LineText(7))
}

func TestSetDisplayShiftsPosition(t *testing.T) {
	f := NewFile("a.c", 1, []byte("x\ny\nz\n"))
	f.AddLine(2)
	f.AddLine(4)

	// a GNU line marker makes physical line 2 display as line 100 of
	// "other.h", so physical line 3 displays as 101.
	f.SetDisplay("other.h", 2, 100)

	pos := f.Position(4) // physical line 3
	assert.Equal(t, "other.h", pos.Filename)
	assert.Equal(t, 101, pos.Line)
}

func TestCaretExpandsTabs(t *testing.T) {
	f := NewFile("a.c", 1, []byte("\tx = 1;\n"))
	caret := f.Caret(1) // offset of 'x', right after the tab

	lines := caret
	assert.Contains(t, lines, "\tx = 1;")
	// the tab expands to 8 columns of padding before the caret.
	assert.Contains(t, lines, "\n        ^")
}

func TestFileSetAssignsMonotonicNumbers(t *testing.T) {
	fs := NewFileSet()
	a := fs.AddFile("a.c", []byte("a"))
	b := fs.AddFile("b.c", []byte("b"))

	assert.Equal(t, 1, a.Number())
	assert.Equal(t, 2, b.Number())
	assert.Same(t, a, fs.File(1))
	assert.Same(t, b, fs.File(2))
	assert.Nil(t, fs.File(0))
	assert.Nil(t, fs.File(3))
	assert.Equal(t, []*File{a, b}, fs.Files())
}
