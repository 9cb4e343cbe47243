package codegen

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rv64c/toycc/lang/ast"
	"github.com/rv64c/toycc/lang/types"
)

func TestAlignTo(t *testing.T) {
	assert.Equal(t, 0, alignTo(0, 8))
	assert.Equal(t, 8, alignTo(1, 8))
	assert.Equal(t, 8, alignTo(8, 8))
	assert.Equal(t, 16, alignTo(9, 8))
	assert.Equal(t, 4, alignTo(3, 4))
}

func TestLlog2(t *testing.T) {
	assert.Equal(t, 0, llog2(1))
	assert.Equal(t, 1, llog2(2))
	assert.Equal(t, 2, llog2(4))
	assert.Equal(t, 4, llog2(16))
}

func TestGetTypeID(t *testing.T) {
	assert.Equal(t, i8, getTypeID(types.Char))
	assert.Equal(t, i32, getTypeID(types.Int))
	assert.Equal(t, i64, getTypeID(types.Long))
	assert.Equal(t, i64, getTypeID(types.Double)) // default branch covers non-integer kinds too
}

func newGen() (*Generator, *bytes.Buffer) {
	var buf bytes.Buffer
	return New(&buf, nil), &buf
}

func TestCastNarrowsSignExtends(t *testing.T) {
	g, buf := newGen()
	g.cast(types.Int, types.Char)
	assert.Contains(t, buf.String(), "srai a0, a0, 56")
}

func TestCastWideningIsFree(t *testing.T) {
	g, buf := newGen()
	g.cast(types.Char, types.Long)
	assert.Empty(t, buf.String())
}

func TestCastVoidEmitsNothing(t *testing.T) {
	g, buf := newGen()
	g.cast(types.Int, types.Void)
	assert.Empty(t, buf.String())
}

func TestCastIntToFloat(t *testing.T) {
	g, buf := newGen()
	g.cast(types.Int, types.Double)
	assert.Contains(t, buf.String(), "fcvt.d.w fa0, a0")
}

func TestCastUnsignedLongToFloatUsesUnsignedConversion(t *testing.T) {
	g, buf := newGen()
	g.cast(types.ULong, types.Double)
	assert.Contains(t, buf.String(), "fcvt.d.lu fa0, a0")
}

func TestCastToBoolFloatComparesAgainstZero(t *testing.T) {
	g, buf := newGen()
	g.castToBool(types.Double)
	out := buf.String()
	assert.Contains(t, out, "feq.d a0, fa0, fa1")
	assert.Contains(t, out, "xori a0, a0, 1")
}

func TestCastToBoolIntUsesSnez(t *testing.T) {
	g, buf := newGen()
	g.castToBool(types.Int)
	assert.Contains(t, buf.String(), "snez a0, a0")
}

func TestAssignLvarOffsetsAlignsAndSumsStackSize(t *testing.T) {
	g, _ := newGen()
	a := &ast.Obj{Name: "a", IsLocal: true, Ty: types.Char, Align: 1}
	b := &ast.Obj{Name: "b", IsLocal: true, Ty: types.Int, Align: 4}
	fn := &ast.Obj{IsFunction: true, Locals: []*ast.Obj{a, b}}

	g.assignLvarOffsets([]*ast.Obj{fn})

	assert.Equal(t, -1, a.Offset)
	assert.Equal(t, -8, b.Offset)
	assert.Equal(t, 8, fn.StackSize)
}
