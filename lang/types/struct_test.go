package types

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rv64c/toycc/lang/token"
)

// member builds a non-bitfield *Member for layout tests, grounded on
// declarator.go's struct_members construction (Name is left nil here since
// LayoutStruct never looks at it).
func member(ty *Type) *Member {
	return &Member{Type: ty, Align: ty.Align}
}

func bitfield(ty *Type, width int) *Member {
	return &Member{Type: ty, Align: ty.Align, IsBitfield: true, BitWidth: width}
}

func TestLayoutStruct(t *testing.T) {
	// struct { char a; int b; char c; } -- b forces padding to 4-byte
	// alignment, c trails at offset 8, whole struct rounds up to align 4.
	ty := StructType()
	ty.Members = []*Member{member(Char), member(Int), member(Char)}
	LayoutStruct(ty)

	assert.Equal(t, 0, ty.Members[0].Offset)
	assert.Equal(t, 4, ty.Members[1].Offset)
	assert.Equal(t, 8, ty.Members[2].Offset)
	assert.Equal(t, 4, ty.Align)
	assert.Equal(t, 12, ty.Size)
}

func TestLayoutStructBitfields(t *testing.T) {
	// struct { int a:3; int b:5; int c; } -- a and b share one 4-byte unit,
	// c starts a fresh unit.
	ty := StructType()
	ty.Members = []*Member{bitfield(Int, 3), bitfield(Int, 5), member(Int)}
	LayoutStruct(ty)

	assert.Equal(t, 0, ty.Members[0].Offset)
	assert.Equal(t, 0, ty.Members[0].BitOffset)
	assert.Equal(t, 0, ty.Members[1].Offset)
	assert.Equal(t, 3, ty.Members[1].BitOffset)
	assert.Equal(t, 4, ty.Members[2].Offset)
}

func TestLayoutUnion(t *testing.T) {
	ty := StructType()
	ty.Kind = UNION
	ty.Members = []*Member{member(Char), member(Long)}
	LayoutUnion(ty)

	assert.Equal(t, 0, ty.Members[0].Offset)
	assert.Equal(t, 0, ty.Members[1].Offset)
	assert.Equal(t, 8, ty.Align)
	assert.Equal(t, 8, ty.Size)
}

func TestFindMemberAnonymous(t *testing.T) {
	// struct { struct { int x; } ; int y; }
	inner := StructType()
	inner.Members = []*Member{member(Int)}
	inner.Members[0].Name = &token.Token{}
	inner.Members[0].Name.SetText("x")
	LayoutStruct(inner)

	outer := StructType()
	anon := &Member{Type: inner, Align: inner.Align}
	outer.Members = []*Member{anon, member(Int)}
	LayoutStruct(outer)

	_, off, ok := FindMember(outer, "x")
	assert.True(t, ok)
	assert.Equal(t, anon.Offset, off)

	_, ok = func() (*Member, bool) {
		m, _, ok := FindMember(outer, "z")
		return m, ok
	}()
	assert.False(t, ok)
}
