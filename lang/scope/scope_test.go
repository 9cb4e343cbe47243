package scope

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rv64c/toycc/lang/ast"
	"github.com/rv64c/toycc/lang/types"
)

func TestVarLookupWalksOutward(t *testing.T) {
	s := NewStack()
	s.PushVar("x").Var = &ast.Obj{Name: "x", IsLocal: false}

	s.Enter()
	inner := s.PushVar("x")
	inner.Var = &ast.Obj{Name: "x", IsLocal: true}

	found, ok := s.FindVar("x")
	assert.True(t, ok)
	assert.Same(t, inner, found)

	s.Leave()
	found, ok = s.FindVar("x")
	assert.True(t, ok)
	assert.True(t, !found.Var.IsLocal)
}

func TestLeaveAtFileScopePanics(t *testing.T) {
	s := NewStack()
	assert.Panics(t, func() { s.Leave() })
}

func TestFindFuncOnlyMatchesFileScopeFunctions(t *testing.T) {
	s := NewStack()
	vs := s.PushVar("f")
	vs.Var = &ast.Obj{Name: "f", IsFunction: true}

	obj, ok := s.FindFunc("f")
	assert.True(t, ok)
	assert.Same(t, vs.Var, obj)

	s.Enter()
	local := s.PushVar("g")
	local.Var = &ast.Obj{Name: "g", IsFunction: true}
	// g is bound in block scope, not file scope, so FindFunc must not see it.
	_, ok = s.FindFunc("g")
	assert.False(t, ok)
}

func TestOverwriteTagCompletesForwardDeclaration(t *testing.T) {
	s := NewStack()
	incomplete := types.StructType()
	incomplete.Size = -1
	s.PushTag("foo", incomplete)

	complete := types.StructType()
	complete.Size = 8
	existing := s.OverwriteTag("foo", complete)

	assert.Same(t, incomplete, existing)
	got, ok := s.FindTag("foo")
	assert.True(t, ok)
	assert.Equal(t, 8, got.Size)

	assert.Nil(t, s.OverwriteTag("bar", complete))
}

func TestAtFileScope(t *testing.T) {
	s := NewStack()
	assert.True(t, s.AtFileScope())
	s.Enter()
	assert.False(t, s.AtFileScope())
	s.Leave()
	assert.True(t, s.AtFileScope())
}
