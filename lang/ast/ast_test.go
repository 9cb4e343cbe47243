package ast

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rv64c/toycc/lang/types"
)

func TestNewBinaryAndUnary(t *testing.T) {
	lhs := NewNum(1, nil)
	rhs := NewNum(2, nil)
	add := NewBinary(Add, lhs, rhs, nil)

	assert.Equal(t, Add, add.Kind)
	assert.Same(t, lhs, add.Lhs)
	assert.Same(t, rhs, add.Rhs)

	neg := NewUnary(Neg, lhs, nil)
	assert.Equal(t, Neg, neg.Kind)
	assert.Same(t, lhs, neg.Lhs)
}

func TestNewCastCopiesType(t *testing.T) {
	expr := NewNum(1, nil)
	cast := NewCast(expr, types.Int)

	assert.Equal(t, Cast, cast.Kind)
	assert.Same(t, expr, cast.Lhs)
	// NewCast copies the type so later mutation of the shared Int type
	// doesn't bleed into this cast's Ty, mirroring declarator.c's new_cast.
	assert.NotSame(t, types.Int, cast.Ty)
	assert.Equal(t, types.Int.Kind, cast.Ty.Kind)
}

// recorder is a Visitor that records every node's Kind on entry and never
// prunes, so a Walk over it visits the full tree.
type recorder struct {
	kinds []Kind
}

func (r *recorder) Visit(n *Node, dir VisitDirection) Visitor {
	if dir == VisitEnter {
		r.kinds = append(r.kinds, n.Kind)
	}
	return r
}

func TestWalkVisitsIfBranches(t *testing.T) {
	cond := NewNum(1, nil)
	then := NewNode(ExprStmt, nil)
	els := NewNode(ExprStmt, nil)
	n := &Node{Kind: If, Cond: cond, Then: then, Els: els}

	r := &recorder{}
	Walk(r, n)

	assert.Equal(t, []Kind{If, Num, ExprStmt, ExprStmt}, r.kinds)
}

func TestWalkBlockChainsBody(t *testing.T) {
	s1 := NewNode(ExprStmt, nil)
	s2 := NewNode(ExprStmt, nil)
	s1.Next = s2
	block := &Node{Kind: Block, Body: s1}

	r := &recorder{}
	Walk(r, block)

	assert.Equal(t, []Kind{Block, ExprStmt, ExprStmt}, r.kinds)
}

func TestWalkFuncCallVisitsArgs(t *testing.T) {
	a1 := NewNum(1, nil)
	a2 := NewNum(2, nil)
	call := &Node{Kind: FuncCall, FuncName: "f", Args: []*Node{a1, a2}}

	r := &recorder{}
	Walk(r, call)

	assert.Equal(t, []Kind{FuncCall, Num, Num}, r.kinds)
}

func TestPrinterIndentsByDepth(t *testing.T) {
	obj := &Obj{Name: "x"}
	varNode := NewVarNode(obj, nil)
	one := NewNum(1, nil)
	add := NewBinary(Add, varNode, one, nil)
	stmt := &Node{Kind: ExprStmt, Lhs: add}

	var sb strings.Builder
	p := &Printer{Output: &sb}
	require.NoError(t, p.Print(stmt))

	lines := strings.Split(strings.TrimRight(sb.String(), "\n"), "\n")
	assert.Equal(t, []string{
		"expr-stmt",
		". +",
		". . var x",
		". . num 1",
	}, lines)
}
