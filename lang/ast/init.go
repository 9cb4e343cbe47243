package ast

import (
	"github.com/rv64c/toycc/lang/token"
	"github.com/rv64c/toycc/lang/types"
)

// Initializer is a (possibly nested) variable initializer tree, following
// original_source's parser/initializer.h struct Initializer: scalars carry
// Expr, aggregates carry Children (one per element/member), and a union
// initializer additionally records which Mem was targeted.
type Initializer struct {
	Ty         *types.Type
	Tok        *token.Token
	IsFlexible bool

	Expr     *Node
	Children []*Initializer
	Mem      *types.Member
}

// Designator is one level of a local-variable initializer's address
// computation while it is being lowered into an assignment chain
// (original_source's struct InitDesg).
type Designator struct {
	Next   *Designator
	Idx    int
	Member *types.Member
	Var    *Obj
}
